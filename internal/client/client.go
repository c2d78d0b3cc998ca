// Package client is the Go consumer of the auth API: a credential store,
// an authenticated request pipeline with silent refresh, and typed calls
// for the auth endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gaprio/auth-service/internal/client/credentials"
	"github.com/gaprio/auth-service/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnverifiedAccount  = errors.New("account email is not verified")
	ErrCodeInvalid        = errors.New("invalid or expired code")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthorized       = errors.New("unauthorized")
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      credentials.Store
}

// New builds a client whose requests go through the refreshing transport.
// onLogout fires when the session cannot be recovered; use it to route the
// user back to the login entry point.
func New(baseURL string, store credentials.Store, onLogout func()) *Client {
	transport := NewTransport(store, baseURL+"/auth/refresh-token", onLogout)
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   defaultTimeout,
		},
		store: store,
	}
}

func (c *Client) Store() credentials.Store { return c.store }

// Register creates an account; the server replies with an ack and sends a
// verification code out of band.
func (c *Client) Register(ctx context.Context, fullName, email, password string) error {
	resp, err := c.post(ctx, "/auth/register", models.RegisterRequest{
		FullName: fullName,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return c.apiError(resp)
	}
	return nil
}

// Login exchanges credentials for a token pair and persists it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := c.post(ctx, "/auth/login", models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}

	return c.storeTokenPair(resp)
}

// VerifyEmail confirms the account with the emailed code; on success the
// issued token pair is persisted, logging the user in.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	resp, err := c.post(ctx, "/auth/verify-email", models.VerifyEmailRequest{Email: email, Code: code})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}

	return c.storeTokenPair(resp)
}

func (c *Client) ResendCode(ctx context.Context, email string) error {
	resp, err := c.post(ctx, "/auth/resend-code", models.ResendCodeRequest{Email: email})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}
	return nil
}

// Me fetches the current user profile.
func (c *Client) Me(ctx context.Context) (*models.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var profile models.UserProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// Logout revokes the session server-side and clears the store.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.post(ctx, "/auth/logout", struct{}{})
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	return c.store.Clear()
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

func (c *Client) storeTokenPair(resp *http.Response) error {
	var envelope models.DataEnvelope[models.TokenPair]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode token pair: %w", err)
	}

	return c.store.Set(credentials.Session{
		AccessToken:  envelope.Data.AccessToken,
		RefreshToken: envelope.Data.RefreshToken,
	})
}

// apiError maps the server's status and reason to a client error.
func (c *Client) apiError(resp *http.Response) error {
	var body struct {
		Reason string `json:"reason"`
	}
	json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		switch {
		case body.Reason == ErrInvalidCredentials.Error():
			return ErrInvalidCredentials
		case body.Reason == ErrCodeInvalid.Error():
			return ErrCodeInvalid
		default:
			return ErrUnauthorized
		}
	case http.StatusForbidden:
		return ErrUnverifiedAccount
	case http.StatusConflict:
		return ErrEmailTaken
	default:
		if body.Reason != "" {
			return fmt.Errorf("server error (status %d): %s", resp.StatusCode, body.Reason)
		}
		return fmt.Errorf("server error (status %d)", resp.StatusCode)
	}
}
