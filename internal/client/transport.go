package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/gaprio/auth-service/internal/client/credentials"
	"github.com/gaprio/auth-service/internal/models"
)

var ErrSessionExpired = errors.New("session expired")

// Transport attaches the current access token to every outgoing request
// and recovers from a single expired-access-token failure per request:
// first 401 triggers one refresh call and one retry of the original
// request; a 401 on the retried request passes through unchanged.
//
// Concurrent 401s share a single refresh call per refresh token, so the
// store is written once and every waiter retries with the same new access
// token.
type Transport struct {
	// Base is the underlying round tripper, http.DefaultTransport if nil.
	Base http.RoundTripper
	// Store supplies and receives the session tokens.
	Store credentials.Store
	// RefreshURL is the absolute URL of the refresh endpoint. The refresh
	// call bypasses this transport.
	RefreshURL string
	// OnLogout is invoked after the store is cleared because recovery is
	// impossible. Fire-and-forget; may be nil.
	OnLogout func()

	refreshGroup  singleflight.Group
	refreshClient *http.Client
}

func NewTransport(store credentials.Store, refreshURL string, onLogout func()) *Transport {
	return &Transport{
		Store:         store,
		RefreshURL:    refreshURL,
		OnLogout:      onLogout,
		refreshClient: &http.Client{},
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	session, ok := t.Store.Get()

	authedReq := req
	if ok && session.AccessToken != "" {
		authedReq = req.Clone(req.Context())
		authedReq.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}

	resp, err := t.base().RoundTrip(authedReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// First unauthorized for this logical request. Without a refresh
	// token there is nothing to recover with.
	if session.RefreshToken == "" {
		t.logout()
		return resp, nil
	}

	// The retry needs a replayable body.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	newAccess, err := t.refresh(session.RefreshToken)
	if err != nil {
		t.logout()
		return resp, nil
	}

	// Retried exactly once; a second 401 passes through below.
	resp.Body.Close()

	retryReq := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		retryReq.Body = body
	}
	retryReq.Header.Set("Authorization", "Bearer "+newAccess)

	return t.base().RoundTrip(retryReq)
}

// refresh exchanges the refresh token for a new access token and updates
// the store. Concurrent callers holding the same refresh token are
// coalesced into one HTTP call.
func (t *Transport) refresh(refreshToken string) (string, error) {
	token, err, _ := t.refreshGroup.Do(refreshToken, func() (interface{}, error) {
		payload, err := json.Marshal(models.RefreshTokenRequest{RefreshToken: refreshToken})
		if err != nil {
			return "", fmt.Errorf("encode refresh request: %w", err)
		}

		resp, err := t.refreshClient.Post(t.RefreshURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("refresh call: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return "", ErrSessionExpired
		}

		var envelope models.DataEnvelope[models.AccessTokenResponse]
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return "", fmt.Errorf("decode refresh response: %w", err)
		}
		if envelope.Data.AccessToken == "" {
			return "", ErrSessionExpired
		}

		if err := t.Store.UpdateAccess(envelope.Data.AccessToken); err != nil {
			return "", fmt.Errorf("update credential store: %w", err)
		}

		return envelope.Data.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (t *Transport) logout() {
	t.Store.Clear()
	if t.OnLogout != nil {
		t.OnLogout()
	}
}
