package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gaprio/auth-service/internal/models"
	"github.com/gaprio/auth-service/internal/storage"
	"github.com/gaprio/auth-service/internal/util"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnverifiedAccount   = errors.New("account email is not verified")
	ErrCodeInvalid         = errors.New("invalid or expired code")
	ErrRefreshTokenInvalid = errors.New("invalid or expired refresh token")
	ErrEmailTaken          = errors.New("email already registered")
)

type AuthService struct {
	tokens     *TokenService
	storage    storage.Storage
	codes      storage.CodeStorage
	mailer     *MailerService
	codeTTL    time.Duration
	codeLength int
	log        *zap.SugaredLogger
}

func NewAuthService(
	tokens *TokenService,
	store storage.Storage,
	codes storage.CodeStorage,
	mailer *MailerService,
	cfg *util.VerificationConfig,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		tokens:     tokens,
		storage:    store,
		codes:      codes,
		mailer:     mailer,
		codeTTL:    cfg.CodeTTL,
		codeLength: cfg.CodeLength,
		log:        log,
	}
}

// Register creates an unverified user and sends a verification code.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, email, string(hash), fullName)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	if err := s.issueVerificationCode(ctx, user.Email); err != nil {
		return err
	}

	s.log.Infow("User registered", "userID", user.ID)
	return nil
}

// VerifyEmail checks the code, marks the account verified and issues the
// first token pair.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*models.TokenPair, error) {
	stored, err := s.codes.GetCode(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrCodeNotFound) {
			return nil, ErrCodeInvalid
		}
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	if stored != code {
		return nil, ErrCodeInvalid
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrCodeInvalid
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	now := time.Now()
	refreshToken, selector, verifierHash, err := s.tokens.CreateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	err = s.storage.VerifyEmailTx(ctx, user.ID, models.RefreshToken{
		Selector:     selector,
		VerifierHash: verifierHash,
		ExpiresAt:    now.Add(s.tokens.RefreshTTL()),
		CreatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("verify email tx: %w", err)
	}

	if err := s.codes.DeleteCode(ctx, email); err != nil {
		s.log.Warnw("failed to delete used verification code", "error", err)
	}

	accessToken, err := s.tokens.CreateAccessToken(user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ResendCode reissues a verification code for an unverified account.
func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// No account enumeration: resend acks regardless.
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}

	return s.issueVerificationCode(ctx, user.Email)
}

// Login checks credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrUnverifiedAccount
	}

	now := time.Now()
	refreshToken, selector, verifierHash, err := s.tokens.CreateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	_, err = s.storage.CreateRefreshToken(ctx, models.RefreshToken{
		UserID:       user.ID,
		Selector:     selector,
		VerifierHash: verifierHash,
		ExpiresAt:    now.Add(s.tokens.RefreshTTL()),
		CreatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	accessToken, err := s.tokens.CreateAccessToken(user.ID, now)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	s.log.Infow("User logged in", "userID", user.ID)
	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is left in place until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	selector, err := s.tokens.SplitRefreshToken(refreshToken)
	if err != nil {
		return "", ErrRefreshTokenInvalid
	}

	record, err := s.storage.GetRefreshTokenBySelector(ctx, selector)
	if err != nil {
		if errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return "", ErrRefreshTokenInvalid
		}
		return "", fmt.Errorf("get refresh token: %w", err)
	}

	now := time.Now()
	if now.After(record.ExpiresAt) {
		if err := s.storage.DeleteRefreshToken(ctx, selector); err != nil {
			s.log.Warnw("failed to delete expired refresh token", "error", err)
		}
		return "", ErrRefreshTokenInvalid
	}

	if err := s.tokens.ValidateRefreshToken(refreshToken, record.VerifierHash); err != nil {
		return "", ErrRefreshTokenInvalid
	}

	accessToken, err := s.tokens.CreateAccessToken(record.UserID, now)
	if err != nil {
		return "", fmt.Errorf("create access token: %w", err)
	}

	return accessToken, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.UserProfile, error) {
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &models.UserProfile{ID: user.ID, Email: user.Email, FullName: user.FullName}, nil
}

// Connections lists the user's third-party integrations.
func (s *AuthService) Connections(ctx context.Context, userID int64) ([]models.Connection, error) {
	conns, err := s.storage.ListUserConnections(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return conns, nil
}

// Logout drops the user's refresh tokens and blacklists the presented
// access token for the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, userID int64, accessToken string) error {
	if err := s.storage.DeleteUserRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	if err := s.tokens.InvalidateAccessToken(ctx, accessToken); err != nil {
		return fmt.Errorf("invalidate access token: %w", err)
	}
	s.log.Infow("User logged out", "userID", userID)
	return nil
}

func (s *AuthService) issueVerificationCode(ctx context.Context, email string) error {
	code, err := generateCode(s.codeLength)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := s.codes.SaveCode(ctx, email, code, s.codeTTL); err != nil {
		return fmt.Errorf("save verification code: %w", err)
	}
	s.mailer.SendVerificationCode(ctx, email, code)
	return nil
}
