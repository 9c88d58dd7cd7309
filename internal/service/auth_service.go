package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"inkpress/internal/cache"
	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/repository"
	"inkpress/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenType is the scheme returned alongside access tokens.
const TokenType = "bearer"

// AuthConfig carries the signing parameters for access tokens.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// TokenResponse is the login payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Claims is the verified content of an access token.
type Claims struct {
	UserID    uint
	Email     string
	Role      models.Role
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type accessClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UpdatePasswordInput re-states the caller's credentials next to the new password.
type UpdatePasswordInput struct {
	Email       string
	Password    string
	NewPassword string
}

type AuthService struct {
	userRepo    repository.UserRepository
	revocations cache.RevocationStore
	cfg         AuthConfig
	now         func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, revocations cache.RevocationStore, cfg AuthConfig) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		revocations: revocations,
		cfg:         cfg,
		now:         time.Now,
	}
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// burnCompare spends one bcrypt comparison so unknown logins take as long as wrong passwords.
func burnCompare(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("inkpress-placeholder-1"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

var errBadCredentials = models.NewUnauthorizedError("Incorrect username or password")

// Login checks an email or username against its stored hash and issues a token.
func (s *AuthService) Login(ctx context.Context, login, password string) (*TokenResponse, error) {
	user, err := s.userRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		burnCompare(password)
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errBadCredentials
	}

	token, _, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: token, TokenType: TokenType}, nil
}

// IssueToken signs an HS256 token whose subject is the user id.
func (s *AuthService) IssueToken(user *models.User) (string, *Claims, error) {
	now := s.now()
	claims := accessClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}
	return signed, claims.toClaims(user.ID), nil
}

func (c accessClaims) toClaims(userID uint) *Claims {
	out := &Claims{UserID: userID, Email: c.Email, Role: c.Role, ID: c.ID}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

// ParseToken verifies signature, algorithm, issuer, audience and expiry.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.NewUnauthorizedError("Token has expired")
		}
		return nil, models.NewUnauthorizedError("Could not validate credentials")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 || claims.ID == "" {
		return nil, models.NewUnauthorizedError("Could not validate credentials")
	}
	return claims.toClaims(uint(userID)), nil
}

// ResolveCurrentUser verifies the token, rejects revoked ones and loads its user.
// A revocation store error is logged and the token is treated as not revoked.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, tokenString string) (*models.User, *Claims, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "revocation check failed, allowing token",
				slog.String("backend", s.revocations.Backend()),
				slog.String("error", err.Error()),
			)
		} else if revoked {
			return nil, nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.IsKind(err, models.KindNotFound) {
			return nil, nil, models.NewUnauthorizedError("Could not validate credentials")
		}
		return nil, nil, err
	}
	return user, claims, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if s.revocations == nil {
		return models.NewInternalError(errors.New("no revocation store configured"))
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		middleware.Logger.ErrorContext(ctx, "token revocation failed",
			slog.String("backend", s.revocations.Backend()),
			slog.String("error", err.Error()),
		)
		return models.NewInternalError(err)
	}
	return nil
}

// UpdatePassword requires the caller to restate their own email and current password.
func (s *AuthService) UpdatePassword(ctx context.Context, current *models.User, in UpdatePasswordInput) error {
	email, err := validation.NormalizeEmail(in.Email)
	if err != nil || email != current.Email {
		return errBadCredentials
	}
	// The cached user has no hash; read the row directly.
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.ID != current.ID {
		return errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return errBadCredentials
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError("Validation failed", models.FieldError{
			Field: "new_password", Tag: "password", Message: err.Error(),
		})
	}

	hashed, err := HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hashed)
}

// RequireRole fails with 403 when the user ranks below min.
func RequireRole(user *models.User, min models.Role) error {
	if !user.HasRole(min) {
		return models.NewForbiddenError("Insufficient permissions")
	}
	return nil
}
