package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkpress/internal/cache"
	"inkpress/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-that-is-long-enough-123"

var testAuthConfig = AuthConfig{
	Secret:   testSecret,
	Issuer:   "inkpress-api",
	Audience: "inkpress-client",
	TTL:      30 * time.Minute,
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

type failingRevocations struct{}

func (failingRevocations) Revoke(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func (failingRevocations) Ping(context.Context) error { return errors.New("redis down") }
func (failingRevocations) Backend() string            { return "broken" }

func authFixture(t *testing.T) (*AuthService, *userRepoStub, *models.User) {
	t.Helper()
	alice := &models.User{
		ID:       7,
		Username: "alice",
		Email:    "alice@example.com",
		Password: hashed(t, "secret123"),
		Role:     models.RoleAuthor,
	}
	repo := noopUserRepo()
	repo.getByLoginFn = func(_ context.Context, login string) (*models.User, error) {
		if login == alice.Email || login == alice.Username {
			cp := *alice
			return &cp, nil
		}
		return nil, nil
	}
	repo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == alice.Email {
			cp := *alice
			return &cp, nil
		}
		return nil, nil
	}
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		if id == alice.ID {
			cp := *alice
			return &cp, nil
		}
		return nil, models.NewNotFoundError("User", id)
	}
	svc := NewAuthService(repo, cache.NewMemoryRevocationStore(time.Hour), testAuthConfig)
	return svc, repo, alice
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	svc, _, _ := authFixture(t)
	ctx := context.Background()

	t.Run("email and password", func(t *testing.T) {
		t.Parallel()
		resp, err := svc.Login(ctx, "alice@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("username works as login", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Login(ctx, "alice", "secret123")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Login(ctx, "alice@example.com", "secret124")
		assertUnauthorizedError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		_, err := svc.Login(ctx, "bob@example.com", "secret123")
		assertUnauthorizedError(t, err)
	})
}

func TestAuthService_IssueAndParseToken(t *testing.T) {
	t.Parallel()
	svc, _, alice := authFixture(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	token, issued, err := svc.IssueToken(alice)
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, claims.UserID)
	assert.Equal(t, alice.Email, claims.Email)
	assert.Equal(t, models.RoleAuthor, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.ExpiresAt.Equal(fixed.Add(30*time.Minute)))

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return fixed.Add(31 * time.Minute) }
		defer func() { svc.now = func() time.Time { return fixed } }()
		_, err := svc.ParseToken(token)
		assertUnauthorizedError(t, err)
	})
}

func TestAuthService_ParseToken_Rejects(t *testing.T) {
	t.Parallel()
	svc, _, alice := authFixture(t)
	now := time.Now()

	sign := func(method jwt.SigningMethod, secret string, mutate func(*jwt.RegisteredClaims)) string {
		rc := jwt.RegisteredClaims{
			Subject:   "7",
			Issuer:    testAuthConfig.Issuer,
			Audience:  jwt.ClaimStrings{testAuthConfig.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			ID:        "jti-1",
		}
		if mutate != nil {
			mutate(&rc)
		}
		s, err := jwt.NewWithClaims(method, accessClaims{Email: alice.Email, Role: alice.Role, RegisteredClaims: rc}).
			SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"wrong secret", sign(jwt.SigningMethodHS256, "another-secret", nil)},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, testSecret, nil)},
		{"wrong audience", sign(jwt.SigningMethodHS256, testSecret, func(c *jwt.RegisteredClaims) {
			c.Audience = jwt.ClaimStrings{"someone-else"}
		})},
		{"wrong issuer", sign(jwt.SigningMethodHS256, testSecret, func(c *jwt.RegisteredClaims) {
			c.Issuer = "evil"
		})},
		{"missing expiry", sign(jwt.SigningMethodHS256, testSecret, func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = nil
		})},
		{"non numeric subject", sign(jwt.SigningMethodHS256, testSecret, func(c *jwt.RegisteredClaims) {
			c.Subject = "alice@example.com"
		})},
		{"missing jti", sign(jwt.SigningMethodHS256, testSecret, func(c *jwt.RegisteredClaims) {
			c.ID = ""
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ParseToken(tt.token)
			assertUnauthorizedError(t, err)
		})
	}
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	t.Parallel()
	svc, _, alice := authFixture(t)
	ctx := context.Background()

	token, claims, err := svc.IssueToken(alice)
	require.NoError(t, err)

	user, _, err := svc.ResolveCurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	require.NoError(t, svc.Logout(ctx, claims))

	_, _, err = svc.ResolveCurrentUser(ctx, token)
	assertUnauthorizedError(t, err)

	other, _, err := svc.IssueToken(alice)
	require.NoError(t, err)
	_, _, err = svc.ResolveCurrentUser(ctx, other)
	assert.NoError(t, err, "only the logged out token is revoked")
}

func TestAuthService_LogoutExpiredTokenIsNoop(t *testing.T) {
	t.Parallel()
	svc, _, _ := authFixture(t)
	svc.revocations = failingRevocations{}
	err := svc.Logout(context.Background(), &Claims{ID: "old", ExpiresAt: time.Now().Add(-time.Second)})
	assert.NoError(t, err)
}

func TestAuthService_RevocationStoreFailures(t *testing.T) {
	t.Parallel()
	svc, _, alice := authFixture(t)
	svc.revocations = failingRevocations{}
	ctx := context.Background()

	token, claims, err := svc.IssueToken(alice)
	require.NoError(t, err)

	_, _, err = svc.ResolveCurrentUser(ctx, token)
	assert.NoError(t, err, "a failing revocation check lets the token through")

	err = svc.Logout(ctx, claims)
	assertAppErrorCode(t, err, "INTERNAL_ERROR")
}

func TestAuthService_ResolveCurrentUser_DeletedUser(t *testing.T) {
	t.Parallel()
	svc, _, _ := authFixture(t)
	token, _, err := svc.IssueToken(&models.User{ID: 99, Email: "gone@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	_, _, err = svc.ResolveCurrentUser(context.Background(), token)
	assertUnauthorizedError(t, err)
}

func TestAuthService_UpdatePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("email of another account", func(t *testing.T) {
		t.Parallel()
		svc, _, alice := authFixture(t)
		err := svc.UpdatePassword(ctx, alice, UpdatePasswordInput{
			Email: "bob@example.com", Password: "secret123", NewPassword: "newsecret1",
		})
		assertUnauthorizedError(t, err)
	})

	t.Run("wrong current password", func(t *testing.T) {
		t.Parallel()
		svc, _, alice := authFixture(t)
		err := svc.UpdatePassword(ctx, alice, UpdatePasswordInput{
			Email: "alice@example.com", Password: "nope12345", NewPassword: "newsecret1",
		})
		assertUnauthorizedError(t, err)
	})

	t.Run("weak new password", func(t *testing.T) {
		t.Parallel()
		svc, _, alice := authFixture(t)
		err := svc.UpdatePassword(ctx, alice, UpdatePasswordInput{
			Email: "alice@example.com", Password: "secret123", NewPassword: "short",
		})
		assertValidationError(t, err)
	})

	t.Run("stores a new hash", func(t *testing.T) {
		t.Parallel()
		svc, repo, alice := authFixture(t)
		var stored string
		repo.updatePasswordFn = func(_ context.Context, id uint, hash string) error {
			assert.Equal(t, alice.ID, id)
			stored = hash
			return nil
		}
		err := svc.UpdatePassword(ctx, alice, UpdatePasswordInput{
			Email: "Alice@Example.com", Password: "secret123", NewPassword: "newsecret1",
		})
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("newsecret1")))
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	tests := []struct {
		have    models.Role
		need    models.Role
		allowed bool
	}{
		{models.RoleUser, models.RoleUser, true},
		{models.RoleUser, models.RoleAuthor, false},
		{models.RoleAuthor, models.RoleAuthor, true},
		{models.RoleAuthor, models.RoleModerator, false},
		{models.RoleModerator, models.RoleAuthor, true},
		{models.RoleAdmin, models.RoleModerator, true},
		{models.Role("ghost"), models.RoleUser, false},
	}
	for _, tt := range tests {
		err := RequireRole(&models.User{Role: tt.have}, tt.need)
		if tt.allowed {
			assert.NoError(t, err, "%s >= %s", tt.have, tt.need)
		} else {
			assertForbiddenError(t, err)
		}
	}
	assertForbiddenError(t, RequireRole(nil, models.RoleUser))
}
