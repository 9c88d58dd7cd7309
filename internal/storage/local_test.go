package storage

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), "http://media.test/", []byte("secret"))
	require.NoError(t, err)
	return s
}

func TestLocalStore_PutDelete(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "articles/1/a.txt", strings.NewReader("hello"), 5, "text/plain"))
	p, err := s.Path("articles/1/a.txt")
	require.NoError(t, err)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(ctx, "articles/1/a.txt"))
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(ctx, "articles/1/a.txt"), "deleting a missing object succeeds")
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s := newLocal(t)
	for _, key := range []string{"", "/etc/passwd", "../secret", "a/../../b", `a\b`} {
		assert.ErrorIs(t, s.Put(context.Background(), key, strings.NewReader("x"), 1, "text/plain"), ErrInvalidKey, key)
	}
}

func TestLocalStore_SignedURLRoundTrip(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	raw, err := s.PresignGet(ctx, "articles/1/a.png", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "media.test", u.Host)
	assert.Equal(t, "/media/articles/1/a.png", u.Path)

	key := strings.TrimPrefix(u.Path, MediaPrefix)
	query := u.Query()
	assert.Equal(t, key, query.Get("obj"))
	assert.NoError(t, s.Verify(ctx, key, query))

	assert.ErrorIs(t, s.Verify(ctx, "articles/1/b.png", query), ErrInvalidSignature)
	assert.ErrorIs(t, s.Verify(ctx, "../a.png", query), ErrInvalidKey)

	tamper := func(k, v string) url.Values {
		q := url.Values{}
		for name, vals := range query {
			q[name] = append([]string(nil), vals...)
		}
		q.Set(k, v)
		return q
	}
	assert.ErrorIs(t, s.Verify(ctx, key, tamper("expiry", "4102444800")), ErrInvalidSignature)
	assert.ErrorIs(t, s.Verify(ctx, key, tamper("expiry", "soon")), ErrInvalidSignature)
	assert.ErrorIs(t, s.Verify(ctx, key, tamper("method", http.MethodPut)), ErrInvalidSignature)
	assert.ErrorIs(t, s.Verify(ctx, key, tamper("signature", "AAAA")), ErrInvalidSignature)

	other, err := NewLocalStore(t.TempDir(), "http://media.test", []byte("another-secret"))
	require.NoError(t, err)
	assert.ErrorIs(t, other.Verify(ctx, key, query), ErrInvalidSignature)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, s.Verify(ctx, key, query), ErrURLExpired)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Options{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
