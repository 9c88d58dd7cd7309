package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gocloud.dev/blob/driver"
	"gocloud.dev/blob/fileblob"
)

// MediaPrefix is the HTTP path under which LocalStore objects are served.
const MediaPrefix = "/media/"

var (
	ErrURLExpired       = errors.New("storage: signed url expired")
	ErrInvalidSignature = errors.New("storage: invalid url signature")
)

// LocalStore keeps objects on disk under root. Read URLs are signed with the
// fileblob HMAC signer, which covers the object key, expiry and method.
type LocalStore struct {
	root   string
	media  *url.URL
	signer *fileblob.URLSignerHMAC
	now    func() time.Time
}

// NewLocalStore creates root if needed. baseURL is the public origin serving MediaPrefix.
func NewLocalStore(root, baseURL string, secret []byte) (*LocalStore, error) {
	if len(secret) == 0 {
		return nil, errors.New("storage: local store requires a signing secret")
	}
	media, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse media base url: %w", err)
	}
	media = media.JoinPath(MediaPrefix)
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		root:   abs,
		media:  media,
		signer: fileblob.NewURLSignerHMAC(media, secret),
		now:    time.Now,
	}, nil
}

func (s *LocalStore) Driver() string { return "local" }

// Path resolves key to a file path inside root.
func (s *LocalStore) Path(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// Put writes to a temp file and renames it into place so readers never see partial objects.
func (s *LocalStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Delete removes the object. Deleting a missing object succeeds.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	p, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	signed, err := s.signer.URLFromKey(ctx, cleaned, &driver.SignedURLOptions{
		Expiry: ttl,
		Method: http.MethodGet,
	})
	if err != nil {
		return "", fmt.Errorf("sign media url: %w", err)
	}
	// The signature lives in the query; the path only routes the request.
	signed.Path = s.media.JoinPath(cleaned).Path
	return signed.String(), nil
}

// Verify checks the query of a URL produced by PresignGet against the key in its path.
func (s *LocalStore) Verify(ctx context.Context, key string, query url.Values) error {
	cleaned, err := CleanKey(key)
	if err != nil {
		return err
	}
	if query.Get("method") != http.MethodGet {
		return ErrInvalidSignature
	}
	expiry, err := strconv.ParseInt(query.Get("expiry"), 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	expired := s.now().Unix() > expiry

	signedKey, err := s.signer.KeyFromURL(ctx, &url.URL{RawQuery: query.Encode()})
	switch {
	case err != nil && expired:
		return ErrURLExpired
	case err != nil, signedKey != cleaned:
		return ErrInvalidSignature
	case expired:
		return ErrURLExpired
	}
	return nil
}

func (s *LocalStore) Ping(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("storage: %s is not a directory", s.root)
	}
	return nil
}
