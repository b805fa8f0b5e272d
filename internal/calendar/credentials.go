package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// CredentialSource hands out an access credential for a person. How the
// credential was obtained or is refreshed is the issuer's concern.
type CredentialSource interface {
	TokenSource(ctx context.Context, email string) (oauth2.TokenSource, error)
}

// FileCredentials serves tokens from a JSON file keyed by email:
//
//	{"trainer@example.com": {"access_token": "...", "refresh_token": "...", "expiry": "..."}}
type FileCredentials struct {
	mu     sync.RWMutex
	path   string
	tokens map[string]*oauth2.Token
	conf   *oauth2.Config
}

// NewFileCredentials loads tokens from path. conf may be nil, in which case
// tokens are used as-is without refresh.
func NewFileCredentials(path string, conf *oauth2.Config) (*FileCredentials, error) {
	fc := &FileCredentials{path: path, conf: conf}
	if err := fc.Reload(); err != nil {
		return nil, err
	}
	return fc, nil
}

func (f *FileCredentials) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read credentials file: %w", err)
	}

	raw := map[string]*oauth2.Token{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode credentials file: %w", err)
	}

	tokens := make(map[string]*oauth2.Token, len(raw))
	for email, tok := range raw {
		tokens[strings.ToLower(strings.TrimSpace(email))] = tok
	}

	f.mu.Lock()
	f.tokens = tokens
	f.mu.Unlock()
	return nil
}

func (f *FileCredentials) TokenSource(ctx context.Context, email string) (oauth2.TokenSource, error) {
	f.mu.RLock()
	tok, ok := f.tokens[strings.ToLower(strings.TrimSpace(email))]
	f.mu.RUnlock()

	if !ok || tok == nil {
		return nil, ErrNoCredential
	}
	if f.conf != nil {
		return f.conf.TokenSource(ctx, tok), nil
	}
	return oauth2.StaticTokenSource(tok), nil
}
