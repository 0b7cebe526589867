package cafe24

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/go-faster/errors"
)

// ErrNoToken is returned by a TokenStore when no token has been saved yet.
var ErrNoToken = errors.New("cafe24: no stored token")

// Token holds the OAuth credential pair issued by the vendor.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenStore persists the vendor OAuth token outside the process so that a
// restart does not force a new authorization flow.
type TokenStore interface {
	Load(ctx context.Context) (Token, error)
	Save(ctx context.Context, t Token) error
}

// FileTokenStore stores the token as a JSON file on local disk.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStore returns a TokenStore backed by the file at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads the token file. A missing file maps to ErrNoToken.
func (s *FileTokenStore) Load(_ context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Token{}, ErrNoToken
		}
		return Token{}, errors.Wrap(err, "read token file")
	}

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return Token{}, errors.Wrap(err, "decode token file")
	}
	if t.AccessToken == "" {
		return Token{}, ErrNoToken
	}
	return t, nil
}

// Save writes the token file with owner-only permissions.
func (s *FileTokenStore) Save(_ context.Context, t Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "encode token")
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(err, "write token file")
	}
	return nil
}
