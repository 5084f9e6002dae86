// Package switcher makes a stored account the active Codex CLI login by
// rewriting auth.json, and imports existing auth.json files as accounts.
package switcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/codexswitch/internal/core"
	"github.com/janekbaraniewski/codexswitch/internal/credential"
)

type Switcher struct {
	home HomeResolver
	now  func() time.Time
	log  *zap.Logger
}

type Option func(*Switcher)

func WithClock(now func() time.Time) Option {
	return func(s *Switcher) { s.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Switcher) { s.log = log.Named("switcher") }
}

func New(home HomeResolver, opts ...Option) *Switcher {
	s := &Switcher{
		home: home,
		now:  time.Now,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Switcher) ActivePath() (string, error) {
	dir, err := s.home.CodexHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, authFileName), nil
}

// Switch replaces auth.json with acct's credentials. The file is written
// through a 0600 temp file and renamed into place, so it is never readable
// by group or other.
func (s *Switcher) Switch(acct core.StoredAccount) error {
	switch acct.Auth.(type) {
	case core.APIKeyAuth, core.ChatGPTAuth:
	default:
		return fmt.Errorf("account %s: unknown auth mode %T", acct.ID, acct.Auth)
	}

	dir, err := s.home.CodexHome()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating codex home %s: %w", dir, err)
	}

	data, err := credential.Marshal(credential.ToDocument(acct, s.now()))
	if err != nil {
		return err
	}

	path := filepath.Join(dir, authFileName)
	if err := writeFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	s.log.Debug("switched active account",
		zap.String("account_id", acct.ID),
		zap.String("auth_mode", string(acct.AuthMode())),
		zap.String("path", path))
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpName, path); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}

// Import reads an auth.json at path and turns it into a new account named
// name. For token documents the id_token is peeked for email and plan.
func (s *Switcher) Import(path, name string) (core.StoredAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.StoredAccount{}, fmt.Errorf("reading auth.json %s: %w", path, err)
	}

	doc, err := credential.Parse(data)
	if err != nil {
		return core.StoredAccount{}, fmt.Errorf("parsing auth.json %s: %w", path, err)
	}

	auth, err := credential.FromDocument(doc)
	if err != nil {
		return core.StoredAccount{}, fmt.Errorf("importing %s: %w", path, err)
	}

	switch a := auth.(type) {
	case core.APIKeyAuth:
		return core.NewAPIKeyAccount(name, a.Key), nil
	case core.ChatGPTAuth:
		claims := ExtractClaims(a.IDToken)
		if claims.Email == nil {
			s.log.Debug("no email claim in id_token", zap.String("path", path))
		}
		return core.NewChatGPTAccount(name, claims.Email, claims.PlanType,
			a.IDToken, a.AccessToken, a.RefreshToken, a.AccountID), nil
	default:
		return core.StoredAccount{}, fmt.Errorf("importing %s: unknown auth mode %T", path, auth)
	}
}

// ReadActive returns the current auth.json, or nil when there is none.
func (s *Switcher) ReadActive() (*credential.Document, error) {
	path, err := s.ActivePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading auth.json %s: %w", path, err)
	}

	doc, err := credential.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing auth.json %s: %w", path, err)
	}
	return &doc, nil
}

func (s *Switcher) HasActiveLogin() (bool, error) {
	doc, err := s.ReadActive()
	if err != nil {
		return false, err
	}
	return doc != nil && doc.HasCredentials(), nil
}

// ActiveAccountMatch finds the stored account whose credentials are the ones
// currently in auth.json.
func (s *Switcher) ActiveAccountMatch(accounts []core.StoredAccount) (core.StoredAccount, bool, error) {
	doc, err := s.ReadActive()
	if err != nil || doc == nil {
		return core.StoredAccount{}, false, err
	}

	active, err := credential.FromDocument(*doc)
	if err != nil {
		return core.StoredAccount{}, false, nil
	}

	acct, ok := lo.Find(accounts, func(a core.StoredAccount) bool {
		return sameCredentials(a.Auth, active)
	})
	return acct, ok, nil
}

func sameCredentials(stored, active core.AuthData) bool {
	switch s := stored.(type) {
	case core.APIKeyAuth:
		a, ok := active.(core.APIKeyAuth)
		return ok && a.Key == s.Key
	case core.ChatGPTAuth:
		a, ok := active.(core.ChatGPTAuth)
		if !ok {
			return false
		}
		// The CLI rotates access tokens on its own, so either token matching counts.
		return (s.RefreshToken != "" && a.RefreshToken == s.RefreshToken) ||
			(s.AccessToken != "" && a.AccessToken == s.AccessToken)
	}
	return false
}
