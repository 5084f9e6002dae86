// Package accounts is the command surface over the account store, the
// switcher and the usage fetcher.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/codexswitch/internal/core"
	"github.com/janekbaraniewski/codexswitch/internal/store"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAmbiguousName   = errors.New("account name is ambiguous")
	ErrEmptyName       = errors.New("account name must not be empty")
	ErrEmptyAPIKey     = errors.New("API key must not be empty")
)

type AccountStore interface {
	LoadAccounts(ctx context.Context) ([]core.StoredAccount, error)
	Get(ctx context.Context, id string) (core.StoredAccount, error)
	Save(ctx context.Context, acct core.StoredAccount) error
	Delete(ctx context.Context, id string) error
	Rename(ctx context.Context, id, name string) (core.StoredAccount, error)
	SetActive(ctx context.Context, id string, at time.Time) (core.StoredAccount, error)
	ActiveID(ctx context.Context) (string, error)
}

type Switcher interface {
	Switch(acct core.StoredAccount) error
	Import(path, name string) (core.StoredAccount, error)
	ActivePath() (string, error)
	HasActiveLogin() (bool, error)
	ActiveAccountMatch(accounts []core.StoredAccount) (core.StoredAccount, bool, error)
}

type UsageFetcher interface {
	FetchUsage(ctx context.Context, acct core.StoredAccount) core.UsageInfo
	FetchAll(ctx context.Context, accounts []core.StoredAccount) []core.UsageInfo
}

type Service struct {
	store    AccountStore
	switcher Switcher
	fetcher  UsageFetcher
	now      func() time.Time
	log      *zap.Logger
}

func NewService(st AccountStore, sw Switcher, f UsageFetcher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    st,
		switcher: sw,
		fetcher:  f,
		now:      time.Now,
		log:      log.Named("accounts"),
	}
}

// Status describes the login Codex CLI currently uses.
type Status struct {
	LoggedIn bool
	AuthPath string
	// Active is the stored account whose credentials are in auth.json, if any.
	Active *core.StoredAccount
	// LastSwitchedID is the account most recently switched to through this tool.
	LastSwitchedID string
}

func (s *Service) ListAccounts(ctx context.Context) ([]core.StoredAccount, error) {
	return s.store.LoadAccounts(ctx)
}

func (s *Service) get(ctx context.Context, id string) (core.StoredAccount, error) {
	acct, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return core.StoredAccount{}, notFound(id)
	}
	return acct, err
}

func notFound(ref string) error {
	return fmt.Errorf("%w: %s", ErrAccountNotFound, ref)
}

// FindAccount resolves ref as an account ID first, then as a unique name.
func (s *Service) FindAccount(ctx context.Context, ref string) (core.StoredAccount, error) {
	accounts, err := s.store.LoadAccounts(ctx)
	if err != nil {
		return core.StoredAccount{}, err
	}
	if acct, ok := lo.Find(accounts, func(a core.StoredAccount) bool { return a.ID == ref }); ok {
		return acct, nil
	}

	named := lo.Filter(accounts, func(a core.StoredAccount, _ int) bool {
		return strings.EqualFold(a.Name, ref)
	})
	switch len(named) {
	case 0:
		return core.StoredAccount{}, notFound(ref)
	case 1:
		return named[0], nil
	default:
		return core.StoredAccount{}, fmt.Errorf("%w: %q matches %d accounts", ErrAmbiguousName, ref, len(named))
	}
}

// GetUsage fetches usage for one account. Fetch failures are carried in the
// result; only a missing account or a store failure is returned as an error.
func (s *Service) GetUsage(ctx context.Context, id string) (core.UsageInfo, error) {
	acct, err := s.get(ctx, id)
	if err != nil {
		return core.UsageInfo{}, err
	}
	return s.fetcher.FetchUsage(ctx, acct), nil
}

func (s *Service) RefreshAllUsage(ctx context.Context) ([]core.UsageInfo, error) {
	accounts, err := s.store.LoadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	results := s.fetcher.FetchAll(ctx, accounts)

	failed := lo.CountBy(results, func(u core.UsageInfo) bool { return u.Failed() })
	s.log.Debug("refreshed usage", zap.Int("accounts", len(results)), zap.Int("failed", failed))
	return results, nil
}

// SwitchAccount writes the account's credentials to auth.json and records it
// as the active account.
func (s *Service) SwitchAccount(ctx context.Context, id string) (core.StoredAccount, error) {
	acct, err := s.get(ctx, id)
	if err != nil {
		return core.StoredAccount{}, err
	}
	if err := s.switcher.Switch(acct); err != nil {
		return core.StoredAccount{}, fmt.Errorf("switching to %s: %w", acct.Name, err)
	}
	updated, err := s.store.SetActive(ctx, acct.ID, s.now())
	if err != nil {
		return acct, fmt.Errorf("recording active account: %w", err)
	}
	s.log.Info("switched account", zap.String("id", acct.ID), zap.String("name", acct.Name))
	return updated, nil
}

// ImportAccount stores the credentials in the auth.json at path. An empty
// path imports the active auth.json; an empty name falls back to the email
// claim, then to a name derived from the new ID.
func (s *Service) ImportAccount(ctx context.Context, path, name string) (core.StoredAccount, error) {
	if strings.TrimSpace(path) == "" {
		active, err := s.switcher.ActivePath()
		if err != nil {
			return core.StoredAccount{}, err
		}
		path = active
	}

	acct, err := s.switcher.Import(path, strings.TrimSpace(name))
	if err != nil {
		return core.StoredAccount{}, err
	}
	if acct.Name == "" {
		acct.Name = defaultName(acct)
	}

	if err := s.store.Save(ctx, acct); err != nil {
		return core.StoredAccount{}, err
	}
	s.log.Info("imported account",
		zap.String("id", acct.ID),
		zap.String("auth_mode", string(acct.AuthMode())),
		zap.String("path", path))
	return acct, nil
}

func defaultName(acct core.StoredAccount) string {
	if email := lo.FromPtr(acct.Email); email != "" {
		return email
	}
	id := acct.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return "account-" + id
}

func (s *Service) AddAPIKeyAccount(ctx context.Context, name, key string) (core.StoredAccount, error) {
	name = strings.TrimSpace(name)
	key = strings.TrimSpace(key)
	if name == "" {
		return core.StoredAccount{}, ErrEmptyName
	}
	if key == "" {
		return core.StoredAccount{}, ErrEmptyAPIKey
	}

	acct := core.NewAPIKeyAccount(name, key)
	if err := s.store.Save(ctx, acct); err != nil {
		return core.StoredAccount{}, err
	}
	s.log.Info("added API key account", zap.String("id", acct.ID))
	return acct, nil
}

// RemoveAccount deletes a stored account. auth.json is left untouched even if
// it holds the removed account's credentials.
func (s *Service) RemoveAccount(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(id)
	}
	return err
}

func (s *Service) RenameAccount(ctx context.Context, id, name string) (core.StoredAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.StoredAccount{}, ErrEmptyName
	}
	acct, err := s.store.Rename(ctx, id, name)
	if errors.Is(err, store.ErrNotFound) {
		return core.StoredAccount{}, notFound(id)
	}
	return acct, err
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	var st Status

	path, err := s.switcher.ActivePath()
	if err != nil {
		return st, err
	}
	st.AuthPath = path

	if st.LoggedIn, err = s.switcher.HasActiveLogin(); err != nil {
		return st, err
	}
	if st.LastSwitchedID, err = s.store.ActiveID(ctx); err != nil {
		return st, err
	}
	if !st.LoggedIn {
		return st, nil
	}

	accounts, err := s.store.LoadAccounts(ctx)
	if err != nil {
		return st, err
	}
	if acct, ok, err := s.switcher.ActiveAccountMatch(accounts); err != nil {
		return st, err
	} else if ok {
		st.Active = &acct
	}
	return st, nil
}
