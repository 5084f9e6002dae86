// Package credential defines the Codex CLI auth.json document and converts
// between it and a stored account's credentials.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/janekbaraniewski/codexswitch/internal/core"
)

var (
	ErrNoCredentials = errors.New("auth.json contains neither API key nor tokens")
	ErrMalformed     = errors.New("malformed auth.json")
)

// Document mirrors the Codex CLI's auth.json. Field names are shared with
// the CLI and must not change.
type Document struct {
	OpenAIAPIKey *string    `json:"openai_api_key,omitempty"`
	Tokens       *Tokens    `json:"tokens,omitempty"`
	LastRefresh  *time.Time `json:"last_refresh,omitempty"`
}

type Tokens struct {
	IDToken      string  `json:"id_token"`
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	AccountID    *string `json:"account_id,omitempty"`
}

// UnmarshalJSON requires id_token, access_token and refresh_token to be
// present, as the Codex CLI does.
func (t *Tokens) UnmarshalJSON(data []byte) error {
	var in struct {
		IDToken      *string `json:"id_token"`
		AccessToken  *string `json:"access_token"`
		RefreshToken *string `json:"refresh_token"`
		AccountID    *string `json:"account_id"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var missing []string
	for name, v := range map[string]*string{
		"id_token":      in.IDToken,
		"access_token":  in.AccessToken,
		"refresh_token": in.RefreshToken,
	} {
		if v == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("tokens: missing %s", strings.Join(missing, ", "))
	}

	*t = Tokens{
		IDToken:      *in.IDToken,
		AccessToken:  *in.AccessToken,
		RefreshToken: *in.RefreshToken,
		AccountID:    in.AccountID,
	}
	return nil
}

func (d Document) HasCredentials() bool {
	return d.OpenAIAPIKey != nil || d.Tokens != nil
}

// ToDocument builds the auth.json content for acct. Token documents are
// stamped with now as their last refresh.
func ToDocument(acct core.StoredAccount, now time.Time) Document {
	switch auth := acct.Auth.(type) {
	case core.APIKeyAuth:
		key := auth.Key
		return Document{OpenAIAPIKey: &key}
	case core.ChatGPTAuth:
		refreshed := now.UTC()
		return Document{
			Tokens: &Tokens{
				IDToken:      auth.IDToken,
				AccessToken:  auth.AccessToken,
				RefreshToken: auth.RefreshToken,
				AccountID:    auth.AccountID,
			},
			LastRefresh: &refreshed,
		}
	}
	return Document{}
}

// FromDocument returns the credential held by doc. An API key wins over
// tokens when both are present.
func FromDocument(doc Document) (core.AuthData, error) {
	switch {
	case doc.OpenAIAPIKey != nil:
		return core.APIKeyAuth{Key: *doc.OpenAIAPIKey}, nil
	case doc.Tokens != nil:
		return core.ChatGPTAuth{
			IDToken:      doc.Tokens.IDToken,
			AccessToken:  doc.Tokens.AccessToken,
			RefreshToken: doc.Tokens.RefreshToken,
			AccountID:    doc.Tokens.AccountID,
		}, nil
	default:
		return nil, ErrNoCredentials
	}
}

func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return doc, nil
}

// Marshal renders doc as indented JSON with a trailing newline.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling auth.json: %w", err)
	}
	return append(data, '\n'), nil
}
