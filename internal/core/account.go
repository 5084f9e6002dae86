package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AuthMode string

const (
	AuthModeAPIKey  AuthMode = "api_key"
	AuthModeChatGPT AuthMode = "chat_gpt"
)

// AuthData is the credential carried by a StoredAccount. The set of
// implementations is closed: APIKeyAuth and ChatGPTAuth.
type AuthData interface {
	Mode() AuthMode
	isAuthData()
}

type APIKeyAuth struct {
	Key string
}

func (APIKeyAuth) Mode() AuthMode { return AuthModeAPIKey }
func (APIKeyAuth) isAuthData()    {}

type ChatGPTAuth struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	AccountID    *string // upstream ChatGPT account, sent as chatgpt-account-id
}

func (ChatGPTAuth) Mode() AuthMode { return AuthModeChatGPT }
func (ChatGPTAuth) isAuthData()    {}

type StoredAccount struct {
	ID         string
	Name       string
	Email      *string
	PlanType   *string
	Auth       AuthData
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

func NewAPIKeyAccount(name, key string) StoredAccount {
	return StoredAccount{
		ID:        uuid.NewString(),
		Name:      name,
		Auth:      APIKeyAuth{Key: key},
		CreatedAt: time.Now().UTC(),
	}
}

func NewChatGPTAccount(name string, email, planType *string, idToken, accessToken, refreshToken string, accountID *string) StoredAccount {
	return StoredAccount{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		PlanType: planType,
		Auth: ChatGPTAuth{
			IDToken:      idToken,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			AccountID:    accountID,
		},
		CreatedAt: time.Now().UTC(),
	}
}

// AuthMode returns the variant tag, or "" for an account without credentials.
func (a StoredAccount) AuthMode() AuthMode {
	if a.Auth == nil {
		return ""
	}
	return a.Auth.Mode()
}

type storedAccountJSON struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        *string    `json:"email,omitempty"`
	PlanType     *string    `json:"plan_type,omitempty"`
	AuthMode     AuthMode   `json:"auth_mode"`
	APIKey       string     `json:"api_key,omitempty"`
	IDToken      string     `json:"id_token,omitempty"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	AccountID    *string    `json:"account_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
}

func (a StoredAccount) MarshalJSON() ([]byte, error) {
	out := storedAccountJSON{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		PlanType:   a.PlanType,
		CreatedAt:  a.CreatedAt,
		LastUsedAt: a.LastUsedAt,
	}
	switch auth := a.Auth.(type) {
	case APIKeyAuth:
		out.AuthMode = AuthModeAPIKey
		out.APIKey = auth.Key
	case ChatGPTAuth:
		out.AuthMode = AuthModeChatGPT
		out.IDToken = auth.IDToken
		out.AccessToken = auth.AccessToken
		out.RefreshToken = auth.RefreshToken
		out.AccountID = auth.AccountID
	default:
		return nil, fmt.Errorf("account %s: unknown auth mode %T", a.ID, a.Auth)
	}
	return json.Marshal(out)
}

func (a *StoredAccount) UnmarshalJSON(data []byte) error {
	var in storedAccountJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var auth AuthData
	switch in.AuthMode {
	case AuthModeAPIKey:
		auth = APIKeyAuth{Key: in.APIKey}
	case AuthModeChatGPT:
		auth = ChatGPTAuth{
			IDToken:      in.IDToken,
			AccessToken:  in.AccessToken,
			RefreshToken: in.RefreshToken,
			AccountID:    in.AccountID,
		}
	default:
		return fmt.Errorf("account %s: unknown auth mode %q", in.ID, in.AuthMode)
	}

	*a = StoredAccount{
		ID:         in.ID,
		Name:       in.Name,
		Email:      in.Email,
		PlanType:   in.PlanType,
		Auth:       auth,
		CreatedAt:  in.CreatedAt,
		LastUsedAt: in.LastUsedAt,
	}
	return nil
}
