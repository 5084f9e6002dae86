package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func strPtr(v string) *string { return &v }

func TestStoredAccountJSONKeepsVariant(t *testing.T) {
	tests := []struct {
		name string
		acct StoredAccount
	}{
		{
			name: "api key",
			acct: NewAPIKeyAccount("work", "sk-test-123"),
		},
		{
			name: "chatgpt with account id",
			acct: NewChatGPTAccount("personal", strPtr("u@x.com"), strPtr("pro"), "id.tok.en", "access", "refresh", strPtr("acct-1")),
		},
		{
			name: "chatgpt without account id",
			acct: NewChatGPTAccount("bare", nil, nil, "id.tok.en", "access", "refresh", nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.acct)
			if err != nil {
				t.Fatalf("Marshal error: %v", err)
			}

			var got StoredAccount
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}

			if got.ID != tt.acct.ID || got.Name != tt.acct.Name {
				t.Errorf("identity = (%q, %q), want (%q, %q)", got.ID, got.Name, tt.acct.ID, tt.acct.Name)
			}
			if got.AuthMode() != tt.acct.AuthMode() {
				t.Fatalf("auth mode = %q, want %q", got.AuthMode(), tt.acct.AuthMode())
			}

			switch want := tt.acct.Auth.(type) {
			case APIKeyAuth:
				if got.Auth.(APIKeyAuth) != want {
					t.Errorf("auth = %+v, want %+v", got.Auth, want)
				}
			case ChatGPTAuth:
				g := got.Auth.(ChatGPTAuth)
				if g.IDToken != want.IDToken || g.AccessToken != want.AccessToken || g.RefreshToken != want.RefreshToken {
					t.Errorf("tokens = %+v, want %+v", g, want)
				}
				if (g.AccountID == nil) != (want.AccountID == nil) {
					t.Fatalf("account id presence = %v, want %v", g.AccountID != nil, want.AccountID != nil)
				}
				if g.AccountID != nil && *g.AccountID != *want.AccountID {
					t.Errorf("account id = %q, want %q", *g.AccountID, *want.AccountID)
				}
			}
		})
	}
}

func TestStoredAccountUnmarshalUnknownMode(t *testing.T) {
	var acct StoredAccount
	err := json.Unmarshal([]byte(`{"id":"a","name":"x","auth_mode":"cookie"}`), &acct)
	if err == nil {
		t.Fatal("expected error for unknown auth mode")
	}
	if !strings.Contains(err.Error(), "cookie") {
		t.Errorf("error = %q, want it to name the mode", err)
	}
}

func TestStoredAccountMarshalWithoutAuth(t *testing.T) {
	if _, err := json.Marshal(StoredAccount{ID: "empty"}); err == nil {
		t.Fatal("expected error marshaling account without auth")
	}
}

func TestNewAccountsHaveDistinctIDs(t *testing.T) {
	a := NewAPIKeyAccount("a", "k")
	b := NewAPIKeyAccount("a", "k")
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids = %q, %q, want distinct non-empty", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestNewUsageError(t *testing.T) {
	u := NewUsageError("acct", "boom")
	if !u.Failed() {
		t.Fatal("expected Failed() to be true")
	}
	if *u.Error != "boom" || u.AccountID != "acct" {
		t.Errorf("got %+v", u)
	}
	if u.PlanType != nil || u.PrimaryUsedPercent != nil {
		t.Error("expected usage fields to be absent")
	}
}
