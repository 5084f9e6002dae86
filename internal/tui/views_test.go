package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/janekbaraniewski/codexswitch/internal/core"
)

func ptr[T any](v T) *T { return &v }

func TestFormatWindow(t *testing.T) {
	tests := []struct {
		minutes int64
		want    string
	}{
		{0, ""},
		{-5, ""},
		{45, "45m"},
		{60, "1h"},
		{300, "5h"},
		{150, "2h30m"},
		{1440, "1d"},
		{10080, "7d"},
		{2160, "1d12h"},
	}
	for _, tt := range tests {
		if got := FormatWindow(tt.minutes); got != tt.want {
			t.Errorf("FormatWindow(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Minute, "0s"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 13*time.Minute, "2h13m"},
		{50 * time.Hour, "2d2h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRenderAccountList(t *testing.T) {
	work := core.NewAPIKeyAccount("work", "sk")
	home := core.NewChatGPTAccount("home", ptr("me@example.com"), ptr("plus"), "i", "a", "r", nil)

	out := RenderAccountList([]core.StoredAccount{work, home}, home.ID)
	for _, want := range []string{"work", "home", "api key", "chatgpt", "me@example.com", "plus", "●", work.ID[:8]} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "●") != 1 {
		t.Errorf("expected exactly one active marker:\n%s", out)
	}
}

func TestRenderAccountListEmpty(t *testing.T) {
	if out := RenderAccountList(nil, ""); !strings.Contains(out, "No accounts") {
		t.Errorf("output = %q", out)
	}
}

func TestRenderAccountUsage(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	acct := core.NewChatGPTAccount("home", nil, nil, "i", "a", "r", nil)
	u := core.UsageInfo{
		AccountID:            acct.ID,
		PlanType:             ptr("pro"),
		PrimaryUsedPercent:   ptr(42.0),
		PrimaryWindowMinutes: ptr(int64(300)),
		PrimaryResetsAt:      ptr(now.Add(2*time.Hour + 13*time.Minute).Unix()),
		SecondaryUsedPercent: ptr(96.0),
		CreditsBalance:       ptr(12.5),
	}

	out := RenderAccountUsage(acct, u, testThresholds, now)
	for _, want := range []string{"home", "(pro)", "5h window", "42.0%", "resets in 2h13m", "weekly", "96.0%", "12.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderAccountUsageError(t *testing.T) {
	acct := core.NewAPIKeyAccount("key", "sk")
	u := core.NewUsageError(acct.ID, "usage info not available for API key accounts")
	u.PlanType = ptr(core.PlanAPIKey)

	out := RenderAccountUsage(acct, u, testThresholds, time.Now())
	if !strings.Contains(out, "usage info not available") {
		t.Errorf("output missing error:\n%s", out)
	}
	if strings.Contains(out, "%") {
		t.Errorf("error block should have no gauge:\n%s", out)
	}
}

func TestRenderUsageSkipsMissing(t *testing.T) {
	a := core.NewAPIKeyAccount("a", "sk")
	b := core.NewAPIKeyAccount("b", "sk")
	out := RenderUsage([]core.StoredAccount{a, b}, []core.UsageInfo{core.NewUsageError(b.ID, "boom")}, testThresholds, time.Now())
	if strings.Contains(out, "a\n") || !strings.Contains(out, "boom") {
		t.Errorf("output = %q", out)
	}
}

func TestRenderStatus(t *testing.T) {
	acct := core.NewAPIKeyAccount("work", "sk")
	tests := []struct {
		name string
		view StatusView
		want string
	}{
		{name: "logged out", view: StatusView{AuthPath: "/h/auth.json"}, want: "none"},
		{name: "unknown login", view: StatusView{AuthPath: "/h/auth.json", LoggedIn: true}, want: "not a stored account"},
		{name: "stored", view: StatusView{AuthPath: "/h/auth.json", LoggedIn: true, Active: &acct}, want: "work"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderStatus(tt.view)
			if !strings.Contains(out, tt.want) || !strings.Contains(out, "/h/auth.json") {
				t.Errorf("output = %q", out)
			}
		})
	}
}
