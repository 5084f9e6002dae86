package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/janekbaraniewski/codexswitch/internal/config"
	"github.com/janekbaraniewski/codexswitch/internal/core"
)

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.StorePath = filepath.Join(dir, "accounts.db")
	cfg.CodexHome = filepath.Join(dir, "codex")
	if baseURL != "" {
		cfg.Usage.BaseURL = baseURL
	}
	return cfg
}

func run(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(cfg)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddKeySwitchStatus(t *testing.T) {
	cfg := testConfig(t, "")

	out, err := run(t, cfg, "add-key", "work", "sk-work")
	if err != nil {
		t.Fatalf("add-key: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Added work") {
		t.Errorf("add-key output = %q", out)
	}

	if out, err = run(t, cfg, "switch", "work"); err != nil {
		t.Fatalf("switch: %v\n%s", err, out)
	}

	data, err := os.ReadFile(filepath.Join(cfg.CodexHome, "auth.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"openai_api_key": "sk-work"`) {
		t.Errorf("auth.json = %s", data)
	}

	out, err = run(t, cfg, "status")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "work") {
		t.Errorf("status output = %q", out)
	}

	out, err = run(t, cfg, "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "●") {
		t.Errorf("list should mark the active account:\n%s", out)
	}
}

func TestSwitchUnknownAccount(t *testing.T) {
	cfg := testConfig(t, "")
	if _, err := run(t, cfg, "switch", "ghost"); err == nil {
		t.Fatal("expected error for unknown account")
	}
}

func TestImportRenameRemove(t *testing.T) {
	cfg := testConfig(t, "")
	src := filepath.Join(t.TempDir(), "auth.json")
	if err := os.WriteFile(src, []byte(`{"OPENAI_API_KEY": "sk-imp"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, cfg, "import", src, "--name", "imp")
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported imp (api_key") {
		t.Errorf("import output = %q", out)
	}

	if out, err = run(t, cfg, "rename", "imp", "renamed"); err != nil {
		t.Fatalf("rename: %v\n%s", err, out)
	}
	out, _ = run(t, cfg, "list")
	if !strings.Contains(out, "renamed") {
		t.Errorf("list after rename:\n%s", out)
	}

	if out, err = run(t, cfg, "remove", "renamed"); err != nil {
		t.Fatalf("remove: %v\n%s", err, out)
	}
	out, _ = run(t, cfg, "list")
	if !strings.Contains(out, "No accounts") {
		t.Errorf("list after remove:\n%s", out)
	}
}

func TestUsageJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wham/usage" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"plan_type": "plus", "rate_limit": {"primary_window": {"used_percent": 12.5, "limit_window_seconds": 18000}}}`))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	src := filepath.Join(t.TempDir(), "auth.json")
	if err := os.WriteFile(src, []byte(`{"tokens": {"id_token": "x", "access_token": "at", "refresh_token": "rt"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if out, err := run(t, cfg, "import", src, "--name", "chat"); err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if out, err := run(t, cfg, "add-key", "key", "sk"); err != nil {
		t.Fatalf("add-key: %v\n%s", err, out)
	}

	out, err := run(t, cfg, "usage", "--json")
	if err != nil {
		t.Fatalf("usage: %v\n%s", err, out)
	}
	var usages []core.UsageInfo
	if err := json.Unmarshal([]byte(out), &usages); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(usages) != 2 {
		t.Fatalf("usages = %d, want 2", len(usages))
	}
	if usages[0].PrimaryUsedPercent == nil || *usages[0].PrimaryUsedPercent != 12.5 {
		t.Errorf("chat usage = %+v", usages[0])
	}
	if usages[0].PrimaryWindowMinutes == nil || *usages[0].PrimaryWindowMinutes != 300 {
		t.Errorf("window = %v", usages[0].PrimaryWindowMinutes)
	}
	if !usages[1].Failed() {
		t.Errorf("api key usage should carry an error: %+v", usages[1])
	}

	out, err = run(t, cfg, "usage", "chat")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "12.5%") || !strings.Contains(out, "5h window") {
		t.Errorf("usage output:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, config.Config{}, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "codexswitch dev") {
		t.Errorf("version output = %q", out)
	}
}
