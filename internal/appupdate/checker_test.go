package appupdate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNormalizeReleaseVersion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "valid with prefix", input: "v1.2.3", want: "v1.2.3"},
		{name: "valid without prefix", input: "1.2.3", want: "v1.2.3"},
		{name: "short form canonicalized", input: "v1.2", want: "v1.2.0"},
		{name: "pre-release skipped", input: "v1.2.3-rc.1", want: ""},
		{name: "dev skipped", input: "dev", want: ""},
		{name: "empty skipped", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeReleaseVersion(tt.input)
			if got != tt.want {
				t.Fatalf("normalizeReleaseVersion(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUpgradeHint(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/opt/homebrew/cellar/codexswitch/1.2.3/bin/codexswitch", want: "brew upgrade"},
		{path: "/users/test/go/bin/codexswitch", want: "go install"},
		{path: "/tmp/codexswitch", want: "releases"},
	}
	for _, tt := range tests {
		if got := upgradeHint(tt.path); !strings.Contains(got, tt.want) {
			t.Errorf("upgradeHint(%q) = %q, want to contain %q", tt.path, got, tt.want)
		}
	}
}

func releaseServer(t *testing.T, tag string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "codexswitch/") {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"tag_name": "`+tag+`"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckUpdateAvailable(t *testing.T) {
	srv := releaseServer(t, "v1.3.0", nil)

	res, err := Check(context.Background(), CheckOptions{
		CurrentVersion:   "1.2.0",
		ExecutablePath:   "/tmp/codexswitch",
		LatestReleaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if !res.UpdateAvailable {
		t.Fatal("expected update available")
	}
	if res.CurrentVersion != "v1.2.0" || res.LatestVersion != "v1.3.0" {
		t.Errorf("versions = %s -> %s", res.CurrentVersion, res.LatestVersion)
	}
}

func TestCheckUpToDate(t *testing.T) {
	srv := releaseServer(t, "v1.2.0", nil)

	res, err := Check(context.Background(), CheckOptions{CurrentVersion: "v1.2.0", LatestReleaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if res.UpdateAvailable {
		t.Error("same version should not report an update")
	}
}

func TestCheckDevBuildSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := releaseServer(t, "v9.9.9", &hits)

	res, err := Check(context.Background(), CheckOptions{CurrentVersion: "dev", LatestReleaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if res.UpdateAvailable || hits.Load() != 0 {
		t.Errorf("dev build: update=%v hits=%d", res.UpdateAvailable, hits.Load())
	}
}

func TestCheckBadTag(t *testing.T) {
	srv := releaseServer(t, "nightly", nil)

	if _, err := Check(context.Background(), CheckOptions{CurrentVersion: "v1.0.0", LatestReleaseURL: srv.URL}); err == nil {
		t.Fatal("expected error for non-semver tag")
	}
}

func TestCheckHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Check(context.Background(), CheckOptions{CurrentVersion: "v1.0.0", LatestReleaseURL: srv.URL})
	if err == nil || !strings.Contains(err.Error(), "HTTP 403") {
		t.Fatalf("err = %v, want HTTP 403", err)
	}
}
