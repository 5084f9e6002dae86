// Package appupdate checks GitHub releases for a newer codexswitch.
package appupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	defaultLatestReleaseURL = "https://api.github.com/repos/janekbaraniewski/codexswitch/releases/latest"
	defaultRequestTimeout   = 3 * time.Second

	binaryName = "codexswitch"
)

type CheckOptions struct {
	CurrentVersion   string
	ExecutablePath   string
	LatestReleaseURL string
	Timeout          time.Duration
	HTTPClient       *http.Client
}

type Result struct {
	UpdateAvailable bool
	CurrentVersion  string
	LatestVersion   string
	UpgradeHint     string
}

// Check compares the running version against the latest GitHub release.
// Development and pre-release builds are never reported as outdated.
func Check(ctx context.Context, opts CheckOptions) (Result, error) {
	current := normalizeReleaseVersion(opts.CurrentVersion)
	result := Result{
		CurrentVersion: current,
		UpgradeHint:    upgradeHint(resolveExecutablePath(opts.ExecutablePath)),
	}
	if current == "" {
		return result, nil
	}

	latest, err := fetchLatestReleaseVersion(ctx, opts, current)
	if err != nil {
		return result, err
	}
	result.LatestVersion = latest
	result.UpdateAvailable = semver.Compare(latest, current) > 0
	return result, nil
}

func fetchLatestReleaseVersion(ctx context.Context, opts CheckOptions, current string) (string, error) {
	latestURL := strings.TrimSpace(opts.LatestReleaseURL)
	if latestURL == "" {
		latestURL = defaultLatestReleaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, latestURL, nil)
	if err != nil {
		return "", fmt.Errorf("build latest release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", binaryName+"/"+current)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch latest release: HTTP %d", resp.StatusCode)
	}

	var payload struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode latest release payload: %w", err)
	}

	latest := normalizeReleaseVersion(payload.TagName)
	if latest == "" {
		return "", fmt.Errorf("latest release tag is not a stable semver: %q", payload.TagName)
	}
	return latest, nil
}

func resolveExecutablePath(explicit string) string {
	path := strings.TrimSpace(explicit)
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return ""
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		path = exe
	}
	return strings.ToLower(filepath.ToSlash(filepath.Clean(path)))
}

func upgradeHint(executablePath string) string {
	switch {
	case strings.Contains(executablePath, "/cellar/"+binaryName+"/"):
		return "brew upgrade " + binaryName
	case strings.Contains(executablePath, "/go/bin/"+binaryName):
		return "go install github.com/janekbaraniewski/codexswitch/cmd/codexswitch@latest"
	default:
		return "download the latest release from https://github.com/janekbaraniewski/codexswitch/releases"
	}
}

// normalizeReleaseVersion returns the canonical "vX.Y.Z" form, or "" for
// anything that is not a stable release.
func normalizeReleaseVersion(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) || semver.Prerelease(v) != "" || semver.Build(v) != "" {
		return ""
	}
	return semver.Canonical(v)
}
