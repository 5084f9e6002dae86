package switcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// CodexHomeEnv is read by the Codex CLI itself; the name must match.
	CodexHomeEnv = "CODEX_HOME"

	defaultCodexDir = ".codex"
	authFileName    = "auth.json"
)

var ErrHomeNotFound = errors.New("could not find home directory")

// HomeResolver locates the directory holding auth.json.
type HomeResolver interface {
	CodexHome() (string, error)
}

// EnvResolver resolves the Codex home the way the Codex CLI does: CODEX_HOME
// first, then ~/.codex. Nil funcs fall back to the os package.
type EnvResolver struct {
	LookupEnv   func(string) (string, bool)
	UserHomeDir func() (string, error)
}

func (r EnvResolver) CodexHome() (string, error) {
	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(CodexHomeEnv); ok && strings.TrimSpace(v) != "" {
		return v, nil
	}

	homeDir := r.UserHomeDir
	if homeDir == nil {
		homeDir = os.UserHomeDir
	}
	home, err := homeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHomeNotFound, err)
	}
	if home == "" {
		return "", ErrHomeNotFound
	}
	return filepath.Join(home, defaultCodexDir), nil
}

// StaticHome always resolves to the same directory.
type StaticHome string

func (h StaticHome) CodexHome() (string, error) {
	if h == "" {
		return "", ErrHomeNotFound
	}
	return string(h), nil
}
