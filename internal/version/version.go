// Package version holds build-time metadata injected via ldflags.
package version

// Set at build time:
//
//	-X 'github.com/janekbaraniewski/codexswitch/internal/version.Version=...'
//	-X 'github.com/janekbaraniewski/codexswitch/internal/version.CommitHash=...'
//	-X 'github.com/janekbaraniewski/codexswitch/internal/version.BuildDate=...'
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String formats as "v1.2.0 (abc1234) built 2026-01-02". Commit and date are
// omitted when they were not injected.
func String() string {
	s := Version
	if CommitHash != "unknown" && CommitHash != "" {
		s += " (" + CommitHash + ")"
	}
	if BuildDate != "unknown" && BuildDate != "" {
		s += " built " + BuildDate
	}
	return s
}
