package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/codexswitch/internal/appupdate"
	"github.com/janekbaraniewski/codexswitch/internal/config"
	"github.com/janekbaraniewski/codexswitch/internal/core"
	"github.com/janekbaraniewski/codexswitch/internal/credential"
	"github.com/janekbaraniewski/codexswitch/internal/tui"
	"github.com/janekbaraniewski/codexswitch/internal/version"
)

func newRootCommand(cfg config.Config) *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:          "codexswitch",
		Short:        "Switch the Codex CLI between stored accounts and check their usage.",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output to stderr")

	// withApp wires the components lazily so that commands like version never
	// touch the account store.
	withApp := func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cfg, debug)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, a, args)
		}
	}

	root.AddCommand(
		newListCommand(withApp),
		newAddKeyCommand(withApp),
		newImportCommand(withApp),
		newSwitchCommand(withApp),
		newRemoveCommand(withApp),
		newRenameCommand(withApp),
		newStatusCommand(withApp),
		newUsageCommand(withApp),
		newWatchCommand(withApp),
		newVersionCommand(),
	)
	return root
}

type appRunner func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error

func newListCommand(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			accts, err := a.svc.ListAccounts(ctx)
			if err != nil {
				return err
			}
			activeID := ""
			if st, err := a.svc.Status(ctx); err == nil && st.Active != nil {
				activeID = st.Active.ID
			} else if err != nil {
				a.log.Debug("status unavailable", zap.Error(err))
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderAccountList(accts, activeID))
			return nil
		}),
	}
}

func newAddKeyCommand(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "add-key <name> <api-key>",
		Short: "Store an OpenAI API key as an account",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			acct, err := a.svc.AddAPIKeyAccount(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", acct.Name, acct.ID)
			return nil
		}),
	}
}

func newImportCommand(withApp appRunner) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import an auth.json as an account (defaults to the active login)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			acct, err := a.svc.ImportAccount(cmd.Context(), path, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%s, %s)\n", acct.Name, acct.AuthMode(), acct.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "display name for the account")
	return cmd
}

func newSwitchCommand(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <id|name>",
		Short: "Make a stored account the active Codex CLI login",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			acct, err := a.svc.FindAccount(ctx, args[0])
			if err != nil {
				return err
			}
			acct, err = a.svc.SwitchAccount(ctx, acct.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s\n", acct.Name)
			return nil
		}),
	}
}

func newRemoveCommand(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|name>",
		Short: "Delete a stored account (auth.json is left as is)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			acct, err := a.svc.FindAccount(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.svc.RemoveAccount(ctx, acct.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", acct.Name)
			return nil
		}),
	}
}

func newRenameCommand(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id|name> <new-name>",
		Short: "Rename a stored account",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			acct, err := a.svc.FindAccount(ctx, args[0])
			if err != nil {
				return err
			}
			renamed, err := a.svc.RenameAccount(ctx, acct.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", acct.Name, renamed.Name)
			return nil
		}),
	}
}

func newStatusCommand(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which login the Codex CLI is using",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			st, err := a.svc.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderStatus(tui.StatusView{
				AuthPath: st.AuthPath,
				LoggedIn: st.LoggedIn,
				Active:   st.Active,
			}))
			return nil
		}),
	}
}

func newUsageCommand(withApp appRunner) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "usage [id|name]",
		Short: "Fetch rate-limit and credit usage for one or all accounts",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()

			var (
				accts  []core.StoredAccount
				usages []core.UsageInfo
			)
			if len(args) == 1 {
				acct, err := a.svc.FindAccount(ctx, args[0])
				if err != nil {
					return err
				}
				u, err := a.svc.GetUsage(ctx, acct.ID)
				if err != nil {
					return err
				}
				accts, usages = []core.StoredAccount{acct}, []core.UsageInfo{u}
			} else {
				var err error
				if accts, err = a.svc.ListAccounts(ctx); err != nil {
					return err
				}
				if usages, err = a.svc.RefreshAllUsage(ctx); err != nil {
					return err
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), usages)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderUsage(accts, usages, a.thresholds(), time.Now()))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw usage records as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newWatchCommand(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report changes to the active login until interrupted",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			path, err := a.switcher.ActivePath()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Watching %s\n", path)

			return a.switcher.Watch(ctx, func(doc *credential.Document) {
				fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.TimeOnly), describeLogin(ctx, a, doc))
			})
		}),
	}
}

func describeLogin(ctx context.Context, a *app, doc *credential.Document) string {
	if doc == nil || !doc.HasCredentials() {
		return "logged out"
	}
	st, err := a.svc.Status(ctx)
	if err != nil {
		a.log.Debug("status after change failed", zap.Error(err))
		return "login changed"
	}
	if st.Active == nil {
		return "login changed to an account that is not stored"
	}
	return "active account: " + st.Active.Name
}

func newVersionCommand() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "codexswitch "+version.String())
			if !check {
				return nil
			}

			res, err := appupdate.Check(cmd.Context(), appupdate.CheckOptions{CurrentVersion: version.Version})
			if err != nil {
				return fmt.Errorf("checking for updates: %w", err)
			}
			switch {
			case res.CurrentVersion == "":
				fmt.Fprintln(out, "Development build, update check skipped.")
			case res.UpdateAvailable:
				fmt.Fprintf(out, "Update available: %s -> %s\n  %s\n", res.CurrentVersion, res.LatestVersion, res.UpgradeHint)
			default:
				fmt.Fprintln(out, "Up to date.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
