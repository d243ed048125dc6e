package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/absensi/internal/buildinfo"
	"github.com/dmitrijs2005/absensi/internal/client/config"
)

// Slot flags of the one-shot record and scan commands.
const (
	flagMode     = "mode"
	flagSubject  = "subject"
	flagActivity = "activity"
	flagHour     = "hour"
	flagBy       = "by"
	flagLocation = "location"
	flagDate     = "date"
	flagTemplate = "template"
)

// NewRootCommand builds the absensi command tree. Without a subcommand it
// starts the REPL; every subcommand runs once against the same store.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "absensi",
		Short:         "Offline-first school attendance recorder",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, in, out, func(ctx context.Context, a *App) error {
				a.RunREPL(ctx)
				return nil
			})
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		recordCommand(in, out),
		scanCommand(in, out),
		templateCommand(in, out),
		appCommand(in, out, "list [date] [status=..] [mode=..] [pending|synced] [q=..]", "List the records of a date", cobra.ArbitraryArgs, (*App).List),
		appCommand(in, out, "edit <id> key=value...", "Change a record", cobra.MinimumNArgs(2), (*App).Edit),
		appCommand(in, out, "photo <id> <file>", "Attach a photo to a record", cobra.ExactArgs(2), (*App).Photo),
		appCommand(in, out, "delete <id>", "Delete a record", cobra.ExactArgs(1), (*App).Delete),
		appCommand(in, out, "push", "Send pending records to the endpoint", cobra.NoArgs, (*App).Push),
		appCommand(in, out, "pull [date]", "Merge the endpoint's records of a date", cobra.MaximumNArgs(1), (*App).Pull),
		appCommand(in, out, "sync", "Push, then pull today", cobra.NoArgs, (*App).Sync),
		appCommand(in, out, "sync-all <start> <end>", "Pull every date of a range", cobra.ExactArgs(2), (*App).SyncAll),
		appCommand(in, out, "masters merge|pull|list|import <file>|delete <kind> <id>", "Manage students, teachers and subjects", cobra.RangeArgs(1, 3), (*App).Masters),
		appCommand(in, out, "export [start] [end]", "Send the attendance recap to the endpoint", cobra.MaximumNArgs(2), (*App).Export),
		appCommand(in, out, "archive-photos", "Upload photos not archived yet", cobra.NoArgs, (*App).Archive),
		appCommand(in, out, "settings [show|url|tz|format|kiosk|lock|pin] [value]", "Show or change device settings", cobra.MaximumNArgs(2), (*App).Settings),
		appCommand(in, out, "ping", "Check that the endpoint answers", cobra.NoArgs, (*App).PingCmd),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)
	return root
}

// withApp loads the config from cmd's flags, opens the app, runs fn and
// closes the app again.
func withApp(cmd *cobra.Command, in io.Reader, out io.Writer, fn func(ctx context.Context, a *App) error) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := NewApp(ctx, cfg, in, out)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func appCommand(in io.Reader, out io.Writer, use, short string, args cobra.PositionalArgs, run func(*App, context.Context, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, in, out, func(ctx context.Context, a *App) error {
				return run(a, ctx, args)
			})
		},
	}
}

func registerSlotFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String(flagMode, "mapel", "mapel or kegiatan")
	fs.String(flagSubject, "", "subject of the lesson")
	fs.String(flagActivity, "", "activity name")
	fs.Int(flagHour, 1, "hour slot of the lesson")
	fs.String(flagBy, "", "responsible teacher")
	fs.String(flagLocation, "", "location")
	fs.String(flagDate, "", "date YYYY-MM-DD, today when empty")
	fs.String(flagTemplate, "", "saved template to start from; other slot flags override it only when given")
}

// slotFromFlags applies the slot flags to a through its slot command, so
// both paths validate the same way. With --template the template is
// applied first and only the flags set explicitly go on top of it.
func slotFromFlags(ctx context.Context, cmd *cobra.Command, a *App) error {
	fs := cmd.Flags()
	tmpl, err := fs.GetString(flagTemplate)
	if err != nil {
		return err
	}
	if tmpl != "" {
		if a.slot, err = a.services().Templates.Apply(ctx, tmpl, a.slot); err != nil {
			return err
		}
	}
	use := func(name string) bool { return tmpl == "" || fs.Changed(name) }

	var kv []string
	for _, name := range []string{flagMode, flagSubject, flagActivity, flagBy, flagLocation, flagDate} {
		if !use(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		kv = append(kv, fmt.Sprintf("%s=%s", name, v))
	}
	if use(flagHour) {
		hour, err := fs.GetInt(flagHour)
		if err != nil {
			return err
		}
		kv = append(kv, flagHour+"="+strconv.Itoa(hour))
	}
	// An empty argument list would make the slot command prompt.
	if len(kv) == 0 {
		return nil
	}

	out := a.out
	a.out = io.Discard
	defer func() { a.out = out }()
	return a.Slot(ctx, kv)
}

func recordCommand(in io.Reader, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <id> <status> [reason...]",
		Short: "Record a student's attendance",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, in, out, func(ctx context.Context, a *App) error {
				if err := slotFromFlags(ctx, cmd, a); err != nil {
					return err
				}
				return a.Record(ctx, args)
			})
		},
	}
	registerSlotFlags(cmd)
	return cmd
}

func scanCommand(in io.Reader, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <payload>",
		Short: "Record a scanned STUDENTID|NAME payload as present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, in, out, func(ctx context.Context, a *App) error {
				if err := slotFromFlags(ctx, cmd, a); err != nil {
					return err
				}
				return a.Scan(ctx, args)
			})
		},
	}
	registerSlotFlags(cmd)
	return cmd
}

// templateCommand saves the slot built from the slot flags, or uses,
// lists and deletes saved templates.
func templateCommand(in io.Reader, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template save|use|delete <name> | template list",
		Short: "Manage saved slot templates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, in, out, func(ctx context.Context, a *App) error {
				if args[0] == "save" {
					if err := slotFromFlags(ctx, cmd, a); err != nil {
						return err
					}
				}
				return a.Template(ctx, args)
			})
		},
	}
	registerSlotFlags(cmd)
	return cmd
}

// Execute runs the command tree with args and reports failures on errOut
// the same way the REPL does. It returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	root := NewRootCommand(in, out)
	root.SetArgs(args)
	root.SetErr(errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, explain(err))
		return 1
	}
	return 0
}
