package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hdlkit/hdlkit/internal/sigquery"
	"github.com/hdlkit/hdlkit/internal/store"
	"github.com/hdlkit/hdlkit/internal/trace"
)

// TraceListEntry is the JSON payload for one archived trace.
type TraceListEntry struct {
	ID         string `json:"id"`
	DesignName string `json:"design_name"`
	DesignHash string `json:"design_hash"`
	Backend    string `json:"backend"`
	Timescale  string `json:"timescale"`
	CreatedAt  string `json:"created_at"`
}

// NewTraceCommand creates the trace command group.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect archived traces",
	}
	cmd.AddCommand(newTraceListCommand(rootOpts))
	cmd.AddCommand(newTraceExportCommand(rootOpts))
	cmd.AddCommand(newTraceQueryCommand(rootOpts))
	cmd.AddCommand(newTraceDeleteCommand(rootOpts))
	return cmd
}

func newTraceListCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List archived traces",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			db, err := openArchive(formatter, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			metas, err := db.ListTraces(cmd.Context())
			if err != nil {
				_ = formatter.Error("E400", err.Error(), nil)
				return &ExitError{Code: ExitCommandError, Message: "listing traces", Err: err}
			}

			if formatter.Format == "json" {
				entries := make([]TraceListEntry, 0, len(metas))
				for _, m := range metas {
					entries = append(entries, traceEntry(m))
				}
				return formatter.Success(entries)
			}

			w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDESIGN\tBACKEND\tCREATED")
			for _, m := range metas {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					m.ID, m.DesignName, m.Backend, m.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "trace database path")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newTraceExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath  string
		outPath string
	)

	cmd := &cobra.Command{
		Use:           "export <trace-id>",
		Short:         "Export an archived trace as VCD",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			db, err := openArchive(formatter, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			meta, changes, err := db.GetTrace(cmd.Context(), args[0])
			if err != nil {
				_ = formatter.Error("E401", err.Error(), nil)
				return NewExitError(ExitFailure, err.Error())
			}

			vcd := trace.RenderVCD(meta.DesignName, meta.Timescale, changes)
			if err := writeOrStdout(formatter, outPath, []byte(vcd)); err != nil {
				return err
			}
			if outPath != "" && formatter.Format != "json" {
				fmt.Fprintf(formatter.Writer, "✓ exported %s (%d changes) -> %s\n",
					meta.ID, len(changes), outPath)
			}
			if formatter.Format == "json" {
				return formatter.Success(map[string]any{
					"id": meta.ID, "changes": len(changes), "output": outPath,
				})
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "trace database path")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write VCD to this file (default stdout)")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newTraceQueryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath  string
		signals []string
		from    uint64
		to      uint64
		value   uint64
	)

	cmd := &cobra.Command{
		Use:   "query <trace-id>",
		Short: "Query changes of an archived trace",
		Long: `Query an archived trace's change records. Flags combine with AND:
--signal narrows to the named signals, --from/--to bound the time window
and --value keeps only changes carrying that exact value.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			db, err := openArchive(formatter, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			var parts []sigquery.Filter
			if len(signals) == 1 {
				parts = append(parts, sigquery.SignalIs{Name: signals[0]})
			} else if len(signals) > 1 {
				parts = append(parts, sigquery.SignalIn{Names: signals})
			}
			if cmd.Flags().Changed("from") || cmd.Flags().Changed("to") {
				if !cmd.Flags().Changed("to") {
					to = ^uint64(0)
				}
				parts = append(parts, sigquery.TimeBetween{From: from, To: to})
			}
			if cmd.Flags().Changed("value") {
				parts = append(parts, sigquery.ValueIs{Value: value})
			}
			var filter sigquery.Filter
			if len(parts) > 0 {
				filter = sigquery.And{Filters: parts}
			}

			changes, err := db.QueryChanges(cmd.Context(), args[0], filter)
			if err != nil {
				_ = formatter.Error("E403", err.Error(), nil)
				return NewExitError(ExitFailure, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]any{
					"id": args[0], "changes": changes,
				})
			}
			w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tSIGNAL\tVALUE")
			for _, c := range changes {
				fmt.Fprintf(w, "%d\t%s\t%d\n", c.Time, c.Signal, c.Value)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "trace database path")
	cmd.Flags().StringSliceVar(&signals, "signal", nil, "restrict to these signals (repeatable)")
	cmd.Flags().Uint64Var(&from, "from", 0, "first timestamp to include")
	cmd.Flags().Uint64Var(&to, "to", 0, "last timestamp to include")
	cmd.Flags().Uint64Var(&value, "value", 0, "keep only changes with this value")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newTraceDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "delete <trace-id>",
		Short:         "Delete an archived trace",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			db, err := openArchive(formatter, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteTrace(cmd.Context(), args[0]); err != nil {
				_ = formatter.Error("E402", err.Error(), nil)
				return &ExitError{Code: ExitCommandError, Message: "deleting trace", Err: err}
			}
			if formatter.Format == "json" {
				return formatter.Success(map[string]any{"deleted": args[0]})
			}
			fmt.Fprintf(formatter.Writer, "✓ deleted %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "trace database path")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func openArchive(f *OutputFormatter, path string) (*store.Store, error) {
	db, err := store.Open(path)
	if err != nil {
		_ = f.Error("E400", err.Error(), nil)
		return nil, &ExitError{Code: ExitCommandError, Message: "opening trace archive", Err: err}
	}
	return db, nil
}

func traceEntry(m store.TraceMeta) TraceListEntry {
	return TraceListEntry{
		ID:         m.ID,
		DesignName: m.DesignName,
		DesignHash: m.DesignHash,
		Backend:    m.Backend,
		Timescale:  m.Timescale,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339Nano),
	}
}
