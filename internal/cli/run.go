package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hdlkit/hdlkit/internal/engine"
	"github.com/hdlkit/hdlkit/internal/harness"
	"github.com/hdlkit/hdlkit/internal/store"
)

// RunResult is the JSON payload for a scenario run.
type RunResult struct {
	Scenario string            `json:"scenario"`
	Backend  string            `json:"backend"`
	Hash     string            `json:"hash"`
	Outputs  map[string]uint64 `json:"outputs"`
	Changes  int               `json:"changes"`
	TraceID  string            `json:"trace_id,omitempty"`
	VCDPath  string            `json:"vcd_path,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		backend      string
		differential bool
		vcdPath      string
		dbPath       string
	)

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a simulation scenario",
		Long: `Run a YAML scenario: load its design, drive the stimulus program and
check every expectation. The recorded trace can be written out as VCD or
archived in a trace database.

With --differential the scenario runs on every backend and the run fails if
any backend disagrees with the interpreter.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, cmd, args[0], backend, differential, vcdPath, dbPath)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "backend override (interp|jit|compiled)")
	cmd.Flags().BoolVar(&differential, "differential", false, "run on every backend and compare")
	cmd.Flags().StringVar(&vcdPath, "vcd", "", "write the recorded trace to this VCD file")
	cmd.Flags().StringVar(&dbPath, "db", "", "archive the recorded trace in this database")
	return cmd
}

func runScenario(opts *RootOptions, cmd *cobra.Command, path, backend string, differential bool, vcdPath, dbPath string) error {
	formatter := newFormatter(opts, cmd)

	s, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error("E001", err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "loading scenario", Err: err}
	}
	formatter.VerboseLog("Scenario %q: %d steps", s.Name, len(s.Steps))

	var result *harness.Result
	switch {
	case differential:
		result, err = harness.RunDifferential(s)
	case backend != "":
		result, err = harness.Run(s, harness.WithBackend(engine.BackendKind(backend)))
	default:
		result, err = harness.Run(s)
	}
	if err != nil {
		var ee *harness.ExpectationError
		if errors.As(err, &ee) {
			_ = formatter.Error("E200", err.Error(), ee)
			return NewExitError(ExitFailure, err.Error())
		}
		_ = formatter.Error("E001", err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "running scenario", Err: err}
	}

	out := RunResult{
		Scenario: result.Scenario,
		Backend:  result.Backend,
		Hash:     result.Hash,
		Outputs:  result.Final,
		Changes:  len(result.Changes),
	}

	if vcdPath != "" {
		if err := writeOrStdout(formatter, vcdPath, []byte(result.VCD)); err != nil {
			return err
		}
		out.VCDPath = vcdPath
	}

	if dbPath != "" {
		id, err := archiveTrace(cmd, dbPath, result)
		if err != nil {
			return err
		}
		out.TraceID = id
		formatter.VerboseLog("Archived trace %s in %s", id, dbPath)
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s (%s backend, %d changes)\n", out.Scenario, out.Backend, out.Changes)
	names := make([]string, 0, len(out.Outputs))
	for name := range out.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(formatter.Writer, "  %s = %d\n", name, out.Outputs[name])
	}
	if out.TraceID != "" {
		fmt.Fprintf(formatter.Writer, "  trace %s\n", out.TraceID)
	}
	return nil
}

func archiveTrace(cmd *cobra.Command, dbPath string, result *harness.Result) (string, error) {
	db, err := store.Open(dbPath)
	if err != nil {
		return "", &ExitError{Code: ExitCommandError, Message: "opening trace archive", Err: err}
	}
	defer db.Close()

	id, err := db.SaveTrace(cmd.Context(), store.TraceMeta{
		DesignName: result.Scenario,
		DesignHash: result.Hash,
		Backend:    result.Backend,
		Timescale:  "1ns",
	}, result.Changes)
	if err != nil {
		return "", &ExitError{Code: ExitCommandError, Message: "archiving trace", Err: err}
	}
	return id, nil
}
