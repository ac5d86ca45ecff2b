package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hdlkit/hdlkit/internal/compiler"
	"github.com/hdlkit/hdlkit/internal/ir"
)

// ValidationResult holds validation results for one design.
type ValidationResult struct {
	Design string                     `json:"design"`
	Valid  bool                       `json:"valid"`
	Hash   string                     `json:"hash,omitempty"`
	Errors compiler.ElaborationErrors `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <design>",
		Short: "Validate a design document",
		Long: `Validate a design document without simulating it.

Every structural defect is collected and reported in one pass: signal table
consistency, port roles, driver uniqueness, per-operation width rules and
combinational cycles.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	d, err := LoadDesign(path)
	if err != nil {
		_ = formatter.Error("E001", err.Error(), nil)
		return err
	}
	formatter.VerboseLog("Loaded design %q: %d signals, %d expressions, %d registers",
		d.Name, len(d.Signals), len(d.Exprs), len(d.Registers))

	if errs := compiler.Validate(d); len(errs) > 0 {
		return outputValidationErrors(formatter, d.Name, errs)
	}

	// Cycle analysis only makes sense on a structurally sound design.
	if _, err := compiler.Order(d); err != nil {
		if elab, ok := err.(compiler.ElaborationErrors); ok {
			return outputValidationErrors(formatter, d.Name, elab)
		}
		_ = formatter.Error(compiler.ErrCombinationalLoop, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	hash, err := ir.DesignHash(d)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "hashing design", Err: err}
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Design: d.Name, Valid: true, Hash: hash})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s valid (%s)\n", d.Name, hash)
	return nil
}

func outputValidationErrors(f *OutputFormatter, design string, errs compiler.ElaborationErrors) error {
	if f.Format == "json" {
		_ = f.Success(ValidationResult{Design: design, Valid: false, Errors: errs})
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintf(f.Writer, "✗ %s invalid\n\n", design)
	for _, e := range errs {
		fmt.Fprintf(f.Writer, "  %s %s: %s\n", e.Code, e.Field, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
