package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hdlkit/hdlkit/internal/ir"
	"github.com/hdlkit/hdlkit/internal/lower"
)

// LowerResult is the JSON payload for a gate-level lowering.
type LowerResult struct {
	Design string `json:"design"`
	Gates  int    `json:"gates"`
	Flops  int    `json:"flops"`
	Nets   int    `json:"nets"`
	Output string `json:"output,omitempty"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "lower <design>",
		Short: "Lower a design to a gate-level netlist",
		Long: `Bit-blast a word-level design into a gate-level design built from
constants, inverters, two-input and/or/xor gates and 1-bit flops. The
output is itself a valid design document and simulates on any backend.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(rootOpts, cmd, args[0], outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the gate-level design to this file (default stdout)")
	return cmd
}

func runLower(opts *RootOptions, cmd *cobra.Command, path, outPath string) error {
	formatter := newFormatter(opts, cmd)

	d, err := LoadDesign(path)
	if err != nil {
		_ = formatter.Error("E001", err.Error(), nil)
		return err
	}

	low, err := lower.Lower(d)
	if err != nil {
		_ = formatter.Error("E300", err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	data, err := ir.EncodeDesign(low.Design)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "encoding netlist", Err: err}
	}
	formatter.VerboseLog("Lowered %q: %d gates, %d flops, %d nets",
		d.Name, len(low.Design.Exprs), len(low.Design.Registers), len(low.Design.Signals))

	if outPath == "" && formatter.Format != "json" {
		_, err := formatter.Writer.Write(data)
		return err
	}
	if outPath != "" {
		if err := writeOrStdout(formatter, outPath, data); err != nil {
			return err
		}
	}

	result := LowerResult{
		Design: low.Design.Name,
		Gates:  len(low.Design.Exprs),
		Flops:  len(low.Design.Registers),
		Nets:   len(low.Design.Signals),
		Output: outPath,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ lowered %s: %d gates, %d flops -> %s\n",
		result.Design, result.Gates, result.Flops, outPath)
	return nil
}
