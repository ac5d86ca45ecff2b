package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hdlkit/hdlkit/internal/compiler"
	"github.com/hdlkit/hdlkit/internal/engine"
	"github.com/hdlkit/hdlkit/internal/ir"
)

// CompileResult is the JSON payload for an ahead-of-time compile.
type CompileResult struct {
	Design       string `json:"design"`
	Hash         string `json:"hash"`
	Instructions int    `json:"instructions"`
	Output       string `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "compile <design>",
		Short: "Compile a design to a simulation program",
		Long: `Compile a design ahead of time into a serialized instruction program.
The program file simulates standalone, without the source design.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, cmd, args[0], outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the program to this file (default stdout)")
	return cmd
}

func runCompile(opts *RootOptions, cmd *cobra.Command, path, outPath string) error {
	formatter := newFormatter(opts, cmd)

	d, err := LoadDesign(path)
	if err != nil {
		_ = formatter.Error("E001", err.Error(), nil)
		return err
	}

	plan, err := compiler.Compile(d)
	if err != nil {
		_ = formatter.Error("E100", err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	prog, err := engine.Translate(plan)
	if err != nil {
		_ = formatter.Error("E101", err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	data, err := engine.MarshalProgram(prog)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "encoding program", Err: err}
	}

	hash, err := ir.DesignHash(d)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "hashing design", Err: err}
	}
	formatter.VerboseLog("Compiled %q: %d instructions", d.Name, len(prog.Code))

	if outPath == "" && formatter.Format != "json" {
		_, err := formatter.Writer.Write(data)
		return err
	}
	if outPath != "" {
		if err := writeOrStdout(formatter, outPath, data); err != nil {
			return err
		}
	}

	result := CompileResult{Design: d.Name, Hash: hash, Instructions: len(prog.Code), Output: outPath}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ compiled %s: %d instructions -> %s\n", d.Name, result.Instructions, outPath)
	return nil
}
