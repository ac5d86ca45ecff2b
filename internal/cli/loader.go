package cli

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/hdlkit/hdlkit/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// LoadDesign reads a design document from a JSON or CUE file. CUE designs
// unify against the embedded document schema before decoding, so structural
// mistakes surface with file positions.
func LoadDesign(path string) (*ir.Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "reading design", Err: err}
	}

	switch filepath.Ext(path) {
	case ".json":
		d, err := ir.DecodeDesign(data)
		if err != nil {
			return nil, &ExitError{Code: ExitCommandError, Message: "decoding design", Err: err}
		}
		return d, nil
	case ".cue":
		return loadCUEDesign(path, data)
	default:
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("unsupported design format %q (want .json or .cue)", filepath.Ext(path)))
	}
}

func loadCUEDesign(path string, data []byte) (*ir.Design, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "compiling design schema", Err: err}
	}

	val := ctx.CompileBytes(data, cue.Filename(path))
	if err := val.Err(); err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "compiling design", Err: err}
	}

	unified := schema.LookupPath(cue.ParsePath("#Design")).Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "design does not match schema", Err: err}
	}

	jsonData, err := unified.MarshalJSON()
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "exporting design", Err: err}
	}
	d, err := ir.DecodeDesign(jsonData)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "decoding design", Err: err}
	}
	return d, nil
}

// writeOrStdout writes data to path, or to the formatter's writer when path
// is empty.
func writeOrStdout(f *OutputFormatter, path string, data []byte) error {
	if path == "" {
		_, err := f.Writer.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &ExitError{Code: ExitCommandError, Message: "writing output", Err: err}
	}
	return nil
}
