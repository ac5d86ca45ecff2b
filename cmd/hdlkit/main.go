package main

import (
	"fmt"
	"os"

	"github.com/hdlkit/hdlkit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hdlkit: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
