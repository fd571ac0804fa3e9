// Command apexsim is the APEX out-of-order pipeline simulator's CLI: it
// loads an assembly program, optionally enables the speculative front
// end, and drops into the interactive command loop described in the
// driver package.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/apexsim/driver"
	"github.com/sarchlab/apexsim/timing/latency"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(stdout, "Usage: apexsim <program.asm> [1]")
		return 1
	}

	predictors := len(args) == 2 && args[1] == "1"
	if predictors {
		fmt.Fprintln(stdout, "--- PREDICTOR ENABLED ---")
	} else {
		fmt.Fprintln(stdout, "--- PREDICTOR DISABLED ---")
	}

	d, err := driver.New(args[0], predictors, latency.Default(), stdout)
	if err != nil {
		// An unreadable program is not fatal: report it and drop into the
		// command loop with nothing loaded, so "initialize" can retry.
		fmt.Fprintf(stdout, "Error: %v\n", err)
	}

	d.RunREPL(stdin, openFile)
	return 0
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
