// Package driver implements the interactive command loop that sits in
// front of the timing core: initialize, simulate [n], display, setmem,
// single_step, and exit, plus the default action (an unrecognized or
// blank line behaves like "simulate 1"). The driver owns the program
// path and predictor flag so that "initialize" can reload the original
// program into a fresh core exactly as the CLI started it.
package driver

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/apexsim/asm"
	"github.com/sarchlab/apexsim/display"
	"github.com/sarchlab/apexsim/timing/latency"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

// Driver wires a program on disk to a running CPU and exposes the
// command set the interactive loop dispatches to.
type Driver struct {
	ProgramPath string
	Predictors  bool
	Config      *latency.Config

	CPU *pipeline.CPU
	Out io.Writer
}

// New builds a CPU and loads the program at path into it. A program
// that cannot be read is not fatal: the returned Driver still carries a
// fresh core with empty code memory alongside the error, so the caller
// can report the problem and continue into the command loop anyway.
func New(path string, predictors bool, cfg *latency.Config, out io.Writer) (*Driver, error) {
	d := &Driver{ProgramPath: path, Predictors: predictors, Config: cfg, Out: out}
	err := d.Initialize()
	return d, err
}

// Initialize resets the core and re-parses the program from disk,
// matching the CLI's "initialize" command. On a read failure the fresh
// (empty) core is kept and the error returned.
func (d *Driver) Initialize() error {
	var opts []pipeline.Option
	if d.Predictors {
		opts = append(opts, pipeline.WithPredictors())
	}
	d.CPU = pipeline.NewCPU(d.Config, opts...)

	prog, err := asm.LoadFile(d.ProgramPath)
	if err != nil {
		return fmt.Errorf("failed to load program %s: %w", d.ProgramPath, err)
	}
	d.CPU.LoadProgram(prog.Instructions)
	return nil
}

// Simulate advances the core by n cycles, stopping early if it halts.
func (d *Driver) Simulate(n int) {
	d.CPU.RunCycles(n)
}

// Display prints the current cycle's state table.
func (d *Driver) Display() {
	display.All(d.Out, d.CPU)
}

// SetMemoryWord seeds a single data-memory word.
func (d *Driver) SetMemoryWord(addr, value int32) {
	d.CPU.SetMemory(addr, value)
}

// SetMemoryFile seeds data memory with consecutive integers read one
// per line from path, starting at address 0.
func (d *Driver) SetMemoryFile(path string, open func(string) (io.ReadCloser, error)) error {
	f, err := open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	addr := int32(0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		val, err := strconv.ParseInt(line, 10, 32)
		if err != nil {
			continue
		}
		d.CPU.SetMemory(addr, int32(val))
		addr++
	}
	return scanner.Err()
}

// Halted reports whether the core has halted (HALT retired or the hard
// cycle cap was reached).
func (d *Driver) Halted() bool { return d.CPU.Halted }

// RunREPL reads driver commands from r, one per line, until "exit", EOF,
// or the core halts. It writes command feedback and state tables to
// d.Out. openFile lets callers inject file-opening for "setmem <file>"
// (os.Open in production, a stub in tests).
func (d *Driver) RunREPL(r io.Reader, openFile func(string) (io.ReadCloser, error)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)

		if len(fields) == 0 {
			d.Simulate(1)
			d.Display()
			if d.Halted() {
				fmt.Fprintln(d.Out, "\n--- Simulation Complete. Exiting CLI. ---")
				return
			}
			continue
		}

		switch fields[0] {
		case "initialize":
			if err := d.Initialize(); err != nil {
				fmt.Fprintf(d.Out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintln(d.Out, "System Initialized.")

		case "simulate":
			n := 1
			if len(fields) > 1 {
				if v, err := strconv.Atoi(fields[1]); err == nil {
					n = v
				}
			}
			d.Simulate(n)
			d.Display()
			if d.Halted() {
				fmt.Fprintln(d.Out, "\n--- Simulation Complete. Exiting CLI. ---")
				return
			}

		case "display":
			d.Display()

		case "setmem":
			switch len(fields) {
			case 3:
				addr, err1 := strconv.ParseInt(fields[1], 10, 32)
				val, err2 := strconv.ParseInt(fields[2], 10, 32)
				if err1 != nil || err2 != nil {
					fmt.Fprintln(d.Out, "Error: invalid arguments or file not found.")
					continue
				}
				d.SetMemoryWord(int32(addr), int32(val))
			case 2:
				if err := d.SetMemoryFile(fields[1], openFile); err != nil {
					fmt.Fprintln(d.Out, "Error: invalid arguments or file not found.")
					continue
				}
				fmt.Fprintf(d.Out, "Loaded memory from %s\n", fields[1])
			default:
				fmt.Fprintln(d.Out, "Error: invalid arguments or file not found.")
			}

		case "single_step":
			fmt.Fprintln(d.Out, "--- Single Step Mode ---")
			d.singleStep(scanner)
			if d.Halted() {
				fmt.Fprintln(d.Out, "\n--- Simulation Complete. Exiting CLI. ---")
				return
			}

		case "exit":
			return

		default:
			d.Simulate(1)
			d.Display()
			if d.Halted() {
				fmt.Fprintln(d.Out, "\n--- Simulation Complete. Exiting CLI. ---")
				return
			}
		}
	}
}

// singleStep advances one cycle at a time, displaying after each and
// waiting for Enter (or "q") on scanner before continuing. It shares the
// REPL's own scanner rather than wrapping r a second time, since two
// independent bufio.Scanners over the same reader would race for its
// internal buffer.
func (d *Driver) singleStep(scanner *bufio.Scanner) {
	for !d.Halted() {
		d.Simulate(1)
		d.Display()
		fmt.Fprintln(d.Out, "Press Enter to advance (or type 'q' to stop)...")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "q") {
			return
		}
	}
}
