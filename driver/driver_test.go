package driver_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/driver"
	"github.com/sarchlab/apexsim/timing/latency"
)

func TestDriver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Driver Suite")
}

const program = `
	MOVC R1,5
	MOVC R2,7
	ADD R3,R1,R2
	HALT
`

// writeProgram drops src into a fresh file under dir and returns its path.
func writeProgram(dir, name, src string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(src), 0o644)).To(Succeed())
	return path
}

// noOpen is an openFile stub for tests that never exercise "setmem <file>".
func noOpen(string) (io.ReadCloser, error) {
	return nil, os.ErrNotExist
}

var _ = Describe("Driver", func() {
	var (
		dir  string
		path string
		out  *bytes.Buffer
		d    *driver.Driver
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		path = writeProgram(dir, "prog.asm", program)
		out = &bytes.Buffer{}

		var err error
		d, err = driver.New(path, false, latency.Default(), out)
		Expect(err).NotTo(HaveOccurred())
	})

	It("loads the program on construction without running it", func() {
		Expect(d.Halted()).To(BeFalse())
	})

	It("errors on a nonexistent program path", func() {
		_, err := driver.New(filepath.Join(dir, "missing.asm"), false, latency.Default(), out)
		Expect(err).To(HaveOccurred())
	})

	Describe("RunREPL", func() {
		It("runs 'simulate 1' on a blank line and keeps going", func() {
			d.RunREPL(strings.NewReader("\nexit\n"), noOpen)
			Expect(d.Halted()).To(BeFalse())
			Expect(out.String()).NotTo(BeEmpty())
		})

		It("treats an unrecognized command as 'simulate 1'", func() {
			d.RunREPL(strings.NewReader("frobnicate\nexit\n"), noOpen)
			Expect(out.String()).NotTo(BeEmpty())
		})

		It("stops immediately on 'exit'", func() {
			d.RunREPL(strings.NewReader("exit\n"), noOpen)
			Expect(d.Halted()).To(BeFalse())
		})

		It("runs to completion and reports exit once the program halts", func() {
			d.RunREPL(strings.NewReader("simulate 200\n"), noOpen)
			Expect(d.Halted()).To(BeTrue())
			Expect(out.String()).To(ContainSubstring("Simulation Complete"))
		})

		It("reinitializes a fresh core on 'initialize'", func() {
			d.RunREPL(strings.NewReader("simulate 200\n"), noOpen)
			Expect(d.Halted()).To(BeTrue())

			d.RunREPL(strings.NewReader("initialize\nexit\n"), noOpen)
			Expect(d.Halted()).To(BeFalse(), "a fresh core must not still be halted from the prior run")
		})

		It("prints the state table on 'display' without advancing the cycle count", func() {
			d.RunREPL(strings.NewReader("display\nexit\n"), noOpen)
			Expect(out.String()).NotTo(BeEmpty())
			Expect(d.CPU.Cycle).To(Equal(uint64(0)))
		})

		It("sets a single memory word via 'setmem <addr> <val>'", func() {
			d.RunREPL(strings.NewReader("setmem 4 99\nexit\n"), noOpen)
			Expect(d.CPU.Data.Read(4)).To(Equal(int32(99)))
		})

		It("reports an error for malformed 'setmem' arguments", func() {
			d.RunREPL(strings.NewReader("setmem notanumber 1\nexit\n"), noOpen)
			Expect(out.String()).To(ContainSubstring("Error"))
		})

		It("loads memory from a file via 'setmem <file>'", func() {
			memPath := writeProgram(dir, "mem.txt", "10\n20\n30\n")
			opened := false
			open := func(p string) (io.ReadCloser, error) {
				opened = true
				return os.Open(p)
			}
			d.RunREPL(strings.NewReader("setmem "+memPath+"\nexit\n"), open)

			Expect(opened).To(BeTrue())
			Expect(d.CPU.Data.Read(0)).To(Equal(int32(10)))
			Expect(d.CPU.Data.Read(1)).To(Equal(int32(20)))
			Expect(d.CPU.Data.Read(2)).To(Equal(int32(30)))
		})

		It("reports an error when the 'setmem <file>' open fails", func() {
			d.RunREPL(strings.NewReader("setmem nope.txt\nexit\n"), noOpen)
			Expect(out.String()).To(ContainSubstring("Error"))
		})

		It("advances one cycle per blank line in single_step and stops on 'q'", func() {
			d.RunREPL(strings.NewReader("single_step\n\n\nq\n"), noOpen)
			Expect(d.Halted()).To(BeFalse())
			Expect(out.String()).To(ContainSubstring("Single Step Mode"))
		})

		It("runs single_step to completion when never interrupted", func() {
			d.RunREPL(strings.NewReader("single_step\n"+strings.Repeat("\n", 50)), noOpen)
			Expect(d.Halted()).To(BeTrue())
		})
	})

	Describe("SetMemoryFile", func() {
		It("skips blank lines and unparsable lines without erroring", func() {
			memPath := writeProgram(dir, "sparse.txt", "5\n\nbogus\n7\n")
			err := d.SetMemoryFile(memPath, func(p string) (io.ReadCloser, error) {
				return os.Open(p)
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.CPU.Data.Read(0)).To(Equal(int32(5)))
			Expect(d.CPU.Data.Read(1)).To(Equal(int32(7)))
		})
	})
})
