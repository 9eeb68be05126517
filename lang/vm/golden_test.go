package vm_test

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pcaressa/wtf/internal/filetest"
	"github.com/pcaressa/wtf/lang/codeseg"
	"github.com/pcaressa/wtf/lang/compiler"
	"github.com/pcaressa/wtf/lang/vm"
	"github.com/stretchr/testify/require"
)

var testUpdateVMTests = flag.Bool("test.update-vm-tests", false, "If set, replace expected VM test results with actual results.")

// TestGolden runs every .wtf program under testdata/in against the VM and
// diffs its printed output against testdata/out, in the teacher's
// internal/filetest golden-file style (lang/parser/parser_test.go).
func TestGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".wtf") {
		t.Run(fi.Name(), func(t *testing.T) {
			b, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			require.NoError(t, err)

			c, err := compiler.Compile(fi.Name(), stringSource{strings.NewReader(string(b))}, nil)
			require.NoError(t, err)
			require.Zero(t, c.Errs.Count())

			var out strings.Builder
			m := vm.New(c.Codes, c.Vars(), &out, nil)
			require.NoError(t, m.Run(codeseg.TopLevel))

			filetest.DiffOutput(t, fi, out.String(), resultDir, testUpdateVMTests)
		})
	}
}
