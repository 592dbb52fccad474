package cmd

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"dolkit/internal/dolx"
	"dolkit/internal/dolx/dolxtest"
)

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DOLKIT_NO_COLOR", "1")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	for _, c := range append(rootCmd.Commands(), rootCmd) {
		resetFlags(c)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func words(ws ...uint32) []byte {
	b := make([]byte, 0, 4*len(ws))
	for _, w := range ws {
		b = binary.BigEndian.AppendUint32(b, w)
	}
	return b
}

// writeFixture writes a DOL and its descriptor to dir and returns the
// descriptor path.
func writeFixture(t *testing.T, dir, name string, text []byte) string {
	t.Helper()
	dol := dolxtest.DOL(0x80003100, 0x80400000, 0x20,
		dolxtest.DOLSection{Slot: 0, Addr: 0x80003100, Data: text},
		dolxtest.DOLSection{Slot: 7, Addr: 0x80300000, Data: []byte("rodata\x00\x00")},
	)
	if err := os.WriteFile(filepath.Join(dir, name+".dol"), dol, 0o644); err != nil {
		t.Fatal(err)
	}
	yml := "path: " + name + ".dol\nsection_names: [.text, .rodata]\n"
	p := filepath.Join(dir, name+".yml")
	if err := os.WriteFile(p, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "good", words(0x38600001, 0x80610008, 0x4e800020))
	writeFixture(t, dir, "same", words(0x38600001, 0x80610008, 0x4e800020))
	writeFixture(t, dir, "test", words(0x38600002, 0x80610008, 0x4e800020))

	tests := []struct {
		name    string
		test    string
		want    []string
		wantErr bool
	}{
		{
			name: "identical",
			test: filepath.Join(dir, "same.dol"),
		},
		{
			name: "text differs",
			test: filepath.Join(dir, "test.dol"),
			want: []string{"Section 0 .text\n", "\tContents  :  no\n"},
		},
		{
			name:    "missing test binary",
			test:    filepath.Join(dir, "missing.dol"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "diff", good, tt.test)
			if (err != nil) != tt.wantErr {
				t.Fatalf("diff error = %v, wantErr %v\n%s", err, tt.wantErr, out)
			}
			if tt.wantErr {
				return
			}
			if len(tt.want) == 0 && out != "" {
				t.Errorf("unexpected output:\n%s", out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestDiffCommandRelocations(t *testing.T) {
	dir := t.TempDir()
	rel := func(addend uint32) []byte {
		return dolxtest.REL(3,
			[]dolxtest.RELSection{{}, {Data: make([]byte, 0x10), Exec: true}},
			[]dolxtest.Import{{Module: 0, Entries: []dolxtest.Entry{
				{Type: dolx.R_DOLPHIN_SECTION, Section: 1},
				{Delta: 8, Type: dolx.R_PPC_REL24, Addend: addend},
			}}},
		)
	}
	if err := os.WriteFile(filepath.Join(dir, "good.rel"), rel(0x80005000), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "test.rel"), rel(0x80005010), 0o644); err != nil {
		t.Fatal(err)
	}
	yml := "path: good.rel\nmodule_id: 3\naddress: 0x80600000\n"
	if err := os.WriteFile(filepath.Join(dir, "good.yml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--cwd", dir, "diff", "good.yml", "test.rel")
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{
		"Reloc 0 (0x0)\n",
		"\tAddend    :  0x80005000  0x80005010\n",
		"\tTarget    :  0x80005000  0x80005010\n",
	} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestDiffCommandArgs(t *testing.T) {
	if _, err := execute(t, "diff", "only.yml"); err == nil {
		t.Error("diff with one argument succeeded")
	}
}

func TestDisasmCommand(t *testing.T) {
	dir := t.TempDir()
	// li r1,16; lwz r3,8(r1); .4byte 0; blr
	desc := writeFixture(t, dir, "main", words(0x38200010, 0x80610008, 0x00000000, 0x4e800020))

	out, err := execute(t, "disasm", "-a", desc)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), out)
	}
	if lines[0] != "Section 0 .text" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "80003100  38200010  li") || !strings.Contains(lines[1], "clobbers r1") {
		t.Errorf("line 1 = %q", lines[1])
	}
	if !strings.Contains(lines[2], "from 80003100") {
		t.Errorf("line 2 = %q", lines[2])
	}
	if f := strings.Fields(lines[3]); len(f) != 4 || f[2] != ".4byte" || f[3] != "0x00000000" {
		t.Errorf("line 3 = %q", lines[3])
	}

	plain, err := execute(t, "disasm", desc)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain, ";") {
		t.Errorf("annotations printed without --annotate:\n%s", plain)
	}
}

func TestDisasmCommandResolvesAddresses(t *testing.T) {
	dir := t.TempDir()
	// lis r3,0x8030; lwz r4,4(r3); lwz r5,0x100(r3)
	desc := writeFixture(t, dir, "main", words(0x3c608030, 0x80830004, 0x80a30100))

	out, err := execute(t, "disasm", "-a", desc)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[2], "0x80300004 in .rodata") {
		t.Errorf("line 2 = %q", lines[2])
	}
	// past the end of .rodata and short of .bss
	if !strings.Contains(lines[3], "0x80300100") || strings.Contains(lines[3], " in ") {
		t.Errorf("line 3 = %q", lines[3])
	}
}

func TestDisasmCommandSection(t *testing.T) {
	dir := t.TempDir()
	desc := writeFixture(t, dir, "main", words(0x38600001))

	out, err := execute(t, "disasm", "--section", "1", desc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "Section 1 .rodata\n") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := execute(t, "disasm", "-s", "7", desc); err == nil {
		t.Error("disasm of a missing section succeeded")
	}
	// bss has no data to decode
	if _, err := execute(t, "disasm", "-s", "2", desc); err == nil {
		t.Error("disasm of bss succeeded")
	}
}

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	desc := writeFixture(t, dir, "main", words(0x38600001, 0x4e800020))

	out, err := execute(t, "info", desc)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{
		"- **Format:** DOL\n",
		"- **Entry:** `0x80003100`\n",
		"| 0 | .text | `0x100` | `0x80003100` | `0x8` | x |",
		"| 2 | .bss |",
	} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{`"module_id"`, `"section_names"`, `"path"`} {
		if !strings.Contains(out, w) {
			t.Errorf("schema missing %s:\n%s", w, out)
		}
	}
}
