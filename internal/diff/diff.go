// Package diff compares the sections and relocations of two DOL or REL
// binaries in lockstep and prints a report of every divergent pair.
package diff

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/log"

	"dolkit/internal/dolx"
)

// Binary is a loaded binary with hashable sections.
type Binary interface {
	Sections() []dolx.Section
	SectionHash(i int) dolx.Digest
}

// Relocatable is a Binary that carries a relocation table.
type Relocatable interface {
	Binary
	Relocs() []dolx.Reloc
	SectionOffsetToAddress(i int, off uint32) uint32
}

// Field is a numeric report row: a named value in the reference and in the
// candidate.
type Field struct {
	Name      string
	Ref, Cand uint64
}

// Verdict is an equality report row for values with no ordering, like hashes.
type Verdict struct {
	Name  string
	Equal bool
}

var (
	greaterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // light blue
	lessStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))  // red
)

// Differ writes diff reports to an io.Writer.
type Differ struct {
	w      io.Writer
	color  bool
	logger *log.Logger
}

// Option configures a Differ.
type Option func(*Differ)

// WithColor forces styling on or off.
func WithColor(on bool) Option {
	return func(d *Differ) { d.color = on }
}

// WithLogger sets the logger count mismatches are reported to.
func WithLogger(l *log.Logger) Option {
	return func(d *Differ) { d.logger = l }
}

// New returns a Differ writing to w. Styling is on unless DOLKIT_NO_COLOR
// is set.
func New(w io.Writer, opts ...Option) *Differ {
	d := &Differ{
		w:      w,
		color:  os.Getenv("DOLKIT_NO_COLOR") == "",
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Sections compares the sections of ref and cand by index and prints a
// block for every pair whose contents or size differ. Only the common
// prefix is compared. It reports whether any pair differed.
func (d *Differ) Sections(ref, cand Binary) bool {
	a, b := ref.Sections(), cand.Sections()
	found := false

	for i := range min(len(a), len(b)) {
		s1, s2 := a[i], b[i]
		h1, h2 := ref.SectionHash(i), cand.SectionHash(i)
		if h1 == h2 && s1.Size == s2.Size {
			continue
		}
		found = true
		fmt.Fprintf(d.w, "Section %d %s\n", i, s1.Name)
		d.printField(Field{"Offset", uint64(s1.Offset), uint64(s2.Offset)})
		d.printField(Field{"Address", uint64(s1.Addr), uint64(s2.Addr)})
		d.printField(Field{"Size", uint64(s1.Size), uint64(s2.Size)})
		d.printVerdict(Verdict{"Contents", h1 == h2})
	}

	if len(a) != len(b) {
		d.logger.Warn("section counts differ, comparing common prefix", "reference", len(a), "candidate", len(b))
		d.printField(Field{"Section count", uint64(len(a)), uint64(len(b))})
	}
	return found
}

// Relocations compares the relocation tables of ref and cand entry by entry
// and prints a block for every unequal pair. Targets are resolved through
// each side's own section layout.
func (d *Differ) Relocations(ref, cand Relocatable) {
	a, b := ref.Relocs(), cand.Relocs()

	for i := range min(len(a), len(b)) {
		r1, r2 := a[i], b[i]
		if r1 == r2 {
			continue
		}
		fmt.Fprintf(d.w, "Reloc %d (%#x)\n", i, i*dolx.RelocEntrySize)
		d.printField(Field{"Module", uint64(r1.TargetModule), uint64(r2.TargetModule)})
		d.printField(Field{"Offset", uint64(r1.Offset), uint64(r2.Offset)})
		d.printField(Field{"Type", uint64(r1.Type), uint64(r2.Type)})
		d.printField(Field{"Section", uint64(r1.Section), uint64(r2.Section)})
		d.printField(Field{"Addend", uint64(r1.Addend), uint64(r2.Addend)})
		d.printField(Field{"Target",
			uint64(ref.SectionOffsetToAddress(int(r1.Section), r1.Addend)),
			uint64(cand.SectionOffsetToAddress(int(r2.Section), r2.Addend)),
		})
		d.printField(Field{"Write Addr", uint64(r1.WriteAddr), uint64(r2.WriteAddr)})
	}

	if len(a) != len(b) {
		d.logger.Warn("relocation counts differ, comparing common prefix", "reference", len(a), "candidate", len(b))
		d.printField(Field{"Reloc count", uint64(len(a)), uint64(len(b))})
	}
}

func (d *Differ) printField(f Field) {
	val := fmt.Sprintf("%#10x", f.Cand)
	switch {
	case f.Cand > f.Ref:
		val = d.render(greaterStyle, val)
	case f.Cand < f.Ref:
		val = d.render(lessStyle, val)
	}
	fmt.Fprintf(d.w, "\t%-10s:  %#10x  %s\n", f.Name, f.Ref, val)
}

func (d *Differ) printVerdict(v Verdict) {
	msg := "yes"
	if !v.Equal {
		msg = d.render(lessStyle, "no")
	}
	fmt.Fprintf(d.w, "\t%-10s:  %s\n", v.Name, msg)
}

func (d *Differ) render(s lipgloss.Style, text string) string {
	if !d.color {
		return text
	}
	return s.Render(text)
}
