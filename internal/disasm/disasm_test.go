package disasm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"runtime/debug"
	"testing"

	"golang.org/x/arch/ppc64/ppc64asm"
)

func words(ws ...uint32) []byte {
	buf := make([]byte, 4*len(ws))
	for i, w := range ws {
		binary.BigEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

func insts(s Stream) []Inst {
	var out []Inst
	for _, u := range s.Units {
		if in, ok := u.(Inst); ok {
			out = append(out, in)
		}
	}
	return out
}

func TestDecodeCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 7, 256} {
		data := make([]byte, 4*n)
		rng.Read(data)

		const base = 0x80003100
		s, err := NewDecoder().Decode(base, data)
		if err != nil {
			t.Fatalf("Decode(%d words): %v", n, err)
		}
		if s.Len()*4 != len(data) {
			t.Fatalf("got %d units for %d bytes", s.Len(), len(data))
		}

		var got []byte
		for i, u := range s.Units {
			if want := base + uint32(4*i); u.Addr() != want {
				t.Fatalf("unit %d at %#x, want %#x", i, u.Addr(), want)
			}
			raw := u.Bytes()
			got = append(got, raw[:]...)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("unit bytes do not reproduce input")
		}
	}
}

func TestDecodeUnaligned(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 10} {
		_, err := NewDecoder().Decode(0, make([]byte, n))
		if !errors.Is(err, ErrUnaligned) {
			t.Errorf("Decode(%d bytes) error = %v, want ErrUnaligned", n, err)
		}
	}
}

func TestDecodeWords(t *testing.T) {
	tests := []struct {
		name string
		word uint32
		op   ppc64asm.Op // 0 means a Data unit is expected
	}{
		{"li r3,1", 0x38600001, ppc64asm.LI},
		{"addi r3,r1,8", 0x38610008, ppc64asm.ADDI},
		{"lwz r3,8(r1)", 0x80610008, ppc64asm.LWZ},
		{"stwu r1,-16(r1)", 0x9421fff0, ppc64asm.STWU},
		{"zero word", 0x00000000, 0},
		{"ld is 64-bit only", 0xe8610000, 0},
		{"vector register operands", 0x10000000, 0},
		{"prefixed form", 0x04000000, 0},
		{"bdnz", 0x4200fff8, ppc64asm.BC},
		{"bdnz with hint bit", 0x4300fff8, 0},
		{"beq is not bdnz", 0x4182fff8, ppc64asm.BC},
		{"lmw r27,12(r1)", 0xbb61000c, ppc64asm.LMW},
		{"lmw r3,0(r5)", 0xb8650000, 0},
		{"lswi r5,r4,13", 0x7ca46caa, ppc64asm.LSWI},
		{"dcbz r0,r3", 0x7c001fec, ppc64asm.DCBZ},
		{"fadds f1,f2,f3", 0xec22182a, ppc64asm.FADDS},
		{"ps_res reads as maddhd", 0x10000030, 0},
		{"ps_res. reads as maddhdu", 0x10000031, 0},
		{"ps_mul. reads as maddld", 0x10000033, 0},
		{"psq_l f1,0(r1)", 0xe0210000, 0},
		{"psq_stu f1,-8(r1)", 0xf421fff8, 0},
		{"cmpd is 64-bit only", 0x7c201800, 0},
		{"cmpdi is 64-bit only", 0x2c230000, 0},
		{"fsqrt is missing on the 750", 0xfc20102c, 0},
		{"mftb takes a tbr operand", 0x7c6c42e6, 0},
		{"dcbt takes a th operand", 0x7c001a2c, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewDecoder().Decode(0x1000, words(tt.word))
			if err != nil {
				t.Fatal(err)
			}
			if s.Len() != 1 {
				t.Fatalf("got %d units, want 1", s.Len())
			}

			switch u := s.Units[0].(type) {
			case Inst:
				if tt.op == 0 {
					t.Fatalf("got instruction %v, want data", u)
				}
				if u.Op != tt.op {
					t.Errorf("op = %v, want %v", u.Op, tt.op)
				}
				if u.Word() != tt.word {
					t.Errorf("word = %#08x, want %#08x", u.Word(), tt.word)
				}
			case Data:
				if tt.op != 0 {
					t.Fatalf("got data %v, want %v", u, tt.op)
				}
				if binary.BigEndian.Uint32(u.Raw[:]) != tt.word {
					t.Errorf("raw = %x, want %#08x", u.Raw, tt.word)
				}
			default:
				t.Fatalf("unexpected unit type %T", u)
			}
		})
	}
}

func TestDecodeResynchronizes(t *testing.T) {
	data := words(0x38600001, 0x00000000, 0xe8610000, 0x80610008)
	s, err := NewDecoder().Decode(0x80004000, data)
	if err != nil {
		t.Fatal(err)
	}

	kinds := make([]bool, 0, s.Len())
	for _, u := range s.Units {
		_, isInst := u.(Inst)
		kinds = append(kinds, isInst)
	}
	want := []bool{true, false, false, true}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("unit kinds = %v, want %v", kinds, want)
		}
	}
}

func TestNonCoreOpsAreOpaque(t *testing.T) {
	// ld, std, mulld, extsw, sld
	data := words(0xe8610000, 0xf8610000, 0x7c6321d2, 0x7c6307b4, 0x7c632036)
	s, err := NewDecoder().Decode(0, data)
	if err != nil {
		t.Fatal(err)
	}
	var got []byte
	for _, u := range s.Units {
		d, ok := u.(Data)
		if !ok {
			t.Fatalf("unit at %#x decoded as %v", u.Addr(), u)
		}
		got = append(got, d.Raw[:]...)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("raw bytes = %x, want %x", got, data)
	}
}

func TestPairedSingleAlwaysOpaque(t *testing.T) {
	regs := []uint32{
		0,
		1<<21 | 2<<16 | 3<<11,
		31<<21 | 31<<16 | 31<<11,
		5<<21 | 1<<16,
		0x03fff800,
	}

	for _, primary := range []uint32{4, 56, 57, 60, 61} {
		ws := make([]uint32, 0, len(regs)<<11)
		for _, r := range regs {
			for low := range uint32(1 << 11) {
				ws = append(ws, primary<<26|r|low)
			}
		}

		s, err := NewDecoder().Decode(0, words(ws...))
		if err != nil {
			t.Fatal(err)
		}
		for i, u := range s.Units {
			if inst, ok := u.(Inst); ok {
				t.Errorf("opcode %d: %#08x decoded as %v", primary, ws[i], inst)
			}
		}
	}
}

func TestBDNZHintBitAlwaysOpaque(t *testing.T) {
	// BO=11001 and 11000 both set the low bit of the first byte
	for _, disp := range []uint32{0x0000, 0x0004, 0xfff8, 0x7ffc} {
		for _, hi := range []uint32{0x43000000, 0x43200000} {
			w := hi | disp
			s, err := NewDecoder().Decode(0, words(w))
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := s.Units[0].(Data); !ok {
				t.Errorf("%#08x decoded as %v, want data", w, s.Units[0])
			}
		}
	}
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name string
		inst Inst
		want bool
	}{
		{
			name: "plain add",
			inst: Inst{Op: ppc64asm.ADD, Args: ppc64asm.Args{ppc64asm.R3, ppc64asm.R4, ppc64asm.R5}},
		},
		{
			name: "blacklisted",
			inst: Inst{Op: ppc64asm.LD, Args: ppc64asm.Args{ppc64asm.R3, ppc64asm.Offset(0), ppc64asm.R1}},
			want: true,
		},
		{
			name: "outside the core instruction set",
			inst: Inst{Op: ppc64asm.CMPD, Args: ppc64asm.Args{ppc64asm.R3, ppc64asm.R4}, Raw: [4]byte{0x7c, 0x23, 0x20, 0x00}},
			want: true,
		},
		{
			name: "paired-single primary opcode",
			inst: Inst{Op: ppc64asm.ADD, Args: ppc64asm.Args{ppc64asm.R0, ppc64asm.R0, ppc64asm.R0}, Raw: [4]byte{0x10, 0x00, 0x02, 0x14}},
			want: true,
		},
		{
			name: "time base",
			inst: Inst{Op: ppc64asm.MFTB, Args: ppc64asm.Args{ppc64asm.R3, ppc64asm.SpReg(268)}, Raw: [4]byte{0x7c, 0x6c, 0x42, 0xe6}},
			want: true,
		},
		{
			name: "bdnz without hint",
			inst: Inst{Op: ppc64asm.BC, Args: ppc64asm.Args{ppc64asm.Imm(16), ppc64asm.Cond0LT, ppc64asm.PCRel(-8)}, Raw: [4]byte{0x42, 0x00, 0xff, 0xf8}},
		},
		{
			name: "bdnz with hint",
			inst: Inst{Op: ppc64asm.BC, Args: ppc64asm.Args{ppc64asm.Imm(24), ppc64asm.Cond0LT, ppc64asm.PCRel(-8)}, Raw: [4]byte{0x43, 0x00, 0xff, 0xf8}},
			want: true,
		},
		{
			name: "bdz with hint is kept",
			inst: Inst{Op: ppc64asm.BC, Args: ppc64asm.Args{ppc64asm.Imm(26), ppc64asm.Cond0LT, ppc64asm.PCRel(-8)}, Raw: [4]byte{0x43, 0x40, 0xff, 0xf8}},
		},
		{
			name: "lmw rt below ra",
			inst: Inst{Op: ppc64asm.LMW, Args: ppc64asm.Args{ppc64asm.R3, ppc64asm.Offset(0), ppc64asm.R5}},
			want: true,
		},
		{
			name: "lmw rt equal ra",
			inst: Inst{Op: ppc64asm.LMW, Args: ppc64asm.Args{ppc64asm.R5, ppc64asm.Offset(0), ppc64asm.R5}},
		},
		{
			name: "lmw rt above ra",
			inst: Inst{Op: ppc64asm.LMW, Args: ppc64asm.Args{ppc64asm.R27, ppc64asm.Offset(12), ppc64asm.R1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldIgnore(tt.inst); got != tt.want {
				t.Errorf("ShouldIgnore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreamAt(t *testing.T) {
	s, err := NewDecoder().Decode(0x100, words(0x38600001, 0x00000000))
	if err != nil {
		t.Fatal(err)
	}

	if u, ok := s.At(0x104); !ok || u.Addr() != 0x104 {
		t.Errorf("At(0x104) = %v, %v", u, ok)
	}
	for _, addr := range []uint32{0xfc, 0x102, 0x108} {
		if _, ok := s.At(addr); ok {
			t.Errorf("At(%#x) found a unit", addr)
		}
	}
	if got := len(insts(s)); got != 1 {
		t.Errorf("got %d instructions, want 1", got)
	}
}

func TestMemOperand(t *testing.T) {
	s, err := NewDecoder().Decode(0, words(0x80610008, 0x9421fff0, 0x38600001))
	if err != nil {
		t.Fatal(err)
	}
	in := insts(s)
	if len(in) != 3 {
		t.Fatalf("got %d instructions", len(in))
	}

	if base, disp, ok := in[0].Mem(); !ok || base != ppc64asm.R1 || disp != 8 {
		t.Errorf("lwz Mem() = %v, %d, %v", base, disp, ok)
	}
	if lo, ok := MemLo(in[1]); !ok || lo != -16 {
		t.Errorf("stwu MemLo() = %d, %v", lo, ok)
	}
	if _, _, ok := in[2].Mem(); ok {
		t.Errorf("li has no memory operand")
	}
}

func TestLisHa(t *testing.T) {
	s, err := NewDecoder().Decode(0, words(0x3c608000, 0x3c630001))
	if err != nil {
		t.Fatal(err)
	}
	in := insts(s)
	if ha, ok := LisHa(in[0]); !ok || ha != 0x8000 {
		t.Errorf("lis LisHa() = %#x, %v", ha, ok)
	}
	if _, ok := LisHa(in[1]); ok {
		t.Errorf("addis r3,r3,1 has no absolute @ha")
	}
}

func TestUnitString(t *testing.T) {
	s, err := NewDecoder().Decode(0, words(0x00000000, 0x38600001))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Units[0].String(); got != ".4byte 0x00000000" {
		t.Errorf("data String() = %q", got)
	}
	if got := s.Units[1].String(); got != "li r3,1" {
		t.Errorf("inst String() = %q", got)
	}
}

func TestCheckDecoderVersion(t *testing.T) {
	mod := func(v string) *debug.Module { return &debug.Module{Path: decoderModule, Version: v} }

	tests := []struct {
		name    string
		info    *debug.BuildInfo
		wantErr bool
	}{
		{name: "no build info"},
		{name: "module not recorded", info: &debug.BuildInfo{}},
		{name: "expected version", info: &debug.BuildInfo{Deps: []*debug.Module{mod(DecoderVersion)}}},
		{name: "other version", info: &debug.BuildInfo{Deps: []*debug.Module{mod("v0.19.0")}}, wantErr: true},
		{
			name: "replaced with expected version",
			info: &debug.BuildInfo{Deps: []*debug.Module{{Path: decoderModule, Version: "v0.1.0", Replace: mod(DecoderVersion)}}},
		},
		{
			name:    "replaced with local copy",
			info:    &debug.BuildInfo{Deps: []*debug.Module{{Path: decoderModule, Version: DecoderVersion, Replace: &debug.Module{Path: "../arch"}}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDecoderVersion(tt.info)
			if tt.wantErr != (err != nil) {
				t.Fatalf("CheckDecoderVersion() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrDecoderVersion) {
				t.Errorf("error %v is not ErrDecoderVersion", err)
			}
		})
	}
}
