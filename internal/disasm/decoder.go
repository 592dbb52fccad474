package disasm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/arch/ppc64/ppc64asm"
)

// ErrUnaligned is returned when the code length is not a whole number of words.
var ErrUnaligned = errors.New("code length is not a multiple of 4")

// Decoder turns big-endian 32-bit PowerPC code into a Stream.
// A Decoder is cheap; create one per job rather than sharing it.
type Decoder struct {
	order  binary.ByteOrder
	logger *log.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger makes the decoder report refused and ignored words at debug level.
func WithLogger(l *log.Logger) Option {
	return func(d *Decoder) {
		d.logger = l
	}
}

// NewDecoder creates a decoder in 32-bit big-endian mode.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{order: binary.BigEndian}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode disassembles data loaded at base. The result has exactly
// len(data)/4 units at base, base+4, ... in order.
func (d *Decoder) Decode(base uint32, data []byte) (Stream, error) {
	if len(data)%4 != 0 {
		return Stream{}, fmt.Errorf("%w: %d bytes at %#x", ErrUnaligned, len(data), base)
	}

	units := make([]Unit, 0, len(data)/4)
	for off := 0; off+4 <= len(data); off += 4 {
		units = append(units, d.decodeWord(base+uint32(off), data[off:off+4]))
	}
	return Stream{Base: base, Units: units}, nil
}

// decodeWord decodes a single word. Only 4 bytes are offered to the decoder
// so that prefixed 8-byte forms are refused instead of swallowing the next word.
func (d *Decoder) decodeWord(va uint32, word []byte) Unit {
	var raw [4]byte
	copy(raw[:], word)

	inst, err := ppc64asm.Decode(word, d.order)
	if err != nil || inst.Op == 0 {
		if d.logger != nil {
			d.logger.Debug("decoder refused word", "addr", fmt.Sprintf("%#x", va), "word", fmt.Sprintf("%#08x", d.order.Uint32(word)))
		}
		return Data{VA: va, Raw: raw}
	}

	in := Inst{VA: va, Op: inst.Op, Args: inst.Args, Raw: raw}
	if ShouldIgnore(in) {
		if d.logger != nil {
			d.logger.Debug("ignoring untrusted decode", "addr", fmt.Sprintf("%#x", va), "op", inst.Op)
		}
		return Data{VA: va, Raw: raw}
	}
	return in
}
