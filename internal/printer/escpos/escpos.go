// Package escpos builds ESC/POS command streams for Epson-compatible thermal printers.
package escpos

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	esc = 0x1b
	gs  = 0x1d
	lf  = 0x0a
)

// Alignment of the following lines.
type Alignment byte

const (
	AlignLeft   Alignment = 0
	AlignCenter Alignment = 1
	AlignRight  Alignment = 2
)

// codePagePC850 is the ESC t table number of PC850 (Multilingual) on Epson printers.
const codePagePC850 = 2

// Builder accumulates commands. The first encoding error is kept and returned by Bytes.
type Builder struct {
	buf     bytes.Buffer
	encoder *encoding.Encoder
	width   int
	ruleCh  string
	err     error
}

// NewBuilder starts a job for a printer with width columns at normal size.
// It resets the printer and selects the PC850 code page.
func NewBuilder(width int) *Builder {
	if width <= 0 {
		width = 48
	}

	b := &Builder{
		encoder: encoding.ReplaceUnsupported(charmap.CodePage850.NewEncoder()),
		width:   width,
		ruleCh:  "=",
	}
	b.buf.Write([]byte{esc, '@'})
	b.buf.Write([]byte{esc, 't', codePagePC850})

	return b
}

// Width is the number of normal-size columns per line.
func (b *Builder) Width() int {
	return b.width
}

func (b *Builder) Align(a Alignment) *Builder {
	b.buf.Write([]byte{esc, 'a', byte(a)})
	return b
}

func (b *Builder) Bold(on bool) *Builder {
	var n byte
	if on {
		n = 1
	}
	b.buf.Write([]byte{esc, 'E', n})

	return b
}

// Size sets character magnification; 0 is normal, 1 doubles, up to 7.
func (b *Builder) Size(width, height int) *Builder {
	w := byte(clamp(width, 0, 7))
	h := byte(clamp(height, 0, 7))
	b.buf.Write([]byte{gs, '!', w<<4 | h})

	return b
}

// Text writes s transcoded to PC850 without a line feed.
func (b *Builder) Text(s string) *Builder {
	if b.err != nil {
		return b
	}

	encoded, err := b.encoder.String(s)
	if err != nil {
		b.err = fmt.Errorf("failed to encode %q: %w", s, err)
		return b
	}
	b.buf.WriteString(encoded)

	return b
}

// Println writes s followed by a line feed.
func (b *Builder) Println(s string) *Builder {
	b.Text(s)
	b.buf.WriteByte(lf)

	return b
}

func (b *Builder) NewLine() *Builder {
	b.buf.WriteByte(lf)
	return b
}

// Rule draws a full-width line of "=".
func (b *Builder) Rule() *Builder {
	return b.Println(strings.Repeat(b.ruleCh, b.width))
}

// Cut feeds the paper past the cutter and performs a partial cut.
func (b *Builder) Cut() *Builder {
	b.buf.Write([]byte{gs, 'V', 'A', 3})
	return b
}

// Bytes returns the command stream or the first error met while building it.
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.buf.Bytes(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
