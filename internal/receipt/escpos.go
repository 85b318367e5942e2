package receipt

import (
	"bytes"
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

// Управляющие последовательности ESC/POS.
var (
	cmdInit        = []byte{0x1b, 0x40}
	cmdAlignLeft   = []byte{0x1b, 0x61, 0x00}
	cmdAlignCenter = []byte{0x1b, 0x61, 0x01}
	cmdSizeNormal  = []byte{0x1d, 0x21, 0x00}
	cmdSizeTall    = []byte{0x1d, 0x21, 0x01}
	cmdSizeDouble  = []byte{0x1d, 0x21, 0x11}
	cmdCut         = []byte{0x1d, 0x56, 0x00}
)

// replacementByte подставляется вместо символов вне Latin-1 и управляющих символов.
const replacementByte = '?'

// sectionWriter собирает одну секцию чека: команды пишутся как есть, текст побайтно.
type sectionWriter struct {
	buf bytes.Buffer
}

func (w *sectionWriter) cmd(seq []byte) *sectionWriter {
	w.buf.Write(seq)
	return w
}

// text пишет пользовательский текст. Управляющие байты принтер принял бы за команды,
// поэтому они заменяются так же, как символы вне Latin-1.
func (w *sectionWriter) text(s string) *sectionWriter {
	for _, r := range s {
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok || unicode.IsControl(r) {
			b = replacementByte
		}
		w.buf.WriteByte(b)
	}
	return w
}

func (w *sectionWriter) feed(lines int) *sectionWriter {
	for range lines {
		w.buf.WriteByte('\n')
	}
	return w
}

func (w *sectionWriter) line(s string) *sectionWriter {
	return w.text(s).feed(1)
}

func (w *sectionWriter) bytes() []byte {
	return w.buf.Bytes()
}
