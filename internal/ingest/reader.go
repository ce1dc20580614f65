package ingest

// reader.go provides the byte-level cleanup applied to raw source files
// before CSV parsing: UTF-8 BOM removal and replacement of invalid UTF-8
// bytes. Both transforms stream, so the large fact file is never fully
// buffered.

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// newSanitizedReader wraps r with BOM skipping and UTF-8 sanitization.
// The BOM must be stripped before any other processing sees the bytes.
func newSanitizedReader(r io.Reader) io.Reader {
	return &sanitizingReader{br: bufio.NewReader(&bomSkippingReader{r: r})}
}

// bomSkippingReader skips a leading UTF-8 BOM (0xEF 0xBB 0xBF), commonly
// added by Windows exports.
type bomSkippingReader struct {
	r       io.Reader
	checked bool
	buf     []byte
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true

		head := make([]byte, 3)
		n, err := io.ReadFull(b.r, head)
		if !(n == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF) {
			// No BOM - keep the bytes we consumed
			b.buf = head[:n]
		}
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
	}

	if len(b.buf) > 0 {
		n := copy(p, b.buf)
		b.buf = b.buf[n:]
		return n, nil
	}

	return b.r.Read(p)
}

// sanitizingReader replaces each invalid UTF-8 byte with '?' so the byte
// count never grows. Callers must read with buffers of at least
// utf8.UTFMax bytes; encoding/csv's internal bufio reader satisfies this.
type sanitizingReader struct {
	br *bufio.Reader
}

func (s *sanitizingReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		r, size, err := s.br.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}

		if n+size > len(p) {
			// Rune does not fit; leave it for the next call
			s.br.UnreadRune()
			break
		}
		n += utf8.EncodeRune(p[n:], r)
	}
	return n, nil
}
