// seehuhn.de/go/lpt2pdf - renders ASCII lineprinter output as PDF documents
// Copyright (C) 2022  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package lzw

import (
	"bufio"
	"errors"
	"io"
)

// Reader decodes a byte stream produced by [Writer]. It exists mainly to
// let this engine test the round-trip property of its own encoder; the
// PDF output itself never needs an LZW decoder.
type Reader struct {
	r           *bitReader
	earlyChange bool

	table [][]byte // code -> decoded bytes, indexed from firstDataLow
	next  int
	width uint

	pending []byte
	prev    []byte
	err     error
}

// NewReader returns a reader that decodes data written by a matching
// [Writer]; earlyChange must match the value passed to NewWriter.
func NewReader(r io.Reader, earlyChange bool) *Reader {
	lr := &Reader{
		r:           newBitReader(r),
		earlyChange: earlyChange,
	}
	lr.resetTable()
	return lr
}

func (lr *Reader) resetTable() {
	lr.table = nil
	lr.next = firstDataLow
	lr.width = minCodeWidth
	lr.prev = nil
}

// Read implements io.Reader.
func (lr *Reader) Read(p []byte) (int, error) {
	for len(lr.pending) == 0 {
		if lr.err != nil {
			return 0, lr.err
		}
		if err := lr.decodeOne(); err != nil {
			lr.err = err
			if len(lr.pending) == 0 {
				return 0, err
			}
			break
		}
	}
	n := copy(p, lr.pending)
	lr.pending = lr.pending[n:]
	return n, nil
}

func (lr *Reader) entry(code int) []byte {
	if code < 256 {
		return []byte{byte(code)}
	}
	idx := code - firstDataLow
	if idx < 0 || idx >= len(lr.table) {
		return nil
	}
	return lr.table[idx]
}

func (lr *Reader) decodeOne() error {
	code, err := lr.r.readCode(lr.width)
	if err != nil {
		return err
	}

	switch code {
	case codeClear:
		lr.resetTable()
		return nil
	case codeEOD:
		return io.EOF
	}

	entry := lr.entry(code)
	if entry == nil {
		if code == lr.next && lr.prev != nil {
			// Code references the entry about to be created: the classic
			// LZW "KwKwK" case.
			entry = append(append([]byte{}, lr.prev...), lr.prev[0])
		} else {
			return errors.New("lzw: invalid code")
		}
	}

	if lr.prev != nil {
		newEntry := append(append([]byte{}, lr.prev...), entry[0])
		lr.table = append(lr.table, newEntry)
		lr.next++

		threshold := 1 << lr.width
		bumpAt := threshold - 1
		if lr.earlyChange {
			bumpAt--
		}
		// The decoder builds each table entry one stream-code later than
		// the encoder did (the KwKwK lag above), so it must compare the
		// width bump against lr.next, the code about to be assigned, not
		// against newCode, the one just assigned — one code earlier than
		// the encoder's own newCode == bumpAt check in writer.go.
		if lr.next == bumpAt && lr.width < maxCodeWidth {
			lr.width++
		}
		if lr.next > maxCode {
			// A clear code must follow before any more entries are
			// assigned; the writer guarantees this.
		}
	}

	lr.pending = append(lr.pending, entry...)
	lr.prev = entry
	return nil
}

// Close releases resources held by the reader.
func (lr *Reader) Close() error { return nil }

type bitReader struct {
	r     *bufio.Reader
	acc   uint32
	nbits uint
}

func newBitReader(r io.Reader) *bitReader {
	return &bitReader{r: bufio.NewReader(r)}
}

func (br *bitReader) readCode(width uint) (int, error) {
	for br.nbits < width {
		b, err := br.r.ReadByte()
		if err != nil {
			return 0, err
		}
		br.acc = br.acc<<8 | uint32(b)
		br.nbits += 8
	}
	br.nbits -= width
	code := (br.acc >> br.nbits) & (1<<width - 1)
	return int(code), nil
}
