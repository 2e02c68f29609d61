// seehuhn.de/go/lpt2pdf - renders ASCII lineprinter output as PDF documents
// Copyright (C) 2021  Jochen Voss <voss@seehuhn.de>
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

package pdf

import (
	"bytes"
	"strings"
	"testing"
)

func TestObjectWriterOffsets(t *testing.T) {
	buf := &bytes.Buffer{}
	xref := newXRefTable()
	ow := newObjectWriter(buf, xref, 1, 0)

	n1, err := ow.emit(Integer(1))
	if err != nil {
		t.Fatal(err)
	}
	n2, err := ow.emit(Integer(2))
	if err != nil {
		t.Fatal(err)
	}
	if n1 != 1 || n2 != 2 {
		t.Fatalf("object numbers = %d, %d, want 1, 2", n1, n2)
	}

	out := buf.Bytes()
	for _, n := range []int{n1, n2} {
		off := xref.entries[n].Offset
		if off < 0 || off >= int64(len(out)) {
			t.Fatalf("object %d has no valid offset", n)
		}
		want := []byte{byte('0' + n), ' ', '0', ' ', 'o', 'b', 'j', '\n'}
		got := out[off : off+int64(len(want))]
		if !bytes.Equal(got, want) {
			t.Fatalf("object %d: offset %d does not point at %q, got %q", n, off, want, got)
		}
	}
}

func TestObjectWriterReserveThenEmit(t *testing.T) {
	buf := &bytes.Buffer{}
	xref := newXRefTable()
	ow := newObjectWriter(buf, xref, 1, 0)

	n := ow.reserveNumber()
	if n != 1 {
		t.Fatalf("reserveNumber() = %d, want 1", n)
	}
	if err := ow.emitReserved(n, Integer(7)); err != nil {
		t.Fatal(err)
	}

	out := buf.Bytes()
	off := xref.entries[n].Offset
	if !bytes.HasPrefix(out[off:], []byte("1 0 obj\n7\nendobj\n\n")) {
		t.Fatalf("unexpected object framing: %q", out[off:])
	}
}

func TestWriteXrefEntryWidth(t *testing.T) {
	buf := &bytes.Buffer{}
	xref := newXRefTable()
	ow := newObjectWriter(buf, xref, 1, 0)
	if _, err := ow.emit(Integer(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := ow.emit(Integer(2)); err != nil {
		t.Fatal(err)
	}
	if _, err := ow.writeXref(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	idx := strings.Index(out, "xref\n")
	if idx < 0 {
		t.Fatal("no xref section written")
	}
	lines := strings.Split(out[idx:], "\n")
	// lines[0] = "xref", lines[1] = "0 3", lines[2..4] entries, lines[5] = ""
	for i := 2; i < 5; i++ {
		entry := lines[i] + "\n"
		if len(entry) != 20 {
			t.Errorf("xref entry %q has length %d, want 20", entry, len(entry))
		}
	}
}

func TestXRefTableGrow(t *testing.T) {
	xref := newXRefTable()
	xref.grow(5)
	if xref.size() != 6 {
		t.Fatalf("size() = %d, want 6", xref.size())
	}
	xref.set(3, 100)
	if xref.entries[3].Offset != 100 {
		t.Fatalf("entries[3].Offset = %d, want 100", xref.entries[3].Offset)
	}
}
