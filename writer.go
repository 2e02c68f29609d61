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
	"fmt"
	"io"
)

// xRefEntry is one slot of the cross-reference table.  Slot 0 is always the
// free-list head; all others are in-use objects once written.
type xRefEntry struct {
	Offset int64 // file offset of "N 0 obj"; -1 until written
	Free   bool
}

// xRefTable is an append-only sequence of file offsets, indexed by
// object number.  Entry 0 (the free-list head) is synthetic and does
// not correspond to a real object.
type xRefTable struct {
	entries []xRefEntry
}

func newXRefTable() *xRefTable {
	return &xRefTable{entries: []xRefEntry{{Offset: 0, Free: true}}}
}

// grow reserves slot n (1-based object number) without recording an offset.
func (t *xRefTable) grow(n int) {
	for len(t.entries) <= n {
		t.entries = append(t.entries, xRefEntry{Offset: -1})
	}
}

// set records the offset for object number n.
func (t *xRefTable) set(n int, offset int64) {
	t.grow(n)
	t.entries[n] = xRefEntry{Offset: offset}
}

// size returns the number of slots, i.e. (highest object number) + 1.
func (t *xRefTable) size() int { return len(t.entries) }

// objectWriter assigns object numbers, records their file offsets, and
// frames each indirect object with the required "N 0 obj" / "endobj"
// wrapper.  It is a thin layer over the underlying file: it does not
// buffer or reorder anything, so every call is reflected in the file (or
// the caller's io.Writer) immediately.
type objectWriter struct {
	w       *countingWriter
	xref    *xRefTable
	nextNum int // next object number to allocate
}

func newObjectWriter(w io.Writer, xref *xRefTable, nextNum int, startPos int64) *objectWriter {
	return &objectWriter{
		w:       &countingWriter{w: w, pos: startPos},
		xref:    xref,
		nextNum: nextNum,
	}
}

// pos returns the current file offset.
func (ow *objectWriter) pos() int64 { return ow.w.pos }

// newObject reserves the next object number and records the current file
// offset for it.  The object body must be written immediately afterwards
// by the caller (via Write followed by endObject), since the recorded
// offset is the position of this call, not of some later write.
func (ow *objectWriter) newObject() int {
	n := ow.nextNum
	ow.nextNum++
	ow.xref.set(n, ow.pos())
	return n
}

// reserveNumber allocates the next object number without recording an
// offset; the object's content may be written much later (the Page tree
// is assembled at close time even though content streams are written as
// pages complete).
func (ow *objectWriter) reserveNumber() int {
	n := ow.nextNum
	ow.nextNum++
	return n
}

// beginReserved records the current offset for a previously reserved
// number and writes its "N 0 obj\n" header.
func (ow *objectWriter) beginReserved(n int) error {
	ow.xref.set(n, ow.pos())
	return ow.beginObject(n)
}

// emitReserved writes obj into a previously reserved object number.
func (ow *objectWriter) emitReserved(n int, obj Object) error {
	if err := ow.beginReserved(n); err != nil {
		return err
	}
	if err := obj.PDF(ow.w); err != nil {
		return err
	}
	return ow.endObject()
}

// beginObject writes "N 0 obj\n" for n.  It does not allocate a new
// number; n must already be reserved (by newObject, or by an append-mode
// renumbering).
func (ow *objectWriter) beginObject(n int) error {
	_, err := fmt.Fprintf(ow.w, "%d 0 obj\n", n)
	return err
}

func (ow *objectWriter) endObject() error {
	_, err := io.WriteString(ow.w, "\nendobj\n\n")
	return err
}

// emit writes obj as a complete, freshly numbered indirect object and
// returns its object number.
func (ow *objectWriter) emit(obj Object) (int, error) {
	n := ow.newObject()
	if err := ow.beginObject(n); err != nil {
		return 0, err
	}
	if err := obj.PDF(ow.w); err != nil {
		return 0, err
	}
	if err := ow.endObject(); err != nil {
		return 0, err
	}
	return n, nil
}

// write appends raw bytes to the output file without any object framing.
func (ow *objectWriter) write(p []byte) error {
	_, err := ow.w.Write(p)
	return err
}

// writeXref writes the PDF "xref" section for all objects 0..size-1 and
// returns the file offset at which the section begins.  Entries are
// exactly 20 bytes: "%010d %05d n \n" (or "f" for the free-list head).
func (ow *objectWriter) writeXref() (int64, error) {
	start := ow.pos()
	m := ow.xref.size()
	if _, err := fmt.Fprintf(ow.w, "xref\n0 %d\n", m); err != nil {
		return 0, err
	}
	for n := 0; n < m; n++ {
		e := ow.xref.entries[n]
		gen := 0
		kind := byte('n')
		off := e.Offset
		if n == 0 {
			gen = 65535
			kind = 'f'
			off = 0
		} else if e.Offset < 0 {
			// An object number was reserved (e.g. during append
			// renumbering) but never actually written; this must not
			// happen in a well-formed session.
			return 0, newError(ErrBugcheck, fmt.Errorf("object %d has no offset", n))
		}
		if _, err := fmt.Fprintf(ow.w, "%010d %05d %c \n", off, gen, kind); err != nil {
			return 0, err
		}
	}
	return start, nil
}

// countingWriter tracks the number of bytes written so far, giving the
// current file offset without needing to call Seek/Tell on the underlying
// file.
type countingWriter struct {
	w   io.Writer
	pos int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}
