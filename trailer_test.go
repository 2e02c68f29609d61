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
	"os"
	"testing"
)

func TestReadAppendSeamRoundTrip(t *testing.T) {
	ctx, path := openTestContext(t)
	if err := ctx.Print([]byte("A\nB\n")); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatal(err)
	}

	f := mustOpen(t, path)
	seam, err := readAppendSeam(f)
	if err != nil {
		t.Fatal(err)
	}
	if seam.prevPageCount != 1 {
		t.Errorf("prevPageCount = %d, want 1", seam.prevPageCount)
	}
	if len(seam.id0) == 0 {
		t.Error("id0 is empty")
	}
	if len(seam.creationDate) == 0 {
		t.Error("creationDate is empty")
	}
	if seam.pagesAnchor != seam.rootNum-1 {
		t.Errorf("pagesAnchor = %d, want rootNum-1 = %d", seam.pagesAnchor, seam.rootNum-1)
	}
	if seam.parentPlaceholderOffset <= 0 {
		t.Error("parentPlaceholderOffset not recorded")
	}
	if seam.xref.size() != 8 {
		t.Errorf("xref has %d slots, want 8", seam.xref.size())
	}
}

func TestFindParentPlaceholderLocatesPatchPoint(t *testing.T) {
	ctx, path := openTestContext(t)
	if err := ctx.Print([]byte("A\n")); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatal(err)
	}

	f := mustOpen(t, path)
	seam, err := readAppendSeam(f)
	if err != nil {
		t.Fatal(err)
	}

	offset, err := findParentPlaceholder(f, seam.xref, seam.pagesAnchor)
	if err != nil {
		t.Fatal(err)
	}
	if offset != seam.parentPlaceholderOffset {
		t.Errorf("findParentPlaceholder = %d, seam recorded %d", offset, seam.parentPlaceholderOffset)
	}

	buf := make([]byte, 10)
	if _, err := f.ReadAt(buf, offset); err != nil {
		t.Fatal(err)
	}
	for _, c := range buf {
		if c < '0' || c > '9' {
			t.Fatalf("placeholder bytes are not all digits: %q", buf)
		}
	}
}

func TestReadAppendSeamRejectsForeignFile(t *testing.T) {
	ctx, path := openTestContext(t)
	if err := ctx.Print([]byte("A\n")); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatal(err)
	}

	// Truncate the file so the trailer no longer round-trips; the parser
	// should reject this rather than panic.
	if err := os.Truncate(path, 4); err != nil {
		t.Fatal(err)
	}
	f := mustOpen(t, path)
	if _, err := readAppendSeam(f); err == nil {
		t.Fatal("expected an error reading a truncated file")
	}
}
