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
	"path/filepath"
	"testing"
)

func TestGetFontListHasFourteenEntries(t *testing.T) {
	list := GetFontList()
	if len(list) != 14 {
		t.Fatalf("GetFontList() has %d entries, want 14", len(list))
	}
	if !isCore14("Courier") || isCore14("Arial") {
		t.Fatal("isCore14 does not match the published list")
	}
}

func TestGetFormListHasFiveEntries(t *testing.T) {
	list := GetFormList()
	if len(list) != 5 {
		t.Fatalf("GetFormList() has %d entries, want 5", len(list))
	}
}

func TestSetRejectsUnknownFont(t *testing.T) {
	ctx, err := Open(filepath.Join(t.TempDir(), "out.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Set(OptTextFont, "Arial"); err == nil {
		t.Fatal("expected an error for a non-core-14 font")
	}
	if ctx.Err().(*Error).Code != ErrUnknownFont {
		t.Fatalf("got error code %v, want ErrUnknownFont", ctx.Err())
	}
}

func TestSetLabelAndNumberFontAreIndependent(t *testing.T) {
	ctx, err := Open(filepath.Join(t.TempDir(), "out.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Set(OptLabelFont, "Helvetica-Bold"); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Set(OptNumberFont, "Times-Italic"); err != nil {
		t.Fatal(err)
	}
	if ctx.cfg.labelFont != "Helvetica-Bold" {
		t.Errorf("labelFont = %q, want Helvetica-Bold", ctx.cfg.labelFont)
	}
	if ctx.cfg.numberFont != "Times-Italic" {
		t.Errorf("numberFont = %q, want Times-Italic", ctx.cfg.numberFont)
	}
	if ctx.cfg.textFont != "Courier" {
		t.Errorf("textFont changed to %q; label/number-font must not alias text-font", ctx.cfg.textFont)
	}
}

func TestSetRejectsInvalidLPI(t *testing.T) {
	ctx, err := Open(filepath.Join(t.TempDir(), "out.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Set(OptLPI, 10); err == nil {
		t.Fatal("expected an error, lpi must be 6 or 8")
	}
}

func TestSetLengthAcceptsUnitSuffixes(t *testing.T) {
	ctx, err := Open(filepath.Join(t.TempDir(), "out.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Set(OptSideMargin, "2.54cm"); err != nil {
		t.Fatal(err)
	}
	if got, want := ctx.cfg.sideMarginIn, 1.0; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("sideMarginIn = %v, want %v", got, want)
	}
}

func TestSetFailsOnceActive(t *testing.T) {
	ctx, err := Open(filepath.Join(t.TempDir(), "out.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Print([]byte("hello\n")); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Set(OptLPI, 8); err == nil {
		t.Fatal("expected ErrActive after output has been produced")
	}
	ctx.f.Close()
}
