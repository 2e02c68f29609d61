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
	"os"
	"testing"
)

func TestXMPMetadataOffByDefaultKeepsObjectCount(t *testing.T) {
	ctx, path := openTestContext(t)
	if err := ctx.Print([]byte("HELLO\n")); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatal(err)
	}
	seam, err := readAppendSeam(mustOpen(t, path))
	if err != nil {
		t.Fatal(err)
	}
	if got := seam.xref.size(); got != 8 {
		t.Fatalf("xref has %d slots with metadata disabled, want 8", got)
	}
}

func TestXMPMetadataEnabledAddsMetadataStream(t *testing.T) {
	ctx, path := openTestContext(t)
	if err := ctx.Set(OptXMPMetadata, true); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Print([]byte("HELLO\n")); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("/Subtype /XML")) {
		t.Fatal("no XMP metadata stream found in output")
	}
	if !bytes.Contains(data, []byte("/Metadata")) {
		t.Fatal("Catalog does not reference the metadata stream")
	}
}
