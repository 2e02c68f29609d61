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

func writeString(pb *pageBuffer, s string) {
	for _, c := range []byte(s) {
		switch c {
		case '\n':
			pb.lineFeed()
		case '\r':
			pb.carriageReturn()
		default:
			pb.char(uint16(c))
		}
	}
}

func TestPageBufferFirstLineIsTOFPlusOne(t *testing.T) {
	pb := newPageBuffer(6, 66, 6)
	pb.char('H')
	if pb.currentLine != pb.tof+1 {
		t.Fatalf("currentLine = %d, want %d", pb.currentLine, pb.tof+1)
	}
}

func TestPageBufferLineFeedAdvances(t *testing.T) {
	pb := newPageBuffer(6, 66, 6)
	writeString(pb, "A\nB")
	if pb.currentLine != pb.tof+2 {
		t.Fatalf("currentLine = %d, want %d", pb.currentLine, pb.tof+2)
	}
	if pb.lines[pb.tof+1].empty() || pb.lines[pb.tof+2].empty() {
		t.Fatal("both lines should carry content")
	}
}

func TestPageBufferOverflowSwapsIntoTOFRegion(t *testing.T) {
	pb := newPageBuffer(6, 2, 2) // tiny page: lpp=2, tof=2, so lines 3 and 4 are the overflow zone
	writeString(pb, "A\nB")      // A lands on line 3 (tof+1), B on line 4 (lpp+tof)

	next := pb.startNewPage()
	if next.currentLine != next.tof+1 {
		t.Fatalf("a swapped overflow line should set the new page's currentLine, got %d", next.currentLine)
	}
	if next.lines[1] == nil || next.lines[1].empty() || next.lines[2] == nil || next.lines[2].empty() {
		t.Fatal("both overflowed lines should have swapped into the new page's TOF region")
	}
}

func TestPageBufferCarriageReturnOverstrike(t *testing.T) {
	pb := newPageBuffer(6, 66, 6)
	writeString(pb, "ABC\rXYZ")
	line := pb.lines[pb.tof+1]
	if len(line.segments) != 2 {
		t.Fatalf("got %d segments, want 2 (one overstrike boundary)", len(line.segments))
	}
}

func TestRenderTextBlockEscapesAndOverstrikes(t *testing.T) {
	pb := newPageBuffer(6, 66, 6)
	writeString(pb, "A(B)\rC")
	tl := textLayout{fontName: "Ftext", size: 12, leftMargin: 0, top: 100}
	out := renderTextBlock(pb.renderedLines(), pb.renderedLPI(), tl)

	if !bytes.Contains(out, []byte(`\(B\)`)) {
		t.Errorf("parentheses were not escaped in %q", out)
	}
	if !bytes.Contains(out, []byte(") Tj 0 0 Td (")) {
		t.Errorf("overstrike boundary marker missing in %q", out)
	}
	if !strings.Contains(string(out), "BT") || !strings.Contains(string(out), "ET Q") {
		t.Errorf("text object not properly bracketed: %q", out)
	}
}

func TestRenderTextBlockMidPageLPIChange(t *testing.T) {
	pb := newPageBuffer(6, 66, 6)
	pb.char('X')
	pb.lineFeed()
	pb.setLPI(8)
	pb.char('Y')

	lpis := pb.renderedLPI()
	lineX := pb.tof + 1
	lineY := pb.tof + 2
	if lpis[lineX] != 6 {
		t.Errorf("line X's recorded LPI = %d, want 6", lpis[lineX])
	}
	if lpis[lineY] != 8 {
		t.Errorf("line Y's recorded LPI = %d, want 8 (mid-page switch)", lpis[lineY])
	}
}
