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
	"fmt"
)

// ptPerInch is "PT" in the content-stream formulas of §4.4: PDF user-space
// points per inch.
const ptPerInch = 72.0

// logicalLine is one line of accumulated text.  CR splits a line into
// multiple segments: the first segment starts at the line's left margin,
// and every later segment is an overstrike that resets the horizontal text
// position back to the start of the line.
type logicalLine struct {
	segments [][]uint16
}

func (l *logicalLine) empty() bool {
	if l == nil {
		return true
	}
	for _, seg := range l.segments {
		if len(seg) > 0 {
			return false
		}
	}
	return len(l.segments) == 0
}

func (l *logicalLine) appendChar(c uint16) {
	if len(l.segments) == 0 {
		l.segments = append(l.segments, nil)
	}
	last := len(l.segments) - 1
	l.segments[last] = append(l.segments[last], c)
}

func (l *logicalLine) overstrike() {
	l.segments = append(l.segments, nil)
}

// pageBuffer is the page layout buffer from §4.4: an array of logical
// lines for the current page, flushed into a rendered content stream when
// the page completes.
type pageBuffer struct {
	lpi int // lines per inch in effect on the page being accumulated
	lpp int // lines per page = floor(page_length_in * lpi)
	tof int // top-of-form offset (1-based logical line)

	lines       []*logicalLine // 1-based; index 0 unused ("no output yet")
	lineLPI     []int          // LPI in effect when each line first received a character or CR
	currentLine int
	maxUsed     int // highest line index actually written on this page

	pendingLPI int // carried forward into the next page's starting LPI
}

func newPageBuffer(lpi, lpp, tof int) *pageBuffer {
	return &pageBuffer{
		lpi:     lpi,
		lpp:     lpp,
		tof:     tof,
		lines:   make([]*logicalLine, lpp+tof+1),
		lineLPI: make([]int, lpp+tof+1),
	}
}

// setLPI changes the line pitch with immediate effect: lines reached from
// this point on (on the current page or any later one) use the new value,
// per the end-to-end LPI-switch scenario.
func (pb *pageBuffer) setLPI(lpi int) {
	pb.lpi = lpi
	pb.pendingLPI = lpi
}

func (pb *pageBuffer) markLine(n int) {
	if pb.lineLPI[n] == 0 {
		pb.lineLPI[n] = pb.lpi
	}
}

func (pb *pageBuffer) capacity() int { return pb.lpp + pb.tof }

func (pb *pageBuffer) line(n int) *logicalLine {
	if pb.lines[n] == nil {
		pb.lines[n] = &logicalLine{}
	}
	return pb.lines[n]
}

// char stores an ordinary printable character. It returns true if the
// write could not be accommodated on the current page and the caller must
// flush (an implicit page break) before retrying.
func (pb *pageBuffer) char(c uint16) bool {
	if pb.currentLine == 0 {
		pb.currentLine = pb.tof + 1
	}
	if pb.currentLine > pb.capacity() {
		return true
	}
	pb.markLine(pb.currentLine)
	pb.line(pb.currentLine).appendChar(c)
	if pb.currentLine > pb.maxUsed {
		pb.maxUsed = pb.currentLine
	}
	return false
}

// lineFeed advances to the next logical line. It returns true if the new
// line exceeds the page's capacity and the caller must flush before any
// further content is stored. The new line's LPI is not fixed here: a
// line-pitch change arriving before the line's first character (e.g. a
// CSI immediately after the LF) must still apply to it, so marking is
// left to the first char/carriageReturn call that actually touches it.
func (pb *pageBuffer) lineFeed() bool {
	pb.currentLine++
	return pb.currentLine > pb.capacity()
}

// carriageReturn records an overstrike boundary on the current line.
func (pb *pageBuffer) carriageReturn() {
	if pb.currentLine == 0 {
		pb.currentLine = pb.tof + 1
	}
	if pb.currentLine <= pb.capacity() {
		pb.markLine(pb.currentLine)
		pb.line(pb.currentLine).overstrike()
	}
}

// startNewPage swaps the overflow region [lpp+1, lpp+tof] into the new
// page's top [1, tof], per the line-overflow rule in §4.4, and returns the
// fresh buffer that replaces pb.
func (pb *pageBuffer) startNewPage() *pageBuffer {
	lpi := pb.lpi
	if pb.pendingLPI != 0 {
		lpi = pb.pendingLPI
	}
	lpp := pb.lpp
	tof := pb.tof
	next := newPageBuffer(lpi, lpp, tof)

	anySwapped := false
	for i := 1; i <= tof; i++ {
		src := pb.lines[lpp+i]
		if src != nil && !src.empty() {
			next.lines[i] = src
			next.lineLPI[i] = pb.lineLPI[lpp+i]
			anySwapped = true
			if i > next.maxUsed {
				next.maxUsed = i
			}
		}
	}
	if anySwapped {
		next.currentLine = tof + 1
	}
	return next
}

// renderedLines returns the portion of the buffer that is actually printed
// on this page: lines 1..min(maxUsed, lpp).
func (pb *pageBuffer) renderedLines() []*logicalLine {
	n := pb.maxUsed
	if n > pb.lpp {
		n = pb.lpp
	}
	if n < 0 {
		n = 0
	}
	return pb.lines[:n+1]
}

// renderedLPI is the lineLPI slice trimmed to match renderedLines.
func (pb *pageBuffer) renderedLPI() []int {
	n := pb.maxUsed
	if n > pb.lpp {
		n = pb.lpp
	}
	if n < 0 {
		n = 0
	}
	return pb.lineLPI[:n+1]
}

// textLayout carries the font geometry needed to position the text overlay
// within the printable area.
type textLayout struct {
	fontName   Name
	size       float64 // PT/LPI, at the page's starting LPI
	leftMargin float64 // points from the page's left edge
	top        float64 // points from the page's bottom edge
	blackRGB   [3]float64
}

// renderTextBlock builds the "q ... ET Q" text object described in §4.4
// for the given page contents. Rather than a flat T* per line (which
// assumes one fixed leading for the whole page), each line advances by
// exactly PT/lpi using the LPI recorded for that line, so a mid-page LPI
// switch takes effect immediately.
func renderTextBlock(lines []*logicalLine, lineLPI []int, tl textLayout) []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "q 0 Tr %.3f %.3f %.3f rg BT %s %.3f Tf 1 0 0 1 %.3f 0 Tm 0 Tc 100 Tz 0 %.3f Td\n",
		tl.blackRGB[0], tl.blackRGB[1], tl.blackRGB[2],
		Format(tl.fontName), tl.size, tl.leftMargin, tl.top)

	for i := 1; i < len(lines); i++ {
		lpi := lineLPI[i]
		if lpi == 0 {
			lpi = int(ptPerInch / tl.size)
		}
		dy := ptPerInch / float64(lpi)
		fmt.Fprintf(buf, "0 %.3f Td\n", -dy)

		line := lines[i]
		if line == nil || line.empty() {
			continue
		}
		buf.WriteString("(")
		for segIdx, seg := range line.segments {
			if segIdx > 0 {
				buf.WriteString(") Tj 0 0 Td (")
			}
			writeEscapedText(buf, seg)
		}
		buf.WriteString(") Tj\n")
	}

	buf.WriteString("ET Q\n")
	return buf.Bytes()
}

// writeEscapedText writes the characters of seg as a content-stream text
// token body, backslash-escaping '(', ')' and '\\'.
func writeEscapedText(buf *bytes.Buffer, seg []uint16) {
	for _, c := range seg {
		switch c {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(byte(c))
		default:
			buf.WriteByte(byte(c))
		}
	}
}
