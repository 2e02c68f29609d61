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
	"image"
	_ "image/jpeg"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// FormType names one of the five lineprinter paper styles from §6.
type FormType string

// The five form names enumerated by get_formlist.
const (
	FormPlain     FormType = "PLAIN"
	FormGreenbar  FormType = "GREENBAR"
	FormBluebar   FormType = "BLUEBAR"
	FormGraybar   FormType = "GRAYBAR"
	FormYellowbar FormType = "YELLOWBAR"
)

// GetFormList enumerates the five built-in form names.
func GetFormList() []FormType {
	return []FormType{FormPlain, FormGreenbar, FormBluebar, FormGraybar, FormYellowbar}
}

// barColor is the fill color used for the alternate bands of each bar
// form. The exact tuning constants are deliberately out of scope for this
// engine (§1); these are a reasonable classic-lineprinter palette.
var barColor = map[FormType][3]float64{
	FormGreenbar:  {0.80, 0.93, 0.80},
	FormBluebar:   {0.80, 0.88, 0.97},
	FormGraybar:   {0.88, 0.88, 0.88},
	FormYellowbar: {0.98, 0.96, 0.78},
}

const (
	holeDiameterIn  = 0.1575
	holeEdgeOffIn   = 0.236
	holeSpacingIn   = 0.500
	holeTopOffsetIn = 0.250
	holeFillGray    = 0.90
	holeStrokeGray  = 0.85
	bezierK         = 0.551784
)

// formGeometry collects the page measurements a [formRenderer] needs; it is
// derived from the Context's configuration once per session.
type formGeometry struct {
	pageWidthPt, pageHeightPt   float64
	topMarginPt, bottomMarginPt float64
	sideMarginPt                float64
	lpi, cpi                    float64
	cols                        int
	lineNumberWidthPt           float64
	barHeightPt                 float64
	formType                    FormType
	jpeg                        *jpegBackground
}

// jpegBackground holds a validated JPEG image to be used as the page
// background, along with its pixel dimensions.
type jpegBackground struct {
	data          []byte
	width, height int
}

// loadJPEGBackground validates data as a JPEG file and extracts its pixel
// dimensions by decoding only the image header (SOF marker), never the
// pixel data itself.
func loadJPEGBackground(data []byte) (*jpegBackground, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format != "jpeg" {
		return nil, newError(ErrBadJPEG, err)
	}
	return &jpegBackground{data: data, width: cfg.Width, height: cfg.Height}, nil
}

// formRenderer produces the static per-page background content: tractor
// holes, optional bar pattern or embedded JPEG, and optional line-number
// labels. The result is computed once on first output and reused for
// every page of the session.
type formRenderer struct {
	geo formGeometry
}

func newFormRenderer(geo formGeometry) *formRenderer {
	return &formRenderer{geo: geo}
}

// build returns the form's content-stream bytes. If the geometry specifies
// a JPEG background, imageXObjectName is the resource name ("/Im1") the
// engine has assigned to the embedded image XObject; it is ignored
// otherwise.
func (fr *formRenderer) build(imageXObjectName Name) []byte {
	g := fr.geo
	buf := &bytes.Buffer{}

	printable := rect.Rect{
		LLx: g.sideMarginPt,
		LLy: g.bottomMarginPt,
		URx: g.pageWidthPt - g.sideMarginPt,
		URy: g.pageHeightPt - g.topMarginPt,
	}

	if g.jpeg != nil {
		fr.writeJPEGBackground(buf, printable, imageXObjectName)
	} else if g.formType != FormPlain {
		fr.writeBars(buf, printable)
	}

	fr.writeSprocketHoles(buf)

	if g.lineNumberWidthPt > 0 {
		fr.writeLineNumbers(buf, printable)
	}

	if g.formType != FormPlain && g.jpeg == nil {
		fr.writeEnclosure(buf, printable)
	}

	return buf.Bytes()
}

func (fr *formRenderer) writeSprocketHoles(buf *bytes.Buffer) {
	g := fr.geo
	r := holeDiameterIn / 2 * ptPerInch
	leftX := holeEdgeOffIn * ptPerInch
	rightX := g.pageWidthPt - holeEdgeOffIn*ptPerInch
	spacing := holeSpacingIn * ptPerInch
	top := g.pageHeightPt - holeTopOffsetIn*ptPerInch

	fmt.Fprintf(buf, "q %.3f %.3f %.3f rg %.3f %.3f %.3f RG 0.5 w\n",
		holeFillGray, holeFillGray, holeFillGray,
		holeStrokeGray, holeStrokeGray, holeStrokeGray)

	for y := top; y > 0; y -= spacing {
		writeCircle(buf, vec.Vec2{X: leftX, Y: y}, r)
		writeCircle(buf, vec.Vec2{X: rightX, Y: y}, r)
	}
	buf.WriteString("Q\n")
}

// writeCircle emits a filled, stroked circle as four cubic Bezier
// quadrants, per §4.5.
func writeCircle(buf *bytes.Buffer, center vec.Vec2, r float64) {
	k := bezierK * r
	cx, cy := center.X, center.Y

	fmt.Fprintf(buf, "%.3f %.3f m\n", cx+r, cy)
	fmt.Fprintf(buf, "%.3f %.3f %.3f %.3f %.3f %.3f c\n", cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	fmt.Fprintf(buf, "%.3f %.3f %.3f %.3f %.3f %.3f c\n", cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	fmt.Fprintf(buf, "%.3f %.3f %.3f %.3f %.3f %.3f c\n", cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	fmt.Fprintf(buf, "%.3f %.3f %.3f %.3f %.3f %.3f c\n", cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	buf.WriteString("b\n")
}

func (fr *formRenderer) writeBars(buf *bytes.Buffer, printable rect.Rect) {
	g := fr.geo
	color, ok := barColor[g.formType]
	if !ok {
		return
	}
	bandH := g.barHeightPt
	if bandH <= 0 {
		return
	}

	fmt.Fprintf(buf, "q %.3f %.3f %.3f rg\n", color[0], color[1], color[2])
	top := printable.URy
	bottom := printable.LLy
	band := 0
	for y := top; y > bottom; y -= bandH {
		if band%2 == 0 {
			h := bandH
			if y-h < bottom {
				h = y - bottom
			}
			fmt.Fprintf(buf, "%.3f %.3f %.3f %.3f re f\n",
				printable.LLx, y-h, printable.URx-printable.LLx, h)
		}
		band++
	}
	buf.WriteString("Q\n")
}

func (fr *formRenderer) writeEnclosure(buf *bytes.Buffer, printable rect.Rect) {
	radius := fr.geo.lineNumberWidthPt / 2
	fmt.Fprintf(buf, "q 0 0 0 RG 1 w\n")
	writeRoundedRect(buf, printable, radius)
	buf.WriteString("S\nQ\n")

	if fr.geo.lineNumberWidthPt > 0 {
		lw := fr.geo.lineNumberWidthPt
		x1 := printable.LLx + lw
		x2 := printable.URx - lw
		fmt.Fprintf(buf, "q 0 0 0 RG 0.5 w %.3f %.3f m %.3f %.3f l S %.3f %.3f m %.3f %.3f l S Q\n",
			x1, printable.LLy, x1, printable.URy,
			x2, printable.LLy, x2, printable.URy)
	}
}

func writeRoundedRect(buf *bytes.Buffer, r rect.Rect, radius float64) {
	if radius <= 0 {
		fmt.Fprintf(buf, "%.3f %.3f %.3f %.3f re\n", r.LLx, r.LLy, r.URx-r.LLx, r.URy-r.LLy)
		return
	}
	k := bezierK * radius
	fmt.Fprintf(buf, "%.3f %.3f m\n", r.URx-radius, r.LLy)
	fmt.Fprintf(buf, "%.3f %.3f %.3f %.3f %.3f %.3f c\n", r.URx-radius+k, r.LLy, r.URx, r.LLy+radius-k, r.URx, r.LLy+radius)
	fmt.Fprintf(buf, "%.3f %.3f l\n", r.URx, r.URy-radius)
	fmt.Fprintf(buf, "%.3f %.3f %.3f %.3f %.3f %.3f c\n", r.URx, r.URy-radius+k, r.URx-radius+k, r.URy, r.URx-radius, r.URy)
	fmt.Fprintf(buf, "%.3f %.3f l\n", r.LLx+radius, r.URy)
	fmt.Fprintf(buf, "%.3f %.3f %.3f %.3f %.3f %.3f c\n", r.LLx+radius-k, r.URy, r.LLx, r.URy-radius+k, r.LLx, r.URy-radius)
	fmt.Fprintf(buf, "%.3f %.3f l\n", r.LLx, r.LLy+radius)
	fmt.Fprintf(buf, "%.3f %.3f %.3f %.3f %.3f %.3f c\n", r.LLx, r.LLy+radius-k, r.LLx+radius-k, r.LLy, r.LLx+radius, r.LLy)
	buf.WriteString("h\n")
}

// writeLineNumbers emits the two line-number columns: a left column at 6
// LPI scaled 55%, and a right column at 8 LPI scaled 65%.
func (fr *formRenderer) writeLineNumbers(buf *bytes.Buffer, printable rect.Rect) {
	g := fr.geo
	usableHeight := (g.pageHeightPt - g.topMarginPt - g.bottomMarginPt) / ptPerInch

	n := int(math.Floor(usableHeight * 6))
	m := int(math.Floor(usableHeight * 8))

	fmt.Fprintf(buf, "q 0 0 0 rg BT /Flbl %.3f Tf\n", (ptPerInch/6)*0.55)
	leftX := printable.LLx + g.lineNumberWidthPt/2
	top := printable.URy
	for i := 1; i <= n; i++ {
		y := top - float64(i-1)*(ptPerInch/6)
		fmt.Fprintf(buf, "1 0 0 1 %.3f %.3f Tm (%d) Tj\n", leftX-3, y, i)
	}
	buf.WriteString("ET Q\n")

	fmt.Fprintf(buf, "q 0 0 0 rg BT /Fnum %.3f Tf\n", (ptPerInch/8)*0.65)
	rightX := printable.URx - g.lineNumberWidthPt/2
	for i := 1; i <= m; i++ {
		y := top - float64(i-1)*(ptPerInch/8)
		fmt.Fprintf(buf, "1 0 0 1 %.3f %.3f Tm (%d) Tj\n", rightX-3, y, i)
	}
	buf.WriteString("ET Q\n")
}

// writeJPEGBackground emits the "cm ... Do" invocation that scales the
// embedded JPEG XObject to the printable width and centers it vertically.
func (fr *formRenderer) writeJPEGBackground(buf *bytes.Buffer, printable rect.Rect, name Name) {
	g := fr.geo
	w := printable.URx - printable.LLx
	scale := w / float64(g.jpeg.width)
	h := float64(g.jpeg.height) * scale
	y := printable.LLy + (printable.URy-printable.LLy-h)/2

	fmt.Fprintf(buf, "q %.3f 0 0 %.3f %.3f %.3f cm %s Do Q\n", w, h, printable.LLx, y, Format(name))
}
