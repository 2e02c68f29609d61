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
	"strconv"
	"strings"
)

// FileRequire selects how [Open] treats an existing file at the target
// path.
type FileRequire int

// The three file-open policies from §6.
const (
	FileNew     FileRequire = iota // path must not exist, or must be empty
	FileAppend                     // path must be a valid PDF written by this engine
	FileReplace                    // truncate and start fresh
)

// Option names a single configuration knob accepted by [Context.Set].
type Option string

// Option names, matching the table in §6.
const (
	OptFileRequire     Option = "file-require"
	OptPageWidth       Option = "page-width"
	OptPageLength      Option = "page-length"
	OptTopMargin       Option = "top-margin"
	OptBottomMargin    Option = "bottom-margin"
	OptSideMargin      Option = "side-margin"
	OptCPI             Option = "cpi"
	OptLPI             Option = "lpi"
	OptCols            Option = "cols"
	OptTOFOffset       Option = "tof-offset"
	OptLineNumberWidth Option = "line-number-width"
	OptBarHeight       Option = "bar-height"
	OptFormType        Option = "form-type"
	OptFormImage       Option = "form-image"
	OptTextFont        Option = "text-font"
	OptNumberFont      Option = "number-font"
	OptLabelFont       Option = "label-font"
	OptTitle           Option = "title"
	OptNoLZW           Option = "no-lzw"

	// OptXMPMetadata is a supplement beyond §6's table: it adds a
	// /Metadata XMP stream (Dublin Core Title/Creator) alongside the
	// classic /Info dictionary. Off by default so the minimal end-to-end
	// scenario's object count is unaffected.
	OptXMPMetadata Option = "xmp-metadata"
)

// config holds every tunable from the options table in §6, always in
// inches / points internally.
type config struct {
	fileRequire FileRequire

	pageWidthIn, pageLengthIn float64
	topMarginIn               float64
	bottomMarginIn            float64
	sideMarginIn              float64

	cpi float64
	lpi int
	cols int

	tofOffset       int // 0 means "use the default (top margin * lpi)"
	lineNumberWidth float64
	barHeight       float64

	formType  FormType
	formImage string

	textFont   Name
	numberFont Name
	labelFont  Name

	title string
	noLZW bool

	xmpMetadata bool
}

func defaultConfig() config {
	return config{
		fileRequire:     FileNew,
		pageWidthIn:     14.875,
		pageLengthIn:    11.000,
		topMarginIn:     1.000,
		bottomMarginIn:  0.500,
		sideMarginIn:    0.470,
		cpi:             10,
		lpi:             6,
		cols:            132,
		lineNumberWidth: 0.100,
		barHeight:       0.500,
		formType:        FormGreenbar,
		textFont:        "Courier",
		numberFont:      "Times-Roman",
		labelFont:       "Times-Bold",
		title:           "Lineprinter data",
	}
}

// tof returns the effective top-of-form offset.
func (c *config) tof() int {
	if c.tofOffset > 0 {
		return c.tofOffset
	}
	return int(c.topMarginIn * float64(c.lpi))
}

// lpp returns lines per page.
func (c *config) lpp() int {
	return int(c.pageLengthIn * float64(c.lpi))
}

// core14 lists the 14 standard PDF fonts by name, as returned by
// GetFontList.
var core14 = []Name{
	"Courier", "Courier-Bold", "Courier-Oblique", "Courier-BoldOblique",
	"Helvetica", "Helvetica-Bold", "Helvetica-Oblique", "Helvetica-BoldOblique",
	"Times-Roman", "Times-Bold", "Times-Italic", "Times-BoldItalic",
	"Symbol", "ZapfDingbats",
}

// GetFontList enumerates the 14 standard PDF fonts this engine can
// reference by name.
func GetFontList() []Name {
	out := make([]Name, len(core14))
	copy(out, core14)
	return out
}

func isCore14(name Name) bool {
	for _, f := range core14 {
		if f == name {
			return true
		}
	}
	return false
}

// Set configures a single option on ctx. It fails with ErrActive if any
// output has already been produced in this session.
func (ctx *Context) Set(opt Option, value any) error {
	if ctx.err != nil {
		return ctx.err
	}
	if ctx.active {
		return ctx.setErr(ErrActive, nil)
	}

	switch opt {
	case OptFileRequire:
		v, ok := value.(FileRequire)
		if !ok {
			return ctx.setErr(ErrBadSet, nil)
		}
		ctx.cfg.fileRequire = v

	case OptPageWidth:
		v, err := parseLength(value)
		if err != nil {
			return ctx.setErr(ErrInvalid, err)
		}
		ctx.cfg.pageWidthIn = v
	case OptPageLength:
		v, err := parseLength(value)
		if err != nil {
			return ctx.setErr(ErrInvalid, err)
		}
		ctx.cfg.pageLengthIn = v
	case OptTopMargin:
		v, err := parseLength(value)
		if err != nil {
			return ctx.setErr(ErrInvalid, err)
		}
		ctx.cfg.topMarginIn = v
	case OptBottomMargin:
		v, err := parseLength(value)
		if err != nil {
			return ctx.setErr(ErrInvalid, err)
		}
		ctx.cfg.bottomMarginIn = v
	case OptSideMargin:
		v, err := parseLength(value)
		if err != nil {
			return ctx.setErr(ErrInvalid, err)
		}
		ctx.cfg.sideMarginIn = v

	case OptCPI:
		v, err := parseFloat(value)
		if err != nil || v <= 0 {
			return ctx.setErr(ErrInvalid, err)
		}
		ctx.cfg.cpi = v
	case OptLPI:
		v, err := parseInt(value)
		if err != nil || (v != 6 && v != 8) {
			return ctx.setErr(ErrInvalid, fmt.Errorf("lpi must be 6 or 8"))
		}
		ctx.cfg.lpi = v
	case OptCols:
		v, err := parseInt(value)
		if err != nil || v <= 0 {
			return ctx.setErr(ErrNegativeValue, err)
		}
		ctx.cfg.cols = v
	case OptTOFOffset:
		v, err := parseInt(value)
		if err != nil || v < 0 {
			return ctx.setErr(ErrNegativeValue, err)
		}
		ctx.cfg.tofOffset = v
	case OptLineNumberWidth:
		v, err := parseLength(value)
		if err != nil || v < 0 {
			return ctx.setErr(ErrNegativeValue, err)
		}
		ctx.cfg.lineNumberWidth = v
	case OptBarHeight:
		v, err := parseLength(value)
		if err != nil || v < 0 {
			return ctx.setErr(ErrNegativeValue, err)
		}
		ctx.cfg.barHeight = v

	case OptFormType:
		v, ok := asString(value)
		if !ok {
			return ctx.setErr(ErrBadSet, nil)
		}
		ft := FormType(strings.ToUpper(v))
		valid := false
		for _, f := range GetFormList() {
			if f == ft {
				valid = true
			}
		}
		if !valid {
			return ctx.setErr(ErrUnknownForm, nil)
		}
		ctx.cfg.formType = ft
	case OptFormImage:
		v, ok := asString(value)
		if !ok {
			return ctx.setErr(ErrBadSet, nil)
		}
		ctx.cfg.formImage = v

	case OptTextFont:
		name, err := parseFontName(value)
		if err != nil {
			return ctx.setErr(ErrUnknownFont, err)
		}
		ctx.cfg.textFont = name
	case OptNumberFont:
		name, err := parseFontName(value)
		if err != nil {
			return ctx.setErr(ErrUnknownFont, err)
		}
		ctx.cfg.numberFont = name
	case OptLabelFont:
		name, err := parseFontName(value)
		if err != nil {
			return ctx.setErr(ErrUnknownFont, err)
		}
		ctx.cfg.labelFont = name

	case OptTitle:
		v, ok := asString(value)
		if !ok {
			return ctx.setErr(ErrBadSet, nil)
		}
		ctx.cfg.title = v
	case OptNoLZW:
		v, ok := value.(bool)
		if !ok {
			return ctx.setErr(ErrBadSet, nil)
		}
		ctx.cfg.noLZW = v
	case OptXMPMetadata:
		v, ok := value.(bool)
		if !ok {
			return ctx.setErr(ErrBadSet, nil)
		}
		ctx.cfg.xmpMetadata = v

	default:
		return ctx.setErr(ErrBadSet, fmt.Errorf("unknown option %q", opt))
	}

	return nil
}

func parseFontName(value any) (Name, error) {
	s, ok := asString(value)
	if !ok {
		return "", fmt.Errorf("font name must be a string")
	}
	name := Name(s)
	if !isCore14(name) {
		return "", fmt.Errorf("not one of the 14 standard fonts: %q", s)
	}
	return name, nil
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case Name:
		return string(v), true
	case FormType:
		return string(v), true
	default:
		return "", false
	}
}

func parseInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

func parseFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

// parseLength accepts a bare number (inches) or a string with a unit
// suffix ("in", "cm", "mm"), and returns the value converted to inches.
func parseLength(value any) (float64, error) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		unit := "in"
		for _, u := range []string{"in", "cm", "mm"} {
			if strings.HasSuffix(s, u) {
				unit = u
				s = strings.TrimSuffix(s, u)
				break
			}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, err
		}
		switch unit {
		case "cm":
			return v / 2.54, nil
		case "mm":
			return v / 25.4, nil
		default:
			return v, nil
		}
	}
	return parseFloat(value)
}
