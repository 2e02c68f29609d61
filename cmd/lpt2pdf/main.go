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

// Command lpt2pdf renders ASCII lineprinter output into a PDF file that
// emulates continuous-feed tractor-feed stationery.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"seehuhn.de/go/lpt2pdf"
)

const usage = `Usage: lpt2pdf [flags] [input...] output.pdf

Each input is read in order and submitted to the same session; "-" reads
stdin. With no inputs, stdin is read. The output path must end in ".pdf";
it cannot be "-" since the engine seeks within the file while writing.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("lpt2pdf", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}

	fileRequire := fs.String("file-require", "new", "new, append, or replace")
	pageWidth := fs.String("page-width", "", "sheet width, e.g. 14.875in")
	pageLength := fs.String("page-length", "", "sheet length, e.g. 11in")
	topMargin := fs.String("top-margin", "", "top margin")
	bottomMargin := fs.String("bottom-margin", "", "bottom margin")
	sideMargin := fs.String("side-margin", "", "side margin")
	cpi := fs.Float64("cpi", 0, "characters per inch")
	lpi := fs.Int("lpi", 0, "lines per inch, 6 or 8")
	cols := fs.Int("cols", 0, "text columns, for centering")
	tofOffset := fs.Int("tof-offset", 0, "logical line a form-feed advances to")
	lineNumberWidth := fs.String("line-number-width", "", "line-number column width, 0 to omit")
	barHeight := fs.String("bar-height", "", "bar band height")
	formType := fs.String("form-type", "", "PLAIN, GREENBAR, BLUEBAR, GRAYBAR, or YELLOWBAR")
	formImage := fs.String("form-image", "", "JPEG background image path")
	textFont := fs.String("text-font", "", "core-14 font for body text")
	numberFont := fs.String("number-font", "", "core-14 font for line numbers")
	labelFont := fs.String("label-font", "", "core-14 font for line-number labels")
	title := fs.String("title", "", "embedded PDF title")
	noLZW := fs.Bool("no-lzw", false, "disable LZW compression of content streams")
	xmpMetadata := fs.Bool("xmp-metadata", false, "embed a Dublin Core XMP metadata stream")

	if err := fs.Parse(args); err != nil {
		return 3
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 3
	}

	outputPath := rest[len(rest)-1]
	inputs := rest[:len(rest)-1]
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}
	if outputPath == "-" {
		fmt.Fprintln(os.Stderr, "lpt2pdf: output cannot be \"-\"")
		return 3
	}

	ctx, err := pdf.Open(outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lpt2pdf: %v\n", err)
		return 2
	}

	type stringOpt struct {
		opt pdf.Option
		val string
	}
	for _, so := range []stringOpt{
		{pdf.OptPageWidth, *pageWidth},
		{pdf.OptPageLength, *pageLength},
		{pdf.OptTopMargin, *topMargin},
		{pdf.OptBottomMargin, *bottomMargin},
		{pdf.OptSideMargin, *sideMargin},
		{pdf.OptLineNumberWidth, *lineNumberWidth},
		{pdf.OptBarHeight, *barHeight},
		{pdf.OptFormType, *formType},
		{pdf.OptFormImage, *formImage},
		{pdf.OptTextFont, *textFont},
		{pdf.OptNumberFont, *numberFont},
		{pdf.OptLabelFont, *labelFont},
		{pdf.OptTitle, *title},
	} {
		if so.val == "" {
			continue
		}
		if err := ctx.Set(so.opt, so.val); err != nil {
			ctx.Perror("lpt2pdf")
			return 3
		}
	}
	switch *fileRequire {
	case "append":
		ctx.Set(pdf.OptFileRequire, pdf.FileAppend)
	case "replace":
		ctx.Set(pdf.OptFileRequire, pdf.FileReplace)
	default:
		ctx.Set(pdf.OptFileRequire, pdf.FileNew)
	}
	if *cpi != 0 {
		ctx.Set(pdf.OptCPI, *cpi)
	}
	if *lpi != 0 {
		ctx.Set(pdf.OptLPI, *lpi)
	}
	if *cols != 0 {
		ctx.Set(pdf.OptCols, *cols)
	}
	if *tofOffset != 0 {
		ctx.Set(pdf.OptTOFOffset, *tofOffset)
	}
	if *noLZW {
		ctx.Set(pdf.OptNoLZW, true)
	}
	if *xmpMetadata {
		ctx.Set(pdf.OptXMPMetadata, true)
	}
	if ctx.Err() != nil {
		ctx.Perror("lpt2pdf")
		return 3
	}

	for _, path := range inputs {
		var r io.Reader
		if path == "-" {
			r = os.Stdin
		} else {
			f, err := os.Open(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "lpt2pdf: %v\n", err)
				return 1
			}
			defer f.Close()
			r = f
		}
		data, err := io.ReadAll(r)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lpt2pdf: %v\n", err)
			return 1
		}
		if err := ctx.Print(data); err != nil {
			ctx.Perror("lpt2pdf")
			return 4
		}
	}

	if err := ctx.Close(); err != nil {
		ctx.Perror("lpt2pdf")
		return 4
	}
	return 0
}
