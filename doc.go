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

// Package pdf renders ASCII lineprinter output into PDF files that
// emulate continuous-feed tractor-feed stationery.
//
// A session is represented by a [Context]:
//
//	ctx, err := pdf.Open("out.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx.Set(pdf.OptFormType, "GREENBAR")
//	ctx.Print([]byte("HELLO, WORLD\n"))
//	err = ctx.Close()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Each page is built from a static form background (sprocket holes, bar
// bands, optional line-number columns) produced by the form renderer, and
// an overlaid text block produced by the page layout buffer.  Content
// streams are optionally compressed with the package's own LZWDecode
// encoder, found in the lzw subpackage.
package pdf
