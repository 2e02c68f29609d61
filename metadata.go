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

	"golang.org/x/text/language"
	"seehuhn.de/go/xmp"
)

// buildMetadataPacket renders the session's title and producer as an XMP
// packet using the Dublin Core schema, duplicating what /Info already
// carries for XMP-aware readers that prefer the metadata stream over the
// document information dictionary.
func (ctx *Context) buildMetadataPacket() ([]byte, error) {
	packet := xmp.NewPacket()
	dc := &xmp.DublinCore{}
	dc.Title.Set(language.Und, ctx.cfg.title)
	dc.Creator.Append(xmp.NewProperName("LPTPDF lineprinter rendering engine"))
	if err := packet.Set(dc); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := packet.Write(buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
