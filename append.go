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
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

// Close finalizes the session: it emits this session's Pages leaf, font
// dictionary, Page objects, a new top-level Pages anchor, a new Catalog
// and Info object, the xref table and the trailer, then releases the
// file handle.
func (ctx *Context) Close() error {
	if ctx.err != nil {
		ctx.f.Close()
		return ctx.err
	}
	if !ctx.started {
		// Nothing was ever printed; still produce a minimal, valid,
		// empty document rather than leaving a stub file behind.
		if err := ctx.ensureStarted(); err != nil {
			ctx.f.Close()
			return err
		}
	}
	ctx.flushPage(false)
	if ctx.err != nil {
		ctx.f.Close()
		return ctx.err
	}

	if err := ctx.writeTrailer(true); err != nil {
		ctx.f.Close()
		return err
	}
	if err := ctx.f.Truncate(ctx.ow.pos()); err != nil {
		ctx.f.Close()
		return ctx.setErr(ErrIO, err)
	}
	return ctx.f.Close()
}

// Checkpoint writes a complete, valid trailer without closing the
// context: the on-disk file is a standalone PDF at every return from
// Checkpoint, and the next Print call resumes as though the file had
// just been opened for append.
func (ctx *Context) Checkpoint() error {
	if ctx.err != nil {
		return ctx.err
	}
	if !ctx.started {
		return ctx.setErr(ErrNotProduced, nil)
	}
	ctx.flushPage(false)
	if ctx.err != nil {
		return ctx.err
	}
	if err := ctx.writeTrailer(false); err != nil {
		return err
	}
	return nil
}

// Snapshot checkpoints the session, then copies the file's current bytes
// to a new path.
func (ctx *Context) Snapshot(path string) error {
	if err := ctx.Checkpoint(); err != nil {
		return err
	}
	if _, err := ctx.f.Seek(0, io.SeekStart); err != nil {
		return ctx.setErr(ErrIO, err)
	}
	out, err := os.Create(path)
	if err != nil {
		return ctx.setErr(ErrIO, err)
	}
	_, err = io.Copy(out, ctx.f)
	closeErr := out.Close()
	if _, seekErr := ctx.f.Seek(0, io.SeekEnd); seekErr != nil && err == nil {
		err = seekErr
	}
	if err != nil {
		return ctx.setErr(ErrIO, err)
	}
	if closeErr != nil {
		return ctx.setErr(ErrOtherIO, closeErr)
	}
	return nil
}

// writeTrailer assembles and writes this session's Pages leaf, font
// dictionary, Page objects, anchor, Catalog, Info, xref and trailer. If
// final is false (checkpoint), the in-memory state is left ready to
// resume as a fresh append leg: the just-written anchor becomes the seam
// for whatever comes next.
func (ctx *Context) writeTrailer(final bool) error {
	sessionCount := len(ctx.sessionPages)
	prevCount := 0
	var prevAnchor Reference
	havePrevAnchor := false
	if ctx.seam != nil {
		prevCount = ctx.seam.prevPageCount
		prevAnchor = Reference{Number: ctx.seam.pagesAnchor}
		havePrevAnchor = true
	}

	var leafNum int
	if sessionCount > 0 {
		leafNum = ctx.ow.reserveNumber()
	}
	fontDictNum := ctx.ow.reserveNumber()
	anchorNumPlanned := ctx.ow.reserveNumber() // reserved now so the leaf's /Parent can reference it
	catalogNum := ctx.ow.reserveNumber()
	infoNum := ctx.ow.reserveNumber()

	if sessionCount > 0 {
		kids := make(Array, sessionCount)
		for i, pr := range ctx.sessionPages {
			kids[i] = Reference{Number: pr.dictNum}
		}
		leaf := Dict{
			"Type":   Name("Pages"),
			"Kids":   kids,
			"Count":  Integer(sessionCount),
			"Parent": Reference{Number: anchorNumPlanned},
		}
		if err := ctx.ow.emitReserved(leafNum, leaf); err != nil {
			return ctx.setErr(ErrIO, err)
		}
	}

	fontDict := ctx.buildFontDict()
	if err := ctx.ow.emitReserved(fontDictNum, fontDict); err != nil {
		return ctx.setErr(ErrIO, err)
	}

	resources := ctx.buildResources(fontDictNum)
	pageWidthPt := ctx.cfg.pageWidthIn * ptPerInch
	pageHeightPt := ctx.cfg.pageLengthIn * ptPerInch
	for _, pr := range ctx.sessionPages {
		page := Dict{
			"Type":      Name("Page"),
			"Parent":    Reference{Number: leafNum},
			"MediaBox":  Array{Real(0), Real(0), Real(pageWidthPt), Real(pageHeightPt)},
			"Contents":  pr.contentRef,
			"Resources": resources,
		}
		if err := ctx.ow.emitReserved(pr.dictNum, page); err != nil {
			return ctx.setErr(ErrIO, err)
		}
	}

	var kids []Reference
	if havePrevAnchor {
		kids = append(kids, prevAnchor)
	}
	if sessionCount > 0 {
		kids = append(kids, Reference{Number: leafNum})
	}
	totalCount := prevCount + sessionCount
	anchorNum, placeholderOffset, err := ctx.writeAnchorAt(anchorNumPlanned, kids, totalCount)
	if err != nil {
		return ctx.setErr(ErrIO, err)
	}

	if havePrevAnchor && ctx.seam.parentPlaceholderOffset > 0 {
		patch := []byte(fmt.Sprintf("%010d", anchorNum))
		if _, err := ctx.f.WriteAt(patch, ctx.seam.parentPlaceholderOffset); err != nil {
			return ctx.setErr(ErrIO, err)
		}
	}

	digest := ctx.fingerprint.Sum(nil)
	freshID := String(hex.EncodeToString(digest))
	if len(ctx.permanentID0) == 0 {
		ctx.permanentID0 = freshID
	}
	now := time.Now()
	if len(ctx.permanentCreate) == 0 {
		ctx.permanentCreate = Date(now)
	}

	catalog := Dict{"Type": Name("Catalog"), "Pages": Reference{Number: anchorNum}}
	if ctx.cfg.xmpMetadata {
		metadataXML, err := ctx.buildMetadataPacket()
		if err != nil {
			return ctx.setErr(ErrIO, err)
		}
		metadataNum, err := ctx.ow.emit(&Stream{
			Dict: Dict{
				"Type":    Name("Metadata"),
				"Subtype": Name("XML"),
				"Length":  Integer(len(metadataXML)),
			},
			Data: metadataXML,
		})
		if err != nil {
			return ctx.setErr(ErrIO, err)
		}
		catalog["Metadata"] = Reference{Number: metadataNum}
	}
	if err := ctx.ow.emitReserved(catalogNum, catalog); err != nil {
		return ctx.setErr(ErrIO, err)
	}

	info := Dict{
		"Title":        String(ctx.cfg.title),
		"Producer":     String("LPTPDF lineprinter rendering engine"),
		"CreationDate": ctx.permanentCreate,
		"ModDate":      Date(now),
	}
	if err := ctx.ow.emitReserved(infoNum, info); err != nil {
		return ctx.setErr(ErrIO, err)
	}

	xrefOffset, err := ctx.ow.writeXref()
	if err != nil {
		return ctx.setErr(ErrIO, err)
	}

	trailer := Dict{
		"Root": Reference{Number: catalogNum},
		"Size": Integer(ctx.xref.size()),
		"Info": Reference{Number: infoNum},
		"ID":   Array{ctx.permanentID0, freshID},
	}
	if err := ctx.ow.write([]byte("trailer\n")); err != nil {
		return ctx.setErr(ErrIO, err)
	}
	if err := trailer.PDF(ctx.ow.w); err != nil {
		return ctx.setErr(ErrIO, err)
	}
	if err := ctx.ow.write([]byte(fmt.Sprintf("\nstartxref\n%d\n%%%%EOF\n", xrefOffset))); err != nil {
		return ctx.setErr(ErrIO, err)
	}

	if !final {
		ctx.seam = &appendSeam{
			xref:                    ctx.xref,
			nextNum:                 ctx.ow.nextNum,
			id0:                     ctx.permanentID0,
			creationDate:            ctx.permanentCreate,
			rootNum:                 catalogNum,
			pagesAnchor:             anchorNum,
			prevPageCount:           totalCount,
			parentPlaceholderOffset: placeholderOffset,
		}
		ctx.sessionPages = nil
		ctx.pageBuf = nil
		// ctx.cp is deliberately left alone: a checkpoint only flushes the
		// file, it does not restart the input stream, so the control
		// parser's mid-sequence state and its "first form feed already
		// seen" bookkeeping must survive into the resumed session exactly
		// as lpt2pdf.c's ffseen/initial guards do across a checkpoint.
	}

	return nil
}

func (ctx *Context) buildFontDict() Dict {
	mkFont := func(base Name) Dict {
		return Dict{"Type": Name("Font"), "Subtype": Name("Type1"), "BaseFont": base}
	}
	return Dict{
		"Ftext": mkFont(ctx.cfg.textFont),
		"Fnum":  mkFont(ctx.cfg.numberFont),
		"Flbl":  mkFont(ctx.cfg.labelFont),
	}
}

func (ctx *Context) buildResources(fontDictNum int) Dict {
	res := Dict{"Font": Reference{Number: fontDictNum}}
	if ctx.jpegXObjNum != 0 {
		res["XObject"] = Dict{ctx.jpegResource: Reference{Number: ctx.jpegXObjNum}}
	}
	return res
}

// writeAnchorAt writes the session's top-level Pages anchor into the
// already-reserved object number n, leaving a fixed-width 10-digit
// placeholder where its own /Parent reference would go: the reference to
// object 0 (the permanently free list head) that this yields if never
// patched is well defined by the PDF spec as the null object, meaning
// "this is the root of the page tree" until a later append supersedes it.
func (ctx *Context) writeAnchorAt(n int, kids []Reference, count int) (num int, placeholderOffset int64, err error) {
	if err = ctx.ow.beginReserved(n); err != nil {
		return
	}
	if err = ctx.ow.write([]byte("<<\n/Type /Pages\n/Kids [")); err != nil {
		return
	}
	for i, k := range kids {
		if i > 0 {
			if err = ctx.ow.write([]byte(" ")); err != nil {
				return
			}
		}
		if err = ctx.ow.write([]byte(Format(k))); err != nil {
			return
		}
	}
	if err = ctx.ow.write([]byte(fmt.Sprintf("]\n/Count %d\n/Parent ", count))); err != nil {
		return
	}
	placeholderOffset = ctx.ow.pos()
	if err = ctx.ow.write([]byte("0000000000 0 R\n>>")); err != nil {
		return
	}
	if err = ctx.ow.endObject(); err != nil {
		return
	}
	return n, placeholderOffset, nil
}
