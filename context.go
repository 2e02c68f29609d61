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
	"crypto/sha1"
	"fmt"
	"hash"
	"io"
	"math"
	"os"
	"strings"

	"seehuhn.de/go/lpt2pdf/lzw"
)

// lzwCompress runs content through the package's PDF-flavoured LZW
// encoder (EarlyChange=0) and returns the compressed bytes.
func lzwCompress(content []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	w, err := lzw.NewWriter(buf, false)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pageRecord is what the context remembers about a page once its content
// stream has been written, so that the Page dictionary (deferred to close)
// can be assembled later.
type pageRecord struct {
	contentRef Reference
	dictNum    int
}

// Context is a single lineprinter-to-PDF session, as described in §3. It
// is not safe for concurrent use.
type Context struct {
	cfg    config
	err    error
	active bool // true once output has been produced; freezes cfg

	path    string
	f       *os.File
	started bool // header (or append seam) has been resolved

	xref *xRefTable
	ow   *objectWriter

	fingerprint     hash.Hash // sha1, accumulates every raw input byte
	permanentID0    String    // the file's /ID first element, fixed forever
	permanentCreate String    // the file's /CreationDate, fixed forever

	seam *appendSeam // set if opened/resumed in append mode

	cp           *controlParser
	pageBuf      *pageBuffer
	sessionPages []pageRecord

	formCache    []byte
	fontDictNum  int
	jpegBG       *jpegBackground
	jpegXObjNum  int
	jpegResource Name
}

// Open creates or opens path for a lineprinter-to-PDF session. The file
// itself is not touched until the first [Context.Print] or
// [Context.Close] call, which resolves the file-require policy set via
// [Context.Set].
func Open(path string) (*Context, error) {
	if !strings.HasSuffix(path, ".pdf") {
		return nil, newError(ErrBadFilename, nil)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, newError(ErrIO, err)
	}
	return &Context{
		cfg:          defaultConfig(),
		path:         path,
		f:            f,
		fingerprint:  sha1.New(),
		jpegResource: "Im1",
	}, nil
}

// File reports whether the file at path begins with a recognizable PDF
// header line, "%PDF-1.<digit>".
func File(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, newError(ErrIO, err)
	}
	defer f.Close()
	buf := make([]byte, 16)
	n, _ := f.Read(buf)
	buf = buf[:n]
	if !bytes.HasPrefix(buf, []byte("%PDF-1.")) {
		return false, nil
	}
	rest := buf[len("%PDF-1."):]
	return len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9', nil
}

// ensureStarted resolves the file-require policy and writes the PDF
// header (new/replace) or reads the append seam (append), exactly once.
// Configuration errors detected here leave the file untouched, i.e. still
// zero bytes for a freshly created path.
func (ctx *Context) ensureStarted() error {
	if ctx.err != nil {
		return ctx.err
	}
	if ctx.started {
		return nil
	}

	if err := ctx.validateGeometry(); err != nil {
		return err
	}
	if ctx.cfg.formImage != "" {
		data, err := os.ReadFile(ctx.cfg.formImage)
		if err != nil {
			return ctx.setErr(ErrBadJPEG, err)
		}
		bg, err := loadJPEGBackground(data)
		if err != nil {
			return ctx.setErr(ErrBadJPEG, err)
		}
		ctx.jpegBG = bg
	}

	switch ctx.cfg.fileRequire {
	case FileReplace:
		if err := ctx.f.Truncate(0); err != nil {
			return ctx.setErr(ErrIO, err)
		}
		if _, err := ctx.f.Seek(0, io.SeekStart); err != nil {
			return ctx.setErr(ErrIO, err)
		}
		ctx.xref = newXRefTable()
		ctx.ow = newObjectWriter(ctx.f, ctx.xref, 1, 0)
		if err := ctx.writeHeader(); err != nil {
			return ctx.setErr(ErrIO, err)
		}

	case FileAppend:
		size, err := ctx.f.Seek(0, io.SeekEnd)
		if err != nil {
			return ctx.setErr(ErrIO, err)
		}
		if size == 0 {
			return ctx.setErr(ErrNoAppend, fmt.Errorf("file is empty"))
		}
		seam, err := readAppendSeam(ctx.f)
		if err != nil {
			return ctx.setErr(ErrNoAppend, err)
		}
		ctx.seam = seam
		ctx.permanentID0 = seam.id0
		ctx.permanentCreate = seam.creationDate
		ctx.xref = seam.xref
		if _, err := ctx.f.Seek(0, io.SeekEnd); err != nil {
			return ctx.setErr(ErrIO, err)
		}
		ctx.ow = newObjectWriter(ctx.f, ctx.xref, seam.nextNum, size)

	default: // FileNew
		size, err := ctx.f.Seek(0, io.SeekEnd)
		if err != nil {
			return ctx.setErr(ErrIO, err)
		}
		if size != 0 {
			return ctx.setErr(ErrNotEmpty, nil)
		}
		ctx.xref = newXRefTable()
		ctx.ow = newObjectWriter(ctx.f, ctx.xref, 1, 0)
		if err := ctx.writeHeader(); err != nil {
			return ctx.setErr(ErrIO, err)
		}
	}

	if ctx.jpegBG != nil {
		n, err := ctx.ow.emit(&Stream{
			Dict: Dict{
				"Type":      Name("XObject"),
				"Subtype":   Name("Image"),
				"Width":     Integer(ctx.jpegBG.width),
				"Height":    Integer(ctx.jpegBG.height),
				"ColorSpace": Name("DeviceRGB"),
				"BitsPerComponent": Integer(8),
				"Filter":    Name("DCTDecode"),
				"Length":    Integer(len(ctx.jpegBG.data)),
			},
			Data: ctx.jpegBG.data,
		})
		if err != nil {
			return ctx.setErr(ErrIO, err)
		}
		ctx.jpegXObjNum = n
	}

	ctx.started = true
	return nil
}

func (ctx *Context) writeHeader() error {
	if err := ctx.ow.write([]byte("%PDF-1.4\n")); err != nil {
		return err
	}
	return ctx.ow.write([]byte{'%', 0xe2, 0xe3, 0xcf, 0xd3, '\n'})
}

func (ctx *Context) validateGeometry() error {
	c := &ctx.cfg
	if c.topMarginIn+c.bottomMarginIn >= c.pageLengthIn {
		return ctx.setErr(ErrInconsistentGeometry, fmt.Errorf("margins exceed page length"))
	}
	if 2*c.sideMarginIn >= c.pageWidthIn {
		return ctx.setErr(ErrInconsistentGeometry, fmt.Errorf("margins exceed page width"))
	}
	if c.formType != FormPlain && c.barHeight < 1/float64(c.lpi) {
		return ctx.setErr(ErrInconsistentGeometry, fmt.Errorf("bar-height must be at least 1/lpi for bar forms"))
	}
	return nil
}

// Print submits lineprinter data for rendering.
func (ctx *Context) Print(data []byte) error {
	if ctx.err != nil {
		return ctx.err
	}
	if err := ctx.ensureStarted(); err != nil {
		return err
	}
	ctx.active = true

	if ctx.pageBuf == nil {
		ctx.pageBuf = ctx.newSessionPageBuffer()
	}
	if ctx.cp == nil {
		ctx.cp = newControlParser(ctx.fingerprint, ctx.handleEvent)
	}
	ctx.cp.Write(data)
	return ctx.err
}

func (ctx *Context) newSessionPageBuffer() *pageBuffer {
	lpi := ctx.cfg.lpi
	return newPageBuffer(lpi, ctx.cfg.lpp(), ctx.cfg.tof())
}

func (ctx *Context) handleEvent(ev event) {
	if ctx.err != nil {
		return
	}
	pb := ctx.pageBuf
	switch ev.kind {
	case evChar:
		if pb.char(ev.char) {
			ctx.flushPage(false)
			ctx.pageBuf.char(ev.char)
		}
	case evLF:
		if pb.lineFeed() {
			ctx.flushPage(false)
		}
	case evFF:
		ctx.flushPage(true)
	case evCR:
		pb.carriageReturn()
	case evLPIChange:
		pb.setLPI(ev.lpi)
	}
}

// flushPage finalizes the current page buffer into a content-stream
// object (compressing it if that helps) and starts a fresh buffer for
// the next page. If the buffer has no content and the flush was not
// forced by an explicit form feed, no page is emitted.
func (ctx *Context) flushPage(force bool) {
	if ctx.err != nil {
		return
	}
	pb := ctx.pageBuf
	if pb == nil {
		return
	}
	if pb.maxUsed == 0 && !force {
		ctx.pageBuf = pb.startNewPage()
		return
	}

	content := ctx.renderPageContent(pb)
	stream, err := ctx.compressContent(content)
	if err != nil {
		ctx.setErr(ErrIO, err)
		return
	}

	contentNum, err := ctx.ow.emit(stream)
	if err != nil {
		ctx.setErr(ErrIO, err)
		return
	}
	dictNum := ctx.ow.reserveNumber()
	ctx.sessionPages = append(ctx.sessionPages, pageRecord{
		contentRef: Reference{Number: contentNum},
		dictNum:    dictNum,
	})

	ctx.pageBuf = pb.startNewPage()
}

func (ctx *Context) renderPageContent(pb *pageBuffer) []byte {
	if ctx.formCache == nil {
		ctx.formCache = ctx.buildForm()
	}
	text := renderTextBlock(pb.renderedLines(), pb.renderedLPI(), ctx.pageTextLayout(pb))
	buf := make([]byte, 0, len(ctx.formCache)+len(text))
	buf = append(buf, ctx.formCache...)
	buf = append(buf, text...)
	return buf
}

func (ctx *Context) buildForm() []byte {
	c := &ctx.cfg
	geo := formGeometry{
		pageWidthPt:        c.pageWidthIn * ptPerInch,
		pageHeightPt:       c.pageLengthIn * ptPerInch,
		topMarginPt:        c.topMarginIn * ptPerInch,
		bottomMarginPt:     c.bottomMarginIn * ptPerInch,
		sideMarginPt:       c.sideMarginIn * ptPerInch,
		lpi:                float64(c.lpi),
		cpi:                c.cpi,
		cols:               c.cols,
		lineNumberWidthPt:  c.lineNumberWidth * ptPerInch,
		barHeightPt:        c.barHeight * ptPerInch,
		formType:           c.formType,
		jpeg:               ctx.jpegBG,
	}
	fr := newFormRenderer(geo)
	imgName := Name("")
	if ctx.jpegBG != nil {
		imgName = ctx.jpegResource
	}
	return fr.build(imgName)
}

func (ctx *Context) pageTextLayout(pb *pageBuffer) textLayout {
	c := &ctx.cfg
	pageWidthPt := c.pageWidthIn * ptPerInch
	pageHeightPt := c.pageLengthIn * ptPerInch
	printableWidth := pageWidthPt - 2*c.sideMarginIn*ptPerInch
	textWidth := float64(c.cols) / c.cpi * ptPerInch
	leftMargin := c.sideMarginIn*ptPerInch + math.Max(0, (printableWidth-textWidth)/2)

	return textLayout{
		fontName:   Name("Ftext"),
		size:       ptPerInch / float64(pb.lpi),
		leftMargin: leftMargin,
		top:        pageHeightPt,
		blackRGB:   [3]float64{0, 0, 0},
	}
}

func (ctx *Context) compressContent(content []byte) (*Stream, error) {
	if !ctx.cfg.noLZW {
		compressed, err := lzwCompress(content)
		if err != nil {
			return nil, err
		}
		if len(compressed) < len(content) {
			return &Stream{
				Dict: Dict{
					"Length":      Integer(len(compressed)),
					"Filter":      Name("LZWDecode"),
					"DecodeParms": Dict{"EarlyChange": Integer(0)},
				},
				Data: compressed,
			}, nil
		}
	}
	return &Stream{
		Dict: Dict{"Length": Integer(len(content))},
		Data: content,
	}, nil
}

// Where returns the 1-based page and in-page line of the context's
// current write position, counting previous sessions' pages.
func (ctx *Context) Where() (page, line int) {
	prevCount := 0
	if ctx.seam != nil {
		prevCount = ctx.seam.prevPageCount
	}
	page = prevCount + len(ctx.sessionPages) + 1

	if ctx.pageBuf == nil {
		return page, 0
	}
	cur := ctx.pageBuf.currentLine
	tof := ctx.pageBuf.tof
	if cur > tof {
		line = cur - tof
	} else {
		line = cur
	}
	return page, line
}
