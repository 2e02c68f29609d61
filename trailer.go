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
	"io"
	"strconv"
)

// appendSeam carries the state this engine needs to resume writing onto a
// PDF file that it produced in a previous session.  It is the data model's
// "trailer carry-over".
type appendSeam struct {
	xref          *xRefTable
	nextNum       int // one past the highest object number seen
	id0           String
	creationDate  String
	rootNum       int // previous /Catalog object number
	pagesAnchor   int // previous top-level /Pages anchor object number
	prevPageCount int

	// parentPlaceholderOffset is the absolute file offset of the 10-digit
	// "/Parent " placeholder reserved inside the previous anchor object,
	// so that a later close can backpatch it once this session's anchor
	// number is known.  Zero if the previous anchor carried no such
	// placeholder (should not happen for files this engine wrote).
	parentPlaceholderOffset int64
}

// readAppendSeam scans f backwards from EOF for this engine's trailer,
// rebuilds the in-memory cross-reference table, and extracts everything
// needed to append further pages.  f must be a file written by this
// engine; general PDF files are rejected with ErrNotPDF.
func readAppendSeam(f io.ReadSeeker) (*appendSeam, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, newError(ErrIO, err)
	}
	if size == 0 {
		return nil, newError(ErrNotPDF, fmt.Errorf("empty file"))
	}

	tailLen := int64(2048)
	if tailLen > size {
		tailLen = size
	}
	tail := make([]byte, tailLen)
	if _, err := f.Seek(size-tailLen, io.SeekStart); err != nil {
		return nil, newError(ErrIO, err)
	}
	if _, err := io.ReadFull(f, tail); err != nil {
		return nil, newError(ErrIO, err)
	}

	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 || bytes.Index(tail, []byte("%%EOF")) < 0 {
		return nil, newError(ErrNotPDF, fmt.Errorf("no startxref/%%%%EOF marker found"))
	}
	rest := tail[idx+len("startxref"):]
	rest = bytes.TrimLeft(rest, "\r\n \t")
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil, newError(ErrNotPDF, fmt.Errorf("malformed startxref offset"))
	}
	xrefPos, err := strconv.ParseInt(string(rest[:end]), 10, 64)
	if err != nil {
		return nil, newError(ErrNotPDF, err)
	}

	if _, err := f.Seek(xrefPos, io.SeekStart); err != nil {
		return nil, newError(ErrNotPDF, err)
	}
	body := make([]byte, size-xrefPos)
	if _, err := io.ReadFull(f, body); err != nil {
		return nil, newError(ErrIO, err)
	}

	p := &trailerParser{buf: body}
	xref, nextNum, err := p.parseXRefSection()
	if err != nil {
		return nil, err
	}
	trailerDict, err := p.parseTrailer()
	if err != nil {
		return nil, err
	}

	rootRef, ok := trailerDict["Root"].(Reference)
	if !ok {
		return nil, newError(ErrNotPDF, fmt.Errorf("trailer has no /Root"))
	}
	infoRef, _ := trailerDict["Info"].(Reference)
	idArr, _ := trailerDict["ID"].(Array)
	var id0 String
	if len(idArr) > 0 {
		id0, _ = idArr[0].(String)
	}

	seam := &appendSeam{
		xref:    xref,
		nextNum: nextNum,
		id0:     id0,
		rootNum: rootRef.Number,
	}

	if infoRef.Number != 0 {
		infoDict, err := readIndirectDict(f, xref, infoRef.Number)
		if err != nil {
			return nil, err
		}
		producer, _ := infoDict["Producer"].(String)
		if !bytes.HasPrefix(producer, []byte("LPTPDF")) {
			return nil, newError(ErrNotPDF, fmt.Errorf("not produced by this engine"))
		}
		seam.creationDate, _ = infoDict["CreationDate"].(String)
	}

	rootDict, err := readIndirectDict(f, xref, rootRef.Number)
	if err != nil {
		return nil, err
	}
	pagesRef, ok := rootDict["Pages"].(Reference)
	if !ok {
		return nil, newError(ErrNotPDF, fmt.Errorf("catalog has no /Pages"))
	}
	if pagesRef.Number != rootRef.Number-1 {
		return nil, newError(ErrNotPDF, fmt.Errorf("/Pages anchor is not immediately before /Root"))
	}
	seam.pagesAnchor = pagesRef.Number

	pagesDict, err := readIndirectDict(f, xref, pagesRef.Number)
	if err != nil {
		return nil, err
	}
	if count, ok := pagesDict["Count"].(Integer); ok {
		seam.prevPageCount = int(count)
	}

	placeholder, err := findParentPlaceholder(f, xref, pagesRef.Number)
	if err != nil {
		return nil, err
	}
	seam.parentPlaceholderOffset = placeholder

	return seam, nil
}

// findParentPlaceholder locates the byte offset of the 10-digit object
// number inside the "/Parent 0000000000 0 R" placeholder that this engine
// always reserves when it writes a Pages anchor (see writeAnchorAt).
func findParentPlaceholder(f io.ReadSeeker, xref *xRefTable, n int) (int64, error) {
	if n <= 0 || n >= xref.size() {
		return 0, newError(ErrNotPDF, fmt.Errorf("object %d not in xref", n))
	}
	entry := xref.entries[n]
	if entry.Offset < 0 {
		return 0, newError(ErrNotPDF, fmt.Errorf("object %d has no offset", n))
	}
	if _, err := f.Seek(entry.Offset, io.SeekStart); err != nil {
		return 0, newError(ErrIO, err)
	}
	buf := make([]byte, 512)
	k, err := f.Read(buf)
	if err != nil && k == 0 {
		return 0, newError(ErrIO, err)
	}
	buf = buf[:k]

	marker := []byte("/Parent ")
	idx := bytes.Index(buf, marker)
	if idx < 0 {
		return 0, newError(ErrNotPDF, fmt.Errorf("anchor %d has no /Parent placeholder", n))
	}
	return entry.Offset + int64(idx+len(marker)), nil
}

// readIndirectDict seeks to the object's recorded offset and parses a
// "N 0 obj\n<<...>>\nendobj" frame, returning the dictionary.  It is only
// ever used to read back the small metadata objects (Catalog, Info, Pages
// node) this engine itself wrote, never arbitrary content streams.
func readIndirectDict(f io.ReadSeeker, xref *xRefTable, n int) (Dict, error) {
	if n <= 0 || n >= xref.size() {
		return nil, newError(ErrNotPDF, fmt.Errorf("object %d not in xref", n))
	}
	entry := xref.entries[n]
	if entry.Offset < 0 {
		return nil, newError(ErrNotPDF, fmt.Errorf("object %d has no offset", n))
	}
	if _, err := f.Seek(entry.Offset, io.SeekStart); err != nil {
		return nil, newError(ErrIO, err)
	}
	// Objects we need to re-read are always short metadata dictionaries;
	// a generous fixed window avoids having to locate "endobj" first.
	buf := make([]byte, 8192)
	k, err := f.Read(buf)
	if err != nil && k == 0 {
		return nil, newError(ErrIO, err)
	}
	buf = buf[:k]

	p := &trailerParser{buf: buf}
	p.skipObjHeader()
	obj, err := p.parseObject()
	if err != nil {
		return nil, newError(ErrNotPDF, err)
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, newError(ErrNotPDF, fmt.Errorf("object %d is not a dictionary", n))
	}
	return dict, nil
}

// trailerParser is a minimal recursive-descent parser for the tiny subset
// of PDF syntax this engine ever writes back out: dictionaries, arrays,
// names, numbers, literal strings, booleans, and indirect references. It
// never needs to understand streams, since none of the objects it re-reads
// (Catalog, Info, Pages nodes, xref/trailer) are streams.
type trailerParser struct {
	buf []byte
	pos int
}

func (p *trailerParser) skipWS() {
	for p.pos < len(p.buf) {
		c := p.buf[p.pos]
		switch c {
		case ' ', '\t', '\r', '\n', '\f', 0:
			p.pos++
		case '%':
			for p.pos < len(p.buf) && p.buf[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *trailerParser) skipObjHeader() {
	p.skipWS()
	for p.pos < len(p.buf) && p.buf[p.pos] != '\n' {
		p.pos++
	}
	p.pos++ // consume the newline after "N 0 obj"
}

func (p *trailerParser) peek() byte {
	if p.pos >= len(p.buf) {
		return 0
	}
	return p.buf[p.pos]
}

// parseXRefSection parses a single-subsection "xref\n0 M\n<entries>" block
// starting at p.pos, and returns the reconstructed table together with the
// next object number to allocate (M).
func (p *trailerParser) parseXRefSection() (*xRefTable, int, error) {
	p.skipWS()
	if !bytes.HasPrefix(p.buf[p.pos:], []byte("xref")) {
		return nil, 0, newError(ErrNotPDF, fmt.Errorf("expected \"xref\""))
	}
	p.pos += len("xref")
	p.skipWS()

	start, n1, err := p.readInt()
	if err != nil || start != 0 {
		return nil, 0, newError(ErrNotPDF, fmt.Errorf("unexpected xref subsection start"))
	}
	_ = n1
	p.skipWS()
	count, _, err := p.readInt()
	if err != nil {
		return nil, 0, newError(ErrNotPDF, err)
	}

	xref := newXRefTable()
	p.skipWS()
	for i := 0; i < count; i++ {
		if p.pos+20 > len(p.buf) {
			return nil, 0, newError(ErrNotPDF, fmt.Errorf("truncated xref entry"))
		}
		line := p.buf[p.pos : p.pos+20]
		p.pos += 20
		offset, err := strconv.ParseInt(string(bytes.TrimSpace(line[0:10])), 10, 64)
		if err != nil {
			return nil, 0, newError(ErrNotPDF, err)
		}
		kind := line[17]
		if i == 0 {
			continue // free-list head, already present
		}
		if kind == 'f' {
			xref.grow(i)
			xref.entries[i] = xRefEntry{Offset: -1, Free: true}
		} else {
			xref.set(i, offset)
		}
	}
	return xref, count, nil
}

func (p *trailerParser) parseTrailer() (Dict, error) {
	idx := bytes.Index(p.buf[p.pos:], []byte("trailer"))
	if idx < 0 {
		return nil, newError(ErrNotPDF, fmt.Errorf("no trailer keyword"))
	}
	p.pos += idx + len("trailer")
	p.skipWS()
	obj, err := p.parseObject()
	if err != nil {
		return nil, err
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, newError(ErrNotPDF, fmt.Errorf("trailer is not a dictionary"))
	}
	return dict, nil
}

func (p *trailerParser) readInt() (int, int, error) {
	p.skipWS()
	start := p.pos
	if p.peek() == '-' || p.peek() == '+' {
		p.pos++
	}
	for p.pos < len(p.buf) && p.buf[p.pos] >= '0' && p.buf[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, 0, fmt.Errorf("expected integer")
	}
	n, err := strconv.Atoi(string(p.buf[start:p.pos]))
	return n, p.pos - start, err
}

// parseObject parses one PDF object (dict, array, name, number, string,
// boolean, null, or "N G R" reference) at the current position.
func (p *trailerParser) parseObject() (Object, error) {
	p.skipWS()
	switch p.peek() {
	case '<':
		if p.pos+1 < len(p.buf) && p.buf[p.pos+1] == '<' {
			return p.parseDict()
		}
		return p.parseHexString()
	case '[':
		return p.parseArray()
	case '/':
		return p.parseName(), nil
	case '(':
		return p.parseLiteralString()
	case '-', '+', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.parseNumberOrRef()
	default:
		if bytes.HasPrefix(p.buf[p.pos:], []byte("true")) {
			p.pos += 4
			return Bool(true), nil
		}
		if bytes.HasPrefix(p.buf[p.pos:], []byte("false")) {
			p.pos += 5
			return Bool(false), nil
		}
		if bytes.HasPrefix(p.buf[p.pos:], []byte("null")) {
			p.pos += 4
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected byte 0x%02x at offset %d", p.peek(), p.pos)
	}
}

func (p *trailerParser) parseDict() (Object, error) {
	p.pos += 2 // "<<"
	dict := Dict{}
	for {
		p.skipWS()
		if bytes.HasPrefix(p.buf[p.pos:], []byte(">>")) {
			p.pos += 2
			return dict, nil
		}
		if p.peek() != '/' {
			return nil, fmt.Errorf("expected dict key at offset %d", p.pos)
		}
		key := p.parseName()
		val, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		dict[key] = val
	}
}

func (p *trailerParser) parseArray() (Object, error) {
	p.pos++ // "["
	var arr Array
	for {
		p.skipWS()
		if p.peek() == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *trailerParser) parseName() Name {
	p.pos++ // "/"
	start := p.pos
	for p.pos < len(p.buf) {
		c := p.buf[p.pos]
		if c <= 0x20 || c == '/' || c == '(' || c == ')' || c == '<' ||
			c == '>' || c == '[' || c == ']' || c == '{' || c == '}' || c == '%' {
			break
		}
		p.pos++
	}
	raw := p.buf[start:p.pos]
	if !bytes.ContainsRune(raw, '#') {
		return Name(raw)
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			v, err := strconv.ParseUint(string(raw[i+1:i+3]), 16, 8)
			if err == nil {
				out = append(out, byte(v))
				i += 2
				continue
			}
		}
		out = append(out, raw[i])
	}
	return Name(out)
}

func (p *trailerParser) parseLiteralString() (Object, error) {
	p.pos++ // "("
	var out []byte
	depth := 1
	for p.pos < len(p.buf) {
		c := p.buf[p.pos]
		if c == '\\' && p.pos+1 < len(p.buf) {
			p.pos++
			switch p.buf[p.pos] {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, p.buf[p.pos])
			default:
				out = append(out, p.buf[p.pos])
			}
			p.pos++
			continue
		}
		if c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				p.pos++
				return String(out), nil
			}
		}
		out = append(out, c)
		p.pos++
	}
	return nil, fmt.Errorf("unterminated string literal")
}

func (p *trailerParser) parseHexString() (Object, error) {
	p.pos++ // "<"
	start := p.pos
	for p.pos < len(p.buf) && p.buf[p.pos] != '>' {
		p.pos++
	}
	hex := bytes.ReplaceAll(p.buf[start:p.pos], []byte(" "), nil)
	hex = bytes.ReplaceAll(hex, []byte("\n"), nil)
	p.pos++ // ">"
	if len(hex)%2 == 1 {
		hex = append(hex, '0')
	}
	out := make([]byte, len(hex)/2)
	for i := range out {
		v, err := strconv.ParseUint(string(hex[2*i:2*i+2]), 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return String(out), nil
}

// parseNumberOrRef parses an integer, a real number, or (by
// lookahead) the two integers and "R" making up an indirect reference.
func (p *trailerParser) parseNumberOrRef() (Object, error) {
	start := p.pos
	isReal := false
	if p.peek() == '-' || p.peek() == '+' {
		p.pos++
	}
	for p.pos < len(p.buf) {
		c := p.buf[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
		} else if c == '.' && !isReal {
			isReal = true
			p.pos++
		} else {
			break
		}
	}
	text := string(p.buf[start:p.pos])
	if isReal {
		f, err := strconv.ParseFloat(text, 64)
		return Real(f), err
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, err
	}

	save := p.pos
	p.skipWS()
	genStart := p.pos
	for p.pos < len(p.buf) && p.buf[p.pos] >= '0' && p.buf[p.pos] <= '9' {
		p.pos++
	}
	if p.pos > genStart {
		gen, _ := strconv.Atoi(string(p.buf[genStart:p.pos]))
		afterGen := p.pos
		p.skipWS()
		if p.peek() == 'R' {
			p.pos++
			return Reference{Number: n, Generation: gen}, nil
		}
		p.pos = afterGen
	}
	p.pos = save
	return Integer(n), nil
}
