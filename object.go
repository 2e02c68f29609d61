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
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
)

// Object represents a PDF object.  There are nine native types of PDF
// objects that this engine produces, all of which implement this interface:
// [Array], [Bool], [Dict], [Integer], [Name], [Real], [Reference],
// [String], and [*Stream].
type Object interface {
	// PDF writes the PDF file representation of the object to w.
	PDF(w io.Writer) error
}

// Bool represents a boolean value in a PDF file.
type Bool bool

// PDF implements the [Object] interface.
func (x Bool) PDF(w io.Writer) error {
	s := "false"
	if x {
		s = "true"
	}
	_, err := io.WriteString(w, s)
	return err
}

// Integer represents an integer constant in a PDF file.
type Integer int64

// PDF implements the [Object] interface.
func (x Integer) PDF(w io.Writer) error {
	_, err := io.WriteString(w, strconv.FormatInt(int64(x), 10))
	return err
}

// Real represents a real number in a PDF file.
type Real float64

// PDF implements the [Object] interface.
func (x Real) PDF(w io.Writer) error {
	s := strconv.FormatFloat(float64(x), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += "."
	}
	_, err := io.WriteString(w, s)
	return err
}

// Name represents a name object in a PDF file, for example a dictionary key
// or a resource name such as "/F1".
type Name string

// PDF implements the [Object] interface.
func (x Name) PDF(w io.Writer) error {
	l := []byte(x)

	var funny []int
	for i, c := range l {
		if c <= 0x20 || c >= 0x7f || c == '#' || c == '/' || c == '(' ||
			c == ')' || c == '<' || c == '>' || c == '[' || c == ']' ||
			c == '{' || c == '}' || c == '%' {
			funny = append(funny, i)
		}
	}

	if _, err := w.Write([]byte{'/'}); err != nil {
		return err
	}
	pos := 0
	for _, i := range funny {
		if pos < i {
			if _, err := w.Write(l[pos:i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "#%02x", l[i]); err != nil {
			return err
		}
		pos = i + 1
	}
	if pos < len(l) {
		if _, err := w.Write(l[pos:]); err != nil {
			return err
		}
	}
	return nil
}

// String represents a literal string object in a PDF file.  The bytes are
// taken to be PDFDocEncoding-compatible codepoints; no other encoding is
// supported by this engine.
type String []byte

// PDF implements the [Object] interface.
func (x String) PDF(w io.Writer) error {
	buf := &bytes.Buffer{}
	buf.WriteByte('(')
	for _, c := range x {
		switch c {
		case '(':
			buf.WriteString(`\(`)
		case ')':
			buf.WriteString(`\)`)
		case '\\':
			buf.WriteString(`\\`)
		case '\r':
			buf.WriteString(`\r`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(')')
	_, err := w.Write(buf.Bytes())
	return err
}

// Date formats t as a PDF date string, D:YYYYMMDDHHmmSS+HH'mm'.
func Date(t interface{ Format(string) string }) String {
	s := t.Format("D:20060102150405-0700")
	k := len(s) - 2
	s = s[:k] + "'" + s[k:] + "'"
	return String(s)
}

// Array represents an array of objects in a PDF file.
type Array []Object

// PDF implements the [Object] interface.
func (x Array) PDF(w io.Writer) error {
	if _, err := w.Write([]byte{'['}); err != nil {
		return err
	}
	for i, val := range x {
		if i > 0 {
			if _, err := w.Write([]byte{' '}); err != nil {
				return err
			}
		}
		if err := writeObject(w, val); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{']'})
	return err
}

// Dict represents a dictionary object in a PDF file.
type Dict map[Name]Object

// PDF implements the [Object] interface.
func (x Dict) PDF(w io.Writer) error {
	if x == nil {
		_, err := io.WriteString(w, "null")
		return err
	}

	keys := slices.DeleteFunc(maps.Keys(x), func(k Name) bool { return x[k] == nil })
	slices.Sort(keys)

	if _, err := io.WriteString(w, "<<"); err != nil {
		return err
	}
	for _, name := range keys {
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
		if err := name.PDF(w); err != nil {
			return err
		}
		if _, err := w.Write([]byte{' '}); err != nil {
			return err
		}
		if err := writeObject(w, x[name]); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n>>")
	return err
}

// Stream represents a stream object: a dictionary together with the raw
// bytes that follow the "stream" keyword.  The dictionary's /Length entry
// must already reflect len(Data).
type Stream struct {
	Dict
	Data []byte
}

// PDF implements the [Object] interface.
func (x *Stream) PDF(w io.Writer) error {
	if err := x.Dict.PDF(w); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\nstream\n"); err != nil {
		return err
	}
	if _, err := w.Write(x.Data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\nendstream")
	return err
}

// Reference represents a reference to an indirect object, "N G R".
type Reference struct {
	Number     int
	Generation int
}

// PDF implements the [Object] interface.
func (x Reference) PDF(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d %d R", x.Number, x.Generation)
	return err
}

func (x Reference) String() string {
	return fmt.Sprintf("%d %d R", x.Number, x.Generation)
}

func writeObject(w io.Writer, obj Object) error {
	if obj == nil {
		_, err := io.WriteString(w, "null")
		return err
	}
	return obj.PDF(w)
}

// Format renders obj the same way it would be written to a PDF file.  It is
// used by tests and wherever a single object is spliced into hand-built
// output (the anchor's /Kids, Tf and Do operands); whole indirect objects
// are written directly to the file via objectWriter.
func Format(obj Object) string {
	buf := &bytes.Buffer{}
	if err := writeObject(buf, obj); err != nil {
		return fmt.Sprintf("<error: %v>", err)
	}
	return buf.String()
}
