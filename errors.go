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
	"os"
)

// ErrorCode identifies one of the failure modes a [Context] can record.
// The zero value, ErrOK, means "no error".
type ErrorCode int

// Error codes, grouped the way §7 of the design groups them.
const (
	ErrOK ErrorCode = iota

	// API misuse.
	ErrBadHandle
	ErrBadFilename
	ErrNotOpen
	ErrBadErrno

	// file-state preconditions at open.
	ErrNotEmpty
	ErrNotPDF
	ErrNoAppend
	ErrNotProduced

	// configuration errors.
	ErrActive
	ErrBadSet
	ErrInvalid
	ErrNegativeValue
	ErrUnknownFont
	ErrUnknownForm
	ErrInconsistentGeometry

	// runtime I/O or data errors.
	ErrIO
	ErrOtherIO
	ErrBadJPEG

	// invariant violations.
	ErrBugcheck
)

var errorText = map[ErrorCode]string{
	ErrOK:                   "no error",
	ErrBadHandle:            "invalid context handle",
	ErrBadFilename:          "filename must end in \".pdf\"",
	ErrNotOpen:              "context is not open",
	ErrBadErrno:             "unexpected operating system error",
	ErrNotEmpty:             "file is not empty",
	ErrNotPDF:               "file is not a PDF file written by this engine",
	ErrNoAppend:             "file cannot be opened for append",
	ErrNotProduced:          "no output has been produced yet",
	ErrActive:               "option cannot be changed once output has been produced",
	ErrBadSet:               "unknown option",
	ErrInvalid:              "invalid option value",
	ErrNegativeValue:        "value must not be negative",
	ErrUnknownFont:          "font is not one of the 14 standard PDF fonts",
	ErrUnknownForm:          "form type is not recognized",
	ErrInconsistentGeometry: "page geometry is inconsistent",
	ErrIO:                   "I/O error",
	ErrOtherIO:              "I/O error (secondary)",
	ErrBadJPEG:              "malformed JPEG background image",
	ErrBugcheck:             "internal invariant violated",
}

// Error is returned by every public operation that can fail.  It carries a
// stable [ErrorCode] in addition to the usual message, so that callers can
// dispatch on error kind without string matching.
type Error struct {
	Code ErrorCode
	Err  error // underlying cause, if any
}

func (e *Error) Error() string {
	msg := errorText[e.Code]
	if msg == "" {
		msg = fmt.Sprintf("error %d", int(e.Code))
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, cause error) *Error {
	return &Error{Code: code, Err: cause}
}

// StrError returns the message associated with code.  Codes that this
// engine never produces (including negative or out-of-range values) return
// a generic fallback message rather than an empty string, mirroring
// strerror's behaviour for unrecognised host error numbers.
func StrError(code ErrorCode) string {
	if msg, ok := errorText[code]; ok {
		return msg
	}
	return "unknown error"
}

// setErr records an error built from code and cause on the context if no
// error is currently recorded, and returns the recorded error (the earlier
// one, if there was one).  Once an error is recorded, it is sticky: later
// calls to setErr are no-ops until [Context.ClearErr] runs, matching the
// "scoped error escape" discipline from the design notes.
func (ctx *Context) setErr(code ErrorCode, cause error) error {
	if ctx.err == nil {
		ctx.err = newError(code, cause)
	}
	return ctx.err
}

// Err returns the error recorded on the context, or nil if none.
func (ctx *Context) Err() error {
	return ctx.err
}

// ClearErr clears the sticky error recorded on the context.
func (ctx *Context) ClearErr() {
	ctx.err = nil
}

// Perror writes the context's current error to standard error, prefixed by
// prefix if prefix is non-empty, mirroring the original pdf_perror's
// "prefix: message" convention.
func (ctx *Context) Perror(prefix string) {
	msg := StrError(ErrOK)
	if ctx.err != nil {
		msg = ctx.err.Error()
	}
	if prefix != "" {
		fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s\n", msg)
}
