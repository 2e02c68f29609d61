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

import "hash"

// parserState names the byte-oriented control parser's states.
type parserState int

const (
	stIdle parserState = iota
	stEscSeq
	stCSI
	stCSIParam
	stCSIIntermediate
	stBadCSI
	stBadEsc
	stBadString
)

// eventKind names the events the control parser emits, one per surviving
// input byte (plus the synthetic lpiChange event on a recognised CSI).
type eventKind int

const (
	evChar eventKind = iota
	evLF
	evFF
	evCR
	evLPIChange
)

// event is a single unit handed from the control parser to the page layout
// buffer.
type event struct {
	kind eventKind
	char uint16 // valid when kind == evChar
	lpi  int    // valid when kind == evLPIChange
}

// csiParamDefault is the sentinel used for an omitted CSI parameter.
const csiParamDefault = -1

// controlParser is the byte-at-a-time state machine from §4.3: it consumes
// raw lineprinter output and emits a filtered logical character sequence
// plus line-feed / form-feed / line-pitch-change events. Every raw input
// byte, before filtering, is also fed into the running document
// fingerprint hash so that identical inputs produce identical document
// IDs.
type controlParser struct {
	state parserState

	// CSI accumulation.
	private byte // 0 if none seen
	params  []int
	paramOK bool // false once a parameter overflows

	// "initial call on a fresh file" bookkeeping: a form feed arriving
	// before any character or line feed is swallowed, and so are the CRs
	// that precede it.
	sawFirstFF  bool
	freshFile   bool
	pendingCRs  int

	hash hash.Hash

	emit func(event)
}

func newControlParser(fingerprint hash.Hash, emit func(event)) *controlParser {
	return &controlParser{
		state:     stIdle,
		freshFile: true,
		hash:      fingerprint,
		emit:      emit,
	}
}

// Write feeds raw input bytes through the state machine.
func (p *controlParser) Write(data []byte) {
	for _, b := range data {
		if p.hash != nil {
			p.hash.Write([]byte{b})
		}
		p.step(b)
	}
}

func (p *controlParser) step(b byte) {
	if b == 0x18 || b == 0x1a { // CAN, SUB: abort any pending sequence from any state
		p.reset()
		return
	}
	switch p.state {
	case stIdle:
		p.stepIdle(b)
	case stEscSeq:
		p.stepEscSeq(b)
	case stCSI:
		p.stepCSI(b)
	case stCSIParam:
		p.stepCSIParam(b)
	case stCSIIntermediate:
		p.stepCSIIntermediate(b)
	case stBadCSI:
		p.stepBad(b, 0x40, 0x7e)
	case stBadEsc:
		p.stepBad(b, 0x30, 0x7e)
	case stBadString:
		p.stepBadString(b)
	}
}

func (p *controlParser) stepIdle(b byte) {
	if p.freshFile && !p.sawFirstFF && (b == 0x0a || b >= 0x20 && b <= 0x7e || b >= 0xa0) {
		// Data before any form feed ends the initial phase: the held-back
		// CRs did not precede a swallowed FF, so they are released.
		p.freshFile = false
		for ; p.pendingCRs > 0; p.pendingCRs-- {
			p.emit(event{kind: evCR})
		}
	}
	switch {
	case b >= 0x20 && b <= 0x7e, b >= 0xa0:
		p.emit(event{kind: evChar, char: uint16(b)})
	case b == 0x0a: // LF
		p.emit(event{kind: evLF})
	case b == 0x0c: // FF
		if p.freshFile && !p.sawFirstFF {
			p.sawFirstFF = true
			p.pendingCRs = 0
			return
		}
		p.emit(event{kind: evFF})
	case b == 0x0d: // CR
		if p.freshFile && !p.sawFirstFF {
			p.pendingCRs++
			return
		}
		p.emit(event{kind: evCR})
	case b == 0x1b: // ESC
		p.state = stEscSeq
	case b == 0x9b: // CSI (8-bit)
		p.beginCSI()
	case b == 0x9c: // ST
		p.state = stIdle
	case b == 0x9d, b == 0x9e, b == 0x9f: // OSC, PM, APC
		p.state = stBadString
	default:
		// other C0/C1 control bytes: discard
	}
}

func (p *controlParser) reset() {
	p.state = stIdle
	p.private = 0
	p.params = nil
	p.paramOK = true
}

func (p *controlParser) beginCSI() {
	p.private = 0
	p.params = nil
	p.paramOK = true
	p.state = stCSI
}

func (p *controlParser) stepEscSeq(b byte) {
	switch {
	case b >= 0x40 && b <= 0x5f:
		// 7-bit two-byte C1 equivalent: remap to the single-byte C1 and
		// re-dispatch from IDLE.
		p.state = stIdle
		p.step(b + 0x40)
	case b >= 0x20 && b <= 0x2f:
		// intermediate byte, accumulated but ignored
	case b >= 0x30 && b <= 0x7e:
		p.state = stIdle
	default:
		p.state = stBadEsc
	}
}

func (p *controlParser) stepCSI(b byte) {
	switch {
	case b >= 0x3c && b <= 0x3f:
		p.private = b
		p.state = stCSIParam
		p.beginParam()
	case b >= 0x30 && b <= 0x39, b == 0x3b:
		p.state = stCSIParam
		p.beginParam()
		p.stepCSIParam(b)
	case b >= 0x20 && b <= 0x2f:
		p.state = stCSIIntermediate
	case b >= 0x40 && b <= 0x7e:
		p.finishCSI(b)
	default:
		p.state = stBadCSI
	}
}

func (p *controlParser) beginParam() {
	p.params = append(p.params, csiParamDefault)
}

func (p *controlParser) stepCSIParam(b byte) {
	switch {
	case b >= '0' && b <= '9':
		if len(p.params) == 0 {
			p.beginParam()
		}
		cur := p.params[len(p.params)-1]
		if cur == csiParamDefault {
			cur = 0
		}
		next := cur*10 + int(b-'0')
		if next > 1<<20 {
			p.paramOK = false
		} else {
			p.params[len(p.params)-1] = next
		}
	case b == ';':
		if len(p.params) >= 16 {
			p.paramOK = false
		}
		p.beginParam()
	case b >= 0x20 && b <= 0x2f:
		p.state = stCSIIntermediate
	case b >= 0x40 && b <= 0x7e:
		p.finishCSI(b)
	default:
		p.state = stBadCSI
	}
}

func (p *controlParser) stepCSIIntermediate(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2f:
		// further intermediates, ignored
	case b >= 0x40 && b <= 0x7e:
		p.finishCSIWithIntermediate(b)
	default:
		p.state = stBadCSI
	}
}

// finishCSI handles a CSI final byte that was reached with no
// intermediates.
func (p *controlParser) finishCSI(final byte) {
	p.state = stIdle
	if final != 'z' || p.private != 0 {
		return
	}
	p.applyLPI()
}

// finishCSIWithIntermediate handles a CSI final byte reached after at least
// one intermediate byte; per §4.3 such sequences are never acted on.
func (p *controlParser) finishCSIWithIntermediate(final byte) {
	p.state = stIdle
}

func (p *controlParser) applyLPI() {
	if !p.paramOK || len(p.params) == 0 {
		return
	}
	pn := p.params[0]
	var lpi int
	switch pn {
	case 1:
		lpi = 6
	case 2:
		lpi = 8
	default:
		return
	}
	p.emit(event{kind: evLPIChange, lpi: lpi})
}

func (p *controlParser) stepBad(b byte, lo, hi byte) {
	if b >= lo && b <= hi {
		p.state = stIdle
	}
}

func (p *controlParser) stepBadString(b byte) {
	if b == 0x9c || b == 0x07 { // ST, or BEL as an informal terminator
		p.state = stIdle
	}
}
