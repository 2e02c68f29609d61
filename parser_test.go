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
	"crypto/sha1"
	"testing"
)

func collectEvents(t *testing.T, input []byte) []event {
	t.Helper()
	var got []event
	p := newControlParser(sha1.New(), func(ev event) { got = append(got, ev) })
	p.Write(input)
	return got
}

func TestParserPlainText(t *testing.T) {
	evs := collectEvents(t, []byte("AB\n"))
	want := []eventKind{evChar, evChar, evLF}
	if len(evs) != len(want) {
		t.Fatalf("got %d events, want %d", len(evs), len(want))
	}
	for i, k := range want {
		if evs[i].kind != k {
			t.Errorf("event %d kind = %v, want %v", i, evs[i].kind, k)
		}
	}
}

func TestParserFirstFormFeedSwallowed(t *testing.T) {
	evs := collectEvents(t, []byte("\f\fA"))
	// the first FF on a fresh file is swallowed; the second is not.
	var kinds []eventKind
	for _, ev := range evs {
		kinds = append(kinds, ev.kind)
	}
	if len(kinds) != 2 || kinds[0] != evFF || kinds[1] != evChar {
		t.Fatalf("got %v, want [evFF evChar]", kinds)
	}
}

func TestParserLeadingCRDiscardedBeforeFirstFF(t *testing.T) {
	// both the leading CRs and the first FF itself are swallowed; only the
	// ordinary character after them survives.
	evs := collectEvents(t, []byte("\r\r\fA"))
	if len(evs) != 1 || evs[0].kind != evChar {
		t.Fatalf("got %v, want only the trailing character to survive", evs)
	}
}

func TestParserCRAfterFirstFFPassesThrough(t *testing.T) {
	// the leading FF is the swallowed "initial page-positioning artifact";
	// a later CR on the same session is a real overstrike marker and must
	// survive.
	evs := collectEvents(t, []byte("\fA\rB"))
	want := []eventKind{evChar, evCR, evChar}
	if len(evs) != len(want) {
		t.Fatalf("got %d events, want %d", len(evs), len(want))
	}
	for i, k := range want {
		if evs[i].kind != k {
			t.Errorf("event %d = %v, want %v", i, evs[i].kind, k)
		}
	}
}

func TestParserCSISetLPI8Bit(t *testing.T) {
	evs := collectEvents(t, []byte{0x9b, '2', 'z'})
	if len(evs) != 1 || evs[0].kind != evLPIChange || evs[0].lpi != 8 {
		t.Fatalf("got %v, want a single evLPIChange(8)", evs)
	}
}

func TestParserCSISetLPI7Bit(t *testing.T) {
	// ESC [ is the 7-bit equivalent of the 8-bit CSI 0x9b.
	evs := collectEvents(t, []byte{0x1b, '[', '1', 'z'})
	if len(evs) != 1 || evs[0].kind != evLPIChange || evs[0].lpi != 6 {
		t.Fatalf("got %v, want a single evLPIChange(6)", evs)
	}
}

func TestParserCSIUnknownFinalIgnored(t *testing.T) {
	evs := collectEvents(t, []byte{0x9b, '5', 'm', 'X'})
	if len(evs) != 1 || evs[0].kind != evChar {
		t.Fatalf("got %v, want the CSI discarded and only 'X' surviving", evs)
	}
}

func TestParserCSIWithIntermediateNeverActsOnZ(t *testing.T) {
	evs := collectEvents(t, []byte{0x9b, '1', ' ', 'z'})
	if len(evs) != 0 {
		t.Fatalf("CSI with an intermediate byte before 'z' must never change LPI, got %v", evs)
	}
}

func TestParserCANAbortsFromAnyState(t *testing.T) {
	evs := collectEvents(t, []byte{0x1b, 0x18, 'A'})
	if len(evs) != 1 || evs[0].kind != evChar {
		t.Fatalf("CAN should abort the pending escape sequence, got %v", evs)
	}

	evs = collectEvents(t, []byte{0x9b, '1', 0x1a, 'B'})
	if len(evs) != 1 || evs[0].kind != evChar {
		t.Fatalf("SUB should abort a pending CSI sequence too, got %v", evs)
	}
}

func TestParserFingerprintCoversRawBytes(t *testing.T) {
	h1 := sha1.New()
	p1 := newControlParser(h1, func(event) {})
	p1.Write([]byte("HELLO\n"))

	h2 := sha1.New()
	h2.Write([]byte("HELLO\n"))

	if string(h1.Sum(nil)) != string(h2.Sum(nil)) {
		t.Fatal("fingerprint hash did not see every raw input byte")
	}
}
