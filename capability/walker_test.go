package capability

import (
	"testing"

	"github.com/sercanarga/pciconf"
)

// pmPayload is a valid six-byte Power Management Interface payload.
var pmPayload = []byte{0xA3, 0xCA, 0x0A, 0x81, 0xC0, 0x55}

func writeCap(cs *pciconf.ConfigSpace, offset int, id, next uint8, payload []byte) {
	cs.WriteU8(offset, id)
	cs.WriteU8(offset+1, next)
	for i, b := range payload {
		cs.WriteU8(offset+2+i, b)
	}
}

func collect(t *testing.T, cs *pciconf.ConfigSpace) []*Capability {
	t.Helper()
	var caps []*Capability
	w := NewWalker(cs)
	for w.Scan() {
		caps = append(caps, w.Capability())
	}
	return caps
}

func TestWalkerSingleRecord(t *testing.T) {
	cs := pciconf.New()
	cs.WriteU8(0x34, 0x40)
	writeCap(cs, 0x40, IDPowerManagement, 0x00, pmPayload)

	caps := collect(t, cs)
	if len(caps) != 1 {
		t.Fatalf("got %d records, want 1", len(caps))
	}
	if caps[0].Pointer != 0x40 {
		t.Errorf("Pointer = 0x%02x, want 0x40", caps[0].Pointer)
	}
	if _, ok := caps[0].Kind.(PowerManagement); !ok {
		t.Errorf("Kind = %T, want PowerManagement", caps[0].Kind)
	}
}

func TestWalkerFollowsChainOrder(t *testing.T) {
	// backward pointer: 0x80 -> 0x50 -> 0xE0
	cs := pciconf.New()
	cs.WriteU8(0x34, 0x80)
	writeCap(cs, 0x80, IDPowerManagement, 0x50, pmPayload)
	writeCap(cs, 0x50, IDVPD, 0xE0, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	writeCap(cs, 0xE0, IDSlotIdentification, 0x00, []byte{0x00, 0x00})

	caps := collect(t, cs)
	if len(caps) != 3 {
		t.Fatalf("got %d records, want 3", len(caps))
	}
	wantPtrs := []uint8{0x80, 0x50, 0xE0}
	for i, want := range wantPtrs {
		if caps[i].Pointer != want {
			t.Errorf("record %d: Pointer = 0x%02x, want 0x%02x", i, caps[i].Pointer, want)
		}
	}
}

func TestWalkerAnchorBoundary(t *testing.T) {
	// 0x40 is the first valid offset of the device dependent region
	cs := pciconf.New()
	cs.WriteU8(0x34, 0x40)
	writeCap(cs, 0x40, IDNull, 0x00, nil)
	if got := len(collect(t, cs)); got != 1 {
		t.Errorf("got %d records at anchor, want 1", got)
	}

	// one dword below the anchor stops the walk silently
	cs = pciconf.New()
	cs.WriteU8(0x34, 0x3C)
	writeCap(cs, 0x3C, IDNull, 0x00, nil)
	if got := len(collect(t, cs)); got != 0 {
		t.Errorf("got %d records below anchor, want 0", got)
	}
}

func TestWalkerUnknownIDContinues(t *testing.T) {
	cs := pciconf.New()
	cs.WriteU8(0x34, 0x40)
	writeCap(cs, 0x40, 0x7F, 0x50, nil)
	writeCap(cs, 0x50, IDPowerManagement, 0x00, pmPayload)

	caps := collect(t, cs)
	if len(caps) != 2 {
		t.Fatalf("got %d records, want 2", len(caps))
	}
	res, ok := caps[0].Kind.(Reserved)
	if !ok {
		t.Fatalf("Kind = %T, want Reserved", caps[0].Kind)
	}
	if res.ID != 0x7F {
		t.Errorf("Reserved.ID = 0x%02x, want 0x7F", res.ID)
	}
}

func TestWalkerDecodeFailureTruncatesSilently(t *testing.T) {
	// the 64-bit MSI record at 0xF8 has only six bytes before the end of
	// the region; its failure must end the walk without surfacing anything
	cs := pciconf.New()
	cs.WriteU8(0x34, 0x40)
	writeCap(cs, 0x40, IDPowerManagement, 0xF8, pmPayload)
	writeCap(cs, 0xF8, IDMSI, 0x50, []byte{0x80, 0x00})
	writeCap(cs, 0x50, IDVPD, 0x00, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00})

	caps := collect(t, cs)
	if len(caps) != 1 {
		t.Fatalf("got %d records, want 1 (chain truncated at the bad record)", len(caps))
	}
	if caps[0].Pointer != 0x40 {
		t.Errorf("Pointer = 0x%02x, want 0x40", caps[0].Pointer)
	}
}

func TestWalkerNoCapabilities(t *testing.T) {
	cs := pciconf.New()
	if got := len(collect(t, cs)); got != 0 {
		t.Errorf("got %d records with a zero capability pointer, want 0", got)
	}
}

func TestWalkerSelfLoopTerminates(t *testing.T) {
	cs := pciconf.New()
	cs.WriteU8(0x34, 0x40)
	writeCap(cs, 0x40, IDPowerManagement, 0x40, pmPayload)

	caps := collect(t, cs)
	if len(caps) != maxEntries {
		t.Errorf("got %d records from a looping chain, want %d", len(caps), maxEntries)
	}
}

func TestWalkerMasksReservedPointerBits(t *testing.T) {
	cs := pciconf.New()
	cs.WriteU8(0x34, 0x43)
	writeCap(cs, 0x40, IDNull, 0x00, nil)

	caps := collect(t, cs)
	if len(caps) != 1 {
		t.Fatalf("got %d records, want 1", len(caps))
	}
	if caps[0].Pointer != 0x40 {
		t.Errorf("Pointer = 0x%02x, want 0x40", caps[0].Pointer)
	}
}
