package extcap

import (
	"errors"
	"testing"

	"github.com/sercanarga/pciconf"
)

func writeExtHeader(cs *pciconf.ConfigSpace, offset int, id uint16, version uint8, next uint16) {
	cs.WriteU32(offset, uint32(id)|uint32(version)<<16|uint32(next)<<20)
}

func writeSerial(cs *pciconf.ConfigSpace, offset int, next uint16, serial uint64) {
	writeExtHeader(cs, offset, IDDeviceSerialNumber, 1, next)
	cs.WriteU32(offset+4, uint32(serial))
	cs.WriteU32(offset+8, uint32(serial>>32))
}

func collect(t *testing.T, cs *pciconf.ConfigSpace) ([]*ExtendedCapability, error) {
	t.Helper()
	var caps []*ExtendedCapability
	w := NewWalker(cs)
	for w.Scan() {
		caps = append(caps, w.Capability())
	}
	return caps, w.Err()
}

func TestWalkerEmptyHeader(t *testing.T) {
	// an all-zero header word means no extended capabilities
	cs := pciconf.New()
	caps, err := collect(t, cs)
	if err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if len(caps) != 0 {
		t.Errorf("got %d records, want 0", len(caps))
	}
}

func TestWalkerNullWithNonzeroNext(t *testing.T) {
	// ID 0 with a nonzero next field is a genuine Null record, not the
	// end of the chain
	cs := pciconf.New()
	writeExtHeader(cs, 0x100, IDNull, 0, 0x140)
	writeSerial(cs, 0x140, 0, 0x0123456789ABCDEF)

	caps, err := collect(t, cs)
	if err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if len(caps) != 2 {
		t.Fatalf("got %d records, want 2", len(caps))
	}
	if _, ok := caps[0].Kind.(Null); !ok {
		t.Errorf("record 0 Kind = %T, want Null", caps[0].Kind)
	}
	sn, ok := caps[1].Kind.(DeviceSerialNumber)
	if !ok {
		t.Fatalf("record 1 Kind = %T, want DeviceSerialNumber", caps[1].Kind)
	}
	if sn.SerialNumber != 0x0123456789ABCDEF {
		t.Errorf("SerialNumber = 0x%016x, want 0x0123456789ABCDEF", sn.SerialNumber)
	}
}

func TestWalkerOutOfOrderChain(t *testing.T) {
	cs := pciconf.New()
	writeSerial(cs, 0x100, 0x800, 1)
	writeSerial(cs, 0x800, 0x200, 2)
	writeSerial(cs, 0x200, 0, 3)

	caps, err := collect(t, cs)
	if err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	wantOffsets := []uint16{0x100, 0x800, 0x200}
	if len(caps) != len(wantOffsets) {
		t.Fatalf("got %d records, want %d", len(caps), len(wantOffsets))
	}
	for i, want := range wantOffsets {
		if caps[i].Offset != want {
			t.Errorf("record %d: Offset = 0x%03x, want 0x%03x", i, caps[i].Offset, want)
		}
	}
}

func TestWalkerOffsetBelowAnchor(t *testing.T) {
	cs := pciconf.New()
	writeSerial(cs, 0x100, 0x080, 1)

	caps, err := collect(t, cs)
	if len(caps) != 1 {
		t.Fatalf("got %d records, want 1", len(caps))
	}
	var oe pciconf.OffsetError
	if !errors.As(err, &oe) {
		t.Fatalf("Err() = %v, want OffsetError", err)
	}
	if oe.Offset != 0x080 {
		t.Errorf("OffsetError.Offset = 0x%03x, want 0x080", oe.Offset)
	}
}

func TestWalkerSurfacesDecodeError(t *testing.T) {
	// the DPA record at 0xFF0 declares one power allocation entry but its
	// window ends with the fixed registers; the failure is surfaced once
	cs := pciconf.New()
	writeSerial(cs, 0x100, 0xFF0, 1)
	writeExtHeader(cs, 0xFF0, IDDPA, 1, 0x200)
	writeSerial(cs, 0x200, 0, 2)

	caps, err := collect(t, cs)
	if len(caps) != 1 {
		t.Fatalf("got %d records, want 1 (chain stops at the bad record)", len(caps))
	}
	var ale pciconf.ArrayLengthError
	if !errors.As(err, &ale) {
		t.Fatalf("Err() = %v, want ArrayLengthError", err)
	}
	if ale.Expected != 1 || ale.Found != 0 {
		t.Errorf("ArrayLengthError = {Expected: %d, Found: %d}, want {1, 0}", ale.Expected, ale.Found)
	}
}

func TestWalkerUnknownIDContinues(t *testing.T) {
	cs := pciconf.New()
	writeExtHeader(cs, 0x100, 0x7FFF, 2, 0x140)
	writeSerial(cs, 0x140, 0, 1)

	caps, err := collect(t, cs)
	if err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if len(caps) != 2 {
		t.Fatalf("got %d records, want 2", len(caps))
	}
	res, ok := caps[0].Kind.(Reserved)
	if !ok {
		t.Fatalf("Kind = %T, want Reserved", caps[0].Kind)
	}
	if res.ID != 0x7FFF {
		t.Errorf("Reserved.ID = 0x%04x, want 0x7FFF", res.ID)
	}
	if caps[0].Version != 2 {
		t.Errorf("Version = %d, want 2", caps[0].Version)
	}
}

func TestWalkerHeaderInclusiveWindow(t *testing.T) {
	cs := pciconf.New()
	writeExtHeader(cs, 0x100, IDCAC, 1, 0)
	cs.WriteU32(0x104, 0xAABBCCDD)

	caps, err := collect(t, cs)
	if err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if len(caps) != 1 {
		t.Fatalf("got %d records, want 1", len(caps))
	}
	cac, ok := caps[0].Kind.(CAC)
	if !ok {
		t.Fatalf("Kind = %T, want CAC", caps[0].Kind)
	}
	if cac.Register != 0xAABBCCDD {
		t.Errorf("Register = 0x%08x, want 0xAABBCCDD", cac.Register)
	}
}

func TestWalkerLegacyOnlyBuffer(t *testing.T) {
	cs := pciconf.FromBytes(make([]byte, pciconf.LegacySize))
	caps, err := collect(t, cs)
	if err != nil || len(caps) != 0 {
		t.Errorf("got %d records, err %v for a 256-byte buffer, want 0, nil", len(caps), err)
	}
}

func TestWalkerSelfLoopTerminates(t *testing.T) {
	cs := pciconf.New()
	writeSerial(cs, 0x100, 0x100, 1)

	caps, err := collect(t, cs)
	if err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if len(caps) != maxEntries {
		t.Errorf("got %d records from a looping chain, want %d", len(caps), maxEntries)
	}
}
