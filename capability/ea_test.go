package capability

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sercanarga/pciconf"
)

func TestDecodeEnhancedAllocation(t *testing.T) {
	payload := []byte{
		0x01, 0x00, // one entry
		// entry header: size 4 dwords, BEI 5, properties 0x03/0x07,
		// writable, enabled
		0x54, 0x03, 0x07, 0xC0,
		0x02, 0x00, 0x00, 0xF0, // base low, 64-bit indicator set
		0xFC, 0x0F, 0x00, 0x00, // max offset low
		0x01, 0x00, 0x00, 0x00, // base high
		0x00, 0x00, 0x00, 0x00, // padding up to the declared size
	}
	got, err := Decode(IDEnhancedAllocation, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := EnhancedAllocation{
		NumEntries: 1,
		Entries: []EAEntry{{
			EntrySize:              4,
			BAREquivalentIndicator: 5,
			PrimaryProperties:      0x03,
			SecondaryProperties:    0x07,
			Writable:               true,
			Enable:                 true,
			Base:                   0x1F0000000,
			Base64Bit:              true,
			MaxOffset:              0xFFC,
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EnhancedAllocation mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeEnhancedAllocationDeclaredSizeAdvance(t *testing.T) {
	// the first entry structurally consumes 16 bytes but declares 4 dwords;
	// the second entry must be found at the declared boundary
	payload := []byte{
		0x02, 0x00,
		// entry 0: size 4, base 64-bit
		0x04, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x10,
		0x00, 0x10, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0xEE, 0xEE, 0xEE, 0xEE, // ignored padding dword
		// entry 1: size 2, 32-bit
		0x02, 0x00, 0x00, 0x80,
		0x00, 0x00, 0x00, 0x20,
		0x00, 0xF0, 0x00, 0x00,
	}
	got, err := Decode(IDEnhancedAllocation, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	ea, ok := got.(EnhancedAllocation)
	if !ok {
		t.Fatalf("Decode() = %T, want EnhancedAllocation", got)
	}
	if len(ea.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(ea.Entries))
	}
	if ea.Entries[1].Base != 0x20000000 {
		t.Errorf("entry 1 Base = 0x%x, want 0x20000000", ea.Entries[1].Base)
	}
	if !ea.Entries[1].Enable {
		t.Error("entry 1 Enable = false, want true")
	}
}

func TestDecodeEnhancedAllocationZeroEntries(t *testing.T) {
	got, err := Decode(IDEnhancedAllocation, []byte{0x00, 0x00})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	ea := got.(EnhancedAllocation)
	if len(ea.Entries) != 0 {
		t.Errorf("got %d entries, want 0", len(ea.Entries))
	}
}

func TestDecodeEnhancedAllocationOverrun(t *testing.T) {
	payload := []byte{
		0x01, 0x00,
		0x07, 0x00, 0x00, 0x00, // declares 7 dwords
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	_, err := Decode(IDEnhancedAllocation, payload)
	var ale pciconf.ArrayLengthError
	if !errors.As(err, &ale) {
		t.Fatalf("error = %v, want ArrayLengthError", err)
	}
	if ale.Expected != 7 || ale.Found != 2 {
		t.Errorf("ArrayLengthError = {Expected: %d, Found: %d}, want {7, 2}", ale.Expected, ale.Found)
	}
}
