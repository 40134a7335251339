package pciconf

import "testing"

func TestBitReaderSequential(t *testing.T) {
	// 0xC3 = 1100_0011: fields of 2, 4, 2 bits read LSB first.
	r := NewBitReader([]byte{0xC3})

	if got := r.Bits(2); got != 0b11 {
		t.Errorf("Bits(2) = %#b, want 0b11", got)
	}
	if got := r.Bits(4); got != 0b0000 {
		t.Errorf("Bits(4) = %#b, want 0", got)
	}
	if got := r.Bits(2); got != 0b11 {
		t.Errorf("Bits(2) = %#b, want 0b11", got)
	}
	if err := r.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestBitReaderCrossesBytes(t *testing.T) {
	// Little-endian u16 0xABCD stored as CD AB; a 4/8/4 split reads
	// 0xD, 0xBC, 0xA.
	r := NewBitReader([]byte{0xCD, 0xAB})

	if got := r.Bits(4); got != 0xD {
		t.Errorf("low nibble = 0x%x, want 0xD", got)
	}
	if got := r.Bits(8); got != 0xBC {
		t.Errorf("middle byte = 0x%x, want 0xBC", got)
	}
	if got := r.Bits(4); got != 0xA {
		t.Errorf("high nibble = 0x%x, want 0xA", got)
	}
}

func TestBitReaderReservedAdvances(t *testing.T) {
	r := NewBitReader([]byte{0xFF, 0x01})
	r.Reserved(9)
	if got := r.Bits(7); got != 0 {
		t.Errorf("Bits(7) after Reserved(9) = %#x, want 0", got)
	}
	if got := r.Consumed(); got != 2 {
		t.Errorf("Consumed() = %d, want 2", got)
	}
}

func TestBitReaderExhausted(t *testing.T) {
	r := NewBitReader([]byte{0xFF})
	r.Bits(8)
	if got := r.Bits(1); got != 0 {
		t.Errorf("Bits past end = %d, want 0", got)
	}
	if r.Err() == nil {
		t.Error("Err() = nil after reading past end")
	}
	// sticky: further reads stay zero
	if got := r.Bits(4); got != 0 {
		t.Errorf("Bits after error = %d, want 0", got)
	}
}

func TestBitReaderConsumedRoundsUp(t *testing.T) {
	r := NewBitReader([]byte{0x00, 0x00})
	r.Bits(3)
	if got := r.Consumed(); got != 1 {
		t.Errorf("Consumed() = %d, want 1", got)
	}
	r.Bits(5)
	if got := r.Consumed(); got != 1 {
		t.Errorf("Consumed() = %d, want 1", got)
	}
	r.Bits(1)
	if got := r.Consumed(); got != 2 {
		t.Errorf("Consumed() = %d, want 2", got)
	}
}

func TestBitReaderWideField(t *testing.T) {
	r := NewBitReader([]byte{0x78, 0x56, 0x34, 0x12})
	if got := r.U32(); got != 0x12345678 {
		t.Errorf("U32() = 0x%08x, want 0x12345678", got)
	}
}
