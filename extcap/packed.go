package extcap

import (
	"github.com/sercanarga/pciconf"
)

// PackedArray is a forward-only reader over an array of sub-byte entries
// packed least-significant-bits-first, as used by the ACS egress control
// vector (1-bit entries) and the VC arbitration tables (2/4-bit phase
// entries). It is derived from its record and can be re-derived to
// restart; it cannot seek.
type PackedArray struct {
	data  []byte
	width int // entry width in bits: 1, 2, 4 or 8
	count int
	pos   int // entries consumed
}

// newPackedArray validates that data can hold count entries of the given
// bit width and returns the reader. On shortfall the error carries the
// declared entry count against the count the window can hold.
func newPackedArray(name string, data []byte, width, count int) (*PackedArray, error) {
	if found := len(data) * 8 / width; count > found {
		return nil, pciconf.ArrayLengthError{Name: name, Expected: count, Found: found}
	}
	return &PackedArray{data: data, width: width, count: count}, nil
}

// Count returns the total number of entries.
func (p *PackedArray) Count() int {
	return p.count
}

// Next returns the next entry value. The second return value is false once
// all entries have been consumed.
func (p *PackedArray) Next() (uint8, bool) {
	if p.pos >= p.count {
		return 0, false
	}
	bit := p.pos * p.width
	v := p.data[bit/8] >> (bit % 8) & byte(1<<p.width-1)
	p.pos++
	return v, true
}

// Values drains the remaining entries into a slice.
func (p *PackedArray) Values() []uint8 {
	out := make([]uint8, 0, p.count-p.pos)
	for {
		v, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}
