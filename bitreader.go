package pciconf

// BitReader extracts consecutive bit fields from a little-endian byte
// sequence, least significant bit first. Register layouts in configuration
// space are specified as bit ranges inside little-endian words; reading the
// fields in ascending bit order over the raw bytes yields the same values
// without assembling the word first.
//
// Errors are sticky: once a read runs past the end of the data, Err reports
// it and all further reads return zero.
type BitReader struct {
	data []byte
	pos  int // bit position
	err  error
}

// NewBitReader returns a BitReader over data.
func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

// Bits consumes n bits (0 < n <= 64) and returns them as a uint64.
func (r *BitReader) Bits(n int) uint64 {
	if r.err != nil {
		return 0
	}
	if n <= 0 || n > 64 || r.pos+n > len(r.data)*8 {
		r.err = errBitsExhausted
		return 0
	}
	var v uint64
	for i := 0; i < n; i++ {
		bit := r.pos + i
		if r.data[bit/8]&(1<<(bit%8)) != 0 {
			v |= 1 << i
		}
	}
	r.pos += n
	return v
}

// Bit consumes a single bit and returns it as a bool.
func (r *BitReader) Bit() bool {
	return r.Bits(1) != 0
}

// U8 consumes 8 bits.
func (r *BitReader) U8() uint8 {
	return uint8(r.Bits(8))
}

// U16 consumes 16 bits.
func (r *BitReader) U16() uint16 {
	return uint16(r.Bits(16))
}

// U32 consumes 32 bits.
func (r *BitReader) U32() uint32 {
	return uint32(r.Bits(32))
}

// Reserved consumes n reserved bits, discarding the value. Reserved fields
// still advance the cursor so the following field lands on the right bit.
func (r *BitReader) Reserved(n int) {
	r.Bits(n)
}

// Consumed returns the number of whole bytes consumed so far, rounding a
// partial byte up.
func (r *BitReader) Consumed() int {
	return (r.pos + 7) / 8
}

// Err returns the first error encountered, or nil.
func (r *BitReader) Err() error {
	return r.err
}
