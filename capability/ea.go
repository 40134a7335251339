package capability

import (
	"github.com/sercanarga/pciconf"
)

// EnhancedAllocation is the Enhanced Allocation capability (ID 14h). It
// carries a self-describing array of resource range entries; each entry
// declares its own size in dwords and the walk to the next entry uses that
// declared size, not the number of bytes the fields happen to occupy.
type EnhancedAllocation struct {
	NumEntries uint8
	Entries    []EAEntry
}

func (EnhancedAllocation) kind() {}

// EAEntry is one Enhanced Allocation entry. Base and MaxOffset are the
// raw register values with the low indicator bits cleared; the 64-bit
// indicator in each register governs whether an upper dword was present.
type EAEntry struct {
	EntrySize              uint8 // dwords following the entry header
	BAREquivalentIndicator uint8
	PrimaryProperties      uint8
	SecondaryProperties    uint8
	Writable               bool
	Enable                 bool
	Base                   uint64
	Base64Bit              bool
	MaxOffset              uint64
	MaxOffset64Bit         bool
}

func decodeEnhancedAllocation(data []byte) (Kind, error) {
	const name = "Enhanced Allocation"
	if err := require(data, name, 2); err != nil {
		return nil, err
	}
	ea := EnhancedAllocation{NumEntries: data[0] & 0x3F}

	// entries start on the dword boundary after the two-byte header
	pos := 2
	for i := 0; i < int(ea.NumEntries); i++ {
		if err := require(data, name, pos+4); err != nil {
			return nil, err
		}
		r := pciconf.NewBitReader(data[pos:])

		var e EAEntry
		e.EntrySize = uint8(r.Bits(3))
		r.Reserved(1)
		e.BAREquivalentIndicator = uint8(r.Bits(4))
		e.PrimaryProperties = r.U8()
		e.SecondaryProperties = r.U8()
		r.Reserved(6)
		e.Writable = r.Bit()
		e.Enable = r.Bit()

		declared := 4 + int(e.EntrySize)*4
		if len(data)-pos < declared {
			return nil, pciconf.ArrayLengthError{
				Name:     name,
				Expected: int(e.EntrySize),
				Found:    (len(data) - pos - 4) / 4,
			}
		}

		base := uint64(r.U32())
		e.Base64Bit = base&0x2 != 0
		maxOffset := uint64(r.U32())
		e.MaxOffset64Bit = maxOffset&0x2 != 0
		if e.Base64Bit {
			base |= uint64(r.U32()) << 32
		}
		if e.MaxOffset64Bit {
			maxOffset |= uint64(r.U32()) << 32
		}
		if err := r.Err(); err != nil {
			return nil, pciconf.DataError{Name: name, Size: pos + declared}
		}
		e.Base = base &^ 0x3
		e.MaxOffset = maxOffset &^ 0x3

		ea.Entries = append(ea.Entries, e)
		// next entry begins at the declared boundary regardless of the
		// bytes the optional upper dwords consumed
		pos += declared
	}
	return ea, nil
}
