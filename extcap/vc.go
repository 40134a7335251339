package extcap

import (
	"github.com/sercanarga/pciconf"
)

// VirtualChannel is the Virtual Channel capability (IDs 0002h and 0009h).
// The capability carries one resource block per extended VC, plus
// arbitration tables of packed sub-byte phase entries located by
// dword-granular offsets from the capability start.
type VirtualChannel struct {
	ExtendedVCCount               uint8
	LowPriorityExtendedVCCount    uint8
	ReferenceClock                uint8
	PortArbitrationTableEntrySize uint8

	VCArbitrationCapability  uint8
	VCArbitrationTableOffset uint8

	LoadVCArbitrationTable   bool
	VCArbitrationSelect      uint8
	VCArbitrationTableStatus bool

	// VCArbitrationTable holds the 4-bit phase entries selected by
	// VCArbitrationSelect; empty when arbitration is hardware-fixed.
	VCArbitrationTable []uint8

	Resources []VCResource
}

func (VirtualChannel) kind() {}

// VCResource is one VC resource block.
type VCResource struct {
	PortArbitrationCapability  uint8
	RejectSnoopTransactions    bool
	MaximumTimeSlots           uint8
	PortArbitrationTableOffset uint8

	TCVCMap                  uint8
	LoadPortArbitrationTable bool
	PortArbitrationSelect    uint8
	VCID                     uint8
	Enable                   bool

	PortArbitrationTableStatus bool
	VCNegotiationPending       bool

	PortArbitrationTable []uint8
}

// MFVC is the Multi-Function Virtual Channel capability (ID 0008h). It has
// the Virtual Channel register layout with function arbitration in place
// of port arbitration; its window includes the capability header.
type MFVC struct {
	VirtualChannel
}

func (MFVC) kind() {}

func decodeVirtualChannel(data []byte) (Kind, error) {
	vc, err := decodeVCCore("Virtual Channel", data, 0)
	if err != nil {
		return nil, err
	}
	return vc, nil
}

func decodeMFVC(window []byte) (Kind, error) {
	vc, err := decodeVCCore("Multi-Function Virtual Channel", window, 4)
	if err != nil {
		return nil, err
	}
	return MFVC{vc}, nil
}

// decodeVCCore decodes the shared VC register layout. hdr is the position
// of the first register inside window: 4 when the window includes the
// capability header, 0 when it starts at the payload. Arbitration table
// offsets count from the capability start, hdr-4 inside the window.
func decodeVCCore(name string, window []byte, hdr int) (VirtualChannel, error) {
	var vc VirtualChannel
	if err := require(window, name, hdr+12); err != nil {
		return vc, err
	}
	r := pciconf.NewBitReader(window[hdr:])

	vc.ExtendedVCCount = uint8(r.Bits(3))
	r.Reserved(1)
	vc.LowPriorityExtendedVCCount = uint8(r.Bits(3))
	r.Reserved(1)
	vc.ReferenceClock = uint8(r.Bits(2))
	vc.PortArbitrationTableEntrySize = uint8(r.Bits(2))
	r.Reserved(20)

	vc.VCArbitrationCapability = r.U8()
	r.Reserved(16)
	vc.VCArbitrationTableOffset = r.U8()

	vc.LoadVCArbitrationTable = r.Bit()
	vc.VCArbitrationSelect = uint8(r.Bits(3))
	r.Reserved(12)
	vc.VCArbitrationTableStatus = r.Bit()
	r.Reserved(15)

	resources := int(vc.ExtendedVCCount) + 1
	if err := require(window, name, hdr+12+resources*12); err != nil {
		return vc, err
	}
	for i := 0; i < resources; i++ {
		res, err := readVCResource(r)
		if err != nil {
			return vc, err
		}
		vc.Resources = append(vc.Resources, res)
	}

	capStart := hdr - 4
	if n := arbitrationPhases(vc.VCArbitrationSelect); n > 0 && vc.VCArbitrationTableOffset != 0 {
		table, err := readArbitrationTable(name+" arbitration table", window,
			capStart+int(vc.VCArbitrationTableOffset)*0x10, 4, n)
		if err != nil {
			return vc, err
		}
		vc.VCArbitrationTable = table
	}
	entryBits := 1 << vc.PortArbitrationTableEntrySize
	for i := range vc.Resources {
		res := &vc.Resources[i]
		n := portArbitrationPhases(res.PortArbitrationSelect)
		if n == 0 || res.PortArbitrationTableOffset == 0 {
			continue
		}
		table, err := readArbitrationTable(name+" port arbitration table", window,
			capStart+int(res.PortArbitrationTableOffset)*0x10, entryBits, n)
		if err != nil {
			return vc, err
		}
		res.PortArbitrationTable = table
	}
	return vc, nil
}

func readVCResource(r *pciconf.BitReader) (VCResource, error) {
	var res VCResource
	res.PortArbitrationCapability = r.U8()
	r.Reserved(6)
	res.RejectSnoopTransactions = r.Bit()
	r.Reserved(1)
	res.MaximumTimeSlots = uint8(r.Bits(7))
	r.Reserved(1)
	res.PortArbitrationTableOffset = r.U8()

	res.TCVCMap = r.U8()
	r.Reserved(8)
	res.LoadPortArbitrationTable = r.Bit()
	res.PortArbitrationSelect = uint8(r.Bits(3))
	r.Reserved(4)
	res.VCID = uint8(r.Bits(3))
	r.Reserved(4)
	res.Enable = r.Bit()

	r.Reserved(16)
	res.PortArbitrationTableStatus = r.Bit()
	res.VCNegotiationPending = r.Bit()
	r.Reserved(14)
	return res, r.Err()
}

func readArbitrationTable(name string, window []byte, start, entryBits, phases int) ([]uint8, error) {
	if start < 0 || start > len(window) {
		return nil, pciconf.ArrayLengthError{Name: name, Expected: phases, Found: 0}
	}
	arr, err := newPackedArray(name, window[start:], entryBits, phases)
	if err != nil {
		return nil, err
	}
	return arr.Values(), nil
}

// arbitrationPhases maps a VC arbitration select value to its table length.
func arbitrationPhases(sel uint8) int {
	switch sel {
	case 1:
		return 32
	case 2:
		return 64
	case 3:
		return 128
	default:
		return 0
	}
}

// portArbitrationPhases maps a port arbitration select value to its table
// length.
func portArbitrationPhases(sel uint8) int {
	switch sel {
	case 1:
		return 32
	case 2:
		return 64
	case 3, 4:
		return 128
	case 5:
		return 256
	default:
		return 0
	}
}
