package capability

import (
	"github.com/sercanarga/pciconf"
)

// MSI is the Message Signaled Interrupts capability (ID 05h). The layout
// after the Message Control register depends on two of its flags: a 64-bit
// capable function carries an upper address dword, and per-vector masking
// appends mask and pending registers.
type MSI struct {
	MessageControl MSIControl
	MessageAddress uint64
	MessageData    uint16
	// MaskBits and PendingBits are meaningful only when
	// MessageControl.PerVectorMasking is set.
	MaskBits    uint32
	PendingBits uint32
}

func (MSI) kind() {}

// MSIControl is the MSI Message Control register.
type MSIControl struct {
	Enable                 bool
	MultipleMessageCapable uint8
	MultipleMessageEnable  uint8
	Is64Bit                bool
	PerVectorMasking       bool
}

func decodeMSI(data []byte) (Kind, error) {
	const name = "Message Signaled Interrupts"
	if err := require(data, name, 2); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data)

	var m MSI
	m.MessageControl = MSIControl{
		Enable:                 r.Bit(),
		MultipleMessageCapable: uint8(r.Bits(3)),
		MultipleMessageEnable:  uint8(r.Bits(3)),
		Is64Bit:                r.Bit(),
		PerVectorMasking:       r.Bit(),
	}
	r.Reserved(7)

	size := 8
	if m.MessageControl.Is64Bit {
		size += 4
	}
	if m.MessageControl.PerVectorMasking {
		size += 10 // reserved u16 + mask + pending
	}
	if err := require(data, name, size); err != nil {
		return nil, err
	}

	if m.MessageControl.Is64Bit {
		m.MessageAddress = r.Bits(64)
	} else {
		m.MessageAddress = uint64(r.U32())
	}
	m.MessageData = r.U16()
	if m.MessageControl.PerVectorMasking {
		r.Reserved(16)
		m.MaskBits = r.U32()
		m.PendingBits = r.U32()
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// MSIX is the MSI-X capability (ID 11h).
type MSIX struct {
	MessageControl  MSIXControl
	Table           MSIXRegion
	PendingBitArray MSIXRegion
}

func (MSIX) kind() {}

// MSIXControl is the MSI-X Message Control register. TableSize holds the
// encoded value; the table has TableSize+1 entries.
type MSIXControl struct {
	TableSize    uint16
	FunctionMask bool
	Enable       bool
}

// MSIXRegion locates the MSI-X table or pending bit array inside a BAR.
type MSIXRegion struct {
	BIR    uint8
	Offset uint32 // byte offset, 8-byte aligned
}

func decodeMSIX(data []byte) (Kind, error) {
	const size = 10
	if err := require(data, "MSI-X", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var m MSIX
	m.MessageControl.TableSize = uint16(r.Bits(11))
	r.Reserved(3)
	m.MessageControl.FunctionMask = r.Bit()
	m.MessageControl.Enable = r.Bit()
	m.Table = MSIXRegion{
		BIR:    uint8(r.Bits(3)),
		Offset: uint32(r.Bits(29)) << 3,
	}
	m.PendingBitArray = MSIXRegion{
		BIR:    uint8(r.Bits(3)),
		Offset: uint32(r.Bits(29)) << 3,
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
