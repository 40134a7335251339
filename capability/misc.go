package capability

import (
	"github.com/sercanarga/pciconf"
)

// VPD is the Vital Product Data capability (ID 03h).
type VPD struct {
	Address           uint16
	TransferCompleted bool
	Data              uint32
}

func (VPD) kind() {}

func decodeVPD(data []byte) (Kind, error) {
	const size = 6
	if err := require(data, "Vital Product Data", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])
	v := VPD{
		Address:           uint16(r.Bits(15)),
		TransferCompleted: r.Bit(),
		Data:              r.U32(),
	}
	return v, r.Err()
}

// SlotIdentification is the Slot Identification capability (ID 04h).
type SlotIdentification struct {
	ExpansionSlots uint8
	FirstInChassis bool
	ChassisNumber  uint8
}

func (SlotIdentification) kind() {}

func decodeSlotIdentification(data []byte) (Kind, error) {
	const size = 2
	if err := require(data, "Slot Identification", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])
	s := SlotIdentification{
		ExpansionSlots: uint8(r.Bits(5)),
		FirstInChassis: r.Bit(),
	}
	r.Reserved(2)
	s.ChassisNumber = r.U8()
	return s, r.Err()
}

// VendorSpecific is the Vendor Specific capability (ID 09h). Its single
// defined register is a length byte counting the whole capability,
// including the two-byte header and the length byte itself; everything
// after it is vendor defined.
type VendorSpecific struct {
	Length uint8
	Data   []byte
}

func (VendorSpecific) kind() {}

func decodeVendorSpecific(data []byte) (Kind, error) {
	const name = "Vendor Specific"
	if err := require(data, name, 1); err != nil {
		return nil, err
	}
	length := data[0]
	if length < 3 {
		return nil, pciconf.DataError{Name: name, Size: 3}
	}
	// length counts from the capability header, two bytes before data
	body := int(length) - 2
	if err := require(data, name, body); err != nil {
		return nil, err
	}
	return VendorSpecific{Length: length, Data: data[1:body]}, nil
}

// DebugPort is the Debug Port capability (ID 0Ah).
type DebugPort struct {
	Offset    uint16
	BARNumber uint8
}

func (DebugPort) kind() {}

func decodeDebugPort(data []byte) (Kind, error) {
	const size = 2
	if err := require(data, "Debug Port", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])
	d := DebugPort{
		Offset:    uint16(r.Bits(13)),
		BARNumber: uint8(r.Bits(3)),
	}
	return d, r.Err()
}

// BridgeSubsystemVendorID is the PCI-to-PCI bridge subsystem capability
// (ID 0Dh).
type BridgeSubsystemVendorID struct {
	VendorID uint16
	DeviceID uint16
}

func (BridgeSubsystemVendorID) kind() {}

func decodeBridgeSubsystemVID(data []byte) (Kind, error) {
	const size = 6
	if err := require(data, "Bridge Subsystem Vendor ID", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])
	r.Reserved(16)
	b := BridgeSubsystemVendorID{
		VendorID: r.U16(),
		DeviceID: r.U16(),
	}
	return b, r.Err()
}

// SATA is the SATA Configuration capability (ID 12h). The BAR offset is in
// dword units.
type SATA struct {
	MinorRevision uint8
	MajorRevision uint8
	BARLocation   uint8
	BAROffset     uint32
}

func (SATA) kind() {}

func decodeSATA(data []byte) (Kind, error) {
	const size = 6
	if err := require(data, "SATA Configuration", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])
	s := SATA{
		MinorRevision: uint8(r.Bits(4)),
		MajorRevision: uint8(r.Bits(4)),
	}
	r.Reserved(8)
	s.BARLocation = uint8(r.Bits(4))
	s.BAROffset = uint32(r.Bits(20))
	r.Reserved(8)
	return s, r.Err()
}

// AdvancedFeatures is the Advanced Features capability (ID 13h).
type AdvancedFeatures struct {
	Length              uint8
	TPCapable           bool
	FLRCapable          bool
	InitiateFLR         bool
	TransactionsPending bool
}

func (AdvancedFeatures) kind() {}

func decodeAdvancedFeatures(data []byte) (Kind, error) {
	const size = 4
	if err := require(data, "Advanced Features", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])
	a := AdvancedFeatures{Length: r.U8()}
	a.TPCapable = r.Bit()
	a.FLRCapable = r.Bit()
	r.Reserved(6)
	a.InitiateFLR = r.Bit()
	r.Reserved(7)
	a.TransactionsPending = r.Bit()
	r.Reserved(7)
	return a, r.Err()
}
