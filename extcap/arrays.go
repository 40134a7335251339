package extcap

import (
	"github.com/sercanarga/pciconf"
)

// DPA is the Dynamic Power Allocation capability (ID 0016h). It carries
// one power allocation byte per substate, SubstateMax+1 in total.
type DPA struct {
	SubstateMax             uint8
	TransitionLatencyUnit   uint8
	PowerAllocationScale    uint8
	TransitionLatencyValue0 uint8
	TransitionLatencyValue1 uint8

	LatencyIndicator uint32

	SubstateStatus         uint8
	SubstateControlEnabled bool
	SubstateControl        uint8

	PowerAllocations []uint8
}

func (DPA) kind() {}

func decodeDPA(data []byte) (Kind, error) {
	const name = "Dynamic Power Allocation"
	const size = 12
	if err := require(data, name, size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data)

	var d DPA
	d.SubstateMax = uint8(r.Bits(5))
	r.Reserved(3)
	d.TransitionLatencyUnit = uint8(r.Bits(2))
	r.Reserved(2)
	d.PowerAllocationScale = uint8(r.Bits(2))
	r.Reserved(2)
	d.TransitionLatencyValue0 = r.U8()
	d.TransitionLatencyValue1 = r.U8()

	d.LatencyIndicator = r.U32()

	d.SubstateStatus = uint8(r.Bits(5))
	r.Reserved(3)
	d.SubstateControlEnabled = r.Bit()
	r.Reserved(7)
	d.SubstateControl = uint8(r.Bits(5))
	r.Reserved(11)
	if err := r.Err(); err != nil {
		return nil, err
	}

	count := int(d.SubstateMax) + 1
	arr, err := newPackedArray("DPA power allocation array", data[size:], 8, count)
	if err != nil {
		return nil, err
	}
	d.PowerAllocations = arr.Values()
	return d, nil
}

// TPHRequester is the TPH Requester capability (ID 0017h). The steering
// tag table is part of the capability only when STTableLocation reports
// it there; its declared size is the encoded entry count minus one.
type TPHRequester struct {
	NoSTMode            bool
	InterruptVectorMode bool
	DeviceSpecificMode  bool
	ExtendedTPH         bool
	STTableLocation     uint8
	STTableSize         uint16

	STModeSelect    uint8
	RequesterEnable uint8

	STTable []STEntry
}

func (TPHRequester) kind() {}

// STEntry is one steering tag table entry.
type STEntry struct {
	Lower uint8
	Upper uint8
}

// ST table locations reported by STTableLocation.
const (
	STTableNotPresent   = 0
	STTableInCapability = 1
	STTableInMSIX       = 2
)

func decodeTPHRequester(data []byte) (Kind, error) {
	const name = "TPH Requester"
	const size = 8
	if err := require(data, name, size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data)

	var t TPHRequester
	t.NoSTMode = r.Bit()
	t.InterruptVectorMode = r.Bit()
	t.DeviceSpecificMode = r.Bit()
	r.Reserved(5)
	t.ExtendedTPH = r.Bit()
	t.STTableLocation = uint8(r.Bits(2))
	r.Reserved(5)
	t.STTableSize = uint16(r.Bits(11))
	r.Reserved(5)

	t.STModeSelect = uint8(r.Bits(3))
	r.Reserved(5)
	t.RequesterEnable = uint8(r.Bits(2))
	r.Reserved(22)
	if err := r.Err(); err != nil {
		return nil, err
	}

	if t.STTableLocation != STTableInCapability {
		return t, nil
	}
	count := int(t.STTableSize) + 1
	if found := (len(data) - size) / 2; count > found {
		return nil, pciconf.ArrayLengthError{Name: "TPH steering tag table", Expected: count, Found: found}
	}
	t.STTable = make([]STEntry, count)
	for i := range t.STTable {
		t.STTable[i] = STEntry{Lower: r.U8(), Upper: r.U8()}
	}
	return t, r.Err()
}

// PMUX is the Protocol Multiplexing capability (ID 001Ah). It carries a
// protocol array whose entry count is declared in the capability register.
type PMUX struct {
	ProtocolArraySize uint8
	Capability        uint32
	Control           uint32
	Status            uint32

	Protocols []PMUXProtocol
}

func (PMUX) kind() {}

// PMUXProtocol is one protocol array entry.
type PMUXProtocol struct {
	Protocol  uint16
	Authority uint16
}

func decodePMUX(data []byte) (Kind, error) {
	const name = "Protocol Multiplexing"
	const size = 12
	if err := require(data, name, size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data)

	var p PMUX
	p.Capability = r.U32()
	p.Control = r.U32()
	p.Status = r.U32()
	p.ProtocolArraySize = uint8(p.Capability & 0x3F)
	if err := r.Err(); err != nil {
		return nil, err
	}

	count := int(p.ProtocolArraySize)
	if found := (len(data) - size) / 4; count > found {
		return nil, pciconf.ArrayLengthError{Name: "PMUX protocol array", Expected: count, Found: found}
	}
	for i := 0; i < count; i++ {
		p.Protocols = append(p.Protocols, PMUXProtocol{
			Protocol:  r.U16(),
			Authority: r.U16(),
		})
	}
	return p, r.Err()
}

// SecondaryPCIExpress is the Secondary PCI Express capability (ID 0019h).
// The lane equalization control entries cover up to the maximum link
// width; the capability itself does not declare the lane count, so every
// entry the window can hold up to the architectural maximum is decoded.
type SecondaryPCIExpress struct {
	PerformEqualization              bool
	LinkEqualizationRequestInterrupt bool
	LowerSKPOSGenerationVector       uint8

	LaneErrorStatus uint32

	LaneEqualization []LaneEqualization
}

func (SecondaryPCIExpress) kind() {}

// LaneEqualization is one lane equalization control entry.
type LaneEqualization struct {
	DownstreamTransmitterPreset  uint8
	DownstreamReceiverPresetHint uint8
	UpstreamTransmitterPreset    uint8
	UpstreamReceiverPresetHint   uint8
}

const maxLinkWidth = 32

func decodeSecondaryPCIExpress(data []byte) (Kind, error) {
	const name = "Secondary PCI Express"
	const size = 8
	if err := require(data, name, size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data)

	var s SecondaryPCIExpress
	s.PerformEqualization = r.Bit()
	s.LinkEqualizationRequestInterrupt = r.Bit()
	r.Reserved(7)
	s.LowerSKPOSGenerationVector = uint8(r.Bits(7))
	r.Reserved(16)
	s.LaneErrorStatus = r.U32()

	lanes := (len(data) - size) / 2
	if lanes > maxLinkWidth {
		lanes = maxLinkWidth
	}
	for i := 0; i < lanes; i++ {
		var lane LaneEqualization
		lane.DownstreamTransmitterPreset = uint8(r.Bits(4))
		lane.DownstreamReceiverPresetHint = uint8(r.Bits(3))
		r.Reserved(1)
		lane.UpstreamTransmitterPreset = uint8(r.Bits(4))
		lane.UpstreamReceiverPresetHint = uint8(r.Bits(3))
		r.Reserved(1)
		s.LaneEqualization = append(s.LaneEqualization, lane)
	}
	return s, r.Err()
}
