package extcap

import (
	"github.com/sercanarga/pciconf"
)

// DeviceSerialNumber is the Device Serial Number capability (ID 0003h).
type DeviceSerialNumber struct {
	SerialNumber uint64
}

func (DeviceSerialNumber) kind() {}

func decodeDeviceSerialNumber(data []byte) (Kind, error) {
	const size = 8
	if err := require(data, "Device Serial Number", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])
	return DeviceSerialNumber{SerialNumber: r.Bits(64)}, r.Err()
}

// PowerBudgeting is the Power Budgeting capability (ID 0004h).
type PowerBudgeting struct {
	DataSelect uint8

	BasePower  uint8
	DataScale  uint8
	PMSubState uint8
	PMState    uint8
	Type       uint8
	PowerRail  uint8

	SystemAllocated bool
}

func (PowerBudgeting) kind() {}

func decodePowerBudgeting(data []byte) (Kind, error) {
	const size = 9
	if err := require(data, "Power Budgeting", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var p PowerBudgeting
	p.DataSelect = r.U8()
	r.Reserved(24)
	p.BasePower = r.U8()
	p.DataScale = uint8(r.Bits(2))
	p.PMSubState = uint8(r.Bits(3))
	p.PMState = uint8(r.Bits(2))
	p.Type = uint8(r.Bits(3))
	p.PowerRail = uint8(r.Bits(3))
	r.Reserved(11)
	p.SystemAllocated = r.Bit()
	r.Reserved(7)
	return p, r.Err()
}

// ARI is the Alternative Routing-ID Interpretation capability (ID 000Eh).
type ARI struct {
	MFVCFunctionGroupsCapable bool
	ACSFunctionGroupsCapable  bool
	NextFunctionNumber        uint8

	MFVCFunctionGroupsEnable bool
	ACSFunctionGroupsEnable  bool
	FunctionGroup            uint8
}

func (ARI) kind() {}

func decodeARI(data []byte) (Kind, error) {
	const size = 4
	if err := require(data, "Alternative Routing-ID Interpretation", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var a ARI
	a.MFVCFunctionGroupsCapable = r.Bit()
	a.ACSFunctionGroupsCapable = r.Bit()
	r.Reserved(6)
	a.NextFunctionNumber = r.U8()
	a.MFVCFunctionGroupsEnable = r.Bit()
	a.ACSFunctionGroupsEnable = r.Bit()
	r.Reserved(2)
	a.FunctionGroup = uint8(r.Bits(3))
	r.Reserved(9)
	return a, r.Err()
}

// ATS is the Address Translation Services capability (ID 000Fh).
type ATS struct {
	InvalidateQueueDepth uint8
	PageAlignedRequest   bool
	GlobalInvalidate     bool

	SmallestTranslationUnit uint8
	Enable                  bool
}

func (ATS) kind() {}

func decodeATS(data []byte) (Kind, error) {
	const size = 4
	if err := require(data, "Address Translation Services", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var a ATS
	a.InvalidateQueueDepth = uint8(r.Bits(5))
	a.PageAlignedRequest = r.Bit()
	a.GlobalInvalidate = r.Bit()
	r.Reserved(9)
	a.SmallestTranslationUnit = uint8(r.Bits(5))
	r.Reserved(10)
	a.Enable = r.Bit()
	return a, r.Err()
}

// PageRequest is the Page Request Interface capability (ID 0013h).
type PageRequest struct {
	Enable bool
	Reset  bool

	ResponseFailure                 bool
	UnexpectedPageRequestGroupIndex bool
	Stopped                         bool
	PRGResponsePASIDRequired        bool

	OutstandingCapacity   uint32
	OutstandingAllocation uint32
}

func (PageRequest) kind() {}

func decodePageRequest(data []byte) (Kind, error) {
	const size = 12
	if err := require(data, "Page Request Interface", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var p PageRequest
	p.Enable = r.Bit()
	p.Reset = r.Bit()
	r.Reserved(14)
	p.ResponseFailure = r.Bit()
	p.UnexpectedPageRequestGroupIndex = r.Bit()
	r.Reserved(6)
	p.Stopped = r.Bit()
	r.Reserved(6)
	p.PRGResponsePASIDRequired = r.Bit()
	p.OutstandingCapacity = r.U32()
	p.OutstandingAllocation = r.U32()
	return p, r.Err()
}

// LTR is the Latency Tolerance Reporting capability (ID 0018h).
type LTR struct {
	MaxSnoopLatency   Latency
	MaxNoSnoopLatency Latency
}

func (LTR) kind() {}

// Latency is an LTR latency register: a value scaled by a power of 32 ns.
type Latency struct {
	Value uint16
	Scale uint8
}

func decodeLTR(data []byte) (Kind, error) {
	const size = 4
	if err := require(data, "Latency Tolerance Reporting", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var l LTR
	l.MaxSnoopLatency = readLatency(r)
	l.MaxNoSnoopLatency = readLatency(r)
	return l, r.Err()
}

func readLatency(r *pciconf.BitReader) Latency {
	lat := Latency{
		Value: uint16(r.Bits(10)),
		Scale: uint8(r.Bits(3)),
	}
	r.Reserved(3)
	return lat
}

// PASID is the Process Address Space ID capability (ID 001Bh).
type PASID struct {
	ExecutePermissionSupported bool
	PrivilegedModeSupported    bool
	MaxPASIDWidth              uint8

	Enable                  bool
	ExecutePermissionEnable bool
	PrivilegedModeEnable    bool
}

func (PASID) kind() {}

func decodePASID(data []byte) (Kind, error) {
	const size = 4
	if err := require(data, "Process Address Space ID", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var p PASID
	r.Reserved(1)
	p.ExecutePermissionSupported = r.Bit()
	p.PrivilegedModeSupported = r.Bit()
	r.Reserved(5)
	p.MaxPASIDWidth = uint8(r.Bits(5))
	r.Reserved(3)
	p.Enable = r.Bit()
	p.ExecutePermissionEnable = r.Bit()
	p.PrivilegedModeEnable = r.Bit()
	r.Reserved(13)
	return p, r.Err()
}

// L1PMSubstates is the L1 PM Substates capability (ID 001Eh).
type L1PMSubstates struct {
	PCIPML12Supported     bool
	PCIPML11Supported     bool
	ASPML12Supported      bool
	ASPML11Supported      bool
	L1PMSupported         bool
	CommonModeRestoreTime uint8
	TPowerOnScale         uint8
	TPowerOnValue         uint8

	PCIPML12Enable             bool
	PCIPML11Enable             bool
	ASPML12Enable              bool
	ASPML11Enable              bool
	CommonModeRestoreTimeValue uint8
	LTRL12ThresholdValue       uint16
	LTRL12ThresholdScale       uint8

	ControlTPowerOnScale uint8
	ControlTPowerOnValue uint8
}

func (L1PMSubstates) kind() {}

func decodeL1PMSubstates(data []byte) (Kind, error) {
	const size = 12
	if err := require(data, "L1 PM Substates", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var l L1PMSubstates
	l.PCIPML12Supported = r.Bit()
	l.PCIPML11Supported = r.Bit()
	l.ASPML12Supported = r.Bit()
	l.ASPML11Supported = r.Bit()
	l.L1PMSupported = r.Bit()
	r.Reserved(3)
	l.CommonModeRestoreTime = r.U8()
	l.TPowerOnScale = uint8(r.Bits(2))
	r.Reserved(1)
	l.TPowerOnValue = uint8(r.Bits(5))
	r.Reserved(8)

	l.PCIPML12Enable = r.Bit()
	l.PCIPML11Enable = r.Bit()
	l.ASPML12Enable = r.Bit()
	l.ASPML11Enable = r.Bit()
	r.Reserved(4)
	l.CommonModeRestoreTimeValue = r.U8()
	l.LTRL12ThresholdValue = uint16(r.Bits(10))
	r.Reserved(3)
	l.LTRL12ThresholdScale = uint8(r.Bits(3))

	l.ControlTPowerOnScale = uint8(r.Bits(2))
	r.Reserved(1)
	l.ControlTPowerOnValue = uint8(r.Bits(5))
	r.Reserved(24)
	return l, r.Err()
}

// PTM is the Precision Time Measurement capability (ID 001Fh).
type PTM struct {
	RequesterCapable      bool
	ResponderCapable      bool
	RootCapable           bool
	LocalClockGranularity uint8

	Enable               bool
	RootSelect           bool
	EffectiveGranularity uint8
}

func (PTM) kind() {}

func decodePTM(data []byte) (Kind, error) {
	const size = 8
	if err := require(data, "Precision Time Measurement", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var p PTM
	p.RequesterCapable = r.Bit()
	p.ResponderCapable = r.Bit()
	p.RootCapable = r.Bit()
	r.Reserved(5)
	p.LocalClockGranularity = r.U8()
	r.Reserved(16)

	p.Enable = r.Bit()
	p.RootSelect = r.Bit()
	r.Reserved(6)
	p.EffectiveGranularity = r.U8()
	r.Reserved(16)
	return p, r.Err()
}
