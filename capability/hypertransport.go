package capability

import (
	"github.com/sercanarga/pciconf"
)

// Hypertransport is the HyperTransport capability (ID 08h). The upper bits
// of its command register select which of several register sets follows:
// interface capabilities use a 3-bit type code, the rest a 5-bit one.
type Hypertransport struct {
	Kind HTKind
}

func (Hypertransport) kind() {}

// HTKind is the decoded HyperTransport capability body.
type HTKind interface {
	htKind()
}

// HTSlavePrimary is the Slave/Primary Interface register set (type 000xxb).
type HTSlavePrimary struct {
	Command               HTSlaveCommand
	LinkControl0          HTLinkControl
	LinkConfig0           HTLinkConfig
	LinkControl1          HTLinkControl
	LinkConfig1           HTLinkConfig
	Revision              HTRevisionID
	LinkFreq0             uint8
	LinkError0            HTLinkError
	LinkFreqCap0          uint16
	Feature               HTFeature
	LinkFreq1             uint8
	LinkError1            HTLinkError
	LinkFreqCap1          uint16
	EnumerationScratchpad uint16
	ErrorHandling         HTErrorHandling
	MemBaseUpper          uint8
	MemLimitUpper         uint8
	BusNumber             uint8
}

// HTSlaveCommand is the Slave/Primary command register.
type HTSlaveCommand struct {
	BaseUnitID              uint8
	UnitCount               uint8
	MasterHost              bool
	DefaultDirection        bool
	DropOnUninitializedLink bool
}

// HTHostSecondary is the Host/Secondary Interface register set
// (type 001xxb).
type HTHostSecondary struct {
	Command               HTHostCommand
	LinkControl           HTLinkControl
	LinkConfig            HTLinkConfig
	Revision              HTRevisionID
	LinkFreq              uint8
	LinkError             HTLinkError
	LinkFreqCap           uint16
	Feature               HTFeature
	EnumerationScratchpad uint16
	ErrorHandling         HTErrorHandling
	MemBaseUpper          uint8
	MemLimitUpper         uint8
}

// HTHostCommand is the Host/Secondary command register.
type HTHostCommand struct {
	WarmReset                  bool
	DoubleEnded                bool
	DeviceNumber               uint8
	ChainSide                  bool
	HostHide                   bool
	ActAsSlave                 bool
	HostInboundEndOfChainError bool
	DropOnUninitializedLink    bool
}

// HTLinkControl is a Link Control register.
type HTLinkControl struct {
	SourceIDEnable         bool
	CRCFloodEnable         bool
	CRCStartTest           bool
	CRCForceError          bool
	LinkFailure            bool
	InitializationComplete bool
	EndOfChain             bool
	TransmitterOff         bool
	CRCError               uint8
	IsochronousFlowControl bool
	LDTSTOPTristate        bool
	ExtendedCTLTime        bool
	Addressing64Bit        bool
}

// HTLinkConfig is a Link Config register. Width fields use the Link Width
// encoding (000b = 8 bits, 111b = not connected).
type HTLinkConfig struct {
	MaxLinkWidthIn         uint8
	DWFlowControlIn        bool
	MaxLinkWidthOut        uint8
	DWFlowControlOut       bool
	LinkWidthIn            uint8
	DWFlowControlInEnable  bool
	LinkWidthOut           uint8
	DWFlowControlOutEnable bool
}

// HTLinkError is the error half of a Link Freq/Error register.
type HTLinkError struct {
	ProtocolError   bool
	OverflowError   bool
	EndOfChainError bool
	CTLTimeout      bool
}

// HTFeature is the Feature Capability register. The extended register set
// and upstream configuration bits exist only on host interfaces.
type HTFeature struct {
	IsochronousFlowControlMode  bool
	LDTSTOP                     bool
	CRCTestMode                 bool
	ExtendedCTLTimeRequired     bool
	Addressing64Bit             bool
	UnitIDReorderDisable        bool
	SourceIDExtension           bool
	ExtendedRegisterSet         bool
	UpstreamConfigurationEnable bool
}

// HTErrorHandling is the Error Handling register.
type HTErrorHandling struct {
	ProtocolErrorFloodEnable      bool
	OverflowErrorFloodEnable      bool
	ProtocolErrorFatalEnable      bool
	OverflowErrorFatalEnable      bool
	EndOfChainErrorFatalEnable    bool
	ResponseErrorFatalEnable      bool
	CRCErrorFatalEnable           bool
	SystemErrorFatalEnable        bool
	ChainFail                     bool
	ResponseError                 bool
	ProtocolErrorNonfatalEnable   bool
	OverflowErrorNonfatalEnable   bool
	EndOfChainErrorNonfatalEnable bool
	ResponseErrorNonfatalEnable   bool
	CRCErrorNonfatalEnable        bool
	SystemErrorNonfatalEnable     bool
}

// HTRevisionID reports the implemented HyperTransport revision.
type HTRevisionID struct {
	Minor uint8
	Major uint8
}

// HTMSIMapping is the MSI Mapping capability.
type HTMSIMapping struct {
	Enabled     bool
	Fixed       bool
	BaseAddress uint64
}

// HTOther carries the raw command word of a HyperTransport capability type
// this package does not decode further.
type HTOther struct {
	Type    uint8
	Command uint16
}

func (HTSlavePrimary) htKind()  {}
func (HTHostSecondary) htKind() {}
func (HTRevisionID) htKind()    {}
func (HTMSIMapping) htKind()    {}
func (HTOther) htKind()         {}

// HyperTransport capability type codes (command register bits 15:11).
const (
	htTypeRevisionID = 0b10001
	htTypeMSIMapping = 0b10101
)

func decodeHypertransport(data []byte) (Kind, error) {
	const name = "HyperTransport"
	if err := require(data, name, 2); err != nil {
		return nil, err
	}
	command := uint16(data[0]) | uint16(data[1])<<8
	typ := uint8(command >> 11)

	switch {
	case typ>>2 == 0b000:
		k, err := decodeHTSlavePrimary(data)
		if err != nil {
			return nil, err
		}
		return Hypertransport{k}, nil
	case typ>>2 == 0b001:
		k, err := decodeHTHostSecondary(data)
		if err != nil {
			return nil, err
		}
		return Hypertransport{k}, nil
	case typ == htTypeRevisionID:
		r := pciconf.NewBitReader(data[:1])
		rev := HTRevisionID{
			Minor: uint8(r.Bits(5)),
			Major: uint8(r.Bits(3)),
		}
		return Hypertransport{rev}, r.Err()
	case typ == htTypeMSIMapping:
		const size = 10
		if err := require(data, name, size); err != nil {
			return nil, err
		}
		r := pciconf.NewBitReader(data[:size])
		m := HTMSIMapping{
			Enabled: r.Bit(),
			Fixed:   r.Bit(),
		}
		r.Reserved(14)
		m.BaseAddress = r.Bits(64)
		return Hypertransport{m}, r.Err()
	default:
		return Hypertransport{HTOther{Type: typ, Command: command}}, nil
	}
}

func decodeHTSlavePrimary(data []byte) (HTKind, error) {
	const size = 26
	if err := require(data, "HyperTransport", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var s HTSlavePrimary
	s.Command = HTSlaveCommand{
		BaseUnitID:              uint8(r.Bits(5)),
		UnitCount:               uint8(r.Bits(5)),
		MasterHost:              r.Bit(),
		DefaultDirection:        r.Bit(),
		DropOnUninitializedLink: r.Bit(),
	}
	r.Reserved(3)
	s.LinkControl0 = readHTLinkControl(r)
	s.LinkConfig0 = readHTLinkConfig(r)
	s.LinkControl1 = readHTLinkControl(r)
	s.LinkConfig1 = readHTLinkConfig(r)
	s.Revision = HTRevisionID{
		Minor: uint8(r.Bits(5)),
		Major: uint8(r.Bits(3)),
	}
	s.LinkFreq0 = uint8(r.Bits(4))
	s.LinkError0 = readHTLinkError(r)
	s.LinkFreqCap0 = r.U16()
	s.Feature = readHTFeature(r, false)
	s.LinkFreq1 = uint8(r.Bits(4))
	s.LinkError1 = readHTLinkError(r)
	s.LinkFreqCap1 = r.U16()
	s.EnumerationScratchpad = r.U16()
	s.ErrorHandling = readHTErrorHandling(r)
	s.MemBaseUpper = r.U8()
	s.MemLimitUpper = r.U8()
	s.BusNumber = r.U8()
	r.Reserved(8)
	return s, r.Err()
}

func decodeHTHostSecondary(data []byte) (HTKind, error) {
	const size = 22
	if err := require(data, "HyperTransport", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var h HTHostSecondary
	h.Command = HTHostCommand{
		WarmReset:    r.Bit(),
		DoubleEnded:  r.Bit(),
		DeviceNumber: uint8(r.Bits(5)),
		ChainSide:    r.Bit(),
		HostHide:     r.Bit(),
	}
	r.Reserved(1)
	h.Command.ActAsSlave = r.Bit()
	h.Command.HostInboundEndOfChainError = r.Bit()
	h.Command.DropOnUninitializedLink = r.Bit()
	r.Reserved(3)
	h.LinkControl = readHTLinkControl(r)
	h.LinkConfig = readHTLinkConfig(r)
	h.Revision = HTRevisionID{
		Minor: uint8(r.Bits(5)),
		Major: uint8(r.Bits(3)),
	}
	h.LinkFreq = uint8(r.Bits(4))
	h.LinkError = readHTLinkError(r)
	h.LinkFreqCap = r.U16()
	h.Feature = readHTFeature(r, true)
	r.Reserved(16)
	h.EnumerationScratchpad = r.U16()
	h.ErrorHandling = readHTErrorHandling(r)
	h.MemBaseUpper = r.U8()
	h.MemLimitUpper = r.U8()
	r.Reserved(16)
	return h, r.Err()
}

func readHTLinkControl(r *pciconf.BitReader) HTLinkControl {
	return HTLinkControl{
		SourceIDEnable:         r.Bit(),
		CRCFloodEnable:         r.Bit(),
		CRCStartTest:           r.Bit(),
		CRCForceError:          r.Bit(),
		LinkFailure:            r.Bit(),
		InitializationComplete: r.Bit(),
		EndOfChain:             r.Bit(),
		TransmitterOff:         r.Bit(),
		CRCError:               uint8(r.Bits(4)),
		IsochronousFlowControl: r.Bit(),
		LDTSTOPTristate:        r.Bit(),
		ExtendedCTLTime:        r.Bit(),
		Addressing64Bit:        r.Bit(),
	}
}

func readHTLinkConfig(r *pciconf.BitReader) HTLinkConfig {
	return HTLinkConfig{
		MaxLinkWidthIn:         uint8(r.Bits(3)),
		DWFlowControlIn:        r.Bit(),
		MaxLinkWidthOut:        uint8(r.Bits(3)),
		DWFlowControlOut:       r.Bit(),
		LinkWidthIn:            uint8(r.Bits(3)),
		DWFlowControlInEnable:  r.Bit(),
		LinkWidthOut:           uint8(r.Bits(3)),
		DWFlowControlOutEnable: r.Bit(),
	}
}

func readHTLinkError(r *pciconf.BitReader) HTLinkError {
	return HTLinkError{
		ProtocolError:   r.Bit(),
		OverflowError:   r.Bit(),
		EndOfChainError: r.Bit(),
		CTLTimeout:      r.Bit(),
	}
}

// readHTFeature consumes one byte on slave interfaces, a full word on host
// interfaces.
func readHTFeature(r *pciconf.BitReader, host bool) HTFeature {
	f := HTFeature{
		IsochronousFlowControlMode: r.Bit(),
		LDTSTOP:                    r.Bit(),
		CRCTestMode:                r.Bit(),
		ExtendedCTLTimeRequired:    r.Bit(),
		Addressing64Bit:            r.Bit(),
		UnitIDReorderDisable:       r.Bit(),
		SourceIDExtension:          r.Bit(),
	}
	r.Reserved(1)
	if host {
		f.ExtendedRegisterSet = r.Bit()
		f.UpstreamConfigurationEnable = r.Bit()
		r.Reserved(6)
	}
	return f
}

func readHTErrorHandling(r *pciconf.BitReader) HTErrorHandling {
	return HTErrorHandling{
		ProtocolErrorFloodEnable:      r.Bit(),
		OverflowErrorFloodEnable:      r.Bit(),
		ProtocolErrorFatalEnable:      r.Bit(),
		OverflowErrorFatalEnable:      r.Bit(),
		EndOfChainErrorFatalEnable:    r.Bit(),
		ResponseErrorFatalEnable:      r.Bit(),
		CRCErrorFatalEnable:           r.Bit(),
		SystemErrorFatalEnable:        r.Bit(),
		ChainFail:                     r.Bit(),
		ResponseError:                 r.Bit(),
		ProtocolErrorNonfatalEnable:   r.Bit(),
		OverflowErrorNonfatalEnable:   r.Bit(),
		EndOfChainErrorNonfatalEnable: r.Bit(),
		ResponseErrorNonfatalEnable:   r.Bit(),
		CRCErrorNonfatalEnable:        r.Bit(),
		SystemErrorNonfatalEnable:     r.Bit(),
	}
}
