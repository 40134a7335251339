package capability

import (
	"github.com/sercanarga/pciconf"
)

// PCIExpress is the PCI Express capability (ID 10h). Version 1 carries the
// capabilities register plus the device, link and slot register groups; the
// root port registers follow when present. Capability version 2 appends a
// second register group for each of device, link and slot.
type PCIExpress struct {
	Capabilities ExpressCapabilities
	Device       ExpressDevice
	Link         ExpressLink
	Slot         ExpressSlot
	Root         *ExpressRoot
	Device2      *ExpressDevice2
	Link2        *ExpressLink2
	Slot2        *ExpressSlot2
}

func (PCIExpress) kind() {}

// ExpressCapabilities is the PCI Express Capabilities register.
type ExpressCapabilities struct {
	Version                uint8
	DeviceType             uint8
	SlotImplemented        bool
	InterruptMessageNumber uint8
}

// Device/port type values in ExpressCapabilities.DeviceType.
const (
	DeviceTypeEndpoint             = 0x0
	DeviceTypeLegacyEndpoint       = 0x1
	DeviceTypeRootPort             = 0x4
	DeviceTypeUpstreamPort         = 0x5
	DeviceTypeDownstreamPort       = 0x6
	DeviceTypePCIeToPCIBridge      = 0x7
	DeviceTypePCIToPCIeBridge      = 0x8
	DeviceTypeRCIntegratedEndpoint = 0x9
	DeviceTypeRCEventCollector     = 0xA
)

// ExpressDevice groups the Device Capabilities, Control and Status
// registers.
type ExpressDevice struct {
	MaxPayloadSizeSupported      uint8
	PhantomFunctionsSupported    uint8
	ExtendedTagFieldSupported    bool
	EndpointL0sAcceptableLatency uint8
	EndpointL1AcceptableLatency  uint8
	RoleBasedErrorReporting      bool
	CapturedSlotPowerLimitValue  uint8
	CapturedSlotPowerLimitScale  uint8
	FunctionLevelReset           bool

	CorrectableErrorReporting   bool
	NonFatalErrorReporting      bool
	FatalErrorReporting         bool
	UnsupportedRequestReporting bool
	RelaxedOrdering             bool
	MaxPayloadSize              uint8
	ExtendedTagFieldEnable      bool
	PhantomFunctionsEnable      bool
	AuxPowerPMEnable            bool
	NoSnoop                     bool
	MaxReadRequestSize          uint8
	BridgeConfigRetryOrFLR      bool

	CorrectableErrorDetected   bool
	NonFatalErrorDetected      bool
	FatalErrorDetected         bool
	UnsupportedRequestDetected bool
	AuxPowerDetected           bool
	TransactionsPending        bool
}

// ExpressLink groups the Link Capabilities, Control and Status registers.
type ExpressLink struct {
	MaxLinkSpeed                 uint8
	MaxLinkWidth                 uint8
	ASPMSupport                  uint8
	L0sExitLatency               uint8
	L1ExitLatency                uint8
	ClockPowerManagement         bool
	SurpriseDownErrorReporting   bool
	DataLinkLayerActiveReporting bool
	LinkBandwidthNotification    bool
	ASPMOptionalityCompliance    bool
	PortNumber                   uint8

	ASPMControl                        uint8
	ReadCompletionBoundary             bool
	LinkDisable                        bool
	RetrainLink                        bool
	CommonClockConfiguration           bool
	ExtendedSynch                      bool
	ClockPowerManagementEnable         bool
	HWAutonomousWidthDisable           bool
	BandwidthManagementInterruptEnable bool
	AutonomousBandwidthInterruptEnable bool

	CurrentLinkSpeed          uint8
	NegotiatedLinkWidth       uint8
	LinkTraining              bool
	SlotClockConfiguration    bool
	DataLinkLayerActive       bool
	BandwidthManagementStatus bool
	AutonomousBandwidthStatus bool
}

// ExpressSlot groups the Slot Capabilities, Control and Status registers.
type ExpressSlot struct {
	AttentionButtonPresent     bool
	PowerControllerPresent     bool
	MRLSensorPresent           bool
	AttentionIndicatorPresent  bool
	PowerIndicatorPresent      bool
	HotPlugSurprise            bool
	HotPlugCapable             bool
	SlotPowerLimitValue        uint8
	SlotPowerLimitScale        uint8
	ElectromechanicalInterlock bool
	NoCommandCompleted         bool
	PhysicalSlotNumber         uint16

	AttentionButtonPressedEnable      bool
	PowerFaultDetectedEnable          bool
	MRLSensorChangedEnable            bool
	PresenceDetectChangedEnable       bool
	CommandCompletedEnable            bool
	HotPlugInterruptEnable            bool
	AttentionIndicatorControl         uint8
	PowerIndicatorControl             uint8
	PowerControllerControl            bool
	ElectromechanicalInterlockControl bool
	DataLinkLayerStateChangedEnable   bool

	AttentionButtonPressed           bool
	PowerFaultDetected               bool
	MRLSensorChanged                 bool
	PresenceDetectChanged            bool
	CommandCompleted                 bool
	MRLSensorState                   bool
	PresenceDetectState              bool
	ElectromechanicalInterlockStatus bool
	DataLinkLayerStateChanged        bool
}

// ExpressRoot groups the Root Control, Capabilities and Status registers.
type ExpressRoot struct {
	SystemErrorOnCorrectable    bool
	SystemErrorOnNonFatal       bool
	SystemErrorOnFatal          bool
	PMEInterruptEnable          bool
	CRSSoftwareVisibilityEnable bool
	CRSSoftwareVisibility       bool
	PMERequesterID              uint16
	PMEStatus                   bool
	PMEPending                  bool
}

// ExpressDevice2 groups the Device Capabilities 2, Control 2 and Status 2
// registers. Status 2 is entirely reserved.
type ExpressDevice2 struct {
	CompletionTimeoutRanges  uint8
	CompletionTimeoutDisable bool
	ARIForwardingSupported   bool
	AtomicOpRouting          bool
	AtomicOp32               bool
	AtomicOp64               bool
	CAS128                   bool
	NoROEnabledPRPRPassing   bool
	LTRSupported             bool
	TPHCompleter             uint8
	OBFFSupported            uint8
	ExtendedFmtField         bool
	EndEndTLPPrefix          bool
	MaxEndEndTLPPrefixes     uint8

	CompletionTimeoutValue    uint8
	CompletionTimeoutDisabled bool
	ARIForwardingEnable       bool
	AtomicOpRequesterEnable   bool
	AtomicOpEgressBlocking    bool
	IDORequestEnable          bool
	IDOCompletionEnable       bool
	LTREnable                 bool
	OBFFEnable                uint8
	EndEndTLPPrefixBlocking   bool
}

// ExpressLink2 groups the Link Capabilities 2, Control 2 and Status 2
// registers.
type ExpressLink2 struct {
	SupportedLinkSpeedsVector uint8
	CrosslinkSupported        bool

	TargetLinkSpeed            uint8
	EnterCompliance            bool
	HWAutonomousSpeedDisable   bool
	SelectableDeemphasis       bool
	TransmitMargin             uint8
	EnterModifiedCompliance    bool
	ComplianceSOS              bool
	CompliancePresetDeemphasis uint8

	CurrentDeemphasisLevel  bool
	EqualizationComplete    bool
	EqualizationPhase1      bool
	EqualizationPhase2      bool
	EqualizationPhase3      bool
	LinkEqualizationRequest bool
}

// ExpressSlot2 carries the Slot Capabilities 2, Control 2 and Status 2
// registers, which are entirely reserved in the base specification.
type ExpressSlot2 struct {
	Capabilities uint32
	Control      uint16
	Status       uint16
}

func decodePCIExpress(data []byte) (Kind, error) {
	const name = "PCI Express"
	const requiredSize = 26
	if err := require(data, name, requiredSize); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data)

	var e PCIExpress
	e.Capabilities = ExpressCapabilities{
		Version:                uint8(r.Bits(4)),
		DeviceType:             uint8(r.Bits(4)),
		SlotImplemented:        r.Bit(),
		InterruptMessageNumber: uint8(r.Bits(5)),
	}
	r.Reserved(2)

	readDevice(r, &e.Device)
	readLink(r, &e.Link)
	readSlot(r, &e.Slot)

	v2 := e.Capabilities.Version >= 2
	size := requiredSize
	if v2 {
		size += 8 + 24 // root registers plus the 2-series groups
		if err := require(data, name, size); err != nil {
			return nil, err
		}
	}
	if v2 || len(data) >= requiredSize+8 {
		e.Root = readRoot(r)
	}
	if v2 {
		e.Device2 = readDevice2(r)
		e.Link2 = readLink2(r)
		e.Slot2 = readSlot2(r)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return e, nil
}

func readDevice(r *pciconf.BitReader, d *ExpressDevice) {
	d.MaxPayloadSizeSupported = uint8(r.Bits(3))
	d.PhantomFunctionsSupported = uint8(r.Bits(2))
	d.ExtendedTagFieldSupported = r.Bit()
	d.EndpointL0sAcceptableLatency = uint8(r.Bits(3))
	d.EndpointL1AcceptableLatency = uint8(r.Bits(3))
	r.Reserved(3)
	d.RoleBasedErrorReporting = r.Bit()
	r.Reserved(2)
	d.CapturedSlotPowerLimitValue = r.U8()
	d.CapturedSlotPowerLimitScale = uint8(r.Bits(2))
	d.FunctionLevelReset = r.Bit()
	r.Reserved(3)

	d.CorrectableErrorReporting = r.Bit()
	d.NonFatalErrorReporting = r.Bit()
	d.FatalErrorReporting = r.Bit()
	d.UnsupportedRequestReporting = r.Bit()
	d.RelaxedOrdering = r.Bit()
	d.MaxPayloadSize = uint8(r.Bits(3))
	d.ExtendedTagFieldEnable = r.Bit()
	d.PhantomFunctionsEnable = r.Bit()
	d.AuxPowerPMEnable = r.Bit()
	d.NoSnoop = r.Bit()
	d.MaxReadRequestSize = uint8(r.Bits(3))
	d.BridgeConfigRetryOrFLR = r.Bit()

	d.CorrectableErrorDetected = r.Bit()
	d.NonFatalErrorDetected = r.Bit()
	d.FatalErrorDetected = r.Bit()
	d.UnsupportedRequestDetected = r.Bit()
	d.AuxPowerDetected = r.Bit()
	d.TransactionsPending = r.Bit()
	r.Reserved(10)
}

func readLink(r *pciconf.BitReader, l *ExpressLink) {
	l.MaxLinkSpeed = uint8(r.Bits(4))
	l.MaxLinkWidth = uint8(r.Bits(6))
	l.ASPMSupport = uint8(r.Bits(2))
	l.L0sExitLatency = uint8(r.Bits(3))
	l.L1ExitLatency = uint8(r.Bits(3))
	l.ClockPowerManagement = r.Bit()
	l.SurpriseDownErrorReporting = r.Bit()
	l.DataLinkLayerActiveReporting = r.Bit()
	l.LinkBandwidthNotification = r.Bit()
	l.ASPMOptionalityCompliance = r.Bit()
	r.Reserved(1)
	l.PortNumber = r.U8()

	l.ASPMControl = uint8(r.Bits(2))
	r.Reserved(1)
	l.ReadCompletionBoundary = r.Bit()
	l.LinkDisable = r.Bit()
	l.RetrainLink = r.Bit()
	l.CommonClockConfiguration = r.Bit()
	l.ExtendedSynch = r.Bit()
	l.ClockPowerManagementEnable = r.Bit()
	l.HWAutonomousWidthDisable = r.Bit()
	l.BandwidthManagementInterruptEnable = r.Bit()
	l.AutonomousBandwidthInterruptEnable = r.Bit()
	r.Reserved(4)

	l.CurrentLinkSpeed = uint8(r.Bits(4))
	l.NegotiatedLinkWidth = uint8(r.Bits(6))
	r.Reserved(1)
	l.LinkTraining = r.Bit()
	l.SlotClockConfiguration = r.Bit()
	l.DataLinkLayerActive = r.Bit()
	l.BandwidthManagementStatus = r.Bit()
	l.AutonomousBandwidthStatus = r.Bit()
}

func readSlot(r *pciconf.BitReader, s *ExpressSlot) {
	s.AttentionButtonPresent = r.Bit()
	s.PowerControllerPresent = r.Bit()
	s.MRLSensorPresent = r.Bit()
	s.AttentionIndicatorPresent = r.Bit()
	s.PowerIndicatorPresent = r.Bit()
	s.HotPlugSurprise = r.Bit()
	s.HotPlugCapable = r.Bit()
	s.SlotPowerLimitValue = r.U8()
	s.SlotPowerLimitScale = uint8(r.Bits(2))
	s.ElectromechanicalInterlock = r.Bit()
	s.NoCommandCompleted = r.Bit()
	s.PhysicalSlotNumber = uint16(r.Bits(13))

	s.AttentionButtonPressedEnable = r.Bit()
	s.PowerFaultDetectedEnable = r.Bit()
	s.MRLSensorChangedEnable = r.Bit()
	s.PresenceDetectChangedEnable = r.Bit()
	s.CommandCompletedEnable = r.Bit()
	s.HotPlugInterruptEnable = r.Bit()
	s.AttentionIndicatorControl = uint8(r.Bits(2))
	s.PowerIndicatorControl = uint8(r.Bits(2))
	s.PowerControllerControl = r.Bit()
	s.ElectromechanicalInterlockControl = r.Bit()
	s.DataLinkLayerStateChangedEnable = r.Bit()
	r.Reserved(3)

	s.AttentionButtonPressed = r.Bit()
	s.PowerFaultDetected = r.Bit()
	s.MRLSensorChanged = r.Bit()
	s.PresenceDetectChanged = r.Bit()
	s.CommandCompleted = r.Bit()
	s.MRLSensorState = r.Bit()
	s.PresenceDetectState = r.Bit()
	s.ElectromechanicalInterlockStatus = r.Bit()
	s.DataLinkLayerStateChanged = r.Bit()
	r.Reserved(7)
}

func readRoot(r *pciconf.BitReader) *ExpressRoot {
	var root ExpressRoot
	root.SystemErrorOnCorrectable = r.Bit()
	root.SystemErrorOnNonFatal = r.Bit()
	root.SystemErrorOnFatal = r.Bit()
	root.PMEInterruptEnable = r.Bit()
	root.CRSSoftwareVisibilityEnable = r.Bit()
	r.Reserved(11)
	root.CRSSoftwareVisibility = r.Bit()
	r.Reserved(15)
	root.PMERequesterID = r.U16()
	root.PMEStatus = r.Bit()
	root.PMEPending = r.Bit()
	r.Reserved(14)
	return &root
}

func readDevice2(r *pciconf.BitReader) *ExpressDevice2 {
	var d ExpressDevice2
	d.CompletionTimeoutRanges = uint8(r.Bits(4))
	d.CompletionTimeoutDisable = r.Bit()
	d.ARIForwardingSupported = r.Bit()
	d.AtomicOpRouting = r.Bit()
	d.AtomicOp32 = r.Bit()
	d.AtomicOp64 = r.Bit()
	d.CAS128 = r.Bit()
	d.NoROEnabledPRPRPassing = r.Bit()
	d.LTRSupported = r.Bit()
	d.TPHCompleter = uint8(r.Bits(2))
	r.Reserved(4)
	d.OBFFSupported = uint8(r.Bits(2))
	d.ExtendedFmtField = r.Bit()
	d.EndEndTLPPrefix = r.Bit()
	d.MaxEndEndTLPPrefixes = uint8(r.Bits(2))
	r.Reserved(8)

	d.CompletionTimeoutValue = uint8(r.Bits(4))
	d.CompletionTimeoutDisabled = r.Bit()
	d.ARIForwardingEnable = r.Bit()
	d.AtomicOpRequesterEnable = r.Bit()
	d.AtomicOpEgressBlocking = r.Bit()
	d.IDORequestEnable = r.Bit()
	d.IDOCompletionEnable = r.Bit()
	d.LTREnable = r.Bit()
	r.Reserved(2)
	d.OBFFEnable = uint8(r.Bits(2))
	d.EndEndTLPPrefixBlocking = r.Bit()

	r.Reserved(16) // Device Status 2
	return &d
}

func readLink2(r *pciconf.BitReader) *ExpressLink2 {
	var l ExpressLink2
	r.Reserved(1)
	l.SupportedLinkSpeedsVector = uint8(r.Bits(7))
	l.CrosslinkSupported = r.Bit()
	r.Reserved(23)

	l.TargetLinkSpeed = uint8(r.Bits(4))
	l.EnterCompliance = r.Bit()
	l.HWAutonomousSpeedDisable = r.Bit()
	l.SelectableDeemphasis = r.Bit()
	l.TransmitMargin = uint8(r.Bits(3))
	l.EnterModifiedCompliance = r.Bit()
	l.ComplianceSOS = r.Bit()
	l.CompliancePresetDeemphasis = uint8(r.Bits(4))

	l.CurrentDeemphasisLevel = r.Bit()
	l.EqualizationComplete = r.Bit()
	l.EqualizationPhase1 = r.Bit()
	l.EqualizationPhase2 = r.Bit()
	l.EqualizationPhase3 = r.Bit()
	l.LinkEqualizationRequest = r.Bit()
	r.Reserved(10)
	return &l
}

func readSlot2(r *pciconf.BitReader) *ExpressSlot2 {
	return &ExpressSlot2{
		Capabilities: r.U32(),
		Control:      r.U16(),
		Status:       r.U16(),
	}
}
