// Package extcap walks the PCI Express extended capability list in the
// extended configuration space and decodes each entry into a typed record.
package extcap

import (
	"github.com/sercanarga/pciconf"
)

// Extended capability IDs per the PCI Express specification.
const (
	IDNull                    = 0x0000
	IDAdvancedErrorReporting  = 0x0001
	IDVirtualChannel          = 0x0002
	IDDeviceSerialNumber      = 0x0003
	IDPowerBudgeting          = 0x0004
	IDRCLinkDeclaration       = 0x0005
	IDRCInternalLinkControl   = 0x0006
	IDRCEventCollectorEPA     = 0x0007
	IDMFVC                    = 0x0008
	IDVirtualChannelMFVC      = 0x0009
	IDRCRBHeader              = 0x000A
	IDVendorSpecificExtended  = 0x000B
	IDCAC                     = 0x000C
	IDACS                     = 0x000D
	IDARI                     = 0x000E
	IDATS                     = 0x000F
	IDSRIOV                   = 0x0010
	IDMRIOV                   = 0x0011
	IDMulticast               = 0x0012
	IDPageRequest             = 0x0013
	IDResizableBAR            = 0x0015
	IDDPA                     = 0x0016
	IDTPHRequester            = 0x0017
	IDLTR                     = 0x0018
	IDSecondaryPCIExpress     = 0x0019
	IDPMUX                    = 0x001A
	IDPASID                   = 0x001B
	IDLNRequester             = 0x001C
	IDDPC                     = 0x001D
	IDL1PMSubstates           = 0x001E
	IDPTM                     = 0x001F
	IDMPCIe                   = 0x0020
	IDFRSQueueing             = 0x0021
	IDReadinessTimeReporting  = 0x0022
	IDDVSEC                   = 0x0023
	IDVFResizableBAR          = 0x0024
	IDDataLinkFeature         = 0x0025
	IDPhysicalLayer16GT       = 0x0026
	IDLaneMargining           = 0x0027
	IDHierarchyID             = 0x0028
	IDNPEM                    = 0x0029
	IDPhysicalLayer32GT       = 0x002A
	IDAlternateProtocol       = 0x002B
	IDSFI                     = 0x002C
)

// Kind is the decoded body of an extended capability.
type Kind interface {
	kind()
}

// ExtendedCapability is one entry of the extended capability list.
type ExtendedCapability struct {
	Offset  uint16 // absolute config space offset of the 4-byte header
	ID      uint16
	Version uint8
	Kind    Kind
}

// Name returns the capability name for display and error context.
func (c *ExtendedCapability) Name() string {
	return Name(c.ID)
}

// Capabilities with no registers this package decodes beyond the header.
type (
	// Null is the null extended capability.
	Null struct{}
	// RCLinkDeclaration is the Root Complex Link Declaration capability.
	RCLinkDeclaration struct{}
	// RCInternalLinkControl is the Root Complex Internal Link Control
	// capability.
	RCInternalLinkControl struct{}
	// RCEventCollectorEPA is the Root Complex Event Collector Endpoint
	// Association capability.
	RCEventCollectorEPA struct{}
	// MRIOV is the Multi-Root I/O Virtualization capability.
	MRIOV struct{}
	// ResizableBAR is the Resizable BAR capability.
	ResizableBAR struct{}
	// LNRequester is the LN Requester capability.
	LNRequester struct{}
	// MPCIe is the M-PCIe capability.
	MPCIe struct{}
	// FRSQueueing is the FRS Queueing capability.
	FRSQueueing struct{}
	// ReadinessTimeReporting is the Readiness Time Reporting capability.
	ReadinessTimeReporting struct{}
	// DVSEC is the Designated Vendor-Specific capability.
	DVSEC struct{}
	// VFResizableBAR is the VF Resizable BAR capability.
	VFResizableBAR struct{}
	// DataLinkFeature is the Data Link Feature capability.
	DataLinkFeature struct{}
	// PhysicalLayer16GT is the Physical Layer 16.0 GT/s capability.
	PhysicalLayer16GT struct{}
	// LaneMargining is the Lane Margining at the Receiver capability.
	LaneMargining struct{}
	// HierarchyID is the Hierarchy ID capability.
	HierarchyID struct{}
	// NPEM is the Native PCIe Enclosure Management capability.
	NPEM struct{}
	// PhysicalLayer32GT is the Physical Layer 32.0 GT/s capability.
	PhysicalLayer32GT struct{}
	// AlternateProtocol is the Alternate Protocol capability.
	AlternateProtocol struct{}
	// SFI is the System Firmware Intermediary capability.
	SFI struct{}
)

func (Null) kind()                   {}
func (RCLinkDeclaration) kind()      {}
func (RCInternalLinkControl) kind()  {}
func (RCEventCollectorEPA) kind()    {}
func (MRIOV) kind()                  {}
func (ResizableBAR) kind()           {}
func (LNRequester) kind()            {}
func (MPCIe) kind()                  {}
func (FRSQueueing) kind()            {}
func (ReadinessTimeReporting) kind() {}
func (DVSEC) kind()                  {}
func (VFResizableBAR) kind()         {}
func (DataLinkFeature) kind()        {}
func (PhysicalLayer16GT) kind()      {}
func (LaneMargining) kind()          {}
func (HierarchyID) kind()            {}
func (NPEM) kind()                   {}
func (PhysicalLayer32GT) kind()      {}
func (AlternateProtocol) kind()      {}
func (SFI) kind()                    {}

// Reserved carries the raw ID of a capability this package does not know.
type Reserved struct {
	ID uint16
}

func (Reserved) kind() {}

type dispatchEntry struct {
	name   string
	decode func(data []byte) (Kind, error)
	// headerInclusive decoders receive the window starting at the
	// capability header instead of the payload after it, because their
	// internal offset fields count from the capability's own start.
	headerInclusive bool
}

func unit(k Kind) func([]byte) (Kind, error) {
	return func([]byte) (Kind, error) { return k, nil }
}

var dispatch = map[uint16]dispatchEntry{
	IDNull:                   {"Null", unit(Null{}), false},
	IDAdvancedErrorReporting: {"Advanced Error Reporting", decodeAER, false},
	IDVirtualChannel:         {"Virtual Channel", decodeVirtualChannel, false},
	IDDeviceSerialNumber:     {"Device Serial Number", decodeDeviceSerialNumber, false},
	IDPowerBudgeting:         {"Power Budgeting", decodePowerBudgeting, false},
	IDRCLinkDeclaration:      {"Root Complex Link Declaration", unit(RCLinkDeclaration{}), false},
	IDRCInternalLinkControl:  {"Root Complex Internal Link Control", unit(RCInternalLinkControl{}), false},
	IDRCEventCollectorEPA:    {"Root Complex Event Collector Endpoint Association", unit(RCEventCollectorEPA{}), false},
	IDMFVC:                   {"Multi-Function Virtual Channel", decodeMFVC, true},
	IDVirtualChannelMFVC:     {"Virtual Channel (MFVC)", decodeVirtualChannel, false},
	IDRCRBHeader:             {"Root Complex Register Block Header", decodeRCRBHeader, true},
	IDVendorSpecificExtended: {"Vendor-Specific Extended", decodeVSEC, false},
	IDCAC:                    {"Configuration Access Correlation", decodeCAC, true},
	IDACS:                    {"Access Control Services", decodeACS, false},
	IDARI:                    {"Alternative Routing-ID Interpretation", decodeARI, false},
	IDATS:                    {"Address Translation Services", decodeATS, false},
	IDSRIOV:                  {"Single Root I/O Virtualization", decodeSRIOV, false},
	IDMRIOV:                  {"Multi-Root I/O Virtualization", unit(MRIOV{}), false},
	IDMulticast:              {"Multicast", decodeMulticast, true},
	IDPageRequest:            {"Page Request Interface", decodePageRequest, false},
	IDResizableBAR:           {"Resizable BAR", unit(ResizableBAR{}), false},
	IDDPA:                    {"Dynamic Power Allocation", decodeDPA, false},
	IDTPHRequester:           {"TPH Requester", decodeTPHRequester, false},
	IDLTR:                    {"Latency Tolerance Reporting", decodeLTR, false},
	IDSecondaryPCIExpress:    {"Secondary PCI Express", decodeSecondaryPCIExpress, false},
	IDPMUX:                   {"Protocol Multiplexing", decodePMUX, false},
	IDPASID:                  {"Process Address Space ID", decodePASID, false},
	IDLNRequester:            {"LN Requester", unit(LNRequester{}), false},
	IDDPC:                    {"Downstream Port Containment", decodeDPC, false},
	IDL1PMSubstates:          {"L1 PM Substates", decodeL1PMSubstates, false},
	IDPTM:                    {"Precision Time Measurement", decodePTM, false},
	IDMPCIe:                  {"M-PCIe", unit(MPCIe{}), false},
	IDFRSQueueing:            {"FRS Queueing", unit(FRSQueueing{}), false},
	IDReadinessTimeReporting: {"Readiness Time Reporting", unit(ReadinessTimeReporting{}), false},
	IDDVSEC:                  {"Designated Vendor-Specific", unit(DVSEC{}), false},
	IDVFResizableBAR:         {"VF Resizable BAR", unit(VFResizableBAR{}), false},
	IDDataLinkFeature:        {"Data Link Feature", unit(DataLinkFeature{}), false},
	IDPhysicalLayer16GT:      {"Physical Layer 16.0 GT/s", unit(PhysicalLayer16GT{}), false},
	IDLaneMargining:          {"Lane Margining at the Receiver", unit(LaneMargining{}), false},
	IDHierarchyID:            {"Hierarchy ID", unit(HierarchyID{}), false},
	IDNPEM:                   {"Native PCIe Enclosure Management", unit(NPEM{}), false},
	IDPhysicalLayer32GT:      {"Physical Layer 32.0 GT/s", unit(PhysicalLayer32GT{}), false},
	IDAlternateProtocol:      {"Alternate Protocol", unit(AlternateProtocol{}), false},
	IDSFI:                    {"System Firmware Intermediary", unit(SFI{}), false},
}

// Name returns a human-readable name for the given extended capability ID.
func Name(id uint16) string {
	if e, ok := dispatch[id]; ok {
		return e.name
	}
	return "Reserved"
}

// require reports a DataError when data cannot hold size bytes.
func require(data []byte, name string, size int) error {
	if len(data) < size {
		return pciconf.DataError{Name: name, Size: size}
	}
	return nil
}
