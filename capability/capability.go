// Package capability walks the legacy PCI capability list in the
// device dependent region and decodes each entry into a typed record.
package capability

import (
	"github.com/sercanarga/pciconf"
)

// Capability IDs per the PCI specification.
const (
	IDNull                   = 0x00
	IDPowerManagement        = 0x01
	IDAGP                    = 0x02
	IDVPD                    = 0x03
	IDSlotIdentification     = 0x04
	IDMSI                    = 0x05
	IDCompactPCIHotSwap      = 0x06
	IDPCIX                   = 0x07
	IDHypertransport         = 0x08
	IDVendorSpecific         = 0x09
	IDDebugPort              = 0x0A
	IDCompactPCIResourceCtl  = 0x0B
	IDHotPlug                = 0x0C
	IDBridgeSubsystemVID     = 0x0D
	IDAGP8x                  = 0x0E
	IDSecureDevice           = 0x0F
	IDPCIExpress             = 0x10
	IDMSIX                   = 0x11
	IDSATA                   = 0x12
	IDAdvancedFeatures       = 0x13
	IDEnhancedAllocation     = 0x14
	IDFlatteningPortalBridge = 0x15
)

// Kind is the decoded body of a capability. The concrete type depends on
// the capability ID; unknown IDs decode to Reserved.
type Kind interface {
	kind()
}

// Capability is one entry of the legacy capability list.
type Capability struct {
	Pointer uint8 // absolute config space offset of this entry
	ID      uint8
	Kind    Kind
}

// Name returns the capability name for display and error context.
func (c *Capability) Name() string {
	return Name(c.ID)
}

// Capabilities with no registers beyond the two-byte header.
type (
	// Null is a placeholder entry inserted to pad the chain.
	Null struct{}
	// CompactPCIHotSwap marks CompactPCI hot swap support.
	CompactPCIHotSwap struct{}
	// CompactPCIResourceControl marks CompactPCI central resource control.
	CompactPCIResourceControl struct{}
	// HotPlug marks standard PCI hot-plug support.
	HotPlug struct{}
	// AGP8x marks AGP 8x support.
	AGP8x struct{}
	// SecureDevice marks a secure device.
	SecureDevice struct{}
	// FlatteningPortalBridge marks a flattening portal bridge.
	FlatteningPortalBridge struct{}
)

func (Null) kind()                      {}
func (CompactPCIHotSwap) kind()         {}
func (CompactPCIResourceControl) kind() {}
func (HotPlug) kind()                   {}
func (AGP8x) kind()                     {}
func (SecureDevice) kind()              {}
func (FlatteningPortalBridge) kind()    {}

// Reserved carries the raw ID of a capability this package does not decode.
type Reserved struct {
	ID uint8
}

func (Reserved) kind() {}

type dispatchEntry struct {
	name   string
	decode func(data []byte) (Kind, error)
}

func unit(k Kind) func([]byte) (Kind, error) {
	return func([]byte) (Kind, error) { return k, nil }
}

var dispatch = map[uint8]dispatchEntry{
	IDNull:                   {"Null", unit(Null{})},
	IDPowerManagement:        {"Power Management Interface", decodePowerManagement},
	IDVPD:                    {"Vital Product Data", decodeVPD},
	IDSlotIdentification:     {"Slot Identification", decodeSlotIdentification},
	IDMSI:                    {"Message Signaled Interrupts", decodeMSI},
	IDCompactPCIHotSwap:      {"CompactPCI Hot Swap", unit(CompactPCIHotSwap{})},
	IDHypertransport:         {"HyperTransport", decodeHypertransport},
	IDVendorSpecific:         {"Vendor Specific", decodeVendorSpecific},
	IDDebugPort:              {"Debug Port", decodeDebugPort},
	IDCompactPCIResourceCtl:  {"CompactPCI Central Resource Control", unit(CompactPCIResourceControl{})},
	IDHotPlug:                {"PCI Hot-Plug", unit(HotPlug{})},
	IDBridgeSubsystemVID:     {"Bridge Subsystem Vendor ID", decodeBridgeSubsystemVID},
	IDAGP8x:                  {"AGP 8x", unit(AGP8x{})},
	IDSecureDevice:           {"Secure Device", unit(SecureDevice{})},
	IDPCIExpress:             {"PCI Express", decodePCIExpress},
	IDMSIX:                   {"MSI-X", decodeMSIX},
	IDSATA:                   {"SATA Configuration", decodeSATA},
	IDAdvancedFeatures:       {"Advanced Features", decodeAdvancedFeatures},
	IDEnhancedAllocation:     {"Enhanced Allocation", decodeEnhancedAllocation},
	IDFlatteningPortalBridge: {"Flattening Portal Bridge", unit(FlatteningPortalBridge{})},
}

// Decode decodes a capability payload by ID. Unknown IDs never fail; they
// produce Reserved carrying the raw ID.
func Decode(id uint8, payload []byte) (Kind, error) {
	if e, ok := dispatch[id]; ok {
		return e.decode(payload)
	}
	return Reserved{ID: id}, nil
}

// Name returns a human-readable capability name for the given ID.
func Name(id uint8) string {
	if e, ok := dispatch[id]; ok {
		return e.name
	}
	switch id {
	case IDAGP:
		return "AGP"
	case IDPCIX:
		return "PCI-X"
	default:
		return "Reserved"
	}
}

// require reports a DataError when data cannot hold size bytes.
func require(data []byte, name string, size int) error {
	if len(data) < size {
		return pciconf.DataError{Name: name, Size: size}
	}
	return nil
}
