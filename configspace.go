// Package pciconf decodes PCI/PCIe configuration space into typed records.
//
// The package holds the raw configuration space buffer and the shared
// decoding primitives; the capability and extcap packages walk the two
// capability chains embedded in it.
package pciconf

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Size is the full PCIe extended config space size (4KB).
const Size = 4096

// LegacySize is the legacy PCI config space size (256 bytes).
const LegacySize = 256

// Configuration space zones. The device dependent region holds the legacy
// capability chain, the extended configuration space holds the extended
// capability chain.
const (
	// DDROffset is where the device dependent region starts.
	DDROffset = 0x40
	// ECSOffset is where the extended configuration space starts.
	ECSOffset = 0x100
	// DDRLength is the device dependent region length.
	DDRLength = ECSOffset - DDROffset
	// ECSLength is the extended configuration space length.
	ECSLength = Size - ECSOffset
)

// ConfigSpace represents a full PCI/PCIe configuration space (4096 bytes).
type ConfigSpace struct {
	Data [Size]byte
	Size int // actual bytes read (256 or 4096)
}

// New creates an empty ConfigSpace.
func New() *ConfigSpace {
	return &ConfigSpace{Size: Size}
}

// FromBytes creates a ConfigSpace from a byte slice.
func FromBytes(data []byte) *ConfigSpace {
	cs := &ConfigSpace{Size: len(data)}
	if cs.Size > Size {
		cs.Size = Size
	}
	copy(cs.Data[:], data)
	return cs
}

// --- Standard PCI Header (Type 0) accessor methods ---

// VendorID returns the Vendor ID (offset 0x00).
func (cs *ConfigSpace) VendorID() uint16 {
	return binary.LittleEndian.Uint16(cs.Data[0x00:0x02])
}

// DeviceID returns the Device ID (offset 0x02).
func (cs *ConfigSpace) DeviceID() uint16 {
	return binary.LittleEndian.Uint16(cs.Data[0x02:0x04])
}

// Command returns the Command register (offset 0x04).
func (cs *ConfigSpace) Command() uint16 {
	return binary.LittleEndian.Uint16(cs.Data[0x04:0x06])
}

// Status returns the Status register (offset 0x06).
func (cs *ConfigSpace) Status() uint16 {
	return binary.LittleEndian.Uint16(cs.Data[0x06:0x08])
}

// RevisionID returns the Revision ID (offset 0x08).
func (cs *ConfigSpace) RevisionID() uint8 {
	return cs.Data[0x08]
}

// ProgIF returns the Programming Interface (offset 0x09).
func (cs *ConfigSpace) ProgIF() uint8 {
	return cs.Data[0x09]
}

// SubClass returns the Sub-Class code (offset 0x0A).
func (cs *ConfigSpace) SubClass() uint8 {
	return cs.Data[0x0A]
}

// BaseClass returns the Base Class code (offset 0x0B).
func (cs *ConfigSpace) BaseClass() uint8 {
	return cs.Data[0x0B]
}

// ClassCode returns the full 24-bit class code.
func (cs *ConfigSpace) ClassCode() uint32 {
	return uint32(cs.BaseClass())<<16 | uint32(cs.SubClass())<<8 | uint32(cs.ProgIF())
}

// CacheLineSize returns the Cache Line Size (offset 0x0C).
func (cs *ConfigSpace) CacheLineSize() uint8 {
	return cs.Data[0x0C]
}

// LatencyTimer returns the Latency Timer (offset 0x0D).
func (cs *ConfigSpace) LatencyTimer() uint8 {
	return cs.Data[0x0D]
}

// HeaderType returns the Header Type (offset 0x0E).
func (cs *ConfigSpace) HeaderType() uint8 {
	return cs.Data[0x0E]
}

// IsMultiFunction returns true if the device is multi-function.
func (cs *ConfigSpace) IsMultiFunction() bool {
	return (cs.HeaderType() & 0x80) != 0
}

// HeaderLayout returns the header layout type (0, 1, or 2).
func (cs *ConfigSpace) HeaderLayout() uint8 {
	return cs.HeaderType() & 0x7F
}

// BIST returns the Built-In Self Test register (offset 0x0F).
func (cs *ConfigSpace) BIST() uint8 {
	return cs.Data[0x0F]
}

// BAR returns the Base Address Register value at the given index (0-5).
func (cs *ConfigSpace) BAR(index int) uint32 {
	if index < 0 || index > 5 {
		return 0
	}
	offset := 0x10 + (index * 4)
	return binary.LittleEndian.Uint32(cs.Data[offset : offset+4])
}

// SubsysVendorID returns the Subsystem Vendor ID (offset 0x2C).
func (cs *ConfigSpace) SubsysVendorID() uint16 {
	return binary.LittleEndian.Uint16(cs.Data[0x2C:0x2E])
}

// SubsysDeviceID returns the Subsystem Device ID (offset 0x2E).
func (cs *ConfigSpace) SubsysDeviceID() uint16 {
	return binary.LittleEndian.Uint16(cs.Data[0x2E:0x30])
}

// ExpansionROMBase returns the Expansion ROM Base Address (offset 0x30).
func (cs *ConfigSpace) ExpansionROMBase() uint32 {
	return binary.LittleEndian.Uint32(cs.Data[0x30:0x34])
}

// CapabilityPointer returns the Capabilities Pointer (offset 0x34).
func (cs *ConfigSpace) CapabilityPointer() uint8 {
	return cs.Data[0x34]
}

// InterruptLine returns the Interrupt Line (offset 0x3C).
func (cs *ConfigSpace) InterruptLine() uint8 {
	return cs.Data[0x3C]
}

// InterruptPin returns the Interrupt Pin (offset 0x3D).
func (cs *ConfigSpace) InterruptPin() uint8 {
	return cs.Data[0x3D]
}

// HasCapabilities returns true if the device has capabilities (status bit 4).
func (cs *ConfigSpace) HasCapabilities() bool {
	return (cs.Status() & 0x0010) != 0
}

// HasExtendedRegion returns true if the buffer covers the extended
// configuration space.
func (cs *ConfigSpace) HasExtendedRegion() bool {
	return cs.Size > ECSOffset
}

// ReadU8 reads a uint8 from the given offset.
func (cs *ConfigSpace) ReadU8(offset int) uint8 {
	if offset < 0 || offset >= Size {
		return 0
	}
	return cs.Data[offset]
}

// ReadU16 reads a little-endian uint16 from the given offset.
func (cs *ConfigSpace) ReadU16(offset int) uint16 {
	if offset < 0 || offset+1 >= Size {
		return 0
	}
	return binary.LittleEndian.Uint16(cs.Data[offset : offset+2])
}

// ReadU32 reads a little-endian uint32 from the given offset.
func (cs *ConfigSpace) ReadU32(offset int) uint32 {
	if offset < 0 || offset+3 >= Size {
		return 0
	}
	return binary.LittleEndian.Uint32(cs.Data[offset : offset+4])
}

// WriteU8 writes a uint8 at the given offset.
func (cs *ConfigSpace) WriteU8(offset int, val uint8) {
	if offset >= 0 && offset < Size {
		cs.Data[offset] = val
	}
}

// WriteU16 writes a little-endian uint16 at the given offset.
func (cs *ConfigSpace) WriteU16(offset int, val uint16) {
	if offset >= 0 && offset+1 < Size {
		binary.LittleEndian.PutUint16(cs.Data[offset:offset+2], val)
	}
}

// WriteU32 writes a little-endian uint32 at the given offset.
func (cs *ConfigSpace) WriteU32(offset int, val uint32) {
	if offset >= 0 && offset+3 < Size {
		binary.LittleEndian.PutUint32(cs.Data[offset:offset+4], val)
	}
}

// Bytes returns the actual config space data as a byte slice.
func (cs *ConfigSpace) Bytes() []byte {
	return cs.Data[:cs.Size]
}

// DeviceDependentRegion returns the [0x40,0x100) window holding the legacy
// capability chain. The slice aliases the buffer; no copy is made.
func (cs *ConfigSpace) DeviceDependentRegion() []byte {
	end := cs.Size
	if end > ECSOffset {
		end = ECSOffset
	}
	if end <= DDROffset {
		return nil
	}
	return cs.Data[DDROffset:end]
}

// ExtendedRegion returns the [0x100,0x1000) window holding the extended
// capability chain, or nil for a legacy-only buffer. The slice aliases the
// buffer; no copy is made.
func (cs *ConfigSpace) ExtendedRegion() []byte {
	if cs.Size <= ECSOffset {
		return nil
	}
	return cs.Data[ECSOffset:cs.Size]
}

// HexDump returns a hex dump of the config space for debugging.
func (cs *ConfigSpace) HexDump(maxBytes int) string {
	if maxBytes <= 0 || maxBytes > cs.Size {
		maxBytes = cs.Size
	}

	var sb strings.Builder
	for i := 0; i < maxBytes; i += 16 {
		sb.WriteString(fmt.Sprintf("%03x: ", i))
		for j := 0; j < 16 && i+j < maxBytes; j++ {
			sb.WriteString(fmt.Sprintf("%02x ", cs.Data[i+j]))
			if j == 7 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
