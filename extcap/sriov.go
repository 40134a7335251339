package extcap

import (
	"github.com/sercanarga/pciconf"
)

// SRIOV is the Single Root I/O Virtualization capability (ID 0010h).
type SRIOV struct {
	VFMigrationCapable                bool
	ARICapableHierarchyPreserved      bool
	VF10BitTagRequester               bool
	VFMigrationInterruptMessageNumber uint16

	VFEnable                   bool
	VFMigrationEnable          bool
	VFMigrationInterruptEnable bool
	VFMemorySpaceEnable        bool
	ARICapableHierarchy        bool
	VF10BitTagRequesterEnable  bool

	VFMigrationStatus bool

	InitialVFs             uint16
	TotalVFs               uint16
	NumVFs                 uint16
	FunctionDependencyLink uint8
	FirstVFOffset          uint16
	VFStride               uint16
	VFDeviceID             uint16
	SupportedPageSizes     uint32
	SystemPageSize         uint32
	BARs                   [6]uint32

	VFMigrationStateBIR    uint8
	VFMigrationStateOffset uint32
}

func (SRIOV) kind() {}

func decodeSRIOV(data []byte) (Kind, error) {
	const size = 60
	if err := require(data, "Single Root I/O Virtualization", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var s SRIOV
	s.VFMigrationCapable = r.Bit()
	s.ARICapableHierarchyPreserved = r.Bit()
	s.VF10BitTagRequester = r.Bit()
	r.Reserved(18)
	s.VFMigrationInterruptMessageNumber = uint16(r.Bits(11))

	s.VFEnable = r.Bit()
	s.VFMigrationEnable = r.Bit()
	s.VFMigrationInterruptEnable = r.Bit()
	s.VFMemorySpaceEnable = r.Bit()
	s.ARICapableHierarchy = r.Bit()
	s.VF10BitTagRequesterEnable = r.Bit()
	r.Reserved(10)

	s.VFMigrationStatus = r.Bit()
	r.Reserved(15)

	s.InitialVFs = r.U16()
	s.TotalVFs = r.U16()
	s.NumVFs = r.U16()
	s.FunctionDependencyLink = r.U8()
	r.Reserved(8)
	s.FirstVFOffset = r.U16()
	s.VFStride = r.U16()
	r.Reserved(16)
	s.VFDeviceID = r.U16()
	s.SupportedPageSizes = r.U32()
	s.SystemPageSize = r.U32()
	for i := range s.BARs {
		s.BARs[i] = r.U32()
	}
	s.VFMigrationStateBIR = uint8(r.Bits(3))
	s.VFMigrationStateOffset = uint32(r.Bits(29)) << 3
	return s, r.Err()
}
