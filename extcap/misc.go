package extcap

import (
	"github.com/sercanarga/pciconf"
)

// VSEC is the Vendor-Specific Extended capability (ID 000Bh). The declared
// length counts the whole capability from its header; everything after the
// vendor-specific header is vendor defined.
type VSEC struct {
	VendorCapabilityID uint16
	Revision           uint8
	Length             uint16
	Data               []byte
}

func (VSEC) kind() {}

func decodeVSEC(data []byte) (Kind, error) {
	const name = "Vendor-Specific Extended"
	if err := require(data, name, 4); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:4])

	v := VSEC{
		VendorCapabilityID: r.U16(),
		Revision:           uint8(r.Bits(4)),
		Length:             uint16(r.Bits(12)),
	}
	if v.Length < 8 {
		return nil, pciconf.DataError{Name: name, Size: 8}
	}
	// length counts from the extended capability header, four bytes
	// before this window
	body := int(v.Length) - 4
	if err := require(data, name, body); err != nil {
		return nil, err
	}
	v.Data = data[4:body]
	return v, nil
}

// RCRBHeader is the Root Complex Register Block Header capability
// (ID 000Ah). Its window includes the capability header.
type RCRBHeader struct {
	VendorID uint16
	DeviceID uint16

	CRSSoftwareVisibility       bool
	CRSSoftwareVisibilityEnable bool
}

func (RCRBHeader) kind() {}

func decodeRCRBHeader(window []byte) (Kind, error) {
	const size = 20 // header-inclusive
	if err := require(window, "Root Complex Register Block Header", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(window[4:size])

	var h RCRBHeader
	h.VendorID = r.U16()
	h.DeviceID = r.U16()
	h.CRSSoftwareVisibility = r.Bit()
	r.Reserved(31)
	h.CRSSoftwareVisibilityEnable = r.Bit()
	r.Reserved(31)
	return h, r.Err()
}

// CAC is the Configuration Access Correlation capability (ID 000Ch). Its
// window includes the capability header.
type CAC struct {
	Register uint32
}

func (CAC) kind() {}

func decodeCAC(window []byte) (Kind, error) {
	const size = 8 // header-inclusive
	if err := require(window, "Configuration Access Correlation", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(window[4:size])
	return CAC{Register: r.U32()}, r.Err()
}

// Multicast is the Multicast capability (ID 0012h). Its window includes
// the capability header. The overlay BAR exists only on endpoints and is
// decoded when the window extends far enough to hold it.
type Multicast struct {
	MaxGroup            uint8
	WindowSizeRequested uint8
	ECRCRegeneration    bool

	NumGroup uint8
	Enable   bool

	IndexPosition uint8
	BaseAddress   uint64

	Receive           uint64
	BlockAll          uint64
	BlockUntranslated uint64

	Overlay *MulticastOverlay
}

func (Multicast) kind() {}

// MulticastOverlay is the optional overlay BAR register.
type MulticastOverlay struct {
	Size uint8
	BAR  uint64
}

func decodeMulticast(window []byte) (Kind, error) {
	const name = "Multicast"
	const size = 40        // header-inclusive, without the overlay BAR
	const overlaySize = 48 // with the overlay BAR
	if err := require(window, name, size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(window[4:])

	var m Multicast
	m.MaxGroup = uint8(r.Bits(6))
	r.Reserved(2)
	m.WindowSizeRequested = uint8(r.Bits(6))
	r.Reserved(1)
	m.ECRCRegeneration = r.Bit()
	m.NumGroup = uint8(r.Bits(6))
	r.Reserved(9)
	m.Enable = r.Bit()

	m.IndexPosition = uint8(r.Bits(6))
	r.Reserved(6)
	m.BaseAddress = r.Bits(52) << 12

	m.Receive = r.Bits(64)
	m.BlockAll = r.Bits(64)
	m.BlockUntranslated = r.Bits(64)

	if len(window) >= overlaySize {
		overlay := MulticastOverlay{
			Size: uint8(r.Bits(6)),
			BAR:  r.Bits(58) << 6,
		}
		m.Overlay = &overlay
	}
	return m, r.Err()
}
