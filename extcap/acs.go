package extcap

import (
	"github.com/sercanarga/pciconf"
)

// ACS is the Access Control Services capability (ID 000Dh). When P2P
// egress control is implemented, the capability carries an egress control
// vector of EgressControlVectorSize single-bit entries.
type ACS struct {
	SourceValidation        bool
	TranslationBlocking     bool
	P2PRequestRedirect      bool
	P2PCompletionRedirect   bool
	UpstreamForwarding      bool
	P2PEgressControl        bool
	DirectTranslatedP2P     bool
	EgressControlVectorSize uint8

	SourceValidationEnable      bool
	TranslationBlockingEnable   bool
	P2PRequestRedirectEnable    bool
	P2PCompletionRedirectEnable bool
	UpstreamForwardingEnable    bool
	P2PEgressControlEnable      bool
	DirectTranslatedP2PEnable   bool

	// ECVData is the raw window holding the egress control vector.
	ECVData []byte
}

func (ACS) kind() {}

// EgressControlVector returns a fresh reader over the capability's 1-bit
// egress control entries.
func (a *ACS) EgressControlVector() *PackedArray {
	return &PackedArray{data: a.ECVData, width: 1, count: int(a.EgressControlVectorSize)}
}

func decodeACS(data []byte) (Kind, error) {
	const name = "Access Control Services"
	const size = 4
	if err := require(data, name, size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var a ACS
	a.SourceValidation = r.Bit()
	a.TranslationBlocking = r.Bit()
	a.P2PRequestRedirect = r.Bit()
	a.P2PCompletionRedirect = r.Bit()
	a.UpstreamForwarding = r.Bit()
	a.P2PEgressControl = r.Bit()
	a.DirectTranslatedP2P = r.Bit()
	r.Reserved(1)
	a.EgressControlVectorSize = r.U8()

	a.SourceValidationEnable = r.Bit()
	a.TranslationBlockingEnable = r.Bit()
	a.P2PRequestRedirectEnable = r.Bit()
	a.P2PCompletionRedirectEnable = r.Bit()
	a.UpstreamForwardingEnable = r.Bit()
	a.P2PEgressControlEnable = r.Bit()
	a.DirectTranslatedP2PEnable = r.Bit()
	r.Reserved(9)
	if err := r.Err(); err != nil {
		return nil, err
	}

	ecv, err := newPackedArray("ACS egress control vector", data[size:], 1, int(a.EgressControlVectorSize))
	if err != nil {
		return nil, err
	}
	a.ECVData = ecv.data
	return a, nil
}
