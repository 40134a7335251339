package extcap

import (
	"github.com/sercanarga/pciconf"
)

// DPC is the Downstream Port Containment capability (ID 001Dh). The RP PIO
// register tail exists only when the port implements the root port
// extensions; the length of its log region is declared by RPPIOLogSize in
// dwords.
type DPC struct {
	InterruptMessageNumber    uint8
	RPExtensions              bool
	PoisonedTLPEgressBlocking bool
	SoftwareTriggering        bool
	RPPIOLogSize              uint8
	DLActiveERRCOR            bool

	TriggerEnable                   uint8
	CompletionControl               bool
	InterruptEnable                 bool
	ERRCOREnable                    bool
	PoisonedTLPEgressBlockingEnable bool
	SoftwareTrigger                 bool
	DLActiveERRCOREnable            bool

	TriggerStatus          bool
	TriggerReason          uint8
	InterruptStatus        bool
	RPBusy                 bool
	TriggerReasonExtension uint8
	RPPIOFirstErrorPointer uint8

	ErrorSourceID uint16

	RPPIO *RPPIO
}

func (DPC) kind() {}

// RPPIO groups the RP PIO registers of a DPC capability with root port
// extensions.
type RPPIO struct {
	Status    uint32
	Mask      uint32
	Severity  uint32
	SysError  uint32
	Exception uint32

	HeaderLog    [4]uint32
	ImpSpecLog   uint32
	TLPPrefixLog []uint32
}

func decodeDPC(data []byte) (Kind, error) {
	const name = "Downstream Port Containment"
	const size = 8
	if err := require(data, name, size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data)

	var d DPC
	d.InterruptMessageNumber = uint8(r.Bits(5))
	d.RPExtensions = r.Bit()
	d.PoisonedTLPEgressBlocking = r.Bit()
	d.SoftwareTriggering = r.Bit()
	d.RPPIOLogSize = uint8(r.Bits(4))
	d.DLActiveERRCOR = r.Bit()
	r.Reserved(3)

	d.TriggerEnable = uint8(r.Bits(2))
	d.CompletionControl = r.Bit()
	d.InterruptEnable = r.Bit()
	d.ERRCOREnable = r.Bit()
	d.PoisonedTLPEgressBlockingEnable = r.Bit()
	d.SoftwareTrigger = r.Bit()
	d.DLActiveERRCOREnable = r.Bit()
	r.Reserved(8)

	d.TriggerStatus = r.Bit()
	d.TriggerReason = uint8(r.Bits(2))
	d.InterruptStatus = r.Bit()
	d.RPBusy = r.Bit()
	d.TriggerReasonExtension = uint8(r.Bits(2))
	r.Reserved(1)
	d.RPPIOFirstErrorPointer = uint8(r.Bits(5))
	r.Reserved(3)

	d.ErrorSourceID = r.U16()
	if err := r.Err(); err != nil {
		return nil, err
	}

	if !d.RPExtensions {
		return d, nil
	}
	logDwords := int(d.RPPIOLogSize)
	tail := 20 + logDwords*4
	if err := require(data, name, size+tail); err != nil {
		return nil, err
	}
	var rp RPPIO
	rp.Status = r.U32()
	rp.Mask = r.U32()
	rp.Severity = r.U32()
	rp.SysError = r.U32()
	rp.Exception = r.U32()
	for i := 0; i < logDwords; i++ {
		switch {
		case i < 4:
			rp.HeaderLog[i] = r.U32()
		case i == 4:
			rp.ImpSpecLog = r.U32()
		default:
			rp.TLPPrefixLog = append(rp.TLPPrefixLog, r.U32())
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	d.RPPIO = &rp
	return d, nil
}
