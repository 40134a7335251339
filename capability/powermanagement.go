package capability

import (
	"github.com/sercanarga/pciconf"
)

// PowerManagement is the Power Management Interface capability (ID 01h).
type PowerManagement struct {
	Capabilities PMCapabilities
	Control      PMControl
	Bridge       PMBridge
	Data         uint8
}

func (PowerManagement) kind() {}

// PMCapabilities is the PMC register.
type PMCapabilities struct {
	Version                        uint8
	PMEClock                       bool
	ImmediateReadinessOnReturnToD0 bool
	DeviceSpecificInitialization   bool
	AuxCurrent                     uint8
	D1Support                      bool
	D2Support                      bool
	PMESupport                     PMESupport
}

// PMESupport lists the power states from which PME# can be asserted.
type PMESupport struct {
	D0     bool
	D1     bool
	D2     bool
	D3Hot  bool
	D3Cold bool
}

// PMControl is the PMCSR register.
type PMControl struct {
	PowerState  uint8
	NoSoftReset bool
	PMEEnabled  bool
	DataSelect  uint8
	DataScale   uint8
	PMEStatus   bool
}

// PMBridge is the PMCSR_BSE bridge support extensions register.
type PMBridge struct {
	B2B3                        bool
	BusPowerClockControlEnabled bool
}

func decodePowerManagement(data []byte) (Kind, error) {
	const size = 6
	if err := require(data, "Power Management Interface", size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data[:size])

	var pm PowerManagement
	pm.Capabilities = PMCapabilities{
		Version:                        uint8(r.Bits(3)),
		PMEClock:                       r.Bit(),
		ImmediateReadinessOnReturnToD0: r.Bit(),
		DeviceSpecificInitialization:   r.Bit(),
		AuxCurrent:                     uint8(r.Bits(3)),
		D1Support:                      r.Bit(),
		D2Support:                      r.Bit(),
		PMESupport: PMESupport{
			D0:     r.Bit(),
			D1:     r.Bit(),
			D2:     r.Bit(),
			D3Hot:  r.Bit(),
			D3Cold: r.Bit(),
		},
	}
	pm.Control.PowerState = uint8(r.Bits(2))
	r.Reserved(1)
	pm.Control.NoSoftReset = r.Bit()
	r.Reserved(4)
	pm.Control.PMEEnabled = r.Bit()
	pm.Control.DataSelect = uint8(r.Bits(4))
	pm.Control.DataScale = uint8(r.Bits(2))
	pm.Control.PMEStatus = r.Bit()
	r.Reserved(6)
	pm.Bridge.B2B3 = r.Bit()
	pm.Bridge.BusPowerClockControlEnabled = r.Bit()
	pm.Data = r.U8()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return pm, nil
}
