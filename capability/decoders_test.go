package capability

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sercanarga/pciconf"
)

func TestDecodePowerManagement(t *testing.T) {
	got, err := Decode(IDPowerManagement, pmPayload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := PowerManagement{
		Capabilities: PMCapabilities{
			Version:                      3,
			DeviceSpecificInitialization: true,
			AuxCurrent:                   2,
			D1Support:                    true,
			PMESupport:                   PMESupport{D0: true, D3Hot: true, D3Cold: true},
		},
		Control: PMControl{
			PowerState:  2,
			NoSoftReset: true,
			PMEEnabled:  true,
			PMEStatus:   true,
		},
		Bridge: PMBridge{B2B3: true, BusPowerClockControlEnabled: true},
		Data:   0x55,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PowerManagement mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodePowerManagementShort(t *testing.T) {
	_, err := Decode(IDPowerManagement, []byte{0xA3, 0xCA})
	var de pciconf.DataError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DataError", err)
	}
	if de.Size != 6 {
		t.Errorf("DataError.Size = %d, want 6", de.Size)
	}
	if de.Name != "Power Management Interface" {
		t.Errorf("DataError.Name = %q, want %q", de.Name, "Power Management Interface")
	}
}

func TestDecodeMSI64BitWithMasking(t *testing.T) {
	payload := []byte{
		0x95, 0x01, // control: enable, MMC=2, MME=1, 64-bit, per-vector masking
		0x78, 0x56, 0x34, 0x12, // address low
		0xCD, 0xAB, 0x00, 0x00, // address high
		0xEF, 0xBE, // data
		0x00, 0x00, // reserved
		0x0F, 0x0F, 0x0F, 0x0F, // mask
		0xF0, 0xF0, 0xF0, 0xF0, // pending
	}
	got, err := Decode(IDMSI, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := MSI{
		MessageControl: MSIControl{
			Enable:                 true,
			MultipleMessageCapable: 2,
			MultipleMessageEnable:  1,
			Is64Bit:                true,
			PerVectorMasking:       true,
		},
		MessageAddress: 0x0000ABCD12345678,
		MessageData:    0xBEEF,
		MaskBits:       0x0F0F0F0F,
		PendingBits:    0xF0F0F0F0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MSI mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMSI32BitPlain(t *testing.T) {
	payload := []byte{
		0x01, 0x00, // control: enable only
		0xFE, 0xFF, 0xE0, 0xFE, // address
		0x34, 0x12, // data
	}
	got, err := Decode(IDMSI, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	m, ok := got.(MSI)
	if !ok {
		t.Fatalf("Decode() = %T, want MSI", got)
	}
	if m.MessageAddress != 0xFEE0FFFE {
		t.Errorf("MessageAddress = 0x%08x, want 0xFEE0FFFE", m.MessageAddress)
	}
	if m.MessageData != 0x1234 {
		t.Errorf("MessageData = 0x%04x, want 0x1234", m.MessageData)
	}
	if m.MaskBits != 0 || m.PendingBits != 0 {
		t.Error("mask/pending set without per-vector masking")
	}
}

func TestDecodeMSIX(t *testing.T) {
	payload := []byte{
		0x0F, 0xC0, // control: table size 15, function mask, enable
		0x02, 0x20, 0x00, 0x00, // table: BIR 2, offset 0x2000
		0x03, 0x30, 0x00, 0x00, // PBA: BIR 3, offset 0x3000
	}
	got, err := Decode(IDMSIX, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := MSIX{
		MessageControl:  MSIXControl{TableSize: 15, FunctionMask: true, Enable: true},
		Table:           MSIXRegion{BIR: 2, Offset: 0x2000},
		PendingBitArray: MSIXRegion{BIR: 3, Offset: 0x3000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MSIX mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeVPD(t *testing.T) {
	payload := []byte{0x34, 0x92, 0xDD, 0xCC, 0xBB, 0xAA}
	got, err := Decode(IDVPD, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := VPD{Address: 0x1234, TransferCompleted: true, Data: 0xAABBCCDD}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("VPD mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeVendorSpecific(t *testing.T) {
	payload := []byte{0x06, 0xDE, 0xAD, 0xBE, 0xFF, 0xFF}
	got, err := Decode(IDVendorSpecific, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	vs, ok := got.(VendorSpecific)
	if !ok {
		t.Fatalf("Decode() = %T, want VendorSpecific", got)
	}
	if vs.Length != 6 {
		t.Errorf("Length = %d, want 6", vs.Length)
	}
	if diff := cmp.Diff([]byte{0xDE, 0xAD, 0xBE}, vs.Data); diff != "" {
		t.Errorf("Data mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeVendorSpecificBadLength(t *testing.T) {
	if _, err := Decode(IDVendorSpecific, []byte{0x02}); err == nil {
		t.Error("Decode() error = nil for a length below the header size")
	}
	if _, err := Decode(IDVendorSpecific, []byte{0x20, 0x00}); err == nil {
		t.Error("Decode() error = nil for a length past the window")
	}
}

func TestDecodeHypertransportRevisionID(t *testing.T) {
	// revision 3.1, type code 10001b in the command high bits
	payload := []byte{0x61, 0x88}
	got, err := Decode(IDHypertransport, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	ht, ok := got.(Hypertransport)
	if !ok {
		t.Fatalf("Decode() = %T, want Hypertransport", got)
	}
	rev, ok := ht.Kind.(HTRevisionID)
	if !ok {
		t.Fatalf("Kind = %T, want HTRevisionID", ht.Kind)
	}
	if rev.Major != 3 || rev.Minor != 1 {
		t.Errorf("revision = %d.%d, want 3.1", rev.Major, rev.Minor)
	}
}

func TestDecodeHypertransportSlavePrimary(t *testing.T) {
	payload := []byte{
		0x83, 0x04, // command: base unit 3, count 4, master host
		0x20, 0x03, // link control 0: init complete, CRC error 3
		0x01, 0x50, // link config 0: max width in 16-bit, width out 4-bit
		0x00, 0x00, // link control 1
		0x00, 0x00, // link config 1
		0x28,       // revision 1.8
		0x15,       // link freq 0 = 5, protocol error
		0x35, 0x00, // link freq cap 0
		0x02,       // feature: LDTSTOP#
		0x00,       // link freq/error 1
		0x00, 0x00, // link freq cap 1
		0xEF, 0xBE, // enumeration scratchpad
		0x00, 0x01, // error handling: chain fail
		0x12, 0x34, // mem base/limit upper
		0x07,       // bus number
		0x00,
	}
	got, err := Decode(IDHypertransport, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	s, ok := got.(Hypertransport).Kind.(HTSlavePrimary)
	if !ok {
		t.Fatalf("Kind = %T, want HTSlavePrimary", got.(Hypertransport).Kind)
	}
	if s.Command.BaseUnitID != 3 || s.Command.UnitCount != 4 || !s.Command.MasterHost {
		t.Errorf("Command = %+v, want base unit 3, count 4, master host", s.Command)
	}
	if !s.LinkControl0.InitializationComplete || s.LinkControl0.CRCError != 3 {
		t.Errorf("LinkControl0 = %+v, want init complete, CRC error 3", s.LinkControl0)
	}
	if s.LinkConfig0.MaxLinkWidthIn != 1 || s.LinkConfig0.LinkWidthOut != 5 {
		t.Errorf("LinkConfig0 = %+v, want max width in 1, width out 5", s.LinkConfig0)
	}
	if s.Revision.Major != 1 || s.Revision.Minor != 8 {
		t.Errorf("Revision = %d.%d, want 1.8", s.Revision.Major, s.Revision.Minor)
	}
	if s.LinkFreq0 != 5 || !s.LinkError0.ProtocolError {
		t.Errorf("link 0 freq/error = %d/%+v, want 5 with protocol error", s.LinkFreq0, s.LinkError0)
	}
	if s.LinkFreqCap0 != 0x35 {
		t.Errorf("LinkFreqCap0 = 0x%04x, want 0x35", s.LinkFreqCap0)
	}
	if !s.Feature.LDTSTOP {
		t.Errorf("Feature = %+v, want LDTSTOP#", s.Feature)
	}
	if s.EnumerationScratchpad != 0xBEEF {
		t.Errorf("EnumerationScratchpad = 0x%04x, want 0xBEEF", s.EnumerationScratchpad)
	}
	if !s.ErrorHandling.ChainFail {
		t.Errorf("ErrorHandling = %+v, want chain fail", s.ErrorHandling)
	}
	if s.MemBaseUpper != 0x12 || s.MemLimitUpper != 0x34 || s.BusNumber != 0x07 {
		t.Errorf("mem base/limit/bus = 0x%02x/0x%02x/%d, want 0x12/0x34/7",
			s.MemBaseUpper, s.MemLimitUpper, s.BusNumber)
	}
}

func TestDecodeHypertransportHostSecondary(t *testing.T) {
	payload := []byte{
		0x25, 0x24, // command: warm reset, device 9, act as slave
		0x80, 0x10, // link control: transmitter off, isochronous flow control
		0x00, 0x00, // link config
		0x61,       // revision 3.1
		0x8D,       // link freq 13, CTL timeout
		0x00, 0x01, // link freq cap
		0x00, 0x03, // feature: extended register set, upstream config enable
		0x00, 0x00,
		0x34, 0x12, // enumeration scratchpad
		0x00, 0x80, // error handling: system error nonfatal enable
		0xAA, 0xBB, // mem base/limit upper
		0x00, 0x00,
	}
	got, err := Decode(IDHypertransport, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	h, ok := got.(Hypertransport).Kind.(HTHostSecondary)
	if !ok {
		t.Fatalf("Kind = %T, want HTHostSecondary", got.(Hypertransport).Kind)
	}
	if !h.Command.WarmReset || h.Command.DeviceNumber != 9 || !h.Command.ActAsSlave {
		t.Errorf("Command = %+v, want warm reset, device 9, act as slave", h.Command)
	}
	if !h.LinkControl.TransmitterOff || !h.LinkControl.IsochronousFlowControl {
		t.Errorf("LinkControl = %+v, want transmitter off, isochronous flow control", h.LinkControl)
	}
	if h.Revision.Major != 3 || h.Revision.Minor != 1 {
		t.Errorf("Revision = %d.%d, want 3.1", h.Revision.Major, h.Revision.Minor)
	}
	if h.LinkFreq != 13 || !h.LinkError.CTLTimeout {
		t.Errorf("link freq/error = %d/%+v, want 13 with CTL timeout", h.LinkFreq, h.LinkError)
	}
	if h.LinkFreqCap != 0x0100 {
		t.Errorf("LinkFreqCap = 0x%04x, want 0x0100", h.LinkFreqCap)
	}
	if !h.Feature.ExtendedRegisterSet || !h.Feature.UpstreamConfigurationEnable {
		t.Errorf("Feature = %+v, want extended register set, upstream config enable", h.Feature)
	}
	if h.EnumerationScratchpad != 0x1234 {
		t.Errorf("EnumerationScratchpad = 0x%04x, want 0x1234", h.EnumerationScratchpad)
	}
	if !h.ErrorHandling.SystemErrorNonfatalEnable {
		t.Errorf("ErrorHandling = %+v, want system error nonfatal enable", h.ErrorHandling)
	}
	if h.MemBaseUpper != 0xAA || h.MemLimitUpper != 0xBB {
		t.Errorf("mem base/limit upper = 0x%02x/0x%02x, want 0xAA/0xBB", h.MemBaseUpper, h.MemLimitUpper)
	}
}

func TestDecodeHypertransportInterfaceTooShort(t *testing.T) {
	// slave/primary type code but only the command word present
	if _, err := Decode(IDHypertransport, []byte{0x00, 0x00}); err == nil {
		t.Error("Decode() error = nil for a truncated slave/primary interface")
	}
}

func TestDecodePCIExpressVersion2(t *testing.T) {
	payload := make([]byte, 58)
	payload[0] = 0x42 // version 2, root port
	payload[1] = 0x00
	// link capabilities: speed 3, width 8
	payload[10] = 0x03 | 8<<4
	got, err := Decode(IDPCIExpress, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	e, ok := got.(PCIExpress)
	if !ok {
		t.Fatalf("Decode() = %T, want PCIExpress", got)
	}
	if e.Capabilities.Version != 2 {
		t.Errorf("Version = %d, want 2", e.Capabilities.Version)
	}
	if e.Capabilities.DeviceType != DeviceTypeRootPort {
		t.Errorf("DeviceType = %d, want %d", e.Capabilities.DeviceType, DeviceTypeRootPort)
	}
	if e.Link.MaxLinkSpeed != 3 || e.Link.MaxLinkWidth != 8 {
		t.Errorf("link = speed %d width %d, want speed 3 width 8", e.Link.MaxLinkSpeed, e.Link.MaxLinkWidth)
	}
	if e.Root == nil || e.Device2 == nil || e.Link2 == nil || e.Slot2 == nil {
		t.Error("version 2 capability missing root or 2-series register groups")
	}
}

func TestDecodePCIExpressVersion1Short(t *testing.T) {
	payload := make([]byte, 26)
	payload[0] = 0x01
	got, err := Decode(IDPCIExpress, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	e := got.(PCIExpress)
	if e.Root != nil || e.Device2 != nil {
		t.Error("optional register groups decoded from a minimal version 1 payload")
	}
}

func TestDecodePCIExpressVersion2Truncated(t *testing.T) {
	payload := make([]byte, 30)
	payload[0] = 0x02
	_, err := Decode(IDPCIExpress, payload)
	var de pciconf.DataError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DataError", err)
	}
	if de.Size != 58 {
		t.Errorf("DataError.Size = %d, want 58", de.Size)
	}
}

func TestDecodeSATA(t *testing.T) {
	payload := []byte{0x12, 0x00, 0x04, 0x01, 0x00, 0x00}
	got, err := Decode(IDSATA, payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := SATA{MinorRevision: 2, MajorRevision: 1, BARLocation: 4, BAROffset: 0x10}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SATA mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeUnknownID(t *testing.T) {
	got, err := Decode(0x42, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(Reserved{ID: 0x42}, got); diff != "" {
		t.Errorf("Reserved mismatch (-want +got):\n%s", diff)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		id   uint8
		want string
	}{
		{IDPowerManagement, "Power Management Interface"},
		{IDPCIExpress, "PCI Express"},
		{IDAGP, "AGP"},
		{0x60, "Reserved"},
	}
	for _, tt := range tests {
		if got := Name(tt.id); got != tt.want {
			t.Errorf("Name(0x%02x) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
