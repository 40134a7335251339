package extcap

import (
	"github.com/sercanarga/pciconf"
)

// AdvancedErrorReporting is the AER capability (ID 0001h). The root error
// registers exist only on root ports and root complex event collectors;
// they are decoded when the window extends far enough to hold them.
type AdvancedErrorReporting struct {
	UncorrectableStatus   UncorrectableErrors
	UncorrectableMask     UncorrectableErrors
	UncorrectableSeverity UncorrectableErrors
	CorrectableStatus     CorrectableErrors
	CorrectableMask       CorrectableErrors

	FirstErrorPointer     uint8
	ECRCGenerationCapable bool
	ECRCGenerationEnable  bool
	ECRCCheckCapable      bool
	ECRCCheckEnable       bool
	MultipleHeaderCapable bool
	MultipleHeaderEnable  bool
	TLPPrefixLogPresent   bool

	HeaderLog [4]uint32

	Root *AERRoot
}

func (AdvancedErrorReporting) kind() {}

// UncorrectableErrors is the shared bit layout of the uncorrectable error
// status, mask and severity registers.
type UncorrectableErrors struct {
	DataLinkProtocol         bool
	SurpriseDown             bool
	PoisonedTLP              bool
	FlowControlProtocol      bool
	CompletionTimeout        bool
	CompleterAbort           bool
	UnexpectedCompletion     bool
	ReceiverOverflow         bool
	MalformedTLP             bool
	ECRC                     bool
	UnsupportedRequest       bool
	ACSViolation             bool
	UncorrectableInternal    bool
	MCBlockedTLP             bool
	AtomicOpEgressBlocked    bool
	TLPPrefixBlocked         bool
	PoisonedTLPEgressBlocked bool
}

// CorrectableErrors is the shared bit layout of the correctable error
// status and mask registers.
type CorrectableErrors struct {
	Receiver           bool
	BadTLP             bool
	BadDLLP            bool
	ReplayNumRollover  bool
	ReplayTimerTimeout bool
	AdvisoryNonFatal   bool
	CorrectedInternal  bool
	HeaderLogOverflow  bool
}

// AERRoot groups the root error command, root error status and error
// source identification registers.
type AERRoot struct {
	CorrectableReportingEnable bool
	NonFatalReportingEnable    bool
	FatalReportingEnable       bool

	ERRCORReceived           bool
	MultipleERRCORReceived   bool
	ERRFatalNonFatalReceived bool
	MultipleERRFatalNonFatal bool
	FirstUncorrectableFatal  bool
	NonFatalMessagesReceived bool
	FatalMessagesReceived    bool
	InterruptMessageNumber   uint8

	CorrectableSourceID   uint16
	FatalNonFatalSourceID uint16
}

func readUncorrectable(r *pciconf.BitReader) UncorrectableErrors {
	var u UncorrectableErrors
	r.Reserved(4) // bit 0 is the legacy undefined bit
	u.DataLinkProtocol = r.Bit()
	u.SurpriseDown = r.Bit()
	r.Reserved(6)
	u.PoisonedTLP = r.Bit()
	u.FlowControlProtocol = r.Bit()
	u.CompletionTimeout = r.Bit()
	u.CompleterAbort = r.Bit()
	u.UnexpectedCompletion = r.Bit()
	u.ReceiverOverflow = r.Bit()
	u.MalformedTLP = r.Bit()
	u.ECRC = r.Bit()
	u.UnsupportedRequest = r.Bit()
	u.ACSViolation = r.Bit()
	u.UncorrectableInternal = r.Bit()
	u.MCBlockedTLP = r.Bit()
	u.AtomicOpEgressBlocked = r.Bit()
	u.TLPPrefixBlocked = r.Bit()
	u.PoisonedTLPEgressBlocked = r.Bit()
	r.Reserved(5)
	return u
}

func readCorrectable(r *pciconf.BitReader) CorrectableErrors {
	var c CorrectableErrors
	c.Receiver = r.Bit()
	r.Reserved(5)
	c.BadTLP = r.Bit()
	c.BadDLLP = r.Bit()
	c.ReplayNumRollover = r.Bit()
	r.Reserved(3)
	c.ReplayTimerTimeout = r.Bit()
	c.AdvisoryNonFatal = r.Bit()
	c.CorrectedInternal = r.Bit()
	c.HeaderLogOverflow = r.Bit()
	r.Reserved(16)
	return c
}

func decodeAER(data []byte) (Kind, error) {
	const name = "Advanced Error Reporting"
	const size = 40
	const rootSize = size + 12
	if err := require(data, name, size); err != nil {
		return nil, err
	}
	r := pciconf.NewBitReader(data)

	var a AdvancedErrorReporting
	a.UncorrectableStatus = readUncorrectable(r)
	a.UncorrectableMask = readUncorrectable(r)
	a.UncorrectableSeverity = readUncorrectable(r)
	a.CorrectableStatus = readCorrectable(r)
	a.CorrectableMask = readCorrectable(r)

	a.FirstErrorPointer = uint8(r.Bits(5))
	a.ECRCGenerationCapable = r.Bit()
	a.ECRCGenerationEnable = r.Bit()
	a.ECRCCheckCapable = r.Bit()
	a.ECRCCheckEnable = r.Bit()
	a.MultipleHeaderCapable = r.Bit()
	a.MultipleHeaderEnable = r.Bit()
	a.TLPPrefixLogPresent = r.Bit()
	r.Reserved(20)

	for i := range a.HeaderLog {
		a.HeaderLog[i] = r.U32()
	}

	if len(data) >= rootSize {
		var root AERRoot
		root.CorrectableReportingEnable = r.Bit()
		root.NonFatalReportingEnable = r.Bit()
		root.FatalReportingEnable = r.Bit()
		r.Reserved(29)
		root.ERRCORReceived = r.Bit()
		root.MultipleERRCORReceived = r.Bit()
		root.ERRFatalNonFatalReceived = r.Bit()
		root.MultipleERRFatalNonFatal = r.Bit()
		root.FirstUncorrectableFatal = r.Bit()
		root.NonFatalMessagesReceived = r.Bit()
		root.FatalMessagesReceived = r.Bit()
		r.Reserved(20)
		root.InterruptMessageNumber = uint8(r.Bits(5))
		root.CorrectableSourceID = r.U16()
		root.FatalNonFatalSourceID = r.U16()
		a.Root = &root
	}
	return a, r.Err()
}
