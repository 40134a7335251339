package extcap

import (
	"fmt"

	"github.com/sercanarga/pciconf"
)

// maxEntries bounds the walk so a looping next pointer cannot iterate
// forever. The extended configuration space can hold at most this many
// dword-sized headers.
const maxEntries = pciconf.ECSLength / 4

// Walker iterates the extended capability list anchored at 0x100. Unlike
// the legacy walker, a malformed record surfaces through Err: the walk
// stops after the failing record and Err reports what went wrong. An
// all-zero header word is the ordinary end of the chain, not an error; it
// is how a device reports that it has no extended capabilities.
type Walker struct {
	cs     *pciconf.ConfigSpace
	offset uint16
	cap    *ExtendedCapability
	err    error
	steps  int
	done   bool
}

// NewWalker returns a Walker anchored at the extended configuration space.
func NewWalker(cs *pciconf.ConfigSpace) *Walker {
	return &Walker{cs: cs, offset: pciconf.ECSOffset}
}

// Scan advances to the next extended capability. It returns false when the
// chain ends; check Err to distinguish ordinary termination from a
// malformed record.
func (w *Walker) Scan() bool {
	w.cap = nil
	if w.done || !w.cs.HasExtendedRegion() {
		w.done = true
		return false
	}
	offset := w.offset
	if offset == 0 { // terminated by the previous record's next field
		w.done = true
		return false
	}
	if offset < pciconf.ECSOffset {
		w.err = pciconf.OffsetError{Offset: offset}
		w.done = true
		return false
	}
	if w.steps >= maxEntries {
		w.done = true
		return false
	}
	w.steps++

	header := w.cs.ReadU32(int(offset))
	if header == 0 {
		w.done = true
		return false
	}
	id := uint16(header & 0xFFFF)
	version := uint8(header >> 16 & 0xF)
	w.offset = uint16(header >> 20)

	kind, err := w.decode(id, int(offset))
	if err != nil {
		w.err = fmt.Errorf("%s at 0x%03x: %w", Name(id), offset, err)
		w.done = true
		return false
	}
	w.cap = &ExtendedCapability{Offset: offset, ID: id, Version: version, Kind: kind}
	return true
}

// Capability returns the record produced by the last successful Scan.
func (w *Walker) Capability() *ExtendedCapability {
	return w.cap
}

// Err returns the error that ended the walk, or nil if the chain
// terminated normally.
func (w *Walker) Err() error {
	return w.err
}

func (w *Walker) decode(id uint16, offset int) (Kind, error) {
	e, ok := dispatch[id]
	if !ok {
		return Reserved{ID: id}, nil
	}
	start := offset + 4
	if e.headerInclusive {
		start = offset
	}
	end := w.cs.Size
	if end > pciconf.Size {
		end = pciconf.Size
	}
	if start >= end {
		return e.decode(nil)
	}
	return e.decode(w.cs.Data[start:end])
}
