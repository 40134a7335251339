package capability

import (
	"github.com/sercanarga/pciconf"
)

// maxEntries bounds the walk so a looping next pointer cannot iterate
// forever. The device dependent region can hold at most this many two-byte
// entries.
const maxEntries = pciconf.DDRLength / 2

// Walker iterates the legacy capability list. The list is a chain of 8-bit
// next pointers anchored at the capability pointer in the predefined header.
//
// The walker stops silently on any malformation: a pointer below the device
// dependent region, or a payload a decoder cannot read, ends the walk
// without surfacing an error. Partial chains are the expected result of
// decoding truncated or corrupt dumps.
type Walker struct {
	cs    *pciconf.ConfigSpace
	next  uint8
	cap   *Capability
	steps int
	done  bool
}

// NewWalker returns a Walker anchored at the header's capability pointer.
func NewWalker(cs *pciconf.ConfigSpace) *Walker {
	return &Walker{cs: cs, next: cs.CapabilityPointer()}
}

// Scan advances to the next capability. It returns false when the chain
// ends, for any reason.
func (w *Walker) Scan() bool {
	w.cap = nil
	if w.done {
		return false
	}
	ptr := w.next &^ 0x03 // bottom two bits of the pointer are reserved
	if ptr == 0 {
		w.done = true
		return false
	}
	if int(ptr) < pciconf.DDROffset || w.steps >= maxEntries {
		w.done = true
		return false
	}
	w.steps++

	id := w.cs.ReadU8(int(ptr))
	w.next = w.cs.ReadU8(int(ptr) + 1)

	kind, err := Decode(id, w.payload(int(ptr)+2))
	if err != nil {
		w.done = true
		return false
	}
	w.cap = &Capability{Pointer: ptr, ID: id, Kind: kind}
	return true
}

// Capability returns the record produced by the last successful Scan.
func (w *Walker) Capability() *Capability {
	return w.cap
}

// payload returns the window from start to the end of the device dependent
// region.
func (w *Walker) payload(start int) []byte {
	end := w.cs.Size
	if end > pciconf.ECSOffset {
		end = pciconf.ECSOffset
	}
	if start >= end {
		return nil
	}
	return w.cs.Data[start:end]
}
