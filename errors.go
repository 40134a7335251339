package pciconf

import (
	"errors"
	"fmt"
)

var errBitsExhausted = errors.New("bit reader: data exhausted")

// DataError reports a capability payload shorter than the structure it is
// supposed to hold.
type DataError struct {
	Name string // structure that could not be read
	Size int    // bytes the structure requires
}

func (e DataError) Error() string {
	return fmt.Sprintf("%s: data too short, need %d bytes", e.Name, e.Size)
}

// ArrayLengthError reports a self-describing array whose declared entry
// count does not fit in the bytes that follow it.
type ArrayLengthError struct {
	Name     string
	Expected int // entries the header declares
	Found    int // entries the remaining data can hold
}

func (e ArrayLengthError) Error() string {
	return fmt.Sprintf("%s: declared %d entries, data holds %d", e.Name, e.Expected, e.Found)
}

// OffsetError reports a capability pointer that lands outside its zone.
type OffsetError struct {
	Offset uint16
}

func (e OffsetError) Error() string {
	return fmt.Sprintf("capability offset 0x%03x is outside its region", e.Offset)
}
