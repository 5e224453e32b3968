package bemu

import "fmt"

// MemoryError reports an access that does not map to any region, or that a
// device sub-decoder rejected for its (pos, width) combination.
type MemoryError struct {
	Addr uint64
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("bemu: no legal access at address 0x%016x", e.Addr)
}

// OutOfRangeError reports an access that straddles a region boundary. The
// guest sees it identically to MemoryError; it is a distinct type so tests
// can tell the two failure modes apart.
type OutOfRangeError struct {
	Addr uint64
	N    int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("bemu: access at 0x%016x length %d straddles a region boundary", e.Addr, e.N)
}

// IoError wraps a host-level failure writing to a device's backing
// descriptor (currently only the UART TX path).
type IoError struct {
	Err error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("bemu: device I/O failed: %v", e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// InitNotSupportedError is returned by device regions, which have no backing
// storage to prime. A caller that hits this has a bug: init is only valid
// against DenseRegion-backed regions.
type InitNotSupportedError struct {
	Region string
}

func (e *InitNotSupportedError) Error() string {
	return fmt.Sprintf("bemu: %s does not support init", e.Region)
}
