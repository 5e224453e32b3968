package bemu

import "io"

// MemoryRegion is the uniform contract every addressable device or backing
// store implements. pos is always region-relative (MainMemory subtracts the
// region's base before delegating).
type MemoryRegion interface {
	// Read copies n bytes of device-visible state into out[:n].
	Read(agent *Agent, pos uint64, n int, out []byte) error

	// Write updates device state from in[:n]. May call back into agent.Chip.
	Write(agent *Agent, pos uint64, n int, in []byte) error

	// Init is a privileged bulk load used to prime backing storage at
	// startup. Device regions reject it.
	Init(agent *Agent, pos uint64, n int, in []byte) error

	// Bounds returns the closed interval [first, last] this region covers
	// in absolute address space. first is fixed at construction.
	Bounds() (first, last uint64)

	// DumpData writes n bytes of diagnostic state starting at pos to w.
	// Most device regions are no-ops; DenseRegion copies its backing bytes.
	DumpData(w io.Writer, agent *Agent, pos, n uint64) error
}
