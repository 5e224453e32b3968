package bemu

import "io"

// DenseRegion is a contiguous byte buffer behind the MemoryRegion contract:
// boot ROM, scratch SRAM, and MRAM are all DenseRegion instances that differ
// only in base, size, and the readOnly flag.
type DenseRegion struct {
	first    uint64
	data     []byte
	readOnly bool
	ready    bool
}

// NewDenseRegion allocates a zeroed backing buffer of size bytes at the
// given absolute base. readOnly true makes it reject Write (boot ROM); Init
// is always accepted regardless of readOnly, since Init is the one path a
// boot ROM image is loaded through.
func NewDenseRegion(first, size uint64, readOnly bool) *DenseRegion {
	return &DenseRegion{
		first:    first,
		data:     make([]byte, size),
		readOnly: readOnly,
		ready:    true,
	}
}

func (d *DenseRegion) Bounds() (uint64, uint64) {
	return d.first, d.first + uint64(len(d.data)) - 1
}

func (d *DenseRegion) inRange(pos uint64, n int) bool {
	return n >= 0 && pos+uint64(n) <= uint64(len(d.data))
}

func (d *DenseRegion) Read(agent *Agent, pos uint64, n int, out []byte) error {
	if !d.inRange(pos, n) {
		return &MemoryError{Addr: d.first + pos}
	}
	copy(out[:n], d.data[pos:pos+uint64(n)])
	return nil
}

func (d *DenseRegion) Write(agent *Agent, pos uint64, n int, in []byte) error {
	if d.readOnly {
		return &MemoryError{Addr: d.first + pos}
	}
	if !d.inRange(pos, n) {
		return &MemoryError{Addr: d.first + pos}
	}
	copy(d.data[pos:pos+uint64(n)], in[:n])
	return nil
}

func (d *DenseRegion) Init(agent *Agent, pos uint64, n int, in []byte) error {
	if !d.inRange(pos, n) {
		return &MemoryError{Addr: d.first + pos}
	}
	copy(d.data[pos:pos+uint64(n)], in[:n])
	return nil
}

func (d *DenseRegion) DumpData(w io.Writer, agent *Agent, pos, n uint64) error {
	if !d.inRange(pos, int(n)) {
		return &MemoryError{Addr: d.first + pos}
	}
	_, err := w.Write(d.data[pos : pos+n])
	return err
}

// IsReady reports whether the backing store is considered initialized.
// SysregsEr's SOFT_RESET (MRAM_RST_B) clears this on the MRAM region; nothing
// else in this module currently reads it back, but it is real observable
// state, not a stub.
func (d *DenseRegion) IsReady() bool { return d.ready }

func (d *DenseRegion) SetReady(ready bool) { d.ready = ready }
