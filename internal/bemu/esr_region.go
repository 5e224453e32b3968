package bemu

import "io"

// Offsets of the ESR block's registers, per spec.md §6 and
// SPEC_FULL.md §6.2: MTIME at 0x…F40200, MTIMECMP at 0x…F40208,
// MTIME_LOCAL_TARGET at 0x…F40218, IPI_TRIGGER at 0x…F40090,
// IPI_TRIGGER_CLEAR at 0x…F40098, THREAD1_DISABLE at 0x…F40010,
// THREAD0_DISABLE at 0x…F40240.
const (
	esrMtimeOffset           = 0xF40200
	esrMtimecmpOffset        = 0xF40208
	esrLocalTargetOffset     = 0xF40218
	esrIPITriggerOffset      = 0xF40090
	esrIPITriggerClearOffset = 0xF40098
	esrThread1DisableOffset  = 0xF40010
	esrThread0DisableOffset  = 0xF40240
)

// ESRRegion is the 16 MiB External System Registers block. It decodes the
// RVTimer's registers, MTIME_LOCAL_TARGET, the IPI trigger/clear pair, and
// the per-hart thread-disable bitmasks; every other offset in the block is
// unimplemented and fails with MemoryError, per spec.md §4.8 ("any other
// width or offset fails with MemoryError") — this module treats that
// component-specific rule as authoritative over the general "unimplemented
// offsets read 0" rule in spec.md §7, since §4.8 describes this decoder
// directly (see DESIGN.md).
type ESRRegion struct {
	first uint64
	size  uint64
	timer *RVTimer

	ipiTrigger     uint64
	thread0Disable uint64
	thread1Disable uint64
}

func NewESRRegion(first, size uint64, timer *RVTimer) *ESRRegion {
	return &ESRRegion{first: first, size: size, timer: timer}
}

func (r *ESRRegion) Bounds() (uint64, uint64) {
	return r.first, r.first + r.size - 1
}

func (r *ESRRegion) Init(agent *Agent, pos uint64, n int, in []byte) error {
	return &InitNotSupportedError{Region: "ESRRegion"}
}

func (r *ESRRegion) DumpData(w io.Writer, agent *Agent, pos, n uint64) error {
	return nil
}

func (r *ESRRegion) Read(agent *Agent, pos uint64, n int, out []byte) error {
	switch {
	case pos == esrMtimeOffset && n == 8:
		putUint64(out[:8], r.timer.ReadMtime())
	case pos == esrMtimeOffset && n == 4:
		putUint32(out[:4], uint32(r.timer.ReadMtime()))
	case pos == esrMtimeOffset+4 && n == 4:
		putUint32(out[:4], uint32(r.timer.ReadMtime()>>32))
	case pos == esrMtimecmpOffset && n == 8:
		putUint64(out[:8], r.timer.ReadMtimecmp())
	case pos == esrMtimecmpOffset && n == 4:
		putUint32(out[:4], uint32(r.timer.ReadMtimecmp()))
	case pos == esrMtimecmpOffset+4 && n == 4:
		putUint32(out[:4], uint32(r.timer.ReadMtimecmp()>>32))
	case pos == esrLocalTargetOffset && n == 8:
		putUint64(out[:8], r.timer.shireMask)
	case pos == esrIPITriggerOffset && n == 8:
		putUint64(out[:8], r.ipiTrigger)
	case pos == esrIPITriggerClearOffset && n == 8:
		// write-only: reads back 0, the same convention as ShaktiUart's TX register.
		putUint64(out[:8], 0)
	case pos == esrThread0DisableOffset && n == 8:
		putUint64(out[:8], r.thread0Disable)
	case pos == esrThread1DisableOffset && n == 8:
		putUint64(out[:8], r.thread1Disable)
	default:
		return &MemoryError{Addr: r.first + pos}
	}
	return nil
}

func (r *ESRRegion) Write(agent *Agent, pos uint64, n int, in []byte) error {
	switch {
	case pos == esrMtimeOffset && n == 8:
		r.timer.WriteMtime(agent, getUint64(in[:8]))
	case pos == esrMtimeOffset && n == 4:
		cur := r.timer.ReadMtime()
		v := uint64(getUint32(in[:4])) | (cur &^ 0xffffffff)
		r.timer.WriteMtime(agent, v)
	case pos == esrMtimeOffset+4 && n == 4:
		cur := r.timer.ReadMtime()
		v := (cur & 0xffffffff) | uint64(getUint32(in[:4]))<<32
		r.timer.WriteMtime(agent, v)
	case pos == esrMtimecmpOffset && n == 8:
		r.timer.WriteMtimecmp(agent, getUint64(in[:8]))
	case pos == esrMtimecmpOffset && n == 4:
		cur := r.timer.ReadMtimecmp()
		v := uint64(getUint32(in[:4])) | (cur &^ 0xffffffff)
		r.timer.WriteMtimecmp(agent, v)
	case pos == esrMtimecmpOffset+4 && n == 4:
		cur := r.timer.ReadMtimecmp()
		v := (cur & 0xffffffff) | uint64(getUint32(in[:4]))<<32
		r.timer.WriteMtimecmp(agent, v)
	case pos == esrLocalTargetOffset:
		// read-only: silent no-op
	case pos == esrIPITriggerOffset && n == 8:
		// a trigger write of 0 is ignored, per ipi_trigger_clear.c
		v := getUint64(in[:8])
		if v != 0 {
			r.ipiTrigger |= v
		}
	case pos == esrIPITriggerClearOffset && n == 8:
		// a clear write of 0 is ignored, per ipi_trigger_clear.c
		v := getUint64(in[:8])
		if v != 0 {
			r.ipiTrigger &^= v
		}
	case pos == esrThread0DisableOffset && n == 8:
		r.thread0Disable = getUint64(in[:8])
	case pos == esrThread1DisableOffset && n == 8:
		r.thread1Disable = getUint64(in[:8])
	default:
		return &MemoryError{Addr: r.first + pos}
	}
	return nil
}
