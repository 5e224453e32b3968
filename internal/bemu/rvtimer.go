package bemu

import (
	"io"
	"math"
)

// DefaultPrescalerThreshold is the reset value of prescaler_threshold,
// matching original_source/devices/rvtimer.h.
const DefaultPrescalerThreshold = 20

// RVTimer is the 64-bit machine-mode timer: a monotonic mtime counter, an
// mtimecmp comparator, and a prescaler that divides the incoming clock
// before advancing mtime. mtimecmp == math.MaxUint64 means "inactive" — no
// shire will ever see MTIP from this timer while it holds that value.
type RVTimer struct {
	shireMask uint64
	numShires int

	mtime     uint64
	mtimecmp  uint64
	prescaler uint32
	threshold uint32
	refClock  uint32
	interrupt bool
}

// NewRVTimer builds a timer wired to raise/clear MTIP on every shire whose
// bit is set in shireMask, out of numShires total shires. The mask is a
// construction-time value (the Go equivalent of the original's compile-time
// interrupt-shire template parameter).
func NewRVTimer(shireMask uint64, numShires int) *RVTimer {
	t := &RVTimer{shireMask: shireMask, numShires: numShires}
	t.Reset()
	return t
}

func (t *RVTimer) Reset() {
	t.mtime = 0
	t.mtimecmp = math.MaxUint64
	t.prescaler = 0
	t.threshold = DefaultPrescalerThreshold
	t.refClock = 0
	t.interrupt = false
}

// IsActive reports whether mtimecmp currently holds a real comparison value.
func (t *RVTimer) IsActive() bool { return t.mtimecmp != math.MaxUint64 }

func (t *RVTimer) ReadMtime() uint64    { return t.mtime }
func (t *RVTimer) ReadMtimecmp() uint64 { return t.mtimecmp }

// ReadTimeConfig packs prescaler_threshold into bits 0..6 and ref_clock_mux
// into bit 7.
func (t *RVTimer) ReadTimeConfig() uint32 {
	return (t.threshold & 0x7f) | (t.refClock&0x1)<<7
}

func (t *RVTimer) WriteTimeConfig(agent *Agent, v uint32) {
	t.threshold = v & 0x7f
	t.refClock = (v >> 7) & 0x1
}

// WriteMtime stores v without re-evaluating the interrupt condition.
func (t *RVTimer) WriteMtime(agent *Agent, v uint64) {
	t.mtime = v
}

// WriteMtimecmp stores v and recomputes interrupt. This module raises MTIP
// synchronously here when the new value is already in the past, rather than
// waiting for the next clock tick — see SPEC_FULL.md §10 item 2.
func (t *RVTimer) WriteMtimecmp(agent *Agent, v uint64) {
	was := t.interrupt
	t.mtimecmp = v
	t.interrupt = t.mtime >= t.mtimecmp && t.mtimecmp != math.MaxUint64
	t.signalTransition(agent, was, t.interrupt)
}

// ClockTick advances mtime by one and raises MTIP on the 0->1 transition.
func (t *RVTimer) ClockTick(agent *Agent) {
	t.mtime++
	if t.mtime >= t.mtimecmp && t.mtimecmp != math.MaxUint64 && !t.interrupt {
		t.interrupt = true
		t.signalTransition(agent, false, true)
	}
}

// PrescalerTick divides the incoming clock: every prescaler_threshold calls
// produce one ClockTick.
func (t *RVTimer) PrescalerTick(agent *Agent) {
	t.prescaler++
	if t.prescaler >= t.threshold {
		t.prescaler = 0
		t.ClockTick(agent)
	}
}

func (t *RVTimer) signalTransition(agent *Agent, was, is bool) {
	if was == is {
		return
	}
	for s := 0; s < t.numShires; s++ {
		if (t.shireMask>>uint(s))&1 == 0 {
			continue
		}
		if is {
			agent.Chip.RaiseMachineTimerInterrupt(s)
		} else {
			agent.Chip.ClearMachineTimerInterrupt(s)
		}
	}
}

// DumpData is a no-op for RVTimer's register-only state, matching the
// original device regions, none of which implement a dump path.
func (t *RVTimer) DumpData(w io.Writer, agent *Agent, pos, n uint64) error {
	return nil
}
