package bemu

// ClockDriver advances MainMemory's tick-driven devices (the watchdog and
// the RVTimer) by a count of simulated cycles. It is deliberately
// synchronous and not backed by a wall-clock timer: spec.md §5 requires
// guest-observable timing to be modeled in simulated cycles, matched against
// real time only by whatever drives Run's cycle argument — see
// SPEC_FULL.md §6.3.
type ClockDriver struct {
	mem   *MainMemory
	cycle uint64
}

func NewClockDriver(mem *MainMemory) *ClockDriver {
	return &ClockDriver{mem: mem}
}

// Run advances the driver by n cycles, calling both tick fan-outs once per
// cycle, in the order the surrounding simulator loop is expected to use:
// tick, then (by convention, outside this module) execute one instruction.
func (d *ClockDriver) Run(agent *Agent, n uint64) {
	for i := uint64(0); i < n; i++ {
		d.mem.WDTClockTick(agent, d.cycle)
		d.mem.RVTimerClockTick(agent, d.cycle)
		d.cycle++
	}
}

// Cycle reports the total number of cycles this driver has advanced.
func (d *ClockDriver) Cycle() uint64 { return d.cycle }
