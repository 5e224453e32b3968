package bemu

// SimpleChip is a reference Chip implementation: it records raised MTIP
// lines per shire and delegates UART gating to the SysregsEr it is given. It is not
// part of the required library surface — the embedding program is expected
// to supply its own Chip wired to real interrupt controller and reset
// logic — but it is what this module's own tests and cmd/bemu-mmio use.
type SimpleChip struct {
	sysregs *SysregsEr

	mtip       map[int]bool
	resetCount int
}

func NewSimpleChip(sysregs *SysregsEr) *SimpleChip {
	return &SimpleChip{sysregs: sysregs, mtip: map[int]bool{}}
}

func (c *SimpleChip) RaiseMachineTimerInterrupt(shire int) { c.mtip[shire] = true }
func (c *SimpleChip) ClearMachineTimerInterrupt(shire int) { c.mtip[shire] = false }

func (c *SimpleChip) MTIP(shire int) bool { return c.mtip[shire] }

// ColdReset just counts: SysregsEr already resets its own state (with the
// correct cause) from inside the watchdog timeout handler before calling
// this, so a Chip only needs to react to the notification, not re-trigger it.
func (c *SimpleChip) ColdReset() {
	c.resetCount++
}

func (c *SimpleChip) ResetCount() int { return c.resetCount }

func (c *SimpleChip) IsUARTEnabled() bool { return c.sysregs.IsUARTEnabled() }
