package bemu

// Watchdog is a divide-by-D down-counter. Every ClockTick advances an
// internal divider; when the divider wraps, the countdown decrements (unless
// suspended or freshly kicked), and reaching zero invokes onTimeout.
type Watchdog struct {
	divisor uint32
	divider uint32

	reload    uint32
	countdown uint32

	enabled bool
	kicked  bool

	onTimeout func(agent *Agent)
}

// NewWatchdog builds a watchdog with the given divide ratio and countdown
// reload value. onTimeout is invoked (with the divider freshly wrapped) the
// tick the countdown reaches zero; SysregsEr wires this to agent.Chip.ColdReset.
func NewWatchdog(divisor, reload uint32, onTimeout func(agent *Agent)) *Watchdog {
	w := &Watchdog{divisor: divisor, reload: reload, onTimeout: onTimeout}
	w.Reset()
	return w
}

func (w *Watchdog) Reset() {
	w.divider = 0
	w.countdown = w.reload
	w.enabled = true
	w.kicked = false
}

func (w *Watchdog) SetEnabled(enabled bool) { w.enabled = enabled }

// Count returns the current countdown value (WATCHDOG_COUNT's read-only
// snapshot).
func (w *Watchdog) Count() uint32 { return w.countdown }

// Kick reloads the countdown and latches the kick bit so the next divider
// wrap is absorbed instead of decrementing.
func (w *Watchdog) Kick() {
	w.countdown = w.reload
	w.kicked = true
}

func (w *Watchdog) ClockTick(agent *Agent) {
	if !w.enabled {
		return
	}
	w.divider++
	if w.divider < w.divisor {
		return
	}
	w.divider = 0

	if w.kicked {
		w.kicked = false
		return
	}

	if w.countdown == 0 {
		if w.onTimeout != nil {
			w.onTimeout(agent)
		}
		return
	}
	w.countdown--
	if w.countdown == 0 && w.onTimeout != nil {
		w.onTimeout(agent)
	}
}
