package bemu

import "io"

// Register offsets, 8-byte stride / 32-bit payload, per SPEC_FULL.md §7.
const (
	sysregVersion     = 0x00
	sysregSystemConf  = 0x08
	sysregWdtCount    = 0x10
	sysregWdt         = 0x18
	sysregSysIntr     = 0x20
	sysregSoftReset   = 0x28
	sysregResetCause  = 0x30
	sysregPwrDomReq   = 0x38
	sysregPwrDomAck   = 0x40
	sysregPwrGood     = 0x48
	sysregSpinLock    = 0x50
	sysregChipMode    = 0x58
	sysregMailbox0    = 0x60
	sysregMailbox1    = 0x68
)

// SystemConfig bits.
const (
	SysConfSysIntrEn       uint32 = 1 << 0
	SysConfMramStartupPass uint32 = 1 << 1
	SysConfWdogDisable     uint32 = 1 << 2
	SysConfUARTEnable      uint32 = 1 << 6
)

// Watchdog register bits.
const WatchdogKick uint32 = 1 << 7

// SoftReset bits.
const SoftResetMramRstB uint32 = 1 << 0

// ResetCause bitmask values, from original_source/devices/sysregs_er.h.
const (
	ResetCausePOR      uint32 = 1
	ResetCauseWatchdog uint32 = 2
	ResetCauseSysreset uint32 = 4
	ResetCauseBrownout uint32 = 8
)

// SysregsEr's own well-known constant register value.
const sysregsVersionValue uint32 = 0x00010000

// watchdogDivisor and watchdogReload are construction constants matching
// original_source/devices/sysregs_er.h's Watchdog<4> embedding. The reload
// value is not given by the source header in the retrieved subset; chosen
// here as a round, documentable default (see DESIGN.md).
const (
	watchdogDivisor uint32 = 4
	watchdogReload  uint32 = 0x0001_0000
)

// SysregsEr is the platform system-register file: reset cause, config,
// spinlock, mailboxes, power-domain handshakes, and the watchdog kick path.
type SysregsEr struct {
	first uint64
	size  uint64

	version      uint32
	systemConfig uint32
	sysInterrupt uint32
	softReset    uint32
	resetCause   uint32
	pwrDomReq    uint32
	pwrDomAck    uint32
	pwrGood      uint32
	spinLock     uint32
	chipMode     uint32
	mailbox0     uint32
	mailbox1     uint32
	watchdogReg  uint32

	watchdog *Watchdog

	onMRAMReset func()
}

// NewSysregsEr builds the system register file. onMRAMReset, if non-nil, is
// invoked when a SOFT_RESET write sets MRAM_RST_B (wired by MainMemory to
// the MRAM DenseRegion's SetReady(false)).
func NewSysregsEr(first, size uint64, onMRAMReset func()) *SysregsEr {
	s := &SysregsEr{first: first, size: size, onMRAMReset: onMRAMReset}
	s.watchdog = NewWatchdog(watchdogDivisor, watchdogReload, func(agent *Agent) {
		s.Reset(ResetCauseWatchdog)
		agent.Chip.ColdReset()
	})
	s.Reset(ResetCausePOR)
	return s
}

// Reset sets RESET_CAUSE to cause, clears transient register state, and
// re-initializes the watchdog.
func (s *SysregsEr) Reset(cause uint32) {
	s.version = sysregsVersionValue
	s.systemConfig = 0
	s.sysInterrupt = 0
	s.softReset = 0
	s.resetCause = cause
	s.pwrDomReq = 0
	s.pwrDomAck = 0
	s.pwrGood = 0
	s.spinLock = 0
	s.chipMode = 0
	s.mailbox0 = 0
	s.mailbox1 = 0
	s.watchdogReg = 0
	s.watchdog.Reset()
}

// IsUARTEnabled reports SYSTEM_CONFIG.UART_ENABLE. This is the method a
// Chip implementation delegates to for Chip.IsUARTEnabled.
func (s *SysregsEr) IsUARTEnabled() bool {
	return s.systemConfig&SysConfUARTEnable != 0
}

// WDTClockTick forwards a clock tick from MainMemory to the embedded
// watchdog. cycle is accepted for signature symmetry with the spec's
// external interface; the watchdog keeps its own divide-by-D counter.
func (s *SysregsEr) WDTClockTick(agent *Agent, cycle uint64) {
	s.watchdog.ClockTick(agent)
}

func (s *SysregsEr) Bounds() (uint64, uint64) {
	return s.first, s.first + s.size - 1
}

func (s *SysregsEr) DumpData(w io.Writer, agent *Agent, pos, n uint64) error {
	return nil
}

func (s *SysregsEr) Init(agent *Agent, pos uint64, n int, in []byte) error {
	return &InitNotSupportedError{Region: "SysregsEr"}
}

func (s *SysregsEr) Read(agent *Agent, pos uint64, n int, out []byte) error {
	if n != 4 || pos%4 != 0 {
		return &MemoryError{Addr: s.first + pos}
	}
	var v uint32
	switch pos {
	case sysregVersion:
		v = s.version
	case sysregSystemConf:
		v = s.systemConfig
	case sysregWdtCount:
		v = s.watchdog.Count()
	case sysregWdt:
		v = s.watchdogReg
	case sysregSysIntr:
		v = s.sysInterrupt
	case sysregSoftReset:
		v = s.softReset
	case sysregResetCause:
		v = s.resetCause
	case sysregPwrDomReq:
		v = s.pwrDomReq
	case sysregPwrDomAck:
		v = s.pwrDomAck
	case sysregPwrGood:
		v = s.pwrGood
	case sysregSpinLock:
		old := s.spinLock & 1
		s.spinLock |= 1
		v = old
	case sysregChipMode:
		v = s.chipMode
	case sysregMailbox0:
		v = s.mailbox0
	case sysregMailbox1:
		v = s.mailbox1
	default:
		v = 0
	}
	putUint32(out[:n], v)
	return nil
}

func (s *SysregsEr) Write(agent *Agent, pos uint64, n int, in []byte) error {
	if n != 4 || pos%4 != 0 {
		return &MemoryError{Addr: s.first + pos}
	}
	v := getUint32(in[:n])
	switch pos {
	case sysregVersion:
		// read-only: silent no-op
	case sysregSystemConf:
		s.systemConfig = v
		s.watchdog.SetEnabled(v&SysConfWdogDisable == 0)
	case sysregWdtCount:
		// read-only: silent no-op
	case sysregWdt:
		s.watchdogReg = v
		if v&WatchdogKick != 0 {
			s.watchdog.Kick()
		}
	case sysregSysIntr:
		s.sysInterrupt = v
	case sysregSoftReset:
		s.softReset = v
		if v&SoftResetMramRstB != 0 && s.onMRAMReset != nil {
			s.onMRAMReset()
		}
	case sysregResetCause:
		s.resetCause &^= v // write-1-to-clear
	case sysregPwrDomReq:
		s.pwrDomReq = v
	case sysregPwrDomAck:
		s.pwrDomAck = v
	case sysregPwrGood:
		s.pwrGood = v
	case sysregSpinLock:
		if v == 0 {
			s.spinLock = 0
		} else {
			s.spinLock = 1
		}
	case sysregChipMode:
		s.chipMode = v
	case sysregMailbox0:
		s.mailbox0 = v
	case sysregMailbox1:
		s.mailbox1 = v
	default:
		// unimplemented offset: silent no-op
	}
	return nil
}
