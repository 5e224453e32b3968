package bemu

import (
	"io"
	"sort"
)

// Erbium address map, per spec.md §6.
const (
	SysregsBase = 0x02_0000_0000
	SysregsSize = 4 * 1024

	UARTBase = 0x02_0000_4000
	UARTSize = 4 * 1024

	BootROMBase = 0x02_0000_A000
	BootROMSize = 8 * 1024

	SRAMBase = 0x02_0000_E000
	SRAMSize = 4 * 1024

	MRAMBase = 0x04_0000_0000
	MRAMSize = 16 * 1024 * 1024

	ESRBase = 0x08_0000_0000
	ESRSize = 16 * 1024 * 1024

	PLICBase = 0x0C_0000_0000
	PLICSize = 64 * 1024 * 1024
)

// Config collects every MainMemory construction-time parameter — the Go
// equivalent of the original's compile-time template parameters (spec.md §9).
type Config struct {
	BootROM []byte // initial boot ROM image, copied in; may be nil

	ShireMask uint64 // RVTimer interrupt-shire bitmask
	NumShires int

	UARTLayout UARTLayout

	PLICSources  int
	PLICContexts int
}

// MainMemory is the sorted, fixed array of owned regions that dispatches
// every guest load, store, and init to the correct device.
type MainMemory struct {
	regions []MemoryRegion

	sysregs *SysregsEr
	uart    *ShaktiUart
	esr     *ESRRegion
	plic    *ERPLIC
	mram    *DenseRegion
	rom     *DenseRegion
	sram    *DenseRegion
}

// NewMainMemory builds every region of the Erbium address map and returns
// the aggregate. Regions are stored in ascending-base order, matching the
// table in spec.md §6.
func NewMainMemory(cfg Config) *MainMemory {
	m := &MainMemory{}

	m.mram = NewDenseRegion(MRAMBase, MRAMSize, false)
	m.rom = NewDenseRegion(BootROMBase, BootROMSize, true)
	m.sram = NewDenseRegion(SRAMBase, SRAMSize, false)

	m.sysregs = NewSysregsEr(SysregsBase, SysregsSize, func() {
		m.mram.SetReady(false)
	})

	m.uart = NewShaktiUart(UARTBase, UARTSize, cfg.UARTLayout)

	numShires := cfg.NumShires
	if numShires == 0 {
		numShires = 1
	}
	timer := NewRVTimer(cfg.ShireMask, numShires)
	m.esr = NewESRRegion(ESRBase, ESRSize, timer)

	sources := cfg.PLICSources
	if sources == 0 {
		sources = 32
	}
	contexts := cfg.PLICContexts
	if contexts == 0 {
		contexts = 2
	}
	m.plic = NewERPLIC(PLICBase, PLICSize, sources, contexts)

	m.regions = []MemoryRegion{
		m.sysregs,
		m.uart,
		m.rom,
		m.sram,
		m.mram,
		m.esr,
		m.plic,
	}
	sort.Slice(m.regions, func(i, j int) bool {
		fi, _ := m.regions[i].Bounds()
		fj, _ := m.regions[j].Bounds()
		return fi < fj
	})

	if cfg.BootROM != nil {
		_ = m.rom.Init(nil, 0, len(cfg.BootROM), cfg.BootROM)
	}

	return m
}

// search locates the region covering [addr, addr+n-1], mirroring
// MainMemory::search in original_source/memory/erbium/main_memory.cpp.
func (m *MainMemory) search(addr uint64, n int) (MemoryRegion, uint64, error) {
	idx := sort.Search(len(m.regions), func(i int) bool {
		_, last := m.regions[i].Bounds()
		return last >= addr
	})
	if idx == len(m.regions) {
		return nil, 0, &MemoryError{Addr: addr}
	}
	first, last := m.regions[idx].Bounds()
	if first > addr {
		return nil, 0, &MemoryError{Addr: addr}
	}
	if addr+uint64(n)-1 > last {
		return nil, 0, &OutOfRangeError{Addr: addr, N: n}
	}
	return m.regions[idx], addr - first, nil
}

func (m *MainMemory) Read(agent *Agent, addr uint64, n int, out []byte) error {
	region, pos, err := m.search(addr, n)
	if err != nil {
		return err
	}
	return region.Read(agent, pos, n, out)
}

func (m *MainMemory) Write(agent *Agent, addr uint64, n int, in []byte) error {
	region, pos, err := m.search(addr, n)
	if err != nil {
		return err
	}
	return region.Write(agent, pos, n, in)
}

func (m *MainMemory) Init(agent *Agent, addr uint64, n int, in []byte) error {
	region, pos, err := m.search(addr, n)
	if err != nil {
		return err
	}
	return region.Init(agent, pos, n, in)
}

// DumpData spans one or more adjacent regions for diagnostic inspection.
// It is diagnostic-only: a region that can't represent part of the range
// (a device gap) simply contributes nothing for that span.
func (m *MainMemory) DumpData(w io.Writer, agent *Agent, addr, n uint64) error {
	remaining := n
	pos := addr
	for remaining > 0 {
		region, rel, err := m.search(pos, 1)
		if err != nil {
			return err
		}
		first, last := region.Bounds()
		avail := last - first + 1 - rel
		take := remaining
		if take > avail {
			take = avail
		}
		if err := region.DumpData(w, agent, rel, take); err != nil {
			return err
		}
		pos += take
		remaining -= take
	}
	return nil
}

// WDTClockTick forwards one clock-driver tick to SysregsEr's watchdog.
func (m *MainMemory) WDTClockTick(agent *Agent, cycle uint64) {
	m.sysregs.WDTClockTick(agent, cycle)
}

// RVTimerClockTick divides the 200 MHz input clock by 5 before feeding the
// RVTimer's prescaler, per spec.md §4.9 and SPEC_FULL.md §5.
func (m *MainMemory) RVTimerClockTick(agent *Agent, cycle uint64) {
	if cycle%5 == 0 {
		m.esr.timer.PrescalerTick(agent)
	}
}

// Convenience accessors, mirroring MainMemory's delegation methods in
// original_source/memory/erbium/main_memory.h.

func (m *MainMemory) UARTSetTXFD(fd int) { m.uart.SetTXFD(fd) }
func (m *MainMemory) UARTSetRXFD(fd int) { m.uart.SetRXFD(fd) }

func (m *MainMemory) PLICInterruptPendingSet(agent *Agent, source int) {
	m.plic.InterruptPendingSet(agent, source)
}

func (m *MainMemory) PLICInterruptPendingClear(agent *Agent, source int) {
	m.plic.InterruptPendingClear(agent, source)
}

func (m *MainMemory) RVTimerWriteMtime(agent *Agent, v uint64) {
	m.esr.timer.WriteMtime(agent, v)
}

func (m *MainMemory) RVTimerWriteMtimecmp(agent *Agent, v uint64) {
	m.esr.timer.WriteMtimecmp(agent, v)
}

func (m *MainMemory) RVTimerReadMtime() uint64 { return m.esr.timer.ReadMtime() }

// Sysregs exposes the owned SysregsEr so a Chip implementation can delegate
// IsUARTEnabled and ColdReset-adjacent queries to it.
func (m *MainMemory) Sysregs() *SysregsEr { return m.sysregs }

// ESRIPITriggerPending reports the live IPI trigger bitmask (ESR_IPI_TRIGGER),
// for an embedding hart scheduler to consult and deliver as inter-processor
// interrupts.
func (m *MainMemory) ESRIPITriggerPending() uint64 { return m.esr.ipiTrigger }

// ESRThread0Disabled and ESRThread1Disabled report the ESR block's per-hart
// disable bitmasks (ESR_THREAD0_DISABLE/ESR_THREAD1_DISABLE); this module
// does not itself gate hart execution on them (spec.md §1 places CPU core
// execution out of scope).
func (m *MainMemory) ESRThread0Disabled() uint64 { return m.esr.thread0Disable }
func (m *MainMemory) ESRThread1Disabled() uint64 { return m.esr.thread1Disable }
