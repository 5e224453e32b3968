package bemu

import "io"

// PLIC register block layout, RISC-V PLIC 1.0.0, per spec.md §4.7.
const (
	plicPriorityBase  = 0x000000
	plicPendingBase   = 0x001000
	plicEnableBase    = 0x002000
	plicEnableStride  = 0x80
	plicThresholdBase = 0x200000
	plicContextStride = 0x1000
	plicClaimOffset   = 0x4
)

// ERPLIC is the platform-level interrupt controller: per-source priority and
// pending state, per-context enable bitmaps, threshold, and claim/complete
// with an in-flight interlock.
type ERPLIC struct {
	first uint64
	size  uint64

	numSources  int
	numContexts int

	priority  []uint8  // 3 bits each, index 0 hardwired to 0
	pending   []bool
	enable    [][]bool // [context][source]
	threshold []uint8  // 3 bits each
	inFlight  []int    // 0 == idle, per context
}

// NewERPLIC builds a PLIC with numSources sources (source 0 is always
// hardwired priority-0 and carries no interrupt) and numContexts targets.
func NewERPLIC(first, size uint64, numSources, numContexts int) *ERPLIC {
	p := &ERPLIC{
		first:       first,
		size:        size,
		numSources:  numSources,
		numContexts: numContexts,
		priority:    make([]uint8, numSources),
		pending:     make([]bool, numSources),
		threshold:   make([]uint8, numContexts),
		inFlight:    make([]int, numContexts),
	}
	p.enable = make([][]bool, numContexts)
	for c := range p.enable {
		p.enable[c] = make([]bool, numSources)
	}
	return p
}

func (p *ERPLIC) Bounds() (uint64, uint64) {
	return p.first, p.first + p.size - 1
}

func (p *ERPLIC) Init(agent *Agent, pos uint64, n int, in []byte) error {
	return &InitNotSupportedError{Region: "ERPLIC"}
}

func (p *ERPLIC) DumpData(w io.Writer, agent *Agent, pos, n uint64) error {
	return nil
}

// InterruptPendingSet asserts a source's pending bit. Source 0 is hardwired
// and ignores this call, as does any out-of-range source.
func (p *ERPLIC) InterruptPendingSet(agent *Agent, source int) {
	if source <= 0 || source >= p.numSources {
		return
	}
	p.pending[source] = true
}

// InterruptPendingClear deasserts a source's pending bit directly (distinct
// from the clear-on-claim path).
func (p *ERPLIC) InterruptPendingClear(agent *Agent, source int) {
	if source <= 0 || source >= p.numSources {
		return
	}
	p.pending[source] = false
}

func (p *ERPLIC) claim(ctx int) uint32 {
	if ctx < 0 || ctx >= p.numContexts {
		return 0
	}
	if p.inFlight[ctx] != 0 {
		return 0
	}
	best := 0
	var bestPriority uint8
	for src := 1; src < p.numSources; src++ {
		if !p.pending[src] || !p.enable[ctx][src] {
			continue
		}
		if p.priority[src] <= p.threshold[ctx] {
			continue
		}
		if p.priority[src] > bestPriority {
			bestPriority = p.priority[src]
			best = src
		}
	}
	if best == 0 {
		return 0
	}
	p.pending[best] = false
	p.inFlight[ctx] = best
	return uint32(best)
}

func (p *ERPLIC) complete(ctx int, source uint32) {
	if ctx < 0 || ctx >= p.numContexts {
		return
	}
	if int(source) == p.inFlight[ctx] {
		p.inFlight[ctx] = 0
	}
}

func (p *ERPLIC) Read(agent *Agent, pos uint64, n int, out []byte) error {
	if n != 4 {
		return &MemoryError{Addr: p.first + pos}
	}
	var v uint32
	switch {
	case pos >= plicPriorityBase && pos < plicPendingBase:
		src := int((pos - plicPriorityBase) / 4)
		if src > 0 && src < p.numSources {
			v = uint32(p.priority[src])
		}
	case pos >= plicPendingBase && pos < plicEnableBase:
		word := int((pos - plicPendingBase) / 4)
		v = p.pendingWord(word)
	case pos >= plicEnableBase && pos < plicThresholdBase:
		ctx, word, ok := p.decodeEnableOffset(pos)
		if ok {
			v = p.enableWord(ctx, word)
		}
	case pos >= plicThresholdBase:
		ctx, reg, ok := p.decodeContextOffset(pos)
		if ok {
			switch reg {
			case 0:
				v = uint32(p.threshold[ctx])
			case plicClaimOffset:
				v = p.claim(ctx)
			}
		}
	}
	putUint32(out[:4], v)
	return nil
}

func (p *ERPLIC) Write(agent *Agent, pos uint64, n int, in []byte) error {
	if n != 4 {
		return &MemoryError{Addr: p.first + pos}
	}
	v := getUint32(in[:4])
	switch {
	case pos >= plicPriorityBase && pos < plicPendingBase:
		src := int((pos - plicPriorityBase) / 4)
		if src > 0 && src < p.numSources {
			p.priority[src] = uint8(v & 0x7)
		}
	case pos >= plicPendingBase && pos < plicEnableBase:
		// pending is read-only to the guest
	case pos >= plicEnableBase && pos < plicThresholdBase:
		ctx, word, ok := p.decodeEnableOffset(pos)
		if ok {
			p.setEnableWord(ctx, word, v)
		}
	case pos >= plicThresholdBase:
		ctx, reg, ok := p.decodeContextOffset(pos)
		if ok {
			switch reg {
			case 0:
				p.threshold[ctx] = uint8(v & 0x7)
			case plicClaimOffset:
				p.complete(ctx, v)
			}
		}
	}
	return nil
}

func (p *ERPLIC) pendingWord(word int) uint32 {
	var v uint32
	for b := 0; b < 32; b++ {
		src := word*32 + b
		if src >= p.numSources {
			break
		}
		if p.pending[src] {
			v |= 1 << uint(b)
		}
	}
	return v
}

func (p *ERPLIC) enableWord(ctx, word int) uint32 {
	if ctx < 0 || ctx >= p.numContexts {
		return 0
	}
	var v uint32
	for b := 0; b < 32; b++ {
		src := word*32 + b
		if src >= p.numSources {
			break
		}
		if p.enable[ctx][src] {
			v |= 1 << uint(b)
		}
	}
	return v
}

func (p *ERPLIC) setEnableWord(ctx, word int, v uint32) {
	if ctx < 0 || ctx >= p.numContexts {
		return
	}
	for b := 0; b < 32; b++ {
		src := word*32 + b
		if src >= p.numSources {
			break
		}
		p.enable[ctx][src] = v&(1<<uint(b)) != 0
	}
}

func (p *ERPLIC) decodeEnableOffset(pos uint64) (ctx, word int, ok bool) {
	rel := pos - plicEnableBase
	ctx = int(rel / plicEnableStride)
	word = int((rel % plicEnableStride) / 4)
	if ctx < 0 || ctx >= p.numContexts {
		return 0, 0, false
	}
	return ctx, word, true
}

func (p *ERPLIC) decodeContextOffset(pos uint64) (ctx int, reg uint64, ok bool) {
	rel := pos - plicThresholdBase
	ctx = int(rel / plicContextStride)
	reg = rel % plicContextStride
	if ctx < 0 || ctx >= p.numContexts {
		return 0, 0, false
	}
	return ctx, reg, true
}
