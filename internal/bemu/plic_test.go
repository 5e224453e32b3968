package bemu

import "testing"

func TestPLICClaimCompleteInFlightInterlock(t *testing.T) {
	p := NewERPLIC(PLICBase, PLICSize, 32, 2)
	agent := &Agent{}

	writePLICReg(t, p, agent, plicPriorityBase+4*1, 1)
	writePLICReg(t, p, agent, plicEnableBase+0, 1<<1) // context 0, word 0, enable source 1
	p.InterruptPendingSet(agent, 1)

	claimAddr := uint64(plicThresholdBase + plicClaimOffset)
	first, err := readPLICReg(t, p, agent, claimAddr)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected source 1 claimed, got %d", first)
	}

	second, _ := readPLICReg(t, p, agent, claimAddr)
	if second != 0 {
		t.Fatalf("in-flight interlock should block a second claim, got %d", second)
	}

	if err := writePLICReg(t, p, agent, claimAddr, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}

	third, _ := readPLICReg(t, p, agent, claimAddr)
	if third != 0 {
		t.Fatalf("claim after complete with nothing pending should return 0, got %d", third)
	}

	if err := writePLICReg(t, p, agent, claimAddr, 0xFFFFFFFF); err != nil {
		t.Fatalf("out-of-range complete should be a no-op, not an error: %v", err)
	}
}

func TestPLICSourceZeroHardwired(t *testing.T) {
	p := NewERPLIC(PLICBase, PLICSize, 32, 2)
	agent := &Agent{}

	if err := writePLICReg(t, p, agent, plicPriorityBase, 7); err != nil {
		t.Fatalf("write priority(0): %v", err)
	}
	got, _ := readPLICReg(t, p, agent, plicPriorityBase)
	if got != 0 {
		t.Fatalf("priority(0) must stay hardwired to 0, got %d", got)
	}
}

func TestPLICOutOfRangeContextIgnored(t *testing.T) {
	p := NewERPLIC(PLICBase, PLICSize, 32, 2)
	agent := &Agent{}

	outOfRangeEnable := uint64(plicEnableBase + 31*plicEnableStride)
	if err := writePLICReg(t, p, agent, outOfRangeEnable, 1<<1); err != nil {
		t.Fatalf("write to out-of-range context should be a silent no-op: %v", err)
	}

	ctx0, _ := readPLICReg(t, p, agent, plicEnableBase)
	if ctx0 != 0 {
		t.Fatalf("out-of-range write must not leak into context 0, got %d", ctx0)
	}
}

func TestPLICTieBreakLowestSourceWins(t *testing.T) {
	p := NewERPLIC(PLICBase, PLICSize, 32, 2)
	agent := &Agent{}

	writePLICReg(t, p, agent, plicPriorityBase+4*3, 5)
	writePLICReg(t, p, agent, plicPriorityBase+4*7, 5)
	writePLICReg(t, p, agent, plicEnableBase, (1<<3)|(1<<7))
	p.InterruptPendingSet(agent, 3)
	p.InterruptPendingSet(agent, 7)

	claimAddr := uint64(plicThresholdBase + plicClaimOffset)
	got, _ := readPLICReg(t, p, agent, claimAddr)
	if got != 3 {
		t.Fatalf("equal-priority tie should resolve to the lowest source id, got %d", got)
	}
}

// TestPLICThresholdRoundTrip covers spec.md §8's round-trip property for the
// per-context threshold register: read(write(v)) == v & mask, masked to its
// 3 significant bits.
func TestPLICThresholdRoundTrip(t *testing.T) {
	p := NewERPLIC(PLICBase, PLICSize, 32, 2)
	agent := &Agent{}

	thresholdAddr := uint64(plicThresholdBase)
	cases := []struct {
		write, want uint32
	}{
		{0x0, 0x0},
		{0x7, 0x7},
		{0x5, 0x5},
		{0xFF, 0x7}, // masked down to 3 bits
	}
	for _, tc := range cases {
		if err := writePLICReg(t, p, agent, thresholdAddr, tc.write); err != nil {
			t.Fatalf("write threshold 0x%x: %v", tc.write, err)
		}
		got, err := readPLICReg(t, p, agent, thresholdAddr)
		if err != nil {
			t.Fatalf("read threshold: %v", err)
		}
		if got != tc.want {
			t.Fatalf("threshold round trip: wrote 0x%x got 0x%x want 0x%x", tc.write, got, tc.want)
		}
	}
}

func TestPLICPendingIsReadOnly(t *testing.T) {
	p := NewERPLIC(PLICBase, PLICSize, 32, 2)
	agent := &Agent{}

	if err := writePLICReg(t, p, agent, plicPendingBase, 0xFFFFFFFF); err != nil {
		t.Fatalf("write to pending should be a silent no-op: %v", err)
	}
	got, _ := readPLICReg(t, p, agent, plicPendingBase)
	if got != 0 {
		t.Fatalf("pending bitmap should still read 0, got 0x%x", got)
	}
}

func writePLICReg(t *testing.T, p *ERPLIC, agent *Agent, off uint64, v uint32) error {
	t.Helper()
	buf := make([]byte, 4)
	putUint32(buf, v)
	return p.Write(agent, off, 4, buf)
}

func readPLICReg(t *testing.T, p *ERPLIC, agent *Agent, off uint64) (uint32, error) {
	t.Helper()
	buf := make([]byte, 4)
	if err := p.Read(agent, off, 4, buf); err != nil {
		return 0, err
	}
	return getUint32(buf), nil
}
