package bemu

import (
	"os"
	"testing"
)

type uartTestChip struct {
	enabled bool
}

func (c *uartTestChip) RaiseMachineTimerInterrupt(shire int) {}
func (c *uartTestChip) ClearMachineTimerInterrupt(shire int) {}
func (c *uartTestChip) ColdReset()                           {}
func (c *uartTestChip) IsUARTEnabled() bool                  { return c.enabled }

func TestUARTPinMuxGating(t *testing.T) {
	rxR, rxW, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer rxR.Close()
	defer rxW.Close()

	u := NewShaktiUart(UARTBase, UARTSize, UARTLayoutNarrow)
	u.SetRXFD(int(rxR.Fd()))
	chip := &uartTestChip{enabled: false}
	agent := &Agent{Chip: chip}

	status, err := readUARTReg(t, u, agent, uartOffsetsNarrow[uartRegSTATUS])
	if err != nil {
		t.Fatalf("read STATUS: %v", err)
	}
	if status&statusTxEmpty == 0 {
		t.Fatalf("TX_EMPTY should always be set")
	}
	if status&statusRxNotEmpty != 0 {
		t.Fatalf("RX_NOT_EMPTY must be clear while disabled")
	}

	rcv, err := readUARTReg(t, u, agent, uartOffsetsNarrow[uartRegRCV])
	if err != nil {
		t.Fatalf("read RCV: %v", err)
	}
	if rcv != 0 {
		t.Fatalf("RCV should read 0 while disabled, got %d", rcv)
	}

	if err := writeUARTReg(t, u, agent, uartOffsetsNarrow[uartRegTX], 'x'); err != nil {
		t.Fatalf("write TX while disabled should be a silent no-op: %v", err)
	}

	chip.enabled = true
	if _, err := rxW.Write([]byte{'A'}); err != nil {
		t.Fatalf("feed RX byte: %v", err)
	}

	status2, err := readUARTReg(t, u, agent, uartOffsetsNarrow[uartRegSTATUS])
	if err != nil {
		t.Fatalf("read STATUS after enabling: %v", err)
	}
	if status2&statusRxNotEmpty == 0 {
		t.Fatalf("RX_NOT_EMPTY should be set once enabled and a byte is available")
	}

	rcv2, err := readUARTReg(t, u, agent, uartOffsetsNarrow[uartRegRCV])
	if err != nil {
		t.Fatalf("read RCV after enabling: %v", err)
	}
	if rcv2 != uint32('A') {
		t.Fatalf("expected 'A', got %q", rune(rcv2))
	}

	status3, _ := readUARTReg(t, u, agent, uartOffsetsNarrow[uartRegSTATUS])
	if status3&statusRxNotEmpty != 0 {
		t.Fatalf("RX_NOT_EMPTY should clear once the buffered byte is consumed")
	}
}

func TestUARTTXWritesToDescriptor(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	u := NewShaktiUart(UARTBase, UARTSize, UARTLayoutNarrow)
	u.SetTXFD(int(w.Fd()))
	agent := &Agent{Chip: &uartTestChip{enabled: true}}

	if err := writeUARTReg(t, u, agent, uartOffsetsNarrow[uartRegTX], 'Z'); err != nil {
		t.Fatalf("write TX: %v", err)
	}

	buf := make([]byte, 1)
	if _, err := r.Read(buf); err != nil {
		t.Fatalf("read back TX byte: %v", err)
	}
	if buf[0] != 'Z' {
		t.Fatalf("expected 'Z' on the wire, got %q", rune(buf[0]))
	}
}

func TestUARTRXEOFDetachesDescriptor(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	u := NewShaktiUart(UARTBase, UARTSize, UARTLayoutNarrow)
	u.SetRXFD(int(r.Fd()))
	agent := &Agent{Chip: &uartTestChip{enabled: true}}

	w.Close() // EOF on the read side

	status, err := readUARTReg(t, u, agent, uartOffsetsNarrow[uartRegSTATUS])
	if err != nil {
		t.Fatalf("read STATUS: %v", err)
	}
	if status&statusRxNotEmpty != 0 {
		t.Fatalf("EOF should never report data available")
	}
	if u.rxFD != -1 {
		t.Fatalf("EOF should detach rx_fd, got %d", u.rxFD)
	}
}

// TestUARTRoundTripRegisters covers spec.md §8's round-trip property for
// ShaktiUart's plain r/w registers — the ones with no pin-mux gating, no
// FD side effect, and no masking.
func TestUARTRoundTripRegisters(t *testing.T) {
	cases := []struct {
		name string
		idx  int
	}{
		{"BAUD", uartRegBAUD},
		{"DELAY", uartRegDELAY},
		{"CONTROL", uartRegCONTROL},
		{"IEN", uartRegIEN},
		{"RX_THRESHOLD", uartRegRXTHRESHOLD},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := NewShaktiUart(UARTBase, UARTSize, UARTLayoutNarrow)
			agent := &Agent{Chip: &uartTestChip{enabled: true}}
			off := uartOffsetsNarrow[tc.idx]

			for _, v := range []uint32{0x0, 0x1, 0xDEADBEEF, 0xFFFFFFFF} {
				if err := writeUARTReg(t, u, agent, off, v); err != nil {
					t.Fatalf("write 0x%x: %v", v, err)
				}
				got, err := readUARTReg(t, u, agent, off)
				if err != nil {
					t.Fatalf("read after write 0x%x: %v", v, err)
				}
				if got != v {
					t.Fatalf("round trip: wrote 0x%x got 0x%x", v, got)
				}
			}
		})
	}
}

func TestUARTWideLayoutOffsetsDiffer(t *testing.T) {
	narrow := NewShaktiUart(UARTBase, UARTSize, UARTLayoutNarrow)
	wide := NewShaktiUart(UARTBase, UARTSize, UARTLayoutWide)
	agent := &Agent{Chip: &uartTestChip{enabled: true}}

	out := make([]byte, 4)
	if err := narrow.Read(agent, uartOffsetsWide[uartRegRXTHRESHOLD], 4, out); err == nil {
		t.Fatalf("narrow layout must reject the wide layout's offsets")
	}
	if err := wide.Read(agent, uartOffsetsNarrow[uartRegTX], 4, out); err == nil {
		t.Fatalf("wide layout must reject the narrow layout's offsets")
	}
}

func readUARTReg(t *testing.T, u *ShaktiUart, agent *Agent, off uint64) (uint32, error) {
	t.Helper()
	buf := make([]byte, 4)
	if err := u.Read(agent, off, 4, buf); err != nil {
		return 0, err
	}
	return getUint32(buf), nil
}

func writeUARTReg(t *testing.T, u *ShaktiUart, agent *Agent, off uint64, v uint32) error {
	t.Helper()
	buf := make([]byte, 4)
	putUint32(buf, v)
	return u.Write(agent, off, 4, buf)
}
