package bemu

import (
	"io"

	"golang.org/x/sys/unix"
)

// UARTLayout selects one of the two register-stride variants present in the
// original source under the same type name. A ShaktiUart is built with one
// layout and never reinterprets the other at runtime (spec.md §9 open
// question, resolved in SPEC_FULL.md §10 item 1).
type UARTLayout int

const (
	UARTLayoutNarrow UARTLayout = iota
	UARTLayoutWide
)

// Logical register indices, shared across both layouts.
const (
	uartRegBAUD = iota
	uartRegTX
	uartRegRCV
	uartRegSTATUS
	uartRegDELAY
	uartRegCONTROL
	uartRegIEN
	uartRegRXTHRESHOLD
	uartRegCount
)

var uartOffsetsNarrow = [uartRegCount]uint64{0x00, 0x04, 0x08, 0x0C, 0x10, 0x14, 0x18, 0x20}
var uartOffsetsWide = [uartRegCount]uint64{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x40}

// STATUS bits.
const (
	statusTxEmpty    uint32 = 1 << 0
	statusTxFull     uint32 = 1 << 1
	statusRxNotEmpty uint32 = 1 << 2
	statusRxFull     uint32 = 1 << 3
)

// ShaktiUart is the FD-backed UART with pin-mux gating tied to the chip's
// SYSTEM_CONFIG.UART_ENABLE bit, and EOF-aware RX polling per spec.md §4.6.
type ShaktiUart struct {
	first uint64
	size  uint64

	offsets [uartRegCount]uint64

	txFD int
	rxFD int

	rxHasByte bool
	rxByteBuf byte

	baud, delay, control, ien, rxThreshold uint32
}

// NewShaktiUart builds the UART with the given register layout. txFD/rxFD
// start detached (-1); use SetTXFD/SetRXFD to attach host descriptors.
func NewShaktiUart(first, size uint64, layout UARTLayout) *ShaktiUart {
	u := &ShaktiUart{first: first, size: size, txFD: -1, rxFD: -1}
	if layout == UARTLayoutWide {
		u.offsets = uartOffsetsWide
	} else {
		u.offsets = uartOffsetsNarrow
	}
	return u
}

func (u *ShaktiUart) SetTXFD(fd int) { u.txFD = fd }
func (u *ShaktiUart) SetRXFD(fd int) { u.rxFD = fd }

func (u *ShaktiUart) Bounds() (uint64, uint64) {
	return u.first, u.first + u.size - 1
}

func (u *ShaktiUart) Init(agent *Agent, pos uint64, n int, in []byte) error {
	return &InitNotSupportedError{Region: "ShaktiUart"}
}

func (u *ShaktiUart) DumpData(w io.Writer, agent *Agent, pos, n uint64) error {
	return nil
}

func (u *ShaktiUart) regIndex(pos uint64) (int, bool) {
	for i, off := range u.offsets {
		if off == pos {
			return i, true
		}
	}
	return 0, false
}

// rxDataAvailable implements the three-outcome EOF-versus-data contract
// from spec.md §4.6. It may have the side effect of buffering a byte.
func (u *ShaktiUart) rxDataAvailable() bool {
	if u.rxHasByte {
		return true
	}
	if u.rxFD == -1 {
		return false
	}

	pfd := []unix.PollFd{{Fd: int32(u.rxFD), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, 0)
	// A pipe whose write end is closed reports POLLHUP without POLLIN; the
	// read below is what tells EOF apart from data.
	if err != nil || n == 0 || pfd[0].Revents&(unix.POLLIN|unix.POLLHUP) == 0 {
		return false
	}

	var buf [1]byte
	nr, err := unix.Read(u.rxFD, buf[:])
	switch {
	case err != nil:
		// read < 0: leave the descriptor attached, report unavailable.
		return false
	case nr == 0:
		u.rxFD = -1
		return false
	case nr == 1:
		u.rxHasByte = true
		u.rxByteBuf = buf[0]
		return true
	default:
		return false
	}
}

func (u *ShaktiUart) Read(agent *Agent, pos uint64, n int, out []byte) error {
	if n != 4 {
		return &MemoryError{Addr: u.first + pos}
	}
	idx, ok := u.regIndex(pos)
	if !ok {
		return &MemoryError{Addr: u.first + pos}
	}

	enabled := agent.Chip.IsUARTEnabled()

	var v uint32
	switch idx {
	case uartRegBAUD:
		v = u.baud
	case uartRegTX:
		v = 0
	case uartRegRCV:
		if enabled && u.rxDataAvailable() {
			v = uint32(u.rxByteBuf)
			u.rxHasByte = false
		}
	case uartRegSTATUS:
		v = statusTxEmpty
		if enabled && u.rxDataAvailable() {
			v |= statusRxNotEmpty
		}
	case uartRegDELAY:
		v = u.delay
	case uartRegCONTROL:
		v = u.control
	case uartRegIEN:
		v = u.ien
	case uartRegRXTHRESHOLD:
		v = u.rxThreshold
	}
	putUint32(out[:4], v)
	return nil
}

func (u *ShaktiUart) Write(agent *Agent, pos uint64, n int, in []byte) error {
	if n != 4 {
		return &MemoryError{Addr: u.first + pos}
	}
	idx, ok := u.regIndex(pos)
	if !ok {
		return &MemoryError{Addr: u.first + pos}
	}

	v := getUint32(in[:4])
	enabled := agent.Chip.IsUARTEnabled()

	switch idx {
	case uartRegBAUD:
		u.baud = v
	case uartRegTX:
		if !enabled || u.txFD == -1 {
			return nil
		}
		b := [1]byte{byte(v)}
		if _, err := unix.Write(u.txFD, b[:]); err != nil {
			return &IoError{Err: err}
		}
	case uartRegRCV, uartRegSTATUS:
		// read-only: silent no-op
	case uartRegDELAY:
		u.delay = v
	case uartRegCONTROL:
		u.control = v
	case uartRegIEN:
		u.ien = v
	case uartRegRXTHRESHOLD:
		u.rxThreshold = v
	}
	return nil
}
