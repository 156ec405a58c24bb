// Package acia implements a 6850-style asynchronous serial controller
// bridged to the host terminal, owning the 8085's RST7.5 interrupt
// line. Framing, parity and baud-divider bits are tracked but never
// influence emulation; host I/O is byte-raw.
package acia

import (
	"io"

	"v85/irq"
)

const (
	statusIRQ     = 0x80
	statusRxOver  = 0x20
	statusTxEmpty = 0x02
	statusRxFull  = 0x01
	configDivider = 0x03
	configReset   = 0x03
	initialStatus = statusTxEmpty
)

// ACIA is the 6850 register file plus the receive/transmit latches the
// host-terminal bridge feeds.
type ACIA struct {
	status uint8
	config uint8
	char   uint8
	inInt  bool

	irq irq.Receiver
	out io.Writer
}

// New returns a powered-on ACIA wired to the given interrupt receiver
// and host terminal output.
func New(recv irq.Receiver, out io.Writer) *ACIA {
	a := &ACIA{irq: recv, out: out}
	a.PowerOn()
	return a
}

// PowerOn resets to tx-empty, no pending interrupt.
func (a *ACIA) PowerOn() {
	a.status = initialStatus
	a.config = 0
	a.char = 0
	a.inInt = false
}

// ReadStatus implements a read of port 0x00: return status, then clear
// its IRQ bit and the in-interrupt latch.
func (a *ACIA) ReadStatus() uint8 {
	s := a.status
	a.status &^= statusIRQ
	a.inInt = false
	return s
}

// ReadData implements a read of port 0x01: return the last received
// byte, clearing rx-full and IRQ.
func (a *ACIA) ReadData() uint8 {
	c := a.char
	a.status &^= statusIRQ | statusRxFull
	a.inInt = false
	return c
}

// WriteControl implements a write to port 0x00.
func (a *ACIA) WriteControl(val uint8) {
	a.config = val
	if val&configDivider == configReset {
		a.status = statusTxEmpty
		a.inInt = false
	}
	a.recomputeIRQ()
}

// WriteData implements a write to port 0x01: transmit one byte to the
// host terminal and clear tx-empty/IRQ until the next poll sets them
// again.
func (a *ACIA) WriteData(val uint8) {
	if a.out != nil {
		a.out.Write([]byte{val})
	}
	a.status &^= statusTxEmpty | statusIRQ
	a.recomputeIRQ()
}

// Poll is called once per CPU slice with the host terminal's current
// readiness. A readable terminal synthesizes a receive event (LF
// translated to CR, rx overrun carried into status bit 5 if rx-full
// was already set); a writable terminal marks tx-empty. Either sets
// IRQ and recomputes the RST7.5 line.
func (a *ACIA) Poll(readable, writable bool, recvByte byte) {
	if readable {
		if recvByte == 0x0A {
			recvByte = 0x0D
		}
		old := a.status
		a.status &^= statusRxOver
		if old&statusRxFull != 0 {
			a.status |= statusRxOver
		}
		a.char = recvByte
		a.status |= statusIRQ | statusRxFull
	}
	if writable {
		a.status |= statusTxEmpty | statusIRQ
	}
	if readable || writable {
		a.recomputeIRQ()
	}
}

// recomputeIRQ asserts RST7.5 when config & status & 0x80 is
// non-zero, latching inInt to suppress duplicate assertions until
// status is read.
func (a *ACIA) recomputeIRQ() {
	if a.config&a.status&statusIRQ == 0 {
		return
	}
	if a.inInt {
		return
	}
	a.inInt = true
	a.irq.SetInt(irq.RST75)
}
