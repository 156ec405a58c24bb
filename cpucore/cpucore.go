// Package cpucore defines the contract between the platform harness and
// an external 8085 instruction decoder. The decoder itself is supplied
// by the caller; this package only describes the shape a core must
// have to be driven by the scheduler.
package cpucore

import "v85/irq"

// Bus is the memory/IO side of the contract a CPU core calls back
// into. The platform implements this once (bus.Bus); Core has no
// binding method, so a concrete core takes its Bus when it is built.
type Bus interface {
	// Read returns the byte at a 16-bit memory address.
	Read(addr uint16) uint8
	// Write stores a byte at a 16-bit memory address.
	Write(addr uint16, val uint8)
	// In returns the byte read from an 8-bit I/O port.
	In(port uint8) uint8
	// Out writes a byte to an 8-bit I/O port.
	Out(port uint8, val uint8)
}

// Core is the external 8085 decoder's consumer-facing surface. No
// opcode semantics live here: a concrete implementation binds Bus and
// exposes execution purely in terms of T-state budgets.
type Core interface {
	// Reset restores power-on CPU state and jumps to the reset vector.
	Reset()
	// Exec runs instructions until budget T-states have been consumed
	// or exceeded, then returns. The return value is the signed
	// leftover: positive if budget went unused (Exec should not return
	// early with unused budget in practice, but the contract allows
	// it), negative if the last instruction overran the budget. The
	// caller folds this leftover into the next slice's budget.
	Exec(budget int) int
	irq.Receiver
}

// NullCore is a placeholder Core that never advances program state. It
// keeps the platform runnable (and testable) while no concrete 8085
// decoder is wired in: Exec immediately returns the full budget as
// unused, Reset and the irq.Receiver methods are no-ops that simply
// record their last call for assertions in tests.
type NullCore struct {
	irq.Lines
	ResetCount int
	ExecCalls  []int
}

// Reset implements Core.
func (c *NullCore) Reset() {
	c.ResetCount++
}

// Exec implements Core. It performs no instruction decode and reports
// the entire budget as leftover, so a scheduler driving a NullCore
// never blocks waiting on CPU work.
func (c *NullCore) Exec(budget int) int {
	c.ExecCalls = append(c.ExecCalls, budget)
	return budget
}
