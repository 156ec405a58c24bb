// Package bus implements the platform's port-decode fabric and the
// memory side of the CPU callback contract: every I/O read or write
// the 8085 issues lands here and is dispatched by port range to the
// owning device. Accesses outside every range read 0xFF and drop
// writes, matching the open bus of the real board.
package bus

import (
	"log"

	"v85/acia"
	"v85/dma"
	"v85/fdc"
	"v85/ide"
	"v85/mdrive"
	"v85/memory"
	"v85/rtc"
	"v85/timer"
	"v85/trace"
	"v85/video"
)

// Devices enumerates everything the fabric dispatches to. All fields
// must be non-nil; the platform wires the full set at construction.
type Devices struct {
	Mem    *memory.Map
	ACIA   *acia.ACIA
	IDE    *ide.Bridge
	FDC    *fdc.FDC
	DMA    *dma.DMA
	MDrive *mdrive.MDrive
	RTC    *rtc.RTC
	Video  *video.ALT256
	Timer  *timer.Timer
}

// Bus is the dispatch fabric. It implements cpucore.Bus, so a CPU
// core binds to it directly for both memory and I/O traffic.
type Bus struct {
	d     Devices
	flags *trace.Flags
}

// New builds a fabric over the given device set and trace flags.
func New(d Devices, flags *trace.Flags) *Bus {
	return &Bus{d: d, flags: flags}
}

// Read implements the CPU core's memory-read callback.
func (b *Bus) Read(addr uint16) uint8 {
	v := b.d.Mem.Read(addr)
	if b.flags.Has(trace.Mem) {
		log.Printf("R%d %04X = %02X", b.d.Mem.ActiveBank(), addr, v)
	}
	return v
}

// Write implements the CPU core's memory-write callback.
func (b *Bus) Write(addr uint16, val uint8) {
	if b.flags.Has(trace.Mem) {
		log.Printf("W%d %04X = %02X", b.d.Mem.ActiveBank(), addr, val)
	}
	b.d.Mem.Write(addr, val)
}

// portBit maps a port to the trace bit of the device that owns it,
// or 0 for ranges with no per-device channel.
func portBit(port uint8) trace.Bit {
	switch {
	case port <= 0x01:
		return trace.ACIA
	case port >= 0x18 && port <= 0x1F:
		return trace.FDC
	case port >= 0x20 && port <= 0x2F:
		return trace.DMA
	case port == 0xC6 || port == 0xC7:
		return trace.MDrive
	case port == 0xF0 || port == 0xF1:
		return trace.RTC
	}
	return 0
}

// In implements the CPU core's port-read callback.
func (b *Bus) In(port uint8) uint8 {
	if b.flags.Has(trace.IO) {
		log.Printf("read %02x", port)
	}
	v, known := b.inPort(port)
	if !known && b.flags.Has(trace.Unknown) {
		log.Printf("Unknown read from port %02X", port)
	}
	if bit := portBit(port); known && bit != 0 && b.flags.Has(bit) {
		log.Printf("port %02X read = %02X", port, v)
	}
	return v
}

func (b *Bus) inPort(port uint8) (uint8, bool) {
	switch {
	case port <= 0x01:
		if port&1 == 0 {
			return b.d.ACIA.ReadStatus(), true
		}
		return b.d.ACIA.ReadData(), true
	case port >= 0x10 && port <= 0x17:
		return b.d.IDE.Read(port & 0x07), true
	case port >= 0x18 && port <= 0x1F:
		return b.d.FDC.ReadPort(port & 0x03), true
	case port >= 0x20 && port <= 0x2F:
		return b.d.DMA.ReadPort(port & 0x0F), true
	case port == 0xC6:
		return b.d.MDrive.ReadPort(), true
	case port == 0xC7:
		return b.d.MDrive.ReadAddrPort(), true
	case port >= 0xE0 && port <= 0xE3:
		return b.d.Video.ReadPort(port & 0x03), true
	case port == 0xF0:
		return b.d.RTC.ReadData(), true
	case port == 0xF1:
		// The selector is write-only; its read floats.
		return 0xFF, true
	case port == 0xFE:
		return b.d.Timer.Read(), true
	}
	return 0xFF, false
}

// Out implements the CPU core's port-write callback.
func (b *Bus) Out(port uint8, val uint8) {
	if b.flags.Has(trace.IO) {
		log.Printf("write %02x <- %02x", port, val)
	}
	if bit := portBit(port); bit != 0 && b.flags.Has(bit) {
		log.Printf("port %02X write <- %02X", port, val)
	}
	switch {
	case port <= 0x01:
		if port&1 == 0 {
			b.d.ACIA.WriteControl(val)
		} else {
			b.d.ACIA.WriteData(val)
		}
	case port >= 0x10 && port <= 0x17:
		b.d.IDE.Write(port&0x07, val)
	case port >= 0x18 && port <= 0x1F:
		b.d.FDC.WritePort(port&0x03, val)
	case port >= 0x20 && port <= 0x2F:
		b.d.DMA.WritePort(port&0x0F, val)
	case port == 0x40:
		if b.flags.Has(trace.Bank) {
			log.Printf("Bank select %02X", val)
		}
		b.d.Mem.SelectPort(val)
	case port == 0xC6:
		b.d.MDrive.WritePort(val)
	case port == 0xC7:
		b.d.MDrive.WriteAddrPort(val)
	case port >= 0xE0 && port <= 0xE3:
		b.d.Video.WritePort(port&0x03, val)
	case port == 0xF0:
		// The RTC data port is read-only; the write side of the pair
		// lives entirely at 0xF1.
	case port == 0xF1:
		b.d.RTC.WriteSelector(val)
	case port == 0xFD:
		log.Printf("trace set to %d", val)
		b.flags.Set(val)
	case port == 0xFE:
		b.d.Timer.Write(val)
	default:
		if b.flags.Has(trace.Unknown) {
			log.Printf("Unknown write to port %02X of %02X", port, val)
		}
	}
}
