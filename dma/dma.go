// Package dma implements an 8237-style four-channel DMA controller,
// co-scheduled with the CPU: channels 0/1 perform memory-to-memory
// transfers, channel 3 drives the floppy controller's single-transfer
// DMA. Channel 2 exists in the register file but nothing on this
// platform drives it.
package dma

// Memory is the address-space side of the controller's consumer
// contract: the 64 KiB CPU view the DMA engine reads and writes
// through. Addresses below 0xC000 reach whatever bank is currently
// selected, exactly as CPU accesses do.
type Memory interface {
	Read(addr uint16) uint8
	Write(addr uint16, val uint8)
}

// Floppy is the channel-3 side of the controller's consumer contract.
type Floppy interface {
	ReadData() uint8
	WriteData(val uint8)
	SetTerminalCount(asserted bool)
}

const (
	cmdM2MEnable   = 0x01
	cmdSourceHold  = 0x02
	cmdDisable     = 0x04
	modeTypeMask   = 0x0C
	modeTypeVerify = 0x00
	modeTypeWrite  = 0x04
	modeTypeRead   = 0x08
	modeTypeInvalid = 0x0C
	modeAutoinit   = 0x10
	modeDecrement  = 0x20
	requestFloppy  = 0x08
	requestForced  = 0xF0
	tstatesPerXfer = 4
)

// channel is one of the controller's four address/count/mode triples.
type channel struct {
	base      uint16
	baseCount uint16
	car       uint16 // current address register
	cwcr      uint16 // current word count register
	mode      uint8
}

// DMA is the full 8237 register file plus the two devices it moves
// bytes between.
type DMA struct {
	ch       [4]channel
	command  uint8
	status   uint8
	request  uint8
	mask     uint8
	temp     uint8
	flipflop bool

	mem    Memory
	floppy Floppy
}

// New wires a DMA controller to the CPU address space and the floppy
// channel it feeds.
func New(mem Memory, floppy Floppy) *DMA {
	d := &DMA{mem: mem, floppy: floppy}
	d.MasterClear()
	return d
}

// MasterClear implements a write to port offset 0x0D: zero command,
// status, temp; mask all channels; force request to 0xF0; clear the
// flip-flop.
func (d *DMA) MasterClear() {
	d.command = 0
	d.status = 0
	d.temp = 0
	d.mask = 0x0F
	d.request = requestForced
	d.flipflop = false
}

// ArmFloppyChannel reflects the floppy engine's current DMA-pending
// state into channel 3's request bit, called once per CPU slice
// before the engine runs.
func (d *DMA) ArmFloppyChannel(pending bool) {
	if pending {
		d.request |= requestFloppy
	} else {
		d.request &^= requestFloppy
	}
}

// ReadPort dispatches a register-file read. Offsets 0-7 are the four
// channels' address/count register pairs (flip-flop selected);
// offset 8 is status, 9 request, 0x0A mask, 0x0D temp. Anything else
// reads as 0xFF.
func (d *DMA) ReadPort(offset uint8) uint8 {
	switch {
	case offset < 8:
		return d.readChannelReg(offset)
	case offset == 0x08:
		return d.readStatus()
	case offset == 0x09:
		return d.request
	case offset == 0x0A:
		return d.mask
	case offset == 0x0D:
		return d.temp
	default:
		return 0xFF
	}
}

// WritePort dispatches a register-file write.
func (d *DMA) WritePort(offset uint8, val uint8) {
	switch {
	case offset < 8:
		d.writeChannelReg(offset, val)
	case offset == 0x08:
		d.command = val
	case offset == 0x09:
		d.request = val | requestForced
	case offset == 0x0A:
		d.mask = val
	case offset == 0x0B:
		d.ch[val&0x03].mode = val
	case offset == 0x0C:
		d.flipflop = false
	case offset == 0x0D:
		d.MasterClear()
	}
}

func (d *DMA) readChannelReg(offset uint8) uint8 {
	ch := &d.ch[offset/2]
	var word uint16
	if offset%2 == 0 {
		word = ch.car
	} else {
		word = ch.cwcr
	}
	return d.flipflopByte(word)
}

func (d *DMA) writeChannelReg(offset uint8, val uint8) {
	ch := &d.ch[offset/2]
	if offset%2 == 0 {
		ch.car, ch.base = setFlipflopByte(ch.car, val, d.flipflop), setFlipflopByte(ch.base, val, d.flipflop)
	} else {
		ch.cwcr, ch.baseCount = setFlipflopByte(ch.cwcr, val, d.flipflop), setFlipflopByte(ch.baseCount, val, d.flipflop)
	}
	d.flipflop = !d.flipflop
}

// flipflopByte returns the low or high byte of word depending on the
// current flip-flop phase, then toggles it. Every 16-bit register
// access (read or write) shares this single toggle.
func (d *DMA) flipflopByte(word uint16) uint8 {
	var b uint8
	if !d.flipflop {
		b = uint8(word)
	} else {
		b = uint8(word >> 8)
	}
	d.flipflop = !d.flipflop
	return b
}

func setFlipflopByte(word uint16, val uint8, high bool) uint16 {
	if !high {
		return (word &^ 0x00FF) | uint16(val)
	}
	return (word &^ 0xFF00) | (uint16(val) << 8)
}

func (d *DMA) readStatus() uint8 {
	s := d.status
	d.status &^= 0xF0
	d.floppy.SetTerminalCount(false)
	return s
}

// skip reports whether a channel must sit out this sweep: the engine
// globally disabled, the channel masked, or its terminal-count flag
// already latched in status.
func (d *DMA) skip(idx int) bool {
	if d.command&cmdDisable != 0 {
		return true
	}
	if d.mask&(1<<idx) != 0 {
		return true
	}
	if d.status&(1<<(4+idx)) != 0 {
		return true
	}
	return false
}

func (d *DMA) m2mEnabled() bool {
	return d.command&cmdM2MEnable != 0 && d.request&0x01 != 0
}

// advance moves a channel's current address by one byte (unless
// held), decrements its word count, and on underflow latches the
// status bit, pulses the floppy terminal-count line for channel 3,
// and reloads from base if autoinit is set.
func (d *DMA) advance(idx int, hold bool) {
	ch := &d.ch[idx]
	if !hold {
		if ch.mode&modeDecrement != 0 {
			ch.car--
		} else {
			ch.car++
		}
	}
	ch.cwcr--
	if ch.cwcr != 0xFFFF {
		return
	}
	d.status |= 1 << (4 + idx)
	if idx == 3 {
		d.floppy.SetTerminalCount(true)
	}
	if ch.mode&modeAutoinit != 0 {
		ch.car = ch.base
		ch.cwcr = ch.baseCount
	}
}

// runMemToMem performs one source-read/dest-write byte move across
// channels 0 and 1.
func (d *DMA) runMemToMem() {
	d.temp = d.mem.Read(d.ch[0].car)
	d.advance(0, d.command&cmdSourceHold != 0)
	d.mem.Write(d.ch[1].car, d.temp)
	d.advance(1, false)
}

// runFloppy performs one channel-3 single-transfer DMA cycle per the
// mode register's transfer-type bits.
func (d *DMA) runFloppy() bool {
	ch := &d.ch[3]
	switch ch.mode & modeTypeMask {
	case modeTypeVerify:
		d.floppy.ReadData()
	case modeTypeWrite:
		d.floppy.WriteData(d.mem.Read(ch.car))
	case modeTypeRead:
		d.mem.Write(ch.car, d.floppy.ReadData())
	default: // invalid
		return false
	}
	d.advance(3, false)
	return true
}

// Run executes DMA transfers against budget T-states until either a
// full sweep of channels does no work or the budget is exhausted, and
// returns the leftover budget for the CPU. Channel 3 only runs while
// armed by the floppy's DMA-pending state (its request bit).
func (d *DMA) Run(budget int) int {
	for budget > 0 {
		did := false
		if !d.skip(0) && !d.skip(1) && d.m2mEnabled() {
			d.runMemToMem()
			did = true
			budget -= tstatesPerXfer
		}
		if budget > 0 && !d.skip(3) && d.request&requestFloppy != 0 {
			if d.runFloppy() {
				did = true
				budget -= tstatesPerXfer
			}
		}
		if !did {
			break
		}
	}
	return budget
}
