// Package memory implements the v85 banked memory map: eight independent
// 48 KiB RAM banks plus a 512-byte ROM image, all sharing a common 16 KiB
// high region, switched by a one-hot bank-select port.
package memory

import "fmt"

// Bank is a flat, addressable byte store. Implementations mask addr
// themselves; a Bank never panics on out-of-range access.
type Bank interface {
	// Read returns the data byte stored at addr.
	Read(addr uint16) uint8
	// Write updates addr with the new value. Read-only implementations
	// (ROM) treat this as a no-op.
	Write(addr uint16, val uint8)
	// PowerOn resets the bank to its post-reset contents.
	PowerOn()
}

// ram is a plain read/write byte array.
type ram struct {
	data []uint8
}

// newRAMBank allocates a zero-filled RAM bank of the given size.
func newRAMBank(size int) *ram {
	return &ram{data: make([]uint8, size)}
}

func (r *ram) Read(addr uint16) uint8 {
	return r.data[int(addr)%len(r.data)]
}

func (r *ram) Write(addr uint16, val uint8) {
	r.data[int(addr)%len(r.data)] = val
}

// PowerOn zeroes the bank. Real hardware RAM powers up in an
// indeterminate state, but a deterministic emulator is more useful for
// testing than a randomized one.
func (r *ram) PowerOn() {
	for i := range r.data {
		r.data[i] = 0
	}
}

// rom is a read-only byte array; writes are silently dropped.
type rom struct {
	data []uint8
}

func (r *rom) Read(addr uint16) uint8 {
	return r.data[int(addr)%len(r.data)]
}

func (r *rom) Write(addr uint16, val uint8) {}

func (r *rom) PowerOn() {}

const (
	// LowSize is the size in bytes of the bank-switched low region,
	// [0, 0xC000).
	LowSize = 0xC000
	// HighSize is the size in bytes of the always-mapped common region,
	// [0xC000, 0x10000).
	HighSize = 0x10000 - LowSize
	// NumRAMBanks is the count of independently addressable 48 KiB RAM
	// banks (indices 0-7).
	NumRAMBanks = 8
	// ROMBank is the bank index that selects the 512-byte ROM image,
	// mirrored across the 48 KiB low window.
	ROMBank = NumRAMBanks
	// ROMSize is the size in bytes of the ROM image.
	ROMSize = 512
)

// Map is the full 64 KiB CPU address space: nine selectable low-region
// banks (eight RAM, one ROM) plus the always-mapped high region.
type Map struct {
	banks      [NumRAMBanks]Bank
	rom        Bank
	common     Bank
	active     int
	enableMask uint8
}

// NewMap builds a Map with all RAM banks zeroed and the given ROM image
// installed. romImage must be exactly ROMSize bytes.
func NewMap(romImage []byte) (*Map, error) {
	if len(romImage) != ROMSize {
		return nil, fmt.Errorf("memory: rom image must be %d bytes, got %d", ROMSize, len(romImage))
	}
	m := &Map{
		rom:        &rom{data: append([]byte(nil), romImage...)},
		common:     newRAMBank(HighSize),
		active:     ROMBank,
		enableMask: 0x01,
	}
	for i := range m.banks {
		m.banks[i] = newRAMBank(LowSize)
	}
	return m, nil
}

// SelectBank switches the active low-region bank. idx must be in
// [0, ROMBank]; callers (the bank-select port) are responsible for
// validating and collapsing invalid or disabled selections to ROMBank
// before calling this.
func (m *Map) SelectBank(idx int) {
	m.active = idx
}

// ActiveBank returns the currently selected low-region bank index.
func (m *Map) ActiveBank() int {
	return m.active
}

func (m *Map) low() Bank {
	if m.active == ROMBank {
		return m.rom
	}
	return m.banks[m.active]
}

// Read returns the byte at addr in the currently selected bank (or the
// common high region for addr >= LowSize).
func (m *Map) Read(addr uint16) uint8 {
	if addr >= LowSize {
		return m.common.Read(addr - LowSize)
	}
	return m.low().Read(addr)
}

// Write stores val at addr in the currently selected bank (or the
// common high region). Writes to the ROM bank are dropped.
func (m *Map) Write(addr uint16, val uint8) {
	if addr >= LowSize {
		m.common.Write(addr-LowSize, val)
		return
	}
	m.low().Write(addr, val)
}

// PowerOn resets every bank and the common region, and selects ROM.
func (m *Map) PowerOn() {
	for _, b := range m.banks {
		b.PowerOn()
	}
	m.rom.PowerOn()
	m.common.PowerOn()
	m.active = ROMBank
	m.enableMask = 0x01
}

// oneHotBank maps a one-hot bank-select byte to its RAM bank index.
// A value of 0 selects ROM, matching the port's "no bit set" encoding.
var oneHotBank = map[uint8]int{
	0x00: ROMBank,
	0x01: 0,
	0x02: 1,
	0x04: 2,
	0x08: 3,
	0x10: 4,
	0x20: 5,
	0x40: 6,
	0x80: 7,
}

// SetBankEnable installs the bank-enable mask read from the CLI. Bit 0
// is always forced on so bank 0 can never be disabled.
func (m *Map) SetBankEnable(mask uint8) {
	m.enableMask = mask | 0x01
}

// BankEnable returns the current bank-enable mask.
func (m *Map) BankEnable() uint8 {
	return m.enableMask
}

// SelectPort decodes a write to the bank-select port (0x40). Any value
// outside the one-hot set, or a one-hot value whose bit is disabled by
// the enable mask, collapses the selection to ROMBank.
func (m *Map) SelectPort(value uint8) {
	bank, ok := oneHotBank[value]
	if !ok {
		m.active = ROMBank
		return
	}
	if bank != ROMBank && value&m.enableMask == 0 {
		m.active = ROMBank
		return
	}
	m.active = bank
}
