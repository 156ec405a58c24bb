package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"v85/acia"
	"v85/dma"
	"v85/fdc"
	"v85/ide"
	"v85/irq"
	"v85/mdrive"
	"v85/memory"
	"v85/rtc"
	"v85/timer"
	"v85/trace"
	"v85/video"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// newBus wires a complete device set around zeroed stand-ins, the way
// the platform does, so dispatch can be exercised port by port.
func newBus(t *testing.T) (*Bus, *irq.Lines, *memory.Map) {
	t.Helper()
	rom := make([]byte, memory.ROMSize)
	for i := range rom {
		rom[i] = 0x76 // HLT, recognizable in reads
	}
	mem, err := memory.NewMap(rom)
	require.NoError(t, err)
	mem.SetBankEnable(0xFF)

	lines := &irq.Lines{}
	engine := &fdc.NullEngine{}
	f := fdc.New(engine)
	d := Devices{
		Mem:    mem,
		ACIA:   acia.New(lines, nil),
		IDE:    ide.New(nil),
		FDC:    f,
		DMA:    dma.New(mem, engine),
		MDrive: mdrive.New(),
		RTC:    rtc.New(fixedClock{time.Date(2026, 8, 1, 23, 59, 58, 0, time.Local)}, lines),
		Video:  video.New(),
		Timer:  timer.New(lines),
	}
	return New(d, trace.New(0)), lines, mem
}

func TestUnknownPortReadsFFAndDropsWrites(t *testing.T) {
	b, _, _ := newBus(t)
	for _, port := range []uint8{0x02, 0x30, 0x41, 0xC5, 0xE4, 0xF2, 0xFF} {
		assert.Equal(t, uint8(0xFF), b.In(port), "port %02X", port)
		b.Out(port, 0xAA) // must not panic or disturb anything
	}
}

func TestBankSelectPortSwitchesLowRegion(t *testing.T) {
	b, _, mem := newBus(t)

	b.Out(0x40, 0x01) // bank 0
	b.Write(0x0000, 0x11)
	b.Out(0x40, 0x02) // bank 1
	b.Write(0x0000, 0x22)

	b.Out(0x40, 0x01)
	assert.Equal(t, uint8(0x11), b.Read(0x0000))
	b.Out(0x40, 0x02)
	assert.Equal(t, uint8(0x22), b.Read(0x0000))

	// Invalid one-hot value collapses to ROM.
	b.Out(0x40, 0x03)
	assert.Equal(t, memory.ROMBank, mem.ActiveBank())
	assert.Equal(t, uint8(0x76), b.Read(0x0000))
}

func TestMDrivePortsRoundTrip(t *testing.T) {
	b, _, _ := newBus(t)

	b.Out(0xC6, 0xDE)
	b.Out(0xC6, 0xAD)

	// Reset the pointer to zero with three address-port writes.
	b.Out(0xC7, 0)
	b.Out(0xC7, 0)
	b.Out(0xC7, 0)
	assert.Equal(t, uint8(0xDE), b.In(0xC6))
	assert.Equal(t, uint8(0xAD), b.In(0xC6))
}

func TestRTCSecondsDigitsThroughPorts(t *testing.T) {
	b, _, _ := newBus(t)

	b.Out(0xF1, 0x00)
	assert.Equal(t, uint8(8), b.In(0xF0)) // 58 seconds, ones digit
	b.Out(0xF1, 0x01)
	assert.Equal(t, uint8(5), b.In(0xF0)) // tens digit, same held sample
}

func TestTracePortSetsMask(t *testing.T) {
	b, _, _ := newBus(t)
	assert.False(t, b.flags.Has(trace.Bank))
	b.Out(0xFD, 0x10) // the Bank bit
	assert.True(t, b.flags.Has(trace.Bank))
}

func TestTimerControlThroughPorts(t *testing.T) {
	b, lines, _ := newBus(t)

	b.Out(0xFE, 0x40)
	assert.Equal(t, uint8(0x40), b.In(0xFE))
	lines.SetInt(irq.RST65)
	b.Out(0xFE, 0x50)
	assert.False(t, lines.Raised(irq.RST65))
}
