package rtc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"v85/irq"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func at(hour, min, sec int) *fakeClock {
	return &fakeClock{time.Date(2026, 8, 1, hour, min, sec, 0, time.Local)}
}

func readDigit(r *RTC, sel uint8) uint8 {
	r.WriteSelector(sel)
	return r.ReadData()
}

func TestBCDDigitsLateEvening(t *testing.T) {
	var lines irq.Lines
	r := New(at(23, 59, 58), &lines)

	// 23:59:58: seconds ones/tens, minutes ones/tens, hour ones, then
	// the hybrid hour-tens digit with bit 3 always set and bit 2 for
	// PM.
	want := []uint8{8, 5, 9, 5, 3, 2 | 8 | 4}
	for sel, digit := range want {
		assert.Equal(t, digit, readDigit(r, uint8(sel)), "selector %d", sel)
	}
}

func TestMorningHourTensHasNoPMBit(t *testing.T) {
	var lines irq.Lines
	r := New(at(9, 15, 0), &lines)

	assert.Equal(t, uint8(9), readDigit(r, 4))
	assert.Equal(t, uint8(0|8), readDigit(r, 5))
}

func TestCalendarDigitsAreZeroBasedMonth(t *testing.T) {
	var lines irq.Lines
	clk := &fakeClock{time.Date(2026, time.December, 25, 0, 0, 0, 0, time.Local)}
	r := New(clk, &lines)

	// December is month 11 on the wire: ones digit 1, tens digit 1.
	assert.Equal(t, uint8(1), readDigit(r, 9))
	assert.Equal(t, uint8(1), readDigit(r, 10))
	// Day digits stay one-based.
	assert.Equal(t, uint8(5), readDigit(r, 7))
	assert.Equal(t, uint8(2), readDigit(r, 8))
	assert.Equal(t, uint8(6), readDigit(r, 11))
	assert.Equal(t, uint8(2), readDigit(r, 12))
}

func TestJanuaryReadsMonthZero(t *testing.T) {
	var lines irq.Lines
	clk := &fakeClock{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local)}
	r := New(clk, &lines)

	assert.Equal(t, uint8(0), readDigit(r, 9))
	assert.Equal(t, uint8(0), readDigit(r, 10))
}

func TestHoldWindowFreezesSample(t *testing.T) {
	var lines irq.Lines
	clk := at(10, 0, 58)
	r := New(clk, &lines)

	assert.Equal(t, uint8(8), readDigit(r, 0))
	// The clock moves on, but reads inside the armed hold window keep
	// returning the latched sample.
	clk.t = clk.t.Add(2 * time.Second)
	assert.Equal(t, uint8(8), readDigit(r, 0))

	// Ten 5 ms ticks expire the window; the next read resamples.
	for i := 0; i < 10; i++ {
		r.Tick()
	}
	assert.Equal(t, uint8(0), readDigit(r, 0))
}

func TestHoldBitSuppressesWindowArming(t *testing.T) {
	var lines irq.Lines
	clk := at(10, 0, 1)
	r := New(clk, &lines)

	r.WriteSelector(0x80)
	assert.Equal(t, uint8(1), r.ReadData())
	// With the hold bit set no window was armed, so the very next read
	// resamples.
	clk.t = clk.t.Add(time.Second)
	assert.Equal(t, uint8(2), r.ReadData())
}

func TestTickInterruptNeedsArmedLatch(t *testing.T) {
	var lines irq.Lines
	r := New(at(0, 0, 0), &lines)

	for i := 0; i < 40; i++ {
		r.Tick()
	}
	assert.False(t, lines.Raised(irq.RST55), "unarmed latch never fires")

	// The 0x8F sentinel arms the latch on the next selector write.
	r.WriteSelector(0x8F)
	r.WriteSelector(0x00)
	for i := 0; i < 20; i++ {
		r.Tick()
	}
	assert.True(t, lines.Raised(irq.RST55))
}

func TestAckSentinelLowersLine(t *testing.T) {
	var lines irq.Lines
	r := New(at(0, 0, 0), &lines)
	r.WriteSelector(0x8F)
	r.WriteSelector(0x00)
	for i := 0; i < 20; i++ {
		r.Tick()
	}
	assert.True(t, lines.Raised(irq.RST55))

	// Like arming, the acknowledge takes effect on the write after the
	// 0x8E sentinel is latched.
	r.WriteSelector(0x8E)
	r.WriteSelector(0x00)
	assert.False(t, lines.Raised(irq.RST55))
}
