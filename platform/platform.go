// Package platform aggregates the whole v85 board and runs its
// scheduler: a soft real-time loop binding 6 MHz of emulated CPU time
// to wall-clock 5 ms periods, with the DMA engine co-executed ahead
// of the CPU in every slice and the slow devices ticked once per
// period.
package platform

import (
	"io"
	"sync/atomic"
	"time"

	"v85/acia"
	"v85/bus"
	"v85/cpucore"
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

// Terminal is the host-terminal bridge the ACIA polls each slice.
// hostterm.Terminal is the production implementation; tests script
// their own.
type Terminal interface {
	// Poll is a non-blocking readiness check over the terminal's
	// input and output sides.
	Poll() (readable, writable bool, err error)
	// ReadByte pulls one byte after Poll reported readable.
	ReadByte() byte
}

const (
	// tickPeriod is the outer cadence every device timebase hangs off.
	tickPeriod = 5 * time.Millisecond
	// innerIterations slices each outer period; 6 MHz x 5 ms = 30,000
	// T-states split 200 ways.
	innerIterations = 200
	// tstateSteps is the per-slice T-state budget shared by the DMA
	// engine and the CPU.
	tstateSteps = 30000 / innerIterations
)

// Config carries everything the platform does not own: the external
// collaborators, the images read by the CLI, and the run options.
type Config struct {
	// ROM is the 512-byte boot image.
	ROM []byte
	// Core is the external 8085 decoder.
	Core cpucore.Core
	// IDE is the external IDE register model; nil leaves the channel
	// unattached.
	IDE ide.Controller
	// Floppy is the external NEC 765 engine.
	Floppy fdc.Engine
	// Term is the host-terminal bridge.
	Term Terminal
	// Out is the ACIA's transmit sink, normally the host stdout.
	Out io.Writer
	// Trace is the diagnostic bitmask shared with the CLI.
	Trace *trace.Flags
	// BankEnable is the -b bank-enable mask (bit 0 forced on).
	BankEnable uint8
	// Fast skips the 5 ms sleep, running the emulation flat out.
	Fast bool
	// Clock overrides the RTC's wall-clock source; nil means the real
	// one.
	Clock rtc.Clock
	// Sleep overrides the outer-period sleep; nil means time.Sleep.
	Sleep func(time.Duration)
}

// Platform is the assembled board. All device state hangs off this
// one value; the scheduler is the only code that drives it.
type Platform struct {
	cpu    cpucore.Core
	mem    *memory.Map
	bus    *bus.Bus
	acia   *acia.ACIA
	dmac   *dma.DMA
	fdc    *fdc.FDC
	rtc    *rtc.RTC
	video  *video.ALT256
	timer  *timer.Timer
	term   Terminal
	fast   bool
	sleep  func(time.Duration)
	cycles int
	done   atomic.Bool
}

// New assembles the board: builds the memory map from the ROM image,
// and wires every device to its interrupt line and the bus fabric. It
// does not bind the CPU core's memory and I/O callbacks; a core binds
// them to Bus().
func New(cfg Config) (*Platform, error) {
	mem, err := memory.NewMap(cfg.ROM)
	if err != nil {
		return nil, err
	}
	mem.SetBankEnable(cfg.BankEnable)

	p := &Platform{
		cpu:    cfg.Core,
		mem:    mem,
		term:   cfg.Term,
		fast:   cfg.Fast,
		sleep:  cfg.Sleep,
		cycles: tstateSteps,
	}
	if p.sleep == nil {
		p.sleep = time.Sleep
	}

	p.acia = acia.New(cfg.Core, cfg.Out)
	p.fdc = fdc.New(cfg.Floppy)
	p.dmac = dma.New(mem, cfg.Floppy)
	p.rtc = rtc.New(cfg.Clock, cfg.Core)
	p.video = video.New()
	p.timer = timer.New(cfg.Core)
	p.bus = bus.New(bus.Devices{
		Mem:    mem,
		ACIA:   p.acia,
		IDE:    ide.New(cfg.IDE),
		FDC:    p.fdc,
		DMA:    p.dmac,
		MDrive: mdrive.New(),
		RTC:    p.rtc,
		Video:  p.video,
		Timer:  p.timer,
	}, cfg.Trace)
	return p, nil
}

// Bus returns the fabric a CPU core should bind its memory and I/O
// callbacks to.
func (p *Platform) Bus() *bus.Bus {
	return p.bus
}

// Stop requests a cooperative shutdown; the scheduler exits at the
// top of its next outer iteration. Safe to call from a signal
// handler's goroutine, the one asynchronous entry into the platform.
func (p *Platform) Stop() {
	p.done.Store(true)
}

// Run is the pacing loop. It resets the CPU, then alternates 5 ms of
// emulated time (200 slices of DMA-then-CPU-then-terminal-poll) with
// one wall-clock tick of the slow devices, until Stop is called. The
// only error paths out are host terminal failures.
func (p *Platform) Run() error {
	p.cpu.Reset()
	for !p.done.Load() {
		for i := 0; i < innerIterations; i++ {
			if err := p.slice(); err != nil {
				return err
			}
		}
		if !p.fast {
			p.sleep(tickPeriod)
		}
		p.tick()
	}
	return nil
}

// slice is one inner iteration: DMA first against the fresh budget,
// the CPU on whatever is left (its over-run carries into the next
// slice), then the ACIA's terminal poll.
func (p *Platform) slice() error {
	p.dmac.ArmFloppyChannel(p.fdc.DMAPending())
	left := p.dmac.Run(p.cycles)
	p.cycles = tstateSteps + p.cpu.Exec(left)

	readable, writable, err := p.term.Poll()
	if err != nil {
		return err
	}
	var b byte
	if readable {
		b = p.term.ReadByte()
	}
	p.acia.Poll(readable, writable, b)
	return nil
}

// tick advances the 5 ms device timebases.
func (p *Platform) tick() {
	p.timer.Tick()
	p.rtc.Tick()
	p.video.Tick()
}
