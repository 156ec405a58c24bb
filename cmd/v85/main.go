// Command v85 boots the emulated 8085 single-board computer: loads
// the ROM and disk images from the working directory, puts the host
// terminal in raw mode, and hands control to the platform scheduler
// until a shutdown signal arrives.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"v85/cpucore"
	"v85/fdc"
	"v85/hostterm"
	"v85/ide"
	"v85/memory"
	"v85/platform"
	"v85/trace"
)

func usage() {
	fmt.Fprintf(os.Stderr, "v85: [-b banks] [-f] [-d debug]\n")
	os.Exit(2)
}

// loadROM reads the mandatory boot image into a zero-padded 512-byte
// buffer. Anything shorter than 8 bytes cannot be a boot stub and is
// fatal.
func loadROM() ([]byte, error) {
	f, err := os.Open("v85.rom")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rom := make([]byte, memory.ROMSize)
	n, _ := io.ReadFull(f, rom)
	if n < 8 {
		return nil, fmt.Errorf("short rom 'v85.rom'")
	}
	return rom, nil
}

func main() {
	log.SetFlags(0)
	debug := flag.Int("d", 0, "trace bitmask")
	fast := flag.Bool("f", false, "disable the 5 ms pacing sleep")
	banks := flag.Int("b", 0x0F, "bank enable mask (bit 0 forced on)")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() > 0 {
		usage()
	}

	if err := run(uint16(*debug), *fast, uint8(*banks)); err != nil {
		log.Fatalf("v85: %v", err)
	}
}

func run(debug uint16, fast bool, banks uint8) error {
	rom, err := loadROM()
	if err != nil {
		return err
	}

	ideFile, err := os.OpenFile("v85.ide", os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer ideFile.Close()
	image, err := io.ReadAll(ideFile)
	if err != nil {
		return fmt.Errorf("v85.ide: %w", err)
	}
	disk := ide.NewFileBacked(image)
	// The guest modifies the image in place; whatever state it is in
	// when the scheduler exits goes back to the file.
	defer func() {
		if _, err := ideFile.WriteAt(disk.Bytes(), 0); err != nil {
			log.Printf("v85.ide: writeback: %v", err)
		}
	}()

	engine := fdc.NewSlotEngine()
	for slot, name := range []string{"drivea.dsk", "driveb.dsk"} {
		img, err := os.ReadFile(name)
		if err != nil {
			continue // absent file leaves the drive empty
		}
		engine.SetDrive(slot, fdc.NewDisk(name, img))
	}
	// Drive C is always present and always empty, wired to both of the
	// controller's remaining slots.
	driveC := fdc.NewEmpty()
	engine.SetDrive(2, driveC)
	engine.SetDrive(3, driveC)

	term, err := hostterm.Open()
	if err != nil {
		return err
	}
	defer term.Restore()

	core := &cpucore.NullCore{}
	p, err := platform.New(platform.Config{
		ROM:        rom,
		Core:       core,
		IDE:        disk,
		Floppy:     engine,
		Term:       term,
		Out:        os.Stdout,
		Trace:      trace.New(debug),
		BankEnable: banks,
		Fast:       fast,
	})
	if err != nil {
		return err
	}
	// A concrete 8085 decoder binds its memory and I/O callbacks to
	// p.Bus() here; the NullCore needs no binding.

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGQUIT, syscall.SIGPIPE)
	go func() {
		<-sig
		p.Stop()
	}()

	return p.Run()
}
