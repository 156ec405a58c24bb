package fdc

// Drive is one floppy slot: either an attached disk image with its
// geometry or an empty drive. The platform keeps three distinct
// drives across four controller slots (C is wired to both 2 and 3,
// matching the board).
type Drive struct {
	Name  string
	Sides int
	Cyls  int
	// Image is the raw disk image, nil for an empty drive.
	Image []byte
}

// NewDisk returns a drive with a two-sided 80-cylinder 5.25" image
// attached.
func NewDisk(name string, image []byte) *Drive {
	return &Drive{Name: name, Sides: 2, Cyls: 80, Image: image}
}

// NewEmpty returns a drive with no disk inserted.
func NewEmpty() *Drive {
	return &Drive{}
}

// Loaded reports whether a disk image is attached.
func (d *Drive) Loaded() bool {
	return d.Image != nil
}

// SlotEngine is an Engine stand-in that carries the four drive slots
// and the motor/terminal-count wiring but no NEC 765 command decode
// (that engine is an external collaborator). It lets the platform be
// assembled and driven end-to-end with real disk images attached even
// when no command processor is bound.
type SlotEngine struct {
	drives [4]*Drive
	motor  uint8
	tc     bool
}

// NewSlotEngine returns an engine with all four slots empty.
func NewSlotEngine() *SlotEngine {
	e := &SlotEngine{}
	for i := range e.drives {
		e.drives[i] = NewEmpty()
	}
	return e
}

// SetDrive attaches a drive to the given controller slot (0-3).
func (e *SlotEngine) SetDrive(slot int, d *Drive) {
	e.drives[slot&3] = d
}

// Drive returns the drive in the given slot.
func (e *SlotEngine) Drive(slot int) *Drive {
	return e.drives[slot&3]
}

// ReadData implements Engine. With no command decode there is never a
// result phase, so the data register floats.
func (e *SlotEngine) ReadData() uint8 { return 0xFF }

// WriteData implements Engine; command bytes are accepted and
// discarded.
func (e *SlotEngine) WriteData(val uint8) {}

// MainStatus implements Engine: request-for-master set, never busy,
// never DMA-pending.
func (e *SlotEngine) MainStatus() uint8 { return 0x80 }

// SetTerminalCount implements Engine.
func (e *SlotEngine) SetTerminalCount(asserted bool) { e.tc = asserted }

// SetMotor implements Engine.
func (e *SlotEngine) SetMotor(mask uint8) { e.motor = mask }

// Motor returns the current motor-enable mask, for tests.
func (e *SlotEngine) Motor() uint8 { return e.motor }
