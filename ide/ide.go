// Package ide bridges ports 0x10-0x17 to an external IDE register
// model. The model itself (command processing, LBA/CHS decode,
// interrupt status) is out of scope for this platform; Bridge only
// forwards offset-preserved reads and writes.
package ide

// Controller is the external IDE register model's consumer contract:
// eight byte-wide registers addressed by offset 0-7.
type Controller interface {
	Read8(offset uint8) uint8
	Write8(offset uint8, val uint8)
}

// Bridge forwards port 0x10-0x17 accesses to a Controller, preserving
// the low 3 address bits as the register offset.
type Bridge struct {
	ctrl Controller
}

// New wires a Bridge to the given controller. ctrl may be nil, in
// which case reads return 0xFF and writes are dropped, matching an
// IDE channel with nothing attached.
func New(ctrl Controller) *Bridge {
	return &Bridge{ctrl: ctrl}
}

// Read implements the port-range read at offset = port & 7.
func (b *Bridge) Read(offset uint8) uint8 {
	if b.ctrl == nil {
		return 0xFF
	}
	return b.ctrl.Read8(offset & 0x07)
}

// Write implements the port-range write at offset = port & 7.
func (b *Bridge) Write(offset uint8, val uint8) {
	if b.ctrl == nil {
		return
	}
	b.ctrl.Write8(offset&0x07, val)
}

// FileBacked is a minimal stand-in IDE register model backed by a host
// file: register 0 is a data port that reads/writes sequential bytes
// from the file at an internal cursor, the remaining registers are
// inert latches. It exists so the platform can be exercised
// end-to-end against a real file without a full IDE command
// processor, which is out of scope here.
type FileBacked struct {
	data   []byte
	cursor int
	latch  [8]uint8
}

// NewFileBacked wraps an in-memory copy of an IDE image's bytes.
func NewFileBacked(image []byte) *FileBacked {
	return &FileBacked{data: image}
}

// Read8 implements Controller.
func (f *FileBacked) Read8(offset uint8) uint8 {
	if offset != 0 {
		return f.latch[offset]
	}
	if f.cursor >= len(f.data) {
		return 0xFF
	}
	v := f.data[f.cursor]
	f.cursor++
	return v
}

// Write8 implements Controller.
func (f *FileBacked) Write8(offset uint8, val uint8) {
	if offset != 0 {
		f.latch[offset] = val
		return
	}
	if f.cursor >= len(f.data) {
		return
	}
	f.data[f.cursor] = val
	f.cursor++
}

// Bytes returns the current backing image, for the caller to persist.
func (f *FileBacked) Bytes() []byte {
	return f.data
}
