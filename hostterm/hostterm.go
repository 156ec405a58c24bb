// Package hostterm owns the host terminal the ACIA is bridged to:
// raw-mode acquisition of stdin, a zero-timeout readiness check over
// the stdin/stdout pair, and restoration of the saved attributes on
// any exit path.
package hostterm

import (
	"fmt"
	"log"

	"golang.org/x/sys/unix"
)

const (
	stdinFD  = 0
	stdoutFD = 1
)

// Terminal is a scoped acquisition of the controlling terminal's
// attributes. A Terminal opened on a non-tty stdin (piped input) is
// still usable; it just has nothing to restore.
type Terminal struct {
	saved *unix.Termios
}

// Open saves the current stdin attributes and switches to raw no-echo
// mode: VMIN 0 with a 0.1 s VTIME, and VINTR/VSUSP/VSTOP disabled so
// the guest sees ^C, ^Z and ^S as ordinary bytes.
func Open() (*Terminal, error) {
	t := &Terminal{}
	attrs, err := unix.IoctlGetTermios(stdinFD, unix.TCGETS)
	if err != nil {
		// stdin is not a terminal; run cooked with nothing to restore.
		return t, nil
	}
	saved := *attrs
	t.saved = &saved

	attrs.Lflag &^= unix.ICANON | unix.ECHO
	attrs.Cc[unix.VMIN] = 0
	attrs.Cc[unix.VTIME] = 1
	attrs.Cc[unix.VINTR] = 0
	attrs.Cc[unix.VSUSP] = 0
	attrs.Cc[unix.VSTOP] = 0
	if err := unix.IoctlSetTermios(stdinFD, unix.TCSETSW, attrs); err != nil {
		return nil, fmt.Errorf("hostterm: set raw mode: %w", err)
	}
	return t, nil
}

// Restore puts back the attributes captured by Open. Safe to call
// more than once and on a Terminal that never went raw.
func (t *Terminal) Restore() {
	if t.saved == nil {
		return
	}
	unix.IoctlSetTermios(stdinFD, unix.TCSETSW, t.saved)
}

// Poll is the scheduler's per-slice readiness check: a zero-timeout
// select over stdin (read side) and stdout (write side). EINTR is a
// non-event; any other failure is fatal to the platform.
func (t *Terminal) Poll() (readable, writable bool, err error) {
	var rfds, wfds unix.FdSet
	rfds.Zero()
	wfds.Zero()
	rfds.Set(stdinFD)
	wfds.Set(stdoutFD)
	tv := unix.Timeval{}
	if _, err := unix.Select(stdoutFD+1, &rfds, &wfds, nil, &tv); err != nil {
		if err == unix.EINTR {
			return false, false, nil
		}
		return false, false, fmt.Errorf("hostterm: select: %w", err)
	}
	return rfds.IsSet(stdinFD), wfds.IsSet(stdoutFD), nil
}

// ReadByte pulls one byte from stdin after Poll reported it readable.
// A short read here means the readiness report went stale between the
// check and the read; the ACIA gets 0xFF, the same garbage a floating
// bus would give.
func (t *Terminal) ReadByte() byte {
	var buf [1]byte
	n, err := unix.Read(stdinFD, buf[:])
	if err != nil || n != 1 {
		log.Printf("hostterm: tty read without ready byte")
		return 0xFF
	}
	return buf[0]
}
