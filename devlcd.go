package devlcd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

const (
	// DefaultDevice is the character device the kernel charlcd layer
	// registers.
	DefaultDevice = "/dev/lcd"
	// DefaultSize is the geometry used when Opts carries neither explicit
	// dimensions nor a parseable Size string.
	DefaultSize = "20x4"

	// Cell geometry of the HD44780 controller class. The cell height is a
	// controller property, not a display property; do not change it.
	cellWidth  = 5
	cellHeight = 8

	// numGlyphs is the number of programmable glyph slots.
	numGlyphs = 8

	maxWidth  = 256
	maxHeight = 256
)

// Opts is the configuration for the display.
type Opts struct {
	// Display dimensions in characters. When both are positive they take
	// precedence over Size, e.g. when a primary display already negotiated
	// the geometry.
	W int
	H int

	// Size is the "WxH" form used by config files (default "20x4").
	// A malformed value falls back to the default with a warning; it is
	// never fatal.
	Size string

	// RefreshInterval forces a full screen retransmission each time it
	// elapses. Zero disables the timer.
	RefreshInterval time.Duration

	// KeepAliveInterval retransmits the top-left cell each time it elapses
	// so the device sees traffic on otherwise static screens. Zero
	// disables the timer.
	KeepAliveInterval time.Duration

	// ReserveUnderline blanks the last pixel row of every programmed glyph
	// so the display can use it for an underline cursor. By default the
	// full 5×8 cell is pixel addressable.
	ReserveUnderline bool

	// Logger receives warnings about rejected mode combinations and
	// configuration fallbacks. Nil means slog.Default().
	Logger *slog.Logger
}

// geometry resolves the display dimensions from the options, falling back
// to DefaultSize on anything malformed or out of bounds.
func (o *Opts) geometry(logger *slog.Logger) (int, int) {
	if o.W > 0 && o.H > 0 {
		if o.W <= maxWidth && o.H <= maxHeight {
			return o.W, o.H
		}
		logger.Warn("devlcd: requested dimensions out of bounds, using Size",
			"w", o.W, "h", o.H)
	}

	size := o.Size
	if size == "" {
		size = DefaultSize
	}
	var w, h int
	if n, err := fmt.Sscanf(size, "%dx%d", &w, &h); err != nil || n != 2 ||
		w <= 0 || w > maxWidth || h <= 0 || h > maxHeight {
		logger.Warn("devlcd: cannot parse Size, using default",
			"size", size, "default", DefaultSize)
		w, h = 20, 4
	}
	return w, h
}

// cgram is one entry of the glyph cache: the pixel rows last stored for the
// slot and a clean flag cleared whenever the content actually changes.
type cgram struct {
	rows  [cellHeight]byte
	clean bool
}

// Dev is the device handle for a /dev/lcd style display.
type Dev struct {
	// Communication
	w      io.Writer
	closer io.Closer
	logger *slog.Logger

	// Display geometry in characters
	width  int
	height int

	// lastline reports whether glyphs may use the last pixel row. When
	// false the row is reserved for the underline effect and cached as
	// blank so it never gets redefined.
	lastline bool

	// fb is the desired screen content; backing records what was last
	// physically sent. Flush reconciles the two.
	fb      []byte
	backing []byte

	// Glyph cache and the mutually exclusive glyph mode of the screen.
	cc   [numGlyphs]cgram
	mode glyphMode

	// Cursor position for the TextDisplay interface, 1-based.
	row, col int

	// Forced update timers, as absolute next-due deadlines.
	refresh       time.Duration
	nextRefresh   time.Time
	keepAlive     time.Duration
	nextKeepAlive time.Time

	// flushed is false until the first Flush, which is always a full
	// screen transmission.
	flushed bool

	// backlight caches the last state sent: -1 unknown, 0 off, 1 on.
	backlight int

	now    func() time.Time
	halted bool
}

// Open opens the character device at path (DefaultDevice when empty) and
// initializes the display. The device handle is buffered; Flush drains the
// buffer to the transport.
func Open(path string, opts *Opts) (*Dev, error) {
	if path == "" {
		path = DefaultDevice
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("devlcd: open %s: %w", path, err)
	}
	d, err := NewWriter(bufio.NewWriter(f), opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.closer = f
	return d, nil
}

// NewWriter creates a device on an arbitrary byte sink, e.g. a serial port
// wired to a display speaking the charlcd protocol. If w implements
// interface{ Flush() error }, Flush drains it after each update cycle.
//
// opts can be nil to use defaults (20x4 display).
func NewWriter(w io.Writer, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	width, height := opts.geometry(logger)

	d := &Dev{
		w:         w,
		logger:    logger,
		width:     width,
		height:    height,
		lastline:  !opts.ReserveUnderline,
		fb:        make([]byte, width*height),
		backing:   make([]byte, width*height),
		mode:      modeStandard,
		row:       1,
		col:       1,
		refresh:   opts.RefreshInterval,
		keepAlive: opts.KeepAliveInterval,
		backlight: -1,
		now:       time.Now,
	}
	for i := range d.fb {
		d.fb[i] = ' '
	}
	for i := range d.cc {
		d.cc[i].clean = true
	}
	now := d.now()
	if d.refresh > 0 {
		d.nextRefresh = now.Add(d.refresh)
	}
	if d.keepAlive > 0 {
		d.nextKeepAlive = now.Add(d.keepAlive)
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// init sends the initialization sequence to the display.
func (d *Dev) init() error {
	// Reinitialize, cursor off, blink off, display on.
	for _, seq := range []string{"\x1b[LI", "\x1b[Lc", "\x1b[Lb", "\x1b[LD"} {
		if _, err := io.WriteString(d.w, seq); err != nil {
			return fmt.Errorf("devlcd: init: %w", err)
		}
	}
	// Start from a known blank screen.
	if _, err := io.WriteString(d.w, "\x1b[2J\x1b[H"); err != nil {
		return fmt.Errorf("devlcd: init: %w", err)
	}
	if err := d.drain(); err != nil {
		return fmt.Errorf("devlcd: init: %w", err)
	}
	return nil
}

// drain flushes the sink to the transport when it supports that.
func (d *Dev) drain() error {
	if f, ok := d.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// escape writes a single formatted control sequence to the sink.
func (d *Dev) escape(format string, args ...any) error {
	if _, err := fmt.Fprintf(d.w, format, args...); err != nil {
		return fmt.Errorf("devlcd: %w", err)
	}
	return nil
}

// Clear resets every framebuffer cell to a space, releases the glyph mode
// back to standard and homes the cursor. It performs no device I/O; call
// Flush to clear the physical screen.
func (d *Dev) Clear() error {
	for i := range d.fb {
		d.fb[i] = ' '
	}
	d.mode = modeStandard
	d.row, d.col = 1, 1
	return nil
}

// Cols returns the number of columns the display supports.
func (d *Dev) Cols() int {
	return d.width
}

// Rows returns the number of rows the display supports.
func (d *Dev) Rows() int {
	return d.height
}

// MinCol returns the minimum column number, 1 for this device.
func (d *Dev) MinCol() int {
	return 1
}

// MinRow returns the minimum row number, 1 for this device.
func (d *Dev) MinRow() int {
	return 1
}

// Home moves the cursor to (MinRow, MinCol).
func (d *Dev) Home() error {
	d.row, d.col = 1, 1
	return nil
}

// MoveTo moves the cursor to an arbitrary 1-based position.
func (d *Dev) MoveTo(row, col int) error {
	if row < 1 || row > d.height || col < 1 || col > d.width {
		return fmt.Errorf("devlcd: MoveTo(%d, %d) out of range", row, col)
	}
	d.row, d.col = row, col
	return nil
}

// Move moves the cursor one cell in the given direction, clamped to the
// display edges.
func (d *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Forward:
		if d.col < d.width {
			d.col++
		}
	case display.Backward:
		if d.col > 1 {
			d.col--
		}
	case display.Down:
		if d.row < d.height {
			d.row++
		}
	case display.Up:
		if d.row > 1 {
			d.row--
		}
	default:
		return fmt.Errorf("devlcd: %w", display.ErrInvalidCommand)
	}
	return nil
}

// Write places p into the framebuffer at the cursor position, advancing and
// wrapping to the next row as needed. '\n' moves to the start of the next
// row. Bytes written past the bottom-right cell overwrite it.
func (d *Dev) Write(p []byte) (int, error) {
	for _, c := range p {
		if c == '\n' {
			d.col = 1
			if d.row < d.height {
				d.row++
			}
			continue
		}
		d.Char(d.col, d.row, c)
		if d.col < d.width {
			d.col++
		} else if d.row < d.height {
			d.row++
			d.col = 1
		}
	}
	return len(p), nil
}

// WriteString places text at the cursor position. See Write.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// Cursor sets the hardware cursor mode. The device only distinguishes
// cursor on/off and blink on/off.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	if d.halted {
		return errors.New("devlcd: halted")
	}
	for _, m := range modes {
		var seq string
		switch m {
		case display.CursorOff:
			seq = "\x1b[Lc\x1b[Lb"
		case display.CursorUnderline, display.CursorBlock:
			seq = "\x1b[LC"
		case display.CursorBlink:
			seq = "\x1b[LC\x1b[LB"
		default:
			return fmt.Errorf("devlcd: %w", display.ErrInvalidCommand)
		}
		if _, err := io.WriteString(d.w, seq); err != nil {
			return fmt.Errorf("devlcd: %w", err)
		}
	}
	return d.drain()
}

// Display turns the display on or off.
func (d *Dev) Display(on bool) error {
	if d.halted {
		return errors.New("devlcd: halted")
	}
	c := byte('d')
	if on {
		c = 'D'
	}
	if err := d.escape("\x1b[L%c", c); err != nil {
		return err
	}
	return d.drain()
}

// AutoScroll is not supported by this device.
func (d *Dev) AutoScroll(enabled bool) error {
	return fmt.Errorf("devlcd: %w", display.ErrNotImplemented)
}

// Backlight turns the backlight on (intensity > 0) or off. The state last
// sent is cached so repeated calls with the same value cost nothing.
func (d *Dev) Backlight(intensity display.Intensity) error {
	if d.halted {
		return errors.New("devlcd: halted")
	}
	on := 0
	if intensity > 0 {
		on = 1
	}
	if d.backlight == on {
		return nil
	}
	c := byte('-')
	if on == 1 {
		c = '+'
	}
	if err := d.escape("\x1b[L%c", c); err != nil {
		return err
	}
	d.backlight = on
	return d.drain()
}

// Contrast is not supported: the charlcd protocol has no contrast sequence.
func (d *Dev) Contrast(contrast display.Contrast) error {
	return fmt.Errorf("devlcd: %w", display.ErrNotImplemented)
}

// Halt blanks the device, switches the backlight off and closes the sink if
// it is closable. Halt is idempotent and safe on a partially initialized
// device.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	_, _ = io.WriteString(d.w, "\x1b[2J\x1b[H")
	_ = d.Backlight(0)
	err := d.drain()
	d.halted = true
	if d.closer != nil {
		if cerr := d.closer.Close(); err == nil {
			err = cerr
		}
	} else if cl, ok := d.w.(io.Closer); ok {
		if cerr := cl.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("devlcd: halt: %w", err)
	}
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("devlcd.Dev{%dx%d}", d.width, d.height)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ display.DisplayContrast = &Dev{}
var _ conn.Resource = &Dev{}
