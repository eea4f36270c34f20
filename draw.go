package devlcd

import (
	"log/slog"

	"periph.io/x/devices/v3/devlcd/textgfx"
)

// glyphMode is the rendering mode of the current screen. All modes except
// modeStandard program glyph slots, so only one of them can be active at a
// time; Clear releases the pool by resetting to modeStandard.
type glyphMode int

const (
	modeStandard glyphMode = iota
	modeVBar
	modeHBar
	modeBigNum
	modeIcons
)

func (m glyphMode) String() string {
	switch m {
	case modeStandard:
		return "standard"
	case modeVBar:
		return "vbar"
	case modeHBar:
		return "hbar"
	case modeBigNum:
		return "bignum"
	case modeIcons:
		return "icons"
	}
	return "unknown"
}

// tryEnter attempts the transition to mode m. ok reports whether the caller
// may draw; first reports whether the mode was newly entered and its glyphs
// must be programmed. A transition between two non-standard modes is
// rejected with a warning, the only observable effect.
func (d *Dev) tryEnter(m glyphMode) (ok, first bool) {
	switch d.mode {
	case m:
		return true, false
	case modeStandard:
		d.mode = m
		return true, true
	default:
		d.logger.Warn("devlcd: cannot combine two modes using user-defined characters",
			slog.String("active", d.mode.String()),
			slog.String("requested", m.String()))
		return false, false
	}
}

// sanitize replaces control bytes with spaces so literal escape bytes can
// never corrupt the wire protocol on flush.
func sanitize(c byte) byte {
	if c < 0x20 {
		return ' '
	}
	return c
}

// Text draws text starting at the 1-based position (x, y). An out of range
// row is ignored; cells left of the left border are skipped and drawing
// stops past the right border. Control bytes are stored as spaces.
func (d *Dev) Text(x, y int, text string) {
	x--
	y--
	if y < 0 || y >= d.height {
		return
	}
	for i := 0; i < len(text) && x < d.width; i, x = i+1, x+1 {
		if x < 0 {
			// No write left of the left border.
			continue
		}
		d.fb[y*d.width+x] = sanitize(text[i])
	}
}

// Char draws a single character at the 1-based position (x, y). Out of
// range positions are ignored. Control bytes are stored as spaces.
func (d *Dev) Char(x, y int, c byte) {
	x--
	y--
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return
	}
	d.fb[y*d.width+x] = sanitize(c)
}

// putRaw stores an unsanitized cell code: glyph slot indexes 0-7 and CGROM
// code points below 0x20 are only reachable through the drawing primitives
// that own them.
func (d *Dev) putRaw(x, y int, c byte) {
	x--
	y--
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return
	}
	d.fb[y*d.width+x] = c
}

// DefineGlyph stores cellheight pixel rows in the given glyph slot. Each
// row carries cellwidth significant bits, LSB is the rightmost pixel.
// Invalid slots or short row data are ignored. The slot is marked dirty
// only when the stored content actually changes; Flush transmits dirty
// slots to the device.
func (d *Dev) DefineGlyph(slot int, rows []byte) {
	if slot < 0 || slot >= numGlyphs || len(rows) < cellHeight {
		return
	}
	const mask = 1<<cellWidth - 1
	cc := &d.cc[slot]
	for r := 0; r < cellHeight; r++ {
		v := rows[r] & mask
		if !d.lastline && r == cellHeight-1 {
			// Last pixel row reserved for the underline effect: cache it
			// blank so an identical redefinition stays clean.
			v = 0
		}
		if cc.rows[r] != v {
			cc.clean = false
		}
		cc.rows[r] = v
	}
}

// VBar draws a vertical bar growing bottom-up from the 1-based position
// (x, y). length is the bar height in cells at 100%, promille the current
// fill in thousandths (0-1000). Requires the vbar glyph mode.
func (d *Dev) VBar(x, y, length, promille int) {
	ok, first := d.tryEnter(modeVBar)
	if !ok {
		return
	}
	if first {
		var rows [cellHeight]byte
		for i := 1; i < cellHeight; i++ {
			// Add one solid pixel row per glyph, bottom up.
			rows[cellHeight-i] = 0xFF
			d.DefineGlyph(i, rows[:])
		}
	}
	textgfx.VBar(surface{d}, x, y, length, promille, cellHeight, 0)
}

// HBar draws a horizontal bar growing to the right from the 1-based
// position (x, y). length is the bar width in cells at 100%, promille the
// current fill in thousandths (0-1000). Requires the hbar glyph mode.
func (d *Dev) HBar(x, y, length, promille int) {
	ok, first := d.tryEnter(modeHBar)
	if !ok {
		return
	}
	if first {
		for i := 1; i <= cellWidth; i++ {
			// Fill pixel columns from left to right.
			v := byte(0xFF) &^ byte(1<<(cellWidth-i)-1)
			var rows [cellHeight]byte
			for r := range rows {
				rows[r] = v
			}
			d.DefineGlyph(i, rows[:])
		}
	}
	textgfx.HBar(surface{d}, x, y, length, promille, cellWidth, 0)
}

// Num draws num (0-9, or 10 for a colon) as a big number at column x.
// Displays at least textgfx.BigNumHeight rows tall use 3×4 segment digits
// in the bignum glyph mode; shorter displays fall back to plain characters
// without touching the glyph pool. Out of range values are ignored.
func (d *Dev) Num(x, num int) {
	if num < 0 || num > 10 {
		return
	}
	if d.height < textgfx.BigNumHeight {
		c := byte('0' + num)
		if num == 10 {
			c = ':'
		}
		d.Char(x, 1, c)
		return
	}
	ok, first := d.tryEnter(modeBigNum)
	if !ok {
		return
	}
	textgfx.BigNum(surface{d}, x, num, first)
}

// Icon identifies one of the fixed icons the driver can place.
type Icon int

const (
	IconBlockFilled Icon = iota
	IconHeartOpen
	IconHeartFilled
	IconArrowUp
	IconArrowDown
	IconArrowLeft
	IconArrowRight
	IconCheckboxOff
	IconCheckboxOn
	IconCheckboxGray
	IconEllipsis
	IconStop
	IconPause
	IconPlay
)

// IconResult reports whether the driver placed an icon or left it to the
// caller to render a fallback.
type IconResult int

const (
	// IconHandled means the icon was placed in the framebuffer.
	IconHandled IconResult = iota
	// IconUnsupported means the driver cannot place the icon, either
	// because it has no pattern for it or the active glyph mode forbids
	// it. The caller should render its own fallback.
	IconUnsupported
)

// CGROM code points of the two arrow icons present in the HD44780
// character ROM.
const (
	cgromArrowRight = 0x1A
	cgromArrowLeft  = 0x1B
)

// 5×8 icon patterns, one byte per pixel row, LSB rightmost.
var (
	heartOpen    = [cellHeight]byte{0x1F, 0x15, 0x00, 0x00, 0x00, 0x11, 0x1B, 0x1F}
	heartFilled  = [cellHeight]byte{0x1F, 0x15, 0x0A, 0x0E, 0x0E, 0x15, 0x1B, 0x1F}
	arrowUp      = [cellHeight]byte{0x04, 0x0E, 0x15, 0x04, 0x04, 0x04, 0x04, 0x00}
	arrowDown    = [cellHeight]byte{0x04, 0x04, 0x04, 0x04, 0x15, 0x0E, 0x04, 0x00}
	checkboxOff  = [cellHeight]byte{0x00, 0x00, 0x1F, 0x11, 0x11, 0x11, 0x1F, 0x00}
	checkboxOn   = [cellHeight]byte{0x04, 0x04, 0x1D, 0x16, 0x15, 0x11, 0x1F, 0x00}
	checkboxGray = [cellHeight]byte{0x00, 0x00, 0x1F, 0x15, 0x1B, 0x15, 0x1F, 0x00}
	blockFilled  = [cellHeight]byte{0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F, 0x1F}
)

// Icon places an icon at the 1-based position (x, y).
//
// The arrow left/right icons come from the CGROM and work in every mode.
// The filled block works except in bignum mode and the hearts except in
// bignum and vbar mode; they borrow glyph slots 0 and 7 without changing
// the mode. The remaining icons require the standard or icons mode and
// occupy slots 1-5. Icons without a pattern return IconUnsupported.
func (d *Dev) Icon(x, y int, icon Icon) IconResult {
	// Icons from the CGROM always work.
	switch icon {
	case IconArrowLeft:
		d.putRaw(x, y, cgromArrowLeft)
		return IconHandled
	case IconArrowRight:
		d.putRaw(x, y, cgromArrowRight)
		return IconHandled
	}

	// The full block works except if the screen shows big numbers.
	if icon == IconBlockFilled {
		if d.mode == modeBigNum {
			return IconUnsupported
		}
		d.DefineGlyph(0, blockFilled[:])
		d.putRaw(x, y, 0)
		return IconHandled
	}

	// The heartbeat icons do not work in bignum and vbar mode.
	if icon == IconHeartFilled || icon == IconHeartOpen {
		if d.mode == modeBigNum || d.mode == modeVBar {
			return IconUnsupported
		}
		pattern := heartFilled[:]
		if icon == IconHeartOpen {
			pattern = heartOpen[:]
		}
		d.DefineGlyph(7, pattern)
		d.putRaw(x, y, 7)
		return IconHandled
	}

	// All other icons work only in the standard or icons mode.
	if ok, _ := d.tryEnter(modeIcons); !ok {
		return IconUnsupported
	}
	switch icon {
	case IconArrowUp:
		d.DefineGlyph(1, arrowUp[:])
		d.putRaw(x, y, 1)
	case IconArrowDown:
		d.DefineGlyph(2, arrowDown[:])
		d.putRaw(x, y, 2)
	case IconCheckboxOff:
		d.DefineGlyph(3, checkboxOff[:])
		d.putRaw(x, y, 3)
	case IconCheckboxOn:
		d.DefineGlyph(4, checkboxOn[:])
		d.putRaw(x, y, 4)
	case IconCheckboxGray:
		d.DefineGlyph(5, checkboxGray[:])
		d.putRaw(x, y, 5)
	default:
		// Let the caller render the icon some other way.
		return IconUnsupported
	}
	return IconHandled
}

// surface adapts Dev to textgfx.Canvas. Placements bypass the text
// sanitization since they carry raw glyph indexes and CGROM code points.
type surface struct {
	d *Dev
}

func (s surface) PutCell(x, y int, c byte) {
	s.d.putRaw(x, y, c)
}

func (s surface) PutBlock(x, y int) {
	s.d.Icon(x, y, IconBlockFilled)
}

func (s surface) DefineGlyph(slot int, rows []byte) {
	s.d.DefineGlyph(slot, rows)
}

var _ textgfx.Canvas = surface{}
