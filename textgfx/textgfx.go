// Package textgfx renders bar graphs and big numbers on character cell
// displays that support programmable glyphs.
//
// The helpers are display independent: they draw through the Canvas
// interface and assume the driver already programmed the partial-fill
// glyphs its cell geometry needs (glyph index i = i pixel rows or columns
// filled). Fill levels are expressed in promille (thousandths, 0-1000) of
// the full bar length.
package textgfx

// Canvas is the character cell surface the helpers draw onto. Coordinates
// are 1-based with (1, 1) the top-left cell; placements outside the
// display are expected to be ignored.
type Canvas interface {
	// PutCell stores a raw cell code at (x, y), either a glyph slot index
	// or a CGROM code point.
	PutCell(x, y int, c byte)
	// PutBlock places a completely filled cell at (x, y).
	PutBlock(x, y int)
	// DefineGlyph programs a glyph slot with one byte per pixel row, LSB
	// rightmost.
	DefineGlyph(slot int, rows []byte)
}

// pixels converts a promille fill level to a pixel count for a bar of
// length cells with celldim pixels per cell, rounding to the nearest
// pixel.
func pixels(length, celldim, promille int) int {
	if promille < 0 {
		promille = 0
	}
	if promille > 1000 {
		promille = 1000
	}
	return (2*length*celldim + 1) * promille / 2000
}

// VBar draws a vertical bar growing bottom-up from (x, y). length is the
// bar height in cells at full scale, cellHeight the pixel rows per cell
// and offset the glyph index holding a 1-pixel fill. Full cells become
// blocks, the topmost partial cell a fill glyph, anything above stays
// untouched.
func VBar(c Canvas, x, y, length, promille, cellHeight, offset int) {
	total := pixels(length, cellHeight, promille)
	for pos := 0; pos < length; pos++ {
		px := total - cellHeight*pos
		switch {
		case px >= cellHeight:
			c.PutBlock(x, y-pos)
		case px > 0:
			c.PutCell(x, y-pos, byte(px+offset))
			return
		}
	}
}

// HBar draws a horizontal bar growing to the right from (x, y). length is
// the bar width in cells at full scale, cellWidth the pixel columns per
// cell and offset the glyph index holding a 1-pixel fill.
func HBar(c Canvas, x, y, length, promille, cellWidth, offset int) {
	total := pixels(length, cellWidth, promille)
	for pos := 0; pos < length; pos++ {
		px := total - cellWidth*pos
		switch {
		case px >= cellWidth:
			c.PutBlock(x+pos, y)
		case px > 0:
			c.PutCell(x+pos, y, byte(px+offset))
			return
		}
	}
}
