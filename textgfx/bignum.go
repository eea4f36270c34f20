package textgfx

const (
	// BigNumHeight is the number of rows a big number occupies.
	BigNumHeight = 4
	// BigNumWidth is the number of columns a digit occupies. The colon
	// separator is a single column.
	BigNumWidth = 3

	// glyphRows is the pixel row count of one glyph cell.
	glyphRows = 8

	// cgromBlock is the solid block in the HD44780 character ROM,
	// available without spending a glyph slot.
	cgromBlock = 0xFF

	// Glyph slots used for the segment half blocks.
	topSlot    = 1
	bottomSlot = 2
)

// Digit shapes, BigNumWidth cells wide and BigNumHeight tall. 'F' is a
// full block, 'T' the top-half glyph, 'B' the bottom-half glyph. The
// shapes follow seven segment conventions: verticals are full blocks, the
// top and middle bars half blocks so adjacent segments do not bleed into
// each other.
var digits = [10][BigNumHeight]string{
	{"FTF", "F F", "F F", "FBF"}, // 0
	{"  F", "  F", "  F", "  F"}, // 1
	{"TTF", "BBF", "F  ", "FBB"}, // 2
	{"TTF", "BBF", "  F", "BBF"}, // 3
	{"F F", "FBF", "  F", "  F"}, // 4
	{"FTT", "FBB", "  F", "BBF"}, // 5
	{"FTT", "FBB", "F F", "FBF"}, // 6
	{"TTF", "  F", "  F", "  F"}, // 7
	{"FTF", "FBF", "F F", "FBF"}, // 8
	{"FTF", "FBF", "  F", "BBF"}, // 9
}

// colon is the single column time separator, selected with num == 10.
var colon = [BigNumHeight]string{" ", "B", " ", "B"}

// BigNum draws num as a big number with its left edge at column x,
// occupying rows 1 to BigNumHeight. num 0-9 draws a digit, 10 the colon
// separator; anything else is ignored. defineGlyphs must be true the
// first time the screen enters big number mode so the half block glyphs
// get programmed; subsequent calls reuse them.
func BigNum(c Canvas, x, num int, defineGlyphs bool) {
	if num < 0 || num > 10 {
		return
	}
	if defineGlyphs {
		var top, bottom [glyphRows]byte
		for r := 0; r < glyphRows/2; r++ {
			top[r] = 0xFF
			bottom[glyphRows-1-r] = 0xFF
		}
		c.DefineGlyph(topSlot, top[:])
		c.DefineGlyph(bottomSlot, bottom[:])
	}

	shape := colon[:]
	if num < 10 {
		shape = digits[num][:]
	}
	for ry, row := range shape {
		for rx := 0; rx < len(row); rx++ {
			var cell byte
			switch row[rx] {
			case 'F':
				cell = cgromBlock
			case 'T':
				cell = topSlot
			case 'B':
				cell = bottomSlot
			default:
				cell = ' '
			}
			c.PutCell(x+rx, 1+ry, cell)
		}
	}
}
