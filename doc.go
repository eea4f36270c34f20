// Package devlcd controls character LCDs behind the Linux /dev/lcd device.
//
// The kernel charlcd layer (drivers/auxdisplay) exposes HD44780 class
// character displays as a write-only character device that understands a
// small escape sequence vocabulary. This driver keeps a width×height text
// framebuffer, lets callers draw text, bar graphs, big numbers and icons
// into it, and transmits only the changed cell spans on each Flush.
//
// # Display Characteristics
//
// - Character cell displays, typically 16x2 to 40x4 (up to 256x256)
// - 5×8 pixel cells; the cell size is a controller property, not configurable
// - 8 programmable glyph slots shared by bars, big numbers and icons
// - Backlight on/off via escape sequence, coalesced to avoid redundant writes
//
// # Basic Usage
//
//	package main
//
//	import "periph.io/x/devices/v3/devlcd"
//
//	func main() {
//		dev, _ := devlcd.Open("/dev/lcd", &devlcd.Opts{Size: "20x4"})
//		defer dev.Halt()
//
//		dev.Text(1, 1, "Hello")
//		dev.VBar(20, 4, 4, 750) // 75% vertical bar in the last column
//		dev.Flush()
//	}
//
// # Incremental Updates
//
// Drawing primitives only mutate the in-memory framebuffer. Flush compares
// it against the content last sent to the device and emits one positioned
// write per changed row span, so a clock redraw costs a handful of bytes
// instead of a whole screen. Two optional timers force retransmission:
// Opts.RefreshInterval resends the full screen periodically (recovers from
// display state drift), and Opts.KeepAliveInterval retransmits the top-left
// cell so the device sees traffic even when the screen content is static.
//
// # Glyph Modes
//
// Vertical bars, horizontal bars, big numbers and the programmable icons
// all compete for the same 8 glyph slots, so only one of these modes can be
// active per screen. The first bar/number/icon drawn after Clear selects
// the mode; primitives requiring a different mode are dropped with a
// warning until the next Clear. Two arrow icons come straight from the
// character ROM and work in every mode.
//
// # TextDisplay
//
// Dev implements display.TextDisplay from periph.io/x/conn/v3/display:
// cursor addressed Write/WriteString land in the framebuffer at the
// current cursor position and become visible on the next Flush.
//
// # Other Sinks
//
// Open talks to a character device by path. NewWriter accepts any
// io.Writer, e.g. a serial port for displays speaking the same protocol
// over RS-232 (see examples/devlcd_serial).
package devlcd
