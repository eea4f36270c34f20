package devlcd

import (
	"errors"
	"fmt"
	"io"
)

// Flush reconciles the glyph cache and the framebuffer with the device.
//
// Dirty glyph slots are redefined first so cells referencing them render
// correctly. Screen content is diffed per row against the backing store:
// the changed span between the first and last differing cell is sent with
// one positioning sequence, unchanged rows cost nothing. The very first
// Flush, and every elapse of Opts.RefreshInterval, transmits the full
// screen; every elapse of Opts.KeepAliveInterval retransmits at least the
// top-left cell.
//
// A transport error aborts the cycle; the backing store only records what
// was actually transmitted, so the next Flush resends the remainder.
func (d *Dev) Flush() error {
	if d.halted {
		return errors.New("devlcd: halted")
	}
	now := d.now()

	keepAlive := false
	if d.keepAlive > 0 && now.After(d.nextKeepAlive) {
		keepAlive = true
		d.nextKeepAlive = now.Add(d.keepAlive)
	}

	// Always a full refresh on the first flush.
	refresh := !d.flushed
	d.flushed = true
	if d.refresh > 0 && now.After(d.nextRefresh) {
		refresh = true
		d.nextRefresh = now.Add(d.refresh)
	}

	if err := d.flushGlyphs(); err != nil {
		return err
	}
	if err := d.flushRows(refresh, keepAlive); err != nil {
		return err
	}
	return d.drain()
}

// flushGlyphs redefines every dirty glyph slot, in ascending slot order.
func (d *Dev) flushGlyphs() error {
	for slot := range d.cc {
		cc := &d.cc[slot]
		if cc.clean {
			continue
		}
		if err := d.escape("\x1b[LG%d", slot); err != nil {
			return err
		}
		for _, row := range cc.rows {
			if err := d.escape("%02x", row); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(d.w, ";"); err != nil {
			return fmt.Errorf("devlcd: %w", err)
		}
		cc.clean = true
	}
	return nil
}

// flushRows transmits the changed span of every row. The span runs from
// the first to the last differing cell; unchanged cells inside it are
// retransmitted along, trading a few extra bytes for a single cursor
// reposition per row.
//
// The forcing flags widen the span explicitly: refresh transmits every row
// in full, keepAlive at least the top-left cell. Any byte value is a valid
// cell (glyph slots live at 0-7), so forcing cannot be expressed through
// the backing store.
func (d *Dev) flushRows(refresh, keepAlive bool) error {
	for y := 0; y < d.height; y++ {
		off := y * d.width
		fb := d.fb[off : off+d.width]
		bs := d.backing[off : off+d.width]

		first := 0
		last := d.width - 1
		switch {
		case refresh:
			// Whole row goes out.
		case keepAlive && y == 0:
			// The top-left cell goes out regardless of diff state; the span
			// still covers any real changes in the row.
			for last > 0 && fb[last] == bs[last] {
				last--
			}
		default:
			for first < d.width && fb[first] == bs[first] {
				first++
			}
			if first == d.width {
				// Row unchanged.
				continue
			}
			for fb[last] == bs[last] {
				last--
			}
		}

		// One positioning sequence, then the span bytes verbatim. The
		// column and row are 0-based on the wire.
		if err := d.escape("\x1b[Lx%dy%d;", first, y); err != nil {
			return err
		}
		n, err := d.w.Write(fb[first : last+1])
		copy(bs[first:first+n], fb[first:first+n])
		if err != nil {
			return fmt.Errorf("devlcd: %w", err)
		}
	}
	return nil
}
