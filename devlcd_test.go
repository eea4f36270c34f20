package devlcd

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"periph.io/x/conn/v3/display"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDev returns a device on a buffer sink with the init sequence
// already discarded.
func newTestDev(t *testing.T, opts *Opts) (*Dev, *bytes.Buffer) {
	t.Helper()
	if opts == nil {
		opts = &Opts{}
	}
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	buf := &bytes.Buffer{}
	d, err := NewWriter(buf, opts)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	buf.Reset()
	return d, buf
}

func TestGeometry(t *testing.T) {
	tests := []struct {
		name  string
		opts  *Opts
		wantW int
		wantH int
	}{
		{"nil options (uses defaults)", nil, 20, 4},
		{"valid 16x2", &Opts{Size: "16x2"}, 16, 2},
		{"valid 40x4", &Opts{Size: "40x4"}, 40, 4},
		{"explicit dimensions override Size", &Opts{W: 16, H: 2, Size: "40x4"}, 16, 2},
		{"malformed Size", &Opts{Size: "banana"}, 20, 4},
		{"zero width", &Opts{Size: "0x4"}, 20, 4},
		{"width too large", &Opts{Size: "999x4"}, 20, 4},
		{"height too large", &Opts{Size: "20x999"}, 20, 4},
		{"explicit dimensions out of bounds fall back to Size", &Opts{W: 999, H: 4, Size: "16x2"}, 16, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDev(t, tt.opts)
			if d.Cols() != tt.wantW || d.Rows() != tt.wantH {
				t.Errorf("geometry = %dx%d, want %dx%d", d.Cols(), d.Rows(), tt.wantW, tt.wantH)
			}
			if len(d.fb) != tt.wantW*tt.wantH {
				t.Errorf("framebuffer size = %d, want %d", len(d.fb), tt.wantW*tt.wantH)
			}
		})
	}
}

func TestInitSequence(t *testing.T) {
	buf := &bytes.Buffer{}
	if _, err := NewWriter(buf, &Opts{Logger: testLogger()}); err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	want := "\x1b[LI\x1b[Lc\x1b[Lb\x1b[LD\x1b[2J\x1b[H"
	if got := buf.String(); got != want {
		t.Errorf("init sequence = %q, want %q", got, want)
	}
}

func TestDevString(t *testing.T) {
	d, _ := newTestDev(t, &Opts{Size: "16x2"})
	want := "devlcd.Dev{16x2}"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestBacklightCoalescing(t *testing.T) {
	d, buf := newTestDev(t, nil)

	if err := d.Backlight(255); err != nil {
		t.Fatalf("Backlight(on): %v", err)
	}
	if got := buf.String(); got != "\x1b[L+" {
		t.Errorf("first Backlight(on) = %q, want %q", got, "\x1b[L+")
	}
	buf.Reset()

	if err := d.Backlight(1); err != nil {
		t.Fatalf("Backlight(on) again: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("second Backlight(on) emitted %q, want nothing", buf.String())
	}

	if err := d.Backlight(0); err != nil {
		t.Fatalf("Backlight(off): %v", err)
	}
	if got := buf.String(); got != "\x1b[L-" {
		t.Errorf("Backlight(off) = %q, want %q", got, "\x1b[L-")
	}
}

func TestCursorWrite(t *testing.T) {
	d, _ := newTestDev(t, &Opts{Size: "10x4"})

	if err := d.MoveTo(2, 3); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	if _, err := d.WriteString("Hi\nX"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if got := string(d.fb[10 : 10+10]); got != "  Hi      " {
		t.Errorf("row 2 = %q, want %q", got, "  Hi      ")
	}
	if got := string(d.fb[20 : 20+10]); got != "X         " {
		t.Errorf("row 3 = %q, want %q", got, "X         ")
	}
}

func TestWriteWraps(t *testing.T) {
	d, _ := newTestDev(t, &Opts{Size: "4x2"})

	if _, err := d.WriteString("ABCDEF"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if got := string(d.fb); got != "ABCDEF  " {
		t.Errorf("framebuffer = %q, want %q", got, "ABCDEF  ")
	}
}

func TestMoveToRange(t *testing.T) {
	d, _ := newTestDev(t, &Opts{Size: "16x2"})

	tests := []struct {
		row, col int
		wantErr  bool
	}{
		{1, 1, false},
		{2, 16, false},
		{0, 1, true},
		{1, 0, true},
		{3, 1, true},
		{1, 17, true},
	}
	for _, tt := range tests {
		if err := d.MoveTo(tt.row, tt.col); (err != nil) != tt.wantErr {
			t.Errorf("MoveTo(%d, %d) error = %v, wantErr %v", tt.row, tt.col, err, tt.wantErr)
		}
	}
}

func TestMove(t *testing.T) {
	d, _ := newTestDev(t, &Opts{Size: "16x2"})

	steps := []struct {
		dir      display.CursorDirection
		row, col int
	}{
		{display.Forward, 1, 2},
		{display.Down, 2, 2},
		{display.Backward, 2, 1},
		{display.Backward, 2, 1}, // clamped at left edge
		{display.Up, 1, 1},
		{display.Up, 1, 1}, // clamped at top edge
	}
	for i, s := range steps {
		if err := d.Move(s.dir); err != nil {
			t.Fatalf("step %d: Move: %v", i, err)
		}
		if d.row != s.row || d.col != s.col {
			t.Errorf("step %d: cursor = (%d, %d), want (%d, %d)", i, d.row, d.col, s.row, s.col)
		}
	}
}

func TestNotImplemented(t *testing.T) {
	d, _ := newTestDev(t, nil)
	if err := d.AutoScroll(true); !errors.Is(err, display.ErrNotImplemented) {
		t.Errorf("AutoScroll error = %v, want ErrNotImplemented", err)
	}
	if err := d.Contrast(40); !errors.Is(err, display.ErrNotImplemented) {
		t.Errorf("Contrast error = %v, want ErrNotImplemented", err)
	}
}

// closeCounter is an io.Writer sink recording Close calls.
type closeCounter struct {
	bytes.Buffer
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestHaltIdempotent(t *testing.T) {
	sink := &closeCounter{}
	d, err := NewWriter(sink, &Opts{Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := d.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if err := d.Halt(); err != nil {
		t.Fatalf("second Halt: %v", err)
	}
	if sink.closed != 1 {
		t.Errorf("sink closed %d times, want 1", sink.closed)
	}
	if err := d.Flush(); err == nil {
		t.Error("Flush after Halt should fail")
	}
	if !strings.Contains(sink.String(), "\x1b[2J") {
		t.Error("Halt did not blank the device")
	}
}

func TestOpenMissingDevice(t *testing.T) {
	if _, err := Open("/nonexistent/lcd", &Opts{Logger: testLogger()}); err == nil {
		t.Fatal("Open of a missing device should fail")
	}
}
