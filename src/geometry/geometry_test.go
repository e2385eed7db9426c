package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var panel = Rect{X: 0, Y: 0, W: 700, H: 500}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside", Rect{10, 10, 200, 200}, Rect{10, 10, 200, 200}},
		{"past right edge", Rect{650, 10, 200, 200}, Rect{500, 10, 200, 200}},
		{"negative origin", Rect{-30, -5, 200, 200}, Rect{0, 0, 200, 200}},
		{"too small", Rect{10, 10, 20, 30}, Rect{10, 10, MinSize, MinSize}},
		{"too large", Rect{0, 0, 900, 900}, Rect{0, 0, 700, 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.in, panel)
			assert.Equal(t, tt.want, got)
			assert.True(t, panel.Contains(got))
		})
	}
}

func TestClampBoundsSmallerThanMinimum(t *testing.T) {
	got := Clamp(Rect{0, 0, 300, 300}, Rect{0, 0, 60, 40})
	assert.Equal(t, Rect{0, 0, 60, 40}, got)
}

func TestDefaultFrame(t *testing.T) {
	f := NewFrame(panel, Rect{})
	r := f.Rect()
	assert.Equal(t, 20, r.X)
	assert.Equal(t, 20, r.Y)
	assert.True(t, panel.Contains(r))
}

func TestDragMove(t *testing.T) {
	f := NewFrame(panel, Rect{100, 100, 200, 150})

	f.StartDrag(Point{150, 150}, DragMove)
	assert.Equal(t, DragMove, f.Mode())
	assert.Equal(t, Rect{130, 120, 200, 150}, f.DragTo(Point{180, 170}))

	// Dragging far past the edge pins the frame to the panel.
	r := f.DragTo(Point{5000, 5000})
	assert.Equal(t, Rect{500, 350, 200, 150}, r)

	f.EndDrag()
	assert.Equal(t, DragNone, f.Mode())
	assert.Equal(t, r, f.DragTo(Point{0, 0}))
}

func TestDragResize(t *testing.T) {
	f := NewFrame(panel, Rect{100, 100, 200, 150})

	f.StartDrag(Point{0, 0}, DragResize)
	assert.Equal(t, Rect{100, 100, 250, 170}, f.DragTo(Point{50, 20}))

	// Shrinking below the minimum is ignored.
	assert.Equal(t, Rect{100, 100, 250, 170}, f.DragTo(Point{-500, 20}))

	// Growing past the panel stops at the edge without moving the origin.
	assert.Equal(t, Rect{100, 100, 600, 400}, f.DragBy(1000, 1000))
}

func TestResizeReportsIgnored(t *testing.T) {
	f := NewFrame(panel, Rect{0, 0, 120, 120})
	assert.False(t, f.Resize(-30, 0))
	assert.True(t, f.Resize(-20, -20))
	assert.Equal(t, Rect{0, 0, 100, 100}, f.Rect())
}

func TestSetBoundsReclamps(t *testing.T) {
	f := NewFrame(panel, Rect{400, 300, 250, 150})
	r := f.SetBounds(Rect{0, 0, 500, 400})
	assert.Equal(t, Rect{250, 250, 250, 150}, r)
}

func TestScale(t *testing.T) {
	s := Scale{From: Size{W: 800, H: 450}, To: Size{W: 1920, H: 1080}}
	assert.Equal(t, Rect{240, 240, 480, 240}, s.Rect(Rect{100, 100, 200, 100}))
	assert.Equal(t, Rect{100, 100, 200, 100}, s.Inverse().Rect(Rect{240, 240, 480, 240}))
	assert.Equal(t, Point{X: 5, Y: 7}, Scale{}.Point(Point{X: 5, Y: 7}))
}

func TestFit(t *testing.T) {
	assert.Equal(t, Rect{0, 50, 800, 450}, Fit(Size{1920, 1080}, Size{800, 550}))
	assert.Equal(t, Rect{}, Fit(Size{}, Size{10, 10}))
}

func TestCompose(t *testing.T) {
	p := Compose(Point{20, 20}, Point{0, 0}, Point{300, 200})
	assert.Equal(t, Point{320, 220}, p)
	assert.Equal(t, Rect{320, 220, 50, 60}, Rect{0, 0, 50, 60}.Offset(p))
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "geometry.json")
	s := NewStore(path)

	_, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	want := Geometry{Window: Rect{10, 20, 1024, 768}, Frame: Rect{20, 20, 300, 200}, Source: "screen"}
	require.NoError(t, s.Save(want))

	got, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Window, got.Window)
	assert.Equal(t, want.Frame, got.Frame)
	assert.Equal(t, "screen", got.Source)
	assert.False(t, got.SavedAt.IsZero())
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geometry.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, _, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestCapturable(t *testing.T) {
	assert.NoError(t, Rect{W: 1, H: 1}.Capturable())
	assert.ErrorIs(t, Rect{W: 0, H: 10}.Capturable(), ErrTooSmall)
	assert.ErrorIs(t, Rect{W: 10, H: -2}.Capturable(), ErrTooSmall)
}
