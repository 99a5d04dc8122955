package viz

import (
	"strings"
	"testing"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(4, 2)

	c.Set(0, 0)
	if c.Grid[0][0] == 0x2800 {
		t.Error("expected sub-pixel set in first cell")
	}

	// Out-of-range coordinates are ignored.
	c.Set(-1, 0)
	c.Set(0, -5)
	c.Set(100, 100)

	c.Clear()
	for _, row := range c.Grid {
		for _, r := range row {
			if r != 0x2800 {
				t.Fatal("clear left pixels on")
			}
		}
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 10)
	c.DrawLine(0, 0, 19, 39)

	lit := 0
	for _, row := range c.Grid {
		for _, r := range row {
			if r != 0x2800 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatal("line drew nothing")
	}
	// Both endpoints must be covered.
	if c.Grid[0][0] == 0x2800 {
		t.Error("start endpoint not set")
	}
	if c.Grid[9][9] == 0x2800 {
		t.Error("end endpoint not set")
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	out := c.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	for i, line := range lines {
		if n := len([]rune(line)); n != 3 {
			t.Errorf("row %d: expected 3 cells, got %d", i, n)
		}
	}
}

func TestCameraProjectCenter(t *testing.T) {
	cam := NewCamera()

	x, y, ok := cam.Project(0, 0, 0, 160, 96)
	if !ok {
		t.Fatal("origin should be visible")
	}
	if x != 80 || y != 48 {
		t.Errorf("expected origin to project to screen center (80,48), got (%d,%d)", x, y)
	}

	// A point far behind the camera is culled.
	if _, _, ok := cam.Project(0, 0, 100, 160, 96); ok {
		t.Error("point behind the camera should be culled")
	}
}

func TestCameraZoomClamps(t *testing.T) {
	cam := NewCamera()
	for i := 0; i < 100; i++ {
		cam.ZoomIn()
	}
	if cam.Zoom > 10 {
		t.Errorf("zoom exceeded upper clamp: %g", cam.Zoom)
	}
	for i := 0; i < 200; i++ {
		cam.ZoomOut()
	}
	if cam.Zoom < 0.1 {
		t.Errorf("zoom exceeded lower clamp: %g", cam.Zoom)
	}

	cam.RotateX(1)
	cam.RotateY(-1)
	cam.Reset()
	if cam.RotX != 0 || cam.RotY != 0 || cam.Zoom != 1 {
		t.Error("reset did not restore defaults")
	}
}
