package debug

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Faultbox/reveal-viewer/pkg/math"
)

func TestCaptureWritesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "frame")
	sc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }

	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(2, 1, color.NRGBA{R: 200, A: 255})

	path, err := sc.Capture(img)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if want := filepath.Join(dir, "frame_2024-03-01_12-30-00.000.png"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
	r, _, _, _ := decoded.At(2, 1).RGBA()
	if r>>8 != 200 {
		t.Errorf("red = %d, want 200", r>>8)
	}
}

func TestGenerateFilenameNoDir(t *testing.T) {
	sc := NewScreenshotCapture("", "shot")
	name := sc.GenerateFilename()
	if !strings.HasPrefix(name, "shot_") || !strings.HasSuffix(name, ".png") {
		t.Errorf("unexpected filename %q", name)
	}
}

func TestWritePNGBadPath(t *testing.T) {
	err := WritePNG(filepath.Join(t.TempDir(), "missing", "x.png"), image.NewGray(image.Rect(0, 0, 1, 1)))
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestGroundGrid(t *testing.T) {
	tests := []struct {
		name      string
		bounds    math.Box3
		spacing   float32
		wantLines int
	}{
		{"unit box", math.NewBox3(math.Vec3{}, math.Vec3{X: 2, Y: 1, Z: 2}), 1, 3 + 3},
		{"snapped", math.NewBox3(math.Vec3{X: -0.5, Z: -0.5}, math.Vec3{X: 0.5, Y: 1, Z: 0.5}), 1, 3 + 3},
		{"empty", math.EmptyBox3(), 1, 0},
		{"bad spacing", math.NewBox3(math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1}), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh := GroundGrid(tt.bounds, tt.spacing, 0.05)
			if tt.wantLines == 0 {
				if mesh != nil {
					t.Fatalf("expected nil mesh")
				}
				return
			}
			if got := mesh.TriangleCount(); got != tt.wantLines*2 {
				t.Errorf("triangles = %d, want %d", got, tt.wantLines*2)
			}
			if y := mesh.Bounds().Max.Y; y != tt.bounds.Min.Y {
				t.Errorf("grid height = %v, want %v", y, tt.bounds.Min.Y)
			}
		})
	}
}
