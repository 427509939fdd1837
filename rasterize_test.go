package charpic

import (
	"image"
	"strings"
	"testing"

	"golang.org/x/image/font"
)

func hasInk(img *image.Gray) bool {
	for _, v := range img.Pix {
		if v < 0xff {
			return true
		}
	}
	return false
}

func TestRenderEmptyText(t *testing.T) {
	for _, r := range []*TextRasterizer{NewTextRasterizer(nil), mustBuiltinRasterizer(t)} {
		img := r.Render("")
		if img.Rect.Dx() != 1 || img.Rect.Dy() != 1 {
			t.Errorf("Expected 1x1 canvas, got %v", img.Rect.Size())
		}
		if img.Pix[0] != 0xff {
			t.Errorf("Expected white pixel, got %d", img.Pix[0])
		}
	}
}

func mustBuiltinRasterizer(t *testing.T) *TextRasterizer {
	t.Helper()
	f, err := BuiltinFont(DefaultFontSize)
	if err != nil {
		t.Fatalf("BuiltinFont: %v", err)
	}
	return NewTextRasterizer(f)
}

func TestRenderFallbackSizing(t *testing.T) {
	r := NewTextRasterizer(nil)
	if !r.Fallback() {
		t.Fatal("nil font should select the fallback path")
	}
	tests := []struct {
		text          string
		width, height int
	}{
		{"ab\ncde\n", 30, 24},
		{"ab\ncde", 30, 24},
		{"@\n", 10, 12},
		{"@@@@\n@@@@\n@@@@\n", 40, 36},
	}
	for _, tt := range tests {
		img := r.Render(tt.text)
		if img.Rect.Dx() != tt.width || img.Rect.Dy() != tt.height {
			t.Errorf("Render(%q) = %v, want %dx%d", tt.text, img.Rect.Size(), tt.width, tt.height)
		}
		if w, h := r.Measure(tt.text); w != tt.width || h != tt.height {
			t.Errorf("Measure(%q) = %dx%d, want %dx%d", tt.text, w, h, tt.width, tt.height)
		}
		if !hasInk(img) {
			t.Errorf("Render(%q) drew nothing", tt.text)
		}
	}
}

func TestRenderMeasuredSizing(t *testing.T) {
	r := mustBuiltinRasterizer(t)
	if r.Fallback() {
		t.Fatal("loaded font should select the measured path")
	}

	face := r.Font().newFace()
	defer face.Close()
	m := face.Metrics()
	lineHeight := m.Ascent.Ceil() + m.Descent.Ceil()

	text := "@@..\n@@@@@@\n.\n"
	wantW := font.MeasureString(face, "@@@@@@").Ceil()
	img := r.Render(text)
	if img.Rect.Dx() != wantW {
		t.Errorf("Expected width %d, got %d", wantW, img.Rect.Dx())
	}
	if img.Rect.Dy() != 3*lineHeight {
		t.Errorf("Expected height %d, got %d", 3*lineHeight, img.Rect.Dy())
	}
	if !hasInk(img) {
		t.Error("Render drew nothing")
	}
}

func TestRenderTrailingNewlineDoesNotAddLine(t *testing.T) {
	r := mustBuiltinRasterizer(t)
	w1, h1 := r.Measure("abc\ndef")
	w2, h2 := r.Measure("abc\ndef\n")
	if w1 != w2 || h1 != h2 {
		t.Errorf("Measure differs: %dx%d vs %dx%d", w1, h1, w2, h2)
	}
}

func TestRenderBlankTextIsWhite(t *testing.T) {
	img := mustBuiltinRasterizer(t).Render("     \n     \n")
	if hasInk(img) {
		t.Error("spaces should leave the canvas white")
	}
}

func TestRenderOversizedTextYieldsPlaceholder(t *testing.T) {
	img := NewTextRasterizer(nil).Render(strings.Repeat("@", 1<<20))
	if img.Rect.Dx() != PlaceholderWidth || img.Rect.Dy() != PlaceholderHeight {
		t.Errorf("Expected %dx%d placeholder, got %v", PlaceholderWidth, PlaceholderHeight, img.Rect.Size())
	}
	if hasInk(img) {
		t.Error("placeholder should be blank")
	}
}

func TestLoadFont(t *testing.T) {
	f, err := LoadFont(BuiltinFontName, 12)
	if err != nil {
		t.Fatalf("LoadFont(builtin): %v", err)
	}
	if f.Name() != BuiltinFontName || f.Size() != 12 {
		t.Errorf("font = %s@%v", f.Name(), f.Size())
	}
	if _, err := LoadFont(t.TempDir()+"/missing.ttf", 14); err == nil {
		t.Error("missing font file accepted")
	}
	if _, err := ParseFont([]byte("not a font"), 14); err == nil {
		t.Error("garbage font data accepted")
	}
	if _, err := BuiltinFont(0); err == nil {
		t.Error("zero font size accepted")
	}
}

func TestRasterizerConcurrentUse(t *testing.T) {
	r := mustBuiltinRasterizer(t)
	want := r.Render("@@\n..\n")
	done := make(chan *image.Gray, 8)
	for i := 0; i < cap(done); i++ {
		go func() { done <- r.Render("@@\n..\n") }()
	}
	for i := 0; i < cap(done); i++ {
		got := <-done
		if got.Rect != want.Rect || string(got.Pix) != string(want.Pix) {
			t.Error("concurrent render differs")
		}
	}
}
