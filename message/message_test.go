package message

import (
	"os"
	"path/filepath"
	"testing"
)

func TestImageLocatorPriority(t *testing.T) {
	tests := []struct {
		name string
		img  Image
		want string
		ok   bool
	}{
		{"url first", Image{URL: "u", ImageURL: "iu", File: "f", ImageFile: "if"}, "u", true},
		{"image url", Image{ImageURL: "iu", File: "f"}, "iu", true},
		{"file", Image{File: "f", ImageFile: "if"}, "f", true},
		{"image file", Image{ImageFile: "if"}, "if", true},
		{"empty", Image{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.img.Locator()
			if got != tt.want || ok != tt.ok {
				t.Errorf("Locator() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFindImageLocator(t *testing.T) {
	tests := []struct {
		name  string
		chain Chain
		want  string
		ok    bool
	}{
		{
			name:  "image in chain",
			chain: Chain{Plain{Text: "/charpic"}, Image{URL: "https://example.com/a.png"}},
			want:  "https://example.com/a.png",
			ok:    true,
		},
		{
			name:  "first image wins",
			chain: Chain{Image{File: "a.png"}, Image{URL: "b.png"}},
			want:  "a.png",
			ok:    true,
		},
		{
			name:  "empty image skipped",
			chain: Chain{Image{}, Image{ImageFile: "c.png"}},
			want:  "c.png",
			ok:    true,
		},
		{
			name:  "chain before reply",
			chain: Chain{Reply{Chain: Chain{Image{URL: "quoted"}}}, Image{URL: "own"}},
			want:  "own",
			ok:    true,
		},
		{
			name:  "reply fallback",
			chain: Chain{Plain{Text: "/charpic"}, Reply{Chain: Chain{Plain{Text: "hi"}, Image{ImageURL: "quoted"}}}},
			want:  "quoted",
			ok:    true,
		},
		{
			name:  "nothing",
			chain: Chain{Plain{Text: "/charpic"}, Reply{}},
			ok:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindImageLocator(tt.chain)
			if got != tt.want || ok != tt.ok {
				t.Errorf("FindImageLocator() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseChain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	chain := ParseChain([]string{"hello", "https://example.com/x.gif", path, "file:///tmp/y.png", "reply:http://q/z.png"})
	want := Chain{
		Plain{Text: "hello"},
		Image{URL: "https://example.com/x.gif"},
		Image{File: path},
		Image{File: "file:///tmp/y.png"},
		Reply{Chain: Chain{Image{URL: "http://q/z.png"}}},
	}
	if len(chain) != len(want) {
		t.Fatalf("len(chain) = %d, want %d", len(chain), len(want))
	}
	for i := range want {
		if r, ok := want[i].(Reply); ok {
			got, ok := chain[i].(Reply)
			if !ok || len(got.Chain) != 1 || got.Chain[0] != r.Chain[0] {
				t.Errorf("chain[%d] = %#v, want %#v", i, chain[i], want[i])
			}
			continue
		}
		if chain[i] != want[i] {
			t.Errorf("chain[%d] = %#v, want %#v", i, chain[i], want[i])
		}
	}
	if got := chain.Text(); got != "hello" {
		t.Errorf("Text() = %q, want %q", got, "hello")
	}
}

func TestParseChainMissingFileIsText(t *testing.T) {
	chain := ParseChain([]string{filepath.Join(t.TempDir(), "missing.png")})
	if _, ok := chain[0].(Plain); !ok {
		t.Errorf("chain[0] = %#v, want Plain", chain[0])
	}
}
