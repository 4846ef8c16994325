package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(append([]string{"go-bvh-pathtracer"}, args...))
}

func TestRenderCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "frame.png")

	err := run(t, "render", "--sky", "none", "--width", "16", "--height", "8",
		"--spp", "2", "--passes", "2", "--tile", "8", "--save-passes", "--out", out)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	for _, filename := range []string{out, filepath.Join(filepath.Dir(out), "frame_pass01.png")} {
		file, err := os.Open(filename)
		if err != nil {
			t.Fatalf("Expected %s to exist: %v", filename, err)
		}
		img, err := png.Decode(file)
		file.Close()
		if err != nil {
			t.Fatal(err)
		}
		if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
			t.Errorf("%s: expected 16x8, got %v", filename, b)
		}
	}
}

func TestFlyCommand(t *testing.T) {
	dir := t.TempDir()

	err := run(t, "fly", "--sky", "none", "--width", "8", "--height", "8", "--spp", "1", "--passes", "1",
		"--script", "w,,a+left", "--out-dir", dir)
	if err != nil {
		t.Fatalf("fly failed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if _, err := os.Stat(filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))); err != nil {
			t.Errorf("Expected frame %d: %v", i, err)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown fly command", []string{"fly", "--sky", "none", "--script", "w,jump"}},
		{"empty fly script", []string{"fly", "--sky", "none"}},
		{"missing sky", []string{"info", "--sky", filepath.Join(t.TempDir(), "missing.raw")}},
		{"missing scene file", []string{"render", "--scene", filepath.Join(t.TempDir(), "missing.json")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(t, tt.args...); err == nil {
				t.Errorf("Expected %v to fail", tt.args)
			}
		})
	}
}

func TestInfoScenesAndBenchCommands(t *testing.T) {
	if err := run(t, "info", "--sky", "none"); err != nil {
		t.Errorf("info failed: %v", err)
	}
	if err := run(t, "scenes", "--dir", t.TempDir()); err != nil {
		t.Errorf("scenes failed: %v", err)
	}
	if err := run(t, "info", "--scene", "grid", "--sky", "none"); err != nil {
		t.Errorf("info on grid failed: %v", err)
	}
	if err := run(t, "bench", "--sky", "none", "--width", "8", "--height", "8", "--spp", "1", "--passes", "1", "--runs", "2"); err != nil {
		t.Errorf("bench failed: %v", err)
	}
}
