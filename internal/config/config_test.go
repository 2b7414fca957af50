package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	profile, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if profile != Default() {
		t.Errorf("got %+v, want defaults", profile)
	}
}

func TestLoad_FileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "marker:\n  size: 14\n  color: \"#00ff00\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	profile, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if profile.Marker.Size != 14 || profile.Marker.Color != "#00ff00" {
		t.Errorf("marker config not applied: %+v", profile.Marker)
	}
	// Untouched sections keep their defaults.
	if profile.Render.MaxInflight != 16 {
		t.Errorf("render defaults lost: %+v", profile.Render)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("marker: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{in: "#ff0000", want: color.RGBA{R: 255, A: 255}},
		{in: "#00ff7f", want: color.RGBA{G: 255, B: 127, A: 255}},
		{in: "#11223344", want: color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}},
		{in: "red", wantErr: true},
		{in: "#ff00", wantErr: true},
		{in: "#gg0000", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, c := range cases {
		got, err := ParseColor(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseColor(%q) should fail", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseColor(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseColor(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}
