package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00.000"},
		{11.7, "00:00:11.700"},
		{61.5, "00:01:01.500"},
		{3661.025, "01:01:01.025"},
		{-5, "00:00:00.000"},
	}
	for _, tc := range cases {
		if got := FormatSeconds(tc.in); got != tc.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMilliseconds(t *testing.T) {
	if got := Milliseconds(7.7); got != 7700 {
		t.Errorf("got %d", got)
	}
	if got := Milliseconds(0.0015); got != 2 {
		t.Errorf("rounding: got %d", got)
	}
	if got := Milliseconds(-1); got != 0 {
		t.Errorf("negative: got %d", got)
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30/1"); got != 30 {
		t.Errorf("got %v", got)
	}
	if got := ParseFrameRate("30000/1001"); got < 29.96 || got > 29.98 {
		t.Errorf("ntsc rate = %v", got)
	}
	if got := ParseFrameRate("0/0"); got != 0 {
		t.Errorf("zero denominator = %v", got)
	}
	if got := ParseFrameRate("garbage"); got != 0 {
		t.Errorf("garbage = %v", got)
	}
}

func TestBaseName(t *testing.T) {
	if got := BaseName("/a/b/s_00042.yaml"); got != "s_00042" {
		t.Errorf("got %q", got)
	}
	if got := BaseName("plain"); got != "plain" {
		t.Errorf("got %q", got)
	}
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	if err := EnsureDir(nested); err != nil {
		t.Fatal(err)
	}
	if !FileExists(nested) {
		t.Error("EnsureDir did not create the directory")
	}

	file := filepath.Join(nested, "x.txt")
	os.WriteFile(file, []byte("x"), 0644)
	if !FileExists(file) {
		t.Error("file should exist")
	}

	CleanupFiles(file, filepath.Join(dir, "missing.txt"))
	if FileExists(file) {
		t.Error("CleanupFiles left the file behind")
	}
}
