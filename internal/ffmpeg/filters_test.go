package ffmpeg

import "testing"

func TestFilterBuilderChain(t *testing.T) {
	got := NewFilterBuilder().
		Scale(3414, 1920).
		Crop(1080, 1920, 1167, 0).
		Custom("setsar=1").
		FPS(30).
		Build()
	want := "scale=3414:1920,crop=1080:1920:1167:0,setsar=1,fps=30"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFilterBuilderSkipsInvalidValues(t *testing.T) {
	got := NewFilterBuilder().
		Scale(0, 1920).
		Crop(-1, 10, 0, 0).
		FPS(0).
		ATrim(-2).
		Build()
	if got != "" {
		t.Errorf("invalid values produced filters: %q", got)
	}
}

func TestFilterBuilderAudio(t *testing.T) {
	got := NewFilterBuilder().
		ATrim(4.16).
		ADelay(3000).
		Volume(0.5).
		Build()
	want := "atrim=0:4.160,adelay=3000:all=1,volume=0.5"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGraphAssembly(t *testing.T) {
	g := NewGraph()
	if !g.Empty() {
		t.Error("new graph should be empty")
	}

	g.Chain("[0:v]", NewFilterBuilder().FPS(30), "[base]")
	g.Raw("[base][1:v]overlay=0:0[vout]")

	got := g.String()
	want := "[0:v]fps=30[base];[base][1:v]overlay=0:0[vout]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if g.Empty() {
		t.Error("populated graph reports empty")
	}
}
