package testsupport

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
)

// ClipOptions shapes a generated test clip.
type ClipOptions struct {
	Width, Height int
	Rate          int
	Seconds       int
	Audio         bool
	// VideoCodec names the ffmpeg encoder for the video stream. Empty means libx264.
	VideoCodec string
}

// DefaultClip is a small 25 fps clip with a sine tone.
var DefaultClip = ClipOptions{Width: 320, Height: 240, Rate: 25, Seconds: 1, Audio: true}

// MakeClip renders a synthetic clip into dir/name with the ffmpeg CLI. The
// test is skipped when ffmpeg or the requested encoder is unavailable.
func MakeClip(t testing.TB, dir, name string, opts ClipOptions) string {
	t.Helper()

	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not available")
	}
	out := filepath.Join(dir, name)
	duration := strconv.Itoa(opts.Seconds)
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "lavfi", "-i", fmt.Sprintf("testsrc=size=%dx%d:rate=%d:duration=%s", opts.Width, opts.Height, opts.Rate, duration),
	}
	if opts.Audio {
		args = append(args, "-f", "lavfi", "-i", "sine=frequency=440:sample_rate=48000:duration="+duration)
	}
	codec := opts.VideoCodec
	if codec == "" {
		codec = "libx264"
	}
	args = append(args, "-c:v", codec, "-pix_fmt", "yuv420p", "-g", strconv.Itoa(opts.Rate))
	if opts.Audio {
		args = append(args, "-c:a", "aac", "-shortest")
	}
	args = append(args, out)

	if output, err := exec.Command(bin, args...).CombinedOutput(); err != nil {
		t.Skipf("ffmpeg cannot render fixture (%s missing?): %v: %s", codec, err, output)
	}
	return out
}
