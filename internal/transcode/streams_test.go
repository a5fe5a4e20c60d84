package transcode

import (
	"errors"
	"testing"

	"github.com/asticode/go-astiav"

	"reorient/internal/services"
)

func TestTimeBasesLookupMissingIsInvariantViolation(t *testing.T) {
	tbs := TimeBases{0: astiav.NewRational(1, 90000)}
	if tb, err := tbs.Lookup(0, "pump"); err != nil || tb.Den() != 90000 {
		t.Fatalf("Lookup(0) = %v, %v", tb, err)
	}
	_, err := tbs.Lookup(1, "pump")
	if !errors.Is(err, services.ErrConfigurationInvariant) {
		t.Fatalf("expected ErrConfigurationInvariant, got %v", err)
	}
}

func TestRequireEntriesReportsFirstGap(t *testing.T) {
	present := map[StreamID]bool{0: true, 2: true}
	err := requireEntries("configure", "encoder", []StreamID{0, 1, 2}, func(id StreamID) bool { return present[id] })
	if !errors.Is(err, services.ErrConfigurationInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
	if err := requireEntries("configure", "encoder", []StreamID{0, 2}, func(id StreamID) bool { return present[id] }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSortedIDsAndTotals(t *testing.T) {
	stats := newStats()
	stats.stream(4).PacketsIn = 3
	stats.stream(0).PacketsIn = 2
	stats.stream(2).BytesCopied = 100
	ids := sortedIDs(stats.Streams)
	if len(ids) != 3 || ids[0] != 0 || ids[1] != 2 || ids[2] != 4 {
		t.Fatalf("unexpected order %v", ids)
	}
	total := stats.Totals()
	if total.PacketsIn != 5 || total.BytesCopied != 100 {
		t.Fatalf("unexpected totals %+v", total)
	}
}

func TestBufferParamsDescribeOmitsUnknownColor(t *testing.T) {
	params := bufferParams{
		Width:       1920,
		Height:      1080,
		PixelFormat: astiav.PixelFormatYuv420P,
		TimeBase:    astiav.NewRational(1, 90000),
		FrameRate:   astiav.NewRational(30000, 1001),
		ColorSpace:  astiav.ColorSpaceUnspecified,
		ColorRange:  astiav.ColorRangeUnspecified,
	}
	if got, want := params.describe(), "video_size=1920x1080:pixel_aspect=1/1:pix_fmt=yuv420p:time_base=1/90000:frame_rate=30000/1001"; got != want {
		t.Fatalf("describe() = %q, want %q", got, want)
	}

	params.FrameRate = astiav.NewRational(0, 1)
	params.ColorSpace = astiav.ColorSpaceBt709
	params.ColorRange = astiav.ColorRangeMpeg
	if got, want := params.describe(), "video_size=1920x1080:pixel_aspect=1/1:pix_fmt=yuv420p:time_base=1/90000:colorspace=bt709:range=tv"; got != want {
		t.Fatalf("describe() = %q, want %q", got, want)
	}
}
