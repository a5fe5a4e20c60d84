package rotation_test

import (
	"testing"

	"reorient/internal/rotation"
)

func TestDimensions(t *testing.T) {
	cases := []struct {
		rot          rotation.Rotation
		wantW, wantH int
		wantSwap     bool
		wantExpr     string
	}{
		{rotation.None, 640, 360, false, "null"},
		{rotation.Deg90, 360, 640, true, "transpose=1"},
		{rotation.Deg180, 640, 360, false, "transpose=2,transpose=2"},
		{rotation.Deg270, 360, 640, true, "transpose=2"},
	}
	for _, tc := range cases {
		w, h := tc.rot.Dimensions(640, 360)
		if w != tc.wantW || h != tc.wantH {
			t.Fatalf("%s: got %dx%d want %dx%d", tc.rot, w, h, tc.wantW, tc.wantH)
		}
		if tc.rot.SwapsAxes() != tc.wantSwap {
			t.Fatalf("%s: SwapsAxes = %v", tc.rot, tc.rot.SwapsAxes())
		}
		if tc.rot.FilterExpression() != tc.wantExpr {
			t.Fatalf("%s: filter %q want %q", tc.rot, tc.rot.FilterExpression(), tc.wantExpr)
		}
	}
}

func TestParse(t *testing.T) {
	cases := map[string]rotation.Rotation{
		"0":     rotation.None,
		"none":  rotation.None,
		" 90 ":  rotation.Deg90,
		"180":   rotation.Deg180,
		"270°":  rotation.Deg270,
		"ccw":   rotation.Deg270,
		"90deg": rotation.Deg90,
		"-90":   rotation.Deg270,
		"450":   rotation.Deg90,
		"-180":  rotation.Deg180,
	}
	for input, want := range cases {
		got, err := rotation.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %s, want %s", input, got, want)
		}
	}
	for _, bad := range []string{"", "45", "-30", "sideways"} {
		if _, err := rotation.Parse(bad); err == nil {
			t.Fatalf("Parse(%q) expected error", bad)
		}
	}
}

func TestFromDegrees(t *testing.T) {
	if r, err := rotation.FromDegrees(-90); err != nil || r != rotation.Deg270 {
		t.Fatalf("FromDegrees(-90) = %s, %v", r, err)
	}
	if r, err := rotation.FromDegrees(450); err != nil || r != rotation.Deg90 {
		t.Fatalf("FromDegrees(450) = %s, %v", r, err)
	}
	if _, err := rotation.FromDegrees(45); err == nil {
		t.Fatal("expected error for 45 degrees")
	}
}

func TestInverseGeometryRoundTrips(t *testing.T) {
	for _, r := range rotation.All() {
		back, err := rotation.FromDegrees(-r.Degrees())
		if err != nil {
			t.Fatalf("FromDegrees(%d): %v", -r.Degrees(), err)
		}
		w, h := r.Dimensions(1920, 1080)
		w, h = back.Dimensions(w, h)
		if w != 1920 || h != 1080 {
			t.Fatalf("%s round trip gave %dx%d", r, w, h)
		}
	}
}

func TestChoices(t *testing.T) {
	if got, want := rotation.Choices(), "0, 90, 180 or 270"; got != want {
		t.Fatalf("Choices() = %q, want %q", got, want)
	}
}

func TestTextRoundTrip(t *testing.T) {
	var r rotation.Rotation
	if err := r.UnmarshalText([]byte("270")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	text, err := r.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "270" {
		t.Fatalf("unexpected text %q", text)
	}
	if _, err := rotation.Rotation(7).MarshalText(); err == nil {
		t.Fatal("expected error for invalid rotation")
	}
}
