package main

import (
	"path/filepath"
	"strings"
	"testing"

	"reorient/internal/testsupport"
)

func TestCheckCommandListsChecks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "Output directory:")
	requireContains(t, out, "H.264 encoder")
	if err != nil {
		requireContains(t, err.Error(), "checks failed")
		if !strings.Contains(out, "[ERROR]") {
			t.Fatalf("failed check should be rendered, got %q", out)
		}
		return
	}
	requireContains(t, out, "ready to rotate")
}

func TestRotateCommandEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t)
	input := testsupport.MakeClip(t, env.inputDir, "clip.mp4", testsupport.DefaultClip)

	out, _, err := runCLI(t, []string{"rotate", "--rotation", "90", "--jobs", "1", input}, env.configPath)
	if err != nil {
		t.Fatalf("rotate: %v\n%s", err, out)
	}
	requireContains(t, out, "1/1 ok")
	requireContains(t, out, filepath.Join(env.outputDir, "clip.mp4"))
}
