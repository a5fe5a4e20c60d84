// Package naming resolves output file paths for rotated videos.
//
// The output for input "clip.mp4" written to a directory is "clip.mp4" in that
// directory, or "clip(1).mp4", "clip(2).mp4", ... when earlier names are
// taken. Resolve walks the candidates against a Taken check: Exists consults
// the filesystem for previews, while Reserver claims each candidate with an
// exclusive create under a per-directory lock, so parallel jobs and other
// reorient processes never claim the same path.
package naming
