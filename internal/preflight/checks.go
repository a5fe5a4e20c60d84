package preflight

import (
	"fmt"
	"os"
	"strings"

	"github.com/asticode/go-astiav"
	"golang.org/x/sys/unix"
)

var (
	requiredFilters = []string{"buffer", "buffersink", "transpose", "null", "setparams"}
	requiredMuxers  = []string{"mp4", "matroska"}
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckEncoder verifies libavcodec can encode H.264, preferring libx264.
func CheckEncoder() Result {
	const name = "H.264 encoder"
	if codec := astiav.FindEncoderByName("libx264"); codec != nil {
		return Result{Name: name, Passed: true, Detail: codec.Name()}
	}
	if codec := astiav.FindEncoder(astiav.CodecIDH264); codec != nil {
		return Result{Name: name, Passed: true, Detail: codec.Name() + " (libx264 missing; crf/preset may be ignored)"}
	}
	return Result{Name: name, Detail: "no H.264 encoder registered in libavcodec"}
}

// CheckFilters verifies every named libavfilter filter is available.
func CheckFilters(names ...string) Result {
	const name = "Filters"
	var missing []string
	for _, n := range names {
		if astiav.FindFilterByName(n) == nil {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: "missing " + strings.Join(missing, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(names, ", ")}
}

// CheckMuxer verifies libavformat can write the named container.
func CheckMuxer(format string) Result {
	name := "Muxer " + format
	if astiav.FindOutputFormat(format) == nil {
		return Result{Name: name, Detail: "not available"}
	}
	return Result{Name: name, Passed: true, Detail: "available"}
}
