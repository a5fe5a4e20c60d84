package transcode

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/asticode/go-astiav"

	"reorient/internal/services"
)

// StreamID identifies a stream by its input index. Output streams are
// created in input order, so the same value addresses the output stream.
type StreamID int

func (id StreamID) String() string { return "stream#" + strconv.Itoa(int(id)) }

// TimeBases maps streams to the rational unit their timestamps use at one
// stage of the pipeline.
type TimeBases map[StreamID]astiav.Rational

// Lookup returns the time base for id or an invariant error naming the map.
func (t TimeBases) Lookup(id StreamID, stage string) (astiav.Rational, error) {
	tb, ok := t[id]
	if !ok {
		return astiav.Rational{}, missingEntry(stage, id, "time base")
	}
	return tb, nil
}

func missingEntry(stage string, id StreamID, what string) error {
	return services.Wrap(
		services.ErrConfigurationInvariant,
		stage,
		"lookup "+what,
		fmt.Sprintf("%s has no %s", id, what),
		nil,
	)
}

// requireEntries fails when any id lacks an entry according to has.
func requireEntries(stage, what string, ids []StreamID, has func(StreamID) bool) error {
	for _, id := range ids {
		if !has(id) {
			return missingEntry(stage, id, what)
		}
	}
	return nil
}

func sortedIDs[V any](m map[StreamID]V) []StreamID {
	ids := make([]StreamID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StreamStats counts work done for one stream.
type StreamStats struct {
	Copied        bool
	PacketsIn     int64
	PacketsOut    int64
	FramesDecoded int64
	FramesEncoded int64
	BytesCopied   int64
}

// Stats collects per-stream counters for one pipeline run.
type Stats struct {
	Streams map[StreamID]*StreamStats
}

func newStats() Stats {
	return Stats{Streams: make(map[StreamID]*StreamStats)}
}

func (s Stats) stream(id StreamID) *StreamStats {
	st, ok := s.Streams[id]
	if !ok {
		st = &StreamStats{}
		s.Streams[id] = st
	}
	return st
}

// Totals sums every stream's counters.
func (s Stats) Totals() StreamStats {
	var total StreamStats
	for _, st := range s.Streams {
		total.PacketsIn += st.PacketsIn
		total.PacketsOut += st.PacketsOut
		total.FramesDecoded += st.FramesDecoded
		total.FramesEncoded += st.FramesEncoded
		total.BytesCopied += st.BytesCopied
	}
	return total
}
