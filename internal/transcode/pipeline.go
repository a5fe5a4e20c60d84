package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/asticode/go-astiav"

	"reorient/internal/logging"
	"reorient/internal/rotation"
	"reorient/internal/services"
)

// Job describes one file to rotate. Output is resolved before the job runs.
type Job struct {
	ID       string
	Input    string
	Output   string
	Rotation rotation.Rotation
}

// core is shared by every pipeline state. Only one state value is live at
// a time; the others have been consumed.
type core struct {
	job    Job
	ctx    context.Context
	source *Source
	dest   *Destination
	pipes  map[StreamID]*pipe
	stats  Stats
	logger *slog.Logger
	closed bool
}

// state guards single use of a pipeline step.
type state struct {
	core *core
	used bool
}

func (s *state) take(step string) (*core, error) {
	if s.core == nil {
		return nil, services.Wrap(services.ErrOutOfOrder, step, step, "pipeline state is nil", nil)
	}
	if s.used {
		return nil, services.Wrap(services.ErrOutOfOrder, step, step, "state already consumed", nil)
	}
	if s.core.closed {
		return nil, services.Wrap(services.ErrOutOfOrder, step, step, "pipeline closed", nil)
	}
	s.used = true
	return s.core, nil
}

func nilState(step string) error {
	return services.Wrap(services.ErrOutOfOrder, step, step, "pipeline state is nil", nil)
}

// Pipeline is an opened source and destination ready for WriteHeader.
type Pipeline struct{ state }

// HeaderWritten is a pipeline whose container header is committed.
type HeaderWritten struct{ state }

// Configured is a pipeline whose output time bases are known.
type Configured struct{ state }

// Drained is a pipeline whose packets were all written and flushed.
type Drained struct{ state }

// Open loads the source and creates the destination for job.
func Open(ctx context.Context, job Job, logger *slog.Logger) (*Pipeline, error) {
	if !job.Rotation.Valid() {
		return nil, services.Wrap(services.ErrValidation, "open", "validate job", fmt.Sprintf("invalid rotation %d", int(job.Rotation)), nil)
	}
	ctx = services.WithJobID(ctx, job.ID)
	logger = logging.NewComponentLogger(logger, "transcode")

	openCtx := services.WithStage(ctx, "open")
	source, err := LoadSource(openCtx, job.Input, logger)
	if err != nil {
		return nil, err
	}
	dest, err := CreateDestination(job.Output, source, job.Rotation, logging.WithContext(openCtx, logger))
	if err != nil {
		source.Close()
		return nil, err
	}
	c := &core{
		job:    job,
		ctx:    ctx,
		source: source,
		dest:   dest,
		pipes:  make(map[StreamID]*pipe),
		stats:  newStats(),
		logger: logger,
	}
	return &Pipeline{state{core: c}}, nil
}

// Close releases native resources. It is safe on any state and repeatable.
func (p *Pipeline) Close() {
	if p == nil || p.core == nil {
		return
	}
	p.core.close()
}

func (c *core) close() {
	if c.closed {
		return
	}
	c.closed = true
	for id, pp := range c.pipes {
		pp.close()
		delete(c.pipes, id)
	}
	c.dest.Close()
	c.source.Close()
}

func (c *core) log(stage string) *slog.Logger {
	return logging.WithContext(services.WithStage(c.ctx, stage), c.logger)
}

// WriteHeader commits the output header.
func (p *Pipeline) WriteHeader() (*HeaderWritten, error) {
	if p == nil {
		return nil, nilState("header")
	}
	c, err := p.take("header")
	if err != nil {
		return nil, err
	}
	if err := c.dest.WriteHeader(); err != nil {
		return nil, err
	}
	c.log("header").Debug("header written", logging.String("output", c.job.Output))
	return &HeaderWritten{state{core: c}}, nil
}

// Configure reads back output time bases and binds a pipe to every decoded
// stream. Every decoded stream must have an encoder, a filter and an output
// time base.
func (h *HeaderWritten) Configure() (*Configured, error) {
	if h == nil {
		return nil, nilState("configure")
	}
	c, err := h.take("configure")
	if err != nil {
		return nil, err
	}
	if err := c.dest.SetupTimeBases(c.source); err != nil {
		return nil, err
	}
	ids := c.source.VideoStreams()
	checks := []struct {
		what string
		has  func(StreamID) bool
	}{
		{"encoder", func(id StreamID) bool { _, ok := c.dest.Encoder(id); return ok }},
		{"filter", func(id StreamID) bool { _, ok := c.dest.Filter(id); return ok }},
		{"output time base", func(id StreamID) bool { _, ok := c.dest.TimeBases[id]; return ok }},
	}
	for _, check := range checks {
		if err := requireEntries("configure", check.what, ids, check.has); err != nil {
			return nil, err
		}
	}

	for _, id := range ids {
		decoder, _ := c.source.Decoder(id)
		encoder, _ := c.dest.Encoder(id)
		filter, _ := c.dest.Filter(id)
		inTB, err := c.source.TimeBases.Lookup(id, "configure")
		if err != nil {
			return nil, err
		}
		c.pipes[id] = newPipe(id, decoder, filter, encoder, c.dest, inTB, c.dest.TimeBases[id], c.stats.stream(id))
	}
	for id := range c.source.TimeBases {
		if _, ok := c.pipes[id]; !ok {
			c.stats.stream(id).Copied = true
		}
	}
	c.log("configure").Debug("time bases configured",
		logging.Int("decoded_streams", len(ids)),
		logging.Int("copied_streams", c.source.StreamCount()-len(ids)),
	)
	return &Configured{state{core: c}}, nil
}

// PumpPackets reads every input packet, sends video through its pipe and
// copies the rest, then flushes every pipe in stream order. Cancellation
// is checked between packets.
func (cfg *Configured) PumpPackets(ctx context.Context) (*Drained, error) {
	if cfg == nil {
		return nil, nilState("pump")
	}
	c, err := cfg.take("pump")
	if err != nil {
		return nil, err
	}
	started := time.Now()
	pkt := astiav.AllocPacket()
	defer pkt.Free()

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pump packets: %w", err)
		}
		if err := c.source.input.ReadFrame(pkt); err != nil {
			if errors.Is(err, astiav.ErrEof) {
				break
			}
			return nil, services.Wrap(services.ErrCodec, "pump", "read packet", c.job.Input, err)
		}
		err := c.route(pkt)
		pkt.Unref()
		if err != nil {
			return nil, err
		}
	}

	for _, id := range sortedIDs(c.pipes) {
		if err := c.pipes[id].flush(); err != nil {
			return nil, err
		}
	}

	totals := c.stats.Totals()
	c.log("pump").Info("packets pumped",
		logging.Int64("packets_in", totals.PacketsIn),
		logging.Int64("packets_out", totals.PacketsOut),
		logging.Int64("frames_encoded", totals.FramesEncoded),
		logging.Int64("copied_bytes", totals.BytesCopied),
		logging.Duration("pump_duration", time.Since(started)),
	)
	return &Drained{state{core: c}}, nil
}

func (c *core) route(pkt *astiav.Packet) error {
	id := StreamID(pkt.StreamIndex())
	stream, ok := c.source.stream(id)
	if !ok {
		return missingEntry("pump", id, "input stream")
	}
	inTB, err := c.source.TimeBases.Lookup(id, "pump")
	if err != nil {
		return err
	}
	pkt.RescaleTs(stream.TimeBase(), inTB)

	if p, ok := c.pipes[id]; ok {
		if err := p.DecodePacket(pkt); err != nil {
			return err
		}
		if err := p.ApplyFilter(); err != nil {
			return err
		}
		return p.EncodePackets()
	}

	outTB, err := c.dest.TimeBases.Lookup(id, "pump")
	if err != nil {
		return err
	}
	st := c.stats.stream(id)
	st.PacketsIn++
	size := int64(pkt.Size())
	pkt.RescaleTs(inTB, outTB)
	pkt.SetPos(-1)
	pkt.SetStreamIndex(int(id))
	if err := c.dest.WriteInterleavedFrame(pkt); err != nil {
		return services.Wrap(services.ErrMux, "pump", "write copied packet", id.String(), err)
	}
	st.PacketsOut++
	st.BytesCopied += size
	return nil
}

// WriteTrailer finalizes the output and returns the run counters.
func (d *Drained) WriteTrailer() (Stats, error) {
	if d == nil {
		return Stats{}, nilState("trailer")
	}
	c, err := d.take("trailer")
	if err != nil {
		return Stats{}, err
	}
	if err := c.dest.WriteTrailer(); err != nil {
		return Stats{}, err
	}
	c.log("trailer").Debug("trailer written", logging.String("output", c.job.Output))
	return c.stats, nil
}

// Run executes every pipeline step for job and always frees native state.
func Run(ctx context.Context, job Job, logger *slog.Logger) (Stats, error) {
	p, err := Open(ctx, job, logger)
	if err != nil {
		return Stats{}, err
	}
	defer p.Close()

	header, err := p.WriteHeader()
	if err != nil {
		return Stats{}, err
	}
	configured, err := header.Configure()
	if err != nil {
		return Stats{}, err
	}
	drained, err := configured.PumpPackets(ctx)
	if err != nil {
		return Stats{}, err
	}
	return drained.WriteTrailer()
}
