package transcode

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/asticode/go-astiav"

	"reorient/internal/logging"
	"reorient/internal/rotation"
	"reorient/internal/services"
)

// Encoder settings applied to every re-encoded video stream.
const (
	encoderName   = "libx264"
	encoderPreset = "medium"
	encoderCRF    = "23"
)

// OutputStream is one stream of the output container.
type OutputStream struct {
	stream *astiav.Stream
}

// ClearCodecTag zeroes the container specific codec tag so the muxer picks
// the tag that matches its own format.
func (o OutputStream) ClearCodecTag() {
	o.stream.CodecParameters().SetCodecTag(0)
}

// CodecTag reports the current codec tag.
func (o OutputStream) CodecTag() astiav.CodecTag {
	return o.stream.CodecParameters().CodecTag()
}

// TimeBase reports the stream time base as currently set on the muxer.
func (o OutputStream) TimeBase() astiav.Rational {
	return o.stream.TimeBase()
}

// Destination is an output container being filled from a Source.
type Destination struct {
	Path string
	// TimeBases is empty until SetupTimeBases runs after the header.
	TimeBases TimeBases

	output   *astiav.FormatContext
	io       *astiav.IOContext
	encoders map[StreamID]*astiav.CodecContext
	filters  map[StreamID]*Filter
	streams  map[StreamID]OutputStream
	header   bool
	logger   *slog.Logger
}

// CreateDestination allocates the output container for path, guessing the
// format from its extension, and prepares one output stream per input stream.
func CreateDestination(path string, src *Source, rot rotation.Rotation, logger *slog.Logger) (*Destination, error) {
	output, err := astiav.AllocOutputFormatContext(nil, "", path)
	if err != nil {
		return nil, services.Wrap(services.ErrOpen, "open", "alloc output", path, err)
	}
	if output == nil {
		return nil, services.Wrap(services.ErrOpen, "open", "alloc output", path, errors.New("no muxer for extension"))
	}

	dst := &Destination{
		Path:      path,
		TimeBases: make(TimeBases),
		output:    output,
		encoders:  make(map[StreamID]*astiav.CodecContext),
		filters:   make(map[StreamID]*Filter),
		streams:   make(map[StreamID]OutputStream),
		logger:    logging.NewComponentLogger(logger, "destination"),
	}

	metadata := astiav.NewDictionary()
	for key, value := range src.Metadata() {
		if err := metadata.Set(key, value, astiav.NewDictionaryFlags()); err != nil {
			metadata.Free()
			dst.Close()
			return nil, services.Wrap(services.ErrOpen, "open", "copy metadata", key, err)
		}
	}
	output.SetMetadata(metadata)

	for _, input := range src.streams {
		id := StreamID(input.Index())
		if decoder, ok := src.Decoder(id); ok {
			err = dst.addEncodedStream(id, input, decoder, rot)
		} else {
			err = dst.addCopiedStream(id, input)
		}
		if err != nil {
			dst.Close()
			return nil, err
		}
	}
	return dst, nil
}

func (d *Destination) addEncodedStream(id StreamID, input *astiav.Stream, decoder *astiav.CodecContext, rot rotation.Rotation) error {
	codec := astiav.FindEncoderByName(encoderName)
	if codec == nil {
		codec = astiav.FindEncoder(astiav.CodecIDH264)
	}
	if codec == nil {
		return services.Wrap(services.ErrEncoderInit, "open", "find encoder", "no H.264 encoder registered", nil)
	}
	encoder := astiav.AllocCodecContext(codec)
	if encoder == nil {
		return services.Wrap(services.ErrEncoderInit, "open", "alloc encoder", id.String(), errors.New("allocation failed"))
	}
	d.encoders[id] = encoder

	width, height := rot.Dimensions(decoder.Width(), decoder.Height())
	encoder.SetWidth(width)
	encoder.SetHeight(height)
	encoder.SetPixelFormat(decoder.PixelFormat())
	encoder.SetSampleAspectRatio(astiav.NewRational(1, 1))
	encoder.SetFramerate(decoder.Framerate())
	encoder.SetTimeBase(input.TimeBase())
	if d.output.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader) {
		encoder.SetFlags(encoder.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}

	opts := astiav.NewDictionary()
	defer opts.Free()
	_ = opts.Set("preset", encoderPreset, astiav.NewDictionaryFlags())
	_ = opts.Set("crf", encoderCRF, astiav.NewDictionaryFlags())
	if err := encoder.Open(codec, opts); err != nil {
		return services.Wrap(services.ErrEncoderInit, "open", "open encoder", fmt.Sprintf("%s %s %dx%d %s", id, codec.Name(), width, height, decoder.PixelFormat()), err)
	}

	stream := d.output.NewStream(codec)
	if stream == nil {
		return services.Wrap(services.ErrEncoderInit, "open", "add output stream", id.String(), errors.New("allocation failed"))
	}
	if err := stream.CodecParameters().FromCodecContext(encoder); err != nil {
		return services.Wrap(services.ErrEncoderInit, "open", "export encoder parameters", id.String(), err)
	}
	stream.SetTimeBase(encoder.TimeBase())
	d.streams[id] = OutputStream{stream: stream}

	filter, err := NewFilter(decoder, rot)
	if err != nil {
		return err
	}
	d.filters[id] = filter

	d.logger.Debug("video stream configured",
		logging.String("stream", id.String()),
		logging.String("encoder", codec.Name()),
		logging.String("size", fmt.Sprintf("%dx%d", width, height)),
		logging.String("filter_args", filter.Args()),
		logging.String("filter_chain", filter.Chain()),
	)
	return nil
}

func (d *Destination) addCopiedStream(id StreamID, input *astiav.Stream) error {
	stream := d.output.NewStream(nil)
	if stream == nil {
		return services.Wrap(services.ErrOpen, "open", "add copy stream", id.String(), errors.New("allocation failed"))
	}
	if err := input.CodecParameters().Copy(stream.CodecParameters()); err != nil {
		return services.Wrap(services.ErrOpen, "open", "copy codec parameters", id.String(), err)
	}
	out := OutputStream{stream: stream}
	out.ClearCodecTag()
	d.streams[id] = out
	return nil
}

// Encoder returns the encoder for a re-encoded stream.
func (d *Destination) Encoder(id StreamID) (*astiav.CodecContext, bool) {
	e, ok := d.encoders[id]
	return e, ok
}

// Filter returns the rotation filter for a re-encoded stream.
func (d *Destination) Filter(id StreamID) (*Filter, bool) {
	f, ok := d.filters[id]
	return f, ok
}

// Stream returns the output stream matching input stream id.
func (d *Destination) Stream(id StreamID) (OutputStream, bool) {
	s, ok := d.streams[id]
	return s, ok
}

// WriteHeader opens the output file when the muxer needs one and commits
// the container header. The muxer may adjust stream time bases here.
func (d *Destination) WriteHeader() error {
	if !d.output.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		ioCtx, err := astiav.OpenIOContext(d.Path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
		if err != nil {
			return services.Wrap(services.ErrOpen, "header", "open output file", d.Path, err)
		}
		d.io = ioCtx
		d.output.SetPb(ioCtx)
	}
	if err := d.output.WriteHeader(nil); err != nil {
		return services.Wrap(services.ErrMux, "header", "write header", d.Path, err)
	}
	d.header = true
	return nil
}

// SetupTimeBases records the time base the muxer settled on for each
// output stream. It must run after WriteHeader.
func (d *Destination) SetupTimeBases(src *Source) error {
	if !d.header {
		return services.Wrap(services.ErrOutOfOrder, "configure", "setup time bases", "header not written", nil)
	}
	for _, input := range src.streams {
		id := StreamID(input.Index())
		out, ok := d.streams[id]
		if !ok {
			return missingEntry("configure", id, "output stream")
		}
		d.TimeBases[id] = out.TimeBase()
	}
	return nil
}

// WriteInterleavedFrame muxes pkt, reordering across streams by dts.
func (d *Destination) WriteInterleavedFrame(pkt *astiav.Packet) error {
	return d.output.WriteInterleavedFrame(pkt)
}

// WriteTrailer finalizes the container and closes the output file.
func (d *Destination) WriteTrailer() error {
	if err := d.output.WriteTrailer(); err != nil {
		return services.Wrap(services.ErrMux, "trailer", "write trailer", d.Path, err)
	}
	if d.io != nil {
		err := d.io.Close()
		d.io = nil
		if err != nil {
			return services.Wrap(services.ErrMux, "trailer", "close output file", d.Path, err)
		}
	}
	return nil
}

// Close frees encoders, filters and the output container.
func (d *Destination) Close() {
	if d == nil {
		return
	}
	for id, filter := range d.filters {
		filter.Close()
		delete(d.filters, id)
	}
	for id, encoder := range d.encoders {
		encoder.Free()
		delete(d.encoders, id)
	}
	if d.io != nil {
		_ = d.io.Close()
		d.io = nil
	}
	if d.output != nil {
		d.output.Free()
		d.output = nil
	}
}
