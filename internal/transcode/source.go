package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/asticode/go-astiav"

	"reorient/internal/logging"
	"reorient/internal/services"
)

// Source is an opened input container plus decoders for its video streams.
type Source struct {
	Path      string
	TimeBases TimeBases

	input    *astiav.FormatContext
	streams  []*astiav.Stream
	decoders map[StreamID]*astiav.CodecContext
	logger   *slog.Logger
}

// LoadSource opens path, probes its streams and builds a decoder for every
// video stream. Other streams are left for stream copy.
func LoadSource(ctx context.Context, path string, logger *slog.Logger) (*Source, error) {
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "source"))

	input := astiav.AllocFormatContext()
	if input == nil {
		return nil, services.Wrap(services.ErrOpen, "open", "alloc input", path, errors.New("allocation failed"))
	}
	if err := input.OpenInput(path, nil, nil); err != nil {
		input.Free()
		return nil, services.Wrap(services.ErrOpen, "open", "open input", path, err)
	}

	src := &Source{
		Path:      path,
		TimeBases: make(TimeBases),
		input:     input,
		decoders:  make(map[StreamID]*astiav.CodecContext),
		logger:    logger,
	}
	if err := input.FindStreamInfo(nil); err != nil {
		src.Close()
		return nil, services.Wrap(services.ErrOpen, "open", "probe streams", path, err)
	}

	src.streams = input.Streams()
	for _, stream := range src.streams {
		id := StreamID(stream.Index())
		src.TimeBases[id] = stream.TimeBase()

		params := stream.CodecParameters()
		if params.MediaType() != astiav.MediaTypeVideo {
			logger.Debug("stream marked for copy",
				logging.String("stream", id.String()),
				logging.String("media_type", params.MediaType().String()),
			)
			continue
		}
		decoder, err := src.openDecoder(stream)
		if err != nil {
			src.Close()
			return nil, err
		}
		src.decoders[id] = decoder
		logger.Debug("video decoder ready",
			logging.String("stream", id.String()),
			logging.String("codec", params.CodecID().String()),
			logging.String("size", fmt.Sprintf("%dx%d", decoder.Width(), decoder.Height())),
			logging.String("frame_rate", decoder.Framerate().String()),
		)
	}

	logger.Info("source opened",
		logging.String("input", path),
		logging.Int("streams", len(src.streams)),
		logging.Int("video_streams", len(src.decoders)),
	)
	return src, nil
}

func (s *Source) openDecoder(stream *astiav.Stream) (*astiav.CodecContext, error) {
	id := StreamID(stream.Index())
	params := stream.CodecParameters()
	codec := astiav.FindDecoder(params.CodecID())
	if codec == nil {
		return nil, services.Wrap(services.ErrDecoderInit, "open", "find decoder", fmt.Sprintf("%s codec %s unsupported", id, params.CodecID()), nil)
	}
	decoder := astiav.AllocCodecContext(codec)
	if decoder == nil {
		return nil, services.Wrap(services.ErrDecoderInit, "open", "alloc decoder", id.String(), errors.New("allocation failed"))
	}
	if err := params.ToCodecContext(decoder); err != nil {
		decoder.Free()
		return nil, services.Wrap(services.ErrDecoderInit, "open", "apply codec parameters", id.String(), err)
	}
	decoder.SetTimeBase(stream.TimeBase())
	decoder.SetFramerate(s.input.GuessFrameRate(stream, nil))
	if err := decoder.Open(codec, nil); err != nil {
		decoder.Free()
		return nil, services.Wrap(services.ErrDecoderInit, "open", "open decoder", id.String(), err)
	}
	return decoder, nil
}

// Decoder returns the decoder for id when the stream is decoded.
func (s *Source) Decoder(id StreamID) (*astiav.CodecContext, bool) {
	d, ok := s.decoders[id]
	return d, ok
}

// VideoStreams lists decoded streams in ascending order.
func (s *Source) VideoStreams() []StreamID {
	return sortedIDs(s.decoders)
}

// StreamCount reports how many streams the input carries.
func (s *Source) StreamCount() int {
	return len(s.streams)
}

// Metadata returns the container level tags.
func (s *Source) Metadata() map[string]string {
	return dictionaryToMap(s.input.Metadata())
}

func (s *Source) stream(id StreamID) (*astiav.Stream, bool) {
	if id < 0 || int(id) >= len(s.streams) {
		return nil, false
	}
	return s.streams[id], true
}

// Close releases decoders and the input container.
func (s *Source) Close() {
	if s == nil {
		return
	}
	for id, decoder := range s.decoders {
		decoder.Free()
		delete(s.decoders, id)
	}
	if s.input != nil {
		s.input.CloseInput()
		s.input.Free()
		s.input = nil
	}
}

func dictionaryToMap(d *astiav.Dictionary) map[string]string {
	out := make(map[string]string)
	if d == nil {
		return out
	}
	flags := astiav.NewDictionaryFlags(astiav.DictionaryFlagIgnoreSuffix)
	var prev *astiav.DictionaryEntry
	for {
		entry := d.Get("", prev, flags)
		if entry == nil {
			break
		}
		out[entry.Key()] = entry.Value()
		prev = entry
	}
	return out
}
