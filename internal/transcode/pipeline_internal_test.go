package transcode

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/asticode/go-astiav"

	"reorient/internal/logging"
	"reorient/internal/rotation"
	"reorient/internal/services"
	"reorient/internal/testsupport"
)

func TestConfigureRejectsDecodedStreamWithoutEncoder(t *testing.T) {
	if astiav.FindEncoderByName("libx264") == nil && astiav.FindEncoder(astiav.CodecIDH264) == nil {
		t.Skip("no H.264 encoder linked into libavcodec")
	}
	dir := t.TempDir()
	input := testsupport.MakeClip(t, dir, "clip.mp4", testsupport.DefaultClip)
	job := Job{ID: "invariant", Input: input, Output: filepath.Join(dir, "out.mp4"), Rotation: rotation.Deg90}

	p, err := Open(context.Background(), job, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()
	header, err := p.WriteHeader()
	if err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}

	ids := header.core.source.VideoStreams()
	if len(ids) == 0 {
		t.Fatal("fixture has no video stream")
	}
	for _, id := range ids {
		header.core.dest.encoders[id].Free()
		delete(header.core.dest.encoders, id)
	}

	_, err = header.Configure()
	if !errors.Is(err, services.ErrConfigurationInvariant) {
		t.Fatalf("expected ErrConfigurationInvariant, got %v", err)
	}
	if len(header.core.pipes) != 0 {
		t.Fatalf("no pipe should be bound after a failed configure, got %d", len(header.core.pipes))
	}
}

func TestOpenDecoderRejectsUnknownCodec(t *testing.T) {
	fc, err := astiav.AllocOutputFormatContext(nil, "matroska", "")
	if err != nil || fc == nil {
		t.Fatalf("alloc format context: %v", err)
	}
	defer fc.Free()
	stream := fc.NewStream(nil)
	if stream == nil {
		t.Fatal("new stream")
	}
	stream.CodecParameters().SetMediaType(astiav.MediaTypeVideo)
	stream.CodecParameters().SetCodecID(astiav.CodecIDNone)

	src := &Source{decoders: make(map[StreamID]*astiav.CodecContext)}
	_, err = src.openDecoder(stream)
	if !errors.Is(err, services.ErrDecoderInit) {
		t.Fatalf("expected ErrDecoderInit, got %v", err)
	}
	if services.Kind(err) != "decoder_init" {
		t.Fatalf("unexpected kind %q", services.Kind(err))
	}
}
