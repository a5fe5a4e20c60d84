package transcode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/asticode/go-astiav"

	"reorient/internal/rotation"
	"reorient/internal/services"
)

// Filter is a buffer → rotation → buffersink graph bound to one decoder.
// Frames enter and leave in the decoder time base.
type Filter struct {
	graph *astiav.FilterGraph
	src   *astiav.BuffersrcFilterContext
	sink  *astiav.BuffersinkFilterContext

	tb    astiav.Rational
	args  string
	chain string
}

// bufferParams describes the frames entering the graph.
type bufferParams struct {
	Width, Height int
	PixelFormat   astiav.PixelFormat
	TimeBase      astiav.Rational
	FrameRate     astiav.Rational
	ColorSpace    astiav.ColorSpace
	ColorRange    astiav.ColorRange
}

func paramsFromDecoder(decoder *astiav.CodecContext) bufferParams {
	return bufferParams{
		Width:       decoder.Width(),
		Height:      decoder.Height(),
		PixelFormat: decoder.PixelFormat(),
		TimeBase:    decoder.TimeBase(),
		FrameRate:   decoder.Framerate(),
		ColorSpace:  decoder.ColorSpace(),
		ColorRange:  decoder.ColorRange(),
	}
}

func known(r astiav.Rational) bool { return r.Num() > 0 && r.Den() > 0 }

// describe renders the buffer source parameters for logs. Colour
// properties that are unspecified are left out.
func (p bufferParams) describe() string {
	parts := []string{fmt.Sprintf("video_size=%dx%d", p.Width, p.Height), "pixel_aspect=1/1"}
	if p.PixelFormat != astiav.PixelFormatNone {
		parts = append(parts, "pix_fmt="+p.PixelFormat.String())
	}
	if known(p.TimeBase) {
		parts = append(parts, fmt.Sprintf("time_base=%d/%d", p.TimeBase.Num(), p.TimeBase.Den()))
	}
	if known(p.FrameRate) {
		parts = append(parts, fmt.Sprintf("frame_rate=%d/%d", p.FrameRate.Num(), p.FrameRate.Den()))
	}
	if p.ColorSpace != astiav.ColorSpaceUnspecified {
		parts = append(parts, "colorspace="+p.ColorSpace.String())
	}
	if p.ColorRange != astiav.ColorRangeUnspecified {
		parts = append(parts, "range="+p.ColorRange.String())
	}
	return strings.Join(parts, ":")
}

// NewFilter builds the rotation graph for frames produced by decoder.
func NewFilter(decoder *astiav.CodecContext, rot rotation.Rotation) (*Filter, error) {
	if !rot.Valid() {
		return nil, services.Wrap(services.ErrFilterGraph, "configure", "build filter", fmt.Sprintf("invalid rotation %d", int(rot)), nil)
	}
	params := paramsFromDecoder(decoder)
	f := &Filter{
		tb:    params.TimeBase,
		args:  params.describe(),
		chain: rot.FilterExpression(),
	}
	if err := f.build(params); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (f *Filter) build(p bufferParams) error {
	fail := func(op string, err error) error {
		return services.Wrap(services.ErrFilterGraph, "configure", op, f.args, err)
	}

	f.graph = astiav.AllocFilterGraph()
	if f.graph == nil {
		return fail("alloc graph", errors.New("allocation failed"))
	}
	buffer := astiav.FindFilterByName("buffer")
	buffersink := astiav.FindFilterByName("buffersink")
	if buffer == nil || buffersink == nil {
		return fail("find filters", errors.New("buffer or buffersink filter missing"))
	}

	var err error
	if f.src, err = f.graph.NewBuffersrcFilterContext(buffer, "in"); err != nil {
		return fail("create buffer source", err)
	}
	if f.sink, err = f.graph.NewBuffersinkFilterContext(buffersink, "out"); err != nil {
		return fail("create buffer sink", err)
	}

	srcParams := astiav.AllocBuffersrcFilterContextParameters()
	defer srcParams.Free()
	srcParams.SetWidth(p.Width)
	srcParams.SetHeight(p.Height)
	srcParams.SetPixelFormat(p.PixelFormat)
	srcParams.SetSampleAspectRatio(astiav.NewRational(1, 1))
	srcParams.SetTimeBase(p.TimeBase)
	if known(p.FrameRate) {
		srcParams.SetFramerate(p.FrameRate)
	}
	if p.ColorSpace != astiav.ColorSpaceUnspecified {
		srcParams.SetColorSpace(p.ColorSpace)
	}
	if p.ColorRange != astiav.ColorRangeUnspecified {
		srcParams.SetColorRange(p.ColorRange)
	}
	if err := f.src.SetParameters(srcParams); err != nil {
		return fail("set source parameters", err)
	}
	if err := f.src.Initialize(nil); err != nil {
		return fail("initialize source", err)
	}

	outputs := astiav.AllocFilterInOut()
	defer outputs.Free()
	outputs.SetName("in")
	outputs.SetFilterContext(f.src.FilterContext())
	outputs.SetPadIdx(0)
	outputs.SetNext(nil)

	inputs := astiav.AllocFilterInOut()
	defer inputs.Free()
	inputs.SetName("out")
	inputs.SetFilterContext(f.sink.FilterContext())
	inputs.SetPadIdx(0)
	inputs.SetNext(nil)

	if err := f.graph.Parse(f.chain, inputs, outputs); err != nil {
		return fail("parse "+f.chain, err)
	}
	if err := f.graph.Configure(); err != nil {
		return fail("configure graph", err)
	}
	if tb := f.sink.TimeBase(); known(tb) {
		f.tb = tb
	}
	return nil
}

// TimeBase is the time base of frames leaving the graph.
func (f *Filter) TimeBase() astiav.Rational { return f.tb }

// Args describes the buffer source parameters.
func (f *Filter) Args() string { return f.args }

// Chain is the filter expression between source and sink.
func (f *Filter) Chain() string { return f.chain }

// SendFrame queues frame. Its timestamps are passed through as they are.
func (f *Filter) SendFrame(frame *astiav.Frame) error {
	return f.src.AddFrame(frame, astiav.NewBuffersrcFlags(astiav.BuffersrcFlagKeepRef))
}

// SendEOF tells the graph no more frames follow so it releases what it holds.
func (f *Filter) SendEOF() error {
	return f.src.AddFrame(nil, astiav.NewBuffersrcFlags())
}

// ReceiveFrame pulls one rotated frame. It returns astiav.ErrEagain when the
// graph needs more input and astiav.ErrEof once drained after SendEOF.
func (f *Filter) ReceiveFrame(frame *astiav.Frame) error {
	return f.sink.GetFrame(frame, astiav.NewBuffersinkFlags())
}

// Close frees the graph and every filter context it owns.
func (f *Filter) Close() {
	if f == nil || f.graph == nil {
		return
	}
	f.graph.Free()
	f.graph = nil
}
