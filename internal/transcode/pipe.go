package transcode

import (
	"errors"

	"github.com/asticode/go-astiav"

	"reorient/internal/services"
)

type frameDecoder interface {
	SendPacket(*astiav.Packet) error
	ReceiveFrame(*astiav.Frame) error
}

type frameEncoder interface {
	SendFrame(*astiav.Frame) error
	ReceivePacket(*astiav.Packet) error
}

type frameFilter interface {
	SendFrame(*astiav.Frame) error
	SendEOF() error
	ReceiveFrame(*astiav.Frame) error
	TimeBase() astiav.Rational
}

type packetWriter interface {
	WriteInterleavedFrame(*astiav.Packet) error
}

// flushState tracks how far a stream's end-of-stream handling has gone.
type flushState int

const (
	flushOpen flushState = iota
	flushDecoderDrained
	flushEncoderDrained
)

func (s flushState) String() string {
	switch s {
	case flushOpen:
		return "open"
	case flushDecoderDrained:
		return "decoder drained"
	case flushEncoderDrained:
		return "encoder drained"
	default:
		return "unknown"
	}
}

// pipe drives one decoded stream through decode → filter → encode → mux.
// inTB is the input stream, decoder and encoder time base.
type pipe struct {
	id      StreamID
	decoder frameDecoder
	filter  frameFilter
	encoder frameEncoder
	writer  packetWriter
	inTB    astiav.Rational
	outTB   astiav.Rational
	state   flushState
	stats   *StreamStats

	decoded  *astiav.Frame
	filtered *astiav.Frame
	encoded  *astiav.Packet
}

func newPipe(id StreamID, dec frameDecoder, filter frameFilter, enc frameEncoder, w packetWriter, inTB, outTB astiav.Rational, stats *StreamStats) *pipe {
	return &pipe{
		id:       id,
		decoder:  dec,
		filter:   filter,
		encoder:  enc,
		writer:   w,
		inTB:     inTB,
		outTB:    outTB,
		stats:    stats,
		decoded:  astiav.AllocFrame(),
		filtered: astiav.AllocFrame(),
		encoded:  astiav.AllocPacket(),
	}
}

func (p *pipe) close() {
	p.decoded.Free()
	p.filtered.Free()
	p.encoded.Free()
}

func (p *pipe) codecErr(op string, err error) error {
	return services.Wrap(services.ErrCodec, "pump", op, p.id.String(), err)
}

func (p *pipe) orderErr(op string) error {
	return services.Wrap(services.ErrFlushOrder, "flush", op, p.id.String()+" is "+p.state.String(), nil)
}

// DecodePacket feeds pkt to the decoder and pushes every frame it yields
// into the filter. A decoder that is full is drained once and the packet
// sent again.
func (p *pipe) DecodePacket(pkt *astiav.Packet) error {
	if p.state != flushOpen {
		return p.orderErr("decode packet")
	}
	p.stats.PacketsIn++
	err := p.decoder.SendPacket(pkt)
	if errors.Is(err, astiav.ErrEagain) {
		if err := p.drainDecoder(); err != nil {
			return err
		}
		err = p.decoder.SendPacket(pkt)
	}
	if err != nil {
		return p.codecErr("send packet", err)
	}
	return p.drainDecoder()
}

// SendEOFDecoder flushes the decoder into the filter and then closes the
// filter input so frames held by the graph become available.
func (p *pipe) SendEOFDecoder() error {
	if p.state != flushOpen {
		return p.orderErr("send decoder eof")
	}
	if err := p.decoder.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		return p.codecErr("send decoder eof", err)
	}
	if err := p.drainDecoder(); err != nil {
		return err
	}
	if err := p.filter.SendEOF(); err != nil {
		return p.codecErr("send filter eof", err)
	}
	p.state = flushDecoderDrained
	return nil
}

func (p *pipe) drainDecoder() error {
	for {
		if err := p.decoder.ReceiveFrame(p.decoded); err != nil {
			if isDrained(err) {
				return nil
			}
			return p.codecErr("receive frame", err)
		}
		p.stats.FramesDecoded++
		if p.decoded.Pts() == astiav.NoPtsValue {
			p.decoded.SetPts(p.decoded.PktDts())
		}
		err := p.filter.SendFrame(p.decoded)
		p.decoded.Unref()
		if err != nil {
			return p.codecErr("send frame to filter", err)
		}
	}
}

// ApplyFilter moves every frame the graph has ready into the encoder.
func (p *pipe) ApplyFilter() error {
	for {
		if err := p.filter.ReceiveFrame(p.filtered); err != nil {
			if isDrained(err) {
				return nil
			}
			return p.codecErr("receive filtered frame", err)
		}
		if p.state == flushEncoderDrained {
			p.filtered.Unref()
			return p.orderErr("encode frame")
		}
		if pts := p.filtered.Pts(); pts != astiav.NoPtsValue {
			p.filtered.SetPts(astiav.RescaleQ(pts, p.filter.TimeBase(), p.inTB))
		}
		p.filtered.SetPictureType(astiav.PictureTypeNone)
		err := p.encoder.SendFrame(p.filtered)
		p.filtered.Unref()
		if err != nil {
			return p.codecErr("send frame to encoder", err)
		}
		p.stats.FramesEncoded++
	}
}

// EncodePackets writes every packet the encoder has ready.
func (p *pipe) EncodePackets() error {
	for {
		if err := p.encoder.ReceivePacket(p.encoded); err != nil {
			if isDrained(err) {
				return nil
			}
			return p.codecErr("receive packet", err)
		}
		p.encoded.SetStreamIndex(int(p.id))
		p.encoded.RescaleTs(p.inTB, p.outTB)
		err := p.writer.WriteInterleavedFrame(p.encoded)
		p.encoded.Unref()
		if err != nil {
			return services.Wrap(services.ErrMux, "pump", "write packet", p.id.String(), err)
		}
		p.stats.PacketsOut++
	}
}

// SendEOFEncoder signals end of stream to the encoder. Callers still have to
// run ApplyFilter and EncodePackets to collect what it held.
func (p *pipe) SendEOFEncoder() error {
	if p.state != flushDecoderDrained {
		return p.orderErr("send encoder eof")
	}
	if err := p.encoder.SendFrame(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		return p.codecErr("send encoder eof", err)
	}
	p.state = flushEncoderDrained
	return nil
}

// flush runs the double drain for one stream.
func (p *pipe) flush() error {
	steps := []func() error{
		p.SendEOFDecoder, p.ApplyFilter, p.EncodePackets,
		p.SendEOFEncoder, p.ApplyFilter, p.EncodePackets,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func isDrained(err error) bool {
	return errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof)
}
