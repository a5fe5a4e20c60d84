// Package transcode rotates a single media file.
//
// A Source demuxes the input and owns one decoder per video stream. A
// Destination owns the output muxer, one H.264 encoder and one rotation
// Filter per decoded stream, and plain copy parameters for every other
// stream. The Pipeline ties the two together and moves through
// Open → WriteHeader → Configure → PumpPackets → WriteTrailer; each step
// returns the next state so steps cannot be skipped or repeated.
//
// Timestamps cross three domains: the input stream time base, the filter
// graph time base and the output stream time base. Output time bases are
// only known once the header has been committed, which is why Configure
// exists as its own step.
package transcode
