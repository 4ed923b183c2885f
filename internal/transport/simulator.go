package transport

import (
	"errors"
	"sync"

	"github.com/RobertBroersma/dmx-hackathon/internal/dmx"
)

var errClosed = errors.New("transport closed")

// Simulator stands in for the hardware. It decodes every packet the way the
// interface would and keeps the resulting channel state.
type Simulator struct {
	mu      sync.Mutex
	decoder *dmx.Decoder
	packets int
	frames  int
	closed  bool
}

// NewSimulator returns an open simulator with every channel at zero.
func NewSimulator() *Simulator {
	return &Simulator{decoder: dmx.NewDecoder()}
}

// Write decodes p. Malformed packets are reported back as write errors.
func (s *Simulator) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errClosed
	}

	if err := s.decoder.Feed(p); err != nil {
		return 0, err
	}

	if dmx.PacketType(p[0]) == dmx.PacketStart {
		s.frames++
	}
	s.packets++

	return len(p), nil
}

// Channels returns the decoded state, index 0 being channel 1.
func (s *Simulator) Channels() [dmx.UniverseSize]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.decoder.Channels()
}

// Stats returns the number of packets and frames received.
func (s *Simulator) Stats() (packets, frames int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.packets, s.frames
}

func (s *Simulator) Name() string {
	return "simulator"
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
