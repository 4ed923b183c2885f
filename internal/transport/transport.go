// Package transport owns the handle to the DMX interface. Every transport
// accepts whole 8-byte packets through Write; nothing but the encoder
// writes to it.
package transport

import (
	"fmt"
	"io"

	"github.com/RobertBroersma/dmx-hackathon/internal/config"
)

// Transport is a ready, writable device handle.
type Transport interface {
	io.Writer
	io.Closer
	// Name describes the device for logs.
	Name() string
}

// Open opens the transport selected by cfg. It is called once at startup;
// a failure here must stop the daemon.
func Open(cfg config.DeviceConfig) (Transport, error) {
	switch cfg.Transport {
	case config.TransportUSB:
		u, err := OpenUSB(cfg)
		if err != nil {
			return nil, err
		}
		return u, nil
	case config.TransportSerial:
		s := NewSerial(cfg)
		if err := s.Connect(cfg.Port); err != nil {
			return nil, err
		}
		return s, nil
	case config.TransportSimulator:
		return NewSimulator(), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
