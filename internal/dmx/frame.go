// Package dmx implements the DMX512 frame buffer and the packet encoding
// spoken by the USB interface.
package dmx

import (
	"fmt"
	"sync"
)

// UniverseSize is the number of channels in a DMX universe.
const UniverseSize = 512

// Frame is the channel state of one universe. Channels are 1-indexed.
type Frame struct {
	mu       sync.RWMutex
	channels [UniverseSize]byte
}

// NewFrame returns a frame with every channel at zero.
func NewFrame() *Frame {
	return &Frame{}
}

// SetChannel sets channel (1..512) to value.
func (f *Frame) SetChannel(channel int, value byte) error {
	if channel < 1 || channel > UniverseSize {
		return fmt.Errorf("channel %d out of range 1..%d", channel, UniverseSize)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.channels[channel-1] = value

	return nil
}

// SetChannels writes values starting at channel.
func (f *Frame) SetChannels(channel int, values ...byte) error {
	if channel < 1 || channel+len(values)-1 > UniverseSize {
		return fmt.Errorf("channels %d..%d out of range 1..%d", channel, channel+len(values)-1, UniverseSize)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	copy(f.channels[channel-1:], values)

	return nil
}

// Channel returns the value of channel (1..512).
func (f *Frame) Channel(channel int) (byte, error) {
	if channel < 1 || channel > UniverseSize {
		return 0, fmt.Errorf("channel %d out of range 1..%d", channel, UniverseSize)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.channels[channel-1], nil
}

// Snapshot returns a copy of all channel values, index 0 being channel 1.
func (f *Frame) Snapshot() [UniverseSize]byte {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.channels
}

// Reset sets every channel to zero.
func (f *Frame) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.channels = [UniverseSize]byte{}
}
