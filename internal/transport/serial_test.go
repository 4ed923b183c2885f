package transport

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/RobertBroersma/dmx-hackathon/internal/config"
)

// MockPort implements a mock serial port for testing.
type MockPort struct {
	writeError error
	writeData  []byte
	closed     bool
}

func (m *MockPort) Write(data []byte) (int, error) {
	if m.writeError != nil {
		return 0, m.writeError
	}

	m.writeData = append(m.writeData, data...)

	return len(data), nil
}

func (m *MockPort) Read(buffer []byte) (int, error)            { return 0, errors.New("not readable") }
func (m *MockPort) Close() error                               { m.closed = true; return nil }
func (m *MockPort) SetReadTimeout(timeout time.Duration) error { return nil }
func (m *MockPort) Break(d time.Duration) error                { return nil }
func (m *MockPort) SetMode(mode *serial.Mode) error            { return nil }
func (m *MockPort) SetDTR(dtr bool) error                      { return nil }
func (m *MockPort) SetRTS(rts bool) error                      { return nil }
func (m *MockPort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}
func (m *MockPort) Drain() error             { return nil }
func (m *MockPort) ResetInputBuffer() error  { return nil }
func (m *MockPort) ResetOutputBuffer() error { return nil }

func TestNewSerial(t *testing.T) {
	cfg := config.DefaultConfig().Device
	cfg.BaudRate = 250000

	s := NewSerial(cfg)

	if s.mode.BaudRate != 250000 {
		t.Errorf("NewSerial() baud rate = %d, want 250000", s.mode.BaudRate)
	}

	if s.port != nil {
		t.Error("NewSerial() should not have an active port connection")
	}
}

func TestSerialWrite(t *testing.T) {
	tests := []struct {
		writeError  error
		name        string
		expectError bool
	}{
		{name: "successful write"},
		{name: "write error", writeError: errors.New("write failed"), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPort := &MockPort{writeError: tt.writeError}
			s := NewSerial(config.DefaultConfig().Device)
			s.port = mockPort

			packet := []byte{0x03, 200, 0, 0, 0, 0, 0, 0}

			n, err := s.Write(packet)
			if tt.expectError {
				if !errors.Is(err, tt.writeError) {
					t.Errorf("Write() error = %v, want %v", err, tt.writeError)
				}

				return
			}

			if err != nil || n != len(packet) {
				t.Fatalf("Write() = %d, %v", n, err)
			}

			if !bytes.Equal(mockPort.writeData, packet) {
				t.Errorf("written = %v, want %v", mockPort.writeData, packet)
			}
		})
	}
}

func TestSerialNotConnected(t *testing.T) {
	s := NewSerial(config.DefaultConfig().Device)

	if _, err := s.Write([]byte{0x02}); err == nil {
		t.Error("Write() without a port should fail")
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close() without a port = %v", err)
	}
}

func TestSerialClose(t *testing.T) {
	mockPort := &MockPort{}
	s := NewSerial(config.DefaultConfig().Device)
	s.port = mockPort

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !mockPort.closed || s.port != nil {
		t.Error("Close() should close and forget the port")
	}
}

func TestPickPort(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0", IsUSB: false},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "10CF", PID: "8062"},
	}

	tests := []struct {
		name    string
		ports   []*enumerator.PortDetails
		vid     uint16
		pid     uint16
		want    string
		wantErr bool
	}{
		{name: "matches ids case-insensitively", ports: ports, vid: 0x10cf, pid: 0x8062, want: "/dev/ttyUSB1"},
		{name: "falls back to first USB port", ports: ports, vid: 0x1234, pid: 0x5678, want: "/dev/ttyUSB0"},
		{name: "no USB ports", ports: ports[:1], wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickPort(tt.ports, tt.vid, tt.pid)
			if (err != nil) != tt.wantErr {
				t.Fatalf("pickPort() error = %v, wantErr %v", err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("pickPort() = %q, want %q", got, tt.want)
			}
		})
	}
}
