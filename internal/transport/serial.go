package transport

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/RobertBroersma/dmx-hackathon/internal/config"
	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
)

// Serial sends packets to a USB-serial DMX bridge.
type Serial struct {
	port      serial.Port
	portName  string
	mode      *serial.Mode
	vendorID  uint16
	productID uint16
	logger    *logging.Logger
}

func NewSerial(c config.DeviceConfig) *Serial {
	return &Serial{
		mode: &serial.Mode{
			BaudRate: c.BaudRate,
		},
		vendorID:  c.VendorID,
		productID: c.ProductID,
		logger:    logging.WithComponent("transport"),
	}
}

// DiscoverPort picks the USB serial port matching the configured vendor and
// product IDs, falling back to the first USB port.
func (s *Serial) DiscoverPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to enumerate ports: %w", err)
	}

	if len(ports) == 0 {
		return "", fmt.Errorf("no serial ports found")
	}

	return pickPort(ports, s.vendorID, s.productID)
}

func pickPort(ports []*enumerator.PortDetails, vid, pid uint16) (string, error) {
	wantVID := fmt.Sprintf("%04x", vid)
	wantPID := fmt.Sprintf("%04x", pid)

	var firstUSB string
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}

		if strings.EqualFold(port.VID, wantVID) && strings.EqualFold(port.PID, wantPID) {
			return port.Name, nil
		}

		if firstUSB == "" {
			firstUSB = port.Name
		}
	}

	if firstUSB == "" {
		return "", fmt.Errorf("no USB serial port found")
	}

	return firstUSB, nil
}

func (s *Serial) Connect(portName string) error {
	if portName == "" {
		discoveredPort, err := s.DiscoverPort()
		if err != nil {
			return fmt.Errorf("failed to discover port: %w", err)
		}
		portName = discoveredPort
	}

	port, err := serial.Open(portName, s.mode)
	if err != nil {
		return fmt.Errorf("failed to open port %s: %w", portName, err)
	}

	s.port = port
	s.portName = portName
	s.logger.Info("connected to DMX bridge", "port", portName, "baud_rate", s.mode.BaudRate)

	return nil
}

func (s *Serial) Write(p []byte) (int, error) {
	if s.port == nil {
		return 0, fmt.Errorf("not connected to any port")
	}

	n, err := s.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write packet: %w", err)
	}

	return n, nil
}

func (s *Serial) Name() string {
	return "serial:" + s.portName
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}

	err := s.port.Close()
	s.port = nil
	return err
}
