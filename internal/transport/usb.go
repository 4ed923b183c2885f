package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/RobertBroersma/dmx-hackathon/internal/config"
	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
)

type outEndpoint interface {
	WriteContext(ctx context.Context, buf []byte) (int, error)
}

// USB writes packets to an interrupt/bulk OUT endpoint through libusb.
type USB struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	cfg     *gousb.Config
	intf    *gousb.Interface
	ep      outEndpoint
	name    string
	timeout time.Duration
}

// OpenUSB finds the interface by vendor and product ID, detaches any kernel
// driver, selects the configuration and claims the OUT endpoint.
func OpenUSB(c config.DeviceConfig) (*USB, error) {
	logger := logging.WithComponent("transport")
	u := &USB{
		ctx:     gousb.NewContext(),
		name:    fmt.Sprintf("usb:%04x:%04x", c.VendorID, c.ProductID),
		timeout: c.Timeout,
	}

	dev, err := u.ctx.OpenDeviceWithVIDPID(gousb.ID(c.VendorID), gousb.ID(c.ProductID))
	if err != nil {
		u.Close()
		return nil, fmt.Errorf("failed to open %s: %w", u.name, err)
	}
	if dev == nil {
		u.Close()
		return nil, fmt.Errorf("device %s not found", u.name)
	}
	u.dev = dev

	if err := dev.SetAutoDetach(true); err != nil {
		u.Close()
		return nil, fmt.Errorf("kernel driver won't give up control over %s: %w", u.name, err)
	}

	if c.Reset {
		if err := dev.Reset(); err != nil {
			u.Close()
			return nil, fmt.Errorf("failed to reset %s: %w", u.name, err)
		}
	}

	u.cfg, err = dev.Config(c.Config)
	if err != nil {
		u.Close()
		return nil, fmt.Errorf("cannot set configuration %d on %s: %w", c.Config, u.name, err)
	}

	u.intf, err = u.cfg.Interface(c.Interface, 0)
	if err != nil {
		u.Close()
		return nil, fmt.Errorf("cannot claim interface %d on %s: %w", c.Interface, u.name, err)
	}

	ep, err := u.intf.OutEndpoint(c.Endpoint)
	if err != nil {
		u.Close()
		return nil, fmt.Errorf("no OUT endpoint %d on %s: %w", c.Endpoint, u.name, err)
	}
	u.ep = ep

	logger.Info("opened DMX interface", "device", u.name, "endpoint", c.Endpoint)

	return u, nil
}

// Write sends one packet. A zero timeout waits indefinitely.
func (u *USB) Write(p []byte) (int, error) {
	if u.ep == nil {
		return 0, fmt.Errorf("%s is not open", u.name)
	}

	ctx := context.Background()
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	n, err := u.ep.WriteContext(ctx, p)
	if err != nil {
		return n, fmt.Errorf("usb write: %w", err)
	}

	return n, nil
}

func (u *USB) Name() string {
	return u.name
}

// Close releases the interface, configuration, device and libusb context,
// in that order. It is safe on a partially opened handle.
func (u *USB) Close() error {
	var firstErr error

	if u.intf != nil {
		u.intf.Close()
		u.intf = nil
	}

	if u.cfg != nil {
		if err := u.cfg.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		u.cfg = nil
	}

	if u.dev != nil {
		if err := u.dev.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		u.dev = nil
	}

	if u.ctx != nil {
		if err := u.ctx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		u.ctx = nil
	}

	u.ep = nil

	return firstErr
}
