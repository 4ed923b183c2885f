package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RobertBroersma/dmx-hackathon/internal/color"
	"github.com/RobertBroersma/dmx-hackathon/internal/config"
	"github.com/RobertBroersma/dmx-hackathon/internal/dmx"
	"github.com/RobertBroersma/dmx-hackathon/internal/transport"
)

var openTransport = transport.Open

func newTestCmd(opts *options) *cobra.Command {
	var hex string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Open the DMX interface and send one frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			c, err := color.Parse(hex)
			if err != nil {
				return err
			}

			packets, err := testConnection(cfg, c)
			if err != nil {
				return fmt.Errorf("connection test failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Connection test successful! Sent %s in %d packets.\n", c.Hex(), packets)

			return nil
		},
	}

	cmd.Flags().StringVar(&hex, "color", "#000000", "Color to send")

	return cmd
}

// testConnection opens the configured device and transmits a single frame
// with c on the configured channels.
func testConnection(cfg *config.Config, c color.Color) (int, error) {
	tr, err := openTransport(cfg.Device)
	if err != nil {
		return 0, err
	}
	defer tr.Close()

	frame := dmx.NewFrame()
	if err := frame.SetChannels(cfg.DMX.StartChannel, c.R, c.G, c.B); err != nil {
		return 0, err
	}

	packets := 0

	encoder := dmx.NewEncoder(tr)
	encoder.SetObserver(func(dmx.PacketType) { packets++ })

	if err := encoder.Transmit(frame); err != nil {
		return packets, err
	}

	return packets, nil
}
