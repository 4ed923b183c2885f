package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/RobertBroersma/dmx-hackathon/internal/api"
)

// apiClient talks to a running daemon.
type apiClient struct {
	http    *http.Client
	baseURL string
}

func (o *options) client() (*apiClient, *configView, error) {
	cfg, _, err := o.load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	base := cfg.API.Listen
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	return &apiClient{
		http:    &http.Client{Timeout: 5 * time.Minute},
		baseURL: strings.TrimRight(base, "/"),
	}, &configView{defaultEase: cfg.Animation.DefaultEase}, nil
}

// configView is what the client commands need from the config.
type configView struct {
	defaultEase string
}

func (c *apiClient) do(method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}

		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}

	return json.Unmarshal(data, out)
}

func newAnimateCmd(opts *options) *cobra.Command {
	var (
		duration float64
		easeName string
	)

	cmd := &cobra.Command{
		Use:   "animate <#RRGGBB>",
		Short: "Fade the running daemon to a color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, view, err := opts.client()
			if err != nil {
				return err
			}

			if easeName == "" {
				easeName = view.defaultEase
			}

			var resp api.ColorResponse
			if err := client.do(http.MethodPost, "/animate", map[string]any{
				"color":    args[0],
				"duration": duration,
				"ease":     easeName,
			}, &resp); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Color)

			return nil
		},
	}

	cmd.Flags().Float64VarP(&duration, "duration", "d", 300, "Fade duration in milliseconds")
	cmd.Flags().StringVarP(&easeName, "ease", "e", "", "Easing curve (defaults to animation.default_ease)")

	return cmd
}

func newToggleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Switch the fixture off, or back on to its last color",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := opts.client()
			if err != nil {
				return err
			}

			var resp api.ColorResponse
			if err := client.do(http.MethodPost, "/toggle", nil, &resp); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Color)

			return nil
		},
	}
}

func newColorCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "color",
		Short: "Show the current color of the running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := opts.client()
			if err != nil {
				return err
			}

			var resp api.ColorResponse
			if err := client.do(http.MethodGet, "/color", nil, &resp); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Color)

			return nil
		},
	}
}

func newEasesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "eases",
		Short: "List the easing curves the daemon accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := opts.client()
			if err != nil {
				return err
			}

			var names []string
			if err := client.do(http.MethodGet, "/eases", nil, &names); err != nil {
				return err
			}

			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}

			return nil
		},
	}
}
