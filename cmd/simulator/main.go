// Command simulator plays an animation against the in-memory DMX interface
// and prints every frame the interface decoded, as a hex color and a
// terminal swatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/RobertBroersma/dmx-hackathon/internal/animation"
	"github.com/RobertBroersma/dmx-hackathon/internal/color"
	"github.com/RobertBroersma/dmx-hackathon/internal/config"
	"github.com/RobertBroersma/dmx-hackathon/internal/controller"
	"github.com/RobertBroersma/dmx-hackathon/internal/dmx"
	"github.com/RobertBroersma/dmx-hackathon/internal/transport"
)

type simulation struct {
	from       string
	to         string
	ease       string
	durationMS float64
	fps        int
	channel    int
	pace       bool
	swatch     bool
	graph      bool
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		sim        simulation
	)

	flag.StringVar(&sim.from, "from", "#000000", "Start color")
	flag.StringVar(&sim.to, "to", "#C16D78", "End color")
	flag.StringVar(&sim.ease, "ease", "", "Easing curve (defaults to animation.default_ease)")
	flag.Float64Var(&sim.durationMS, "duration", 1000, "Animation length in milliseconds")
	flag.IntVar(&sim.fps, "fps", 0, "Frames per second (defaults to animation.fps)")
	flag.BoolVar(&sim.pace, "pace", true, "Wait one frame interval between frames")
	flag.BoolVar(&sim.swatch, "swatch", true, "Print a 24-bit color swatch per frame")
	flag.BoolVar(&sim.graph, "graph", true, "Plot the decoded channels after playback")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error

		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	if sim.ease == "" {
		sim.ease = cfg.Animation.DefaultEase
	}

	if sim.fps <= 0 {
		sim.fps = cfg.Animation.FPS
	}

	sim.channel = cfg.DMX.StartChannel

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := sim.run(ctx, os.Stdout); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}
}

// run animates from -> to through a controller wired to a simulated
// interface and prints what the interface received after every frame.
func (s simulation) run(ctx context.Context, w io.Writer) error {
	from, err := color.Parse(s.from)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}

	to, err := color.Parse(s.to)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	if limit := controller.DefaultMaxDuration; s.durationMS > float64(limit.Milliseconds()) {
		return fmt.Errorf("duration %.0fms exceeds the %v limit", s.durationMS, limit)
	}

	device := transport.NewSimulator()
	defer device.Close()

	engine := animation.NewEngine(s.fps, s.pace)
	handler := controller.NewHandler(controller.Config{StartChannel: s.channel}, dmx.NewEncoder(device), engine)

	seq, err := handler.GenerateAnimation(from, to, s.durationMS, &s.ease)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "DMX simulator: %s -> %s, %s, %.0fms at %d fps (%d frames)\n\n",
		from.Hex(), to.Hex(), s.ease, s.durationMS, engine.FPS(), len(seq))

	began := time.Now()
	frame := 0
	decoded := make([][]float64, 3)

	err = engine.Play(ctx, seq, func(c color.Color) error {
		if err := handler.SetLED(c); err != nil {
			return err
		}

		channels := device.Channels()
		got := color.New(
			int(channels[s.channel-1]),
			int(channels[s.channel]),
			int(channels[s.channel+1]),
		)

		frame++
		printFrame(w, frame, got, s.swatch)

		decoded[0] = append(decoded[0], float64(got.R))
		decoded[1] = append(decoded[1], float64(got.G))
		decoded[2] = append(decoded[2], float64(got.B))

		if got != c {
			return fmt.Errorf("frame %d: device decoded %s, sent %s", frame, got.Hex(), c.Hex())
		}

		return nil
	})
	if err != nil {
		return err
	}

	packets, frames := device.Stats()
	fmt.Fprintf(w, "\n%d frames, %d packets in %v\n", frames, packets, time.Since(began).Round(time.Millisecond))

	if s.graph && frame > 1 {
		fmt.Fprintf(w, "\n%s\n", plotChannels(decoded))
	}

	return nil
}

// plotChannels draws the red, green and blue series in their own colors.
func plotChannels(series [][]float64) string {
	return asciigraph.PlotMany(series,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue),
		asciigraph.Caption("decoded channels (R, G, B)"))
}

func printFrame(w io.Writer, n int, c color.Color, swatch bool) {
	if !swatch {
		fmt.Fprintf(w, "frame %3d  %s\n", n, c.Hex())
		return
	}

	fmt.Fprintf(w, "frame %3d  %s  \x1b[48;2;%d;%d;%dm      \x1b[0m\n", n, c.Hex(), c.R, c.G, c.B)
}
