package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pipelined/subsim"
	"github.com/pipelined/subsim/config"
	"github.com/pipelined/subsim/encode"
	"github.com/pipelined/subsim/input"
	"github.com/pipelined/subsim/log"
	"github.com/pipelined/subsim/projector"
	"github.com/pipelined/subsim/signal"
	"github.com/pipelined/subsim/transport"
	"github.com/pipelined/subsim/view"
	"github.com/pipelined/subsim/wav"
)

// shutdownTimeout limits graceful shutdown of http server.
const shutdownTimeout = 5 * time.Second

type runCommand struct {
	flags *flag.FlagSet

	config   string
	host     string
	width    int
	interval time.Duration
	seed     int64
	truncate string
	record   string
	listen   string
}

func (cmd *runCommand) Name() string {
	return "run"
}

func (cmd *runCommand) Help() string {
	return "Run simulator loop until interrupted"
}

func (cmd *runCommand) Register(fs *flag.FlagSet) {
	cmd.flags = fs
	fs.StringVar(&cmd.config, "config", "", "yaml configuration file, defaults are used if empty")
	fs.StringVar(&cmd.host, "host", transport.DefaultHost, "destination host of both channels")
	fs.IntVar(&cmd.width, "width", subsim.DefaultWidth, "number of raster and trace columns")
	fs.DurationVar(&cmd.interval, "interval", subsim.DefaultInterval, "minimal delay between ticks")
	fs.Int64Var(&cmd.seed, "seed", 0, "projection seed, 0 means random")
	fs.StringVar(&cmd.truncate, "truncate", encode.Wrap.String(), "signal truncation policy: wrap or saturate")
	fs.StringVar(&cmd.record, "record", "", "wav file to record signal")
	fs.StringVar(&cmd.listen, "listen", "", "http view address, empty disables view")
}

// load reads configuration and applies explicitly set flags on top.
func (cmd *runCommand) load() (*config.Config, error) {
	cfg := config.Default()
	if cmd.config != "" {
		var err error
		if cfg, err = config.Load(cmd.config); err != nil {
			return nil, err
		}
	}
	if cmd.flags != nil {
		cmd.flags.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "host":
				cfg.Transport.Host = cmd.host
			case "width":
				cfg.Loop.Width = cmd.width
			case "interval":
				cfg.Loop.Interval = cmd.interval
			case "seed":
				cfg.Projector.Seed = cmd.seed
			case "truncate":
				cfg.Display.Truncate = cmd.truncate
			case "record":
				cfg.Record.Path = cmd.record
			case "listen":
				cfg.View.Listen = cmd.listen
			}
		})
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (cmd *runCommand) Run(ctx context.Context, stdout io.Writer) error {
	cfg, err := cmd.load()
	if err != nil {
		return err
	}
	logger := log.GetLogger()
	logger.SetOutput(stdout)

	t, err := transport.Open(cfg.TransportConfig())
	if err != nil {
		return fmt.Errorf("open transport: %w", err)
	}
	defer t.Close()

	var src rand.Source
	if cfg.Projector.Seed != 0 {
		src = rand.NewSource(cfg.Projector.Seed)
	}
	p := projector.New(cfg.Loop.Channels, len(input.Sample{}), cfg.Projector.SpatialGain, cfg.Projector.NoiseGain, src)

	options := []subsim.Option{
		subsim.WithLogger(logger),
		subsim.WithInterval(cfg.Loop.Interval),
		subsim.WithWidth(cfg.Loop.Width),
		subsim.WithDisplayGain(cfg.Display.Gain),
		subsim.WithTruncate(cfg.TruncatePolicy()),
	}
	if cfg.Record.Path != "" {
		sink, err := wav.NewSink(cfg.Record.Path, signal.BitDepth(cfg.Record.BitDepth))
		if err != nil {
			return err
		}
		options = append(options, subsim.WithSinks(sink))
	}

	var (
		l      *subsim.Loop
		source input.Source
		v      *view.View
	)
	if cfg.View.Listen != "" {
		v = view.New(
			view.WithLogger(logger),
			view.WithConnector(view.ConnectorFunc(func(host string) error {
				return l.Connect(host)
			})),
		)
		source = v
		options = append(options, subsim.WithRenderer(v))
	}
	if l, err = subsim.New(source, p, t, options...); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"loop":     l.ID(),
		"input":    t.Destination(transport.Input),
		"signal":   t.Destination(transport.Signal),
		"channels": cfg.Loop.Channels,
		"min":      p.Min(),
		"max":      p.Max(),
	}).Info("subsim started")

	ctx, stop := ossignal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.Run(ctx)
	})
	if v != nil {
		srv := &http.Server{Addr: cfg.View.Listen, Handler: v}
		g.Go(func() error {
			logger.Infof("view listening on http://%s", cfg.View.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}
