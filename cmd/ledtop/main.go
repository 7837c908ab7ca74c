package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/mutker/ledtop/internal/config"
	"codeberg.org/mutker/ledtop/internal/display"
	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/gpu"
	"codeberg.org/mutker/ledtop/internal/info"
	"codeberg.org/mutker/ledtop/internal/logger"
	"codeberg.org/mutker/ledtop/internal/openrgb"
	"codeberg.org/mutker/ledtop/internal/pid"
	"codeberg.org/mutker/ledtop/internal/telemetry"
)

// Version info set via ldflags at build time:
//
//	go build -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.ErrorWithCode(err).Msg("ledtop failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		showInfo bool
		format   string
	)

	cmd := &cobra.Command{
		Use:           "ledtop",
		Short:         "Show CPU, memory and temperature on RGB LEDs",
		Long:          "ledtop renders live system load onto OpenRGB LED zones, like htop on your case lighting.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.WithFlags(cmd.Flags()))
			if err != nil {
				return err
			}

			logger.Init(cfg.LogLevel.String(), logger.IsService())
			logger.Debug().Str("file", cfg.File).Bool("found", cfg.FileFound).Msg("Config loaded")

			if showInfo {
				return runInfo(cmd.Context(), cfg, info.Format(format), cmd.OutOrStdout())
			}
			return run(cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&showInfo, "info", false, "List LED devices, zones and temperature sensors, then exit")
	cmd.Flags().StringVar(&format, "format", string(info.FormatText), "Output format for --info (text, yaml)")

	return cmd
}

func run(cfg *config.Config) error {
	errFactory := errors.New()

	if err := cfg.RequireDisplays(); err != nil {
		return err
	}

	lock := pid.New()
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.ErrorWithCode(err).Msg("Failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel)

	sampler, err := newSampler(cfg)
	if err != nil {
		return err
	}
	defer closeSampler(sampler)

	client, err := openrgb.Connect(ctx, cfg.Host, cfg.Port, cfg.ClientName)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer client.Close()

	driver, err := display.New(cfg, client, sampler)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}

	logger.Info().Msgf("Rendering %d displays on %d zones every %v", len(cfg.Displays()), driver.Zones(), cfg.IntervalDuration())

	if err := driver.Run(ctx); err != nil {
		cleanup(driver)
		return errFactory.Wrap(errors.ErrMainLoop, err)
	}

	cleanup(driver)
	return nil
}

func runInfo(ctx context.Context, cfg *config.Config, format info.Format, out io.Writer) error {
	errFactory := errors.New()

	sampler, err := newSampler(cfg)
	if err != nil {
		return err
	}
	defer closeSampler(sampler)

	client, err := openrgb.Connect(ctx, cfg.Host, cfg.Port, cfg.ClientName)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer client.Close()

	devices, err := client.Devices()
	if err != nil {
		return errFactory.Wrap(errors.ErrHardwareIO, err)
	}

	return info.Build(devices, sampler.Temperatures(ctx)).Write(out, format)
}

// newSampler builds the telemetry sampler, adding GPU sensors when NVML
// is enabled and available.
func newSampler(cfg *config.Config) (telemetry.Sampler, error) {
	var opts []telemetry.Option

	if cfg.NVML {
		g, err := gpu.New()
		if err != nil {
			logger.Debug().Err(err).Msg("NVML unavailable, GPU temperatures disabled")
		} else {
			opts = append(opts, telemetry.WithGPU(g))
		}
	}

	sampler, err := telemetry.NewService(telemetry.Config{Interval: cfg.IntervalDuration()}, opts...)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrInitApp, err)
	}

	return sampler, nil
}

func closeSampler(sampler telemetry.Sampler) {
	if err := sampler.Close(); err != nil {
		logger.ErrorWithCode(err).Msg("Failed to close telemetry")
	}
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}

func cleanup(driver *display.Driver) {
	if err := driver.Off(); err != nil {
		logger.ErrorWithCode(err).Msg("Failed to turn off LEDs")
	}
	logger.Info().Msg("Exiting...")
}
