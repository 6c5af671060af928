// Command bootrtc queries bootrtc firmware over USB serial and can run the
// boot clock on the host itself.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bootrtc/host/config"
	"bootrtc/host/device"
	"bootrtc/host/serial"
)

var (
	configPath string
	deviceFlag string
	baudFlag   int
	timeout    time.Duration
	verbose    bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "bootrtc",
	Short:         "Boot clock host tool",
	Long:          "Read the RTC and boot delta of a bootrtc device, set its clock, or simulate it on this host",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("device") {
			loaded.Device = deviceFlag
		}
		if cmd.Flags().Changed("baud") {
			loaded.Baud = baudFlag
		}
		if cmd.Flags().Changed("timeout") {
			loaded.QueryTimeout = config.Duration(timeout)
		}
		if verbose {
			loaded.LogLevel = "debug"
		}
		cfg = loaded
		logger = newLogger(os.Stderr, cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "configuration file")
	rootCmd.PersistentFlags().StringVarP(&deviceFlag, "device", "d", config.DefaultDevice, "serial device path")
	rootCmd.PersistentFlags().IntVar(&baudFlag, "baud", config.DefaultBaud, "baud rate (ignored for USB CDC)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", config.DefaultQueryTimeout, "reply timeout per command")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bootrtc.toml"
	}
	return filepath.Join(dir, "bootrtc", "bootrtc.toml")
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// openPort opens the configured serial port with stale input discarded
func openPort() (serial.Port, error) {
	port, err := serial.Open(&serial.Config{
		Device:      cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout.Std(),
	})
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		logger.Debug().Err(err).Msg("flush serial input")
	}
	return port, nil
}

// openDevice connects to the configured serial port. Device diagnostics
// are forwarded to the logger.
func openDevice() (*device.Client, error) {
	port, err := openPort()
	if err != nil {
		return nil, err
	}

	client := device.NewClient(port, logger)
	client.OnLog(func(line string) {
		logger.Info().Str("device", cfg.Device).Msg(line)
	})
	return client, nil
}

// withDevice runs fn with a connected client and a per-command timeout
func withDevice(cmd *cobra.Command, fn func(ctx context.Context, client *device.Client) error) error {
	client, err := openDevice()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.QueryTimeout.Std())
	defer cancel()
	return fn(ctx, client)
}
