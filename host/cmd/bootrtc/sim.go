package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bootrtc/core"
	"bootrtc/host/filestore"
	"bootrtc/host/hostrtc"
)

var (
	simClock   string
	simStore   string
	simConsole bool
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the boot clock on this host",
	Long: "Initialize a boot clock backed by this host's clock and a preferences file, " +
		"print the boot delta, and optionally serve the device console on stdin/stdout",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("clock") {
			cfg.Sim.Clock = simClock
		}
		if cmd.Flags().Changed("store") {
			cfg.Sim.StorePath = simStore
		}

		bc := newSimBootClock(cfg.Sim.Clock, cfg.Sim.StorePath, logger)
		if !bc.Initialize() {
			logger.Warn().Str("clock", cfg.Sim.Clock).Msg("no RTC, running with placeholder time")
		}

		if simConsole {
			return serveConsole(bc, cmd.InOrStdin(), cmd.OutOrStdout())
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "now:        %s\n", bc.FormatNow())
		fmt.Fprintf(out, "boot delta: %s\n", describeDelta(bc.BootDelta()))
		return nil
	},
}

func init() {
	simCmd.Flags().StringVar(&simClock, "clock", "", `"system" or an RTC device such as /dev/rtc0`)
	simCmd.Flags().StringVar(&simStore, "store", "", "preferences file holding the boot marker")
	simCmd.Flags().BoolVar(&simConsole, "console", false, "serve console commands on stdin/stdout")

	rootCmd.AddCommand(simCmd)
}

// newSimBootClock builds a BootClock whose diagnostics go to logger
func newSimBootClock(clockName, storePath string, logger zerolog.Logger) *core.BootClock {
	var clock core.ClockDriver
	if clockName == "system" {
		clock = hostrtc.NewSystemClock(nil)
	} else {
		clock = hostrtc.NewDevRTC(clockName)
	}

	return core.NewBootClock(clock, filestore.New(storePath), func(msg string) {
		logger.Info().Msg(msg)
	})
}

// serveConsole answers console commands exactly as the firmware does
func serveConsole(bc *core.BootClock, in io.Reader, out io.Writer) error {
	console := core.NewConsole()
	core.InitBootClockCommands(console, bc)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if reply := console.Dispatch(scanner.Text()); reply != "" {
			fmt.Fprintln(out, reply)
		}
	}
	return scanner.Err()
}
