package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bootrtc/core"
	"bootrtc/host/device"
)

var (
	liveDelta bool
	syncEpoch int64
)

var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Print the device RTC time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *device.Client) error {
			t, err := client.Now(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (epoch %d)\n", core.FormatDateTime(t), t.Unix())
			return nil
		})
	},
}

var deltaCmd = &cobra.Command{
	Use:   "delta",
	Short: "Print seconds between the previous boot and this one",
	Long:  "Print the boot delta computed at power-up, or with --live the time elapsed since the previous boot marker right now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *device.Client) error {
			var (
				d   core.Delta
				err error
			)
			if liveDelta {
				d, err = client.RecomputeDelta(ctx)
			} else {
				d, err = client.BootDelta(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeDelta(d))
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print RTC presence and boot marker",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *device.Client) error {
			st, err := client.Status(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "connected:     %t\n", st.Connected)
			if st.PreviousBoot == 0 {
				fmt.Fprintln(out, "previous boot: none")
			} else {
				prev := time.Unix(int64(st.PreviousBoot), 0)
				fmt.Fprintf(out, "previous boot: %s (epoch %d)\n", core.FormatDateTime(prev.UTC()), st.PreviousBoot)
			}
			fmt.Fprintf(out, "boot delta:    %s\n", describeDelta(st.BootDelta))
			return nil
		})
	},
}

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run the device maintenance hook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *device.Client) error {
			ok, err := client.Tick(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated: %t\n", ok)
			return nil
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Set the device RTC from this host's clock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(cmd, func(ctx context.Context, client *device.Client) error {
			target := time.Now().UTC()
			if cmd.Flags().Changed("epoch") {
				target = time.Unix(syncEpoch, 0).UTC()
			}
			if err := client.SetTime(ctx, target); err != nil {
				return err
			}
			logger.Info().Time("time", target).Msg("device RTC set")

			got, err := client.Now(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "device now %s, skew %s\n",
				core.FormatDateTime(got), got.Sub(target.Truncate(time.Second)))
			return nil
		})
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print every line the device sends until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := openPort()
		if err != nil {
			return err
		}
		defer port.Close()

		out := cmd.OutOrStdout()
		err = device.Monitor(cmd.Context(), port, func(line string) {
			fmt.Fprintln(out, line)
		})
		if cmd.Context().Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	deltaCmd.Flags().BoolVar(&liveDelta, "live", false, "recompute against the current RTC reading")
	syncCmd.Flags().Int64Var(&syncEpoch, "epoch", 0, "set this Unix time instead of the host clock")

	rootCmd.AddCommand(nowCmd, deltaCmd, statusCmd, tickCmd, syncCmd, monitorCmd)
}

func describeDelta(d core.Delta) string {
	secs, ok := d.Seconds()
	if !ok {
		return "unknown"
	}
	dur := time.Duration(secs) * time.Second
	return strconv.FormatInt(int64(secs), 10) + "s (" + dur.String() + ")"
}
