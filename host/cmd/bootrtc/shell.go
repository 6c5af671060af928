package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"bootrtc/host/device"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive console session with the device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := openDevice()
		if err != nil {
			return err
		}
		defer client.Close()

		return runShell(cmd.Context(), client, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// querier is the part of device.Client the shell needs
type querier interface {
	Query(ctx context.Context, command string) (device.Reply, error)
}

// runShell reads commands from in until EOF or quit. Each line is split
// shell-style so quoted arguments survive, then sent to the device.
func runShell(ctx context.Context, client querier, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Enter commands (type 'help' for device commands, 'quit' to exit):")
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		parts, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "parse error: %v\n", err)
			continue
		}
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		qctx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout.Std())
		reply, err := client.Query(qctx, strings.Join(parts, " "))
		cancel()

		var devErr *device.Error
		switch {
		case errors.As(err, &devErr):
			fmt.Fprintf(out, "error: %s\n", devErr.Message)
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
		default:
			fmt.Fprintln(out, reply.Raw)
		}
	}

	return scanner.Err()
}
