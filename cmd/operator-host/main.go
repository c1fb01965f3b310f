// Command operator-host runs a single operator outside of a dataflow daemon.
// Incoming events are read as JSON lines (or websocket text messages) and
// outgoing events are written the same way.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/operator-host/application/schema"
	"github.com/reglet-dev/operator-host/host"
	hostlog "github.com/reglet-dev/operator-host/log"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	logLevel  string
	logFormat string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "operator-host",
		Short:         "Host a single JavaScript or WebAssembly operator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(runCmd(&flags))
	root.AddCommand(validateCmd())
	root.AddCommand(schemaCmd())
	return root
}

// logger builds the stderr logger from the global flags.
func (f *globalFlags) logger() (*slog.Logger, error) {
	level, err := hostlog.ParseLevel(f.logLevel)
	if err != nil {
		return nil, err
	}
	format, err := hostlog.ParseFormat(f.logFormat)
	if err != nil {
		return nil, err
	}
	return slog.New(hostlog.NewHandler(os.Stderr, hostlog.WithLevel(level), hostlog.WithFormat(format))), nil
}

// ─── run ──────────────────────────────────────────────────────────────────────

func runCmd(flags *globalFlags) *cobra.Command {
	var (
		file   string
		listen string
	)

	cmd := &cobra.Command{
		Use:   "run -f operator.yaml",
		Short: "Run an operator, streaming events over stdio or a websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := flags.logger()
			if err != nil {
				return err
			}

			d, err := host.NewLoader().LoadFile(file)
			if err != nil {
				return err
			}
			runner, err := host.NewRunner(host.WithLogger(logger))
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			var stream eventStream
			if listen != "" {
				stream, err = acceptWebsocket(ctx, listen, logger)
				if err != nil {
					return err
				}
			} else {
				stream = newStdioStream(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			defer func() { _ = stream.Close() }()

			terminal, err := serve(ctx, runner, d, stream, logger)
			if err != nil {
				return err
			}
			return exitError(terminal)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "operator.yaml", "operator descriptor")
	cmd.Flags().StringVar(&listen, "listen", "", "serve one websocket connection on this address instead of stdio")
	return cmd
}

// ─── validate ─────────────────────────────────────────────────────────────────

func validateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate -f operator.yaml",
		Short: "Validate an operator descriptor without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := host.NewLoader().LoadFile(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: operator %s/%s (%s runtime, source %s)\n",
				d.NodeID, d.OperatorID, d.Kind(), d.Source)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "operator.yaml", "operator descriptor")
	return cmd
}

// ─── schema ───────────────────────────────────────────────────────────────────

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of operator descriptors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := schema.GenerateDescriptorSchema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
