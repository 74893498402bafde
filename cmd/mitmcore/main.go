// mitmcore - interception dispatcher and service routing core for an HTTP
// mocking proxy, driven by an external intercepting proxy runtime.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/mitmcore/pkg/callback"
	"github.com/getmockd/mitmcore/pkg/dispatch"
	"github.com/getmockd/mitmcore/pkg/logging"
	"github.com/getmockd/mitmcore/pkg/management"
	"github.com/getmockd/mitmcore/pkg/mitmconfig"
	"github.com/getmockd/mitmcore/pkg/registry"
	"github.com/getmockd/mitmcore/pkg/scenario"
)

// Build-time variables set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

var (
	scenariosPath string
	logLevel      string
	logFormat     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mitmcore",
		Short:         "Interception dispatcher and service routing core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("mitmcore %s (%s)\n", Version, Commit)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the registry and dispatcher, then run until terminated",
		Long: `Wires the Scenario Store, Callback Executor, Service Registry, and Management
Service together and builds the Dispatcher an intercepting proxy runtime
calls on every flow. Runs until SIGINT/SIGTERM.`,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&scenariosPath, "scenarios-path", "", "scenario store root (default $SCENARIOS_PATH or ./scenarios/)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "text or json")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mitmconfig.FromEnv(Version)
	if scenariosPath != "" {
		cfg.ScenariosPath = scenariosPath
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Format: logging.ParseFormat(logFormat),
		Output: os.Stderr,
	})

	store := scenario.New(cfg.ScenariosPath)
	executor := callback.New(logger)

	reg := registry.NewEmpty(registry.Deps{Store: store, Scheduler: executor, Config: cfg})
	mgmt := management.New(reg, store, cfg, logger)
	reg.Prepend(mgmt)

	// The Dispatcher is built here to prove the wiring compiles end to end,
	// but its request/response hooks are invoked by the intercepting proxy
	// runtime, which is out of scope for this binary.
	_ = dispatch.New(reg, logger)

	logger.Info("mitmcore ready",
		"scenarios_path", cfg.ScenariosPath,
		"management_host", mitmconfig.ManagementHost,
		"version", cfg.Version,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("mitmcore shutting down")
	return nil
}
