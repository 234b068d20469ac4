// Package cli is the guardian command line client.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iudanet/guardian/internal/client/iocli"
	"github.com/iudanet/guardian/internal/config"
	"github.com/iudanet/guardian/internal/logging"
)

// Cli owns the command tree and the App built for the running command.
type Cli struct {
	io       iocli.IO
	app      *App
	closeLog func()
	appOpts  []AppOption

	configPath string
	envFile    string
	serverURL  string
	logLevel   string
}

// New creates a Cli writing to io.
func New(io iocli.IO, opts ...AppOption) *Cli {
	return &Cli{io: io, appOpts: opts}
}

// RootCmd builds the command tree.
func (c *Cli) RootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "guardian",
		Short: "Guardian personal safety client",
		Long: `Guardian keeps emergency contacts, profile and medical info in sync with
the backend, tracks location and dispatches emergency alerts. Every change
is stored locally first and delivered when the network allows.`,
		Version:            version,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (yaml)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "env file loaded before the environment")
	root.PersistentFlags().StringVar(&c.serverURL, "server", "", "backend URL (overrides api_base_url)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (overrides log_level)")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.syncCmd(),
		c.contactsCmd(),
		c.profileCmd(),
		c.medicalCmd(),
		c.trackCmd(),
		c.captureCmd(),
		c.sosCmd(),
		c.deadLettersCmd(),
		c.alertsCmd(),
	)
	return root
}

func (c *Cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath, c.envFile)
	if err != nil {
		return err
	}
	if c.serverURL != "" {
		cfg.APIBaseURL = c.serverURL
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "guardian.log")
	}

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	c.closeLog = closeLog

	c.app, err = NewApp(cmd.Context(), cfg, c.io, logger, c.appOpts...)
	if err != nil {
		closeLog()
		return err
	}

	logger.Debug().Str("command", cmd.CommandPath()).Str("env", cfg.Env).Msg("client started")
	return nil
}

func (c *Cli) teardown(_ *cobra.Command, _ []string) error {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
	if c.closeLog != nil {
		c.closeLog()
		c.closeLog = nil
	}
	return nil
}

// Execute runs the client against the process terminal and exits non-zero on error.
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := New(iocli.NewStdio())
	err := c.RootCmd(version).ExecuteContext(ctx)
	_ = c.teardown(nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
