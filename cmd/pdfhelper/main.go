// Command pdfhelper is a terminal client for the PDF question-answering
// backend.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chrisboulton/pdfhelper-go"
	"github.com/chrisboulton/pdfhelper-go/internal/config"
	"github.com/chrisboulton/pdfhelper-go/internal/logging"
)

var version = "0.1.0"

// app holds what every sub-command needs once flags are parsed.
type app struct {
	configPath string
	apiURL     string
	logLevel   string
	logFile    string

	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "pdfhelper",
		Short:        "Chat with your PDFs from the terminal",
		Long:         "pdfhelper lists, uploads and asks questions about PDFs stored on a PDF question-answering server.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "path to config.yaml (default: ~/.config/pdfhelper/config.yaml)")
	f.StringVar(&a.apiURL, "api-url", "", "server base URL (overrides $"+pdfhelper.EnvBaseURL+" and the config file)")
	f.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	f.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(a.initCmd())
	root.AddCommand(a.documentsCmd())
	root.AddCommand(a.uploadCmd())
	root.AddCommand(a.askCmd())
	root.AddCommand(a.chatCmd())
	root.AddCommand(a.mockServerCmd())

	return root
}

// setup loads the config, applies flag overrides and installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	// init writes the file, so it starts from the defaults.
	cfg := config.Defaults()
	if cmd.Name() == "init" {
		config.ApplyEnv(cfg)
	} else {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFile != "" {
		cfg.LogFile = config.ExpandPath(a.logFile)
	}
	if err := config.Validate(cfg); err != nil {
		return errors.Wrap(err, "flags")
	}
	a.cfg = cfg

	// The chat UI owns the terminal, so it only logs to a file.
	quiet := cmd.Name() == "chat"

	logger, closer, err := logging.Init(logging.Settings{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
		Quiet: quiet,
	})
	if err != nil {
		return err
	}
	a.logger = logger.With().Str("cmd", cmd.Name()).Logger()
	a.logCloser = closer
	return nil
}

func (a *app) newClient() (*pdfhelper.Client, error) {
	return pdfhelper.New(a.cfg.APIURL, pdfhelper.WithLogger(a.logger))
}

// requestContext bounds a single HTTP call by the configured timeout.
func (a *app) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.HTTPTimeout > 0 {
		return context.WithTimeout(ctx, a.cfg.HTTPTimeout)
	}
	return context.WithCancel(ctx)
}

func (a *app) initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			path = config.ExpandPath(path)

			if _, err := os.Stat(path); err == nil && !force {
				return errors.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, a.cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
