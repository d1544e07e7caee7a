package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pders01/feedcore/internal/app"
	"github.com/pders01/feedcore/internal/config"
	"github.com/pders01/feedcore/internal/debuglog"
)

// Version is the version of the application, set at build time
var Version = "dev"

type rootOptions struct {
	configPath string
	dbPath     string
	quiet      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Couldn't load. Please try again."))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           AppName,
		Short:         "Image feed client with an offline cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.quiet {
				showBanner(cmd.OutOrStdout())
			}
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to database file (overrides config)")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Skip startup banner")

	root.AddCommand(
		newFeedCmd(opts),
		newImageCmd(opts),
		newCommentsCmd(opts),
		newValidateCmd(opts),
		newSearchCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
	}
	return cfg, nil
}

// withClient runs fn against a client built from config. The cached feed
// is validated once fn returns, and the client waits for that and for
// pending cache writes before closing.
func withClient(opts *rootOptions, fn func(*app.Client) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if logErr := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); logErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", logErr)
	}
	defer debuglog.Close()

	client, err := app.New(cfg)
	if err != nil {
		return err
	}

	runErr := fn(client)
	client.ValidateCacheOnBackground()
	if closeErr := client.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	return runErr
}
