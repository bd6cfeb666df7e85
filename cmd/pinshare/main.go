package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/pinshare/internal/client/cli"
	"github.com/dmitrijs2005/pinshare/internal/client/config"
	"github.com/dmitrijs2005/pinshare/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		loader *config.Loader
		cfg    *config.Config
		log    logging.Logger
	)

	newApp := func(cmd *cobra.Command) (*cli.App, error) {
		return cli.NewApp(cmd.Context(), cfg, log, os.Stdin, cmd.OutOrStdout())
	}

	rootCmd := &cobra.Command{
		Use:          "pinshare",
		Short:        "pinshare interactive client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = loader.Load(); err != nil {
				return err
			}
			if log, err = logging.New(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = logging.Sync(log)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			app.Run(cmd.Context())
			return nil
		},
	}
	loader = config.BindFlags(rootCmd.PersistentFlags())

	sharedCmd := &cobra.Command{
		Use:   "shared <shareId>",
		Short: "show a public share without signing in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())
			return app.Open(cmd.Context(), args[0])
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "validate the stored session once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())
			if !app.CheckSession(cmd.Context()) {
				return errors.New("not authenticated")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "authenticated")
			return nil
		},
	}

	rootCmd.AddCommand(sharedCmd, checkCmd)
	return rootCmd
}
