package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gpad/internal/auth"
	"gpad/internal/config"
	"gpad/internal/logging"
	"gpad/internal/management"
	"gpad/internal/rpc"
)

// app holds what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfg      config.Config
	client   *rpc.Client
	tokens   *auth.TokenStore
	ui       *terminalUI
	out      io.Writer
	closeLog func() error
}

var (
	current   = &app{}
	verbose   bool
	assumeYes bool
)

var rootCmd = &cobra.Command{
	Use:           "gpad",
	Short:         "Manage notes and notebooks kept by the gpad provider",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		closeLog, err := logging.Setup(os.Stderr, logging.Options{Level: level, Pretty: cfg.LogPretty, File: cfg.LogFile})
		if err != nil {
			return err
		}
		tokens, err := auth.NewTokenStore(cfg.TokenPath(), cfg.AuthSecret)
		if err != nil {
			closeLog()
			return fmt.Errorf("open token store: %w", err)
		}
		current.cfg = cfg
		current.client = rpc.NewClient(cfg.RPCURL(), cfg.RPCToken, cfg.RPCTimeout)
		current.tokens = tokens
		current.out = cmd.OutOrStdout()
		current.ui = newTerminalUI(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(), assumeYes)
		current.closeLog = closeLog
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current.closeLog != nil {
			return current.closeLog()
		}
		return nil
	},
}

func (a *app) manager() *management.Manager {
	return management.New(a.client, a.tokens, a.ui, management.NotifierFunc(func(msg string) {
		fmt.Fprintln(a.out, msg)
	}))
}

// usageError marks errors caused by bad invocation; they exit with status 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "gpad:", err)
	var usage usageError
	if errors.As(err, &usage) {
		os.Exit(2)
	}
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to confirmations")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
}
