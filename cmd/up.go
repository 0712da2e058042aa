package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pythonstrup/openclaw-docker/internal/authsync"
	"github.com/pythonstrup/openclaw-docker/internal/pairing"
	"github.com/pythonstrup/openclaw-docker/internal/store"
)

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run the credential-sync and self-approval daemons, then the gateway",
		Run: func(cmd *cobra.Command, args []string) {
			runUp()
		},
	}
}

func runUp() {
	setupLogging()
	cfg := loadConfig()

	for _, p := range []string{cfg.PendingPath, cfg.PairedPath, cfg.AuthStorePath} {
		if err := store.EnsureDir(p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: create state dir for %s: %v\n", p, err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncer := authsync.NewSyncer(authsync.Config{
		SourcePath: cfg.CredentialsPath,
		StorePath:  cfg.AuthStorePath,
	})
	approver := pairing.NewSelfApprover(pairing.SelfApproveConfig{
		IdentityPath: cfg.IdentityPath,
		Paths:        pairing.Paths{Pending: cfg.PendingPath, Paired: cfg.PairedPath},
	})

	slog.Info("bootstrap starting",
		"stateDir", cfg.StateDir,
		"credentials", cfg.CredentialsPath,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return syncer.Run(gctx) })
	g.Go(func() error { return approver.Run(gctx) })

	if cfg.GatewayCmd != "" {
		g.Go(func() error { return runGateway(gctx, cfg.GatewayCmd) })
	} else {
		g.Go(func() error { <-gctx.Done(); return nil })
	}

	// Daemon failures never surface as a non-zero exit; a dead gateway
	// is only logged so the container's restart policy decides. Errors
	// caused by our own shutdown signal are not worth reporting.
	if err := g.Wait(); err != nil && gctx.Err() == nil && !errors.Is(err, context.Canceled) {
		slog.Error("gateway exited", "error", err)
	}
	slog.Info("bootstrap stopped")
}

// runGateway spawns the configured gateway command with the
// bootstrap's stdio and blocks until it exits or ctx is cancelled.
func runGateway(ctx context.Context, command string) error {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return fmt.Errorf("parse gateway command: %w", err)
	}
	if len(argv) == 0 {
		return errors.New("gateway command is empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Info("starting gateway", "command", argv[0])
	return cmd.Run()
}

func setupLogging() {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("OPENCLAW_LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
