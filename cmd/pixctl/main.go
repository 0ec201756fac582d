package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dmehra2102/pix-payments/internal/config"
	orderapp "github.com/dmehra2102/pix-payments/internal/order/application"
	orderpg "github.com/dmehra2102/pix-payments/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/pix-payments/internal/payment/application"
	"github.com/dmehra2102/pix-payments/internal/payment/domain"
	"github.com/dmehra2102/pix-payments/internal/payment/infrastructure/mercadopago"
	"github.com/dmehra2102/pix-payments/pkg/logging"
)

var Version = "dev"

type reconciler interface {
	Reconcile(ctx context.Context, n domain.Notification) (application.Result, error)
}

type backend struct {
	reconciler reconciler
	orders     *orderapp.Service
	close      func()
}

type app struct {
	configFile string
	quiet      bool
	out        io.Writer
	open       func(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error)
	load       func(file string) (*config.Config, error)
}

func main() {
	a := &app{out: os.Stdout, open: openBackend, load: config.Load}
	if err := a.rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pixctl",
		Short:         "Operator tooling for PIX payments and orders",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", os.Getenv("CONFIG_FILE"), "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Suppress logs")

	rootCmd.AddCommand(a.reconcileCmd())
	rootCmd.AddCommand(a.orderCmd())
	return rootCmd
}

// connect loads configuration and opens the stores a subcommand needs.
func (a *app) connect(ctx context.Context) (*backend, error) {
	cfg, err := a.load(a.configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.LogLevel)
	if a.quiet {
		log = logging.Discard()
	}
	return a.open(ctx, cfg, log)
}

func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	repo := orderpg.NewRepository(log, pool, "pixctl")
	mp := mercadopago.NewClient(log, cfg.MercadoPago.BaseURL, cfg.MercadoPago.AccessToken, cfg.MercadoPago.NotificationURL)

	return &backend{
		reconciler: application.NewReconciler(log, mp, repo,
			application.WithTimeouts(cfg.Timeouts.Gateway, cfg.Timeouts.Store)),
		orders: orderapp.NewService(repo),
		close:  pool.Close,
	}, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
