package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	airdrop "token_airdrop"
	"token_airdrop/models"
	"token_airdrop/pkg/config"
	"token_airdrop/pkg/handler"
	"token_airdrop/pkg/repository"
	"token_airdrop/pkg/service"
	"token_airdrop/pkg/transfer"
)

const usage = `usage: airdrop [run|serve] [flags]

  run    distribute the token to every recipient not yet completed (default)
  serve  expose the distribution log over a read-only HTTP API

flags:
`

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env loaded: %s", err)
	}

	command := "run"
	args := os.Args[1:]
	if len(args) > 0 && (args[0] == "run" || args[0] == "serve") {
		command, args = args[0], args[1:]
	}

	fs := config.Flags("airdrop")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		logrus.Fatalf("parse flags: %s", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		logrus.Fatalf("load config: %s", err)
	}
	if err := cfg.Log.SetupLogger(); err != nil {
		logrus.Fatalf("setup logger: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := 0
	switch command {
	case "serve":
		serve(ctx, cfg)
	default:
		code = run(ctx, cfg)
	}
	stop()
	os.Exit(code)
}

func newRepository(cfg *config.Config) *repository.Repository {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := repository.NewPostgresDB(cfg.Store.DB)
		if err != nil {
			logrus.Fatalf("connect to postgres: %s", err)
		}
		logrus.Info("postgres progress store connected")
		return repository.NewPostgresRepository(db, cfg.DistributionPath)
	default:
		logrus.WithField("path", cfg.LogPath).Info("file progress store")
		return repository.NewFileRepository(cfg.LogPath, cfg.DistributionPath)
	}
}

func run(ctx context.Context, cfg *config.Config) int {
	if err := cfg.ValidateRun(); err != nil {
		logrus.Fatalf("%s", err)
	}

	client, err := transfer.New(cfg.Transfer)
	if err != nil {
		logrus.Fatalf("transfer client: %s", err)
	}

	repos := newRepository(cfg)

	requests, err := repos.Recipients.Load(ctx)
	if err != nil {
		logrus.Fatalf("load recipients: %s", err)
	}
	prior, err := repos.Progress.Load(ctx)
	if err != nil {
		logrus.Fatalf("load distribution log: %s", err)
	}

	services := service.NewService(repos, client, cfg.Token, cfg.PrivateKeyPath, cfg.Mail, service.WithDryRun(cfg.DryRun))

	fmt.Printf("Starting AirDrop of %s to %d Wallets\n", cfg.Token, len(requests))
	logrus.WithFields(logrus.Fields{
		"token":      cfg.Token,
		"recipients": len(requests),
		"logged":     len(prior),
		"backend":    cfg.Transfer.Backend,
		"dryRun":     cfg.DryRun,
	}).Info("starting distribution")

	summary, runErr := services.Distribution.Run(ctx, requests, prior)
	printSummary(cfg, summary)

	if !cfg.DryRun {
		// the report still goes out after ctx is cancelled
		mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		if err := services.Report.Send(mailCtx, cfg.Token, summary); err != nil {
			logrus.Errorf("run report: %s", err)
		}
		cancel()
	}

	switch {
	case errors.Is(runErr, service.ErrInterrupted):
		logrus.Warnf("%s", runErr)
		fmt.Println("AirDrop interrupted, re run AirDrop command to resume")
		return 130
	case runErr != nil:
		logrus.Errorf("distribution log could not be written, stopping: %s", runErr)
		return 1
	}
	return 0
}

func printSummary(cfg *config.Config, s models.RunSummary) {
	if cfg.DryRun {
		fmt.Printf("Dry run of %s: would transfer to %d wallets, %d already completed, %d invalid\n",
			cfg.Token, s.Pending, s.AlreadyCompleted, s.Failed)
		return
	}

	success := fmt.Sprintf("%d", s.Completed+s.AlreadyCompleted)
	if s.AlreadyCompleted > 0 {
		success += fmt.Sprintf(" (%d thereof in previous run)", s.AlreadyCompleted)
	}
	fmt.Printf("AirDrop of %s completed. Success: %s, Failed: %d\n", cfg.Token, success, s.Failed)
	for _, f := range s.Failures {
		fmt.Printf("  %s (%d): %s\n", f.PublicKey, f.Amount, f.Error)
	}
	if s.NeedsRerun() {
		fmt.Println("Please re run AirDrop command!")
	}
}

func serve(ctx context.Context, cfg *config.Config) {
	if err := cfg.ValidateServe(); err != nil {
		logrus.Fatalf("%s", err)
	}

	repos := newRepository(cfg)
	h := handler.NewHandler(service.NewStatusService(repos.Progress), handler.Config{
		APIKey:       cfg.HTTP.APIKey,
		AllowOrigins: cfg.HTTP.AllowOrigins,
	})

	srv := new(airdrop.Server)
	go func() {
		if err := srv.Run(cfg.HTTP.Port, h.InitRoute()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("run status server: %s", err)
		}
	}()
	logrus.WithField("port", cfg.HTTP.Port).Info("status server started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("shutdown status server: %s", err)
	}
	logrus.Info("status server stopped")
}
