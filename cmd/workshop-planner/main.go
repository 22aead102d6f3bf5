package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workshop-planner/internal/app/notify"
	"workshop-planner/internal/app/planner"
	"workshop-planner/internal/app/planning"
	"workshop-planner/internal/common/config"
	"workshop-planner/internal/common/httpx"
	"workshop-planner/internal/common/logger"
	"workshop-planner/internal/domain"
)

const modes = "api | planner | plan-once | notification-subscriber"

func main() {
	mode := flag.String("mode", "", modes)
	cfgPath := flag.String("config", "", "path to YAML config (default: config.yaml if present)")
	port := flag.Int("port", 0, "api: http port, overrides config")
	date := flag.String("date", "", "plan-once: plan date YYYY-MM-DD (default: today)")
	clean := flag.Bool("clean", false, "plan-once: delete the previous plan of the date first")
	flag.Parse()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := *cfgPath
	if path == "" {
		path, _ = config.FindConfig()
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": path})
		os.Exit(2)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}
	cleanSet := false
	flag.Visit(func(f *flag.Flag) { cleanSet = cleanSet || f.Name == "clean" })
	if cleanSet {
		cfg.Planning.CleanFirst = *clean
	}

	switch *mode {
	case "api":
		err = runAPI(ctx, cfg)
	case "planner":
		err = runPlanner(ctx, cfg)
	case "plan-once":
		err = runOnce(ctx, cfg, *date)
	case "notification-subscriber":
		err = runSubscriber(ctx, cfg)
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: "+modes)
		os.Exit(2)
	}
	if err != nil {
		lg.Error("fatal", err, map[string]any{"mode": *mode})
		os.Exit(1)
	}
}

func runAPI(ctx context.Context, cfg config.App) error {
	lg := logger.New("planning-api")
	d, err := wire(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer d.Close()

	h := planning.NewHandler(d.planner, d.plans, cfg.Planning.CleanFirst, cfg.Planning.Location(), d.checks(), lg)
	srv := httpx.New(cfg.HTTP.Port, h.Routes(), cfg.HTTP.ShutdownTimeout)
	lg.Info("service_started", map[string]any{"service": "planning-api", "port": cfg.HTTP.Port})
	return srv.Run(ctx)
}

func runPlanner(ctx context.Context, cfg config.App) error {
	lg := logger.New("planner")
	d, err := wire(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer d.Close()

	w, err := planner.NewWorker(d.planner, cfg.Planning.Cron, cfg.Planning.Location(), cfg.Planning.CleanFirst, lg)
	if err != nil {
		return err
	}
	lg.Info("service_started", map[string]any{"service": "planner", "cron": cfg.Planning.Cron})
	return w.Run(ctx)
}

func runOnce(ctx context.Context, cfg config.App, date string) error {
	lg := logger.New("plan-once")
	d, err := wire(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer d.Close()

	loc := cfg.Planning.Location()
	day := time.Now().In(loc)
	if date != "" {
		if day, err = domain.ParseDate(date, loc); err != nil {
			return fmt.Errorf("--date: %w", err)
		}
	}
	res, err := d.planner.Run(ctx, day, cfg.Planning.CleanFirst)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runSubscriber(ctx context.Context, cfg config.App) error {
	lg := logger.New("notification-subscriber")
	client, err := dialMQ(cfg, cfg.Rabbit.Queue)
	if err != nil {
		return err
	}
	defer client.Close()

	deliveries, err := client.Consume(cfg.Rabbit.Queue, "notification-subscriber", 10)
	if err != nil {
		return fmt.Errorf("consume %s: %w", cfg.Rabbit.Queue, err)
	}
	lg.Info("service_started", map[string]any{"service": "notification-subscriber", "queue": cfg.Rabbit.Queue})
	return notify.NewSubscriber(lg).Run(ctx, deliveries)
}
