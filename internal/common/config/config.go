package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"workshop-planner/internal/domain"
)

type DB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Pass     string `yaml:"password"`
	Name     string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	// URL wins over the discrete fields when set (DATABASE_URL).
	URL string `yaml:"url"`
}

func (d DB) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		d.User, d.Pass, d.Host, d.Port, d.Name, d.SSLMode, d.MaxConns)
}

type Redis struct {
	URL string `yaml:"url"`
}

type MQ struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Pass     string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
	URL      string `yaml:"url"`
}

func (m MQ) AMQPURL() string {
	if m.URL != "" {
		return m.URL
	}
	vhost := m.VHost
	if vhost == "/" {
		vhost = ""
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", m.User, m.Pass, m.Host, m.Port, vhost)
}

type HTTP struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Lock struct {
	Backend string        `yaml:"backend"` // redis | postgres | memory
	TTL     time.Duration `yaml:"ttl"`
}

type Planning struct {
	PerCardMinutes   int    `yaml:"per_card_minutes"`
	FixedScanMinutes int    `yaml:"fixed_scan_minutes"`
	BreakMinutes     int    `yaml:"break_minutes"`
	DayStart         string `yaml:"day_start"`
	DayEnd           string `yaml:"day_end"`
	Timezone         string `yaml:"timezone"`
	Cron             string `yaml:"cron"`
	CleanFirst       bool   `yaml:"clean_first"`
}

// Location resolves Timezone; callers run Validate first.
func (p Planning) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (p Planning) Clocks() (start, end domain.Clock, err error) {
	if start, err = domain.ParseClock(p.DayStart); err != nil {
		return
	}
	end, err = domain.ParseClock(p.DayEnd)
	return
}

type App struct {
	Database DB       `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Rabbit   MQ       `yaml:"rabbitmq"`
	HTTP     HTTP     `yaml:"http"`
	Lock     Lock     `yaml:"lock"`
	Planning Planning `yaml:"planning"`
}

func Defaults() App {
	return App{
		Database: DB{Host: "localhost", Port: 5432, User: "workshop", Name: "workshop", SSLMode: "disable", MaxConns: 10},
		Redis:    Redis{URL: "redis://localhost:6379"},
		Rabbit:   MQ{Host: "localhost", Port: 5672, VHost: "/", Exchange: "planning_fanout", Queue: "planning_notifications"},
		HTTP:     HTTP{Port: 3000, ShutdownTimeout: 5 * time.Second},
		Lock:     Lock{Backend: "redis", TTL: 2 * time.Minute},
		Planning: Planning{
			PerCardMinutes:   3,
			FixedScanMinutes: 5,
			BreakMinutes:     5,
			DayStart:         "09:00",
			DayEnd:           "18:00",
			Timezone:         "UTC",
			Cron:             "0 0 7 * * MON-FRI",
			CleanFirst:       true,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies env overrides.
// A missing file is not an error: defaults plus env are enough for local runs.
func Load(path string) (App, error) {
	a := Defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return App{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &a); err != nil {
				return App{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(&a)
	if err := a.Validate(); err != nil {
		return App{}, err
	}
	return a, nil
}

func applyEnv(a *App) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		a.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		a.Redis.URL = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		a.Rabbit.URL = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			a.HTTP.Port = n
		}
	}
	if v := os.Getenv("PLANNING_TIMEZONE"); v != "" {
		a.Planning.Timezone = v
	}
	if v := os.Getenv("LOCK_BACKEND"); v != "" {
		a.Lock.Backend = v
	}
}

func (a App) Validate() error {
	p := a.Planning
	if p.PerCardMinutes <= 0 {
		return errors.New("invalid config: planning.per_card_minutes must be positive")
	}
	if p.FixedScanMinutes <= 0 {
		return errors.New("invalid config: planning.fixed_scan_minutes must be positive")
	}
	if p.BreakMinutes < 0 {
		return errors.New("invalid config: planning.break_minutes must not be negative")
	}
	start, end, err := p.Clocks()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if end.Minutes() <= start.Minutes() {
		return fmt.Errorf("invalid config: day_end %s must be after day_start %s", end, start)
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("invalid config: timezone %q: %w", p.Timezone, err)
	}
	switch a.Lock.Backend {
	case "redis", "postgres", "memory":
	default:
		return fmt.Errorf("invalid config: lock.backend %q", a.Lock.Backend)
	}
	if a.Database.URL == "" && (a.Database.Host == "" || a.Database.Name == "") {
		return errors.New("invalid config: missing database host/name")
	}
	return nil
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
