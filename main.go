package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"headless-cms/pkg/config"
	"headless-cms/pkg/handlers"
	"headless-cms/pkg/models"
	"headless-cms/pkg/services"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var version = "dev"

const shutdownTimeout = 5 * time.Second

// loadConfig merges the config file, then flags and their env vars.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("site-url") {
		cfg.SiteURL = c.String("site-url")
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := config.SetUpLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)

	settings := services.NewSettingsStore(cfg.SettingsFile())
	if _, err := settings.Get(); err != nil {
		return err
	}
	blog := services.NewBlogStore(cfg.BlogDBPath())
	defer blog.Close()

	h := handlers.NewHandler(
		services.NewPageStore(cfg.PagesDir()),
		services.NewComponentStore(cfg.ComponentsDir()),
		services.NewWebsite(cfg.WebsiteFile(), cfg.SiteURL),
		blog,
		settings,
	)

	var admin *handlers.Admin
	var secret []byte
	if cfg.InitOAuth() {
		admin = handlers.NewAdmin(cfg, settings)
		secret = []byte(cfg.SessionSecret)
		if len(secret) == 0 {
			log.Warn().Msg("SESSION_SECRET not set, admin sessions will not survive a restart")
			secret = make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return err
			}
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlers.NewRouter(h, admin, secret),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("data_dir", cfg.DataDir).
			Bool("blog", blog.Exists()).
			Bool("admin", admin != nil).
			Msg("headless api listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-c.Context.Done():
	}
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func settingsStore(c *cli.Context) (*services.SettingsStore, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := config.SetUpLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return services.NewSettingsStore(cfg.SettingsFile()), nil
}

func printSettings(c *cli.Context, s models.APISettings) error {
	out, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}

func settingsCmd() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "show or change the API settings file",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the current settings",
				Action: func(c *cli.Context) error {
					store, err := settingsStore(c)
					if err != nil {
						return err
					}
					s, err := store.Get()
					if err != nil {
						return err
					}
					return printSettings(c, s)
				},
			},
			{
				Name:  "set",
				Usage: "change feature flags",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "api-enabled", Usage: "serve the API"},
					&cli.BoolFlag{Name: "require-auth", Usage: "require the API key"},
					&cli.BoolFlag{Name: "cors-enabled", Usage: "send CORS headers"},
				},
				Action: func(c *cli.Context) error {
					store, err := settingsStore(c)
					if err != nil {
						return err
					}
					var u models.SettingsUpdate
					if c.IsSet("api-enabled") {
						v := c.Bool("api-enabled")
						u.APIEnabled = &v
					}
					if c.IsSet("require-auth") {
						v := c.Bool("require-auth")
						u.RequireAuth = &v
					}
					if c.IsSet("cors-enabled") {
						v := c.Bool("cors-enabled")
						u.CORSEnabled = &v
					}
					s, err := store.Update(u)
					if err != nil {
						return err
					}
					return printSettings(c, s)
				},
			},
			{
				Name:  "regenerate-key",
				Usage: "issue a new API key, the old one stops working",
				Action: func(c *cli.Context) error {
					store, err := settingsStore(c)
					if err != nil {
						return err
					}
					s, err := store.Update(models.SettingsUpdate{RegenerateKey: true})
					if err != nil {
						return err
					}
					return printSettings(c, s)
				},
			},
		},
	}
}

func main() {
	config.Init()

	app := cli.NewApp()
	app.Name = "headless-cms"
	app.Usage = "read-only JSON API over a flat-file CMS and its blog"
	app.Version = version
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "server config file (yaml, toml or json)",
			EnvVars: []string{"HEADLESS_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Usage:   "CMS data directory containing pages/ and other/",
			EnvVars: []string{"GS_DATA_DIR"},
			Value:   config.DefaultDataDir,
		},
		&cli.StringFlag{
			Name:    "site-url",
			Usage:   "public site URL, overrides the one in website.xml",
			EnvVars: []string{"SITE_URL"},
		},
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "listen address",
			EnvVars: []string{"LISTEN_ADDR"},
			Value:   config.DefaultAddr,
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level ([trace, debug, info, warn, error])",
			EnvVars: []string{"LOG_LEVEL"},
			Value:   config.DefaultLogLevel,
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log format ([auto, human, json])",
			EnvVars: []string{"LOG_FORMAT"},
			Value:   config.DefaultLogFormat,
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "serve",
			Usage:  "start the API server",
			Action: serve,
		},
		settingsCmd(),
	}
	app.Action = serve

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Stack().Err(err).Msg("headless-cms failed")
		os.Exit(1)
	}
}
