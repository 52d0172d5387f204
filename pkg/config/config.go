package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	DefaultDataDir   = "./data"
	DefaultAddr      = ":8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "auto"

	SettingsFileName = "headless_api_config.json"
	BlogDBFileName   = "blog.db"
	WebsiteFileName  = "website.xml"
)

// Config holds the server settings. Values come from an optional config
// file, then the environment and command line flags.
type Config struct {
	DataDir   string `yaml:"data_dir" toml:"data_dir" json:"data_dir"`
	Addr      string `yaml:"addr" toml:"addr" json:"addr"`
	SiteURL   string `yaml:"site_url" toml:"site_url" json:"site_url"`
	LogLevel  string `yaml:"log_level" toml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format" json:"log_format"`

	// Admin panel
	AppURL        string   `yaml:"app_url" toml:"app_url" json:"app_url"`
	SessionSecret string   `yaml:"session_secret" toml:"session_secret" json:"session_secret"`
	AdminUsers    []string `yaml:"admin_users" toml:"admin_users" json:"admin_users"`
}

var OauthConf *oauth2.Config

// Init loads .env into the process environment.
func Init() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found or error loading it")
	}
}

// Default returns a Config filled from the environment.
func Default() *Config {
	return &Config{
		DataDir:       getEnv("GS_DATA_DIR", DefaultDataDir),
		Addr:          getEnv("LISTEN_ADDR", DefaultAddr),
		SiteURL:       os.Getenv("SITE_URL"),
		LogLevel:      getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:     getEnv("LOG_FORMAT", DefaultLogFormat),
		AppURL:        getEnv("APP_URL", "http://localhost:8080"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		AdminUsers:    splitList(os.Getenv("ADMIN_GITHUB_USERS")),
	}
}

// Load reads a server config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if err := DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitOAuth prepares the GitHub OAuth client for the admin panel. It
// returns false when the admin panel should stay disabled.
func (c *Config) InitOAuth() bool {
	clientID := os.Getenv("GITHUB_CLIENT_ID")
	if clientID == "" || len(c.AdminUsers) == 0 {
		OauthConf = nil
		return false
	}
	appURL := strings.TrimSuffix(c.AppURL, "/")
	OauthConf = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		Scopes:       []string{"read:user"},
		Endpoint:     github.Endpoint,
		RedirectURL:  getEnv("GITHUB_REDIRECT_URL", appURL+"/admin/auth/callback"),
	}
	return true
}

// IsAdmin reports whether the GitHub login may use the admin panel.
func (c *Config) IsAdmin(login string) bool {
	for _, u := range c.AdminUsers {
		if strings.EqualFold(u, login) {
			return true
		}
	}
	return false
}

func (c *Config) PagesDir() string {
	return filepath.Join(c.DataDir, "pages")
}

func (c *Config) OtherDir() string {
	return filepath.Join(c.DataDir, "other")
}

func (c *Config) ComponentsDir() string {
	return filepath.Join(c.OtherDir(), "components")
}

func (c *Config) WebsiteFile() string {
	return filepath.Join(c.OtherDir(), WebsiteFileName)
}

func (c *Config) BlogDBPath() string {
	return filepath.Join(c.OtherDir(), BlogDBFileName)
}

func (c *Config) SettingsFile() string {
	return filepath.Join(c.OtherDir(), SettingsFileName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
