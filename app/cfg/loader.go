package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Archive configuration
	ArchivePath string `long:"archive" env:"ARCHIVE_PATH" default:"./archive" description:"Path to the post archive directory (containing post-archiver.db)"`
	SiteConfig  string `long:"site-config" env:"SITE_CONFIG" description:"Optional YAML file with public site configuration"`

	// Application configuration
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl        string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://archive.example.com)"`
	FullTextSearch string `long:"full-text-search" env:"FULL_TEXT_SEARCH" default:"auto" choice:"auto" choice:"on" choice:"off" description:"Full-text search mode: keep current archive setting, enable, or disable"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ArchivePath:    raw.ArchivePath,
		SiteConfig:     raw.SiteConfig,
		Port:           raw.Port,
		BaseUrl:        raw.BaseUrl,
		FullTextSearch: raw.FullTextSearch,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	public, err := loadPublic(cfg.SiteConfig)
	if err != nil {
		return nil, err
	}
	cfg.Public = public

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// FullTextSearchOverride maps the configured mode onto the archive's stored
// setting: nil means "keep whatever the archive currently has".
func (c *Cfg) FullTextSearchOverride() *bool {
	switch c.FullTextSearch {
	case "on":
		v := true
		return &v
	case "off":
		v := false
		return &v
	default:
		return nil
	}
}

func loadPublic(path string) (Public, error) {
	public := Public{Name: "PostView"}
	if path == "" {
		return public, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return public, fmt.Errorf("failed to read site config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &public); err != nil {
		return public, fmt.Errorf("invalid site config %s: %w", path, err)
	}

	if public.Name == "" {
		public.Name = "PostView"
	}

	return public, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
	}
	return nil
}
