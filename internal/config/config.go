// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const (
	configEnv         = "WAYBARTRACKER"
	DefaultTextTpl    = "{{.Battery.Icon}} {{.Battery.Level}} {{.WaypointCount}}"
	DefaultAltTextTpl = "{{if .HasLocation}}{{floatFormat .Location.Lat 4}},{{floatFormat .Location.Lon 4}}" +
		"{{else}}{{loc \"fetching\"}}{{end}}"
	DefaultTooltipTpl = "{{loc \"battery\"}}: {{.Battery.Level}} ({{.Battery.Status}})\n" +
		"{{loc \"waypoints\"}}: {{.WaypointCount}}\n" +
		"{{loc \"route\"}}: {{floatFormat (div .RouteLength 1000) 2}} km" +
		"{{if .HasLocation}}\n{{loc \"lastfix\"}}: {{hum .LastFix}}{{end}}" +
		"{{if .Alert}}\n{{.Alert.Title}}: {{.Alert.Message}}{{end}}"
	DefaultAltTooltipTpl = "{{loc \"sunrise\"}}: {{timeFormat .SunriseTime \"15:04\"}}\n" +
		"{{loc \"sunset\"}}: {{timeFormat .SunsetTime \"15:04\"}}\n" +
		"{{loc \"markers\"}}: {{len .Markers}}"
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Intervals struct {
		LocationPoll time.Duration `fig:"location_poll" default:"10s"`
		Output       time.Duration `fig:"output" default:"30s"`
	} `fig:"intervals"`

	GeoLocation struct {
		// Allowed values: gpsd, file, ichnaea, simulate
		Providers      []string      `fig:"providers" default:"[gpsd,file]"`
		File           string        `fig:"file"`
		GPSDHost       string        `fig:"gpsd_host" default:"localhost"`
		GPSDPort       string        `fig:"gpsd_port" default:"2947"`
		GPSDMaxAge     time.Duration `fig:"gpsd_max_age" default:"1m"`
		Ichnaea        string        `fig:"ichnaea_endpoint"`
		IchnaeaReuse   time.Duration `fig:"ichnaea_reuse" default:"1m"`
		SimulateLat    float64       `fig:"simulate_lat" default:"37.7749"`
		SimulateLon    float64       `fig:"simulate_lon" default:"-122.4194"`
		SimulateRadius float64       `fig:"simulate_radius" default:"500"`
	} `fig:"geolocation"`

	Directions struct {
		// Allowed values: google, osrm
		Provider string `fig:"provider" default:"google"`
		APIKey   string `fig:"apikey"`
		Endpoint string `fig:"endpoint"`
	} `fig:"directions"`

	Battery struct {
		// Allowed values: upower, sysfs
		Provider string `fig:"provider" default:"upower"`
		Device   string `fig:"device"`
	} `fig:"battery"`

	Alerts struct {
		DisableNotify bool          `fig:"disable_notify"`
		ShowFor       time.Duration `fig:"show_for" default:"1m"`
	} `fig:"alerts"`

	Templates struct {
		Text       string `fig:"text"`
		AltText    string `fig:"alt_text"`
		Tooltip    string `fig:"tooltip"`
		AltTooltip string `fig:"alt_tooltip"`
	} `fig:"templates"`

	MapServer struct {
		Listen      string `fig:"listen"`
		GeoJSONFile string `fig:"geojson_file"`
	} `fig:"mapserver"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if c.Intervals.LocationPoll <= 0 {
		return fmt.Errorf("invalid location poll interval: %s", c.Intervals.LocationPoll)
	}
	if c.Intervals.Output <= 0 {
		return fmt.Errorf("invalid output interval: %s", c.Intervals.Output)
	}

	if len(c.GeoLocation.Providers) == 0 {
		return fmt.Errorf("at least one geolocation provider is required")
	}
	for i, provider := range c.GeoLocation.Providers {
		provider = strings.ToLower(strings.TrimSpace(provider))
		switch provider {
		case "gpsd", "file", "ichnaea", "simulate":
		default:
			return fmt.Errorf("unsupported geolocation provider: %s", provider)
		}
		c.GeoLocation.Providers[i] = provider
	}
	if c.GeoLocation.File == "" {
		home, _ := os.UserHomeDir()
		c.GeoLocation.File = filepath.Join(home, ".config", "waybar-tracker", "geolocation")
	}
	if c.GeoLocation.IchnaeaReuse < 0 {
		return fmt.Errorf("invalid ichnaea reuse duration: %s", c.GeoLocation.IchnaeaReuse)
	}
	if c.GeoLocation.SimulateRadius < 0 {
		return fmt.Errorf("invalid simulation radius: %f", c.GeoLocation.SimulateRadius)
	}

	c.Directions.Provider = strings.ToLower(c.Directions.Provider)
	switch c.Directions.Provider {
	case "google":
		if c.Directions.APIKey == "" {
			return fmt.Errorf("google directions provider requires an API key")
		}
	case "osrm":
	default:
		return fmt.Errorf("unsupported directions provider: %s", c.Directions.Provider)
	}

	c.Battery.Provider = strings.ToLower(c.Battery.Provider)
	if c.Battery.Provider != "upower" && c.Battery.Provider != "sysfs" {
		return fmt.Errorf("unsupported battery provider: %s", c.Battery.Provider)
	}

	if c.Templates.Text == "" {
		c.Templates.Text = DefaultTextTpl
	}
	if c.Templates.AltText == "" {
		c.Templates.AltText = DefaultAltTextTpl
	}
	if c.Templates.Tooltip == "" {
		c.Templates.Tooltip = DefaultTooltipTpl
	}
	if c.Templates.AltTooltip == "" {
		c.Templates.AltTooltip = DefaultAltTooltipTpl
	}

	return nil
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
