package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/ttpr0/go-hybrid-routing/corridor"
	"github.com/ttpr0/go-hybrid-routing/geo"
	"github.com/ttpr0/go-hybrid-routing/graph"
	"github.com/ttpr0/go-hybrid-routing/traffic"
	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"
)

//**********************************************************
// config
//**********************************************************

// Reads the yaml config file. A missing file yields the default config.
func ReadConfig(file string) (Config, error) {
	slog.Info("reading config file", "file", file)
	var config Config
	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "file", file)
		config = config.withDefaults()
		return config, config.Validate()
	}
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}
	config = config.withDefaults()
	return config, config.Validate()
}

type Config struct {
	Source      SourceOptions   `yaml:"source"`
	Database    DatabaseOptions `yaml:"database"`
	Build       BuildOptions    `yaml:"build"`
	ServiceArea AreaOptions     `yaml:"service-area"`
	Matcher     MatcherOptions  `yaml:"matcher"`
	Traffic     TrafficOptions  `yaml:"traffic"`
	Remote      []RemoteOptions `yaml:"remote"`
	Corridor    CorridorOptions `yaml:"corridor"`
	Server      ServerOptions   `yaml:"server"`
}

type SourceOptions struct {
	OSM        string `yaml:"osm"`
	References string `yaml:"references"`
}

type DatabaseOptions struct {
	Path string `yaml:"path"`
}

type BuildOptions struct {
	SnapTolerance     float64   `yaml:"snap-tolerance"`
	HealTolerances    []float64 `yaml:"heal-tolerances"`
	MinNodeRatio      float64   `yaml:"min-node-ratio"`
	MinComponentShare float64   `yaml:"min-component-share"`
}

type AreaOptions struct {
	MinLon float64 `yaml:"min-lon"`
	MinLat float64 `yaml:"min-lat"`
	MaxLon float64 `yaml:"max-lon"`
	MaxLat float64 `yaml:"max-lat"`
}

func (self AreaOptions) Bound() orb.Bound {
	return geo.NewBound(self.MinLon, self.MinLat, self.MaxLon, self.MaxLat)
}

type MatcherOptions struct {
	MaxDistance float64 `yaml:"max-distance"`
}

type TrafficOptions struct {
	URL        string            `yaml:"url"`
	Interval   time.Duration     `yaml:"interval"`
	Timeout    time.Duration     `yaml:"timeout"`
	FloorSpeed float64           `yaml:"floor-speed"`
	Headers    map[string]string `yaml:"headers"`
}

type RemoteOptions struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type CorridorOptions struct {
	OnRoute        float64 `yaml:"on-route"`
	Detour         float64 `yaml:"detour"`
	SampleInterval float64 `yaml:"sample-interval"`
	TailGap        float64 `yaml:"tail-gap"`
}

func (self CorridorOptions) Tiers() corridor.Tiers {
	return corridor.Tiers{OnRoute: self.OnRoute, Detour: self.Detour}
}

type ServerOptions struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log-level"`
}

func (self Config) withDefaults() Config {
	if self.Database.Path == "" {
		self.Database.Path = "./graphs/graph.db"
	}
	healer := graph.DefaultHealerOptions()
	if self.Build.SnapTolerance == 0 {
		self.Build.SnapTolerance = 1
	}
	if len(self.Build.HealTolerances) == 0 {
		self.Build.HealTolerances = healer.Tolerances
	}
	if self.Build.MinNodeRatio == 0 {
		self.Build.MinNodeRatio = healer.MinNodeRatio
	}
	if self.Build.MinComponentShare == 0 {
		self.Build.MinComponentShare = healer.MinComponentShare
	}
	if self.ServiceArea == (AreaOptions{}) {
		// Samsun pilot region
		self.ServiceArea = AreaOptions{MinLon: 36.15, MinLat: 41.20, MaxLon: 36.45, MaxLat: 41.45}
	}
	if self.Matcher.MaxDistance == 0 {
		self.Matcher.MaxDistance = 20
	}
	updater := traffic.DefaultUpdaterOptions()
	if self.Traffic.Interval == 0 {
		self.Traffic.Interval = updater.Interval
	}
	if self.Traffic.Timeout == 0 {
		self.Traffic.Timeout = 20 * time.Second
	}
	if self.Traffic.FloorSpeed == 0 {
		self.Traffic.FloorSpeed = updater.FloorSpeed
	}
	for i := range self.Remote {
		if self.Remote[i].Timeout == 0 {
			self.Remote[i].Timeout = 10 * time.Second
		}
		if self.Remote[i].Name == "" {
			self.Remote[i].Name = fmt.Sprintf("remote-%d", i)
		}
	}
	tiers := corridor.DefaultTiers()
	if self.Corridor.OnRoute == 0 {
		self.Corridor.OnRoute = tiers.OnRoute
	}
	if self.Corridor.Detour == 0 {
		self.Corridor.Detour = tiers.Detour
	}
	if self.Corridor.SampleInterval == 0 {
		self.Corridor.SampleInterval = 40
	}
	if self.Corridor.TailGap == 0 {
		self.Corridor.TailGap = 10
	}
	if self.Server.Addr == "" {
		self.Server.Addr = ":5002"
	}
	if self.Server.LogLevel == "" {
		self.Server.LogLevel = "info"
	}
	return self
}

var ErrInvalidConfig = errors.New("invalid config")

func (self Config) Validate() error {
	area := self.ServiceArea
	if area.MinLon >= area.MaxLon || area.MinLat >= area.MaxLat {
		return fmt.Errorf("%w: service-area bounds are inverted", ErrInvalidConfig)
	}
	if !geo.IsValidCoord(geo.Coord{area.MinLon, area.MinLat}) || !geo.IsValidCoord(geo.Coord{area.MaxLon, area.MaxLat}) {
		return fmt.Errorf("%w: service-area outside of WGS84 range", ErrInvalidConfig)
	}
	if self.Build.SnapTolerance <= 0 {
		return fmt.Errorf("%w: snap-tolerance must be positive", ErrInvalidConfig)
	}
	for _, tolerance := range self.Build.HealTolerances {
		if tolerance <= 0 {
			return fmt.Errorf("%w: heal-tolerances must be positive", ErrInvalidConfig)
		}
	}
	if self.Matcher.MaxDistance <= 0 {
		return fmt.Errorf("%w: matcher max-distance must be positive", ErrInvalidConfig)
	}
	if self.Traffic.Interval <= 0 || self.Traffic.Timeout <= 0 {
		return fmt.Errorf("%w: traffic interval and timeout must be positive", ErrInvalidConfig)
	}
	if self.Traffic.FloorSpeed <= 0 {
		return fmt.Errorf("%w: traffic floor-speed must be positive", ErrInvalidConfig)
	}
	for _, remote := range self.Remote {
		if remote.URL == "" {
			return fmt.Errorf("%w: remote provider %s has no url", ErrInvalidConfig, remote.Name)
		}
	}
	if err := self.Corridor.Tiers().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if self.Corridor.SampleInterval <= 0 {
		return fmt.Errorf("%w: corridor sample-interval must be positive", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(self.Server.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (self Config) HealerOptions() graph.HealerOptions {
	return graph.HealerOptions{
		Tolerances:        self.Build.HealTolerances,
		MinNodeRatio:      self.Build.MinNodeRatio,
		MinComponentShare: self.Build.MinComponentShare,
	}
}

func (self Config) UpdaterOptions() traffic.UpdaterOptions {
	return traffic.UpdaterOptions{
		Interval:   self.Traffic.Interval,
		FloorSpeed: self.Traffic.FloorSpeed,
	}
}
