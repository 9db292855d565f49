/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	applog "edgepath/internal/log"
	"edgepath/internal/route"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

// EngineConfig tunes routing and editing.
type EngineConfig struct {
	DefaultAlgorithm  string  `yaml:"default_algorithm"`
	Offset            float64 `yaml:"offset"`
	ThresholdMargin   float64 `yaml:"threshold_margin"`
	Curvature         float64 `yaml:"curvature"`
	SimplifyTolerance float64 `yaml:"simplify_tolerance"`
	NudgeStep         float64 `yaml:"nudge_step"`
	SnapThreshold     float64 `yaml:"snap_threshold"`
}

// JournalConfig selects where committed waypoint lists are journaled.
type JournalConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" | "postgres" | "none"
	DSN      string `yaml:"dsn"`    // postgres connection string; not written back to disk
	Dir      string `yaml:"dir"`    // sqlite directory; empty means next to the document
	KeepLast int    `yaml:"keep_last"`
}

type ExportConfig struct {
	StrokeWidth  float64 `yaml:"stroke_width"`
	MarkerRadius float64 `yaml:"marker_radius"`
	ShowMarkers  bool    `yaml:"show_markers"`
	Margin       float64 `yaml:"margin"`
}

// ServerConfig configures the HTTP routing service.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Secret signs API tokens; never written back to disk.
	Secret          string `yaml:"secret"`
	TokenTTLSeconds int    `yaml:"token_ttl_seconds"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Engine        EngineConfig  `yaml:"engine"`
	Journal       JournalConfig `yaml:"journal"`
	Export        ExportConfig  `yaml:"export"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	o := route.DefaultOptions()
	return AppConfig{
		ConfigVersion: 1,
		Engine: EngineConfig{
			DefaultAlgorithm:  string(route.DefaultAlgorithm),
			Offset:            o.Offset,
			ThresholdMargin:   o.ThresholdMargin,
			Curvature:         o.Curvature,
			SimplifyTolerance: o.SimplifyTolerance,
			NudgeStep:         o.NudgeStep,
			SnapThreshold:     0,
		},
		Journal: JournalConfig{Driver: "sqlite", KeepLast: 50},
		Export:  ExportConfig{StrokeWidth: 2, MarkerRadius: 4, ShowMarkers: false, Margin: 20},
		Server:  ServerConfig{Addr: ":8080", TokenTTLSeconds: 3600},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile     = "EDP_CONFIG"
	EnvAlgorithm      = "EDP_ALGORITHM"
	EnvOffset         = "EDP_OFFSET"
	EnvCurvature      = "EDP_CURVATURE"
	EnvSnapThreshold  = "EDP_SNAP_THRESHOLD"
	EnvJournalDriver  = "EDP_JOURNAL_DRIVER"
	EnvJournalDSN     = "EDP_JOURNAL_DSN"
	EnvJournalKeep    = "EDP_JOURNAL_KEEP"
	EnvExportMarkers  = "EDP_EXPORT_MARKERS"
	EnvExportStroke   = "EDP_EXPORT_STROKE"
	EnvDatabaseURLStd = "DATABASE_URL"
	EnvServerAddr     = "EDP_ADDR"
	EnvAuthSecret     = "EDP_AUTH_SECRET"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "EDP_LOG_LEVEL"
	EnvLogFormat = "EDP_LOG_FORMAT"
	EnvLogSource = "EDP_LOG_SOURCE"
	EnvLogFile   = "EDP_LOG_FILE"
)

// ConfigPath returns the per-user config file path. EDP_CONFIG takes precedence.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "EdgePath")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "EdgePath")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "edgepath")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path. A missing file yields the defaults;
// a malformed one is an error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML. The journal DSN may carry credentials and is never written.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cfg.Journal.DSN = ""
	cfg.Server.Secret = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// engine: zero means "keep default"
	if v := strings.TrimSpace(src.Engine.DefaultAlgorithm); v != "" {
		dst.Engine.DefaultAlgorithm = v
	}
	mergeFloat(&dst.Engine.Offset, src.Engine.Offset)
	mergeFloat(&dst.Engine.ThresholdMargin, src.Engine.ThresholdMargin)
	mergeFloat(&dst.Engine.Curvature, src.Engine.Curvature)
	mergeFloat(&dst.Engine.SimplifyTolerance, src.Engine.SimplifyTolerance)
	mergeFloat(&dst.Engine.NudgeStep, src.Engine.NudgeStep)
	mergeFloat(&dst.Engine.SnapThreshold, src.Engine.SnapThreshold)
	// journal
	if v := strings.TrimSpace(src.Journal.Driver); v != "" {
		dst.Journal.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Journal.DSN); v != "" {
		dst.Journal.DSN = v
	}
	if v := strings.TrimSpace(src.Journal.Dir); v != "" {
		dst.Journal.Dir = v
	}
	if src.Journal.KeepLast != 0 {
		dst.Journal.KeepLast = src.Journal.KeepLast
	}
	// export; booleans copy directly so user preferences persist
	mergeFloat(&dst.Export.StrokeWidth, src.Export.StrokeWidth)
	mergeFloat(&dst.Export.MarkerRadius, src.Export.MarkerRadius)
	mergeFloat(&dst.Export.Margin, src.Export.Margin)
	dst.Export.ShowMarkers = src.Export.ShowMarkers
	// server
	if v := strings.TrimSpace(src.Server.Addr); v != "" {
		dst.Server.Addr = v
	}
	if v := strings.TrimSpace(src.Server.Secret); v != "" {
		dst.Server.Secret = v
	}
	if src.Server.TokenTTLSeconds > 0 {
		dst.Server.TokenTTLSeconds = src.Server.TokenTTLSeconds
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func mergeFloat(dst *float64, src float64) {
	if src != 0 {
		*dst = src
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAlgorithm)); v != "" {
		cfg.Engine.DefaultAlgorithm = v
	}
	envFloat(EnvOffset, &cfg.Engine.Offset)
	envFloat(EnvCurvature, &cfg.Engine.Curvature)
	envFloat(EnvSnapThreshold, &cfg.Engine.SnapThreshold)
	if v := strings.TrimSpace(os.Getenv(EnvJournalDriver)); v != "" {
		cfg.Journal.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalDSN)); v != "" {
		cfg.Journal.DSN = v
	} else if v := strings.TrimSpace(os.Getenv(EnvDatabaseURLStd)); v != "" && cfg.Journal.DSN == "" {
		cfg.Journal.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalKeep)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Journal.KeepLast = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportMarkers)); v != "" {
		cfg.Export.ShowMarkers = truthy(v)
	}
	envFloat(EnvExportStroke, &cfg.Export.StrokeWidth)
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	} else if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAuthSecret)); v != "" {
		cfg.Server.Secret = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func envFloat(key string, dst *float64) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "engine.default_algorithm":
		env = EnvAlgorithm
	case "engine.offset":
		env = EnvOffset
	case "engine.curvature":
		env = EnvCurvature
	case "engine.snap_threshold":
		env = EnvSnapThreshold
	case "journal.driver":
		env = EnvJournalDriver
	case "journal.dsn":
		env = EnvJournalDSN
	case "journal.keep_last":
		env = EnvJournalKeep
	case "export.show_markers":
		env = EnvExportMarkers
	case "export.stroke_width":
		env = EnvExportStroke
	case "server.addr":
		env = EnvServerAddr
	case "server.secret":
		env = EnvAuthSecret
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// Algorithm returns the configured default algorithm, falling back to the
// engine default when the name is unknown.
func (e EngineConfig) Algorithm() route.Algorithm {
	a, err := route.ParseAlgorithm(e.DefaultAlgorithm)
	if err != nil {
		return route.DefaultAlgorithm
	}
	return a
}

// Options converts the engine section to routing options.
func (e EngineConfig) Options() route.Options {
	return route.Options{
		Offset:            e.Offset,
		ThresholdMargin:   e.ThresholdMargin,
		Curvature:         e.Curvature,
		SimplifyTolerance: e.SimplifyTolerance,
		NudgeStep:         e.NudgeStep,
		SnapThreshold:     e.SnapThreshold,
	}.Normalize()
}

// LogOptions converts the logging section for log.Init.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
