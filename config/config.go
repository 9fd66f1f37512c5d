package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`
	ForecastDir  string `json:"forecast_dir"`
	DBPath       string `json:"db_path"`

	OnlineTools  bool `json:"online_tools"`
	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`

	Strategy StrategyConfig `json:"strategy"`
}

// StrategyConfig holds the simulation knobs. Zero values fall back to
// the built-in defaults when a run is configured.
type StrategyConfig struct {
	InitialCapital    float64 `json:"initial_capital"`
	ForecastEpsilon   float64 `json:"forecast_epsilon"`
	BaseFraction      float64 `json:"base_fraction"`
	BootstrapFraction float64 `json:"bootstrap_fraction"`
	TakeProfitPct     float64 `json:"take_profit_pct"`
	StopLossPct       float64 `json:"stop_loss_pct"`
	StrongAdversePct  float64 `json:"strong_adverse_pct"`
	RiskFreeRate      float64 `json:"risk_free_rate"`
	RequireTrendUp    bool    `json:"require_trend_up"`
	LiquidityFallback bool    `json:"liquidity_fallback"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

// DefaultConfigWithRoot builds the default configuration rooted at the
// given directory, without consulting the environment.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir:   root,
		ResultsDir:   filepath.Join(root, "results"),
		DataDir:      filepath.Join(root, "data"),
		DataCacheDir: filepath.Join(root, "data", "cache"),
		ForecastDir:  filepath.Join(root, "data", "forecasts"),
		DBPath:       filepath.Join(root, "data", "stockfolio.db"),

		OnlineTools:  true,
		CacheEnabled: true,
		Debug:        false,

		Strategy: StrategyConfig{
			InitialCapital:    100000,
			ForecastEpsilon:   1e-4,
			BaseFraction:      0.10,
			BootstrapFraction: 0.03,
			TakeProfitPct:     0.20,
			StopLossPct:       0.07,
			StrongAdversePct:  0.01,
			RiskFreeRate:      0.02,
			LiquidityFallback: true,
		},
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}
	if val := os.Getenv("FORECAST_DIR"); val != "" {
		c.ForecastDir = val
	}
	if val := os.Getenv("STOCKFOLIO_DB_PATH"); val != "" {
		c.DBPath = val
	}

	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if cache, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = cache
		}
	}
	if val := os.Getenv("ONLINE_TOOLS"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.OnlineTools = enabled
		}
	}
	if val := os.Getenv("STOCKFOLIO_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("INITIAL_CAPITAL"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.Strategy.InitialCapital = v
		}
	}
	if val := os.Getenv("RISK_FREE_RATE"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.Strategy.RiskFreeRate = v
		}
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	s := c.Strategy
	if s.InitialCapital < 0 {
		return fmt.Errorf("initial_capital cannot be negative: %f", s.InitialCapital)
	}
	fractions := map[string]float64{
		"base_fraction":      s.BaseFraction,
		"bootstrap_fraction": s.BootstrapFraction,
		"take_profit_pct":    s.TakeProfitPct,
		"stop_loss_pct":      s.StopLossPct,
		"strong_adverse_pct": s.StrongAdversePct,
	}
	for name, f := range fractions {
		if f < 0 || f > 1 {
			return fmt.Errorf("%s must be in [0, 1]: %f", name, f)
		}
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataDir, c.DataCacheDir, c.ForecastDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	if db := strings.TrimSpace(c.DBPath); db != "" {
		if err := os.MkdirAll(filepath.Dir(db), 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", filepath.Dir(db), err)
		}
	}
	return nil
}
