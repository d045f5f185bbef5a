package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	defaultDataDir          = "./pb_data"
	defaultDashboardWorkers = 4
)

type Config struct {
	DataDir          string
	Seed             bool
	DashboardWorkers int
}

// Load reads an optional .env file and then the FIBERTRACK_* environment
// variables. Unparseable values fall back to their defaults.
func Load() *Config {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) *Config {
	cfg := &Config{
		DataDir:          getenv("FIBERTRACK_DATA_DIR"),
		Seed:             true,
		DashboardWorkers: defaultDashboardWorkers,
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}

	if raw := getenv("FIBERTRACK_SEED"); raw != "" {
		seed, err := cast.ToBoolE(raw)
		if err != nil {
			log.Printf("config: FIBERTRACK_SEED=%q is not a boolean, using true", raw)
		} else {
			cfg.Seed = seed
		}
	}

	if raw := getenv("FIBERTRACK_DASHBOARD_WORKERS"); raw != "" {
		workers, err := cast.ToIntE(raw)
		if err != nil || workers < 1 {
			log.Printf("config: FIBERTRACK_DASHBOARD_WORKERS=%q is not a positive integer, using %d", raw, defaultDashboardWorkers)
		} else {
			cfg.DashboardWorkers = workers
		}
	}

	return cfg
}
