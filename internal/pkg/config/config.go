package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Engine EngineConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=fleet_engine"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// EngineConfig carries the route-costing and geofencing tunables. The engine
// never reads the environment itself; this struct is resolved once at startup
// and passed in by value.
type EngineConfig struct {
	// AvgSpeedKmh is the assumed average urban driving speed.
	AvgSpeedKmh float64 `env:"ENGINE_AVG_SPEED_KMH, default=30"`
	// FuelKmPerLiter is the assumed average fuel consumption.
	FuelKmPerLiter float64 `env:"ENGINE_FUEL_KM_PER_LITER, default=10"`
	// FuelPricePerLiter is the unit fuel price in BRL.
	FuelPricePerLiter float64 `env:"ENGINE_FUEL_PRICE, default=5.80"`
	// ServiceTimeMin is the fixed handling time added per stop.
	ServiceTimeMin float64 `env:"ENGINE_SERVICE_TIME_MIN, default=5"`
	// UrbanFactor scales great-circle distance to approximate street routing.
	UrbanFactor float64 `env:"ENGINE_URBAN_FACTOR, default=1.3"`
	// DebounceSec suppresses repeated geofence flips within the window.
	DebounceSec int `env:"ENGINE_GEOFENCE_DEBOUNCE_SEC, default=30"`
	// DwellLimitMin is the default dwell-exceeded threshold.
	DwellLimitMin int `env:"ENGINE_DWELL_LIMIT_MIN, default=15"`
	// PositionHistoryLimit caps the per-driver most-recent-N position history.
	PositionHistoryLimit int `env:"ENGINE_POSITION_HISTORY_LIMIT, default=100"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
