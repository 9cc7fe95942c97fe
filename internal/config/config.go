// Package config provides configuration management for the AxisFit service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Sensor   SensorConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
}

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	JWTSecret          string
	JWTAccessTokenTTL  time.Duration
	JWTRefreshTokenTTL time.Duration
}

// SensorConfig holds the posture pipeline tuning knobs. The defaults match
// the 50 Hz dual-IMU hardware; they rarely need changing outside tests.
type SensorConfig struct {
	SampleRateHz        int           // fused output rate
	CompWindowSeconds   int           // compensation index rolling window
	CompScaleDeg        float64       // lumbar/thoracic discrepancy mapped to 100
	AlignerMaxAgeMillis int64         // max sample-and-hold staleness per device
	SyncWindowPoints    int           // clock sync regression window
	SyncMinPoints       int           // pairs needed before fitting a slope
	FlushMaxRows        int           // persist buffer high-water mark
	FlushInterval       time.Duration // persist buffer time bound
	AlertCooldown       time.Duration // per-kind alert suppression window
	RedStreakSeconds    float64       // sustained red before alerting
	CompHighStreak      float64       // sustained high compensation before alerting
	CompHighLevel       float64       // compensation index counted as high
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                   string
	Host                  string
	Port                  string
	Name                  string
	User                  string
	Password              string
	SSLMode               string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL:                   os.Getenv("DATABASE_URL"),
			Host:                  getEnv("DB_HOST", "localhost"),
			Port:                  getEnv("DB_PORT", "5432"),
			Name:                  getEnv("DB_NAME", "axisfit_dev"),
			User:                  getEnv("DB_USER", "axisfit_user"),
			Password:              getEnv("DB_PASSWORD", "axisfit_pass"),
			SSLMode:               getEnv("DB_SSLMODE", "disable"),
			MaxConnections:        getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdleConnections:    getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			ConnectionMaxLifetime: getEnvAsDuration("DB_CONNECTION_MAX_LIFETIME", "5m"),
		},
		Auth: AuthConfig{
			JWTSecret:          GetSecret("JWT_SECRET", "dev-secret-key-change-in-production"),
			JWTAccessTokenTTL:  getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", "1h"),
			JWTRefreshTokenTTL: getEnvAsDuration("JWT_REFRESH_TOKEN_TTL", "720h"), // 30 days
		},
		Sensor: SensorConfig{
			SampleRateHz:        getEnvAsInt("SENSOR_SAMPLE_RATE_HZ", 50),
			CompWindowSeconds:   getEnvAsInt("SENSOR_COMP_WINDOW_S", 10),
			CompScaleDeg:        getEnvAsFloat("SENSOR_COMP_SCALE_DEG", 25),
			AlignerMaxAgeMillis: int64(getEnvAsInt("SENSOR_ALIGNER_MAX_AGE_MS", 250)),
			SyncWindowPoints:    getEnvAsInt("SENSOR_SYNC_WINDOW_POINTS", 200),
			SyncMinPoints:       getEnvAsInt("SENSOR_SYNC_MIN_POINTS", 12),
			FlushMaxRows:        getEnvAsInt("SENSOR_FLUSH_MAX_ROWS", 350),
			FlushInterval:       getEnvAsDuration("SENSOR_FLUSH_INTERVAL", "1s"),
			AlertCooldown:       getEnvAsDuration("SENSOR_ALERT_COOLDOWN", "5s"),
			RedStreakSeconds:    getEnvAsFloat("SENSOR_RED_STREAK_S", 3),
			CompHighStreak:      getEnvAsFloat("SENSOR_COMP_HIGH_STREAK_S", 2),
			CompHighLevel:       getEnvAsFloat("SENSOR_COMP_HIGH_LEVEL", 60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.Sensor.SampleRateHz <= 0 {
		return fmt.Errorf("SENSOR_SAMPLE_RATE_HZ must be positive, got %d", c.Sensor.SampleRateHz)
	}
	if c.Sensor.SampleRateHz > 1000 {
		return fmt.Errorf("SENSOR_SAMPLE_RATE_HZ must be at most 1000, got %d", c.Sensor.SampleRateHz)
	}
	if c.Sensor.CompScaleDeg <= 0 {
		return fmt.Errorf("SENSOR_COMP_SCALE_DEG must be positive, got %v", c.Sensor.CompScaleDeg)
	}
	if c.Sensor.SyncMinPoints > c.Sensor.SyncWindowPoints {
		return fmt.Errorf("SENSOR_SYNC_MIN_POINTS (%d) exceeds SENSOR_SYNC_WINDOW_POINTS (%d)",
			c.Sensor.SyncMinPoints, c.Sensor.SyncWindowPoints)
	}
	return nil
}

// ConnectionString returns the database connection string
func (d *DatabaseConfig) ConnectionString() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value
func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		defaultDuration, _ := time.ParseDuration(defaultValue)
		return defaultDuration
	}
	return value
}
