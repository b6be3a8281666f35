package config

import (
	"fmt"
	"time"

	"recognition-api/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all runtime settings as typed fields. Thresholds and
// timeouts are resolved once at load; call sites never walk string paths.
type Config struct {
	ServerAddress string `mapstructure:"server_address"`
	DBSource      string `mapstructure:"db_source"`

	Confidence ConfidenceConfig `mapstructure:"confidence"`
	Sources    SourceConfig     `mapstructure:"sources"`
	Trainer    TrainerConfig    `mapstructure:"trainer"`

	// BusinessPriorities is a ranked list; table order is the tie-break and
	// must be preserved as configured.
	BusinessPriorities []models.BusinessPriorityEntry `mapstructure:"business_priorities"`

	// CorrectionRadiusDeg is the half-width of the coordinate bucket used
	// when looking up prior corrections. Raw degree deltas, roughly 100m
	// near the equator.
	CorrectionRadiusDeg float64 `mapstructure:"correction_radius_deg"`
}

// ConfidenceConfig carries the minimum acceptable confidence per source and
// a global floor below which no candidate is ever selectable.
type ConfidenceConfig struct {
	Minimum        float64 `mapstructure:"minimum"`
	ExifGPS        float64 `mapstructure:"exif_gps"`
	ExifBinary     float64 `mapstructure:"exif_binary"`
	KnownLocation  float64 `mapstructure:"known_location"`
	AILandmark     float64 `mapstructure:"ai_landmark"`
	AILogo         float64 `mapstructure:"ai_logo"`
	AITextBusiness float64 `mapstructure:"ai_text_business"`
	AITextAddress  float64 `mapstructure:"ai_text_address"`
	ClaudeFreeText float64 `mapstructure:"claude_free_text"`
	DeviceFallback float64 `mapstructure:"device_fallback"`
}

// SourceConfig carries per-source call settings for the outbound signal
// services. A timeout on one source only drops that source's candidate.
type SourceConfig struct {
	VisionURL     string        `mapstructure:"vision_url"`
	VisionTimeout time.Duration `mapstructure:"vision_timeout"`
	AITextURL     string        `mapstructure:"ai_text_url"`
	AITextTimeout time.Duration `mapstructure:"ai_text_timeout"`
}

// TrainerConfig carries settings for the external ML trainer.
type TrainerConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BatchSize       int           `mapstructure:"batch_size"`
	RetrainMinQueue int           `mapstructure:"retrain_min_queue"`
}

// Threshold returns the configured minimum confidence for a source.
func (c ConfidenceConfig) Threshold(source models.SourceKind) (float64, bool) {
	switch source {
	case models.SourceExifGPS:
		return c.ExifGPS, true
	case models.SourceExifBinary:
		return c.ExifBinary, true
	case models.SourceKnownLocation:
		return c.KnownLocation, true
	case models.SourceAILandmark:
		return c.AILandmark, true
	case models.SourceAILogo:
		return c.AILogo, true
	case models.SourceAITextBusiness:
		return c.AITextBusiness, true
	case models.SourceAITextAddress:
		return c.AITextAddress, true
	case models.SourceClaudeFreeText:
		return c.ClaudeFreeText, true
	case models.SourceDeviceFallback:
		return c.DeviceFallback, true
	}
	return 0, false
}

// LoadConfig reads configuration from the given directory and the
// environment, applies defaults, and validates it. A missing per-source
// threshold is a startup error: admitting unvetted candidates silently is
// worse than refusing to start.
func LoadConfig(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("server_address", "0.0.0.0:8080")
	viper.SetDefault("correction_radius_deg", 0.001)

	viper.SetDefault("confidence.minimum", 0.3)
	viper.SetDefault("confidence.exif_gps", 0.95)
	viper.SetDefault("confidence.exif_binary", 0.9)
	viper.SetDefault("confidence.known_location", 0.95)
	viper.SetDefault("confidence.ai_landmark", 0.7)
	viper.SetDefault("confidence.ai_logo", 0.75)
	viper.SetDefault("confidence.ai_text_business", 0.65)
	viper.SetDefault("confidence.ai_text_address", 0.6)
	viper.SetDefault("confidence.claude_free_text", 0.5)
	viper.SetDefault("confidence.device_fallback", 0.3)

	viper.SetDefault("sources.vision_timeout", 10*time.Second)
	viper.SetDefault("sources.ai_text_timeout", 15*time.Second)

	viper.SetDefault("trainer.timeout", 10*time.Second)
	viper.SetDefault("trainer.batch_size", 50)
	viper.SetDefault("trainer.retrain_min_queue", 5)
}

// Validate checks the invariants the arbiter relies on. Threshold errors are
// fatal; a global floor above a per-source threshold is a data warning, not
// a crash condition.
func (c Config) Validate() error {
	for _, source := range models.AllSourceKinds {
		threshold, ok := c.Confidence.Threshold(source)
		if !ok {
			return fmt.Errorf("config: no confidence threshold for source %q", source)
		}
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("config: threshold for source %q out of range: %f", source, threshold)
		}
		if c.Confidence.Minimum > threshold {
			log.Warn().
				Str("source", string(source)).
				Float64("threshold", threshold).
				Float64("minimum", c.Confidence.Minimum).
				Msg("global confidence floor exceeds per-source threshold")
		}
	}

	if c.Confidence.Minimum < 0 || c.Confidence.Minimum > 1 {
		return fmt.Errorf("config: global confidence minimum out of range: %f", c.Confidence.Minimum)
	}

	if c.Trainer.BatchSize <= 0 {
		return fmt.Errorf("config: trainer batch size must be positive, got %d", c.Trainer.BatchSize)
	}

	if c.CorrectionRadiusDeg <= 0 {
		return fmt.Errorf("config: correction radius must be positive, got %f", c.CorrectionRadiusDeg)
	}

	return nil
}
