// Package config loads runtime configuration from file, environment, and
// defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every tunable of the recognition pipeline.
type Config struct {
	// VehicleModel and PlateModel are paths to the ONNX detection weights.
	VehicleModel string `mapstructure:"vehicle_model"`
	PlateModel   string `mapstructure:"plate_model"`

	// VehicleClasses maps detector class ids to labels.
	VehicleClasses []string `mapstructure:"vehicle_classes"`

	// OCRLanguages are the Tesseract languages for the plate-number reader.
	OCRLanguages []string `mapstructure:"ocr_languages"`

	// MinConfidence is the detection threshold for both detectors.
	MinConfidence float64 `mapstructure:"min_confidence"`

	// SkipFrames is the video sampling stride.
	SkipFrames int `mapstructure:"skip_frames"`

	// CropsDir receives plate crop PNGs; empty disables saving.
	CropsDir string `mapstructure:"crops_dir"`

	// ArtifactsDir receives debug artifacts; empty disables recording.
	ArtifactsDir string `mapstructure:"artifacts_dir"`

	// GovernorateTable optionally overrides the built-in code table.
	GovernorateTable string `mapstructure:"governorate_table"`

	// OutputDir receives processed videos.
	OutputDir string `mapstructure:"output_dir"`
}

// Load reads configuration from the given file (optional), the environment
// (LPR_ prefix), and defaults, in increasing priority of env over file over
// defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("vehicle_model", "models/vehicle_seg.onnx")
	v.SetDefault("plate_model", "models/plate_detect.onnx")
	v.SetDefault("vehicle_classes", []string{"car", "pickup", "truck"})
	v.SetDefault("ocr_languages", []string{"ara", "eng"})
	v.SetDefault("min_confidence", 0.4)
	v.SetDefault("skip_frames", 2)
	v.SetDefault("crops_dir", "")
	v.SetDefault("artifacts_dir", "")
	v.SetDefault("governorate_table", "")
	v.SetDefault("output_dir", "output")

	v.SetEnvPrefix("LPR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("lpr")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MinConfidence <= 0 || cfg.MinConfidence > 1 {
		return nil, fmt.Errorf("min_confidence must be in (0,1], got %v", cfg.MinConfidence)
	}
	if cfg.SkipFrames < 0 {
		return nil, fmt.Errorf("skip_frames must be >= 0, got %d", cfg.SkipFrames)
	}
	return &cfg, nil
}
