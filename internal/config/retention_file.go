package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/JustinTDCT/CineSweep/internal/models"
)

// RetentionFile is the on-disk form used by one-shot CLI runs.
type RetentionFile struct {
	Libraries []*models.RetentionConfig `yaml:"libraries"`
}

// LoadRetentionFile reads library retention rules from a YAML file. Missing
// granularity and time basis default to episode and added; every entry must
// validate.
func LoadRetentionFile(path string) ([]*models.RetentionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read retention file: %w", err)
	}
	return ParseRetention(data)
}

func ParseRetention(data []byte) ([]*models.RetentionConfig, error) {
	var f RetentionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse retention file: %w", err)
	}
	for i, c := range f.Libraries {
		if c == nil {
			return nil, fmt.Errorf("libraries[%d]: empty entry", i)
		}
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.Granularity == "" {
			c.Granularity = models.GranularityEpisode
		}
		if c.TimeBasis == "" {
			c.TimeBasis = models.BasisAdded
		}
		if _, err := c.Validate(); err != nil {
			return nil, fmt.Errorf("libraries[%d]: %w", i, err)
		}
	}
	return f.Libraries, nil
}
