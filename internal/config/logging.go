package config

// LoggingConfig controls the per-category debug logs written under Dir. The
// CLI's own stderr logging is separate and follows --verbose.
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level,omitempty"`
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode,omitempty"`
	Dir        string          `yaml:"dir" json:"dir,omitempty"`
	JSONFormat bool            `yaml:"json_format" json:"json_format,omitempty"`
	Categories map[string]bool `yaml:"categories,omitempty" json:"categories,omitempty"`
}

// IsCategoryEnabled reports whether lines for category (boot, extract,
// output, store or watch) reach a file. Nothing is written unless debug_mode
// is on; a category missing from the categories map counts as on, so the map
// is only needed to silence noisy ones.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	on, listed := c.Categories[category]
	return !listed || on
}
