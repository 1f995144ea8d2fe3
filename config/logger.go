package config

import (
	"github.com/spf13/viper"
)

// Logger logger config struct
type Logger struct {
	Level      int       `json:"level" yaml:"level" validate:"gte=0,lte=6"`
	Format     string    `json:"format" yaml:"format" validate:"oneof=text json"`
	Output     string    `json:"output" yaml:"output" validate:"oneof=stdout stderr file"`
	OutputFile string    `json:"output_file" yaml:"output_file" validate:"required_if=Output file"`
	Index      *LogIndex `json:"index" yaml:"index"`
}

// LogIndex ships log entries to an Elasticsearch index of the configured
// cluster. Shipping is off when Name is empty.
type LogIndex struct {
	Name        string `json:"name" yaml:"name"`
	DateSuffix  string `json:"date_suffix" yaml:"date_suffix"`
	RotateDaily bool   `json:"rotate_daily" yaml:"rotate_daily"`
	Level       int    `json:"level" yaml:"level" validate:"gte=0,lte=6"`
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:      getIntOrDefault(v, "logger.level", 4),
		Format:     getStringOrDefault(v, "logger.format", "text"),
		Output:     getStringOrDefault(v, "logger.output", "stderr"),
		OutputFile: v.GetString("logger.output_file"),
		Index: &LogIndex{
			Name:        v.GetString("logger.index.name"),
			DateSuffix:  getStringOrDefault(v, "logger.index.date_suffix", "2006.01.02"),
			RotateDaily: v.GetBool("logger.index.rotate_daily"),
			Level:       getIntOrDefault(v, "logger.index.level", 3),
		},
	}
}
