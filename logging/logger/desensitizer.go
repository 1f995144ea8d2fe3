package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const maskValue = "******"

var defaultSensitiveFields = []string{
	"password", "passwd", "pwd",
	"secret", "token", "authorization",
	"api_key", "apikey",
}

// Desensitizer is a logrus hook masking values of sensitive fields
// before the entry is formatted.
type Desensitizer struct {
	fields []string
}

// NewDesensitizer creates a hook masking the default sensitive fields plus extra.
func NewDesensitizer(extra ...string) *Desensitizer {
	fields := make([]string, 0, len(defaultSensitiveFields)+len(extra))
	fields = append(fields, defaultSensitiveFields...)
	for _, f := range extra {
		fields = append(fields, strings.ToLower(f))
	}
	return &Desensitizer{fields: fields}
}

// Levels returns all log levels
func (d *Desensitizer) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire masks sensitive fields in place
func (d *Desensitizer) Fire(entry *logrus.Entry) error {
	for key, value := range entry.Data {
		if value == nil || !d.isSensitiveField(key) {
			continue
		}
		entry.Data[key] = maskValue
	}
	return nil
}

func (d *Desensitizer) isSensitiveField(key string) bool {
	lower := strings.ToLower(key)
	for _, f := range d.fields {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
