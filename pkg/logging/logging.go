package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the process logger. Production environments get JSON output at
// Info level; everything else gets the console encoder at Debug.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
