package logger

import "go.uber.org/zap"

// New creates a zap logger: JSON production output in production, development output otherwise
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}
