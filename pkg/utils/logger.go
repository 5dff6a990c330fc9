package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewNamedLogger returns NewLogger(debug) named after agent, with the agent attached to every entry.
func NewNamedLogger(debug bool, agent string) (*zap.Logger, error) {
	logger, err := NewLogger(debug)
	if err != nil {
		return nil, err
	}
	return logger.Named(agent).With(zap.String("agent", agent)), nil
}
