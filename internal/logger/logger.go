// Package logger builds the process-wide zap logger.
package logger

import "go.uber.org/zap"

// New returns a production logger when env is "production" and a
// development logger otherwise.
func New(env string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if env == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}
