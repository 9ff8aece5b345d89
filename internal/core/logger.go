package core

import (
	"log/slog"

	"messengerbot/internal/types"
)

// SlogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog.Logger satisfies Info, Error and Warn, but its With returns
// *slog.Logger rather than types.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter returns a types.Logger backed by logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *SlogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *SlogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *SlogAdapter) With(args ...any) types.Logger {
	return &SlogAdapter{logger: a.logger.With(args...)}
}

var _ types.Logger = (*SlogAdapter)(nil)
