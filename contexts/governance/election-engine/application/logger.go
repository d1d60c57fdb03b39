package application

import "log/slog"

// ModuleName tags every log line emitted by the election engine.
const ModuleName = "governance/election-engine"

// ResolveLogger falls back to the process default when no logger was wired.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
