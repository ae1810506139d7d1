package bot

import (
	"fmt"
	"log/slog"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// slogWALogger routes whatsmeow logs to the default slog logger.
type slogWALogger struct {
	module string
}

func newWALogger(module string) waLog.Logger {
	return slogWALogger{module: module}
}

func (l slogWALogger) Warnf(msg string, args ...any) {
	slog.Warn(fmt.Sprintf(msg, args...), "module", l.module)
}

func (l slogWALogger) Errorf(msg string, args ...any) {
	slog.Error(fmt.Sprintf(msg, args...), "module", l.module)
}

func (l slogWALogger) Infof(msg string, args ...any) {
	slog.Info(fmt.Sprintf(msg, args...), "module", l.module)
}

func (l slogWALogger) Debugf(msg string, args ...any) {
	slog.Debug(fmt.Sprintf(msg, args...), "module", l.module)
}

func (l slogWALogger) Sub(module string) waLog.Logger {
	return slogWALogger{module: l.module + "/" + module}
}
