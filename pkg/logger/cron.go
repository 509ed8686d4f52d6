package logger

import "go.uber.org/zap"

// CronLogger adapts zap to robfig/cron's Logger interface.
type CronLogger struct {
	s *zap.SugaredLogger
}

func NewCronLogger(name string) CronLogger {
	return CronLogger{s: Named(name).Sugar()}
}

func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
