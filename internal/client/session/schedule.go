package session

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pinshare/internal/logging"
	"github.com/robfig/cron/v3"
)

// every fires at a fixed interval after the previous activation. Unlike
// cron.Every it does not round to whole seconds.
type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// cronLogger routes cron's internal messages to a logging.Logger.
type cronLogger struct {
	log logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(context.Background(), msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(context.Background(), msg, append(keysAndValues, "error", err)...)
}

func newCron(log logging.Logger) *cron.Cron {
	l := cronLogger{log: log}
	return cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
}
