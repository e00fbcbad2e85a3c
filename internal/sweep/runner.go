package sweep

import (
	"context"

	"github.com/robfig/cron/v3"

	"trade-journal-linker/pkg/logger"
)

// Runner schedules jobs on a seconds-resolution cron. A job still running
// when its next tick fires is skipped for that tick.
type Runner struct {
	cron    *cron.Cron
	logger  logger.Logger
	baseCtx context.Context
}

// NewRunner builds a runner whose jobs receive baseCtx
func NewRunner(log logger.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("cron")
	cl := cronLogger{log: log}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  log,
		baseCtx: baseCtx,
	}
}

// Add schedules job on a cron expression or descriptor
func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		job(r.baseCtx)
	})
}

// Entries returns the number of scheduled jobs
func (r *Runner) Entries() int {
	return len(r.cron.Entries())
}

// Start begins firing scheduled jobs
func (r *Runner) Start() {
	r.logger.Info("cron started")
	r.cron.Start()
}

// Stop waits for running jobs to finish
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("cron stopped")
}

// cronLogger routes robfig/cron's own logging into the application logger
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(keysAndValues []interface{}) logger.Fields {
	fields := make(logger.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
