package app

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	exception "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// cronParser accepts the standard five-field expressions (minute hour dom month dow)
// and descriptors such as @daily.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// cronLogger forwards the scheduler's own messages to the package logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debugf("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Errorf("cron: %s: %v %v", msg, err, keysAndValues)
}

// Scheduler launches one run per cron tick. A tick that fires while the
// previous run is still going is skipped.
type Scheduler struct {
	cron *cron.Cron
	spec string
}

// NewScheduler parses spec and registers run on it. loc is the zone the
// expression is evaluated in; nil means UTC.
func NewScheduler(spec string, loc *time.Location, run func()) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	if _, err := c.AddFunc(spec, run); err != nil {
		return nil, exception.New(exception.KindConfig, moduleName, "invalid schedule '"+spec+"'", err)
	}
	return &Scheduler{cron: c, spec: spec}, nil
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		logger.Infof("Scheduled runs (cron: %s). Next at %s.", s.spec, e.Next.Format(time.RFC3339))
	}
}

// Stop prevents further ticks and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
