package app

import (
	"context"
	"time"

	"go.uber.org/fx"

	config "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	corejob "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// LaunchMode selects how the container drives its job.
type LaunchMode int

const (
	// SingleLaunch runs the job once and stops the container.
	SingleLaunch LaunchMode = iota
	// ScheduledLaunch follows schedule.cron when it is set, and falls back to SingleLaunch otherwise.
	ScheduledLaunch
)

type launchParams struct {
	fx.In
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Job        *corejob.Job
	Cfg        *config.Config
	Params     model.RunParameters
	Mode       LaunchMode
	AppCtx     context.Context `name:"appCtx"`
}

// ExitCode maps a finished run to the process exit code.
func ExitCode(run *model.RunExecution, err error) int {
	if err != nil || run == nil || run.Status != model.StatusCompleted {
		return 1
	}
	return 0
}

// startJob registers the hooks that launch the job when the container starts.
func startJob(p launchParams) error {
	if p.Mode == ScheduledLaunch && p.Cfg.Taxi.Schedule.Cron != "" {
		return startScheduled(p)
	}
	startOnce(p)
	return nil
}

func startOnce(p launchParams) {
	done := make(chan struct{})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := 1
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in job execution: %v", r)
					}
					close(done)
					logger.Infof("Requesting application shutdown after job completion.")
					if err := p.Shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()
				run, err := p.Job.Run(p.AppCtx, p.Params)
				code = ExitCode(run, err)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-done:
			case <-ctx.Done():
				logger.Warnf("Job '%s' did not finish before shutdown timeout.", p.Job.Name())
			}
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}

func startScheduled(p launchParams) error {
	loc := time.UTC
	if tz := p.Cfg.Taxi.System.Timezone; tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			logger.Warnf("Unknown timezone '%s', scheduling in UTC: %v", tz, err)
		} else {
			loc = l
		}
	}
	sched, err := NewScheduler(p.Cfg.Taxi.Schedule.Cron, loc, func() {
		// Every tick starts an independent run with its own state.
		if _, err := p.Job.Run(p.AppCtx, p.Params); err != nil {
			logger.Errorf("Scheduled run of '%s' failed: %v", p.Job.Name(), err)
		}
	})
	if err != nil {
		return err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			sched.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Stopping scheduler.")
			return sched.Stop(ctx)
		},
	})
	return nil
}
