// Package notification reports the outcome of every finished run.
package notification

import (
	"context"
	"fmt"
	"strconv"

	job "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// Notifier delivers a run summary somewhere a human will see it.
type Notifier interface {
	NotifyRunCompletion(ctx context.Context, run *model.RunExecution)
}

// LogNotifier writes the summary to the application log.
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier() Notifier {
	return &LogNotifier{}
}

// NotifyRunCompletion logs one line per run: INFO when it completed, WARN otherwise.
func (n *LogNotifier) NotifyRunCompletion(_ context.Context, run *model.RunExecution) {
	msg := Summary(run)
	if run.Status == model.StatusCompleted {
		logger.Infof("%s", msg)
		return
	}
	logger.Warnf("%s", msg)
}

// Summary renders the outcome of run on one line.
func Summary(run *model.RunExecution) string {
	rmse := "n/a"
	if run.RMSE != nil {
		rmse = strconv.FormatFloat(*run.RMSE, 'f', 4, 64)
	}
	return fmt.Sprintf("Run '%s' (ID: %s) finished with Status: %s, ExitStatus: %s. Rows: %d, RMSE: %s, Duration: %s, Failures: %d",
		run.JobName, run.ID, run.Status, run.ExitStatus, run.NRows, rmse, run.Duration(), len(run.Failures))
}

// RunListener hands every finished run to a Notifier.
type RunListener struct {
	notifier Notifier
}

// NewRunListener creates a RunListener around notifier.
func NewRunListener(notifier Notifier) job.RunListener {
	return &RunListener{notifier: notifier}
}

// BeforeRun does nothing.
func (l *RunListener) BeforeRun(context.Context, *model.RunExecution) {}

// AfterRun notifies.
func (l *RunListener) AfterRun(ctx context.Context, run *model.RunExecution) {
	l.notifier.NotifyRunCompletion(ctx, run)
}

var _ job.RunListener = (*RunListener)(nil)
