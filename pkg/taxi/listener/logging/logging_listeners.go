// Package logging provides run and step listeners that write to the logger.
package logging

import (
	"context"
	"strings"

	job "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/job"
	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// --- Run Listener ---

type LoggingRunListener struct{}

func NewLoggingRunListener() job.RunListener {
	return &LoggingRunListener{}
}

func (l *LoggingRunListener) BeforeRun(ctx context.Context, run *model.RunExecution) {
	logger.Infof("RunListener: BeforeRun - JobName: %s, ID: %s, Params: %s", run.JobName, run.ID, run.Parameters)
}

func (l *LoggingRunListener) AfterRun(ctx context.Context, run *model.RunExecution) {
	if len(run.Failures) > 0 {
		logger.Errorf("RunListener: AfterRun - JobName: %s, Status: %s, Failures: %s", run.JobName, run.Status, strings.Join(run.Failures, "; "))
		return
	}
	logger.Infof("RunListener: AfterRun - JobName: %s, Status: %s, ExitStatus: %s, Rows: %d", run.JobName, run.Status, run.ExitStatus, run.NRows)
}

var _ job.RunListener = (*LoggingRunListener)(nil)

// --- Step Listener ---

type LoggingStepListener struct{}

func NewLoggingStepListener() job.StepListener {
	return &LoggingStepListener{}
}

func (l *LoggingStepListener) BeforeStep(ctx context.Context, step *model.StepExecution) {
	logger.Infof("StepListener: BeforeStep - StepName: %s, ID: %s", step.StepName, step.ID)
}

func (l *LoggingStepListener) AfterStep(ctx context.Context, step *model.StepExecution) {
	var elapsed string
	if step.StartTime != nil && step.EndTime != nil {
		elapsed = step.EndTime.Sub(*step.StartTime).String()
	}
	logger.Infof("StepListener: AfterStep - StepName: %s, Status: %s, ExitStatus: %s, Read: %d, Write: %d, Elapsed: %s",
		step.StepName, step.Status, step.ExitStatus, step.ReadCount, step.WriteCount, elapsed)
}

var _ job.StepListener = (*LoggingStepListener)(nil)
