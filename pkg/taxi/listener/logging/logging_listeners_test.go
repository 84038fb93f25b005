package logging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	logger "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

func TestLoggingListeners(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	ctx := context.Background()
	run := model.NewRunExecution("taxi-train", model.RunParameters{"test_size": "0.2"})
	run.MarkAsStarted()
	step := model.NewStepExecution(run, "load")
	step.MarkAsStarted()
	step.ReadCount = 42
	step.MarkAsCompleted(model.ExitStatusCompleted)

	NewLoggingRunListener().BeforeRun(ctx, run)
	NewLoggingStepListener().BeforeStep(ctx, step)
	NewLoggingStepListener().AfterStep(ctx, step)
	run.MarkAsFailed(errors.New("disk full"))
	NewLoggingRunListener().AfterRun(ctx, run)

	out := buf.String()
	assert.Contains(t, out, "BeforeRun - JobName: taxi-train")
	assert.Contains(t, out, "test_size=0.2")
	assert.Contains(t, out, "StepName: load, Status: COMPLETED")
	assert.Contains(t, out, "Read: 42")
	assert.Contains(t, out, "Failures: disk full")
}
