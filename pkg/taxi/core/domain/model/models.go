// Package model defines the run history of the pipeline: one RunExecution per
// training or prediction run and one StepExecution per step it executed.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

// RunStatus is the lifecycle state of a run or a step.
type RunStatus string

const (
	StatusStarting  RunStatus = "STARTING"
	StatusStarted   RunStatus = "STARTED"
	StatusCompleted RunStatus = "COMPLETED"
	StatusFailed    RunStatus = "FAILED"
	StatusStopped   RunStatus = "STOPPED"
	StatusAbandoned RunStatus = "ABANDONED"
)

func (s RunStatus) String() string { return string(s) }

// IsFinished reports whether s is terminal.
func (s RunStatus) IsFinished() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStopped, StatusAbandoned:
		return true
	default:
		return false
	}
}

// ExitStatus is the outcome recorded when a run or step ends.
type ExitStatus string

const (
	ExitStatusUnknown   ExitStatus = "UNKNOWN"
	ExitStatusCompleted ExitStatus = "COMPLETED"
	ExitStatusFailed    ExitStatus = "FAILED"
	ExitStatusStopped   ExitStatus = "STOPPED"
	ExitStatusAbandoned ExitStatus = "ABANDONED"
	ExitStatusNoOp      ExitStatus = "NO_OP"
)

func (s ExitStatus) String() string { return string(s) }

// FailureList holds distinct failure messages. It is stored as a JSON array.
type FailureList []string

// Value implements driver.Valuer.
func (fl FailureList) Value() (driver.Value, error) {
	if fl == nil {
		return "[]", nil
	}
	data, err := json.Marshal(fl)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (fl *FailureList) Scan(value interface{}) error {
	b, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("FailureList: %w", err)
	}
	*fl = FailureList{}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, fl)
}

// RunParameters are the inputs a run was launched with (input paths, test size, ...).
// They are stored as a JSON object.
type RunParameters map[string]string

// Value implements driver.Valuer.
func (p RunParameters) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(map[string]string(p))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (p *RunParameters) Scan(value interface{}) error {
	b, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("RunParameters: %w", err)
	}
	*p = RunParameters{}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, (*map[string]string)(p))
}

// String renders the parameters sorted by key.
func (p RunParameters) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + p[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported Scan type %T", value)
	}
}

// RunExecution is one execution of a job.
type RunExecution struct {
	ID          string
	JobName     string
	Parameters  RunParameters
	Status      RunStatus
	ExitStatus  ExitStatus
	Failures    FailureList
	// NRows is the number of rows the run trained or predicted on.
	NRows int
	// RMSE is the held-out error of a training run. Nil for prediction runs and failed runs.
	RMSE        *float64
	CreateTime  time.Time
	StartTime   *time.Time
	EndTime     *time.Time
	LastUpdated time.Time
	Version     int

	StepExecutions []*StepExecution
}

// StepExecution is one execution of a step within a run.
type StepExecution struct {
	ID             string
	RunExecutionID string
	StepName       string
	Status         RunStatus
	ExitStatus     ExitStatus
	Failures       FailureList
	ReadCount      int
	WriteCount     int
	StartTime      *time.Time
	EndTime        *time.Time
	LastUpdated    time.Time
	Version        int
}

// NewID returns a random UUID string.
func NewID() string {
	return uuid.New().String()
}

// NewRunExecution creates a run in STARTING state.
func NewRunExecution(jobName string, params RunParameters) *RunExecution {
	now := time.Now()
	if params == nil {
		params = RunParameters{}
	}
	return &RunExecution{
		ID:          NewID(),
		JobName:     jobName,
		Parameters:  params,
		Status:      StatusStarting,
		ExitStatus:  ExitStatusUnknown,
		Failures:    FailureList{},
		CreateTime:  now,
		LastUpdated: now,
	}
}

// NewStepExecution creates a step of run in STARTING state and attaches it to the run.
func NewStepExecution(run *RunExecution, stepName string) *StepExecution {
	se := &StepExecution{
		ID:             NewID(),
		RunExecutionID: run.ID,
		StepName:       stepName,
		Status:         StatusStarting,
		ExitStatus:     ExitStatusUnknown,
		Failures:       FailureList{},
		LastUpdated:    time.Now(),
	}
	run.StepExecutions = append(run.StepExecutions, se)
	return se
}

// isValidTransition is shared by runs and steps: STARTING may start or end
// abnormally, STARTED may end in any way, terminal states never change.
func isValidTransition(current, next RunStatus) bool {
	switch current {
	case StatusStarting:
		return next == StatusStarted || next == StatusFailed || next == StatusStopped || next == StatusAbandoned
	case StatusStarted:
		return next == StatusCompleted || next == StatusFailed || next == StatusStopped || next == StatusAbandoned
	default:
		return false
	}
}

// TransitionTo changes the status, rejecting invalid transitions.
func (re *RunExecution) TransitionTo(next RunStatus) error {
	if !isValidTransition(re.Status, next) {
		return exception.Newf(exception.KindModel, "run", "RunExecution (ID: %s): invalid state transition: %s -> %s", re.ID, re.Status, next)
	}
	re.Status = next
	return nil
}

// MarkAsStarted moves the run to STARTED and stamps its start time.
func (re *RunExecution) MarkAsStarted() {
	if err := re.TransitionTo(StatusStarted); err != nil {
		logger.Warnf("Could not update RunExecution (ID: %s) status to STARTED: %v", re.ID, err)
		return
	}
	now := time.Now()
	re.StartTime = &now
	re.LastUpdated = now
}

// MarkAsCompleted ends the run successfully.
func (re *RunExecution) MarkAsCompleted() {
	re.finish(StatusCompleted, ExitStatusCompleted)
}

// MarkAsFailed ends the run with err recorded as a failure.
func (re *RunExecution) MarkAsFailed(err error) {
	re.finish(StatusFailed, ExitStatusFailed)
	re.AddFailureException(err)
}

// MarkAsStopped ends the run after cancellation.
func (re *RunExecution) MarkAsStopped() {
	re.finish(StatusStopped, ExitStatusStopped)
}

func (re *RunExecution) finish(status RunStatus, exit ExitStatus) {
	if err := re.TransitionTo(status); err != nil {
		logger.Warnf("Could not update RunExecution (ID: %s) status to %s: %v", re.ID, status, err)
		return
	}
	re.ExitStatus = exit
	now := time.Now()
	re.EndTime = &now
	re.LastUpdated = now
}

// AddFailureException records err unless the same message is already present.
func (re *RunExecution) AddFailureException(err error) {
	if added := addFailure(&re.Failures, err); added {
		re.LastUpdated = time.Now()
	}
}

// Duration returns the wall time between start and end, or zero while running.
func (re *RunExecution) Duration() time.Duration {
	if re.StartTime == nil || re.EndTime == nil {
		return 0
	}
	return re.EndTime.Sub(*re.StartTime)
}

// TransitionTo changes the status, rejecting invalid transitions.
func (se *StepExecution) TransitionTo(next RunStatus) error {
	if !isValidTransition(se.Status, next) {
		return exception.Newf(exception.KindModel, "run", "StepExecution (ID: %s): invalid state transition: %s -> %s", se.ID, se.Status, next)
	}
	se.Status = next
	return nil
}

// MarkAsStarted moves the step to STARTED and stamps its start time.
func (se *StepExecution) MarkAsStarted() {
	if err := se.TransitionTo(StatusStarted); err != nil {
		logger.Warnf("Could not update StepExecution (ID: %s) status to STARTED: %v", se.ID, err)
		return
	}
	now := time.Now()
	se.StartTime = &now
	se.LastUpdated = now
}

// MarkAsCompleted ends the step with the tasklet's exit status.
func (se *StepExecution) MarkAsCompleted(exit ExitStatus) {
	if exit == "" || exit == ExitStatusUnknown {
		exit = ExitStatusCompleted
	}
	se.finish(StatusCompleted, exit)
}

// MarkAsFailed ends the step with err recorded as a failure.
func (se *StepExecution) MarkAsFailed(err error) {
	se.finish(StatusFailed, ExitStatusFailed)
	if addFailure(&se.Failures, err) {
		se.LastUpdated = time.Now()
	}
}

// MarkAsStopped ends the step after cancellation.
func (se *StepExecution) MarkAsStopped() {
	se.finish(StatusStopped, ExitStatusStopped)
}

func (se *StepExecution) finish(status RunStatus, exit ExitStatus) {
	if err := se.TransitionTo(status); err != nil {
		logger.Warnf("Could not update StepExecution (ID: %s) status to %s: %v", se.ID, status, err)
		return
	}
	se.ExitStatus = exit
	now := time.Now()
	se.EndTime = &now
	se.LastUpdated = now
}

func addFailure(list *FailureList, err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, existing := range *list {
		if existing == msg {
			logger.Debugf("Skipped adding duplicate failure '%s'.", msg)
			return false
		}
	}
	*list = append(*list, msg)
	return true
}
