package sql

import (
	"time"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
)

// RunExecutionEntity is the persisted form of model.RunExecution.
type RunExecutionEntity struct {
	ID          string              `gorm:"column:id;primaryKey"`
	JobName     string              `gorm:"column:job_name"`
	Status      model.RunStatus     `gorm:"column:status"`
	ExitStatus  model.ExitStatus    `gorm:"column:exit_status"`
	Parameters  model.RunParameters `gorm:"column:parameters"`
	Failures    model.FailureList   `gorm:"column:failures"`
	NRows       int                 `gorm:"column:n_rows"`
	RMSE        *float64            `gorm:"column:rmse"`
	CreateTime  time.Time           `gorm:"column:create_time"`
	StartTime   *time.Time          `gorm:"column:start_time"`
	EndTime     *time.Time          `gorm:"column:end_time"`
	LastUpdated time.Time           `gorm:"column:last_updated"`
	Version     int                 `gorm:"column:version"`
}

func (RunExecutionEntity) TableName() string {
	return "taxi_run_execution"
}

// StepExecutionEntity is the persisted form of model.StepExecution.
type StepExecutionEntity struct {
	ID             string            `gorm:"column:id;primaryKey"`
	RunExecutionID string            `gorm:"column:run_execution_id"`
	StepName       string            `gorm:"column:step_name"`
	Status         model.RunStatus   `gorm:"column:status"`
	ExitStatus     model.ExitStatus  `gorm:"column:exit_status"`
	Failures       model.FailureList `gorm:"column:failures"`
	ReadCount      int               `gorm:"column:read_count"`
	WriteCount     int               `gorm:"column:write_count"`
	StartTime      *time.Time        `gorm:"column:start_time"`
	EndTime        *time.Time        `gorm:"column:end_time"`
	LastUpdated    time.Time         `gorm:"column:last_updated"`
	Version        int               `gorm:"column:version"`
}

func (StepExecutionEntity) TableName() string {
	return "taxi_step_execution"
}
