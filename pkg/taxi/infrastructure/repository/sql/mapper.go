package sql

import (
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
)

func fromDomainRunExecution(re *model.RunExecution) *RunExecutionEntity {
	return &RunExecutionEntity{
		ID:          re.ID,
		JobName:     re.JobName,
		Status:      re.Status,
		ExitStatus:  re.ExitStatus,
		Parameters:  re.Parameters,
		Failures:    re.Failures,
		NRows:       re.NRows,
		RMSE:        re.RMSE,
		CreateTime:  re.CreateTime,
		StartTime:   re.StartTime,
		EndTime:     re.EndTime,
		LastUpdated: re.LastUpdated,
		Version:     re.Version,
	}
}

func toDomainRunExecution(e *RunExecutionEntity) *model.RunExecution {
	return &model.RunExecution{
		ID:             e.ID,
		JobName:        e.JobName,
		Status:         e.Status,
		ExitStatus:     e.ExitStatus,
		Parameters:     e.Parameters,
		Failures:       e.Failures,
		NRows:          e.NRows,
		RMSE:           e.RMSE,
		CreateTime:     e.CreateTime,
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		LastUpdated:    e.LastUpdated,
		Version:        e.Version,
		StepExecutions: make([]*model.StepExecution, 0),
	}
}

func fromDomainStepExecution(se *model.StepExecution) *StepExecutionEntity {
	return &StepExecutionEntity{
		ID:             se.ID,
		RunExecutionID: se.RunExecutionID,
		StepName:       se.StepName,
		Status:         se.Status,
		ExitStatus:     se.ExitStatus,
		Failures:       se.Failures,
		ReadCount:      se.ReadCount,
		WriteCount:     se.WriteCount,
		StartTime:      se.StartTime,
		EndTime:        se.EndTime,
		LastUpdated:    se.LastUpdated,
		Version:        se.Version,
	}
}

func toDomainStepExecution(e *StepExecutionEntity) *model.StepExecution {
	return &model.StepExecution{
		ID:             e.ID,
		RunExecutionID: e.RunExecutionID,
		StepName:       e.StepName,
		Status:         e.Status,
		ExitStatus:     e.ExitStatus,
		Failures:       e.Failures,
		ReadCount:      e.ReadCount,
		WriteCount:     e.WriteCount,
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		LastUpdated:    e.LastUpdated,
		Version:        e.Version,
	}
}
