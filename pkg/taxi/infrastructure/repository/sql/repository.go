// Package sql stores run history in a relational database through the gorm
// database adapters. The schema is created by the migration package.
package sql

import (
	"context"
	"fmt"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/repository"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

const moduleName = "repository"

// SQLRunRepository implements repository.RunRepository.
type SQLRunRepository struct {
	dbResolver database.DBConnectionResolver
	// dbName is the connection holding run history (e.g., "metadata").
	dbName string
}

// NewSQLRunRepository creates a repository on the connection called dbName.
func NewSQLRunRepository(dbResolver database.DBConnectionResolver, dbName string) *SQLRunRepository {
	return &SQLRunRepository{dbResolver: dbResolver, dbName: dbName}
}

func (r *SQLRunRepository) conn(ctx context.Context) (database.DBConnection, error) {
	return r.dbResolver.ResolveDBConnection(ctx, r.dbName)
}

func (r *SQLRunRepository) failure(conn database.DBConnection, op string, err error) error {
	if conn.IsTableNotExistError(err) {
		return exception.New(exception.KindIO, moduleName, op+": run history tables are missing (migrations not applied)", err)
	}
	return exception.New(exception.KindIO, moduleName, op, err)
}

func (r *SQLRunRepository) SaveRunExecution(ctx context.Context, run *model.RunExecution) error {
	conn, err := r.conn(ctx)
	if err != nil {
		return err
	}
	entity := fromDomainRunExecution(run)
	if _, err := conn.ExecuteUpdate(ctx, entity, "CREATE", entity.TableName(), nil); err != nil {
		return r.failure(conn, fmt.Sprintf("failed to save RunExecution (ID: %s)", run.ID), err)
	}
	return nil
}

func (r *SQLRunRepository) UpdateRunExecution(ctx context.Context, run *model.RunExecution) error {
	conn, err := r.conn(ctx)
	if err != nil {
		return err
	}
	originalVersion := run.Version
	run.Version++
	entity := fromDomainRunExecution(run)

	rows, err := conn.ExecuteUpdate(ctx, entity, "UPDATE", entity.TableName(), map[string]interface{}{"version": originalVersion})
	if err != nil {
		run.Version = originalVersion
		return r.failure(conn, fmt.Sprintf("failed to update RunExecution (ID: %s)", run.ID), err)
	}
	if rows == 0 {
		run.Version = originalVersion
		return exception.New(exception.KindIO, moduleName,
			fmt.Sprintf("RunExecution (ID: %s) with version %d not found for update", run.ID, originalVersion), repository.ErrOptimisticLock)
	}
	return nil
}

func (r *SQLRunRepository) FindRunExecutionByID(ctx context.Context, id string) (*model.RunExecution, error) {
	return r.findRun(ctx, map[string]interface{}{"id": id}, fmt.Sprintf("failed to find RunExecution by ID: %s", id))
}

func (r *SQLRunRepository) FindLatestRunExecution(ctx context.Context, jobName string) (*model.RunExecution, error) {
	return r.findRun(ctx, map[string]interface{}{"job_name": jobName}, fmt.Sprintf("failed to find latest RunExecution of %s", jobName))
}

func (r *SQLRunRepository) findRun(ctx context.Context, query map[string]interface{}, op string) (*model.RunExecution, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var entities []RunExecutionEntity
	if err := conn.ExecuteQueryAdvanced(ctx, &entities, query, "create_time desc", 1); err != nil {
		if conn.IsTableNotExistError(err) {
			return nil, repository.ErrRunExecutionNotFound
		}
		return nil, r.failure(conn, op, err)
	}
	if len(entities) == 0 {
		return nil, repository.ErrRunExecutionNotFound
	}
	run := toDomainRunExecution(&entities[0])
	steps, err := r.FindStepExecutionsByRunID(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.StepExecutions = steps
	return run, nil
}

func (r *SQLRunRepository) SaveStepExecution(ctx context.Context, step *model.StepExecution) error {
	conn, err := r.conn(ctx)
	if err != nil {
		return err
	}
	entity := fromDomainStepExecution(step)
	if _, err := conn.ExecuteUpdate(ctx, entity, "CREATE", entity.TableName(), nil); err != nil {
		return r.failure(conn, fmt.Sprintf("failed to save StepExecution (ID: %s)", step.ID), err)
	}
	return nil
}

func (r *SQLRunRepository) UpdateStepExecution(ctx context.Context, step *model.StepExecution) error {
	conn, err := r.conn(ctx)
	if err != nil {
		return err
	}
	originalVersion := step.Version
	step.Version++
	entity := fromDomainStepExecution(step)

	rows, err := conn.ExecuteUpdate(ctx, entity, "UPDATE", entity.TableName(), map[string]interface{}{"version": originalVersion})
	if err != nil {
		step.Version = originalVersion
		return r.failure(conn, fmt.Sprintf("failed to update StepExecution (ID: %s)", step.ID), err)
	}
	if rows == 0 {
		step.Version = originalVersion
		return exception.New(exception.KindIO, moduleName,
			fmt.Sprintf("StepExecution (ID: %s) with version %d not found for update", step.ID, originalVersion), repository.ErrOptimisticLock)
	}
	return nil
}

func (r *SQLRunRepository) FindStepExecutionsByRunID(ctx context.Context, runID string) ([]*model.StepExecution, error) {
	conn, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var entities []StepExecutionEntity
	if err := conn.ExecuteQueryAdvanced(ctx, &entities, map[string]interface{}{"run_execution_id": runID}, "start_time asc, id asc", 0); err != nil {
		return nil, r.failure(conn, fmt.Sprintf("failed to find StepExecutions of run %s", runID), err)
	}
	steps := make([]*model.StepExecution, len(entities))
	for i := range entities {
		steps[i] = toDomainStepExecution(&entities[i])
	}
	return steps, nil
}

// Close is a no-op: connections belong to the resolver.
func (r *SQLRunRepository) Close() error { return nil }

var _ repository.RunRepository = (*SQLRunRepository)(nil)
