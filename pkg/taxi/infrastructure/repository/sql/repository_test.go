package sql_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
	gormadapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database/gorm"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database/gorm/sqlite"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/component/tasklet/migration"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/repository"
	sqlrepo "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/infrastructure/repository/sql"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

func migratedRepository(t *testing.T) *sqlrepo.SQLRunRepository {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Taxi.Database["metadata"] = map[string]interface{}{
		"type":     "sqlite",
		"database": filepath.Join(t.TempDir(), "history.db"),
	}
	resolver := gormadapter.NewGormDBConnectionResolver(gormadapter.ResolverParams{
		DBProviders: []database.DBProvider{sqlite.NewProvider(cfg)},
		Cfg:         cfg,
	})
	t.Cleanup(func() { _ = resolver.CloseAll() })
	require.NoError(t, migration.NewRunner(resolver, migration.NewMigratorProvider()).Migrate(context.Background(), "metadata"))
	return sqlrepo.NewSQLRunRepository(resolver, "metadata")
}

func TestSQLRunRepository_PersistsTransitions(t *testing.T) {
	ctx := context.Background()
	repo := migratedRepository(t)

	run := model.NewRunExecution("taxi-train", model.RunParameters{"input": "trips.parquet"})
	require.NoError(t, repo.SaveRunExecution(ctx, run))
	run.MarkAsStarted()
	require.NoError(t, repo.UpdateRunExecution(ctx, run))
	assert.Equal(t, 1, run.Version)

	step := model.NewStepExecution(run, "load")
	step.MarkAsStarted()
	require.NoError(t, repo.SaveStepExecution(ctx, step))
	step.ReadCount = 1000
	step.MarkAsCompleted(model.ExitStatusCompleted)
	require.NoError(t, repo.UpdateStepExecution(ctx, step))

	rmse := 3.25
	run.RMSE = &rmse
	run.NRows = 1000
	run.MarkAsFailed(errors.New("disk full"))
	require.NoError(t, repo.UpdateRunExecution(ctx, run))

	got, err := repo.FindLatestRunExecution(ctx, "taxi-train")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, model.ExitStatusFailed, got.ExitStatus)
	assert.Equal(t, model.FailureList{"disk full"}, got.Failures)
	assert.Equal(t, "trips.parquet", got.Parameters["input"])
	require.NotNil(t, got.RMSE)
	assert.InDelta(t, 3.25, *got.RMSE, 1e-12)
	assert.Equal(t, 1000, got.NRows)
	assert.Equal(t, 2, got.Version)
	require.NotNil(t, got.EndTime)

	require.Len(t, got.StepExecutions, 1)
	assert.Equal(t, "load", got.StepExecutions[0].StepName)
	assert.Equal(t, model.StatusCompleted, got.StepExecutions[0].Status)
	assert.Equal(t, 1000, got.StepExecutions[0].ReadCount)

	byID, err := repo.FindRunExecutionByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.JobName, byID.JobName)
}

func TestSQLRunRepository_StaleVersionIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := migratedRepository(t)

	run := model.NewRunExecution("taxi-predict", nil)
	require.NoError(t, repo.SaveRunExecution(ctx, run))

	stale := *run
	run.MarkAsStarted()
	require.NoError(t, repo.UpdateRunExecution(ctx, run))

	err := repo.UpdateRunExecution(ctx, &stale)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrOptimisticLock))
	assert.Equal(t, 0, stale.Version)
}

func TestSQLRunRepository_NotFound(t *testing.T) {
	repo := migratedRepository(t)
	_, err := repo.FindLatestRunExecution(context.Background(), "nobody")
	assert.ErrorIs(t, err, repository.ErrRunExecutionNotFound)
}

// staticResolver always hands out the same connection.
type staticResolver struct {
	conn database.DBConnection
}

func (s staticResolver) ResolveDBConnection(context.Context, string) (database.DBConnection, error) {
	return s.conn, nil
}

func mockRepository(t *testing.T) (*sqlrepo.SQLRunRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{Logger: gormadapter.NewGormLogger("SILENT")})
	require.NoError(t, err)
	conn, err := gormadapter.NewGormDBAdapter(gormDB, database.DatabaseConfig{Type: "postgres"}, "metadata")
	require.NoError(t, err)
	return sqlrepo.NewSQLRunRepository(staticResolver{conn: conn}, "metadata"), mock
}

func TestSQLRunRepository_UpdateWithNoRowsIsOptimisticLockFailure(t *testing.T) {
	repo, mock := mockRepository(t)
	mock.ExpectExec(`UPDATE "taxi_run_execution" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	run := model.NewRunExecution("taxi-train", nil)
	run.Version = 4
	err := repo.UpdateRunExecution(context.Background(), run)
	assert.ErrorIs(t, err, repository.ErrOptimisticLock)
	assert.Equal(t, 4, run.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRunRepository_MissingTablesAreReported(t *testing.T) {
	repo, mock := mockRepository(t)
	mock.ExpectExec(`INSERT INTO "taxi_run_execution"`).
		WillReturnError(errors.New(`ERROR: relation "taxi_run_execution" does not exist (SQLSTATE 42P01)`))

	err := repo.SaveRunExecution(context.Background(), model.NewRunExecution("taxi-train", nil))
	require.Error(t, err)
	assert.True(t, exception.IsIOError(err))
	assert.Contains(t, err.Error(), "migrations not applied")
	assert.NoError(t, mock.ExpectationsWereMet())
}
