package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
)

func TestConnectionString(t *testing.T) {
	dsn := ConnectionString(database.DatabaseConfig{Host: "mysql", User: "etl", Password: "pw", Database: "taxi"})
	assert.Contains(t, dsn, "etl:pw@tcp(mysql:3306)/taxi?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "multiStatements=true")
}
