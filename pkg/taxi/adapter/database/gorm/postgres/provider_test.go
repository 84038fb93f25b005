package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/database"
)

func TestConnectionString(t *testing.T) {
	dsn := ConnectionString(database.DatabaseConfig{Host: "pg", User: "u", Password: "p", Database: "taxi"})
	assert.Equal(t, "host=pg port=5432 user=u password=p dbname=taxi sslmode=disable", dsn)

	dsn = ConnectionString(database.DatabaseConfig{Host: "pg", Port: 6543, Database: "taxi", Sslmode: "require", Schema: "runs"})
	assert.Contains(t, dsn, "port=6543")
	assert.Contains(t, dsn, "sslmode=require")
	assert.Contains(t, dsn, "search_path=runs")
}
