package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mortgage-readiness/internal/common/config"
	apperrors "mortgage-readiness/internal/common/errors"
)

func TestPostgresClient_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	client := NewPostgresFromDB(db)
	defer client.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS mortgage_assessments").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, client.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresClient_MigrateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	client := NewPostgresFromDB(db)
	defer client.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = client.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mortgage_assessments")
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	dsn := config.PostgresConfig{
		Host: "db", Port: 5432, User: "svc", Password: "pw", Database: "readiness", SSLMode: "disable",
	}.GetDSN()
	assert.Equal(t, "host=db port=5432 user=svc password=pw dbname=readiness sslmode=disable", dsn)
}

func TestPostgresClient_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	client := NewPostgresFromDB(db)
	defer client.Close()

	mock.ExpectPing().WillReturnError(errors.New("dial tcp: connection refused"))

	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseConnectionFailed))
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}
