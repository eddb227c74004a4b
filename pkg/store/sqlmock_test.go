package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/datahub/pkg/listing"
	"github.com/platinummonkey/datahub/pkg/observability"
)

func TestListApplications_UnknownOrderByFallsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM applications WHERE status = $1")).
		WithArgs("New").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY updated_at DESC, id ASC LIMIT $2 OFFSET $3")).
		WithArgs("New", 5, 0).
		WillReturnRows(sqlmock.NewRows(nil))

	s := NewApplicationStore(db, nil)
	d := listing.FetchDescriptor{First: 5, SortDirection: listing.SortDesc, OrderBy: "status; DROP TABLE users"}
	page, err := s.ListApplications(context.Background(), Filter{Status: "New"}, d)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubmissions_ClampsPageSize(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM submissions")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY data_commons ASC, id ASC LIMIT $1 OFFSET $2")).
		WithArgs(listing.MaxFirst, 0).
		WillReturnRows(sqlmock.NewRows(nil))

	s := NewSubmissionStore(db, nil)
	d := listing.FetchDescriptor{First: 5000, Offset: -3, SortDirection: listing.SortAsc, OrderBy: "dataCommons"}
	_, err = s.ListSubmissions(context.Background(), Filter{}, d)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordsMetrics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	s := NewUserStore(db, metrics)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("broken").
		WillReturnError(errors.New("connection reset"))

	_, err = s.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetUser(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get user")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues("get_user", "success")), "not found is not a storage error")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues("get_user", "error")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS applications").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration step 2 failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT status, COUNT(.+) FROM submissions GROUP BY status").
		WillReturnError(errors.New("timeout"))

	_, err = NewSubmissionStore(db, nil).CountByStatus(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count submissions by status")
}
