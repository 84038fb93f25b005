package dashboard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	srv := httptest.NewServer(NewServer(NewService(NewWarehouse(db), nil, 0)).Routes())
	t.Cleanup(srv.Close)
	return srv, mock
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestMonthsFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/kpis?month=2025-01&month=2025-02,%202025-03&month=", nil)
	assert.Equal(t, []string{"2025-01", "2025-02", "2025-03"}, MonthsFromRequest(r))
}

func TestServer_Endpoints(t *testing.T) {
	srv, mock := newTestServer(t)

	tests := []struct {
		name           string
		path           string
		setup          func()
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:           "missing months",
			path:           "/api/kpis",
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var e errorBody
				require.NoError(t, json.Unmarshal(body, &e))
				assert.Equal(t, "select at least one month", e.Error)
			},
		},
		{
			name: "hourly distribution",
			path: "/api/hourly?month=2025-01",
			setup: func() {
				mock.ExpectQuery(sqlHourly).WithArgs([]string{"2025-01"}).WillReturnRows(hourlyRows())
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				var got []HourlyCount
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, []HourlyCount{{Hour: 8, Trips: 10}, {Hour: 9, Trips: 12}}, got)
			},
		},
		{
			name: "available months",
			path: "/api/months",
			setup: func() {
				mock.ExpectQuery(sqlAvailableMonths).WillReturnRows(sqlmock.NewRows([]string{"m"}).AddRow("2025-01"))
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"months":["2025-01"]}`, string(body))
			},
		},
		{
			name: "query failure",
			path: "/api/payments?month=2025-01",
			setup: func() {
				mock.ExpectQuery(sqlPayments).WithArgs([]string{"2025-01"}).WillReturnError(errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				assert.NotContains(t, string(body), "connection reset")
			},
		},
		{
			name:           "health",
			path:           "/healthz",
			setup:          func() { mock.ExpectPing() },
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				assert.JSONEq(t, `{"status":"ok"}`, string(body))
			},
		},
		{
			name:           "metrics",
			path:           "/metrics",
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), `taxi_dashboard_requests_total{code="400",route="kpis"} 1`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			resp, body := get(t, srv.URL+tt.path)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			tt.validateBody(t, body)
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
