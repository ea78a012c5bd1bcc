package http

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bnest/b2bnest-api/internal/auth"
	"github.com/b2bnest/b2bnest-api/internal/hmrc/repository"
	"github.com/b2bnest/b2bnest-api/internal/hmrc/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			auth.SetUser(c, uid, "")
		}
		c.Next()
	})
	New(service.NewHMRCService(repository.NewHMRCRepository(db), nil)).Register(api)
	return r, mock
}

func call(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListObligations_RequiresUser(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hmrc/obligations?vrn=123456789", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListObligations_BadInput(t *testing.T) {
	r, _ := newTestRouter(t)

	w := call(r, http.MethodGet, "/api/v1/hmrc/obligations?vrn=12", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(r, http.MethodGet, "/api/v1/hmrc/obligations?vrn=123456789&from=01/01/2026", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListObligations_ServesStoredRows(t *testing.T) {
	r, mock := newTestRouter(t)

	now := time.Now()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "user_id", "vrn", "period_key", "start_date", "end_date", "due_date", "status", "received_at", "created_at", "updated_at"}).
			AddRow("ob-1", "user-1", "123456789", "26A1", start, start.AddDate(0, 3, -1), start.AddDate(0, 4, 6), "fulfilled", now, now, now)
	}
	mock.ExpectQuery(`FROM hmrc_obligations`).WillReturnRows(rows())
	mock.ExpectQuery(`FROM hmrc_obligations`).WillReturnRows(rows())

	w := call(r, http.MethodGet, "/api/v1/hmrc/obligations?vrn=123456789&from=2026-01-01&to=2026-12-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"period_key":"26A1"`)
	assert.Contains(t, w.Body.String(), `"status":"fulfilled"`)
	assert.Contains(t, w.Body.String(), `"live":false`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReturn_NoOpenObligationIs422(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	w := call(r, http.MethodPost, "/api/v1/hmrc/returns",
		`{"vrn":"123456789","periodKey":"26A1","vatDueSales":100,"finalised":true}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitReturn_NotFinalisedIs400(t *testing.T) {
	r, _ := newTestRouter(t)

	w := call(r, http.MethodPost, "/api/v1/hmrc/returns", `{"vrn":"123456789","periodKey":"26A1","finalised":false}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReturn_NotFound(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(`FROM vat_returns`).WillReturnError(sql.ErrNoRows)

	w := call(r, http.MethodGet, "/api/v1/hmrc/returns/26A1?vrn=123456789", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedObligation(t *testing.T) {
	r, mock := newTestRouter(t)

	now := time.Now()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO hmrc_obligations`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "vrn", "period_key", "start_date", "end_date", "due_date", "status", "received_at", "created_at", "updated_at"}).
			AddRow("ob-1", "user-1", "123456789", "26A1", start, start.AddDate(0, 3, -1), start.AddDate(0, 4, 6), "outstanding", nil, now, now))

	w := call(r, http.MethodPost, "/api/v1/hmrc/obligations",
		`{"vrn":"123456789","period_key":"26A1","start":"2026-01-01","end":"2026-03-31","due":"2026-05-07"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"ob-1"`)
	require.NoError(t, mock.ExpectationsWereMet())

	w = call(r, http.MethodPost, "/api/v1/hmrc/obligations",
		`{"vrn":"123456789","period_key":"26A1","start":"2026-01-01","end":"2026-03-31","due":"May 7"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
