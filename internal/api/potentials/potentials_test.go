package potentials

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/outreach-tracker/outreach-tracker/internal/db/models"
	"github.com/outreach-tracker/outreach-tracker/internal/middleware"
	"github.com/outreach-tracker/outreach-tracker/internal/policy"
	"github.com/outreach-tracker/outreach-tracker/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var potentialCols = []string{
	"id", "first_name", "last_name", "contact_info", "location", "notes", "date_added", "is_disciple", "leader_id",
}

var fixedDate = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// newRouter builds a full potentials route tree backed by a sqlmock database,
// with the given actor injected as the authenticated user.
func newRouter(t *testing.T, actor *models.User) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewHandlers(service.NewPotentialService(db, nil))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserKey, actor)
		c.Set(middleware.UserIDKey, actor.ID)
	})
	r.GET("/potentials", h.List)
	r.POST("/potentials", h.Create)
	r.GET("/potentials/:id", h.Get)
	r.PUT("/potentials/:id", h.Update)
	r.DELETE("/potentials/:id", h.Delete)
	r.POST("/potentials/:id/convert", h.Convert)

	return r, mock
}

func leaderUser(id int64) *models.User {
	return &models.User{ID: id, Username: "leader", Role: policy.RoleLeader, Active: true}
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_Created(t *testing.T) {
	r, mock := newRouter(t, leaderUser(3))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO potentials").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectQuery("INSERT INTO audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	w := do(r, http.MethodPost, "/potentials",
		`{"first_name":"Ada","last_name":"Okafor","location":"north"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var body struct {
		Potential models.Potential `json:"potential"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Potential.ID != 10 {
		t.Errorf("id = %d, want 10", body.Potential.ID)
	}
	if body.Potential.LeaderID != 3 {
		t.Errorf("leader_id = %d, want the actor's id", body.Potential.LeaderID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreate_MissingFields(t *testing.T) {
	r, mock := newRouter(t, leaderUser(3))

	w := do(r, http.MethodPost, "/potentials", `{"first_name":"Ada"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("database touched on invalid request: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestGet_NotFound(t *testing.T) {
	r, mock := newRouter(t, leaderUser(3))

	mock.ExpectQuery("SELECT (.+) FROM potentials").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	w := do(r, http.MethodGet, "/potentials/99", "")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
}

func TestGet_ForbiddenForOtherLeader(t *testing.T) {
	r, mock := newRouter(t, leaderUser(3))

	mock.ExpectQuery("SELECT (.+) FROM potentials").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(potentialCols).
			AddRow(int64(10), "Ada", "Okafor", nil, "north", nil, fixedDate, false, int64(9)))

	w := do(r, http.MethodGet, "/potentials/10", "")

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["reason"] != string(policy.DenyNotOwner) {
		t.Errorf("reason = %v, want %q", body["reason"], policy.DenyNotOwner)
	}
}

func TestGet_InvalidID(t *testing.T) {
	r, mock := newRouter(t, leaderUser(3))

	w := do(r, http.MethodGet, "/potentials/abc", "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("database touched on invalid id: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Convert
// ---------------------------------------------------------------------------

func TestConvert_Created(t *testing.T) {
	r, mock := newRouter(t, leaderUser(3))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM potentials").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(potentialCols).
			AddRow(int64(10), "Ada", "Okafor", nil, "north", nil, fixedDate, false, int64(3)))
	mock.ExpectQuery("INSERT INTO disciples").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))
	mock.ExpectExec("UPDATE potentials SET is_disciple").
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	w := do(r, http.MethodPost, "/potentials/10/convert", "")

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var body struct {
		Disciple models.Disciple `json:"disciple"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Disciple.ID != 77 {
		t.Errorf("disciple id = %d, want 77", body.Disciple.ID)
	}
	if body.Disciple.IsWorker {
		t.Error("fresh disciple should not be a worker")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConvert_AlreadyConverted(t *testing.T) {
	r, mock := newRouter(t, leaderUser(3))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM potentials").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(potentialCols).
			AddRow(int64(10), "Ada", "Okafor", nil, "north", nil, fixedDate, true, int64(3)))
	mock.ExpectRollback()

	w := do(r, http.MethodPost, "/potentials/10/convert", "")

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_OK(t *testing.T) {
	r, mock := newRouter(t, leaderUser(3))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM potentials").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(potentialCols).
			AddRow(int64(10), "Ada", "Okafor", nil, "north", nil, fixedDate, false, int64(3)))
	mock.ExpectExec("DELETE FROM potentials").
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectCommit()

	w := do(r, http.MethodDelete, "/potentials/10", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
