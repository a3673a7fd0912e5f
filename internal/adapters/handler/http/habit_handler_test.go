package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/handler/http"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/handler/http/middleware"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/repository"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/services"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/workers"
)

// testAuth stands in for the JWT middleware: the user id comes straight from
// a header so handler tests do not mint tokens.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-User-ID"); id != "" {
			c.Set(middleware.ContextUserIDKey, id)
		}
		c.Next()
	}
}

func doJSON(router *gin.Engine, method, path, userID, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, buf)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func setupHabitRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	habitRepo := repository.NewInMemoryHabitRepository()
	worker := workers.NewRewardWorker(services.NewRewardService(repository.NewInMemoryRewardRepository()))
	svc := services.NewHabitService(habitRepo, worker)
	handler := adapterHTTP.NewHabitHandler(svc)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(testAuth())
	handler.RegisterRoutes(api)
	return r
}

func createHabitViaAPI(t *testing.T, router *gin.Engine, userID, body string) string {
	t.Helper()
	w := doJSON(router, "POST", "/api/v1/habits", userID, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Habit struct {
			ID string `json:"id"`
		} `json:"habit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Habit.ID)
	return resp.Habit.ID
}

func TestHabitHandler_Create(t *testing.T) {
	t.Run("Success: 201 Created with envelope", func(t *testing.T) {
		router := setupHabitRouter()

		w := doJSON(router, "POST", "/api/v1/habits", "user-1",
			`{"title": "Gym", "schedule": "specific_days", "weekdays": [1, 3, 5], "priority": "high"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
		assert.Contains(t, w.Body.String(), `"title":"Gym"`)
	})

	t.Run("Fail: 400 on missing title", func(t *testing.T) {
		router := setupHabitRouter()

		w := doJSON(router, "POST", "/api/v1/habits", "user-1", `{"schedule": "daily"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"validation"`)
	})

	t.Run("Fail: 400 on invalid timezone", func(t *testing.T) {
		router := setupHabitRouter()

		w := doJSON(router, "POST", "/api/v1/habits", "user-1",
			`{"title": "Gym", "timezone": "Moon/Crater"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"validation"`)
	})
}

func TestHabitHandler_List(t *testing.T) {
	router := setupHabitRouter()
	createHabitViaAPI(t, router, "user-1", `{"title": "Gym"}`)
	createHabitViaAPI(t, router, "user-2", `{"title": "Read"}`)

	w := doJSON(router, "GET", "/api/v1/habits", "user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Gym"`)
	assert.NotContains(t, w.Body.String(), `"title":"Read"`, "Listing must be scoped to the caller")
}

func TestHabitHandler_Complete(t *testing.T) {
	t.Run("Success: 200 with streak and XP", func(t *testing.T) {
		router := setupHabitRouter()
		id := createHabitViaAPI(t, router, "user-1", `{"title": "Gym", "priority": "high"}`)

		w := doJSON(router, "POST", "/api/v1/habits/"+id+"/complete", "user-1", `{"notes": "leg day"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"new_streak":1`)
		assert.Contains(t, w.Body.String(), `"xp_awarded":30`)
	})

	t.Run("Fail: 409 on duplicate completion", func(t *testing.T) {
		router := setupHabitRouter()
		id := createHabitViaAPI(t, router, "user-1", `{"title": "Gym"}`)

		first := doJSON(router, "POST", "/api/v1/habits/"+id+"/complete", "user-1", "")
		require.Equal(t, http.StatusOK, first.Code)

		second := doJSON(router, "POST", "/api/v1/habits/"+id+"/complete", "user-1", "")
		assert.Equal(t, http.StatusConflict, second.Code)
		assert.Contains(t, second.Body.String(), `"code":"conflict"`)
	})

	t.Run("Fail: 404 for another user's habit", func(t *testing.T) {
		router := setupHabitRouter()
		id := createHabitViaAPI(t, router, "user-1", `{"title": "Gym"}`)

		w := doJSON(router, "POST", "/api/v1/habits/"+id+"/complete", "user-2", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"not_found"`)
	})
}

func TestHabitHandler_Skip(t *testing.T) {
	t.Run("Success: 200 reverses today's completion", func(t *testing.T) {
		router := setupHabitRouter()
		id := createHabitViaAPI(t, router, "user-1", `{"title": "Gym"}`)

		done := doJSON(router, "POST", "/api/v1/habits/"+id+"/complete", "user-1", "")
		require.Equal(t, http.StatusOK, done.Code)

		w := doJSON(router, "POST", "/api/v1/habits/"+id+"/skip", "user-1", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"new_streak":0`)
	})

	t.Run("Fail: 409 when nothing was completed today", func(t *testing.T) {
		router := setupHabitRouter()
		id := createHabitViaAPI(t, router, "user-1", `{"title": "Gym"}`)

		w := doJSON(router, "POST", "/api/v1/habits/"+id+"/skip", "user-1", "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"not_completed"`)
	})
}

func TestHabitHandler_ArchiveAndDelete(t *testing.T) {
	router := setupHabitRouter()
	id := createHabitViaAPI(t, router, "user-1", `{"title": "Gym"}`)

	w := doJSON(router, "POST", "/api/v1/habits/"+id+"/archive", "user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	completed := doJSON(router, "POST", "/api/v1/habits/"+id+"/complete", "user-1", "")
	assert.Equal(t, http.StatusConflict, completed.Code, "Archived habits reject completion")

	deleted := doJSON(router, "DELETE", "/api/v1/habits/"+id, "user-1", "")
	assert.Equal(t, http.StatusNoContent, deleted.Code)

	gone := doJSON(router, "GET", "/api/v1/habits", "user-1", "")
	assert.NotContains(t, gone.Body.String(), id)
}
