package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codepair/backend/internal/domain/session"
	"github.com/codepair/backend/internal/exec"
	"github.com/codepair/backend/internal/exec/js"
)

func newTestRouter(t *testing.T) (*session.Store, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := session.NewStore()
	executors := exec.NewRegistry()
	executors.Register(session.LangJavaScript, js.New(js.Config{Timeout: 2 * time.Second}))

	handlers := NewHandlers(store, executors, nil, nil)

	router := gin.New()
	router.GET("/health", handlers.Health)
	api := router.Group("/api")
	api.POST("/sessions", handlers.CreateSession)
	api.GET("/sessions/:id", handlers.GetSession)
	api.POST("/execute", handlers.Execute)

	return store, router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func TestCreateSession(t *testing.T) {
	store, router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)

	id, ok := body["sessionId"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, store.Count())
}

func TestGetSession(t *testing.T) {
	_, router := newTestRouter(t)

	_, created := doJSON(t, router, http.MethodPost, "/api/sessions", "")
	id := created["sessionId"].(string)

	w, body := doJSON(t, router, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, "", body["code"])
	assert.Equal(t, "javascript", body["language"])
	assert.Equal(t, []interface{}{}, body["participants"])
}

func TestGetSessionNotFound(t *testing.T) {
	_, router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet, "/api/sessions/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found", body["error"])
}

func TestExecuteJavaScript(t *testing.T) {
	_, router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/execute",
		`{"language":"javascript","code":"console.log('hello', 40 + 2)"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello 42\n", body["stdout"])
	assert.Equal(t, "", body["stderr"])
}

func TestExecuteCapturesProgramFailure(t *testing.T) {
	_, router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/execute",
		`{"language":"javascript","code":"throw new Error('boom')"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, body["stderr"], "boom")
}

func TestExecuteUnsupportedLanguage(t *testing.T) {
	_, router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodPost, "/api/execute",
		`{"language":"cobol","code":"DISPLAY 'HI'"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unsupported language", body["error"])
}

func TestExecuteInvalidBody(t *testing.T) {
	_, router := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPost, "/api/execute", `{"code":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	_, router := newTestRouter(t)

	w, body := doJSON(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}
