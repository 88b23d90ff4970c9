package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/datascope/backend/internal/compare"
	"github.com/datascope/backend/internal/export"
	"github.com/datascope/backend/internal/models"
	"github.com/datascope/backend/internal/parser"
	"github.com/datascope/backend/internal/prefs"
	"github.com/datascope/backend/internal/session"
	"github.com/datascope/backend/internal/storage"
)

type testEnv struct {
	e        *echo.Echo
	handler  *Handler
	store    *storage.LocalStore
	sessions *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	registry := parser.NewRegistry(true)
	sessions := session.NewManager(registry, zap.NewNop(), nil)
	resolver := compare.NewResolver(sessions, store, registry)
	exporter := export.NewExporter(sessions)

	prefStore, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { prefStore.Close() })

	return &testEnv{
		e:        echo.New(),
		handler:  NewHandler(store, sessions, resolver, exporter, prefStore, zap.NewNop()),
		store:    store,
		sessions: sessions,
	}
}

func (env *testEnv) jsonRequest(method, target string, body string) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return env.e.NewContext(req, rec), rec
}

// uploadJSONL saves a file directly and starts a session, polling until the
// parse settles.
func (env *testEnv) uploadJSONL(t *testing.T, name, content string) (fileID, sessionID string) {
	t.Helper()

	info, err := env.store.SaveBytes(name, []byte(content))
	require.NoError(t, err)

	c, rec := env.jsonRequest(http.MethodPost, "/api/documents",
		`{"fileId":"`+info.ID+`"}`)
	require.NoError(t, env.handler.HandleLoadDocument(c))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var sess models.DocumentSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		got, ok := env.sessions.GetSession(sess.ID)
		require.True(t, ok)
		if got.Status == models.SessionStatusComplete || got.Status == models.SessionStatusError {
			return info.ID, sess.ID
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("parse did not finish in time")
	return "", ""
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	c, rec := env.jsonRequest(http.MethodGet, "/api/health", "")
	require.NoError(t, env.handler.HandleHealth(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleUploadFile(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "events.jsonl")
	require.NoError(t, err)
	_, err = part.Write([]byte("{\"a\":1}\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	require.NoError(t, env.handler.HandleUploadFile(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var info models.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "events.jsonl", info.Name)
	assert.NotEmpty(t, info.ID)
}

func TestHandleUploadFileUnsupportedExtension(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	require.NoError(t, env.handler.HandleUploadFile(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)
}

func TestHandleUploadBase64(t *testing.T) {
	env := newTestEnv(t)

	// "{}" base64-encoded.
	c, rec := env.jsonRequest(http.MethodPost, "/api/files/upload/base64",
		`{"name":"tiny.json","data":"e30="}`)
	require.NoError(t, env.handler.HandleUploadBase64(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var info models.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, int64(2), info.Size)
}

func TestLoadAndReadRecords(t *testing.T) {
	env := newTestEnv(t)
	_, sessionID := env.uploadJSONL(t, "data.jsonl", "{\"v\":0}\n{\"v\":1}\n{\"v\":2}\n")

	c, rec := env.jsonRequest(http.MethodGet, "/api/documents/"+sessionID+"/status", "")
	c.SetParamNames("sessionId")
	c.SetParamValues(sessionID)
	require.NoError(t, env.handler.HandleSessionStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var sess models.DocumentSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, models.SessionStatusComplete, sess.Status)
	assert.Equal(t, 3, sess.RecordCount)

	c, rec = env.jsonRequest(http.MethodGet, "/api/documents/"+sessionID+"/records?page=1&pageSize=2", "")
	c.SetParamNames("sessionId")
	c.SetParamValues(sessionID)
	require.NoError(t, env.handler.HandleGetRecords(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Records  []models.Record `json:"records"`
		Total    int             `json:"total"`
		Page     int             `json:"page"`
		PageSize int             `json:"pageSize"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Records, 2)
	assert.Equal(t, 0, page.Records[0].Index)
}

func TestMsgpackWindowMatchesJSON(t *testing.T) {
	env := newTestEnv(t)
	_, sessionID := env.uploadJSONL(t, "data.jsonl", "{\"v\":0}\n{\"v\":1}\n")

	c, rec := env.jsonRequest(http.MethodGet, "/api/documents/"+sessionID+"/records/msgpack", "")
	c.SetParamNames("sessionId")
	c.SetParamValues(sessionID)
	require.NoError(t, env.handler.HandleGetRecordsMsgpack(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get(echo.HeaderContentType))

	var page struct {
		Records  []models.Record `json:"records"`
		Total    int             `json:"total"`
		Page     int             `json:"page"`
		PageSize int             `json:"pageSize"`
	}
	dec := msgpack.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	dec.SetCustomStructTag("json")
	require.NoError(t, dec.Decode(&page))

	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Records, 2)
	assert.Equal(t, 1, page.Records[1].Index)
}

func TestModificationFlow(t *testing.T) {
	env := newTestEnv(t)
	_, sessionID := env.uploadJSONL(t, "data.jsonl", "{\"v\":1}\n{\"v\":2}\n")

	c, rec := env.jsonRequest(http.MethodPut, "/api/documents/"+sessionID+"/records/1/modification",
		`{"value":{"v":99}}`)
	c.SetParamNames("sessionId", "index")
	c.SetParamValues(sessionID, "1")
	require.NoError(t, env.handler.HandleSetModification(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hasChanges":true}`, rec.Body.String())

	c, rec = env.jsonRequest(http.MethodGet, "/api/documents/"+sessionID+"/records/1", "")
	c.SetParamNames("sessionId", "index")
	c.SetParamValues(sessionID, "1")
	require.NoError(t, env.handler.HandleGetRecord(c))
	var single struct {
		Record   models.Record `json:"record"`
		Modified bool          `json:"modified"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &single))
	assert.True(t, single.Modified)
	obj := single.Record.Value.(map[string]interface{})
	assert.Equal(t, float64(99), obj["v"])

	c, rec = env.jsonRequest(http.MethodDelete, "/api/documents/"+sessionID+"/records/1/modification", "")
	c.SetParamNames("sessionId", "index")
	c.SetParamValues(sessionID, "1")
	require.NoError(t, env.handler.HandleClearModification(c))
	assert.JSONEq(t, `{"hasChanges":false}`, rec.Body.String())
}

func TestSetModificationRejectsMissingValue(t *testing.T) {
	env := newTestEnv(t)
	_, sessionID := env.uploadJSONL(t, "data.jsonl", "{\"v\":1}\n")

	c, rec := env.jsonRequest(http.MethodPut, "/api/documents/"+sessionID+"/records/0/modification", `{}`)
	c.SetParamNames("sessionId", "index")
	c.SetParamValues(sessionID, "0")
	require.NoError(t, env.handler.HandleSetModification(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNavigationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, sessionID := env.uploadJSONL(t, "data.jsonl", "{\"v\":1}\n{\"v\":2}\n")

	c, rec := env.jsonRequest(http.MethodPost, "/api/documents/"+sessionID+"/active", `{"index":50}`)
	c.SetParamNames("sessionId")
	c.SetParamValues(sessionID)
	require.NoError(t, env.handler.HandleSetActive(c))
	assert.JSONEq(t, `{"activeIndex":1}`, rec.Body.String())

	c, rec = env.jsonRequest(http.MethodPost, "/api/documents/"+sessionID+"/active/prev", "")
	c.SetParamNames("sessionId")
	c.SetParamValues(sessionID)
	require.NoError(t, env.handler.HandlePrevRecord(c))
	assert.JSONEq(t, `{"activeIndex":0}`, rec.Body.String())
}

func TestSchemaEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, sessionID := env.uploadJSONL(t, "data.jsonl", "{\"a\":1}\n{\"a\":2,\"b\":\"x\"}\n")

	c, rec := env.jsonRequest(http.MethodGet, "/api/documents/"+sessionID+"/schema", "")
	c.SetParamNames("sessionId")
	c.SetParamValues(sessionID)
	require.NoError(t, env.handler.HandleGetSchema(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var tree models.SchemaTree
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
	assert.Equal(t, 2, tree.RecordCount)
	require.Len(t, tree.Fields, 2)
}

func TestDownloadDocument(t *testing.T) {
	env := newTestEnv(t)
	_, sessionID := env.uploadJSONL(t, "data.jsonl", "{\"v\":1}\n")

	c, rec := env.jsonRequest(http.MethodGet, "/api/documents/"+sessionID+"/export", "")
	c.SetParamNames("sessionId")
	c.SetParamValues(sessionID)
	require.NoError(t, env.handler.HandleDownloadDocument(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `"data.jsonl"`)
	assert.Equal(t, "{\"v\":1}\n", rec.Body.String())
}

func TestPreferencesEndpoints(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.jsonRequest(http.MethodGet, "/api/preferences", "")
	require.NoError(t, env.handler.HandleGetPreferences(c))
	var p models.Preferences
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "dark", p.Theme)

	c, rec = env.jsonRequest(http.MethodPut, "/api/preferences",
		`{"theme":"light","fontSize":15,"viewMode":"grid","lenientJson":true,"recentsLimit":10}`)
	require.NoError(t, env.handler.HandlePutPreferences(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = env.jsonRequest(http.MethodGet, "/api/preferences", "")
	require.NoError(t, env.handler.HandleGetPreferences(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "light", p.Theme)
	assert.Equal(t, 15, p.FontSize)
}

func TestCompareEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, sessionID := env.uploadJSONL(t, "data.jsonl", "{\"v\":1}\n{\"v\":2}\n")

	for side, idx := range map[string]string{"left": "0", "right": "1"} {
		c, rec := env.jsonRequest(http.MethodPut, "/api/documents/"+sessionID+"/compare/"+side,
			`{"kind":"record","recordIndex":`+idx+`}`)
		c.SetParamNames("sessionId", "side")
		c.SetParamValues(sessionID, side)
		require.NoError(t, env.handler.HandleSetCompareSource(c))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	c, rec := env.jsonRequest(http.MethodGet, "/api/documents/"+sessionID+"/compare", "")
	c.SetParamNames("sessionId")
	c.SetParamValues(sessionID)
	require.NoError(t, env.handler.HandleGetCompare(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var res compare.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Contains(t, res.Diff, "+++ right")
}

func TestSessionNotFound(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.jsonRequest(http.MethodGet, "/api/documents/missing/status", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("missing")
	require.NoError(t, env.handler.HandleSessionStatus(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestErrorHandlerShapesUnknownErrors(t *testing.T) {
	env := newTestEnv(t)
	env.e.HTTPErrorHandler = ErrorHandler

	env.e.GET("/boom", func(c echo.Context) error {
		return assert.AnError
	})
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "UNKNOWN_ERROR", apiErr.Code)
}
