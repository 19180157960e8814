package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/auth"
	"github.com/parisxmas/formcraft/internal/docstore"
	"github.com/parisxmas/formcraft/internal/handler"
	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/repository"
	"github.com/parisxmas/formcraft/internal/router"
	"github.com/parisxmas/formcraft/internal/service"
)

const secret = "router-test-secret"

type server struct {
	*httptest.Server
	owner    string
	stranger string
}

func newServer(t *testing.T) *server {
	t.Helper()
	store, err := docstore.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := zap.NewNop()
	formRepo := repository.NewFormRepo(store)
	forms := service.NewFormService(formRepo)
	drafts := service.NewDraftService(repository.NewDocDraftRepo(store), log)
	autosaver := service.NewAutosaver(drafts, time.Minute)
	t.Cleanup(autosaver.Close)
	uploadRepo := repository.NewUploadRepo(store)
	responses := service.NewResponseService(repository.NewResponseRepo(store), formRepo, uploadRepo, autosaver, log)
	uploads := service.NewUploadService(uploadRepo, formRepo)
	const maxBytes = 1 << 20

	mux := router.New(secret, log, router.Handlers{
		Forms:     handler.NewFormHandler(forms, log),
		Dashboard: handler.NewDashboardHandler(forms, log),
		Responses: handler.NewResponseHandler(forms, responses, log),
		Uploads:   handler.NewUploadHandler(uploads, forms, maxBytes, log),
		Public:    handler.NewPublicHandler(forms, responses, drafts, autosaver, log),
		Pages:     handler.NewPageHandler(forms, responses, uploads, drafts, maxBytes, log),
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	token := func(uid string) string {
		tok, err := auth.GenerateToken(secret, models.User{UID: uid, Email: uid + "@example.com", DisplayName: uid}, time.Hour)
		require.NoError(t, err)
		return tok
	}
	return &server{Server: ts, owner: token("owner"), stranger: token("stranger")}
}

func (s *server) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func decode(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m), string(b))
	return m
}

var surveyForm = map[string]any{
	"title":       "Team Survey",
	"description": "Quarterly check-in",
	"fields": []any{
		map[string]any{"id": "name", "type": "short_text", "label": "Name", "required": true},
		map[string]any{"id": "email", "type": "email", "label": "Email"},
		map[string]any{"id": "intro", "type": "section_heading", "label": "More"},
		map[string]any{"id": "cv", "type": "file_upload", "label": "CV", "allowedFileTypes": []any{".txt"}},
	},
}

// publish creates and publishes the survey as the owner.
func (s *server) publish(t *testing.T) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/v1/forms", s.owner, surveyForm)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	id := decode(t, body)["id"].(string)
	resp, body = s.do(t, http.MethodPost, "/api/v1/forms/"+id+"/publish", s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "published", decode(t, body)["status"])
	return id
}

func TestHealthAndAuth(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, _ = s.do(t, http.MethodGet, "/api/v1/forms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/api/v1/auth/me", s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "owner", decode(t, body)["uid"])

	resp, _ = s.do(t, http.MethodPost, "/api/v1/auth/signout", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Cookies())
	assert.Equal(t, auth.CookieName, resp.Cookies()[0].Name)
	assert.Negative(t, resp.Cookies()[0].MaxAge)
}

func TestFormOwnership(t *testing.T) {
	s := newServer(t)
	id := s.publish(t)

	resp, body := s.do(t, http.MethodGet, "/api/v1/forms/"+id, s.stranger, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Failed to load form", decode(t, body)["error"])

	resp, body = s.do(t, http.MethodPost, "/api/v1/forms/"+id+"/archive", s.stranger, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Failed to archive form", decode(t, body)["error"])

	resp, body = s.do(t, http.MethodGet, "/api/v1/forms/missing", s.owner, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Failed to load form", decode(t, body)["error"])

	resp, body = s.do(t, http.MethodPut, "/api/v1/forms/"+id, s.owner, map[string]any{"title": "Renamed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed", decode(t, body)["title"])

	resp, body = s.do(t, http.MethodPost, "/api/v1/forms/"+id+"/duplicate", s.owner, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	dup := decode(t, body)
	assert.NotEqual(t, id, dup["id"])
	assert.Equal(t, "draft", dup["status"])

	resp, body = s.do(t, http.MethodGet, "/api/v1/forms?status=published", s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode(t, body)["total"])

	resp, body = s.do(t, http.MethodGet, "/api/v1/dashboard?sort=name", s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode(t, body)
	stats := dash["stats"].(map[string]any)
	assert.EqualValues(t, 2, stats["total"])
	assert.EqualValues(t, 1, stats["published"])
	cards := dash["forms"].([]any)
	require.Len(t, cards, 2)
	assert.EqualValues(t, 3, cards[0].(map[string]any)["fieldCount"])
	assert.Equal(t, "just now", cards[0].(map[string]any)["updated"])

	resp, _ = s.do(t, http.MethodDelete, "/api/v1/forms/"+dup["id"].(string), s.owner, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublicSubmitAndResponses(t *testing.T) {
	s := newServer(t)
	id := s.publish(t)

	resp, body := s.do(t, http.MethodGet, "/api/v1/public/forms/"+id, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	schema := decode(t, body)
	assert.Equal(t, "Team Survey", schema["title"])
	assert.NotContains(t, schema, "userId")

	resp, body = s.do(t, http.MethodPost, "/api/v1/public/forms/"+id+"/responses", "", map[string]any{
		"answers": map[string]any{"email": "nope"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	rejected := decode(t, body)
	assert.Equal(t, "Failed to submit response", rejected["error"])
	assert.Equal(t, map[string]any{
		"name":  "This field is required",
		"email": "Please enter a valid email address",
	}, rejected["fields"])

	resp, body = s.do(t, http.MethodPost, "/api/v1/public/forms/"+id+"/responses", s.stranger, map[string]any{
		"answers": map[string]any{"name": "Ada, Countess", "email": "ada@example.com"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode(t, body)
	assert.Equal(t, "Thank you for your response!", created["confirmationMessage"])
	respID := created["id"].(string)

	resp, body = s.do(t, http.MethodGet, "/api/v1/forms/"+id+"/responses?search=countess", s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode(t, body)
	assert.EqualValues(t, 1, list["total"])

	resp, body = s.do(t, http.MethodGet, "/api/v1/forms/"+id+"/responses/"+respID, s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	meta := decode(t, body)["metadata"].(map[string]any)
	assert.Equal(t, "stranger", meta["userId"])
	assert.Equal(t, "stranger@example.com", meta["respondentEmail"])

	resp, body = s.do(t, http.MethodGet, "/api/v1/forms/"+id+"/responses/export", s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Regexp(t, `^attachment; filename=team_survey_responses_\d{4}-\d{2}-\d{2}\.csv$`, resp.Header.Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(string(body), "Submitted At,Respondent Name,Respondent Email,Name,Email,CV\n"), string(body))
	assert.Contains(t, string(body), `"Ada, Countess"`)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/forms/"+id+"/responses/export", s.stranger, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(t, http.MethodDelete, "/api/v1/forms/"+id+"/responses/"+respID, s.owner, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/api/v1/forms/"+id+"/responses/export", s.owner, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDrafts(t *testing.T) {
	s := newServer(t)
	id := s.publish(t)
	path := "/api/v1/public/forms/" + id + "/draft"

	resp, body := s.do(t, http.MethodGet, path, s.stranger, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode(t, body)["exists"])

	resp, _ = s.do(t, http.MethodPut, path, s.stranger, map[string]any{"data": map[string]any{"name": "Ad"}})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, path, s.stranger, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decode(t, body)
	assert.Equal(t, true, d["exists"])
	assert.Equal(t, map[string]any{"name": "Ad"}, d["data"])
	assert.Equal(t, false, d["pending"])

	// another respondent has no draft
	resp, body = s.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode(t, body)["exists"])

	resp, _ = s.do(t, http.MethodDelete, path, s.stranger, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = s.do(t, http.MethodGet, path, s.stranger, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode(t, body)["exists"])

	resp, _ = s.do(t, http.MethodPut, "/api/v1/public/forms/missing/draft", "", map[string]any{"data": map[string]any{}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadAndDownload(t *testing.T) {
	s := newServer(t)
	id := s.publish(t)

	upload := func(name, content string) (*http.Response, []byte) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("fieldId", "cv"))
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		fw.Write([]byte(content))
		require.NoError(t, mw.Close())
		req, err := http.NewRequest(http.MethodPost, s.URL+"/api/v1/public/forms/"+id+"/uploads", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return send(t, req)
	}

	resp, body := upload("cv.exe", "MZ")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "File type not allowed. Allowed: .txt", decode(t, body)["reason"])

	resp, body = upload("cv.txt", "hello")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	ref := decode(t, body)
	assert.Equal(t, "cv.txt", ref["fileName"])
	assert.EqualValues(t, 5, ref["size"])
	uploadID := ref["uploadId"].(string)

	resp, body = s.do(t, http.MethodGet, "/api/v1/forms/"+id+"/uploads/"+uploadID, s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, `attachment; filename=cv.txt`, resp.Header.Get("Content-Disposition"))

	resp, body = upload(`we"ird; name.txt`, "x")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	oddID := decode(t, body)["uploadId"].(string)
	resp, _ = s.do(t, http.MethodGet, "/api/v1/forms/"+id+"/uploads/"+oddID, s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	disposition, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, `we"ird; name.txt`, params["filename"])

	resp, _ = s.do(t, http.MethodGet, "/api/v1/forms/"+id+"/uploads/"+uploadID, s.stranger, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFillPage(t *testing.T) {
	s := newServer(t)
	id := s.publish(t)

	resp, body := s.do(t, http.MethodGet, "/f/"+id, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "<h1>Team Survey</h1>")

	post := func(vals url.Values) (*http.Response, []byte) {
		req, err := http.NewRequest(http.MethodPost, s.URL+"/f/"+id, strings.NewReader(vals.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return send(t, req)
	}

	resp, body = post(url.Values{"email": {"ada@example.com"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "This field is required")
	assert.Contains(t, string(body), `value="ada@example.com"`)

	resp, body = post(url.Values{"name": {"Ada"}, "email": {"ada@example.com"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Thank you for your response!")

	resp, _ = s.do(t, http.MethodGet, "/f/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFillPage_KeepsUploadsAcrossRerender(t *testing.T) {
	s := newServer(t)
	resp, body := s.do(t, http.MethodPost, "/api/v1/forms", s.owner, map[string]any{
		"title": "Application",
		"fields": []any{
			map[string]any{"id": "name", "type": "short_text", "label": "Name", "required": true},
			map[string]any{"id": "cv", "type": "file_upload", "label": "CV", "allowedFileTypes": []any{".txt"}},
			map[string]any{"id": "cover", "type": "file_upload", "label": "Cover letter", "required": true},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	id := decode(t, body)["id"].(string)
	resp, _ = s.do(t, http.MethodPost, "/api/v1/forms/"+id+"/publish", s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	post := func(fields map[string]string, files map[string]string) (*http.Response, []byte) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, v := range fields {
			require.NoError(t, mw.WriteField(k, v))
		}
		for k, content := range files {
			fw, err := mw.CreateFormFile(k, k+".txt")
			require.NoError(t, err)
			fw.Write([]byte(content))
		}
		require.NoError(t, mw.Close())
		req, err := http.NewRequest(http.MethodPost, s.URL+"/f/"+id, &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return send(t, req)
	}

	// an invalid answer is reported before any file is stored
	resp, body = post(nil, map[string]string{"cv": "hello"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.NotContains(t, string(body), "cv__upload")

	resp, body = post(map[string]string{"name": "Ada"}, map[string]string{"cv": "hello"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "Uploaded: cv.txt")
	m := regexp.MustCompile(`name="cv__upload" value="([^"]+)"`).FindStringSubmatch(string(body))
	require.Len(t, m, 2, string(body))
	uploadID := m[1]

	resp, body = post(map[string]string{"name": "Ada", "cv__upload": uploadID}, map[string]string{"cover": "dear team"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "Thank you for your response!")

	resp, body = s.do(t, http.MethodGet, "/api/v1/forms/"+id+"/responses", s.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode(t, body)["responses"].([]any)
	require.Len(t, list, 1)
	answers := list[0].(map[string]any)["answers"].(map[string]any)
	assert.Equal(t, uploadID, answers["cv"].(map[string]any)["uploadId"])
	assert.Equal(t, "cover.txt", answers["cover"].(map[string]any)["fileName"])
}

func TestFieldTypes(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(t, http.MethodGet, "/api/v1/field-types", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode(t, body)["fieldTypes"].([]any)
	assert.Len(t, all, 17)

	resp, body = s.do(t, http.MethodGet, "/api/v1/field-types/rating", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rating", decode(t, body)["id"])

	resp, _ = s.do(t, http.MethodGet, "/api/v1/field-types/signature", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/api/v1/field-types/scale/new", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	field := decode(t, body)
	assert.Equal(t, "scale", field["type"])
	assert.Regexp(t, `^field_[0-9a-f]{8}$`, field["id"])

	resp, _ = s.do(t, http.MethodGet, "/api/v1/field-types/signature/new", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
