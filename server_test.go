package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/middlewares"
	"github.com/mmdatafocus/itefm_backend/models"
	"github.com/mmdatafocus/itefm_backend/models/reports"
	"github.com/mmdatafocus/itefm_backend/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	testUsername = "operator"
	testPassword = "s3cret-pass"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	t.Setenv("ITEFM_USERNAME", testUsername)
	t.Setenv("ITEFM_PASSWORD_HASH", string(hash))

	config.UseMemoryStore(256, time.Hour)
	config.SetCampConfig(config.DefaultCampConfig())
	return setupRouter(config.GetLogger())
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": testUsername,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeBody(t, w)["data"].(map[string]any)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func workbook(t *testing.T, skip int, header []string, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range append([][]string{header}, rows...) {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, skip+1+r)
			require.NoError(t, err)
			require.NoError(t, f.SetCellStr("Sheet1", cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func testJobListing(t *testing.T) []byte {
	return workbook(t, models.JobListingSkipRows,
		[]string{"Equipment QR Code", "Status", "Frequency"},
		[][]string{{"CLC-001", "Closed", "Monthly"}})
}

func testAssetList(t *testing.T) []byte {
	return workbook(t, models.AssetListSkipRows,
		[]string{"Equipment Tag Number", "SOT Type", "Physical Location"},
		[][]string{
			{"CLC-001", "Indoor CCTV", "Gate A"},
			{"CLC-002", "Indoor CCTV", "Gate B"},
		})
}

func upload(t *testing.T, r http.Handler, token, kind, fileName string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/"+kind, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLogin_WrongCredentials(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": testUsername,
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid username or password", decodeBody(t, w)["error"])
}

func TestLogin_RefusedWithoutConfiguredCredentials(t *testing.T) {
	r := newTestRouter(t)
	t.Setenv("ITEFM_PASSWORD_HASH", "")
	w := doJSON(t, r, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": testUsername,
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSession_RequiresToken(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/session", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSession_DefaultsToFirstCampGroup(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := decodeBody(t, w)["data"].(map[string]any)["session"].(map[string]any)
	assert.Equal(t, "AC1", session["camp_group"])
	assert.Equal(t, testUsername, session["username"])
}

func TestCampGroups(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/v1/camp-groups", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	groups := data["groups"].([]any)
	assert.Len(t, groups, 3)
	assert.Len(t, data["keywords"].([]any), len(config.DefaultServiceKeywords))
}

func TestSelectCampGroup(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	w := doJSON(t, r, http.MethodPut, "/api/v1/session/camp-group", token, map[string]string{"camp_group": "AC9"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/v1/session/camp-group", token, map[string]string{"camp_group": "AC2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AC2", decodeBody(t, w)["data"].(map[string]any)["camp_group"])
}

func TestUpload_RejectsNonWorkbook(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	w := upload(t, r, token, "job", "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, r, token, "job", "fake.xlsx", []byte("plain text pretending"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, r, token, "invoice", "jobs.xlsx", testJobListing(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_RequiresBothUploads(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	w := upload(t, r, token, "job", "jobs.xlsx", testJobListing(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/v1/reports/generate", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please upload both job and asset files.", decodeBody(t, w)["error"])
}

func TestGenerateAndDownload(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	require.Equal(t, http.StatusOK, upload(t, r, token, "job", "jobs.xlsx", testJobListing(t)).Code)
	require.Equal(t, http.StatusOK, upload(t, r, token, "asset", "assets.xlsx", testAssetList(t)).Code)

	w := doJSON(t, r, http.MethodPost, "/api/v1/reports/generate", token, map[string]string{"camp_group": "AC1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "AC1", data["camp_group"])
	list := data["reports"].([]any)
	require.Len(t, list, 3)
	clc := list[0].(map[string]any)
	assert.Equal(t, "CLC", clc["camp"])
	assert.EqualValues(t, 1, clc["matched"])
	assert.EqualValues(t, 1, clc["unmatched"])
	assert.Equal(t, "/api/v1/reports/CLC/download", clc["download_url"])

	w = doJSON(t, r, http.MethodGet, "/api/v1/reports/CLC/download", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reports.ContentTypeXlsx, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "CLC_report.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{reports.SheetAllStatus, reports.SheetMatched, reports.SheetUnmatched}, f.GetSheetList())
	rows, err := f.GetRows(reports.SheetUnmatched)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CLC-002", rows[1][0])

	w = doJSON(t, r, http.MethodGet, "/api/v1/reports/CLC9/download", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPages_LoginFlow(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	form := url.Values{"username": {testUsername}, "password": {"wrong"}}
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid username or password.")

	form.Set("password", testPassword)
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusSeeOther, w.Code)

	cookie := tokenCookie(t, w)
	assert.True(t, cookie.HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `value="AC1"`)
	assert.Contains(t, body, `value="AC3"`)

	req = httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(url.Values{"camp_group": {"AC2"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please upload both job and asset files.")
}

func tokenCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middlewares.TokenCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", middlewares.TokenCookieName)
	return nil
}

func pageLogin(t *testing.T, r http.Handler) *http.Cookie {
	t.Helper()
	form := url.Values{"username": {testUsername}, "password": {testPassword}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusSeeOther, w.Code)
	return tokenCookie(t, w)
}

func TestPages_GenerateShowsDownloadsNextToCampErrors(t *testing.T) {
	r := newTestRouter(t)
	cookie := pageLogin(t, r)

	generate := generateReports
	generateReports = func(ctx context.Context, req workflow.Request) []workflow.CampOutput {
		outputs := generate(ctx, req)
		for i := range outputs {
			if outputs[i].Camp == "MJC" {
				outputs[i] = workflow.CampOutput{
					Camp:     "MJC",
					FileName: reports.ReportFileName("MJC"),
					Err:      &reports.ColumnNotFoundError{Table: reports.TableAssetList, Column: models.ColumnSOTType},
				}
			}
		}
		return outputs
	}
	t.Cleanup(func() { generateReports = generate })

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("camp_group", "AC1"))
	for field, file := range map[string][]byte{
		"job_file":   testJobListing(t),
		"asset_file": testAssetList(t),
	} {
		part, err := mw.CreateFormFile(field, field+".xlsx")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	page := w.Body.String()
	assert.Contains(t, page, `href="/reports/CLC/download"`)
	assert.Contains(t, page, "Download CLC_report.xlsx")
	assert.Contains(t, page, `href="/reports/BPC/download"`)
	assert.Contains(t, page, "MJC Error: column")
	assert.NotContains(t, page, `href="/reports/MJC/download"`)
	assert.Contains(t, page, "Uploaded: job_file.xlsx")

	req = httptest.NewRequest(http.MethodGet, "/reports/CLC/download", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reports.ContentTypeXlsx, w.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodGet, "/reports/MJC/download", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
