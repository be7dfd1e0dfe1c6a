// Package router tests drive the full middleware chain and every route group
// against the in-memory gateway.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"pagesmith/internal/auth"
	"pagesmith/internal/content"
	"pagesmith/internal/database"
	"pagesmith/internal/gateway"
	"pagesmith/internal/handlers"
	"pagesmith/internal/middleware"
	"pagesmith/internal/models"
	"pagesmith/internal/session"
	"pagesmith/internal/theme"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse"
)

// fakeBlobs records uploads in memory.
type fakeBlobs struct {
	objects map[string][]byte
	deleted []string
}

func (f *fakeBlobs) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobs) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

type env struct {
	handler  http.Handler
	mem      *gateway.Memory
	sessions *session.MemoryStore
	adminID  uuid.UUID
}

func newEnv(t *testing.T, blobs handlers.Blobs) *env {
	t.Helper()
	ctx := context.Background()

	mem := gateway.NewMemory()
	require.NoError(t, database.Seed(ctx, mem, database.SeedOptions{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	}))
	users, err := mem.ListRecords(ctx, nil, gateway.Users, gateway.Query{})
	require.NoError(t, err)
	require.Len(t, users, 1)

	sessions := session.NewMemoryStore(time.Hour)
	authSvc := auth.NewService(mem, sessions)
	api := handlers.New(handlers.Deps{
		Auth:    authSvc,
		Themes:  theme.NewService(mem, nil, nil),
		Content: content.NewService(mem),
		Records: mem,
		Blobs:   blobs,
		Locale:  language.English,
	})
	return &env{
		handler:  New(authSvc, api, Options{}),
		mem:      mem,
		sessions: sessions,
		adminID:  users[0].UUID("id"),
	}
}

// signIn opens a session that has passed 2FA.
func (e *env) signIn(t *testing.T, role models.Role) string {
	t.Helper()
	token, err := e.sessions.Create(context.Background(), &gateway.Session{
		UserID:    e.adminID,
		Email:     adminEmail,
		Role:      string(role),
		TwoFADone: true,
	})
	require.NoError(t, err)
	return token
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
		contentType = "text/csv"
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
		contentType = "application/json"
	}
	req := httptest.NewRequest(method, path, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["code"]
}

func TestHealth(t *testing.T) {
	e := newEnv(t, nil)
	w := e.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	e := newEnv(t, nil)
	for _, path := range []string{"/api/themes", "/api/auth/me", "/api/pages/home/sections", "/api/media"} {
		w := e.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "unauthenticated", errorCode(t, w), path)
	}

	w := e.do(t, http.MethodGet, "/api/themes", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStylesheetIsPublic(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do(t, http.MethodGet, "/api/stylesheet.css", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/css; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
	css := w.Body.String()
	assert.Contains(t, css, `[data-theme="light"]`)
	assert.Contains(t, css, `[data-theme="nord"]`)

	w = e.do(t, http.MethodGet, "/api/stylesheet.css?theme=dark", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `[data-theme="dark"]`)
	assert.NotContains(t, w.Body.String(), `[data-theme="light"]`)

	w = e.do(t, http.MethodGet, "/api/stylesheet.css?theme=missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginTwoFactorFlow(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do(t, http.MethodPost, "/api/auth/login", "", gateway.Credentials{Email: adminEmail, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, w))

	w = e.do(t, http.MethodPost, "/api/auth/login", "", gateway.Credentials{Email: "ADMIN@example.com", Password: adminPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[struct {
		Token    string `json:"token"`
		Needs2FA bool   `json:"needs_2fa"`
	}](t, w)
	assert.True(t, login.Needs2FA)
	require.NotEmpty(t, login.Token)
	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.Equal(t, login.Token, sessionCookie.Value)
	assert.True(t, sessionCookie.HttpOnly)

	w = e.do(t, http.MethodGet, "/api/themes", login.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "two_factor_required", errorCode(t, w))

	w = e.do(t, http.MethodPost, "/api/auth/2fa/confirm", login.Token, map[string]string{"code": "123456"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "confirm before enrol")

	w = e.do(t, http.MethodPost, "/api/auth/2fa/enroll", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	enrollment := decode[auth.Enrollment](t, w)
	require.NotEmpty(t, enrollment.Secret)
	assert.NotEmpty(t, enrollment.QRPNGBase64)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	w = e.do(t, http.MethodPost, "/api/auth/2fa/confirm", login.Token, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, "/api/themes", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]theme.Theme](t, w), 6)

	// With 2FA enabled the next sign-in needs a code.
	w = e.do(t, http.MethodPost, "/api/auth/login", "", gateway.Credentials{Email: adminEmail, Password: adminPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_code", errorCode(t, w))

	w = e.do(t, http.MethodPost, "/api/auth/logout", login.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = e.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func newLimiter(t *testing.T, limit int) *middleware.RateLimiter {
	t.Helper()
	rl := middleware.NewRateLimiter(limit, time.Minute)
	t.Cleanup(rl.Stop)
	return rl
}

func TestLoginRateLimited(t *testing.T) {
	e := newEnv(t, nil)
	authSvc := auth.NewService(e.mem, e.sessions)
	api := handlers.New(handlers.Deps{
		Auth:    authSvc,
		Themes:  theme.NewService(e.mem, nil, nil),
		Content: content.NewService(e.mem),
		Records: e.mem,
	})
	limiter := newLimiter(t, 2)
	e.handler = New(authSvc, api, Options{LoginLimiter: limiter})

	for range 2 {
		w := e.do(t, http.MethodPost, "/api/auth/login", "", gateway.Credentials{Email: adminEmail, Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := e.do(t, http.MethodPost, "/api/auth/login", "", gateway.Credentials{Email: adminEmail, Password: adminPassword})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestThemeLifecycle(t *testing.T) {
	e := newEnv(t, nil)
	token := e.signIn(t, models.RoleAdmin)

	w := e.do(t, http.MethodGet, "/api/themes/active", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	light := decode[theme.Theme](t, w)
	assert.Equal(t, "light", light.Slug)

	// Identical to the light palette.
	w = e.do(t, http.MethodPost, "/api/themes", token, theme.CreateInput{Name: "Copy", Tokens: theme.DefaultTokens()})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_tokens", errorCode(t, w))

	tokens := theme.DefaultTokens()
	tokens["primary"] = "#123456"
	w = e.do(t, http.MethodPost, "/api/themes", token, theme.CreateInput{Name: "Brand", Tokens: tokens})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	brand := decode[theme.Theme](t, w)
	assert.Equal(t, "brand", brand.Slug)
	assert.False(t, brand.IsActive)

	tokens["primary"] = "#654321"
	w = e.do(t, http.MethodPost, "/api/themes", token, theme.CreateInput{Name: "Other", Slug: "brand", Tokens: tokens})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_slug", errorCode(t, w))

	rename := "Brand 2"
	w = e.do(t, http.MethodPut, "/api/themes/"+light.ID.String(), token, theme.ThemePatch{Name: &rename})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "permission_denied", errorCode(t, w))

	w = e.do(t, http.MethodPut, "/api/themes/"+brand.ID.String(), token, theme.ThemePatch{Name: &rename})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Brand 2", decode[theme.Theme](t, w).Name)

	w = e.do(t, http.MethodPost, "/api/themes/"+brand.ID.String()+"/duplicate", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	draft := decode[theme.CreateInput](t, w)
	assert.Equal(t, "Brand 2 (copy)", draft.Name)
	assert.Equal(t, "#123456", draft.Tokens["primary"])

	w = e.do(t, http.MethodPost, "/api/themes/"+brand.ID.String()+"/activate", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodGet, "/api/themes/"+brand.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Slug  string `json:"slug"`
		InUse bool   `json:"in_use"`
	}](t, w)
	assert.True(t, got.InUse)

	w = e.do(t, http.MethodDelete, "/api/themes/"+brand.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[theme.DeleteResult](t, w)
	require.NotNil(t, res.Activated)
	assert.Equal(t, "light", res.Activated.Slug)

	w = e.do(t, http.MethodGet, "/api/themes/"+brand.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = e.do(t, http.MethodGet, "/api/themes/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveWidget(t *testing.T) {
	e := newEnv(t, nil)
	token := e.signIn(t, models.RoleEditor)

	w := e.do(t, http.MethodPost, "/api/themes/resolve", token, map[string]any{
		"config":     theme.Custom(theme.TokenSet{"primary": "#ff0000"}),
		"section_id": "s1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resolved := decode[struct {
		Tokens theme.TokenSet `json:"tokens"`
		CSS    string         `json:"css"`
	}](t, w)
	assert.Equal(t, "#ff0000", resolved.Tokens["primary"])
	assert.Equal(t, theme.DefaultTokens()["secondary"], resolved.Tokens["secondary"])
	assert.Contains(t, resolved.CSS, `[data-section="s1"]`)

	w = e.do(t, http.MethodPost, "/api/themes/resolve", token, map[string]any{
		"config": map[string]any{"mode": "sideways"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCustomCSSAdminOnly(t *testing.T) {
	e := newEnv(t, nil)
	body := map[string]string{"css": "body { margin: 0; }"}

	w := e.do(t, http.MethodPut, "/api/custom-css", e.signIn(t, models.RoleEditor), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errorCode(t, w))

	w = e.do(t, http.MethodPut, "/api/custom-css", e.signIn(t, models.RoleAdmin), body)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, "/api/stylesheet.css", "", nil)
	assert.Contains(t, w.Body.String(), "body { margin: 0; }")
}

func TestSectionsAndVariables(t *testing.T) {
	e := newEnv(t, nil)
	token := e.signIn(t, models.RoleEditor)
	base := "/api/pages/%2Fhome"

	w := e.do(t, http.MethodPut, base+"/sections", token, []map[string]any{
		{"type": "hero", "content": map[string]any{"headline": "Old headline", "ctaText": "Go"}},
		{"type": "footer", "content": map[string]any{"companyName": "Acme"}, "widgetTheme": theme.Named("dark")},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[[]map[string]any](t, w)
	require.Len(t, saved, 2)
	assert.Equal(t, "/home", saved[0]["pageId"])

	w = e.do(t, http.MethodGet, base+"/variables?format=csv", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "template-variables.csv")
	csvDoc := w.Body.String()
	require.Contains(t, csvDoc, "Old headline")

	edited := strings.Replace(csvDoc, "Old headline", "New headline", 1)
	w = e.do(t, http.MethodPost, base+"/variables", token, []byte(edited))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Positive(t, decode[map[string]int](t, w)["applied"])

	w = e.do(t, http.MethodGet, base+"/sections", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sections := decode[[]map[string]any](t, w)
	require.Len(t, sections, 2)
	assert.Equal(t, "New headline", sections[0]["content"].(map[string]any)["headline"])

	w = e.do(t, http.MethodGet, base+"/variables?template=Landing", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[map[string]any](t, w)
	assert.Equal(t, "Landing", doc["template"])
	assert.NotEmpty(t, doc["variables"])

	w = e.do(t, http.MethodPost, base+"/variables", token, map[string]any{"variables": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, base+"/variables?format=xml", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, base+"/sections", token, []map[string]any{{"type": ""}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPageValidate(t *testing.T) {
	e := newEnv(t, nil)
	token := e.signIn(t, models.RoleEditor)
	ctx := context.Background()
	sys := &gateway.Session{UserID: e.adminID, Role: string(models.RoleAdmin)}

	rec, err := e.mem.InsertRecord(ctx, sys, gateway.Templates, gateway.Record{"name": "Landing"})
	require.NoError(t, err)
	templateID := rec.UUID("id")
	hero := models.TemplateSection{TemplateID: templateID, Label: "Hero", Required: true}
	rec, err = e.mem.InsertRecord(ctx, sys, gateway.TemplateSections, hero.Record())
	require.NoError(t, err)
	heroID := rec.UUID("id")

	w := e.do(t, http.MethodGet, "/api/templates", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Template](t, w), 1)
	w = e.do(t, http.MethodGet, "/api/templates/"+templateID.String()+"/sections", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.TemplateSection](t, w), 1)

	path := "/api/pages/%2Flanding/validate?template=" + templateID.String()
	w = e.do(t, http.MethodGet, path+"&lang=fr", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[struct {
		IsValid bool             `json:"is_valid"`
		Errors  []map[string]any `json:"errors"`
		Report  string           `json:"report"`
	}](t, w)
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.NotEmpty(t, res.Report)

	w = e.do(t, http.MethodPut, "/api/pages/%2Flanding/content", token, map[string]any{
		"template_section_id": heroID,
		"fields":              map[string]any{"title": "Welcome"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[map[string]any](t, w)["is_valid"].(bool))

	w = e.do(t, http.MethodGet, "/api/pages/%2Flanding/validate", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(t, http.MethodGet, "/api/pages/%2Flanding/validate?template="+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetadata(t *testing.T) {
	e := newEnv(t, nil)
	token := e.signIn(t, models.RoleEditor)

	w := e.do(t, http.MethodPut, "/api/metadata?lang=fr", token, models.PageMetadata{PagePath: "/about"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	rejected := decode[map[string]any](t, w)
	assert.False(t, rejected["is_valid"].(bool))
	assert.Len(t, rejected["errors"], 2)

	w = e.do(t, http.MethodPut, "/api/metadata", token, models.PageMetadata{
		PagePath: "/about", Title: "About us", Description: "Who we are",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[struct {
		Metadata   models.PageMetadata `json:"metadata"`
		Validation struct {
			IsValid  bool             `json:"is_valid"`
			Warnings []map[string]any `json:"warnings"`
		} `json:"validation"`
	}](t, w)
	assert.Equal(t, "About us", saved.Metadata.Title)
	assert.True(t, saved.Validation.IsValid)
	assert.Len(t, saved.Validation.Warnings, 1, "keywords missing")

	w = e.do(t, http.MethodGet, "/api/metadata?path=/about", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Who we are", decode[models.PageMetadata](t, w).Description)

	w = e.do(t, http.MethodGet, "/api/metadata?path=/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPost, "/api/metadata/validate", token, models.PageMetadata{Title: "T"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[map[string]any](t, w)["is_valid"].(bool))
}

func multipartUpload(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("alt_text", "Logo"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(e *env, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestMediaWithoutStorage(t *testing.T) {
	e := newEnv(t, nil)
	body, ct := multipartUpload(t, "logo.png", pngHeader)
	w := upload(e, e.signIn(t, models.RoleEditor), body, ct)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMediaUploadAndDelete(t *testing.T) {
	blobs := &fakeBlobs{objects: map[string][]byte{}}
	e := newEnv(t, blobs)
	token := e.signIn(t, models.RoleEditor)

	body, ct := multipartUpload(t, "notes.txt", []byte("plain text"))
	w := upload(e, token, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, blobs.objects)

	body, ct = multipartUpload(t, "Logo.PNG", pngHeader)
	w = upload(e, token, body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decode[models.Media](t, w)
	assert.Equal(t, "image/png", m.ContentType)
	assert.True(t, strings.HasPrefix(m.S3Key, "media/"))
	assert.True(t, strings.HasSuffix(m.S3Key, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+m.S3Key, m.URL)
	require.NotNil(t, m.AltText)
	assert.Equal(t, "Logo", *m.AltText)
	assert.Equal(t, pngHeader, blobs.objects[m.S3Key])

	w = e.do(t, http.MethodGet, "/api/media", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Media](t, w), 1)

	w = e.do(t, http.MethodDelete, "/api/media/"+m.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{m.S3Key}, blobs.deleted)

	w = e.do(t, http.MethodDelete, "/api/media/"+m.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMediaThumbnail(t *testing.T) {
	blobs := &fakeBlobs{objects: map[string][]byte{}}
	e := newEnv(t, blobs)
	token := e.signIn(t, models.RoleEditor)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 1200, 630))))
	body, ct := multipartUpload(t, "og.png", img.Bytes())
	w := upload(e, token, body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	m := decode[models.Media](t, w)
	require.NotNil(t, m.Width)
	assert.Equal(t, 1200, *m.Width)
	assert.Equal(t, 630, *m.Height)
	require.NotNil(t, m.ThumbS3Key)
	assert.True(t, strings.HasSuffix(*m.ThumbS3Key, "_thumb.jpg"))
	assert.Equal(t, "https://cdn.example.com/"+*m.ThumbS3Key, *m.ThumbURL)
	assert.Len(t, blobs.objects, 2)

	w = e.do(t, http.MethodDelete, "/api/media/"+m.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, blobs.objects)
}
