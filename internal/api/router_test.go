package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
)

type staticDecoder map[string]domain.Identity

func (d staticDecoder) Decode(token string) (domain.Identity, error) {
	id, ok := d[token]
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return id, nil
}

func newTestRouter() http.Handler {
	return NewRouter(Deps{
		Logger: zerolog.Nop(),
		Tokens: staticDecoder{
			"patient-token": {UserID: uuid.New(), Role: domain.RolePatient},
		},
		CORSOrigins:   []string{"*"},
		AuthRateRPS:   100,
		AuthRateBurst: 100,
		Registry:      prometheus.NewRegistry(),
	})
}

func serve(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicRoutes(t *testing.T) {
	h := newTestRouter()

	rec := serve(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = serve(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "etiaam_http_requests_total")

	rec = serve(h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/me"},
		{http.MethodPost, "/profile"},
		{http.MethodGet, "/evaluations/" + uuid.NewString()},
		{http.MethodPost, "/plan"},
		{http.MethodPut, "/plan/objectives/" + uuid.NewString()},
	} {
		rec := serve(h, route.method, route.path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
		assert.JSONEq(t, `{"error":"missing authorization header"}`, rec.Body.String())
	}
}

func TestRouter_ProfessionalRoutesRejectPatients(t *testing.T) {
	h := newTestRouter()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/patients"},
		{http.MethodGet, "/patients/detail"},
		{http.MethodPost, "/plan"},
		{http.MethodPut, "/plan/close/" + uuid.NewString()},
		{http.MethodPost, "/evaluations/competencies"},
	} {
		rec := serve(h, route.method, route.path, "patient-token")
		assert.Equal(t, http.StatusForbidden, rec.Code, route.path)
	}
}

func TestRouter_MalformedID(t *testing.T) {
	rec := serve(newTestRouter(), http.MethodGet, "/plan/not-a-uuid", "patient-token")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid plan_id"}`, rec.Body.String())
}

func TestRouter_UnknownPathIs404(t *testing.T) {
	rec := serve(newTestRouter(), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type recordingAuth struct {
	ports.AuthService
	registered []ports.RegisterInput
}

func (a *recordingAuth) Register(_ context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	a.registered = append(a.registered, in)
	return &ports.AuthResult{Token: "t", User: &domain.User{ID: uuid.New(), Email: in.Email, Role: in.Role}}, nil
}

func (a *recordingAuth) Login(_ context.Context, email, _ string) (*ports.AuthResult, error) {
	return &ports.AuthResult{Token: "t", User: &domain.User{ID: uuid.New(), Email: email, Role: domain.RolePatient}}, nil
}

func newAuthRouter(auth ports.AuthService, burst int, trusted ...*net.IPNet) http.Handler {
	return NewRouter(Deps{
		Logger:         zerolog.Nop(),
		Tokens:         staticDecoder{},
		Auth:           auth,
		CORSOrigins:    []string{"*"},
		AuthRateRPS:    0.001,
		AuthRateBurst:  burst,
		TrustedProxies: trusted,
		Registry:       prometheus.NewRegistry(),
	})
}

func postFrom(h http.Handler, path, remoteAddr, xff, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
		req.Header.Set("X-Real-IP", xff)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const registerBody = `{"email":"ana@example.com","password":"secret123","full_name":"Ana","role":"paciente",` +
	`"consent_text":"Acepto","consent_version":"v1.0"}`

func TestRouter_AuthRateLimitIgnoresForwardedHeaders(t *testing.T) {
	h := newAuthRouter(&recordingAuth{}, 2)

	var codes []int
	for i := 0; i < 6; i++ {
		rec := postFrom(h, "/login", "10.1.1.1:4000", fmt.Sprintf("203.0.113.%d", i+1),
			`{"email":"a@example.com","password":"pw"}`)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429, 429, 429}, codes)

	// a different socket peer has its own budget
	rec := postFrom(h, "/login", "10.1.1.2:4000", "", `{"email":"a@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ConsentIPIsSocketPeer(t *testing.T) {
	auth := &recordingAuth{}
	h := newAuthRouter(auth, 10)

	rec := postFrom(h, "/register", "198.51.100.7:5555", "203.0.113.99", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, auth.registered, 1)
	assert.Equal(t, "198.51.100.7", auth.registered[0].IPAddress)
}

func TestRouter_ConsentIPFromTrustedProxy(t *testing.T) {
	_, proxies, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)
	auth := &recordingAuth{}
	h := newAuthRouter(auth, 10, proxies)

	rec := postFrom(h, "/register", "10.0.0.5:5555", "203.0.113.99", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// an untrusted peer cannot inject an address
	rec = postFrom(h, "/register", "198.51.100.7:5555", "203.0.113.99", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, auth.registered, 2)
	assert.Equal(t, "203.0.113.99", auth.registered[0].IPAddress)
	assert.Equal(t, "198.51.100.7", auth.registered[1].IPAddress)
}
