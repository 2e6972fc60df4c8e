package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/service"
	"github.com/weiawesome/cinema-chronicles/pkg/jwt"
	"github.com/weiawesome/cinema-chronicles/pkg/middleware"
)

// Stubs embed the service interfaces so each test only provides the
// methods it reaches.
type stubCatalog struct {
	service.CatalogService
	list    func(userID uint, mode string, page int) (*domain.MovieList, error)
	details func(tmdbID int) (*domain.MovieDetails, error)
}

func (s *stubCatalog) List(_ context.Context, userID uint, mode string, page int) (*domain.MovieList, error) {
	return s.list(userID, mode, page)
}

func (s *stubCatalog) Details(_ context.Context, tmdbID int) (*domain.MovieDetails, error) {
	return s.details(tmdbID)
}

type stubLibrary struct {
	service.LibraryService
	decorated []uint
	toggled   []int
}

func (s *stubLibrary) Decorate(_ context.Context, userID uint, d *domain.MovieDetails) {
	s.decorated = append(s.decorated, userID)
	d.IsFavorite = userID != 0
}

func (s *stubLibrary) ToggleFavorite(_ context.Context, _ uint, tmdbID int) (*domain.ToggleResult, error) {
	s.toggled = append(s.toggled, tmdbID)
	return &domain.ToggleResult{IsFavorite: true, Action: domain.ActionAdded}, nil
}

func (s *stubLibrary) Favorites(_ context.Context, _ uint, page int) ([]domain.FavoriteEntry, int64, error) {
	return []domain.FavoriteEntry{{Movie: domain.MovieSummary{TMDBID: 603}}}, 13, nil
}

type stubAccounts struct {
	service.AccountService
	signupErr error
}

func (s *stubAccounts) Signup(_ context.Context, req *domain.SignupRequest) (*domain.AuthResponse, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	return &domain.AuthResponse{User: domain.UserResponse{ID: 1, Username: req.Username}}, nil
}

type stubExports struct {
	service.ExportService
}

func (stubExports) Open(_ context.Context, _ uint, key string) (io.ReadCloser, error) {
	if key != "7/neo.json" {
		return nil, service.ErrExportNotFound
	}
	return io.NopCloser(strings.NewReader(`{"user":"neo"}`)), nil
}

type fakeValidator struct{}

func (fakeValidator) ValidateAccess(token string) (*jwt.Claims, error) {
	if token != "good" {
		return nil, jwt.ErrInvalidToken
	}
	return &jwt.Claims{UserID: "7", Username: "neo"}, nil
}

type testServer struct {
	router   *gin.Engine
	catalog  *stubCatalog
	library  *stubLibrary
	accounts *stubAccounts
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	ts := &testServer{
		catalog:  &stubCatalog{},
		library:  &stubLibrary{},
		accounts: &stubAccounts{},
	}
	h := NewHandler(Services{
		Catalog:  ts.catalog,
		Library:  ts.library,
		Accounts: ts.accounts,
		Exports:  stubExports{},
	}, middleware.NewAuthMiddleware(fakeValidator{}), middleware.NewCSRF(middleware.CSRFConfig{Enabled: true}))

	ts.router = gin.New()
	h.RegisterRoutes(ts.router)
	return ts
}

type requestOption func(*http.Request)

func withToken(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }

func withCSRF(r *http.Request) {
	r.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: "tok"})
	r.Header.Set(middleware.CSRFHeaderName, "tok")
}

func (ts *testServer) do(method, target, body string, opts ...requestOption) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestListMovies_ErrorMapping(t *testing.T) {
	ts := newTestServer()

	cases := []struct {
		err    error
		status int
	}{
		{service.ErrInvalidMode, http.StatusBadRequest},
		{fmt.Errorf("trending: %w", service.ErrUpstream), http.StatusBadGateway},
		{service.ErrMovieNotFound, http.StatusNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		ts.catalog.list = func(uint, string, int) (*domain.MovieList, error) { return nil, tc.err }
		w := ts.do(http.MethodGet, "/api/v1/movies?mode=x", "")
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}

func TestListMovies_DefaultsAndPersonalises(t *testing.T) {
	ts := newTestServer()
	var gotUser uint
	var gotMode string
	ts.catalog.list = func(userID uint, mode string, page int) (*domain.MovieList, error) {
		gotUser, gotMode = userID, mode
		return &domain.MovieList{Page: page, Source: domain.SourceTMDB}, nil
	}

	w := ts.do(http.MethodGet, "/api/v1/movies?page=2", "", withToken)
	require.Equal(t, http.StatusOK, w.Code)
	var list domain.MovieList
	decodeData(t, w, &list)
	assert.Equal(t, 2, list.Page)
	assert.Equal(t, service.ModeTrending, gotMode)
	assert.EqualValues(t, 7, gotUser)

	w = ts.do(http.MethodGet, "/api/v1/movies", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer bad")
	})
	require.Equal(t, http.StatusOK, w.Code, "an invalid token is anonymous on public routes")
	assert.Zero(t, gotUser)
}

func TestMovieDetails_Decorates(t *testing.T) {
	ts := newTestServer()
	ts.catalog.details = func(id int) (*domain.MovieDetails, error) {
		return &domain.MovieDetails{MovieSummary: domain.MovieSummary{TMDBID: id, Title: "The Matrix"}}, nil
	}

	w := ts.do(http.MethodGet, "/api/v1/movies/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/movies/603", "", withToken)
	require.Equal(t, http.StatusOK, w.Code)
	var d domain.MovieDetails
	decodeData(t, w, &d)
	assert.Equal(t, 603, d.TMDBID)
	assert.True(t, d.IsFavorite)
	assert.Equal(t, []uint{7}, ts.library.decorated)
}

func TestLibrary_RequiresAuthAndCSRF(t *testing.T) {
	ts := newTestServer()
	body := `{"tmdb_id":603}`

	w := ts.do(http.MethodPost, "/api/v1/favorites/toggle", body, withToken)
	assert.Equal(t, http.StatusForbidden, w.Code, "csrf header missing")

	w = ts.do(http.MethodPost, "/api/v1/favorites/toggle", body, withCSRF)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/favorites/toggle", `{"tmdb_id":0}`, withCSRF, withToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/favorites/toggle", body, withCSRF, withToken)
	require.Equal(t, http.StatusOK, w.Code)
	var res domain.ToggleResult
	decodeData(t, w, &res)
	assert.True(t, res.IsFavorite)
	assert.Equal(t, []int{603}, ts.library.toggled)
}

func TestFavorites_Paged(t *testing.T) {
	ts := newTestServer()

	w := ts.do(http.MethodGet, "/api/v1/favorites?page=1", "", withToken)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items      []domain.FavoriteEntry `json:"items"`
		TotalPages int                    `json:"total_pages"`
		HasNext    bool                   `json:"has_next"`
	}
	decodeData(t, w, &page)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
}

func TestSignup_Conflict(t *testing.T) {
	ts := newTestServer()
	body := `{"username":"neo","email":"neo@example.com","password":"followthewhiterabbit"}`

	w := ts.do(http.MethodPost, "/api/v1/auth/signup", body, withCSRF)
	require.Equal(t, http.StatusCreated, w.Code)

	ts.accounts.signupErr = service.ErrEmailExists
	w = ts.do(http.MethodPost, "/api/v1/auth/signup", body, withCSRF)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCSRFEndpoint_IssuesCookie(t *testing.T) {
	ts := newTestServer()

	w := ts.do(http.MethodGet, "/api/v1/auth/csrf", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Token string `json:"csrf_token"`
	}
	decodeData(t, w, &body)
	assert.NotEmpty(t, body.Token)
	assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.CSRFCookieName+"="+body.Token)
}

func TestDownloadExport_OwnerOnly(t *testing.T) {
	ts := newTestServer()

	w := ts.do(http.MethodGet, "/api/v1/exports/7/neo.json", "", withToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"neo"}`, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "neo.json")

	w = ts.do(http.MethodGet, "/api/v1/exports/8/neo.json", "", withToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
