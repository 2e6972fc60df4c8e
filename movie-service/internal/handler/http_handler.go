package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/service"
	"github.com/weiawesome/cinema-chronicles/pkg/jwt"
	"github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/middleware"
	"github.com/weiawesome/cinema-chronicles/pkg/prefs"
	"github.com/weiawesome/cinema-chronicles/pkg/response"
)

// Services are the use cases behind the HTTP API.
type Services struct {
	Catalog     service.CatalogService
	Library     service.LibraryService
	Preferences service.PreferencesService
	UserData    service.UserDataService
	Exports     service.ExportService
	Accounts    service.AccountService
}

// Handler handles HTTP requests for movie service.
type Handler struct {
	svc            Services
	authMiddleware *middleware.AuthMiddleware
	csrf           *middleware.CSRF
}

// NewHandler creates a new HTTP handler.
func NewHandler(svc Services, authMiddleware *middleware.AuthMiddleware, csrf *middleware.CSRF) *Handler {
	return &Handler{
		svc:            svc,
		authMiddleware: authMiddleware,
		csrf:           csrf,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.Use(h.csrf.Protect())
	{
		auth := api.Group("/auth")
		{
			auth.GET("/csrf", h.csrf.Handler)
			auth.POST("/signup", h.Signup)
			auth.POST("/login", h.Login)
			auth.POST("/refresh", h.RefreshToken)
			auth.POST("/logout", h.authMiddleware.RequireAuth(), h.Logout)
			auth.GET("/me", h.authMiddleware.RequireAuth(), h.GetMe)
		}

		// Public routes; a valid token personalises the response.
		catalog := api.Group("")
		catalog.Use(h.authMiddleware.OptionalAuth())
		{
			catalog.GET("/movies", h.ListMovies)
			catalog.GET("/movies/search", h.SearchMovies)
			catalog.GET("/movies/discover", h.DiscoverMovies)
			catalog.GET("/movies/:id", h.MovieDetails)
			catalog.GET("/genres", h.Genres)
		}

		// Protected routes
		library := api.Group("")
		library.Use(h.authMiddleware.RequireAuth())
		{
			library.POST("/favorites/toggle", h.ToggleFavorite)
			library.GET("/favorites", h.Favorites)
			library.POST("/history", h.AddToHistory)
			library.GET("/history", h.History)
			library.GET("/stats", h.Stats)
			library.GET("/preferences", h.GetPreferences)
			library.PUT("/preferences", h.UpdatePreferences)
			library.DELETE("/preferences", h.ResetPreferences)
			library.GET("/user-data", h.GetUserData)
			library.POST("/user-data", h.SaveUserData)
			library.POST("/export", h.Export)
			library.GET("/exports/:user/:file", h.DownloadExport)
		}
	}
}

// userID returns the authenticated user. It writes a 401 and returns false
// when the request carries no usable identity.
func userID(c *gin.Context) (uint, bool) {
	id, ok := middleware.GetUserIDUint(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
	}
	return id, ok
}

// optionalUserID returns 0 for anonymous requests.
func optionalUserID(c *gin.Context) uint {
	id, _ := middleware.GetUserIDUint(c)
	return id
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// writeError maps service errors to responses. Unknown errors are logged
// with msg and reported as 500.
func writeError(c *gin.Context, err error, msg string) {
	l := log.Ctx(c.Request.Context())
	switch {
	case errors.Is(err, service.ErrMovieNotFound):
		response.NotFound(c, "movie not found")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, service.ErrExportNotFound):
		response.NotFound(c, "export not found")
	case errors.Is(err, service.ErrUpstream):
		l.Warn().Err(err).Msg(msg)
		response.BadGateway(c, "movie database unavailable")
	case errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, service.ErrInvalidPreferences),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, prefs.ErrInvalidValue):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, "email already exists")
	case errors.Is(err, service.ErrUsernameExists):
		response.Conflict(c, "username already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, "invalid email or password")
	case errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrExpiredToken),
		errors.Is(err, jwt.ErrRevokedToken):
		response.Unauthorized(c, "invalid or expired refresh token")
	default:
		l.Error().Err(err).Msg(msg)
		response.InternalError(c, msg)
	}
}
