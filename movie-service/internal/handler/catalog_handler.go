package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/movie-service/internal/service"
	"github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/response"
)

// ListMovies serves the trending, top rated and upcoming listings.
func (h *Handler) ListMovies(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		l.Warn().Err(err).Msg("invalid list request")
		response.BadRequest(c, err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = service.ModeTrending
	}

	list, err := h.svc.Catalog.List(ctx, optionalUserID(c), req.Mode, req.Page)
	if err != nil {
		writeError(c, err, "failed to list movies")
		return
	}
	response.Success(c, list)
}

// SearchMovies searches by title.
func (h *Handler) SearchMovies(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		l.Warn().Err(err).Msg("invalid search request")
		response.BadRequest(c, err.Error())
		return
	}

	list, err := h.svc.Catalog.Search(ctx, optionalUserID(c), req.Query, req.Page)
	if err != nil {
		writeError(c, err, "search failed")
		return
	}
	response.Success(c, list)
}

// DiscoverMovies lists movies of one genre.
func (h *Handler) DiscoverMovies(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.DiscoverRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		l.Warn().Err(err).Msg("invalid discover request")
		response.BadRequest(c, err.Error())
		return
	}

	list, err := h.svc.Catalog.Discover(ctx, optionalUserID(c), req.Genre, req.Page)
	if err != nil {
		writeError(c, err, "failed to discover movies")
		return
	}
	response.Success(c, list)
}

// MovieDetails serves the detail view. For a signed-in caller it also sets
// the favourite and watched flags and may record the view.
func (h *Handler) MovieDetails(c *gin.Context) {
	ctx := c.Request.Context()

	tmdbID, err := strconv.Atoi(c.Param("id"))
	if err != nil || tmdbID <= 0 {
		response.BadRequest(c, "invalid movie id")
		return
	}

	details, err := h.svc.Catalog.Details(ctx, tmdbID)
	if err != nil {
		writeError(c, err, "failed to get movie details")
		return
	}
	h.svc.Library.Decorate(ctx, optionalUserID(c), details)
	response.Success(c, details)
}

func (h *Handler) Genres(c *gin.Context) {
	genres, err := h.svc.Catalog.Genres(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to list genres")
		return
	}
	response.Success(c, genres)
}
