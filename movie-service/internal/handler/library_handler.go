package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/cinema-chronicles/movie-service/internal/domain"
	"github.com/weiawesome/cinema-chronicles/pkg/log"
	"github.com/weiawesome/cinema-chronicles/pkg/response"
)

// ToggleFavorite adds or removes a favourite.
func (h *Handler) ToggleFavorite(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	id, ok := userID(c)
	if !ok {
		return
	}

	var req domain.MovieRef
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid toggle favorite request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Library.ToggleFavorite(ctx, id, req.TMDBID)
	if err != nil {
		writeError(c, err, "failed to toggle favorite")
		return
	}
	response.Success(c, result)
}

func (h *Handler) Favorites(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	page := pageParam(c)
	entries, total, err := h.svc.Library.Favorites(c.Request.Context(), id, page)
	if err != nil {
		writeError(c, err, "failed to list favorites")
		return
	}
	response.Success(c, response.NewPage(entries, page, domain.HistoryPerPage, total))
}

// AddToHistory records a view of a movie for today.
func (h *Handler) AddToHistory(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	id, ok := userID(c)
	if !ok {
		return
	}

	var req domain.MovieRef
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid history request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Library.AddToHistory(ctx, id, req.TMDBID)
	if err != nil {
		writeError(c, err, "failed to add to history")
		return
	}
	response.Success(c, result)
}

func (h *Handler) History(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	page := pageParam(c)
	entries, total, err := h.svc.Library.History(c.Request.Context(), id, page)
	if err != nil {
		writeError(c, err, "failed to list history")
		return
	}
	response.Success(c, response.NewPage(entries, page, domain.HistoryPerPage, total))
}

func (h *Handler) Stats(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	stats, err := h.svc.Library.Stats(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to get stats")
		return
	}
	response.Success(c, stats)
}

func (h *Handler) GetPreferences(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	p, err := h.svc.Preferences.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to get preferences")
		return
	}
	response.Success(c, p)
}

// UpdatePreferences changes the fields present in the body.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	id, ok := userID(c)
	if !ok {
		return
	}

	var req domain.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid preferences request")
		response.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.Preferences.Update(ctx, id, &req)
	if err != nil {
		writeError(c, err, "failed to update preferences")
		return
	}
	response.Success(c, p)
}

func (h *Handler) ResetPreferences(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	p, err := h.svc.Preferences.Reset(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to reset preferences")
		return
	}
	response.Success(c, p)
}

func (h *Handler) GetUserData(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	data, err := h.svc.UserData.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to get user data")
		return
	}
	response.Success(c, data)
}

// SaveUserData replaces the caller's session data.
func (h *Handler) SaveUserData(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	id, ok := userID(c)
	if !ok {
		return
	}

	var req domain.UserData
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid user data request")
		response.BadRequest(c, err.Error())
		return
	}

	data, err := h.svc.UserData.Save(ctx, id, &req)
	if err != nil {
		writeError(c, err, "failed to save user data")
		return
	}
	response.Success(c, data)
}

// Export writes the caller's data to storage and returns its URL.
func (h *Handler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.svc.Accounts.GetUser(ctx, id)
	if err != nil {
		writeError(c, err, "failed to load user")
		return
	}

	result, err := h.svc.Exports.Export(ctx, user)
	if err != nil {
		writeError(c, err, "failed to export data")
		return
	}
	response.Created(c, result)
}

// DownloadExport streams an export written by Export. Only its owner may
// read it.
func (h *Handler) DownloadExport(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := userID(c)
	if !ok {
		return
	}

	file := c.Param("file")
	r, err := h.svc.Exports.Open(ctx, id, c.Param("user")+"/"+file)
	if err != nil {
		writeError(c, err, "failed to open export")
		return
	}
	defer r.Close()

	c.DataFromReader(http.StatusOK, -1, "application/json", r, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, file),
	})
}
