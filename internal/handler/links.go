package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"trade-journal-linker/internal/linker"
	"trade-journal-linker/internal/matcher"
	"trade-journal-linker/internal/models"
	apperrors "trade-journal-linker/pkg/errors"
)

// LinkHandler serves suggestion and linking endpoints for the calling owner
type LinkHandler struct {
	Linker *linker.Linker
}

// Register mounts the link routes behind the owner middleware
func (h *LinkHandler) Register(r *gin.Engine) {
	g := r.Group("/api", RequireOwner())
	g.GET("/entries/:id/link-suggestions", h.entrySuggestions)
	g.POST("/entries/:id/link", h.link)
	g.POST("/entries/bulk-link", h.bulkLink)
	g.POST("/link-suggestions", h.suggest)
}

type suggestRequest struct {
	Tickers []string `json:"tickers"`
	Date    string   `json:"date"`
	Content string   `json:"content"`
	Limit   int      `json:"limit"`
}

type linkRequest struct {
	TradeID string `json:"tradeId"`
}

type bulkLinkRequest struct {
	EntryIDs []string `json:"entryIds"`
	Ticker   string   `json:"ticker"`
}

func (h *LinkHandler) entrySuggestions(c *gin.Context) {
	if h.Linker == nil {
		Error(c, http.StatusInternalServerError, "linker unavailable", nil)
		return
	}
	limit, err := limitQuery(c)
	if err != nil {
		Fail(c, err)
		return
	}
	entryID := c.Param("id")
	suggestions, err := h.Linker.SuggestForEntry(c.Request.Context(), ownerID(c), entryID, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, suggestions, map[string]any{"entryId": entryID, "count": len(suggestions)})
}

func (h *LinkHandler) suggest(c *gin.Context) {
	if h.Linker == nil {
		Error(c, http.StatusInternalServerError, "linker unavailable", nil)
		return
	}
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperrors.InputError(apperrors.CodeInvalidValue, "body", err.Error()))
		return
	}

	date := time.Now().UTC()
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := models.ParseTimeWithFormats(req.Date)
		if err != nil {
			Fail(c, apperrors.InputError(apperrors.CodeInvalidDate, "date", req.Date))
			return
		}
		date = parsed
	}

	suggestions, err := h.Linker.Suggest(c.Request.Context(), ownerID(c), matcher.MatchInput{
		Tickers: req.Tickers,
		Date:    date,
		Content: req.Content,
	}, req.Limit)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, suggestions, map[string]any{"count": len(suggestions)})
}

func (h *LinkHandler) link(c *gin.Context) {
	if h.Linker == nil {
		Error(c, http.StatusInternalServerError, "linker unavailable", nil)
		return
	}
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperrors.InputError(apperrors.CodeInvalidValue, "body", err.Error()))
		return
	}
	entryID := c.Param("id")
	trade, err := h.Linker.LinkEntry(c.Request.Context(), ownerID(c), entryID, strings.TrimSpace(req.TradeID))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{
		"entryId": entryID,
		"tradeId": trade.ID,
		"ticker":  trade.Ticker(),
	}, nil)
}

func (h *LinkHandler) bulkLink(c *gin.Context) {
	if h.Linker == nil {
		Error(c, http.StatusInternalServerError, "linker unavailable", nil)
		return
	}
	var req bulkLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperrors.InputError(apperrors.CodeInvalidValue, "body", err.Error()))
		return
	}
	if err := h.Linker.ValidateBatch(req.EntryIDs); err != nil {
		Fail(c, err)
		return
	}
	result := h.Linker.BulkLink(c.Request.Context(), ownerID(c), req.EntryIDs, req.Ticker)
	Ok(c, result, map[string]any{"processed": result.Processed()})
}

func limitQuery(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InputError(apperrors.CodeInvalidValue, "limit", raw)
	}
	return limit, nil
}
