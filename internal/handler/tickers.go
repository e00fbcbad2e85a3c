package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"trade-journal-linker/internal/tickers"
)

// TickerHandler serves ticker autocomplete
type TickerHandler struct{}

// Register mounts GET /api/ticker/search
func (h *TickerHandler) Register(r *gin.Engine) {
	r.GET("/api/ticker/search", h.search)
}

func (h *TickerHandler) search(c *gin.Context) {
	limit := tickers.DefaultSearchLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	results := tickers.Search(c.Query("q"), limit)
	Ok(c, results, map[string]any{"count": len(results)})
}
