package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/tunestash/internal/service/cache"
	"github.com/oshokin/tunestash/internal/version"
)

// maxSaveAllBodySize bounds the JSON body of a bulk save.
const maxSaveAllBodySize = 500 << 20

type handlers struct {
	service cache.Service
}

func newHandlers(service cache.Service) *handlers {
	return &handlers{service: service}
}

// saveAllBody is the JSON body of POST /api/playlist/save-all.
type saveAllBody struct {
	Source  string          `json:"source"`
	Quality string          `json:"quality"`
	Songs   []cache.SongRef `json:"songs"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Short()})
}

func (h *handlers) tasks(c *gin.Context) {
	respondOK(c, h.service.Tasks())
}

func (h *handlers) library(c *gin.Context) {
	items, err := h.service.Scan(c.Request.Context())
	if err != nil {
		respondError(c, err)

		return
	}

	respondOK(c, items)
}

func (h *handlers) storageStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)

		return
	}

	respondOK(c, stats)
}

// play streams a song: GET /api/proxy/url?source=&id=&br=.
func (h *handlers) play(c *gin.Context) {
	request := cache.PlayRequest{
		Source:  c.Query("source"),
		ID:      c.Query("id"),
		Quality: c.Query("br"),
	}

	if err := h.service.Play(c.Request.Context(), c.Writer, c.Request, request); err != nil {
		respondError(c, err)
	}
}

// lyrics returns plain-text lyrics: GET /api/proxy/lrc?source=&id=.
func (h *handlers) lyrics(c *gin.Context) {
	text, err := h.service.Lyrics(c.Request.Context(), c.Query("source"), c.Query("id"))
	if err != nil {
		respondError(c, err)

		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// cover serves the cached cover or redirects to upstream: GET /api/proxy/pic?source=&id=.
func (h *handlers) cover(c *gin.Context) {
	result, err := h.service.Cover(c.Request.Context(), c.Query("source"), c.Query("id"))
	if err != nil {
		respondError(c, err)

		return
	}

	if result.LocalPath != "" {
		c.File(result.LocalPath)

		return
	}

	c.Redirect(http.StatusFound, result.RedirectURL)
}

func (h *handlers) saveAll(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSaveAllBodySize)

	var body saveAllBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, fmt.Errorf("%w: %w", cache.ErrInvalidRequest, err))

		return
	}

	result, err := h.service.SaveAll(c.Request.Context(), cache.SaveAllRequest{
		Source:  body.Source,
		Quality: body.Quality,
		Songs:   body.Songs,
	})
	if err != nil {
		respondError(c, err)

		return
	}

	respondMessage(c, fmt.Sprintf("Save finished: %d succeeded, %d failed", result.Success, result.Failed), result)
}
