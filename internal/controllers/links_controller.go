package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/shortlinks/internal/services"
)

const maxQRSize = 1024

// LinksController обработчики коротких ссылок и публичного редиректа.
type LinksController struct {
	links LinkStore
}

func NewLinksController(links LinkStore) *LinksController {
	return &LinksController{links: links}
}

type createLinkRequest struct {
	LongURL string  `json:"longUrl"`
	Alias   *string `json:"alias"`
}

// Create обрабатывает POST /api/url.
//
// Ответы:
//   - 200 созданная ссылка
//   - 400 {"message": ...} при ошибке валидации или занятом alias
func (c *LinksController) Create(ctx *gin.Context) {
	user, ok := mustUser(ctx)
	if !ok {
		return
	}
	var req createLinkRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(err)
		ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	link, err := c.links.Create(reqCtx, user.ID, services.CreateLinkParams{
		LongURL: req.LongURL,
		Alias:   req.Alias,
	})
	if err != nil {
		respondError(ctx, err, "URL not found")
		return
	}
	ctx.JSON(http.StatusOK, link)
}

// List обрабатывает GET /api/url/me: ссылки пользователя, новые первыми.
func (c *LinksController) List(ctx *gin.Context) {
	user, ok := mustUser(ctx)
	if !ok {
		return
	}
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	links, err := c.links.List(reqCtx, user.ID)
	if err != nil {
		respondError(ctx, err, "URL not found")
		return
	}
	ctx.JSON(http.StatusOK, links)
}

// Delete обрабатывает DELETE /api/url/:id.
func (c *LinksController) Delete(ctx *gin.Context) {
	user, ok := mustUser(ctx)
	if !ok {
		return
	}
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	if err := c.links.Delete(reqCtx, ctx.Param("id"), user.ID); err != nil {
		respondError(ctx, err, "URL not found")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "URL deleted"})
}

// Analytics обрабатывает GET /api/url/analytics/:id.
func (c *LinksController) Analytics(ctx *gin.Context) {
	user, ok := mustUser(ctx)
	if !ok {
		return
	}
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	analytics, err := c.links.Analytics(reqCtx, ctx.Param("id"), user.ID)
	if err != nil {
		respondError(ctx, err, "URL not found")
		return
	}
	ctx.JSON(http.StatusOK, analytics)
}

// Stats обрабатывает GET /api/url/stats: сводка для дашборда.
func (c *LinksController) Stats(ctx *gin.Context) {
	user, ok := mustUser(ctx)
	if !ok {
		return
	}
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	stats, err := c.links.Stats(reqCtx, user.ID)
	if err != nil {
		respondError(ctx, err, "URL not found")
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// QRCode обрабатывает GET /api/url/:id/qr?size=N и отдает PNG.
func (c *LinksController) QRCode(ctx *gin.Context) {
	user, ok := mustUser(ctx)
	if !ok {
		return
	}
	size := 0
	if raw := ctx.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxQRSize {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "Invalid size"})
			return
		}
		size = parsed
	}
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	png, err := c.links.QRCode(reqCtx, ctx.Param("id"), user.ID, size)
	if err != nil {
		respondError(ctx, err, "URL not found")
		return
	}
	ctx.Data(http.StatusOK, "image/png", png)
}

// Redirect обрабатывает GET /:shortId. Учитывает переход и отвечает 302 Found.
// Неизвестный идентификатор - 404 с текстом "Not found".
func (c *LinksController) Redirect(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	longURL, err := c.links.Visit(reqCtx, ctx.Param("shortID"))
	if err != nil {
		_ = ctx.Error(err)
		if errors.Is(err, services.ErrRecordNotFound) {
			ctx.String(http.StatusNotFound, "Not found")
			return
		}
		ctx.String(http.StatusInternalServerError, "Server error")
		return
	}
	ctx.Redirect(http.StatusFound, longURL)
}
