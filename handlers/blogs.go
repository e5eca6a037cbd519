package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/internal/blogs"
	"github.com/karunyatrust/cms/internal/storage"
)

// BlogRequest is the JSON body accepted by create and update. Multipart
// requests carry the same fields as form values plus a featuredImage part.
type BlogRequest struct {
	Title       string `json:"title" form:"title"`
	Slug        string `json:"slug" form:"slug"`
	Description string `json:"description" form:"description"`
	SubHeading  string `json:"subHeading" form:"subHeading"`
	Content     string `json:"content" form:"content"`
	Author      string `json:"author" form:"author"`
	Status      string `json:"status" form:"status"`
	PublishedAt string `json:"publishedAt" form:"publishedAt"`
}

type BlogHandler struct {
	svc *blogs.Service
}

func NewBlogHandler(svc *blogs.Service) *BlogHandler {
	return &BlogHandler{svc: svc}
}

// Register mounts the public and admin blog routes. requireAuth guards the admin ones.
func (h *BlogHandler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	b := rg.Group("/blogs")
	b.GET("", h.ListPublished)
	b.GET("/:slug", h.GetBySlug)
	b.GET("/admin/all", requireAuth, h.ListAll)
	b.POST("", requireAuth, h.Create)
	b.PUT("/:id", requireAuth, h.Update)
	b.DELETE("/:id", requireAuth, h.Delete)
}

func (h *BlogHandler) ListPublished(c *gin.Context) {
	posts, err := h.svc.ListPublished(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *BlogHandler) GetBySlug(c *gin.Context) {
	post, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *BlogHandler) ListAll(c *gin.Context) {
	posts, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// bind reads the request fields and the optional image from either a
// multipart form or a JSON body.
func bind(c *gin.Context) (*BlogRequest, *storage.Upload, func(), error) {
	var req BlogRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			return nil, nil, func() {}, err
		}
		up, closeFn, err := formUpload(c, "featuredImage")
		if err != nil {
			return nil, nil, closeFn, err
		}
		return &req, up, closeFn, nil
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, nil, func() {}, err
	}
	return &req, nil, func() {}, nil
}

var publishedAtLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

func parsePublishedAt(s string) (time.Time, error) {
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable publishedAt %q", blogs.ErrInvalidPost, s)
}

func (h *BlogHandler) Create(c *gin.Context) {
	req, img, closeFn, err := bind(c)
	defer closeFn()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := blogs.Input{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		SubHeading:  req.SubHeading,
		Content:     req.Content,
		Author:      req.Author,
		Status:      req.Status,
	}
	if req.PublishedAt != "" {
		if in.PublishedAt, err = parsePublishedAt(req.PublishedAt); err != nil {
			writeError(c, err)
			return
		}
	}
	post, err := h.svc.Create(c.Request.Context(), in, img)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// supplied treats empty values as absent.
func supplied(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (h *BlogHandler) Update(c *gin.Context) {
	req, img, closeFn, err := bind(c)
	defer closeFn()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := blogs.Patch{
		Title:       supplied(req.Title),
		Slug:        supplied(req.Slug),
		Description: supplied(req.Description),
		SubHeading:  supplied(req.SubHeading),
		Content:     supplied(req.Content),
		Author:      supplied(req.Author),
		Status:      supplied(req.Status),
	}
	if req.PublishedAt != "" {
		t, err := parsePublishedAt(req.PublishedAt)
		if err != nil {
			writeError(c, err)
			return
		}
		p.PublishedAt = &t
	}
	post, err := h.svc.Update(c.Request.Context(), c.Param("id"), p, img)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *BlogHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blog removed"})
}
