package handlers

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/internal/deliveries"
)

// SendRequest holds the contact fields of POST /files/send.
type SendRequest struct {
	PatientName string `form:"patientName"`
	PhoneNumber string `form:"phoneNumber"`
	Email       string `form:"email"`
}

type FileHandler struct {
	svc        *deliveries.Service
	reportsDir string
}

func NewFileHandler(svc *deliveries.Service) *FileHandler {
	return &FileHandler{svc: svc}
}

// ServeReportsFrom enables GET /files/reports/*key for reports stored on disk
// under dir.
func (h *FileHandler) ServeReportsFrom(dir string) *FileHandler {
	h.reportsDir = dir
	return h
}

// Register mounts the delivery routes; all of them require auth.
func (h *FileHandler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	f := rg.Group("/files", requireAuth)
	f.POST("/send", h.Send)
	f.GET("/logs", h.Logs)
	if h.reportsDir != "" {
		f.GET("/"+deliveries.ReportFolder+"/*key", h.Report)
	}
}

// Report streams a delivered report. Directories and missing files are 404.
func (h *FileHandler) Report(c *gin.Context) {
	key := path.Clean("/" + c.Param("key"))
	p := filepath.Join(h.reportsDir, deliveries.ReportFolder, filepath.FromSlash(key))
	if fi, err := os.Stat(p); err != nil || fi.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	c.File(p)
}

func (h *FileHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	up, closeFn, err := formUpload(c, "file")
	defer closeFn()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if up == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	to := deliveries.Contact{Name: req.PatientName, Phone: req.PhoneNumber, Email: req.Email}
	entry, err := h.svc.Send(c.Request.Context(), to, up)
	if errors.Is(err, deliveries.ErrDeliveryFailed) && entry != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "log": entry})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "File sent successfully!", "log": entry})
}

func (h *FileHandler) Logs(c *gin.Context) {
	logs, err := h.svc.ListLogs(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
