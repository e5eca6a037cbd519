package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/internal/storage"
)

// formUpload opens the multipart file part named field. It returns a nil
// upload when the request carries no such part. The caller must call closeFn.
func formUpload(c *gin.Context, field string) (up *storage.Upload, closeFn func(), err error) {
	noop := func() {}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	up = &storage.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
	return up, func() { _ = f.Close() }, nil
}
