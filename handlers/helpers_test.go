package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/internal/blogs"
	"github.com/karunyatrust/cms/internal/deliveries"
	"github.com/karunyatrust/cms/internal/records"
	"github.com/karunyatrust/cms/internal/storage"
	"github.com/karunyatrust/cms/internal/tokens"
	"github.com/karunyatrust/cms/internal/users"
	"github.com/karunyatrust/cms/pkg/middleware"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router  *gin.Engine
	records *records.Collections
	users   *users.Service
	token   string
}

func newTestServer(t *testing.T, d deliveries.Dispatcher) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	iss, err := tokens.NewIssuer("handlers-test-secret", 0)
	require.NoError(t, err)
	objects, err := storage.NewDiskStorage(&storage.DiskConfig{Dir: t.TempDir(), URLPrefix: "/public/uploads"})
	require.NoError(t, err)

	c := records.NewCollections(records.NewMemoryStore())
	userSvc := users.NewService(c, "users", iss)
	requireAuth := middleware.AuthMiddleware(iss)

	r := gin.New()
	root := r.Group("/")
	NewAuthHandler(userSvc).Register(root, requireAuth)
	NewBlogHandler(blogs.NewService(c, "blogs", objects)).Register(root, requireAuth)
	NewFileHandler(deliveries.NewService(c, "file-logs", objects, d)).Register(root, requireAuth)
	RegisterPublicConfig(r, "rzp_test_key")

	sess, err := userSvc.Register(t.Context(), "admin", "secret")
	require.NoError(t, err)
	return &testServer{router: r, records: c, users: userSvc, token: sess.Token}
}

func (s *testServer) do(req *http.Request, auth bool) *httptest.ResponseRecorder {
	if auth {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type filePart struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		pw, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
