package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/karunyatrust/cms/internal/deliveries"
	"github.com/karunyatrust/cms/internal/models"
	"github.com/stretchr/testify/require"
)

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(ctx context.Context, to deliveries.Contact, fileRef string) error {
	return errors.New("gateway unavailable")
}

var contact = map[string]string{"patientName": "Ravi", "phoneNumber": "9999999999", "email": "ravi@example.org"}

func TestSendFile(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "POST", "/files/send", contact,
		filePart{field: "file", name: "report.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4")})

	w := s.do(req, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	got := decode[struct {
		Message string             `json:"message"`
		Log     models.DeliveryLog `json:"log"`
	}](t, w)
	require.Equal(t, "File sent successfully!", got.Message)
	require.Equal(t, models.DeliverySuccess, got.Log.Status)
	require.Equal(t, "ravi@example.org", got.Log.PatientEmail)
	require.NotEmpty(t, got.Log.FileURL)

	w = s.do(jsonRequest("GET", "/files/logs", nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[[]models.DeliveryLog](t, w)
	require.Len(t, logs, 1)
	require.Equal(t, got.Log.ID, logs[0].ID)
}

func TestSendFile_RequiresFile(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(multipartRequest(t, "POST", "/files/send", contact), true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "File is required")

	w = s.do(jsonRequest("GET", "/files/logs", nil), true)
	require.Empty(t, decode[[]models.DeliveryLog](t, w))
}

func TestSendFile_FailedDeliveryIsLogged(t *testing.T) {
	s := newTestServer(t, failingDispatcher{})
	req := multipartRequest(t, "POST", "/files/send", contact,
		filePart{field: "file", name: "report.pdf", contentType: "application/pdf", data: []byte("%PDF")})

	w := s.do(req, true)
	require.Equal(t, http.StatusBadGateway, w.Code)
	got := decode[struct {
		Error string             `json:"error"`
		Log   models.DeliveryLog `json:"log"`
	}](t, w)
	require.Contains(t, got.Error, "gateway unavailable")
	require.Equal(t, models.DeliveryFailed, got.Log.Status)
	require.Empty(t, got.Log.FileURL)

	w = s.do(jsonRequest("GET", "/files/logs", nil), true)
	logs := decode[[]models.DeliveryLog](t, w)
	require.Len(t, logs, 1)
	require.Equal(t, models.DeliveryFailed, logs[0].Status)
}

func TestFileRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusUnauthorized, s.do(jsonRequest("GET", "/files/logs", nil), false).Code)
	require.Equal(t, http.StatusUnauthorized, s.do(multipartRequest(t, "POST", "/files/send", contact), false).Code)
}
