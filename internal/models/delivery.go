package models

import "time"

const (
	DeliverySuccess = "success"
	DeliveryFailed  = "failed"
)

// DeliveryLog records one attempt to send a file to a contact. Entries are
// appended and never modified.
type DeliveryLog struct {
	ID           string    `json:"_id"`
	PatientName  string    `json:"patientName"`
	PhoneNumber  string    `json:"phoneNumber"`
	PatientEmail string    `json:"patientEmail"`
	FileURL      string    `json:"fileUrl"`
	FileType     string    `json:"fileType"`
	Status       string    `json:"status"`
	SentAt       time.Time `json:"sentAt"`
	CreatedAt    time.Time `json:"createdAt"`
}
