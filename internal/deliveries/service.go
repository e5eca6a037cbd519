// Package deliveries keeps the log of files sent to patients.
//
// Delivering the file is delegated to a Dispatcher; the log only records
// what was attempted and how it ended.
package deliveries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/karunyatrust/cms/internal/models"
	"github.com/karunyatrust/cms/internal/records"
	"github.com/karunyatrust/cms/internal/storage"
	"github.com/karunyatrust/cms/pkg/logger"
	"github.com/karunyatrust/cms/pkg/metrics"
)

// ReportFolder is the object store folder delivered files are written to.
const ReportFolder = "reports"

var (
	// ErrDeliveryFailed is returned by Send after a failed attempt has been logged.
	ErrDeliveryFailed = errors.New("delivery failed")
	ErrInvalidOutcome = errors.New("invalid delivery outcome")
)

var log = logger.Named("deliveries")

// Contact identifies the recipient of a delivery.
type Contact struct {
	Name  string
	Phone string
	Email string
}

// Dispatcher hands a stored file to an outside channel such as email or SMS.
type Dispatcher interface {
	Dispatch(ctx context.Context, to Contact, fileRef string) error
}

// LogDispatcher only logs the send.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, to Contact, fileRef string) error {
	log.Infof("sending %s to %s / %s", fileRef, to.Email, to.Phone)
	return nil
}

type Service struct {
	records    *records.Collections
	collection string
	objects    storage.ObjectStore
	dispatcher Dispatcher
	now        func() time.Time
}

// NewService returns a Service. A nil dispatcher selects LogDispatcher.
func NewService(c *records.Collections, collection string, objects storage.ObjectStore, d Dispatcher) *Service {
	if d == nil {
		d = LogDispatcher{}
	}
	return &Service{
		records:    c,
		collection: collection,
		objects:    objects,
		dispatcher: d,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RecordDelivery prepends an entry to the log and returns it.
func (s *Service) RecordDelivery(ctx context.Context, to Contact, fileRef, outcome string) (*models.DeliveryLog, error) {
	if outcome != models.DeliverySuccess && outcome != models.DeliveryFailed {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	now := s.now()
	entry := &models.DeliveryLog{
		ID:           records.NewID(),
		PatientName:  to.Name,
		PhoneNumber:  to.Phone,
		PatientEmail: to.Email,
		FileURL:      fileRef,
		FileType:     "report",
		Status:       outcome,
		SentAt:       now,
		CreatedAt:    now,
	}
	rec, err := records.Encode(entry)
	if err != nil {
		return nil, err
	}
	if _, err := s.records.Update(ctx, s.collection, func(recs []records.Record) ([]records.Record, error) {
		return append([]records.Record{rec}, recs...), nil
	}); err != nil {
		return nil, err
	}
	metrics.Deliveries.WithLabelValues(outcome).Inc()
	return entry, nil
}

// ListLogs returns the log, most recent first.
func (s *Service) ListLogs(ctx context.Context) ([]models.DeliveryLog, error) {
	recs, err := s.records.Read(ctx, s.collection)
	if err != nil {
		return nil, err
	}
	out := make([]models.DeliveryLog, 0, len(recs))
	for _, r := range recs {
		var e models.DeliveryLog
		if err := records.Decode(r, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Send stores file, dispatches it and logs the outcome. When storing or
// dispatching fails, a failed entry with an empty file reference is logged
// and returned together with an error wrapping ErrDeliveryFailed.
func (s *Service) Send(ctx context.Context, to Contact, file *storage.Upload) (*models.DeliveryLog, error) {
	if file == nil || file.Body == nil {
		return nil, fmt.Errorf("%w: file is required", storage.ErrInvalidFile)
	}
	ref, err := storage.Save(ctx, s.objects, ReportFolder, file)
	if err == nil {
		err = s.dispatcher.Dispatch(ctx, to, ref)
	}
	if err != nil {
		log.Errorf("delivery to %s failed: %v", to.Email, err)
		entry, rerr := s.RecordDelivery(ctx, to, "", models.DeliveryFailed)
		if rerr != nil {
			return nil, errors.Join(fmt.Errorf("%w: %w", ErrDeliveryFailed, err), rerr)
		}
		return entry, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return s.RecordDelivery(ctx, to, ref, models.DeliverySuccess)
}
