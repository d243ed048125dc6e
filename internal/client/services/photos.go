package services

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/absensi/internal/client/client"
	"github.com/dmitrijs2005/absensi/internal/client/repositories/attendance"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/netx"
)

type ArchiveResult struct {
	Uploaded int
	Failed   int
}

// PhotoService copies attendance photos to object storage through
// presigned URLs handed out by the endpoint. The local photo stays; only
// the object key is recorded.
type PhotoService interface {
	Archive(ctx context.Context) (ArchiveResult, error)
}

type photoService struct {
	attendance attendance.Repository
	remote     client.Remote
	gate       *Gate
	http       *http.Client
	deviceID   func(ctx context.Context) (string, error)
	log        logging.Logger
}

func NewPhotoService(att attendance.Repository, remote client.Remote, gate *Gate, httpClient *http.Client, deviceID func(ctx context.Context) (string, error), log logging.Logger) PhotoService {
	return &photoService{
		attendance: att,
		remote:     remote,
		gate:       gate,
		http:       httpClient,
		deviceID:   deviceID,
		log:        log.With("component", "photos"),
	}
}

func photoKey(deviceID, date string, id int64) string {
	return path.Join("photos", deviceID, date, fmt.Sprintf("%d-%s", id, uuid.NewString()))
}

// Archive uploads every photo that has no object key yet. A failed upload
// is logged and counted; the row is retried next time.
func (s *photoService) Archive(ctx context.Context) (ArchiveResult, error) {
	var res ArchiveResult

	rows, err := s.attendance.FindPhotosToArchive(ctx)
	if err != nil {
		return res, fmt.Errorf("load photos: %w", err)
	}
	if len(rows) == 0 {
		return res, nil
	}

	u, err := s.gate.Open(ctx)
	if err != nil {
		return res, err
	}
	device, err := s.deviceID(ctx)
	if err != nil {
		return res, fmt.Errorf("device id: %w", err)
	}

	for _, r := range rows {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		key := photoKey(device, r.Date, r.ID)
		target, err := s.remote.PhotoUploadURL(ctx, u, key)
		if err != nil {
			s.log.Warn(ctx, "photo upload url failed", "id", r.ID, "error", err)
			res.Failed++
			continue
		}
		if err := netx.UploadPresigned(ctx, s.http, target, netx.SniffContentType(r.Photo), r.Photo); err != nil {
			s.log.Warn(ctx, "photo upload failed", "id", r.ID, "error", err)
			res.Failed++
			continue
		}
		if err := s.attendance.SetPhotoKey(ctx, r.ID, key); err != nil {
			return res, fmt.Errorf("store photo key: %w", err)
		}
		res.Uploaded++
	}

	s.log.Info(ctx, "photos archived", "uploaded", res.Uploaded, "failed", res.Failed)
	if res.Uploaded == 0 && res.Failed > 0 {
		return res, fmt.Errorf("%w: archive photos: %d uploads failed", ErrFailedFetch, res.Failed)
	}
	return res, nil
}
