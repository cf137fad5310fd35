package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/cmx-713/adaptive-english-writing/internal/dto"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
)

var (
	// ErrUploadTooLarge indicates the photo exceeded the configured limit.
	ErrUploadTooLarge = errors.New("image exceeds maximum allowed size")
	// ErrUploadNotImage indicates the payload is not an image.
	ErrUploadNotImage = errors.New("file is not an image")
	// ErrUploadUnavailable indicates no media store is configured.
	ErrUploadUnavailable = errors.New("image storage not configured")
)

// FileUploader abstracts the media store behind essay photo attachment.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// UploadService attaches a photo of handwritten work to an essay.
type UploadService interface {
	AttachImage(ctx context.Context, studentID, essayID uint, file *multipart.FileHeader) (dto.EssayResponse, error)
}

type uploadService struct {
	essays   repository.EssayRepository
	uploader FileUploader
	activity ActivityRecorder
	logger   zerolog.Logger
	maxSize  int64
	tracer   trace.Tracer
}

// NewUploadService constructs the image attachment service. uploader may be
// nil when no media store is configured; AttachImage then fails cleanly.
func NewUploadService(essays repository.EssayRepository, uploader FileUploader, activity ActivityRecorder, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 8
	}
	return &uploadService{
		essays:   essays,
		uploader: uploader,
		activity: activity,
		logger:   logger.With().Str("component", "upload_service").Logger(),
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		tracer:   otel.Tracer("github.com/cmx-713/adaptive-english-writing/internal/service/upload"),
	}
}

func (s *uploadService) AttachImage(ctx context.Context, studentID, essayID uint, file *multipart.FileHeader) (dto.EssayResponse, error) {
	if s.uploader == nil {
		return dto.EssayResponse{}, ErrUploadUnavailable
	}

	essay, err := s.essays.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EssayResponse{}, ErrEssayNotFound
		}

		return dto.EssayResponse{}, err
	}
	if essay.StudentID != studentID {
		return dto.EssayResponse{}, ErrEssayNotFound
	}

	ctx, span := s.tracer.Start(ctx, "essay.attach_image")
	defer span.End()
	span.SetAttributes(attribute.Int("essay.id", int(essayID)))

	if file == nil {
		err := errors.New("image file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.EssayResponse{}, err
	}
	if file.Size > s.maxSize {
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.EssayResponse{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.EssayResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.EssayResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.EssayResponse{}, ErrUploadTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("upload.detected_mime", mime.String()))
	if !strings.HasPrefix(mime.String(), "image/") {
		span.RecordError(ErrUploadNotImage)
		span.SetStatus(codes.Error, "type not allowed")
		return dto.EssayResponse{}, ErrUploadNotImage
	}

	checksum := sha256.Sum256(buf.Bytes())
	name := fmt.Sprintf("essay-%d-%x%s", essayID, checksum[:6], mime.Extension())

	url, err := s.uploader.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.EssayResponse{}, err
	}

	essay.ImageURL = url
	if err := s.essays.Update(ctx, &essay); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.EssayResponse{}, err
	}

	if err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    studentID,
		ActorRole:  "student",
		Action:     "essay.image_attached",
		EntityType: "essay",
		EntityID:   &essay.ID,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record upload activity")
	}

	span.SetStatus(codes.Ok, "stored")

	return dto.NewEssayResponse(essay), nil
}
