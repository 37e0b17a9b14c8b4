package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/storage"
)

const thumbnailSize = 200

type Service interface {
	Upload(ctx context.Context, in UploadInput) (*File, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*File, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *File, error)
	DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error)
}

type service struct {
	repo    Repository
	storage storage.Storage
	imgProc *storage.ImageProcessor
	now     func() time.Time
}

func NewService(repo Repository, store storage.Storage) Service {
	return &service{
		repo:    repo,
		storage: store,
		imgProc: storage.NewImageProcessor(),
		now:     time.Now,
	}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*File, error) {
	field := in.Field
	if field == "" {
		field = "file"
	}
	if in.FileHeader == nil {
		return nil, apperror.Validation(field, fmt.Sprintf("The %s field is required.", field))
	}

	if in.MaxSizeBytes > 0 && in.FileHeader.Size > in.MaxSizeBytes {
		return nil, apperror.Validation(field,
			fmt.Sprintf("The %s may not be greater than %d kilobytes.", field, in.MaxSizeBytes/1024))
	}

	src, err := in.FileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file failed: %w", err)
	}
	defer src.Close()

	// Images are small enough to buffer; the bytes are read twice (original + thumbnail).
	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read file content failed: %w", err)
	}
	if len(fileBytes) == 0 {
		return nil, apperror.Validation(field, fmt.Sprintf("The %s must not be empty.", field))
	}

	// Trust the bytes, not the client supplied header.
	contentType := http.DetectContentType(fileBytes)
	if len(in.AllowedTypes) > 0 && !slices.Contains(in.AllowedTypes, contentType) {
		return nil, apperror.Validation(field,
			fmt.Sprintf("The %s must be a file of type: %s.", field, describeTypes(in.AllowedTypes)))
	}

	ext := strings.ToLower(filepath.Ext(in.FileHeader.Filename))
	fileID := uuid.New().String()

	// Sharding path: upload/ab/UUID.ext
	shard := fileID[:2]
	storagePath := fmt.Sprintf("upload/%s/%s%s", shard, fileID, ext)

	if err := s.storage.Save(ctx, storagePath, bytes.NewReader(fileBytes)); err != nil {
		return nil, fmt.Errorf("save file to storage failed: %w", err)
	}

	var thumbnailPath *string
	if strings.HasPrefix(contentType, "image/") {
		thumbReader, err := s.imgProc.Thumbnail(bytes.NewReader(fileBytes), thumbnailSize)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("file_id", fileID).Msg("thumbnail generation failed")
		} else {
			tPath := fmt.Sprintf("upload/%s/%s_thumb.jpg", shard, fileID)
			if err := s.storage.Save(ctx, tPath, thumbReader); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("file_id", fileID).Msg("thumbnail save failed")
			} else {
				thumbnailPath = &tPath
			}
		}
	}

	f := &File{
		ID:            fileID,
		UserID:        in.UserID,
		Filename:      filepath.Base(in.FileHeader.Filename),
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		ContentType:   contentType,
		Size:          int64(len(fileBytes)),
		CreatedAt:     s.now().UTC(),
	}

	if err := s.repo.Create(ctx, f); err != nil {
		s.removeBlobs(ctx, f)
		return nil, err
	}

	return f, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Blobs go after the row so a failed delete never leaves a dangling record.
	s.removeBlobs(ctx, f)
	return nil
}

func (s *service) Get(ctx context.Context, id string) (*File, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Download(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.storage.Get(ctx, f.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Ctx(ctx).Error().Err(err).Str("file_id", id).Msg("file row has no stored blob")
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("retrieve file from storage failed: %w", err)
	}

	return stream, f, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if f.ThumbnailPath == nil {
		return nil, nil, ErrThumbnailUnavailable
	}

	stream, err := s.storage.Get(ctx, *f.ThumbnailPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrThumbnailUnavailable
		}
		return nil, nil, fmt.Errorf("retrieve thumbnail from storage failed: %w", err)
	}

	return stream, f, nil
}

func (s *service) removeBlobs(ctx context.Context, f *File) {
	if err := s.storage.Delete(ctx, f.StoragePath); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("file_id", f.ID).Msg("failed to remove stored file")
	}
	if f.ThumbnailPath != nil {
		if err := s.storage.Delete(ctx, *f.ThumbnailPath); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("file_id", f.ID).Msg("failed to remove stored thumbnail")
		}
	}
}

func describeTypes(types []string) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		switch t {
		case "image/jpeg":
			names = append(names, "jpg")
		case "image/png":
			names = append(names, "png")
		default:
			names = append(names, t)
		}
	}
	return strings.Join(names, ", ")
}
