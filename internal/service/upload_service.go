package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/parisxmas/formcraft/internal/errorz"
	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/repository"
)

// UploadService stores files respondents attach through file-upload fields.
type UploadService struct {
	uploads *repository.UploadRepo
	forms   *repository.FormRepo
	now     func() time.Time
}

func NewUploadService(uploads *repository.UploadRepo, forms *repository.FormRepo) *UploadService {
	return &UploadService{uploads: uploads, forms: forms, now: time.Now}
}

// Upload checks a file against the field's limits and stores it. The form
// must be published and fieldID must name one of its file-upload fields.
func (s *UploadService) Upload(ctx context.Context, formID, fieldID, fileName, contentType string, data []byte) (*models.Upload, error) {
	const op = "upload file"
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", op, errorz.Newf(errorz.ErrInvalid, "file data is empty"))
	}
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if form == nil || form.Status != models.StatusPublished {
		return nil, fmt.Errorf("%s: %w", op, formNotFound(formID))
	}
	field, ok := form.FieldByID(fieldID)
	if !ok || field.Type != models.KindFileUpload {
		return nil, fmt.Errorf("%s: %w", op, errorz.Newf(errorz.ErrInvalid, "field %s does not accept files", fieldID))
	}

	fileName = filepath.Base(fileName)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detectContentType(fileName)
	}
	if msg := checkFile(field, fileName, contentType, int64(len(data))); msg != "" {
		return nil, fmt.Errorf("%s: %w", op, errorz.Newf(errorz.ErrInvalid, "%s", msg))
	}

	up := &models.Upload{
		FormID:      formID,
		FieldID:     fieldID,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Content:     data,
		CreatedAt:   models.NewTimestamp(s.now()),
	}
	id, err := s.uploads.Create(ctx, up)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	up.ID = id
	return up, nil
}

// Download returns a stored file together with its content.
func (s *UploadService) Download(ctx context.Context, uploadID string) (*models.Upload, error) {
	const op = "download file"
	if uploadID == "" {
		return nil, fmt.Errorf("%s: %w", op, required("upload id"))
	}
	up, err := s.uploads.FindByID(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if up == nil {
		return nil, fmt.Errorf("%s: %w", op, errorz.Newf(errorz.ErrNotFound, "upload %s not found", uploadID))
	}
	return up, nil
}

// Resolve returns the upload a respondent attached to fieldID of formID. An
// id that names no such upload is not found.
func (s *UploadService) Resolve(ctx context.Context, formID, fieldID, uploadID string) (*models.Upload, error) {
	up, err := resolveUpload(ctx, s.uploads, formID, fieldID, uploadID)
	if err != nil {
		return nil, fmt.Errorf("resolve upload: %w", err)
	}
	return up, nil
}

func resolveUpload(ctx context.Context, uploads *repository.UploadRepo, formID, fieldID, uploadID string) (*models.Upload, error) {
	if uploadID == "" {
		return nil, required("upload id")
	}
	up, err := uploads.FindByID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if up == nil || up.FormID != formID || up.FieldID != fieldID {
		return nil, errorz.Newf(errorz.ErrNotFound, "upload %s not found", uploadID)
	}
	return up, nil
}

func (s *UploadService) Delete(ctx context.Context, uploadID string) error {
	if err := s.uploads.Delete(ctx, uploadID); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func detectContentType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	types := map[string]string{
		".pdf":  "application/pdf",
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".webp": "image/webp",
		".svg":  "image/svg+xml",
		".doc":  "application/msword",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".xls":  "application/vnd.ms-excel",
		".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		".csv":  "text/csv",
		".txt":  "text/plain",
		".json": "application/json",
		".zip":  "application/zip",
	}
	if ct, ok := types[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
