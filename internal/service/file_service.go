package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/observability"
	"inkpress/internal/repository"
	"inkpress/internal/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultMaxUploadBytes int64 = 10 << 20
	DefaultSignedURLTTL         = time.Hour
)

func isAllowedMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp",
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain":
		return true
	}
	return false
}

// Upload is one file received from a client. Open is called at most once.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadResult reports stored files and how many were skipped.
type UploadResult struct {
	Files   []*models.File `json:"-"`
	URLs    []string       `json:"urls"`
	Skipped int            `json:"skipped"`
}

// FileView is a file row with its classification and signed URLs.
type FileView struct {
	*models.File
	Type       models.FileType `json:"type"`
	URL        string          `json:"url"`
	PreviewURL string          `json:"preview_url,omitempty"`
}

type FileOptions struct {
	MaxBytes     int64
	URLTTL       time.Duration
	SkipPreviews bool
}

type FileService struct {
	fileRepo    repository.FileRepository
	articleRepo repository.ArticleRepository
	store       storage.ObjectStore
	maxBytes    int64
	urlTTL      time.Duration
	previews    bool
}

func NewFileService(
	fileRepo repository.FileRepository,
	articleRepo repository.ArticleRepository,
	store storage.ObjectStore,
	opts FileOptions,
) *FileService {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxUploadBytes
	}
	if opts.URLTTL <= 0 {
		opts.URLTTL = DefaultSignedURLTTL
	}
	return &FileService{
		fileRepo:    fileRepo,
		articleRepo: articleRepo,
		store:       store,
		maxBytes:    opts.MaxBytes,
		urlTTL:      opts.URLTTL,
		previews:    !opts.SkipPreviews,
	}
}

// Upload stores files for an article the caller wrote. Invalid or failing files are skipped.
func (s *FileService) Upload(ctx context.Context, userID, articleID uint, uploads []Upload) (*UploadResult, error) {
	if len(uploads) == 0 {
		return nil, models.NewBadRequestError("No files provided")
	}
	article, err := s.articleRepo.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !article.IsAuthor(userID) {
		return nil, models.NewForbiddenError("Only the author can attach files to this article")
	}
	return s.storeAll(ctx, userID, articleID, uploads), nil
}

func (s *FileService) storeAll(ctx context.Context, userID, articleID uint, uploads []Upload) *UploadResult {
	result := &UploadResult{URLs: []string{}}
	for _, up := range uploads {
		file, err := s.storeOne(ctx, userID, articleID, up)
		if err != nil {
			result.Skipped++
			middleware.Logger.WarnContext(ctx, "file upload skipped",
				slog.Uint64("article_id", uint64(articleID)),
				slog.String("filename", up.Filename),
				slog.String("error", err.Error()),
			)
			continue
		}
		url, err := s.store.PresignGet(ctx, file.Path, s.urlTTL)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "signing stored file failed",
				slog.String("key", file.Path),
				slog.String("error", err.Error()),
			)
		} else {
			result.URLs = append(result.URLs, url)
		}
		result.Files = append(result.Files, file)
	}
	return result
}

type rejectedUpload struct{ reason string }

func (e rejectedUpload) Error() string { return e.reason }

func (s *FileService) storeOne(ctx context.Context, userID, articleID uint, up Upload) (*models.File, error) {
	contentType := normalizeContentType(up.ContentType)
	if !isAllowedMIME(contentType) {
		observability.FileUploads.WithLabelValues("rejected").Inc()
		return nil, rejectedUpload{fmt.Sprintf("content type %q not allowed", contentType)}
	}
	if up.Size <= 0 || up.Size > s.maxBytes {
		observability.FileUploads.WithLabelValues("rejected").Inc()
		return nil, rejectedUpload{fmt.Sprintf("size %d outside 1..%d bytes", up.Size, s.maxBytes)}
	}

	data, err := readUpload(up, s.maxBytes)
	if err != nil {
		observability.FileUploads.WithLabelValues("rejected").Inc()
		return nil, err
	}

	key := objectKey(articleID, up.Filename)
	putCtx, span := observability.StartSpan(ctx, "storage.put",
		attribute.String("storage.driver", s.store.Driver()),
		attribute.Int("object.size", len(data)),
	)
	err = s.store.Put(putCtx, key, bytes.NewReader(data), int64(len(data)), contentType)
	observability.EndSpan(span, err)
	if err != nil {
		observability.FileUploads.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("store object: %w", err)
	}

	file := &models.File{
		UserID:    userID,
		ArticleID: articleID,
		Path:      key,
		Filename:  filepath.Base(up.Filename),
		Mimetype:  contentType,
		Size:      int64(len(data)),
	}
	if s.previews && models.ClassifyMimetype(contentType) == models.FileTypeImage {
		s.attachPreview(ctx, file, data)
	}

	if err := s.fileRepo.Create(ctx, file); err != nil {
		s.removeObjects(ctx, file)
		observability.FileUploads.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("record file: %w", err)
	}
	observability.FileUploads.WithLabelValues("stored").Inc()
	return file, nil
}

func (s *FileService) attachPreview(ctx context.Context, file *models.File, data []byte) {
	p, err := buildPreview(data)
	if err != nil {
		middleware.Logger.InfoContext(ctx, "image preview skipped",
			slog.String("key", file.Path),
			slog.String("error", err.Error()),
		)
		return
	}
	file.Width, file.Height = p.width, p.height

	previewKey := file.Path + previewSuffix
	if err := s.store.Put(ctx, previewKey, bytes.NewReader(p.data), int64(len(p.data)), previewMIME); err != nil {
		middleware.Logger.WarnContext(ctx, "storing image preview failed",
			slog.String("key", previewKey),
			slog.String("error", err.Error()),
		)
		return
	}
	file.PreviewKey = previewKey
}

// removeObjects is best effort cleanup after a failed metadata insert.
func (s *FileService) removeObjects(ctx context.Context, file *models.File) {
	for _, key := range []string{file.Path, file.PreviewKey} {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			middleware.Logger.WarnContext(ctx, "orphaned object left in store",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
}

func readUpload(up Upload, limit int64) ([]byte, error) {
	if up.Open == nil {
		return nil, rejectedUpload{"upload has no content"}
	}
	rc, err := up.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, rejectedUpload{"upload exceeds size limit"}
	}
	if len(data) == 0 {
		return nil, rejectedUpload{"upload is empty"}
	}
	return data, nil
}

// objectKey scopes a fresh random name under the article.
func objectKey(articleID uint, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\ ") {
		ext = ""
	}
	return fmt.Sprintf("articles/%d/%s%s", articleID, uuid.NewString(), ext)
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func (s *FileService) view(ctx context.Context, file *models.File) (*FileView, error) {
	url, err := s.store.PresignGet(ctx, file.Path, s.urlTTL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	v := &FileView{File: file, Type: file.Type(), URL: url}
	if file.PreviewKey != "" {
		if purl, err := s.store.PresignGet(ctx, file.PreviewKey, s.urlTTL); err == nil {
			v.PreviewURL = purl
		}
	}
	return v, nil
}

// ListByArticle returns the article's files with signed URLs.
func (s *FileService) ListByArticle(ctx context.Context, articleID uint) ([]*FileView, error) {
	exists, err := s.articleRepo.Exists(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Article", articleID)
	}
	files, err := s.fileRepo.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	views := make([]*FileView, 0, len(files))
	for _, f := range files {
		v, err := s.view(ctx, f)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *FileService) GetFile(ctx context.Context, id uint) (*FileView, error) {
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, file)
}

// DeleteFile removes the stored object and then the row.
// A storage failure keeps the row; a row failure after the object is gone is logged as an orphan.
func (s *FileService) DeleteFile(ctx context.Context, actor *models.User, id uint) error {
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if file.UserID != actor.ID && !actor.CanModerate() {
		return models.NewForbiddenError("Not allowed to delete this file")
	}

	if err := s.store.Delete(ctx, file.Path); err != nil {
		middleware.Logger.ErrorContext(ctx, "object delete failed, keeping file row",
			slog.Uint64("file_id", uint64(file.ID)),
			slog.String("key", file.Path),
			slog.String("error", err.Error()),
		)
		return models.NewInternalError(err)
	}
	if file.PreviewKey != "" {
		if err := s.store.Delete(ctx, file.PreviewKey); err != nil {
			middleware.Logger.WarnContext(ctx, "preview delete failed",
				slog.String("key", file.PreviewKey),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.fileRepo.Delete(ctx, file.ID); err != nil {
		middleware.Logger.ErrorContext(ctx, "file row orphaned after object delete",
			slog.Uint64("file_id", uint64(file.ID)),
			slog.String("key", file.Path),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// purgeObjects deletes the stored objects of files. The first primary-object failure aborts.
func (s *FileService) purgeObjects(ctx context.Context, files []models.File) (err error) {
	ctx, span := observability.StartSpan(ctx, "storage.purge", attribute.Int("files.count", len(files)))
	defer func() { observability.EndSpan(span, err) }()

	for i := range files {
		f := &files[i]
		if err := s.store.Delete(ctx, f.Path); err != nil {
			middleware.Logger.ErrorContext(ctx, "object delete failed",
				slog.Uint64("file_id", uint64(f.ID)),
				slog.String("key", f.Path),
				slog.String("error", err.Error()),
			)
			return models.NewInternalError(err)
		}
		if f.PreviewKey != "" {
			_ = s.store.Delete(ctx, f.PreviewKey)
		}
	}
	return nil
}
