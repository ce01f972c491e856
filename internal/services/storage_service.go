// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/readsphere/readsphere-api/internal/config"
	"github.com/readsphere/readsphere-api/internal/i18n"
	"github.com/readsphere/readsphere-api/internal/utils"
)

const coverFolder = "covers"

type StorageService struct {
	s3Client *s3.S3
	aws      config.AWSConfig
	storage  config.StorageConfig
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// NewStorageService uploads to S3 when AWS credentials are configured and to the local directory otherwise
func NewStorageService(cfg *config.Config) (*StorageService, error) {
	svc := &StorageService{
		aws:     cfg.AWS,
		storage: cfg.Storage,
	}

	if cfg.AWS.AccessKeyID == "" {
		return svc, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	svc.s3Client = s3.New(sess)
	return svc, nil
}

// UsesS3 reports whether uploads go to the S3 bucket
func (s *StorageService) UsesS3() bool {
	return s.s3Client != nil
}

func (s *StorageService) MaxUploadBytes() int64 {
	return int64(s.storage.MaxUploadMB) * 1024 * 1024
}

// UploadCover stores a cover image and returns its public URL
func (s *StorageService) UploadCover(ctx context.Context, file io.Reader, filename string, size int64) (*UploadResult, error) {
	if size > s.MaxUploadBytes() {
		return nil, utils.BadRequestErr(i18n.KeyFileTooLarge, s.storage.MaxUploadMB)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowedExt(ext) {
		return nil, utils.BadRequestErr(i18n.KeyFileInvalidType)
	}

	data, err := io.ReadAll(io.LimitReader(file, s.MaxUploadBytes()+1))
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, utils.CodeUnexpected, i18n.KeyFileUploadFailed, err)
	}
	if int64(len(data)) > s.MaxUploadBytes() {
		return nil, utils.BadRequestErr(i18n.KeyFileTooLarge, s.storage.MaxUploadMB)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, utils.BadRequestErr(i18n.KeyFileInvalidType)
	}

	key := path.Join(coverFolder, uuid.New().String()+ext)

	var result *UploadResult
	if s.s3Client != nil {
		result, err = s.uploadToS3(ctx, data, key, contentType)
	} else {
		result, err = s.uploadToLocal(data, key, contentType)
	}
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, utils.CodeUnexpected, i18n.KeyFileUploadFailed, err)
	}

	logrus.WithFields(logrus.Fields{"key": key, "size": result.Size}).Info("Cover uploaded")
	return result, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType string) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String(s3.ObjectCannedACLPublicRead),
		Metadata: map[string]*string{
			"sha256": aws.String(utils.HashBytes(data)),
		},
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.s3URL(key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(data []byte, key, contentType string) (*UploadResult, error) {
	target, err := s.localPath(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &UploadResult{
		URL:      strings.TrimRight(s.storage.PublicBaseURL, "/") + "/" + key,
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

// DeleteCover removes a previously uploaded cover; unknown keys are ignored
func (s *StorageService) DeleteCover(ctx context.Context, key string) error {
	if !isCoverKey(key) {
		return fmt.Errorf("refusing to delete %q: not a cover key", key)
	}

	if s.s3Client == nil {
		target, err := s.localPath(key)
		if err != nil {
			return err
		}
		err = os.Remove(target)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.aws.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// KeyFromURL recovers the storage key of a URL this service produced
func (s *StorageService) KeyFromURL(url string) (string, bool) {
	for _, prefix := range []string{s.s3URL(""), strings.TrimRight(s.storage.PublicBaseURL, "/") + "/"} {
		if prefix != "/" && strings.HasPrefix(url, prefix) {
			key := strings.TrimPrefix(url, prefix)
			if !isCoverKey(key) {
				return "", false
			}
			return key, true
		}
	}
	return "", false
}

// isCoverKey accepts only clean relative keys inside the covers folder
func isCoverKey(key string) bool {
	return path.Clean(key) == key &&
		strings.HasPrefix(key, coverFolder+"/") &&
		filepath.IsLocal(filepath.FromSlash(key))
}

// localPath maps a key into LocalDir and rejects anything that would land outside it
func (s *StorageService) localPath(key string) (string, error) {
	root, err := filepath.Abs(s.storage.LocalDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve upload dir: %w", err)
	}
	target := filepath.Join(root, filepath.FromSlash(key))
	rel, err := filepath.Rel(root, target)
	if err != nil || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("key %q escapes the upload dir", key)
	}
	return target, nil
}

func (s *StorageService) allowedExt(ext string) bool {
	for _, allowed := range s.storage.AllowedImageExt {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (s *StorageService) s3URL(key string) string {
	if s.aws.PublicURL != "" {
		return strings.TrimRight(s.aws.PublicURL, "/") + "/" + key
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.aws.S3Bucket, s.aws.Region, key)
}
