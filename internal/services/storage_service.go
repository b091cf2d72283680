// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/i18n"
)

// StorageService stores product images on S3 when AWS credentials are
// configured and on local disk otherwise.
type StorageService struct {
	s3Client s3iface.S3API
	aws      config.AWSConfig
	storage  config.StorageConfig
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
	IsPublic     bool
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		// Local disk for development
		return &StorageService{aws: cfg.AWS, storage: cfg.Storage}, nil
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

	return NewStorageServiceWithClient(s3.New(sess), cfg), nil
}

func NewStorageServiceWithClient(client s3iface.S3API, cfg *config.Config) *StorageService {
	return &StorageService{
		s3Client: client,
		aws:      cfg.AWS,
		storage:  cfg.Storage,
	}
}

func (s *StorageService) ProductImageOptions() UploadOptions {
	return UploadOptions{
		Folder:       "products",
		MaxSize:      s.storage.MaxImageSize,
		AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		IsPublic:     true,
	}
}

// UploadProductImage stores an image uploaded as a multipart form file.
func (s *StorageService) UploadProductImage(ctx context.Context, header *multipart.FileHeader) (*UploadResult, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	return s.UploadFile(ctx, file, header.Filename, s.ProductImageOptions())
}

func (s *StorageService) UploadFile(ctx context.Context, file io.Reader, originalName string, options UploadOptions) (*UploadResult, error) {
	fileExt := strings.ToLower(filepath.Ext(originalName))
	if len(options.AllowedTypes) > 0 && !containsString(options.AllowedTypes, fileExt) {
		return nil, newInvalidInput(i18n.KeyFileInvalidType, fileExt)
	}

	// Read one byte past the limit so a lying Content-Length cannot slip through
	reader := file
	if options.MaxSize > 0 {
		reader = io.LimitReader(file, options.MaxSize+1)
	}
	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if options.MaxSize > 0 && int64(len(fileBytes)) > options.MaxSize {
		return nil, newInvalidInput(i18n.KeyFileTooLarge, options.MaxSize/(1024*1024))
	}

	if !isValidImageType(fileBytes) {
		return nil, newInvalidInput(i18n.KeyFileInvalidType, fileExt)
	}
	contentType := http.DetectContentType(fileBytes)

	key := generateFileName(fileExt, options.Folder)

	if s.s3Client != nil {
		return s.uploadToS3(ctx, fileBytes, key, contentType, options.IsPublic)
	}
	return s.uploadToLocal(fileBytes, key, contentType)
}

func (s *StorageService) uploadToS3(ctx context.Context, fileBytes []byte, key, contentType string, isPublic bool) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}

	if isPublic {
		params.ACL = aws.String("public-read")
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"bucket": s.aws.S3Bucket,
		"key":    key,
		"size":   len(fileBytes),
	}).Info("Uploaded file to S3")

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	path := filepath.Join(s.storage.LocalDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"path": path,
		"size": len(fileBytes),
	}).Info("Stored file on local disk")

	return &UploadResult{
		URL:      strings.TrimRight(s.storage.PublicBaseURL, "/") + "/" + key,
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) getS3URL(key string) string {
	if s.aws.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.aws.CloudFrontURL, "/"), key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.aws.S3Bucket, s.aws.Region, key)
}

// generateFileName returns folder/yyyymmdd_<8 hex>.ext
func generateFileName(ext, folder string) string {
	filename := fmt.Sprintf("%s_%s%s", time.Now().Format("20060102"), uuid.New().String()[:8], ext)
	if folder != "" {
		return folder + "/" + filename
	}
	return filename
}

// isValidImageType checks the file signature, not the extension.
func isValidImageType(buffer []byte) bool {
	switch {
	case len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF:
		return true
	case len(buffer) >= 8 && bytes.Equal(buffer[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}):
		return true
	case len(buffer) >= 6 && (string(buffer[:6]) == "GIF87a" || string(buffer[:6]) == "GIF89a"):
		return true
	case len(buffer) >= 12 && string(buffer[:4]) == "RIFF" && string(buffer[8:12]) == "WEBP":
		return true
	}
	return false
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
