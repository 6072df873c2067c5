// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
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

	"github.com/javajoker/apparel-inventory/internal/config"
)

const spreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StorageService keeps a copy of every uploaded and exported workbook, in S3
// when credentials are configured and under the instance directory otherwise.
type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
}

type UploadResult struct {
	Location string `json:"location"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Local filesystem storage
		return &StorageService{config: config}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// NewStorageServiceWithClient is used when the S3 client is built elsewhere.
func NewStorageServiceWithClient(config *config.Config, client s3iface.S3API) *StorageService {
	return &StorageService{s3Client: client, config: config}
}

func (s *StorageService) SaveSpreadsheet(data []byte, originalName string, options UploadOptions) (*UploadResult, error) {
	// Validate file size
	if options.MaxSize > 0 && int64(len(data)) > options.MaxSize {
		return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("size %d bytes exceeds maximum allowed size %d bytes", len(data), options.MaxSize)}
	}

	// Validate file type
	if len(options.AllowedTypes) > 0 {
		fileExt := strings.ToLower(filepath.Ext(originalName))
		allowed := false
		for _, allowedType := range options.AllowedTypes {
			if fileExt == allowedType {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("type %s is not allowed", fileExt)}
		}
	}

	if !isZipContainer(data) {
		return nil, &ValidationError{Field: "file", Message: "is not an xlsx workbook"}
	}

	key := s.generateFileName(originalName, options.Folder)

	if s.s3Client != nil {
		return s.uploadToS3(data, key)
	}
	return s.uploadToLocal(data, key)
}

func (s *StorageService) uploadToS3(data []byte, key string) (*UploadResult, error) {
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(spreadsheetContentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, &PersistenceError{Op: "upload to S3", Err: err}
	}

	logrus.WithFields(logrus.Fields{"bucket": s.config.AWS.S3Bucket, "key": key}).Info("Spreadsheet stored in S3")
	return &UploadResult{
		Location: fmt.Sprintf("s3://%s/%s", s.config.AWS.S3Bucket, key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: spreadsheetContentType,
	}, nil
}

func (s *StorageService) uploadToLocal(data []byte, key string) (*UploadResult, error) {
	path := filepath.Join(s.config.App.InstanceDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &PersistenceError{Op: "create storage directory", Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, &PersistenceError{Op: "write spreadsheet", Err: err}
	}

	logrus.WithField("path", path).Info("Spreadsheet stored locally")
	return &UploadResult{
		Location: path,
		Key:      key,
		Size:     int64(len(data)),
		MimeType: spreadsheetContentType,
	}, nil
}

func (s *StorageService) GetDefaultUploadOptions(category string) UploadOptions {
	maxSize := s.config.App.MaxUploadSize
	switch category {
	case "imports":
		return UploadOptions{
			Folder:       "uploads",
			MaxSize:      maxSize,
			AllowedTypes: []string{".xlsx"},
		}
	default:
		return UploadOptions{
			Folder:       "exports",
			AllowedTypes: []string{".xlsx"},
		}
	}
}

func (s *StorageService) generateFileName(originalName, folder string) string {
	// Generate UUID for uniqueness
	id := uuid.New()

	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	ext := filepath.Ext(originalName)

	// Create filename with timestamp and UUID
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s_%s%s", timestamp, id.String()[:8], base, ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}

	return filename
}

// xlsx workbooks are zip archives
func isZipContainer(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K' && data[2] == 0x03 && data[3] == 0x04
}
