// Package artifacts persists analysis reports: JSON files under the reports
// home and optional uploads to the configured S3 bucket.
package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/hashicorp/go-hclog"

	"github.com/mendio-dev/mendio/internal/core"
	"github.com/mendio-dev/mendio/pkg/shared/config"
	"github.com/mendio-dev/mendio/pkg/shared/files"
)

// Uploader is the slice of s3manager.Uploader the store needs.
type Uploader interface {
	Upload(input *s3manager.UploadInput, options ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// Store saves reports locally and, when a bucket is configured, uploads
// them to S3 under <prefix>/<owner>/<report-id>.<ext>.
type Store struct {
	cfg      *config.Config
	logger   hclog.Logger
	uploader Uploader
}

// NewStore builds an artifact store. The S3 session is only established
// when a bucket is configured.
func NewStore(cfg *config.Config, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Store{cfg: cfg, logger: logger}
	if cfg == nil || cfg.Artifacts.S3.Bucket == "" {
		return s
	}

	awsCfg := &aws.Config{}
	if region := cfg.Artifacts.S3.Region; region != "" {
		awsCfg.Region = aws.String(region)
	}
	if endpoint := cfg.Artifacts.S3.Endpoint; endpoint != "" {
		awsCfg.Endpoint = aws.String(endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess := session.Must(session.NewSession(awsCfg))
	s.uploader = s3manager.NewUploader(sess)
	return s
}

// UploadEnabled reports whether S3 uploads are configured.
func (s *Store) UploadEnabled() bool {
	return s.uploader != nil
}

// SaveLocal writes the report as JSON under the reports home and returns
// the full path.
func (s *Store) SaveLocal(report *core.Report) (string, error) {
	dir := config.GetMendioReportsHome(s.cfg)
	if err := files.CreateFolderIfNotExists(dir); err != nil {
		return "", fmt.Errorf("failed to create reports folder: %w", err)
	}
	p := filepath.Join(dir, report.Metadata.ReportID+".json")
	if err := report.Save(p); err != nil {
		return "", err
	}
	s.logger.Info("report saved", "path", p)
	return p, nil
}

// Upload pushes the report JSON to the configured bucket and returns the
// object key.
func (s *Store) Upload(owner string, report *core.Report) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("artifact upload is not configured")
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	key := s.key(owner, report.Metadata.ReportID+".json")
	_, err = s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.Artifacts.S3.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to 's3://%s/%s': %w", s.cfg.Artifacts.S3.Bucket, key, err)
	}
	s.logger.Info("report uploaded", "bucket", s.cfg.Artifacts.S3.Bucket, "key", key)
	return key, nil
}

// UploadFile pushes an existing file, e.g. a SARIF export, keyed under the
// owner by its base name.
func (s *Store) UploadFile(owner, filePath string) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("artifact upload is not configured")
	}
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open '%s': %w", filePath, err)
	}
	defer f.Close()

	key := s.key(owner, filepath.Base(filePath))
	_, err = s.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(s.cfg.Artifacts.S3.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload '%s' to 's3://%s/%s': %w", filePath, s.cfg.Artifacts.S3.Bucket, key, err)
	}
	s.logger.Info("artifact uploaded", "bucket", s.cfg.Artifacts.S3.Bucket, "key", key)
	return key, nil
}

// key builds the object key. S3 keys always use forward slashes.
func (s *Store) key(owner, name string) string {
	if owner == "" {
		owner = "local"
	}
	prefix := ""
	if s.cfg != nil {
		prefix = s.cfg.Artifacts.S3.Prefix
	}
	return path.Join(prefix, owner, name)
}
