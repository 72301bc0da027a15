package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/sirrryasir/edoskill360-sub000/internal/config"
)

// IProofStorage issues pre-signed upload URLs for identity proof documents.
// The document itself goes straight from the browser to S3; the platform only
// ever stores the object key.
type IProofStorage interface {
	GeneratePresignedProofURL(ctx context.Context, userID, filename, contentType string) (string, string, error)
}

type s3Storage struct {
	cfg           *config.Config
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewS3Storage creates the proof storage service backed by S3.
func NewS3Storage(cfg *config.Config) (IProofStorage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	return &s3Storage{
		cfg:           cfg,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
	}, nil
}

// GeneratePresignedProofURL creates a pre-signed PUT URL for an identity
// document upload. It returns the URL and the generated object key; the key
// is what gets submitted as the proof reference.
func (s *s3Storage) GeneratePresignedProofURL(ctx context.Context, userID, filename, contentType string) (string, string, error) {
	objectKey := fmt.Sprintf("proofs/%s/%s_%s", userID, uuid.NewString(), sanitizeFilename(filename))

	presignedReq, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.cfg.ProofUploadTTL))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", objectKey, err)
	}
	return presignedReq.URL, objectKey, nil
}

// sanitizeFilename strips path components and characters that would make an
// awkward S3 key.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
