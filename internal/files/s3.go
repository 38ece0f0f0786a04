package files

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	s3DiskName    = "s3"
	presignExpiry = time.Hour
)

// S3Storage keeps files in an S3 bucket and mints presigned GET URLs so
// receipts stay private at rest.
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	repo    *Repository
}

func NewS3Storage(bucket string, repo *Repository) (*S3Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error loading AWS configuration: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		repo:    repo,
	}, nil
}

func (s *S3Storage) Store(upload Upload, folder string) (*File, error) {
	key := path.Join(folder, uuid.New().String()+path.Ext(upload.Name))
	if err := s.putObject(key, upload); err != nil {
		return nil, err
	}

	file := &File{
		Name:     upload.Name,
		Path:     key,
		MimeType: upload.ContentType,
		Size:     upload.Size,
		Disk:     s3DiskName,
	}
	if err := s.repo.Save(file); err != nil {
		s.deleteObject(key)
		return nil, err
	}
	return file, nil
}

func (s *S3Storage) Replace(fileID int64, upload Upload) (*File, error) {
	file, err := s.repo.FindByID(fileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("file %d not found", fileID)
	}

	key := path.Join(path.Dir(file.Path), uuid.New().String()+path.Ext(upload.Name))
	if err := s.putObject(key, upload); err != nil {
		return nil, err
	}
	oldKey := file.Path
	file.Name = upload.Name
	file.Path = key
	file.MimeType = upload.ContentType
	file.Size = upload.Size
	if err := s.repo.Update(file); err != nil {
		s.deleteObject(key)
		return nil, err
	}
	s.deleteObject(oldKey)
	return file, nil
}

func (s *S3Storage) Delete(fileID int64) error {
	file, err := s.repo.FindByID(fileID)
	if err != nil {
		return err
	}
	if file == nil {
		return nil
	}
	if err := s.repo.Delete(fileID); err != nil {
		return err
	}
	s.deleteObject(file.Path)
	return nil
}

func (s *S3Storage) GetURL(fileID int64) (string, error) {
	file, err := s.repo.FindByID(fileID)
	if err != nil {
		return "", err
	}
	if file == nil {
		return "", fmt.Errorf("file %d not found", fileID)
	}

	req, err := s.presign.PresignGetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(file.Path),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("error presigning file URL: %w", err)
	}
	return req.URL, nil
}

func (s *S3Storage) Find(fileID int64) (*File, error) {
	return s.repo.FindByID(fileID)
}

func (s *S3Storage) putObject(key string, upload Upload) error {
	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          upload.Content,
		ContentType:   aws.String(upload.ContentType),
		ContentLength: aws.Int64(upload.Size),
	})
	if err != nil {
		return fmt.Errorf("error uploading file to S3: %w", err)
	}
	return nil
}

func (s *S3Storage) deleteObject(key string) {
	_, _ = s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
}
