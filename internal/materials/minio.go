package materials

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/rx3lixir/studyhall/pkg/logger"
)

const (
	materialsPrefix = "shared-materials"
	presignExpiry   = time.Hour * 24
)

// MinioStore keeps every room's shared materials under a common
// bucket, one prefix per room code.
type MinioStore struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

func NewMinioStore(client *minio.Client, bucket string, log *logger.Logger) *MinioStore {
	return &MinioStore{
		client: client,
		bucket: bucket,
		log:    log,
	}
}

func objectKey(roomCode, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", materialsPrefix, roomCode, fileName)
}

// Exists reports whether a file with this name is already stored for the room.
func (s *MinioStore) Exists(ctx context.Context, roomCode, fileName string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectKey(roomCode, fileName), minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat object: %w", err)
	}
	return true, nil
}

// Upload stores a file for the room and returns its descriptor with a
// presigned download URL. Names must be unique within the room.
func (s *MinioStore) Upload(ctx context.Context, roomCode, fileName, contentType string, reader io.Reader, size int64) (*SharedFile, error) {
	exists, err := s.Exists(ctx, roomCode, fileName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateName
	}

	key := objectKey(roomCode, fileName)

	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(fileName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	fileURL, err := s.presign(ctx, key, fileName)
	if err != nil {
		return nil, err
	}

	s.log.Info("material uploaded",
		"room", roomCode,
		"file", fileName,
		"size", size,
	)

	return &SharedFile{
		Name: fileName,
		URL:  fileURL,
		Type: contentType,
	}, nil
}

// Delete removes a single file from the room's prefix.
func (s *MinioStore) Delete(ctx context.Context, roomCode, fileName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectKey(roomCode, fileName), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("remove object: %w", err)
	}

	s.log.Info("material deleted", "room", roomCode, "file", fileName)
	return nil
}

// List returns every material stored for the room, each with a fresh
// presigned URL.
func (s *MinioStore) List(ctx context.Context, roomCode string) ([]SharedFile, error) {
	prefix := fmt.Sprintf("%s/%s/", materialsPrefix, roomCode)

	files := []SharedFile{}

	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects: %w", object.Err)
		}

		fileName := strings.TrimPrefix(object.Key, prefix)
		if fileName == "" {
			continue
		}

		fileURL, err := s.presign(ctx, object.Key, fileName)
		if err != nil {
			return nil, err
		}

		contentType := mime.TypeByExtension(path.Ext(fileName))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		files = append(files, SharedFile{
			Name: fileName,
			URL:  fileURL,
			Type: contentType,
		})
	}

	return files, nil
}

// DeletePrefix removes every object stored for the room. Called during
// room destruction after the last participant leaves.
func (s *MinioStore) DeletePrefix(ctx context.Context, roomCode string) error {
	prefix := fmt.Sprintf("%s/%s/", materialsPrefix, roomCode)

	removed := 0
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return fmt.Errorf("list objects for cleanup: %w", object.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove object %s: %w", object.Key, err)
		}
		removed++
	}

	if removed > 0 {
		s.log.Info("room materials cleaned up", "room", roomCode, "removed", removed)
	}
	return nil
}

func (s *MinioStore) presign(ctx context.Context, key, fileName string) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignExpiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return presigned.String(), nil
}
