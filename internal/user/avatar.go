package user

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
)

const avatarPrefix = "avatars"

// ErrNoAvatar is returned when a user never uploaded a profile picture.
// Callers substitute a default placeholder, this is not a failure.
var ErrNoAvatar = errors.New("no avatar stored")

// AvatarStore keeps profile pictures in the shared object storage bucket
// under avatars/<username>.
type AvatarStore struct {
	client     *minio.Client
	bucketName string
}

func NewAvatarStore(client *minio.Client, bucketName string) *AvatarStore {
	return &AvatarStore{client: client, bucketName: bucketName}
}

func avatarObjectName(username string) string {
	return fmt.Sprintf("%s/%s", avatarPrefix, username)
}

// Upload stores or replaces the avatar for a user
func (s *AvatarStore) Upload(ctx context.Context, username string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(
		ctx,
		s.bucketName,
		avatarObjectName(username),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("failed to upload avatar: %w", err)
	}

	return nil
}

// ResolveURL returns a presigned GET URL for a user's avatar.
// Returns ErrNoAvatar when nothing is stored for the username.
func (s *AvatarStore) ResolveURL(ctx context.Context, username string, expiry time.Duration) (string, error) {
	objectName := avatarObjectName(username)

	_, err := s.client.StatObject(ctx, s.bucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return "", ErrNoAvatar
		}
		return "", fmt.Errorf("failed to stat avatar: %w", err)
	}

	url, err := s.client.PresignedGetObject(ctx, s.bucketName, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}

	return url.String(), nil
}
