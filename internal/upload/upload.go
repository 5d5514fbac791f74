// Package upload stores user supplied images and returns a durable URL.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const MaxImageSize = 4 << 20

var (
	ErrInvalidImage  = errors.New("upload: invalid image")
	ErrImageTooLarge = errors.New("upload: image too large")
	ErrDisabled      = errors.New("upload: image storage not configured")
)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Uploader interface {
	// Upload accepts a base64 data URI or an http(s) URL. URLs are returned
	// unchanged.
	Upload(ctx context.Context, image string) (string, error)
}

type Image struct {
	ContentType string
	Data        []byte
}

// ParseDataURI decodes a data:image/<type>;base64,<payload> string.
func ParseDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, fmt.Errorf("%w: not a data uri", ErrInvalidImage)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing payload", ErrInvalidImage)
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return Image{}, fmt.Errorf("%w: only base64 data uris are supported", ErrInvalidImage)
	}
	contentType = strings.ToLower(contentType)
	if _, ok := extensions[contentType]; !ok {
		return Image{}, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, contentType)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize+3 {
		return Image{}, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if len(data) > MaxImageSize {
		return Image{}, ErrImageTooLarge
	}
	return Image{ContentType: contentType, Data: data}, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client    objectPutter
	bucket    string
	region    string
	publicURL string
}

// NewS3Uploader stores objects in bucket. publicURL, when set, is used as the
// base of returned links (a CDN or a local S3 endpoint).
func NewS3Uploader(awsCfg aws.Config, bucket, publicURL string) *S3Uploader {
	return &S3Uploader{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    bucket,
		region:    awsCfg.Region,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (u *S3Uploader) Upload(ctx context.Context, image string) (string, error) {
	if isURL(image) {
		return image, nil
	}

	img, err := ParseDataURI(image)
	if err != nil {
		return "", err
	}

	key := "images/" + uuid.NewString() + extensions[img.ContentType]
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload: put object %s: %w", key, err)
	}

	return u.objectURL(key), nil
}

func (u *S3Uploader) objectURL(key string) string {
	if u.publicURL != "" {
		return u.publicURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}

// Disabled rejects every data URI. URLs still pass through.
type Disabled struct{}

func (Disabled) Upload(_ context.Context, image string) (string, error) {
	if isURL(image) {
		return image, nil
	}
	return "", ErrDisabled
}
