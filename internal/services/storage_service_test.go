package services

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/marketplace-backend/internal/config"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = input
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func storageConfig(t *testing.T) *config.Config {
	return &config.Config{
		AWS: config.AWSConfig{Region: "ap-southeast-1", S3Bucket: "images"},
		Storage: config.StorageConfig{
			LocalDir:      t.TempDir(),
			PublicBaseURL: "http://localhost:8080/uploads/",
			MaxImageSize:  1024,
		},
	}
}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["image"][0]
}

func TestUploadProductImageLocal(t *testing.T) {
	cfg := storageConfig(t)
	storage, err := NewStorageService(cfg)
	require.NoError(t, err)

	result, err := storage.UploadProductImage(context.Background(), fileHeader(t, "Photo.PNG", pngHeader))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Key, "products/"))
	assert.True(t, strings.HasSuffix(result.Key, ".png"))
	assert.Equal(t, "http://localhost:8080/uploads/"+result.Key, result.URL)
	assert.Equal(t, "image/png", result.MimeType)
	assert.Equal(t, int64(len(pngHeader)), result.Size)

	stored, err := os.ReadFile(filepath.Join(cfg.Storage.LocalDir, filepath.FromSlash(result.Key)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)
}

func TestUploadProductImageS3(t *testing.T) {
	cfg := storageConfig(t)
	client := &fakeS3{}
	storage := NewStorageServiceWithClient(client, cfg)

	result, err := storage.UploadProductImage(context.Background(), fileHeader(t, "photo.png", pngHeader))
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "images", *client.input.Bucket)
	assert.Equal(t, result.Key, *client.input.Key)
	assert.Equal(t, "public-read", *client.input.ACL)
	assert.Equal(t, pngHeader, client.body)
	assert.Equal(t, "https://images.s3.ap-southeast-1.amazonaws.com/"+result.Key, result.URL)

	cfg.AWS.CloudFrontURL = "https://cdn.example.com"
	storage = NewStorageServiceWithClient(client, cfg)
	result, err = storage.UploadProductImage(context.Background(), fileHeader(t, "photo.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+result.Key, result.URL)
}

func TestUploadProductImageRejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
	}{
		{"disallowed extension", "script.exe", pngHeader},
		{"not an image", "photo.png", []byte("plain text pretending to be a png")},
		{"too large", "photo.png", append(append([]byte{}, pngHeader...), make([]byte, 2048)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := storageConfig(t)
			storage, err := NewStorageService(cfg)
			require.NoError(t, err)

			_, err = storage.UploadProductImage(context.Background(), fileHeader(t, tt.filename, tt.content))
			assert.ErrorIs(t, err, ErrInvalidInput)

			entries, err := os.ReadDir(cfg.Storage.LocalDir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}
