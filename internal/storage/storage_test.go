package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveExistsDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewLocalStorage(Config{BasePath: dir})
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "profileImage-1.jpg", strings.NewReader("data"), "image/jpeg"))

	content, err := os.ReadFile(filepath.Join(dir, "profileImage-1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	ok, err := s.Exists(ctx, "profileImage-1.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	url, err := s.GetURL(ctx, "profileImage-1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/profileImage-1.jpg", url)

	require.NoError(t, s.Delete(ctx, "profileImage-1.jpg"))
	require.NoError(t, s.Delete(ctx, "profileImage-1.jpg"), "удаление отсутствующего файла не ошибка")

	ok, err = s.Exists(ctx, "profileImage-1.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(Config{BasePath: t.TempDir(), BaseURL: "https://cdn.example.com/"})
	require.NoError(t, err)

	for _, path := range []string{"", "../etc/passwd", "/abs.jpg", ".."} {
		err := s.Save(context.Background(), path, strings.NewReader("x"), "")
		assert.ErrorIs(t, err, ErrInvalidPath, path)
	}

	url, err := s.GetURL(context.Background(), "a/b.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a/b.png", url)
}

type fakeS3 struct {
	objects map[string]string
	putErr  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Storage(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{objects: map[string]string{}}
	s := NewS3StorageWithClient(client, "media", "http://minio:9000/media/")

	require.NoError(t, s.Save(ctx, "portfolioImages-2.png", strings.NewReader("png"), "image/png"))
	assert.Equal(t, "png", client.objects["portfolioImages-2.png"])

	ok, err := s.Exists(ctx, "portfolioImages-2.png")
	require.NoError(t, err)
	assert.True(t, ok)

	url, err := s.GetURL(ctx, "portfolioImages-2.png")
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/media/portfolioImages-2.png", url)

	require.NoError(t, s.Delete(ctx, "portfolioImages-2.png"))
	ok, err = s.Exists(ctx, "portfolioImages-2.png")
	require.NoError(t, err)
	assert.False(t, ok)

	client.putErr = errors.New("boom")
	assert.ErrorContains(t, s.Save(ctx, "x.png", strings.NewReader(""), ""), "boom")

	_, err = s.GetURL(ctx, "../x")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestNewStorage_UnknownType(t *testing.T) {
	_, err := NewStorage(context.Background(), Config{Type: "ftp"})
	assert.ErrorContains(t, err, "unsupported storage type")

	_, err = NewStorage(context.Background(), Config{Type: "s3"})
	assert.ErrorContains(t, err, "bucket is required")
}
