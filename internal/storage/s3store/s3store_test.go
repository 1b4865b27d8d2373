package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	pages     []*s3.ListObjectsV2Output
	listCalls []*s3.ListObjectsV2Input
	listErr   error

	put    *s3.PutObjectInput
	putErr error

	getErr  error
	getBody string

	deleted   *s3.DeleteObjectsInput
	deleteOut *s3.DeleteObjectsOutput
}

func (f *fakeAPI) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.listCalls = append(f.listCalls, in)
	return f.pages[len(f.listCalls)-1], nil
}

func (f *fakeAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.getBody))}, nil
}

func (f *fakeAPI) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deleted = in
	if f.deleteOut == nil {
		return &s3.DeleteObjectsOutput{}, nil
	}
	return f.deleteOut, nil
}

func obj(key string, size int64, at time.Time) types.Object {
	return types.Object{Key: aws.String(key), Size: aws.Int64(size), LastModified: aws.Time(at), ETag: aws.String(`"etag-` + key + `"`)}
}

var base = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func TestList_PaginatesSortsAndLimits(t *testing.T) {
	api := &fakeAPI{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{obj("a.txt", 1, base), obj("b.txt", 2, base.Add(2*time.Hour))},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("next"),
		},
		{
			Contents:    []types.Object{obj("c.txt", 3, base.Add(time.Hour))},
			IsTruncated: aws.Bool(false),
		},
	}}
	s := NewWithClient(api, Config{Bucket: "uploads"})

	got, err := s.List(context.Background(), files.ListOptions{Limit: 2, SortBy: files.SortByCreatedAt, Desc: true})
	require.NoError(t, err)

	require.Len(t, api.listCalls, 2)
	assert.Equal(t, "uploads", aws.ToString(api.listCalls[0].Bucket))
	assert.Equal(t, "/", aws.ToString(api.listCalls[0].Delimiter))
	assert.Equal(t, "next", aws.ToString(api.listCalls[1].ContinuationToken))

	require.Len(t, got, 2)
	assert.Equal(t, files.Entry{ID: "etag-b.txt", Name: "b.txt", Size: 2, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)}, got[0])
	assert.Equal(t, "c.txt", got[1].Name)
}

func TestList_Error(t *testing.T) {
	s := NewWithClient(&fakeAPI{listErr: errors.New("denied")}, Config{Bucket: "b"})
	_, err := s.List(context.Background(), files.ListOptions{})
	assert.ErrorContains(t, err, "denied")
}

func TestUpload_SetsMetadataAndBuffersUnseekableBodies(t *testing.T) {
	api := &fakeAPI{}
	s := NewWithClient(api, Config{Bucket: "uploads"})

	r := io.MultiReader(strings.NewReader("hello "), strings.NewReader("world"))
	require.NoError(t, s.Upload(context.Background(), "1-a.txt", r, 0, "text/plain"))

	assert.Equal(t, "1-a.txt", aws.ToString(api.put.Key))
	assert.Equal(t, "text/plain", aws.ToString(api.put.ContentType))
	assert.Equal(t, int64(11), aws.ToInt64(api.put.ContentLength))
	_, seekable := api.put.Body.(io.ReadSeeker)
	assert.True(t, seekable)

	api.putErr = errors.New("slow down")
	assert.Error(t, s.Upload(context.Background(), "k", strings.NewReader("x"), 1, ""))
}

func TestDownload(t *testing.T) {
	api := &fakeAPI{getBody: "content"}
	s := NewWithClient(api, Config{Bucket: "uploads"})

	rc, err := s.Download(context.Background(), "k")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "content", string(b))

	api.getErr = fmt.Errorf("op error: %w", &types.NoSuchKey{})
	_, err = s.Download(context.Background(), "k")
	assert.ErrorIs(t, err, files.ErrNotFound)
}

func TestRemove(t *testing.T) {
	api := &fakeAPI{}
	s := NewWithClient(api, Config{Bucket: "uploads"})

	require.NoError(t, s.Remove(context.Background(), nil))
	assert.Nil(t, api.deleted)

	require.NoError(t, s.Remove(context.Background(), []string{"a", "b"}))
	require.Len(t, api.deleted.Delete.Objects, 2)
	assert.Equal(t, "b", aws.ToString(api.deleted.Delete.Objects[1].Key))

	api.deleteOut = &s3.DeleteObjectsOutput{Errors: []types.Error{{Key: aws.String("a"), Message: aws.String("AccessDenied")}}}
	assert.ErrorContains(t, s.Remove(context.Background(), []string{"a"}), "AccessDenied")
}

func TestPublicURL(t *testing.T) {
	s := NewWithClient(&fakeAPI{}, Config{Bucket: "uploads", PublicBaseURL: "https://x.supabase.co/storage/v1/object/public/"})
	assert.Equal(t, "https://x.supabase.co/storage/v1/object/public/uploads/1-my%20file.txt", s.PublicURL("1-my file.txt"))

	s = NewWithClient(&fakeAPI{}, Config{Bucket: "vault", Endpoint: "http://127.0.0.1:9000/"})
	assert.Equal(t, "http://127.0.0.1:9000/vault/dir/a.txt", s.PublicURL("dir/a.txt"))
}

func TestSignedURL(t *testing.T) {
	s := NewWithClient(&fakeAPI{}, Config{Bucket: "vault"})
	_, err := s.SignedURL(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, files.ErrSigningUnsupported)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("admin", "secretpassword", ""),
		BaseEndpoint: aws.String("http://127.0.0.1:9000"),
		UsePathStyle: true,
	})
	s = NewWithClient(client, Config{Bucket: "vault"})

	url, err := s.SignedURL(context.Background(), "a.txt", 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "/vault/a.txt")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=900")
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
