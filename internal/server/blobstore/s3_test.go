package blobstore

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	put    *s3.PutObjectInput
	body   []byte
	del    *s3.DeleteObjectInput
	putErr error
	delErr error
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.del = in
	return &s3.DeleteObjectOutput{}, f.delErr
}

type fakePresigner struct {
	in      *s3.GetObjectInput
	expires time.Duration
	err     error
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.in = in
	var po s3.PresignOptions
	for _, fn := range optFns {
		fn(&po)
	}
	f.expires = po.Expires
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://minio.local/vaultboard/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc"}, nil
}

func newTestStore(obj *fakeObjects, pre *fakePresigner) *S3Store {
	return &S3Store{
		objects:   obj,
		presigner: pre,
		bucket:    "vaultboard",
		now:       func() time.Time { return time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC) },
	}
}

func TestStore_PutsObjectUnderRandomKey(t *testing.T) {
	obj := &fakeObjects{}
	s := newTestStore(obj, &fakePresigner{})

	key, err := s.Store(context.Background(), "runbook v2.pdf", "application/pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^entries/2025/03/07/[0-9a-f-]{36}$`), key)
	require.NotNil(t, obj.put)
	assert.Equal(t, "vaultboard", aws.ToString(obj.put.Bucket))
	assert.Equal(t, key, aws.ToString(obj.put.Key))
	assert.Equal(t, "application/pdf", aws.ToString(obj.put.ContentType))
	assert.Equal(t, int64(8), aws.ToInt64(obj.put.ContentLength))
	assert.Equal(t, `attachment; filename="runbook v2.pdf"`, aws.ToString(obj.put.ContentDisposition))
	assert.Equal(t, []byte("%PDF-1.7"), obj.body)

	other, err := s.Store(context.Background(), "a.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestStore_PutError(t *testing.T) {
	s := newTestStore(&fakeObjects{putErr: errors.New("denied")}, &fakePresigner{})

	_, err := s.Store(context.Background(), "a.txt", "text/plain", []byte("x"))
	require.ErrorContains(t, err, "put object: denied")
}

func TestPublicURLFor_PresignsWithExpiry(t *testing.T) {
	pre := &fakePresigner{}
	s := newTestStore(&fakeObjects{}, pre)

	url, err := s.PublicURLFor(context.Background(), "entries/k1")
	require.NoError(t, err)

	assert.Contains(t, url, "entries/k1")
	assert.Equal(t, "vaultboard", aws.ToString(pre.in.Bucket))
	assert.Equal(t, PresignExpiry, pre.expires)
}

func TestPublicURLFor_Error(t *testing.T) {
	s := newTestStore(&fakeObjects{}, &fakePresigner{err: errors.New("sign-fail")})

	_, err := s.PublicURLFor(context.Background(), "k")
	require.ErrorContains(t, err, "presign get: sign-fail")
}

func TestDelete(t *testing.T) {
	obj := &fakeObjects{}
	s := newTestStore(obj, &fakePresigner{})

	require.NoError(t, s.Delete(context.Background(), "entries/k1"))
	assert.Equal(t, "entries/k1", aws.ToString(obj.del.Key))

	obj.delErr = errors.New("gone")
	require.ErrorContains(t, s.Delete(context.Background(), "entries/k1"), "delete object")
}

func TestNew_AppliesOptions(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minio", creds.AccessKeyID)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	presignCalled := false
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		presignCalled = true
		return &s3.PresignClient{}
	}

	s, err := New(context.Background(), Options{
		Region:       "eu-west-1",
		AccessKey:    "minio",
		SecretKey:    "minio-secret",
		BaseEndpoint: "http://127.0.0.1:9000",
		Bucket:       "vaultboard",
	})
	require.NoError(t, err)
	require.NotNil(t, s)

	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
	assert.True(t, presignCalled)
	assert.Equal(t, "vaultboard", s.bucket)
}

func TestNew_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := New(context.Background(), Options{Region: "us-east-1"})
	require.EqualError(t, err, "load-fail")
}
