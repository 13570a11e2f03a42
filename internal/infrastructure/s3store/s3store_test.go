package s3store

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivekkundariya/opskit/internal/domain/credential"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
)

type object struct {
	body        []byte
	contentType string
}

// fakeS3 is an in-memory bucket store keyed by "bucket/key".
type fakeS3 struct {
	objects map[string]object
	copied  []string
}

func newFake() *fakeS3 {
	return &fakeS3{objects: map[string]object{}}
}

func (f *fakeS3) put(bucket, key, body, ct string) {
	f.objects[bucket+"/"+key] = object{body: []byte(body), contentType: ct}
}

func noSuchKey() error {
	return &smithy.GenericAPIError{Code: "NoSuchKey", Message: "The specified key does not exist."}
}

func (f *fakeS3) ListBuckets(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	seen := map[string]bool{}
	for k := range f.objects {
		seen[strings.SplitN(k, "/", 2)[0]] = true
	}
	var names []string
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	out := &s3.ListBucketsOutput{}
	for _, n := range names {
		out.Buckets = append(out.Buckets, types.Bucket{Name: aws.String(n), CreationDate: &created})
	}
	return out, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	bucket := aws.ToString(in.Bucket)
	prefix := aws.ToString(in.Prefix)
	delim := aws.ToString(in.Delimiter)

	var keys []string
	for k := range f.objects {
		b, key, _ := strings.Cut(k, "/")
		if b == bucket && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	dirs := map[string]bool{}
	for _, key := range keys {
		rest := key[len(prefix):]
		if delim != "" {
			if i := strings.Index(rest, delim); i >= 0 {
				d := prefix + rest[:i+1]
				if !dirs[d] {
					dirs[d] = true
					out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(d)})
				}
				continue
			}
		}
		o := f.objects[bucket+"/"+key]
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key), Size: aws.Int64(int64(len(o.body)))})
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	o, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, noSuchKey()
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(o.body)),
		ContentLength: aws.Int64(int64(len(o.body))),
		ContentType:   aws.String(o.contentType),
	}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	o, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(o.body))),
		ContentType:   aws.String(o.contentType),
		ETag:          aws.String(`"abc"`),
		Metadata:      map[string]string{"owner": "ops"},
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) CopyObject(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.copied = append(f.copied, aws.ToString(in.CopySource))
	return &s3.CopyObjectOutput{}, nil
}

type fakeUploader struct{ f *fakeS3 }

func (u fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	u.f.put(aws.ToString(in.Bucket), aws.ToString(in.Key), string(body), aws.ToString(in.ContentType))
	return &manager.UploadOutput{}, nil
}

type fakeDownloader struct{ f *fakeS3 }

func (d fakeDownloader) Download(_ context.Context, w io.WriterAt, in *s3.GetObjectInput, _ ...func(*manager.Downloader)) (int64, error) {
	o, ok := d.f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return 0, noSuchKey()
	}
	n, err := w.WriteAt(o.body, 0)
	return int64(n), err
}

func newClient(f *fakeS3) *Client {
	return New(f, fakeUploader{f}, fakeDownloader{f})
}

func TestParsePath(t *testing.T) {
	assert.Equal(t, Location{Bucket: "logs", Key: "2024/app.log"}, ParsePath("s3://logs/2024/app.log"))
	assert.Equal(t, Location{Bucket: "logs", Key: "a"}, ParsePath("logs/a"))
	assert.Equal(t, Location{Bucket: "logs"}, ParsePath("logs"))
	assert.Equal(t, "s3://logs/a", ParsePath("logs/a").String())

	_, err := ParseObjectPath("logs")
	assert.ErrorIs(t, err, errUtils.ErrInvalidArgument)
}

func TestConfigFromCredentials(t *testing.T) {
	r := credential.NewResolved(credential.NewRequest("AWS", environment.None))
	cfg := ConfigFromCredentials(r)
	assert.Equal(t, DefaultRegion, cfg.Region)

	r.Set("DEFAULT_REGION", "eu-west-1", credential.SourceEnv)
	r.Set("ENDPOINT_URL", "http://localhost:4566", credential.SourceFile)
	cfg = ConfigFromCredentials(r)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, "http://localhost:4566", cfg.Endpoint)
}

func TestBuckets(t *testing.T) {
	f := newFake()
	c := newClient(f)

	res, err := c.Buckets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No buckets found", res.Text)

	f.put("b1", "x", "1", "text/plain")
	f.put("a1", "x", "1", "text/plain")
	res, err = c.Buckets(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Table.Rows, 2)
	assert.Equal(t, []string{"a1", "2024-01-02 03:04:05"}, res.Table.Rows[0])
	assert.Equal(t, "S3 Buckets (2)", res.Footer)
}

func TestList(t *testing.T) {
	f := newFake()
	f.put("logs", "app/", "", "")
	f.put("logs", "app/a.log", "hello", "text/plain")
	f.put("logs", "app/2024/b.log", "world!", "text/plain")
	f.put("logs", "other.txt", "x", "text/plain")
	c := newClient(f)

	res, err := c.List(context.Background(), "s3://logs/app/", ListOptions{})
	require.NoError(t, err)
	require.Len(t, res.Table.Rows, 2)
	assert.Equal(t, []string{"[DIR]", "", "2024/"}, res.Table.Rows[0])
	assert.Equal(t, "a.log", res.Table.Rows[1][2])
	assert.Equal(t, "Total: 1 objects, 5 B", res.Footer)

	res, err = c.List(context.Background(), "logs/app/", ListOptions{Recursive: true})
	require.NoError(t, err)
	assert.Len(t, res.Table.Rows, 2)

	res, err = c.List(context.Background(), "logs", ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, res.Table.Rows, 1)
	assert.Contains(t, res.Footer, "(showing first 1 results)")
}

func TestShow(t *testing.T) {
	f := newFake()
	f.put("cfg", "app.json", `{"a":1}`, "application/json")
	f.put("cfg", "blob.bin", string([]byte{0xff, 0xfe, 0x00}), "application/octet-stream")
	f.put("cfg", "big.txt", strings.Repeat("x", MaxInlineSize+1), "text/plain")
	c := newClient(f)

	res, err := c.Show(context.Background(), "cfg/app.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, res.Text)

	_, err = c.Show(context.Background(), "cfg/blob.bin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binary file")

	_, err = c.Show(context.Background(), "cfg/big.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "large file")
	assert.NotEmpty(t, errUtils.Hints(err))

	_, err = c.Show(context.Background(), "cfg/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object not found")
	assert.Equal(t, []string{"check that the key path is correct"}, errUtils.Hints(err))
}

func TestPutAndDownload(t *testing.T) {
	f := newFake()
	c := newClient(f)
	dir := t.TempDir()
	local := filepath.Join(dir, "report.csv")
	require.NoError(t, os.WriteFile(local, []byte("a,b\n1,2\n"), 0o644))

	res, err := c.Put(context.Background(), local, "s3://reports/daily/")
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/daily/report.csv", res.Fields[1].Value)
	assert.True(t, strings.HasPrefix(f.objects["reports/daily/report.csv"].contentType, "text/csv"))

	dest := filepath.Join(dir, "copy.csv")
	res, err = c.Download(context.Background(), "reports/daily/report.csv", dest)
	require.NoError(t, err)
	assert.Equal(t, "8 B", res.Fields[2].Value)
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))

	_, err = c.Put(context.Background(), filepath.Join(dir, "nope"), "reports/x")
	assert.ErrorIs(t, err, errUtils.ErrInvalidArgument)
}

func TestInfoRemoveCopy(t *testing.T) {
	f := newFake()
	f.put("data", "dir/my file.txt", "abc", "text/plain")
	c := newClient(f)

	res, err := c.Info(context.Background(), "data/dir/my file.txt")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", res.Fields[2].Value)
	assert.Equal(t, "Metadata owner", res.Fields[len(res.Fields)-1].Key)

	res, err = c.Copy(context.Background(), "data/dir/my file.txt", "backup")
	require.NoError(t, err)
	assert.Equal(t, "Copied: s3://data/dir/my file.txt\n    To: s3://backup/dir/my file.txt", res.Text)
	assert.Equal(t, []string{"data/dir/my%20file.txt"}, f.copied)

	res, err = c.Remove(context.Background(), "data/dir/my file.txt")
	require.NoError(t, err)
	assert.Equal(t, "Deleted: s3://data/dir/my file.txt", res.Text)
	assert.Empty(t, f.objects)
}
