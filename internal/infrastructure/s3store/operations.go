package s3store

import (
	"context"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/output"
)

// MaxInlineSize is the largest object Show prints to stdout.
const MaxInlineSize = 100 * 1024

const dateLayout = "2006-01-02 15:04:05"

func formatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format(dateLayout)
}

func size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// Buckets lists all buckets visible to the caller.
func (c *Client) Buckets(ctx context.Context) (*output.Result, error) {
	out, err := c.api.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, translate("list buckets", err)
	}
	if len(out.Buckets) == 0 {
		return output.Message("No buckets found"), nil
	}

	rows := make([][]string, len(out.Buckets))
	for i, b := range out.Buckets {
		rows[i] = []string{aws.ToString(b.Name), formatDate(b.CreationDate)}
	}
	return &output.Result{
		Table:  &output.Table{Columns: []string{"Bucket", "Created"}, Rows: rows},
		Footer: fmt.Sprintf("S3 Buckets (%d)", len(rows)),
	}, nil
}

// ListOptions controls List.
type ListOptions struct {
	Recursive bool
	Limit     int
}

// List shows objects under a bucket prefix. Without Recursive a prefix is
// listed one level deep with sub-prefixes shown as [DIR].
func (c *Client) List(ctx context.Context, path string, opts ListOptions) (*output.Result, error) {
	loc := ParsePath(path)
	if loc.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket name required", errUtils.ErrInvalidArgument)
	}

	in := &s3.ListObjectsV2Input{Bucket: aws.String(loc.Bucket)}
	if loc.Key != "" {
		in.Prefix = aws.String(loc.Key)
		if !opts.Recursive {
			in.Delimiter = aws.String("/")
		}
	}

	var (
		rows      [][]string
		objects   int
		totalSize int64
		limited   bool
	)
	full := func() bool {
		if opts.Limit > 0 && len(rows) >= opts.Limit {
			limited = true
			return true
		}
		return false
	}

	p := s3.NewListObjectsV2Paginator(c.api, in)
pages:
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate("list "+loc.String(), err)
		}
		for _, cp := range page.CommonPrefixes {
			if full() {
				break pages
			}
			name := aws.ToString(cp.Prefix)[len(loc.Key):]
			rows = append(rows, []string{"[DIR]", "", name})
		}
		for _, obj := range page.Contents {
			name := aws.ToString(obj.Key)[len(loc.Key):]
			if name == "" {
				continue
			}
			if full() {
				break pages
			}
			n := aws.ToInt64(obj.Size)
			rows = append(rows, []string{size(n), formatDate(obj.LastModified), name})
			objects++
			totalSize += n
		}
	}

	footer := fmt.Sprintf("Total: %d objects, %s", objects, size(totalSize))
	if limited {
		footer += fmt.Sprintf("\n(showing first %d results)", opts.Limit)
	}
	return &output.Result{
		Table:  &output.Table{Columns: []string{"Size", "Modified", "Name"}, Rows: rows},
		Footer: footer,
	}, nil
}

// Show prints a small text object inline.
func (c *Client) Show(ctx context.Context, path string) (*output.Result, error) {
	loc, err := ParseObjectPath(path)
	if err != nil {
		return nil, err
	}

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(loc.Bucket), Key: aws.String(loc.Key)})
	if err != nil {
		return nil, translate("get "+loc.String(), err)
	}
	defer out.Body.Close()

	length := aws.ToInt64(out.ContentLength)
	hint := fmt.Sprintf("use --output to download: opskit s3 get %s --output <file>", path)
	if length > MaxInlineSize {
		return nil, errUtils.WithHints(
			fmt.Errorf("%w: large file (%s)", errUtils.ErrInvalidArgument, size(length)), hint)
	}

	body, err := io.ReadAll(io.LimitReader(out.Body, MaxInlineSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", loc, err)
	}
	if !utf8.Valid(body) {
		return nil, errUtils.WithHints(
			fmt.Errorf("%w: binary file (%s)", errUtils.ErrInvalidArgument, size(int64(len(body)))), hint)
	}
	return &output.Result{Text: string(body)}, nil
}

// Download writes an object to dest.
func (c *Client) Download(ctx context.Context, path, dest string) (*output.Result, error) {
	loc, err := ParseObjectPath(path)
	if err != nil {
		return nil, err
	}

	head, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(loc.Bucket), Key: aws.String(loc.Key)})
	if err != nil {
		return nil, translate("get "+loc.String(), err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	n, err := c.downloader.Download(ctx, f, &s3.GetObjectInput{Bucket: aws.String(loc.Bucket), Key: aws.String(loc.Key)})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return nil, translate("download "+loc.String(), err)
	}

	abs, _ := filepath.Abs(dest)
	return &output.Result{Fields: []output.Field{
		{Key: "Downloaded", Value: loc.String()},
		{Key: "To", Value: abs},
		{Key: "Size", Value: size(n)},
		{Key: "Type", Value: aws.ToString(head.ContentType)},
	}}, nil
}

// ContentType guesses a MIME type from the file extension.
func ContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Put uploads local to dest. A dest ending in "/" keeps the file name.
func (c *Client) Put(ctx context.Context, local, dest string) (*output.Result, error) {
	loc := ParsePath(dest)
	if loc.Bucket == "" {
		return nil, fmt.Errorf("%w: destination bucket and key required", errUtils.ErrInvalidArgument)
	}
	if loc.Key == "" || loc.Key[len(loc.Key)-1] == '/' {
		loc.Key += filepath.Base(local)
	}

	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("%w: local file not found: %s", errUtils.ErrInvalidArgument, local)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	ct := ContentType(local)
	if _, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		Body:        f,
		ContentType: aws.String(ct),
	}); err != nil {
		return nil, translate("upload "+loc.String(), err)
	}

	return &output.Result{Fields: []output.Field{
		{Key: "Uploaded", Value: local},
		{Key: "To", Value: loc.String()},
		{Key: "Size", Value: size(info.Size())},
		{Key: "Type", Value: ct},
	}}, nil
}

// Info shows object metadata.
func (c *Client) Info(ctx context.Context, path string) (*output.Result, error) {
	loc, err := ParseObjectPath(path)
	if err != nil {
		return nil, err
	}
	h, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(loc.Bucket), Key: aws.String(loc.Key)})
	if err != nil {
		return nil, translate("info "+loc.String(), err)
	}

	ct := aws.ToString(h.ContentType)
	if ct == "" {
		ct = "N/A"
	}
	fields := []output.Field{
		{Key: "Object", Value: loc.String()},
		{Key: "Size", Value: size(aws.ToInt64(h.ContentLength))},
		{Key: "Content-Type", Value: ct},
		{Key: "Last Modified", Value: formatDate(h.LastModified)},
		{Key: "ETag", Value: aws.ToString(h.ETag)},
	}
	if h.StorageClass != "" {
		fields = append(fields, output.Field{Key: "Storage Class", Value: string(h.StorageClass)})
	}
	if h.ServerSideEncryption != "" {
		fields = append(fields, output.Field{Key: "Encryption", Value: string(h.ServerSideEncryption)})
	}
	if v := aws.ToString(h.VersionId); v != "" {
		fields = append(fields, output.Field{Key: "Version ID", Value: v})
	}
	for _, k := range slices.Sorted(maps.Keys(h.Metadata)) {
		fields = append(fields, output.Field{Key: "Metadata " + k, Value: h.Metadata[k]})
	}
	return &output.Result{Fields: fields}, nil
}

// Remove deletes one object.
func (c *Client) Remove(ctx context.Context, path string) (*output.Result, error) {
	loc, err := ParseObjectPath(path)
	if err != nil {
		return nil, err
	}
	if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(loc.Bucket), Key: aws.String(loc.Key)}); err != nil {
		return nil, translate("delete "+loc.String(), err)
	}
	return output.Message("Deleted: %s", loc), nil
}

// Copy copies an object server-side. A dest without a key keeps the
// source key.
func (c *Client) Copy(ctx context.Context, src, dest string) (*output.Result, error) {
	from, err := ParseObjectPath(src)
	if err != nil {
		return nil, err
	}
	to := ParsePath(dest)
	if to.Bucket == "" {
		return nil, fmt.Errorf("%w: destination bucket required", errUtils.ErrInvalidArgument)
	}
	if to.Key == "" {
		to.Key = from.Key
	}

	if _, err := c.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(to.Bucket),
		Key:        aws.String(to.Key),
		CopySource: aws.String(copySource(from)),
	}); err != nil {
		return nil, translate("copy "+from.String(), err)
	}
	return output.Message("Copied: %s\n    To: %s", from, to), nil
}

func copySource(l Location) string {
	return l.Bucket + "/" + strings.ReplaceAll(url.PathEscape(l.Key), "%2F", "/")
}
