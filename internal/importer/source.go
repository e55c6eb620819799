package importer

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ParsedDir is where successfully imported files are moved, relative to the
// source root.
const ParsedDir = "Parsed"

// Source yields Meal-Master files and archives the ones that were imported.
type Source interface {
	// Kind names the source for logs and metrics.
	Kind() string
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	MarkParsed(ctx context.Context, name string) error
}

// DirSource reads the regular files directly inside a local directory.
type DirSource struct {
	Root string
}

func (s DirSource) Kind() string { return "dir" }

func (s DirSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s DirSource) Read(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Root, name))
}

// MarkParsed moves name into the Parsed directory, creating it if needed.
func (s DirSource) MarkParsed(ctx context.Context, name string) error {
	parsed := filepath.Join(s.Root, ParsedDir)
	if err := os.MkdirAll(parsed, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", parsed, err)
	}
	return os.Rename(filepath.Join(s.Root, name), filepath.Join(parsed, name))
}

// S3API is the subset of the S3 client used by S3Source.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Source reads the objects directly under Prefix in Bucket. Imported
// objects are moved under Prefix + "Parsed/".
type S3Source struct {
	Client S3API
	Bucket string
	Prefix string
}

func (s S3Source) Kind() string { return "s3" }

func (s S3Source) prefix() string {
	p := strings.TrimLeft(s.Prefix, "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// List returns object names relative to the prefix, skipping nested keys.
func (s S3Source) List(ctx context.Context) ([]string, error) {
	prefix := s.prefix()
	paginator := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.Bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s S3Source) Read(ctx context.Context, name string) ([]byte, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.prefix() + name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// MarkParsed copies the object under Parsed/ and deletes the original.
func (s S3Source) MarkParsed(ctx context.Context, name string) error {
	src := s.prefix() + name
	dst := s.prefix() + path.Join(ParsedDir, name)

	_, err := s.Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.Bucket),
		CopySource: aws.String(url.PathEscape(s.Bucket) + "/" + escapeKey(src)),
		Key:        aws.String(dst),
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	_, err = s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(src),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s after copy: %w", src, err)
	}
	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
