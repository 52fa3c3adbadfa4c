package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Blob serves reads with ranged GETs. Nothing is cached between calls.
type s3Blob struct {
	ctx    context.Context
	client Client
	bucket string
	key    string
	size   int64
}

func (b *s3Blob) Close() error { return nil }
func (b *s3Blob) Size() int64  { return b.size }

// span clamps [off, off+length) to the object and returns the inclusive end
// used in the Range header.
func (b *s3Blob) span(off, length int64) (int64, error) {
	if off < 0 {
		return 0, fmt.Errorf("s3: negative offset %d", off)
	}
	if off >= b.size {
		return 0, io.EOF
	}
	return min(off+length, b.size) - 1, nil
}

func (b *s3Blob) get(ctx context.Context, off, last int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, last)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: get %s: %w", b.key, err)
	}
	return out.Body, nil
}

func (b *s3Blob) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	last, err := b.span(off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	body, err := b.get(b.ctx, off, last)
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	want := int(last - off + 1)
	n, err := io.ReadFull(body, p[:want])
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return n, io.EOF
	case err != nil:
		return n, err
	case want < len(p):
		return n, io.EOF
	}
	return n, nil
}

func (b *s3Blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	last, err := b.span(off, length)
	if err != nil {
		return nil, err
	}
	return b.get(ctx, off, last)
}
