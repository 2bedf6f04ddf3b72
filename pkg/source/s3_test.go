package source

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	pages   [][]string
	objects map[string][]byte
}

func (f *fakeS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := 0
	if params.ContinuationToken != nil {
		page = int(aws.ToString(params.ContinuationToken)[0] - '0')
	}
	out := &s3.ListObjectsV2Output{}
	for _, key := range f.pages[page] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	if page+1 < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(string(rune('0' + page + 1)))
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(f.objects[aws.ToString(params.Key)])),
	}, nil
}

func TestListS3(t *testing.T) {
	client := &fakeS3{
		pages: [][]string{
			{"music/a.ncm", "music/cover.jpg"},
			{"music/b.NCM", "music/c.mp3"},
		},
		objects: map[string][]byte{"music/a.ncm": []byte("container")},
	}

	sources, err := ListS3(context.Background(), client, "bucket", "music/")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "s3://bucket/music/a.ncm", sources[0].Name())
	assert.Equal(t, "s3://bucket/music/b.NCM", sources[1].Name())

	rc, err := sources[0].Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("container"), content)
}
