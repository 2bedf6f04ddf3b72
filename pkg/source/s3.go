// Package source lists containers stored in S3 compatible object storage.
package source

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/zing22845/go-ncm/pkg/dump"
)

const defaultMaxAttempts = 5

// S3Config holds the connection settings of a bucket
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// ObjectAPI is the part of the S3 client used here
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds a client with static credentials. An https endpoint skips certificate
// verification, self hosted object storage often runs with self signed certificates.
func NewS3Client(ctx context.Context, c *S3Config) (*s3.Client, error) {
	var httpClient *http.Client
	if strings.HasPrefix(c.Endpoint, "https://") {
		httpClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	} else {
		httpClient = http.DefaultClient
	}
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithHTTPClient(httpClient),
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				c.AccessKey,
				c.SecretKey,
				"")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "load s3 config")
	}

	customResolver := func(options *s3.Options) {
		if c.Endpoint != "" {
			options.BaseEndpoint = aws.String(c.Endpoint)
		}
		options.Retryer = retry.NewStandard(func(so *retry.StandardOptions) {
			so.MaxAttempts = defaultMaxAttempts
		})
	}
	return s3.NewFromConfig(cfg, customResolver), nil
}

// S3Source is one container object
type S3Source struct {
	Client ObjectAPI
	Bucket string
	Key    string
}

func (s *S3Source) Name() string {
	return "s3://" + path.Join(s.Bucket, s.Key)
}

func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get object %s", s.Name())
	}
	return out.Body, nil
}

// ListS3 returns a source for every object below prefix with the container extension
func ListS3(ctx context.Context, client ObjectAPI, bucket, prefix string) (sources []dump.Source, err error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	paginator := s3.NewListObjectsV2Paginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "list bucket %s", bucket)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.EqualFold(path.Ext(key), dump.ContainerExt) {
				continue
			}
			sources = append(sources, &S3Source{Client: client, Bucket: bucket, Key: key})
		}
	}
	return sources, nil
}
