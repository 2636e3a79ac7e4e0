package pyforge

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// sourceMirror serves release archives from an S3-compatible bucket. Sites
// that build hosts with no route to python.org keep a synced copy of the
// release tree in object storage.
type sourceMirror struct {
	client *s3.Client
	bucket string
}

// newSourceMirror builds a mirror client from the MIRROR_S3_* config keys.
// Returns (nil, nil) when no mirror is configured; a partially configured
// mirror is an error rather than a silent fallback to the public network.
func newSourceMirror(ctx context.Context, cfg *Config) (*sourceMirror, error) {
	endpoint := cfg.Values["MIRROR_S3_ENDPOINT"]
	bucket := cfg.Values["MIRROR_S3_BUCKET"]
	accessKey := cfg.Values["MIRROR_S3_ACCESS_KEY"]
	secretKey := cfg.Values["MIRROR_S3_SECRET_KEY"]
	region := cfg.Values["MIRROR_S3_REGION"]

	if endpoint == "" && bucket == "" {
		return nil, nil
	}
	if endpoint == "" || bucket == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("incomplete S3 mirror configuration (need MIRROR_S3_ENDPOINT, MIRROR_S3_BUCKET, MIRROR_S3_ACCESS_KEY, MIRROR_S3_SECRET_KEY)")
	}
	if region == "" {
		region = "auto"
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint}, nil
	})

	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithRegion(region),
	}
	if Debug {
		options = append(options, awsconfig.WithClientLogMode(aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 mirror config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &sourceMirror{client: client, bucket: bucket}, nil
}

// fetchArchive downloads one object from the mirror to destPath.
func (m *sourceMirror) fetchArchive(ctx context.Context, key, destPath string) error {
	output, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer output.Body.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, output.Body); err != nil {
		os.Remove(destPath)
		return err
	}
	return nil
}

// listArchives returns the object keys under prefix, used to resolve a
// two-component version against whatever the mirror actually carries.
func (m *sourceMirror) listArchives(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(m.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}
