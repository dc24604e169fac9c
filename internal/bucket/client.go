package bucket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	kerrors "github.com/QB2027/WebFileBrowser/internal/errors"
	"github.com/QB2027/WebFileBrowser/internal/manifest"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// DefaultURLExpiry is how long a signed download URL stays valid.
const DefaultURLExpiry = time.Hour

// API is the subset of the S3 client used here.
type API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner signs GET requests.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Options describes how to reach the bucket.
type Options struct {
	Name      string
	Region    string
	Endpoint  string
	PathStyle bool
	URLExpiry time.Duration

	// Static credentials. When AccessKeyID is empty the default AWS chain is used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Client lists objects and signs download URLs for a single bucket.
type Client struct {
	api       API
	presigner Presigner
	bucket    string
	expiry    time.Duration
}

// NewClient creates a Client backed by the AWS SDK. A custom Endpoint
// allows S3-compatible stores such as OSS or MinIO.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("%w: bucket.name", kerrors.ErrMissingSetting)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return New(client, s3.NewPresignClient(client), opts.Name, opts.URLExpiry), nil
}

// New wraps existing API implementations.
func New(api API, presigner Presigner, bucket string, expiry time.Duration) *Client {
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	return &Client{api: api, presigner: presigner, bucket: bucket, expiry: expiry}
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// ListObjects returns every object under prefix, following continuation tokens.
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]manifest.Object, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(c.bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []manifest.Object
	paginator := s3.NewListObjectsV2Paginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, c.classify(fmt.Errorf("failed to list objects in bucket %s: %w", c.bucket, err))
		}
		for _, obj := range page.Contents {
			objects = append(objects, manifest.Object{
				Key:  aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}
	return objects, nil
}

// Objects lists prefix and attaches a signed GET URL to every file.
// Folder markers are returned without a URL.
func (c *Client) Objects(ctx context.Context, prefix string) ([]manifest.Object, error) {
	objects, err := c.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}

	for i := range objects {
		if isFolderMarker(objects[i].Key) {
			continue
		}
		url, err := c.SignURL(ctx, objects[i].Key)
		if err != nil {
			return nil, err
		}
		objects[i].URL = url
	}
	return objects, nil
}

// SignURL returns a presigned GET URL for key valid for the client's expiry.
func (c *Client) SignURL(ctx context.Context, key string) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.expiry))
	if err != nil {
		return "", c.classify(fmt.Errorf("failed to sign URL for %s: %w", key, err))
	}
	return req.URL, nil
}

// Put uploads body to key.
func (c *Client) Put(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := c.api.PutObject(ctx, input); err != nil {
		return c.classify(fmt.Errorf("failed to upload %s to bucket %s: %w", key, c.bucket, err))
	}
	return nil
}

// classify attaches a sentinel for well-known S3 error codes.
func (c *Client) classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "NoSuchBucket":
		return fmt.Errorf("%w: %s: %w", kerrors.ErrBucketNotFound, c.bucket, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "Forbidden":
		return fmt.Errorf("%w: %s: %w", kerrors.ErrBucketAccessDenied, c.bucket, err)
	default:
		return err
	}
}

func isFolderMarker(key string) bool {
	return len(key) > 0 && key[len(key)-1] == '/'
}
