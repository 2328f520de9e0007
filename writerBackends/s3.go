package writerbackends

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"

	"imageconverter/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// UploadToS3WithCreds uploads reader to bucket/prefix/name with static
// credentials. "endpoint" and "usePathStyle" select an S3-compatible store.
func UploadToS3WithCreds(ctx context.Context, accessInfo map[string]string, name string, reader io.Reader) error {
	if err := CheckAccessInfo(S3, accessInfo); err != nil {
		return err
	}
	creds := credentials.NewStaticCredentialsProvider(accessInfo["accessKey"], accessInfo["secretKey"], "")
	bucket := accessInfo["bucket"]
	key := objectKey(accessInfo["prefix"], name)

	opts := s3.Options{
		Region:      accessInfo["region"],
		Credentials: creds,
	}
	if endpoint := accessInfo["endpoint"]; endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	}
	if v, err := strconv.ParseBool(accessInfo["usePathStyle"]); err == nil {
		opts.UsePathStyle = v
	}
	uploader := manager.NewUploader(s3.New(opts))

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentTypeFor(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s to bucket %s: %w", key, bucket, err)
	}

	logger.Infof("Successfully uploaded object '%s' to bucket '%s'", key, bucket)
	return nil
}

// objectKey joins an optional key prefix and a name with forward slashes.
func objectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func contentTypeFor(name string) string {
	if path.Ext(name) == ".zip" {
		return "application/zip"
	}
	return "application/octet-stream"
}
