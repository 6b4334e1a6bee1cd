package pinning

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores payloads under cards/<sha256>.json and uses the digest as the id,
// so pinning the same document twice is idempotent.
type S3 struct {
	client objectPutter
	bucket string
}

func NewS3(ctx context.Context, bucket, region string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (p *S3) Pin(ctx context.Context, name string, payload json.RawMessage) (string, error) {
	sum := sha256.Sum256(payload)
	id := hex.EncodeToString(sum[:])

	input := &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(objectKey(id)),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	}
	if name != "" {
		input.Metadata = map[string]string{"name": name}
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return id, nil
}

func objectKey(id string) string {
	return "cards/" + id + ".json"
}
