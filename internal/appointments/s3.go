package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Persister.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Persister keeps the calendar as a JSON snapshot object.
type S3Persister struct {
	client S3API
	bucket string
	key    string
}

// NewS3Persister creates a snapshot persister for bucket/key.
func NewS3Persister(client S3API, bucket, key string) (*S3Persister, error) {
	if client == nil || bucket == "" {
		return nil, errors.New("appointments: s3 client and bucket required")
	}
	if key == "" {
		key = "calendar/appointments.json"
	}
	return &S3Persister{client: client, bucket: bucket, key: key}, nil
}

// Load reads the snapshot object. A missing object is an empty calendar.
func (p *S3Persister) Load(ctx context.Context) ([]Appointment, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key),
	})
	if err != nil {
		var missing *s3types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, fmt.Errorf("appointments: s3 get %s: %w", p.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("appointments: read snapshot: %w", err)
	}
	var appts []Appointment
	if err := json.Unmarshal(data, &appts); err != nil {
		return nil, fmt.Errorf("appointments: unmarshal snapshot: %w", err)
	}
	return appts, nil
}

// Save writes appts as the snapshot object.
func (p *S3Persister) Save(ctx context.Context, appts []Appointment) error {
	if appts == nil {
		appts = []Appointment{}
	}
	data, err := json.Marshal(appts)
	if err != nil {
		return fmt.Errorf("appointments: marshal snapshot: %w", err)
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("appointments: s3 put %s: %w", p.key, err)
	}
	return nil
}
