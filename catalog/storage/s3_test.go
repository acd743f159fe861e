package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	body  string
	err   error
	input *s3.GetObjectInput
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(m.body))}, nil
}

func TestS3Source(t *testing.T) {
	client := &mockS3{body: `{"recipes": []}`}

	data, err := NewS3Source(client, "bucket", "catalog.json").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"recipes": []}`, string(data))
	assert.Equal(t, "bucket", aws.ToString(client.input.Bucket))
	assert.Equal(t, "catalog.json", aws.ToString(client.input.Key))
}

func TestS3Source_Error(t *testing.T) {
	cause := errors.New("access denied")

	_, err := NewS3Source(&mockS3{err: cause}, "bucket", "catalog.json").Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "s3://bucket/catalog.json")
}
