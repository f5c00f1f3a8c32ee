// Package zarraccess reads the precomputed CCI zarr cubes from the portal's
// object storage over the S3 protocol.
package zarraccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/cci-tools/odpstore/internal/core/config"
	"github.com/cci-tools/odpstore/internal/zarr"
)

// DefaultBucket is the bucket holding the published CCI zarr cubes.
const DefaultBucket = "esacci"

var (
	// ErrReadOnly is returned for write and delete operations.
	ErrReadOnly = errors.New("the CCI zarr store is read-only")
	// ErrKeyNotFound reports a missing object key.
	ErrKeyNotFound = errors.New("key not found in zarr store")
)

// consolidatedKey is the zarr consolidated-metadata object of a cube.
const consolidatedKey = ".zmetadata"

// Store is a read-only zarr store over one S3 bucket. Each top-level prefix
// of the bucket is one dataset.
type Store struct {
	s3     s3iface.S3API
	bucket string
}

// New connects anonymously to the portal's object storage endpoint.
func New(cfg config.Config) (*Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(cfg.ZarrEndpointURL),
		Region:           aws.String("us-east-1"),
		Credentials:      credentials.AnonymousCredentials,
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("connect zarr store: %w", err)
	}
	bucket := cfg.ZarrBucket
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Store{s3: s3.New(sess), bucket: bucket}, nil
}

// NewWithClient wires an existing S3 client, used by tests and callers with
// their own session management.
func NewWithClient(api s3iface.S3API, bucket string) *Store {
	return &Store{s3: api, bucket: bucket}
}

// DataIDs lists the dataset prefixes of the bucket, sorted.
func (s *Store) DataIDs(ctx context.Context) ([]string, error) {
	var ids []string
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Delimiter: aws.String("/"),
	}
	err := s.s3.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, prefix := range page.CommonPrefixes {
				ids = append(ids, strings.TrimSuffix(aws.StringValue(prefix.Prefix), "/"))
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("list zarr datasets: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// HasData reports whether the bucket carries a cube under the dataset prefix.
func (s *Store) HasData(ctx context.Context, dataID string) (bool, error) {
	_, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(dataID + "/" + consolidatedKey),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", dataID, err)
	}
	return true, nil
}

// ConsolidatedMetadata is the parsed .zmetadata object of one cube: every
// metadata key of the zarr hierarchy in a single document.
type ConsolidatedMetadata struct {
	ZarrConsolidatedFormat int                        `json:"zarr_consolidated_format"`
	Metadata               map[string]json.RawMessage `json:"metadata"`
}

// ReadMetadata fetches and parses the consolidated metadata of a cube.
func (s *Store) ReadMetadata(ctx context.Context, dataID string) (*ConsolidatedMetadata, error) {
	body, err := s.Get(ctx, dataID+"/"+consolidatedKey)
	if err != nil {
		return nil, err
	}
	var md ConsolidatedMetadata
	if err := json.Unmarshal(body, &md); err != nil {
		return nil, fmt.Errorf("parse consolidated metadata of %s: %w", dataID, err)
	}
	return &md, nil
}

// ArrayMeta reads the array metadata of one variable out of the consolidated
// document.
func (md *ConsolidatedMetadata) ArrayMeta(varName string) (*zarr.ArrayMeta, error) {
	raw, ok := md.Metadata[varName+"/"+zarr.MetaKeyArray]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrKeyNotFound, varName, zarr.MetaKeyArray)
	}
	var meta zarr.ArrayMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parse array metadata of %s: %w", varName, err)
	}
	return &meta, nil
}

// Get fetches one object, metadata key or chunk, by its bucket key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return body, nil
}

// GetChunk fetches one chunk of one variable.
func (s *Store) GetChunk(ctx context.Context, dataID, varName string, indexes []int) ([]byte, error) {
	return s.Get(ctx, dataID+"/"+varName+"/"+zarr.ChunkKey(indexes))
}

// Set always fails: the published cubes are immutable.
func (s *Store) Set(string, []byte) error { return ErrReadOnly }

// Delete always fails: the published cubes are immutable.
func (s *Store) Delete(string) error { return ErrReadOnly }

func isNotFound(err error) bool {
	var ae awserr.Error
	if errors.As(err, &ae) {
		switch ae.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
