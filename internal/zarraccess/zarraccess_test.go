package zarraccess

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// fakeS3 serves a fixed object map the way a bucket listing would.
type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, input *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.StringValue(input.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) HeadObjectWithContext(_ aws.Context, input *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.StringValue(input.Key)]; !ok {
		return nil, awserr.New("NotFound", "not found", nil)
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, input *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	seen := map[string]bool{}
	var prefixes []*s3.CommonPrefix
	for key := range f.objects {
		head, _, ok := strings.Cut(key, "/")
		if !ok || seen[head] {
			continue
		}
		seen[head] = true
		prefixes = append(prefixes, &s3.CommonPrefix{Prefix: aws.String(head + "/")})
	}
	sort.Slice(prefixes, func(i, j int) bool {
		return aws.StringValue(prefixes[i].Prefix) < aws.StringValue(prefixes[j].Prefix)
	})
	fn(&s3.ListObjectsV2Output{CommonPrefixes: prefixes}, true)
	return nil
}

const cubeID = "ESACCI-L4_GHRSST-SSTdepth-OSTIA-GLOB_CDR2.1-v02.0-fv01.0.zarr"

func newFakeStore() *Store {
	metadata := []byte(`{
  "zarr_consolidated_format": 1,
  "metadata": {
    ".zgroup": {"zarr_format": 2},
    "analysed_sst/.zarray": {
      "zarr_format": 2,
      "shape": [2, 4, 4],
      "chunks": [1, 4, 4],
      "dtype": "<f4",
      "compressor": null,
      "fill_value": -32768.0,
      "filters": null,
      "order": "C"
    }
  }
}`)
	return NewWithClient(&fakeS3{objects: map[string][]byte{
		cubeID + "/.zmetadata":         metadata,
		cubeID + "/analysed_sst/0.0.0": {1, 2, 3, 4},
		"other.zarr/.zmetadata":        []byte(`{"zarr_consolidated_format":1,"metadata":{}}`),
	}}, DefaultBucket)
}

func TestDataIDs(t *testing.T) {
	s := newFakeStore()
	ids, err := s.DataIDs(context.Background())
	if err != nil {
		t.Fatalf("DataIDs: %v", err)
	}
	want := []string{cubeID, "other.zarr"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestHasData(t *testing.T) {
	s := newFakeStore()
	ok, err := s.HasData(context.Background(), cubeID)
	if err != nil || !ok {
		t.Fatalf("HasData = %v, %v", ok, err)
	}
	ok, err = s.HasData(context.Background(), "missing.zarr")
	if err != nil || ok {
		t.Fatalf("HasData missing = %v, %v", ok, err)
	}
}

func TestReadMetadata(t *testing.T) {
	s := newFakeStore()
	md, err := s.ReadMetadata(context.Background(), cubeID)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if md.ZarrConsolidatedFormat != 1 {
		t.Fatalf("format = %d", md.ZarrConsolidatedFormat)
	}
	meta, err := md.ArrayMeta("analysed_sst")
	if err != nil {
		t.Fatalf("ArrayMeta: %v", err)
	}
	if !reflect.DeepEqual(meta.Shape, []int{2, 4, 4}) || meta.Dtype != "<f4" {
		t.Fatalf("array meta = %+v", meta)
	}
	if _, err := md.ArrayMeta("no_such_var"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestGetChunk(t *testing.T) {
	s := newFakeStore()
	data, err := s.GetChunk(context.Background(), cubeID, "analysed_sst", []int{0, 0, 0})
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if !reflect.DeepEqual(data, []byte{1, 2, 3, 4}) {
		t.Fatalf("chunk = %v", data)
	}
	if _, err := s.GetChunk(context.Background(), cubeID, "analysed_sst", []int{9, 0, 0}); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("err = %v, want ErrKeyNotFound", err)
	}
}

func TestReadOnly(t *testing.T) {
	s := newFakeStore()
	if err := s.Set("x", nil); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Set err = %v", err)
	}
	if err := s.Delete("x"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Delete err = %v", err)
	}
}
