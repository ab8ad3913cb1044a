package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samadpls/archdata/internal/model"
)

func sampleRecords() []model.Record {
	return []model.Record{
		{
			Conversation: []model.Turn{
				{Role: model.RoleUser, Content: "Book a flight to <Denver> & back"},
				{Role: model.RoleAssistant, Content: "Which dates?\nI'll check fares."},
			},
			Domain:           "travel",
			Action:           "book_flight",
			Description:      "Help users book flights.",
			LabelScore:       0.95,
			AugmentationType: model.AugmentOriginal,
		},
		{
			Conversation:     []model.Turn{{Role: model.RoleUser, Content: "Nice weather, huh?"}},
			Domain:           model.IrrelevantDomain,
			Action:           model.IrrelevantAction,
			Description:      model.IrrelevantDescription,
			LabelScore:       0.10,
			AugmentationType: model.AugmentIrrelevant,
		},
	}
}

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestJSONL_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, sampleRecords()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"augmentation_type":"original"`)
	assert.Contains(t, lines[0], "<Denver> & back")

	got, err := ReadJSONL(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestReadJSONL_SkipsBlankLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, sampleRecords()[:1]))

	got, err := ReadJSONL(strings.NewReader("\n" + buf.String() + "\n   \n"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReadJSONL_Errors(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{not json}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	_, err = ReadJSONL(strings.NewReader(`{"conversation": [], "augmentation_type": "shuffled"}` + "\n"))
	require.Error(t, err)
}

func TestWriteJSONL_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := ParseS3URI("s3://datasets/arch/router.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "datasets", bucket)
	assert.Equal(t, "arch/router.jsonl", key)

	for _, bad := range []string{"s3://bucket-only", "s3:///key", "file.jsonl"} {
		_, _, err := ParseS3URI(bad)
		assert.Error(t, err, bad)
	}
}

func TestSink_LocalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dataset.jsonl")
	sink := NewSink(nil)

	require.NoError(t, sink.Save(context.Background(), path, sampleRecords()))
	_, err := os.Stat(path)
	require.NoError(t, err)

	got, err := sink.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestSink_S3RoundTrip(t *testing.T) {
	fake := newFakeS3()
	sink := NewSink(fake)

	require.NoError(t, sink.Save(context.Background(), "s3://datasets/router.jsonl", sampleRecords()))
	assert.Contains(t, fake.objects, "datasets/router.jsonl")

	got, err := sink.Load(context.Background(), "s3://datasets/router.jsonl")
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)

	_, err = sink.Load(context.Background(), "s3://datasets/missing.jsonl")
	assert.Error(t, err)
}

func TestSink_S3Errors(t *testing.T) {
	err := NewSink(nil).Save(context.Background(), "s3://datasets/router.jsonl", sampleRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no s3 client")

	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	err = NewSink(fake).Save(context.Background(), "s3://datasets/router.jsonl", sampleRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
