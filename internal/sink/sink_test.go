package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestQueueDeliver(t *testing.T) {
	writer := &fakeWriter{}
	q := newQueue(writer, nil)

	require.NoError(t, q.Deliver(context.Background(), "doc.xml", []byte("<Order/>")))
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "doc.xml", string(writer.messages[0].Key))
	assert.Equal(t, "<Order/>", string(writer.messages[0].Value))
}

func TestQueueDeliver_WriteFailure(t *testing.T) {
	q := newQueue(&fakeWriter{err: errors.New("broker down")}, nil)
	err := q.Deliver(context.Background(), "doc.xml", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doc.xml")
}

func TestFileAreaDeliver(t *testing.T) {
	dir := t.TempDir()
	fa := NewFileArea(dir, nil)

	require.NoError(t, fa.Deliver(context.Background(), "catalogue.xml", []byte("<Catalogue/>")))

	content, err := os.ReadFile(filepath.Join(dir, "catalogue.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<Catalogue/>", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileAreaDeliver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileArea(t.TempDir(), nil).Deliver(ctx, "doc.xml", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
