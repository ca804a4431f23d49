package client_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/RezaEskandarii/cronfire/client"
	"github.com/RezaEskandarii/cronfire/internal/mocks"
	"github.com/RezaEskandarii/cronfire/internal/queue"
	"github.com/RezaEskandarii/cronfire/types"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_Enqueue(t *testing.T) {
	q := &mocks.MockQueue{}
	p := client.NewProducer(q, zerolog.Nop())

	payload, err := p.Enqueue(context.Background(), "send_email", map[string]any{"email": "a@b.com", "message": "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_name":"send_email","args":[],"kwargs":{"email":"a@b.com","message":"hi"}}`, string(payload))

	msgs := q.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, payload, msgs[0])
}

func TestProducer_Enqueue_NilKwargs(t *testing.T) {
	q := &mocks.MockQueue{}
	payload, err := client.NewProducer(q, zerolog.Nop()).Enqueue(context.Background(), "generate_report", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_name":"generate_report","args":[],"kwargs":{}}`, string(payload))
}

func TestProducer_Enqueue_Errors(t *testing.T) {
	_, err := client.NewProducer(&mocks.MockQueue{}, zerolog.Nop()).Enqueue(context.Background(), " ", nil)
	assert.ErrorIs(t, err, client.ErrEmptyTaskName)

	q := &mocks.MockQueue{PushFunc: func(context.Context, []byte) error { return errors.New("dial tcp: refused") }}
	_, err = client.NewProducer(q, zerolog.Nop()).Enqueue(context.Background(), "send_email", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue send_email")
	assert.Empty(t, q.Messages())
}

func TestProducer_Enqueue_RoundTripThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := queue.NewRedisQueue(rc, "task_queue")
	t.Cleanup(func() { _ = q.Close() })

	payload, err := client.NewProducer(q, zerolog.Nop()).Enqueue(context.Background(), "send_email", map[string]any{"email": "x@y.z"})
	require.NoError(t, err)

	items, err := mr.List("task_queue")
	require.NoError(t, err)
	require.Equal(t, []string{string(payload)}, items)

	env, err := types.DecodeEnvelope([]byte(items[0]))
	require.NoError(t, err)
	assert.Equal(t, "send_email", env.TaskName)
	assert.Equal(t, "x@y.z", env.Kwargs["email"])
	assert.Empty(t, env.Args)
}

func TestParseKwargs(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    map[string]any
		wantErr error
	}{
		{name: "blank", in: "  ", want: map[string]any{}},
		{name: "object", in: `{"email":"a@b.com"}`, want: map[string]any{"email": "a@b.com"}},
		{name: "array", in: `[1,2]`, wantErr: client.ErrKwargsNotObject},
		{name: "string", in: `"hello"`, wantErr: client.ErrKwargsNotObject},
		{name: "null", in: `null`, wantErr: client.ErrKwargsNotObject},
		{name: "invalid", in: `{email:`, wantErr: client.ErrInvalidJSON},
		{name: "trailing", in: `{} {}`, wantErr: client.ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.ParseKwargs(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadKwargsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"report_type":"sales","filters":{}}`), 0o600))

	kwargs, err := client.ReadKwargsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sales", kwargs["report_type"])

	_, err = client.ReadKwargsFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}
