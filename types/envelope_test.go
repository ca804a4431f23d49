package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantTask   string
		wantArgs   []any
		wantKwargs map[string]any
		wantErr    error
	}{
		{
			name:       "native kwargs",
			raw:        `{"task_name":"send_email","args":[],"kwargs":{"email":"a@b.c"}}`,
			wantTask:   "send_email",
			wantArgs:   []any{},
			wantKwargs: map[string]any{"email": "a@b.c"},
		},
		{
			name:       "string kwargs",
			raw:        `{"task_name":"send_email","kwargs":"{\"email\":\"a@b.c\"}"}`,
			wantTask:   "send_email",
			wantArgs:   []any{},
			wantKwargs: map[string]any{"email": "a@b.c"},
		},
		{
			name:       "unparseable string kwargs becomes empty",
			raw:        `{"task_name":"t","args":["x"],"kwargs":"not json"}`,
			wantTask:   "t",
			wantArgs:   []any{"x"},
			wantKwargs: map[string]any{},
		},
		{
			name:       "string kwargs encoding a list becomes empty",
			raw:        `{"task_name":"t","kwargs":"[1,2]"}`,
			wantTask:   "t",
			wantArgs:   []any{},
			wantKwargs: map[string]any{},
		},
		{
			name:       "missing args and kwargs",
			raw:        `{"task_name":"t"}`,
			wantTask:   "t",
			wantArgs:   []any{},
			wantKwargs: map[string]any{},
		},
		{
			name:       "null args and kwargs",
			raw:        `{"task_name":"t","args":null,"kwargs":null}`,
			wantTask:   "t",
			wantArgs:   []any{},
			wantKwargs: map[string]any{},
		},
		{
			name:    "top-level list",
			raw:     `[1,2,3]`,
			wantErr: ErrNotObject,
		},
		{
			name:    "top-level string",
			raw:     `"hello"`,
			wantErr: ErrNotObject,
		},
		{
			name:    "args not a list",
			raw:     `{"task_name":"t","args":{"a":1}}`,
			wantErr: ErrMalformedEnvelope,
		},
		{
			name:    "kwargs a number",
			raw:     `{"task_name":"t","kwargs":5}`,
			wantErr: ErrMalformedEnvelope,
		},
		{
			name:    "task_name not a string",
			raw:     `{"task_name":7}`,
			wantErr: ErrMalformedEnvelope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.raw))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTask, env.TaskName)
			assert.Equal(t, tt.wantArgs, env.Args)
			assert.Equal(t, tt.wantKwargs, env.Kwargs)
		})
	}
}

func TestDecodeEnvelope_InvalidJSON(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"task_name":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode envelope")

	_, err = DecodeEnvelope([]byte(`{} {}`))
	assert.Error(t, err)
}

func TestDecodeEnvelope_KeepsNumbers(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"task_name":"t","kwargs":{"n":9007199254740993}}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), env.Kwargs["n"])
}

func TestDecodeJSON(t *testing.T) {
	v, err := DecodeJSON([]byte(` {"n": 12345678901234567890} `))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": json.Number("12345678901234567890")}, v)

	_, err = DecodeJSON([]byte(`{} {}`))
	assert.ErrorContains(t, err, "unexpected data after JSON value")

	_, err = DecodeJSON([]byte(`{oops`))
	assert.Error(t, err)
}

func TestEnvelope_EncodeLegacy(t *testing.T) {
	env := NewEnvelope("generate_report", nil, map[string]any{"report_type": "sales"})

	raw, err := env.EncodeLegacy()
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_name":"generate_report","args":[],"kwargs":"{\"report_type\":\"sales\"}"}`, string(raw))

	decoded, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, "generate_report", decoded.TaskName)
	assert.Equal(t, map[string]any{"report_type": "sales"}, decoded.Kwargs)
}

func TestEnvelope_Encode(t *testing.T) {
	raw, err := Envelope{TaskName: "send_email"}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_name":"send_email","args":[],"kwargs":{}}`, string(raw))
}

func TestJob_IsDue(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, Job{IsActive: true, NextRunAt: now}.IsDue(now))
	assert.True(t, Job{IsActive: true, NextRunAt: now.Add(-time.Minute)}.IsDue(now))
	assert.False(t, Job{IsActive: true, NextRunAt: now.Add(time.Second)}.IsDue(now))
	assert.False(t, Job{IsActive: false, NextRunAt: now.Add(-time.Minute)}.IsDue(now))
}
