package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotObject is returned when a payload decodes to anything but a JSON object.
	ErrNotObject = errors.New("payload is not a JSON object")
	// ErrMalformedEnvelope is returned when a known field has the wrong shape.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// Envelope is the unit of work carried by the queue.
type Envelope struct {
	TaskName string         `json:"task_name"`
	Args     []any          `json:"args"`
	Kwargs   map[string]any `json:"kwargs"`
}

// NewEnvelope builds an envelope with non-nil args and kwargs.
func NewEnvelope(taskName string, args []any, kwargs map[string]any) Envelope {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return Envelope{TaskName: taskName, Args: args, Kwargs: kwargs}
}

// Encode marshals the envelope with kwargs as a native JSON object.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(NewEnvelope(e.TaskName, e.Args, e.Kwargs))
}

type legacyEnvelope struct {
	TaskName string `json:"task_name"`
	Args     []any  `json:"args"`
	Kwargs   string `json:"kwargs"`
}

// EncodeLegacy marshals the envelope with kwargs as a JSON-encoded string,
// the shape older producers and consumers expect.
func (e Envelope) EncodeLegacy() ([]byte, error) {
	n := NewEnvelope(e.TaskName, e.Args, e.Kwargs)
	kw, err := json.Marshal(n.Kwargs)
	if err != nil {
		return nil, fmt.Errorf("marshal kwargs: %w", err)
	}
	return json.Marshal(legacyEnvelope{TaskName: n.TaskName, Args: n.Args, Kwargs: string(kw)})
}

// DecodeEnvelope parses a raw queue message or job payload.
//
// Missing args default to an empty list and missing kwargs to an empty map.
// A string kwargs is decoded as JSON; if that fails or yields a non-object the
// kwargs become empty. Numbers are kept as json.Number.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	v, err := DecodeJSON(raw)
	if err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return Envelope{}, ErrNotObject
	}

	var env Envelope
	switch name := obj["task_name"].(type) {
	case nil:
	case string:
		env.TaskName = name
	default:
		return Envelope{}, fmt.Errorf("%w: task_name must be a string, got %T", ErrMalformedEnvelope, name)
	}

	switch args := obj["args"].(type) {
	case nil:
		env.Args = []any{}
	case []any:
		env.Args = args
	default:
		return Envelope{}, fmt.Errorf("%w: args must be a list, got %T", ErrMalformedEnvelope, args)
	}

	kwargs, err := NormalizeKwargs(obj["kwargs"])
	if err != nil {
		return Envelope{}, err
	}
	env.Kwargs = kwargs
	return env, nil
}

// NormalizeKwargs accepts either a native object or its JSON string encoding.
func NormalizeKwargs(v any) (map[string]any, error) {
	switch kw := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return kw, nil
	case string:
		inner, err := DecodeJSON([]byte(kw))
		if err != nil {
			return map[string]any{}, nil
		}
		if m, ok := inner.(map[string]any); ok {
			return m, nil
		}
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("%w: kwargs must be an object or string, got %T", ErrMalformedEnvelope, kw)
	}
}

// DecodeJSON decodes exactly one JSON value, keeping numbers as json.Number.
func DecodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}
