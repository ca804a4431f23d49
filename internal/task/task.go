package task

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/RezaEskandarii/cronfire/types"
)

// ErrInvalidArguments wraps every argument binding, decoding or validation failure.
var ErrInvalidArguments = errors.New("invalid task arguments")

// Handler executes one task. args are bound to parameters by position and
// kwargs by name.
type Handler interface {
	Name() string
	Run(ctx context.Context, args []any, kwargs map[string]any) (types.TaskResult, error)
}

// Validator is implemented by argument structs that check their own values
// before the task body runs.
type Validator interface {
	Validate() error
}

// Func is the body of a task taking a decoded argument struct.
type Func[In any] func(ctx context.Context, in In) (types.TaskResult, error)

type typedTask[In any] struct {
	name   string
	params []string
	fn     Func[In]
}

// New builds a handler whose arguments are decoded into In. params lists the
// JSON field names of In in positional order. Unknown fields are rejected and
// In.Validate, when present, runs before fn.
func New[In any](name string, params []string, fn Func[In]) Handler {
	return &typedTask[In]{name: name, params: params, fn: fn}
}

func (t *typedTask[In]) Name() string {
	return t.name
}

func (t *typedTask[In]) Run(ctx context.Context, args []any, kwargs map[string]any) (types.TaskResult, error) {
	in, err := t.decode(args, kwargs)
	if err != nil {
		return nil, err
	}
	return t.fn(ctx, in)
}

func (t *typedTask[In]) decode(args []any, kwargs map[string]any) (In, error) {
	var in In

	bound, err := Bind(t.params, args, kwargs)
	if err != nil {
		return in, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, t.name, err)
	}
	raw, err := json.Marshal(bound)
	if err != nil {
		return in, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, t.name, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, t.name, err)
	}

	if v, ok := any(&in).(Validator); ok {
		if err := v.Validate(); err != nil {
			return in, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, t.name, err)
		}
	}
	return in, nil
}

// Bind merges positional and keyword arguments into a single map keyed by
// parameter name.
func Bind(params []string, args []any, kwargs map[string]any) (map[string]any, error) {
	if len(args) > len(params) {
		return nil, fmt.Errorf("takes %d positional arguments but %d were given", len(params), len(args))
	}

	bound := make(map[string]any, len(args)+len(kwargs))
	for i, a := range args {
		bound[params[i]] = a
	}
	for k, v := range kwargs {
		if !slices.Contains(params, k) {
			return nil, fmt.Errorf("unexpected keyword argument %q", k)
		}
		if _, dup := bound[k]; dup {
			return nil, fmt.Errorf("got multiple values for argument %q", k)
		}
		bound[k] = v
	}
	return bound, nil
}
