package message

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tturner/g5trace/internal/errors"
)

// Tree is one decoded record as exported by `tshark -T json`: the value of
// `_source.layers`, keyed by protocol namespace ("frame", "eth", "gnw", "its").
// Leaves are strings in tshark output; numbers are accepted as well.
type Tree map[string]interface{}

// Lookup walks path through nested maps.
func (t Tree) Lookup(path ...string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(t)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether path exists.
func (t Tree) Has(path ...string) bool {
	_, ok := t.Lookup(path...)
	return ok
}

// Sub returns the subtree at path.
func (t Tree) Sub(path ...string) (Tree, bool) {
	v, ok := t.Lookup(path...)
	if !ok {
		return nil, false
	}
	m, ok := asMap(v)
	if !ok {
		return nil, false
	}
	return Tree(m), true
}

// set stores value at path, creating intermediate maps.
func (t Tree) set(value interface{}, path ...string) {
	cur := map[string]interface{}(t)
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			cur[key] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Tree:
		return m, true
	}
	return nil, false
}

func fieldPath(path []string) string {
	return strings.Join(path, "/")
}

// firstStringValue flattens the shapes tshark uses for a single field: a
// plain string, or a list when the field repeats.
func firstStringValue(val interface{}) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case []interface{}:
		for _, item := range v {
			if s, ok := firstStringValue(item); ok {
				return s, true
			}
		}
	}
	return "", false
}

func parseInt(val interface{}) (int64, error) {
	switch v := val.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	}
	s, ok := firstStringValue(val)
	if !ok {
		return 0, fmt.Errorf("unsupported value type %T", val)
	}
	s = strings.TrimSpace(s)
	// base 0 accepts the 0x-prefixed forms tshark emits for some fields
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

// fieldReader extracts typed leaves and remembers the first failure, so a
// constructor can read every field and check once. Scoped readers made with
// within share that failure.
type fieldReader struct {
	tree   Tree
	prefix []string
	state  *readerState
}

type readerState struct {
	kind  Kind
	frame string
	err   *errors.MalformedRecordError
}

func newFieldReader(tree Tree, kind Kind) *fieldReader {
	return &fieldReader{tree: tree, state: &readerState{kind: kind}}
}

func (r *fieldReader) fail(path []string, reason string) {
	if r.state.err != nil {
		return
	}
	r.state.err = &errors.MalformedRecordError{
		FrameNumber: r.state.frame,
		Kind:        r.state.kind.String(),
		Field:       fieldPath(path),
		Reason:      reason,
	}
}

// Err returns the first failure as an error, or nil.
func (r *fieldReader) Err() error {
	if r.state.err == nil {
		return nil
	}
	return r.state.err
}

func (r *fieldReader) full(path []string) []string {
	out := make([]string, 0, len(r.prefix)+len(path))
	out = append(out, r.prefix...)
	return append(out, path...)
}

func (r *fieldReader) str(path ...string) string {
	path = r.full(path)
	v, ok := r.tree.Lookup(path...)
	if !ok {
		r.fail(path, "")
		return ""
	}
	s, ok := firstStringValue(v)
	if !ok {
		r.fail(path, fmt.Sprintf("unsupported value type %T", v))
		return ""
	}
	return s
}

func (r *fieldReader) int(path ...string) int64 {
	path = r.full(path)
	v, ok := r.tree.Lookup(path...)
	if !ok {
		r.fail(path, "")
		return 0
	}
	n, err := parseInt(v)
	if err != nil {
		r.fail(path, err.Error())
		return 0
	}
	return n
}

// within returns a reader scoped under prefix.
func (r *fieldReader) within(prefix ...string) *fieldReader {
	return &fieldReader{tree: r.tree, prefix: r.full(prefix), state: r.state}
}
