package harness

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/turnstile/internal/address"
	"github.com/roach88/turnstile/internal/identity"
)

// argReader pulls typed values out of a step's YAML args. The first
// failure sticks; done reports it along with any keys nobody asked for.
type argReader struct {
	args map[string]any
	used map[string]bool
	err  error
}

func newArgReader(args map[string]any) *argReader {
	return &argReader{args: args, used: make(map[string]bool)}
}

func (r *argReader) fail(key string, format string, a ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("arg %q: %s", key, fmt.Sprintf(format, a...))
	}
}

func (r *argReader) lookup(key string) (any, bool) {
	r.used[key] = true
	v, ok := r.args[key]
	return v, ok && v != nil
}

func (r *argReader) str(key string) string {
	v, ok := r.lookup(key)
	if !ok {
		return ""
	}
	s, isStr := v.(string)
	if !isStr {
		r.fail(key, "want string, got %T", v)
	}
	return s
}

// strOr returns def when key is absent.
func (r *argReader) strOr(key, def string) string {
	if s := r.str(key); s != "" {
		return s
	}
	return def
}

func (r *argReader) principal(key string, def identity.Principal) identity.Principal {
	return identity.Principal(r.strOr(key, string(def)))
}

func (r *argReader) uint(key string) uint64 {
	v, ok := r.lookup(key)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		if n < 0 {
			r.fail(key, "must not be negative")
			return 0
		}
		return uint64(n)
	case int64:
		if n < 0 {
			r.fail(key, "must not be negative")
			return 0
		}
		return uint64(n)
	case uint64:
		return n
	case float64:
		if n < 0 || n != math.Trunc(n) || n > math.MaxInt64 {
			r.fail(key, "want non-negative integer, got %v", n)
			return 0
		}
		return uint64(n)
	default:
		r.fail(key, "want integer, got %T", v)
		return 0
	}
}

func (r *argReader) bool(key string) bool {
	v, ok := r.lookup(key)
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	if !isBool {
		r.fail(key, "want bool, got %T", v)
	}
	return b
}

func (r *argReader) strings(key string) []string {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	list, isList := v.([]any)
	if !isList {
		r.fail(key, "want list, got %T", v)
		return nil
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, isStr := item.(string)
		if !isStr {
			r.fail(key, "item %d: want string, got %T", i, item)
			return nil
		}
		out[i] = s
	}
	return out
}

// ref resolves a reference argument with resolve.
func (r *argReader) ref(key string, resolve func(string) (address.Address, error)) address.Address {
	s := r.str(key)
	if s == "" {
		if r.err == nil {
			r.fail(key, "required")
		}
		return address.Address{}
	}
	addr, err := resolve(s)
	if err != nil {
		r.fail(key, "%v", err)
	}
	return addr
}

func (r *argReader) done() error {
	if r.err != nil {
		return r.err
	}
	var unknown []string
	for k := range r.args {
		if !r.used[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown args: %s", strings.Join(unknown, ", "))
	}
	return nil
}
