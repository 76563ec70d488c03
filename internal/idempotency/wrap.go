package idempotency

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
	"unicode/utf8"
)

// DuplicateError reports that a live duplicate of an operation was detected.
// It carries the offending key so boundaries can surface it in the conflict
// response.
type DuplicateError struct {
	Key string
}

// Error implements the error interface for DuplicateError.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate operation detected: %s", e.Key)
}

// IsDuplicate reports whether err is (or wraps) a DuplicateError.
func IsDuplicate(err error) bool {
	var d *DuplicateError
	return errors.As(err, &d)
}

// Key derives a deterministic idempotency key from an operation name and the
// argument values that define the operation's logical identity, e.g.
// Key("createTask", laneID, name) -> "createTask:<laneID>:<name>".
//
// Arguments whose formatted form is not clean printable text degrade to an
// FNV hash of the raw representation, so the mechanism still provides some
// protection instead of failing.
func Key(op string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, op)
	for _, arg := range args {
		parts = append(parts, keyPart(arg))
	}
	return strings.Join(parts, ":")
}

// keyPart formats one key segment, hashing values that do not format to
// printable text.
func keyPart(arg any) string {
	s := fmt.Sprintf("%v", arg)
	if utf8.ValidString(s) && !strings.ContainsAny(s, ":\n") {
		return s
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%#v", arg)))
	return fmt.Sprintf("%x", h.Sum64())
}

// Guarded wraps fn with duplicate-operation protection. It is the explicit
// composition point replacing any notion of ambient interception: callers
// pass the derived key and window at the call site.
//
// If a live duplicate of key exists, fn is not invoked and a DuplicateError
// is returned. Otherwise fn runs; on success the key is released. On failure
// the key is also released so the operation can be retried, unless the
// failure is itself a DuplicateError, in which case the entry belongs to
// another in-flight operation and is left untouched.
func Guarded[T any](g *Guard, window time.Duration, key string, fn func() (T, error)) (T, error) {
	var zero T

	if g.CheckAndRegister(key, window) {
		return zero, &DuplicateError{Key: key}
	}

	result, err := fn()
	if err != nil {
		if !IsDuplicate(err) {
			g.Complete(key)
		}
		return zero, err
	}

	g.Complete(key)
	return result, nil
}
