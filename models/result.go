package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result is the outcome of one agent call: a payload or an error message,
// never both. On the wire a successful Result is the bare payload and a
// failed one is {"error": "..."}.
type Result[T any] struct {
	value T
	err   string
	ok    bool
}

// Ok wraps a successful payload.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Fail wraps an error.
func Fail[T any](err error) Result[T] {
	if err == nil {
		return Result[T]{err: "unknown error"}
	}
	return Result[T]{err: err.Error()}
}

// Failf is Fail with a formatted message.
func Failf[T any](format string, args ...any) Result[T] {
	return Result[T]{err: fmt.Sprintf(format, args...)}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.ok }

// Value returns the payload and whether it is valid.
func (r Result[T]) Value() (T, bool) { return r.value, r.ok }

// OrElse returns the payload, or fallback when the call failed.
func (r Result[T]) OrElse(fallback T) T {
	if !r.ok {
		return fallback
	}
	return r.value
}

// Err returns the error message of a failed Result, or "" on success.
func (r Result[T]) Err() string {
	if r.ok {
		return ""
	}
	if r.err == "" {
		return "no result"
	}
	return r.err
}

// Transform rewrites the payload of a successful Result with payload, or
// the message of a failed one with msg. Either func may be nil.
func (r Result[T]) Transform(payload func(T) T, msg func(string) string) Result[T] {
	if r.ok {
		if payload != nil {
			r.value = payload(r.value)
		}
		return r
	}
	if msg != nil {
		r.err = msg(r.Err())
	}
	return r
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if !r.ok {
		return json.Marshal(ErrorResponse{Error: r.Err()})
	}
	return json.Marshal(r.value)
}

func (r *Result[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var probe struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(data, &probe); err == nil && probe.Error != nil {
			*r = Result[T]{err: *probe.Error}
			return nil
		}
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ok(v)
	return nil
}
