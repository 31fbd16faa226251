package util

import "encoding/json"

// Optional is a value that may be absent. It encodes to JSON null when unset.
type Optional[T any] struct {
	Val   T
	IsSet bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Val: v, IsSet: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// OptionalString treats the empty string as None, the way form selects send "no choice".
func OptionalString(s string) Optional[string] {
	if s == "" {
		return None[string]()
	}
	return Some(s)
}

func (o Optional[T]) UnwrapOr(fallback T) T {
	if !o.IsSet {
		return fallback
	}
	return o.Val
}

// Equal reports whether a and b are both unset, or both set to the same value.
// The Val of an unset Optional is ignored.
func Equal[T comparable](a, b Optional[T]) bool {
	if a.IsSet != b.IsSet {
		return false
	}
	return !a.IsSet || a.Val == b.Val
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.IsSet {
		return []byte("null"), nil
	}
	return json.Marshal(o.Val)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
