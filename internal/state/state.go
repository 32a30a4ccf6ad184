// Package state provides the view-state containers shared by all view-models:
// a four-variant UiState projection and a conflating value Store that behaves
// like a state flow (subscribers always see the latest value).
package state

import "encoding/json"

// Kind enumerates the UiState variants.
type Kind int

const (
	KindIdle Kind = iota
	KindLoading
	KindSuccess
	KindError
)

// String returns the wire name of the variant.
func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "idle"
	}
}

// UiState is the UI projection of an asynchronous operation. Exactly one
// variant is active at a time; rendering code is expected to switch on Kind
// and handle every case.
type UiState[T any] struct {
	kind    Kind
	data    T
	message string
}

// Idle returns the initial, untriggered state.
func Idle[T any]() UiState[T] { return UiState[T]{kind: KindIdle} }

// Loading returns the in-flight state.
func Loading[T any]() UiState[T] { return UiState[T]{kind: KindLoading} }

// Success returns a terminal state carrying the operation's value.
func Success[T any](data T) UiState[T] { return UiState[T]{kind: KindSuccess, data: data} }

// Error returns a terminal state carrying a human-readable message.
func Error[T any](message string) UiState[T] { return UiState[T]{kind: KindError, message: message} }

// Kind reports which variant is active.
func (s UiState[T]) Kind() Kind { return s.kind }

// Data returns the success value and whether the state is Success.
func (s UiState[T]) Data() (T, bool) { return s.data, s.kind == KindSuccess }

// Message returns the error message; empty unless the state is Error.
func (s UiState[T]) Message() string { return s.message }

// MarshalJSON encodes the state as {"status": ..., "data"/"message": ...}.
func (s UiState[T]) MarshalJSON() ([]byte, error) {
	payload := map[string]any{"status": s.kind.String()}
	switch s.kind {
	case KindSuccess:
		payload["data"] = s.data
	case KindError:
		payload["message"] = s.message
	}
	return json.Marshal(payload)
}
