package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	cause := errors.New("quota exceeded")
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "not authenticated", err: fmt.Errorf("refresh: %w", ErrNotAuthenticated), want: "not_authenticated"},
		{name: "precondition", err: ErrPreconditionFailed, want: "precondition_failed"},
		{name: "invalid input", err: ErrInvalidInput, want: "invalid_input"},
		{name: "upstream", err: Upstream("values.get", cause), want: "upstream"},
		{name: "persistence", err: Persistence("save", cause), want: "persistence"},
		{name: "other", err: cause, want: "unexpected"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Kind(tc.err); got != tc.want {
				t.Fatalf("Kind() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUpstreamErrorKeepsCause(t *testing.T) {
	cause := errors.New("invalid range")
	err := fmt.Errorf("fetch: %w", Upstream("values.get", cause))

	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected errors.Is to match ErrUpstream")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected the provider cause to stay reachable")
	}
	if got := Cause(err); got != "invalid range" {
		t.Fatalf("Cause() = %q, want %q", got, "invalid range")
	}
}

func TestCauseFallsBackToMessage(t *testing.T) {
	if got := Cause(ErrNotAuthenticated); got != ErrNotAuthenticated.Error() {
		t.Fatalf("Cause() = %q", got)
	}
}
