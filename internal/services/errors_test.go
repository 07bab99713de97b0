package services_test

import (
	"errors"
	"strings"
	"testing"

	"podscribe/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrPermanent, "transcoder", "encode", "/tmp/in.mp3", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcoder", "encode", "/tmp/in.mp3", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToProgrammingMarker(t *testing.T) {
	err := services.Wrap(nil, "speech", "submit", "", nil)
	if !errors.Is(err, services.ErrProgramming) {
		t.Fatalf("expected programming marker, got %v", err)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want services.Kind
	}{
		{"permanent", services.Permanent("prober", "probe", "x", nil), services.KindPermanent},
		{"programming", services.Programming("speech", "poll", "x", errors.New("io")), services.KindProgramming},
		{"plain", errors.New("other"), services.KindUnknown},
		{"nil", nil, services.KindUnknown},
	}
	for _, tc := range cases {
		if got := services.KindOf(tc.err); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
