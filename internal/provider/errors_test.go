package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/tidwall/gjson"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	dial := &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
	if !IsTransient(Classify(dial)) {
		t.Fatalf("expected dial error to be transient")
	}
	if !IsTransient(Classify(fmt.Errorf("wrapped: %w", context.DeadlineExceeded))) {
		t.Fatalf("expected deadline to be transient")
	}
	if !IsTimeout(Classify(context.DeadlineExceeded)) {
		t.Fatalf("expected deadline to count as timeout")
	}
	if err := Classify(context.Canceled); IsTransient(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation must pass through, got %v", err)
	}
	plain := errors.New("boom")
	if Classify(plain) != plain {
		t.Fatalf("expected unrelated error to pass through")
	}
	if Classify(nil) != nil {
		t.Fatalf("expected nil to stay nil")
	}
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("lookup: %w", &StatusError{Code: 502})
	if StatusCode(err) != 502 {
		t.Fatalf("expected 502, got %d", StatusCode(err))
	}
	if StatusCode(ErrNotFound) != 0 {
		t.Fatalf("expected 0 for not-found")
	}
}

func TestNumericMap(t *testing.T) {
	t.Parallel()

	got := NumericMap(gjson.Parse(`{"fat_100g": 3.5, "salt_100g": "0.2", "energy_unit": "kcal", "nested": {"a": 1}}`))
	if len(got) != 2 || got["fat_100g"] != 3.5 || got["salt_100g"] != 0.2 {
		t.Fatalf("unexpected map: %v", got)
	}
	if NumericMap(gjson.Parse(`[]`)) != nil {
		t.Fatalf("expected nil for non-object")
	}

	got = NumericMap(gjson.Parse(`{"fat_100g": "NaN", "salt_100g": "Inf", "fiber_100g": "-Infinity", "sugars_100g": 2}`))
	if len(got) != 1 || got["sugars_100g"] != 2 {
		t.Fatalf("expected non-finite values to be dropped, got %v", got)
	}
	if NumericMap(gjson.Parse(`{"fat_100g": "nan"}`)) != nil {
		t.Fatalf("expected nil when only non-finite values remain")
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	if f, ok := ParseNumber(" 1.5 "); !ok || f != 1.5 {
		t.Fatalf("unexpected parse: %v %v", f, ok)
	}
	for _, bad := range []string{"NaN", "+Inf", "Infinity", "1e999", "lots", ""} {
		if _, ok := ParseNumber(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}
