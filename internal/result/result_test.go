package result

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestZeroValueIsLoading(t *testing.T) {
	var env Envelope[[]string]
	if !env.IsLoading() {
		t.Fatalf("zero envelope state = %v, want loading", env.State)
	}
	if env.Err() != nil {
		t.Fatal("loading envelope must not carry an error")
	}
}

func TestSuccessAndGet(t *testing.T) {
	env := Success([]int{1, 2})
	value, ok := env.Get()
	if !ok || len(value) != 2 {
		t.Fatalf("Get() = %v, %v", value, ok)
	}
	if env.IsError() || env.IsLoading() {
		t.Fatal("success envelope reported wrong state")
	}
}

func TestErrorCarriesCode(t *testing.T) {
	env := Error[int]("primary unreachable", "source_unavailable")
	if _, ok := env.Get(); ok {
		t.Fatal("error envelope must not report a value")
	}
	err := env.Err()
	var envErr *EnvelopeError
	if !errors.As(err, &envErr) {
		t.Fatalf("Err() = %T, want *EnvelopeError", err)
	}
	if envErr.Code != "source_unavailable" {
		t.Fatalf("code = %q", envErr.Code)
	}
	if err.Error() != "primary unreachable (source_unavailable)" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestMap(t *testing.T) {
	length := func(s []string) int { return len(s) }

	if got := Map(Success([]string{"a", "b"}), length); got.Value != 2 || !got.IsSuccess() {
		t.Fatalf("Map(success) = %+v", got)
	}
	if got := Map(Error[[]string]("boom", "parse_failure"), length); !got.IsError() || got.Code != "parse_failure" {
		t.Fatalf("Map(error) = %+v", got)
	}
	if got := Map(Loading[[]string](), length); !got.IsLoading() {
		t.Fatalf("Map(loading) = %+v", got)
	}
}

func TestJSONShape(t *testing.T) {
	data, err := json.Marshal(Error[[]string]("no data yet", "no_data"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["state"] != "error" || decoded["code"] != "no_data" {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestStateRoundTrip(t *testing.T) {
	var env Envelope[int]
	if err := json.Unmarshal([]byte(`{"state":"success","value":3}`), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !env.IsSuccess() || env.Value != 3 {
		t.Fatalf("decoded %+v", env)
	}
	if err := json.Unmarshal([]byte(`{"state":"bogus"}`), &env); err == nil {
		t.Fatal("expected error for unknown state")
	}
}
