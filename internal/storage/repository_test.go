package storage

import (
	"testing"
	"time"
)

func TestStringListRoundTrip(t *testing.T) {
	encoded, err := marshalStringList([]string{"a", "b"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if encoded != `["a","b"]` {
		t.Errorf("encoded = %s", encoded)
	}

	decoded, err := unmarshalStringList(encoded)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != "a" || decoded[1] != "b" {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestStringListNilAndEmpty(t *testing.T) {
	encoded, err := marshalStringList(nil)
	if err != nil {
		t.Fatalf("marshal nil: %v", err)
	}
	if encoded != "[]" {
		t.Errorf("nil slice encoded as %s, want []", encoded)
	}

	// Legacy rows may hold an empty string instead of a JSON array.
	decoded, err := unmarshalStringList("")
	if err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if decoded == nil || len(decoded) != 0 {
		t.Errorf("decoded = %v, want empty non-nil slice", decoded)
	}
}

func TestTimeMapRoundTrip(t *testing.T) {
	sent := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	encoded, err := marshalTimeMap(map[string]time.Time{"license:30": sent})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := unmarshalTimeMap(encoded)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, ok := decoded["license:30"]; !ok || !got.Equal(sent) {
		t.Errorf("decoded = %v, want license:30 at %s", decoded, sent)
	}
}

func TestTimeMapNilAndEmpty(t *testing.T) {
	encoded, err := marshalTimeMap(nil)
	if err != nil {
		t.Fatalf("marshal nil: %v", err)
	}
	if encoded != "{}" {
		t.Errorf("nil map encoded as %s, want {}", encoded)
	}

	decoded, err := unmarshalTimeMap("")
	if err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if decoded == nil || len(decoded) != 0 {
		t.Errorf("decoded = %v, want empty non-nil map", decoded)
	}
}
