package codec

import (
	"strings"
	"testing"
)

type record struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func TestEncodeDecode(t *testing.T) {
	for _, name := range []string{"", "json", "json-indent"} {
		t.Run(name, func(t *testing.T) {
			c, err := ByName(name)
			if err != nil {
				t.Fatalf("ByName(%q): %v", name, err)
			}

			raw, err := Encode(c, []record{{ID: 2, Title: "Desk"}})
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !strings.Contains(raw, `"title"`) {
				t.Errorf("Expected JSON field names, got %s", raw)
			}

			got, err := Decode[[]record](c, raw)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(got) != 1 || got[0].ID != 2 || got[0].Title != "Desk" {
				t.Errorf("Unexpected decode result: %+v", got)
			}
		})
	}
}

func TestDecodeCorrupt(t *testing.T) {
	if _, err := Decode[[]record](DefaultCodec(), "{not json"); err == nil {
		t.Error("Expected an error for corrupt input")
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("gob"); err == nil {
		t.Error("Expected an error for an unknown codec")
	}
}
