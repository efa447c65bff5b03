package models

import (
	"encoding/base64"
	"testing"
)

func TestCompositeCursorRoundTrip(t *testing.T) {
	encoded := EncodeCompositeCursor("2024-03-15 13:45:10.123 +0000 UTC", 42)
	value, id := DecodeCompositeCursor(&encoded)
	if value != "2024-03-15 13:45:10.123 +0000 UTC" || id != 42 {
		t.Fatalf("round trip lost data: value=%q id=%d", value, id)
	}
}

// Bad cursors page from the start instead of erroring.
func TestDecodeCompositeCursorBadInput(t *testing.T) {
	check := func(name string, cursor *string) {
		t.Helper()
		value, id := DecodeCompositeCursor(cursor)
		if value != "" || id != 0 {
			t.Fatalf("%s: expected empty cursor, got value=%q id=%d", name, value, id)
		}
	}

	check("nil", nil)

	empty := ""
	check("empty", &empty)

	garbage := "not base64!!"
	check("invalid base64", &garbage)

	noSeparator := base64.StdEncoding.EncodeToString([]byte("justonefield"))
	check("missing separator", &noSeparator)

	badId := base64.StdEncoding.EncodeToString([]byte("2024-03-15|abc"))
	check("non-numeric id", &badId)

	tooManyParts := base64.StdEncoding.EncodeToString([]byte("a|b|c"))
	check("too many parts", &tooManyParts)
}
