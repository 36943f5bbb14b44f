package i18n

import (
	"reflect"
	"testing"
)

// TestTResolvesBothLanguages verifies the same key resolves in English
// and Russian.
func TestTResolvesBothLanguages(t *testing.T) {
	en := T("en", "msg_conversion_started")
	ru := T("ru", "msg_conversion_started")
	if en != "Conversion started" {
		t.Fatalf("unexpected English message: %q", en)
	}
	if ru != "Конвертация запущена" {
		t.Fatalf("unexpected Russian message: %q", ru)
	}
}

// TestTFallsBackToEnglish verifies unknown languages resolve through
// the English catalog.
func TestTFallsBackToEnglish(t *testing.T) {
	got := T("de", "msg_no_files")
	if got != "No files to process" {
		t.Fatalf("expected English fallback, got %q", got)
	}
}

// TestTReturnsKeyWhenUnknown verifies a missing key is returned as-is.
func TestTReturnsKeyWhenUnknown(t *testing.T) {
	if got := T("en", "no_such_key"); got != "no_such_key" {
		t.Fatalf("expected key echo, got %q", got)
	}
}

// TestTfSubstitutesPlaceholders verifies named placeholder replacement.
func TestTfSubstitutesPlaceholders(t *testing.T) {
	got := Tf("en", "msg_starting_conversion", map[string]any{"count": 7})
	if got != "Starting conversion of 7 files..." {
		t.Fatalf("unexpected formatted message: %q", got)
	}
}

// TestLanguages verifies the available language list.
func TestLanguages(t *testing.T) {
	if !Supported("ru") || Supported("de") {
		t.Fatal("unexpected Supported results")
	}
	if got := Languages(); !reflect.DeepEqual(got, []string{"en", "ru"}) {
		t.Fatalf("unexpected language list: %v", got)
	}
}
