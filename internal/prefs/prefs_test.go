package prefs

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/kuitang/cloudnotes/internal/i18n"
)

func TestLanguage_DefaultWhenMissing(t *testing.T) {
	svc := NewService(afero.NewMemMapFs(), "/data")
	if got := svc.Language(i18n.Arabic); got != i18n.Arabic {
		t.Errorf("Language() = %v, want default ar", got)
	}
}

func TestSetLanguage_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	svc := NewService(fs, "/data")

	if err := svc.SetLanguage(i18n.English); err != nil {
		t.Fatalf("SetLanguage failed: %v", err)
	}
	if got := svc.Language(i18n.Arabic); got != i18n.English {
		t.Errorf("Language() = %v, want en", got)
	}

	// A fresh service over the same fs restores the selector, which is
	// what re-initializing the application does.
	again := NewService(fs, "/data")
	if got := again.Language(i18n.Arabic); got != i18n.English {
		t.Errorf("restored Language() = %v, want en", got)
	}
}

func TestSetLanguage_RejectsUnknownValues(t *testing.T) {
	svc := NewService(afero.NewMemMapFs(), "/data")
	if err := svc.SetLanguage(i18n.Lang("fr")); err == nil {
		t.Fatal("SetLanguage should reject values outside the permitted pair")
	}
}

func TestLanguage_CorruptFileFallsBack(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/data/prefs.json", []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	svc := NewService(fs, "/data")
	if got := svc.Language(i18n.English); got != i18n.English {
		t.Errorf("Language() = %v, want default en", got)
	}
}

func TestLanguage_NormalizesStoredTag(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/data/prefs.json", []byte(`{"language":"en-US"}`), 0o644); err != nil {
		t.Fatalf("seed prefs: %v", err)
	}

	svc := NewService(fs, "/data")
	if got := svc.Language(i18n.Arabic); got != i18n.English {
		t.Errorf("Language() = %v, want en", got)
	}
}
