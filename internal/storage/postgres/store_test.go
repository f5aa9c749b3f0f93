package postgres

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestParseObservedAt(t *testing.T) {
	got, err := parseObservedAt("2024-03-01T12:00:00.5Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 500_000_000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("time mismatch: %s != %s", got, want)
	}

	if _, err := parseObservedAt("yesterday"); err == nil {
		t.Fatalf("expected error for malformed timestamp")
	}
}

func TestNullable(t *testing.T) {
	if nullable("") != nil {
		t.Fatalf("empty string should be NULL")
	}
	if v := nullable("0xabc"); v == nil || *v != "0xabc" {
		t.Fatalf("value mismatch")
	}
}

func TestSchemaEmbedded(t *testing.T) {
	if !strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS safebox_snapshots") {
		t.Fatalf("schema not embedded")
	}
}

func TestNewStoreRequiresDSN(t *testing.T) {
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
