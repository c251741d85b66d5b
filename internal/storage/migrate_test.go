// ABOUTME: Tests for data migration between storage backends.
// ABOUTME: Copies a populated sqlite store into a fresh one and checks every table.
package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMigrateData(t *testing.T) {
	src := setupTestDB(t)
	defer src.Close()
	p := seedExportData(t, src)

	dst := setupTestDB(t)
	defer dst.Close()

	summary, err := MigrateData(src, dst)
	if err != nil {
		t.Fatalf("MigrateData failed: %v", err)
	}

	if summary.Summaries != 2 {
		t.Errorf("Expected 2 daily summaries, got %d", summary.Summaries)
	}
	if summary.Activities != 1 {
		t.Errorf("Expected 1 activity, got %d", summary.Activities)
	}
	if summary.Protocols != 1 {
		t.Errorf("Expected 1 protocol, got %d", summary.Protocols)
	}
	if summary.Doses != 1 {
		t.Errorf("Expected 1 dose log, got %d", summary.Doses)
	}

	got, err := dst.GetProtocol(p.ID.String())
	if err != nil {
		t.Fatalf("GetProtocol on destination failed: %v", err)
	}
	if got.PeptideName != "BPC-157" || got.ScheduleSummary() != "Mon" {
		t.Errorf("protocol mismatch: %+v", got)
	}

	days, _ := dst.ListDailySummaries("u1", time.Time{}, time.Time{})
	if len(days) != 2 {
		t.Errorf("Expected 2 daily rows in destination, got %d", len(days))
	}
}

func TestMigrateDataDuplicateProtocolFails(t *testing.T) {
	src := setupTestDB(t)
	defer src.Close()
	seedExportData(t, src)

	dst := setupTestDB(t)
	defer dst.Close()

	if _, err := MigrateData(src, dst); err != nil {
		t.Fatalf("first MigrateData failed: %v", err)
	}
	if _, err := MigrateData(src, dst); err == nil {
		t.Error("expected error migrating the same protocols twice")
	}
}

func TestIsDirNonEmpty(t *testing.T) {
	dir := t.TempDir()

	nonEmpty, err := IsDirNonEmpty(filepath.Join(dir, "missing"))
	if err != nil || nonEmpty {
		t.Errorf("missing dir: got %v, %v", nonEmpty, err)
	}

	nonEmpty, err = IsDirNonEmpty(dir)
	if err != nil || nonEmpty {
		t.Errorf("empty dir: got %v, %v", nonEmpty, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.zip"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	nonEmpty, err = IsDirNonEmpty(dir)
	if err != nil || !nonEmpty {
		t.Errorf("non-empty dir: got %v, %v", nonEmpty, err)
	}
}
