package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/tenderlens/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "reports.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := &models.Report{
		ID:             "mail-1",
		MessageID:      "18f2a",
		Subject:        "RFP for HMIS",
		Sender:         "cell@gov.example",
		AttachmentName: "rfp.pdf",
		ExtractMethod:  "pdf",
		EmailSummary:   "email part\n",
		TenderSummary:  "# Title\n**Fee**\n- 500\n",
		Heading:        "Title",
		RowCount:       1,
	}
	if err := store.SaveReport(ctx, report); err != nil {
		t.Fatal(err)
	}
	if report.CreatedAt.IsZero() || report.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}

	got, err := store.GetReport(ctx, "mail-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Subject != "RFP for HMIS" || got.Combined() != "email part\n# Title\n**Fee**\n- 500\n" || got.RowCount != 1 {
		t.Errorf("got %+v", got)
	}

	n, err := store.CountReports(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountReports = %d, %v", n, err)
	}

	if err := store.DeleteReport(ctx, "mail-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetReport(ctx, "mail-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}
	if err := store.DeleteReport(ctx, "mail-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_SaveIsLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.Report{ID: "mail-1", AttachmentName: "rfp.pdf", TenderSummary: "v1", Heading: "Table"}
	if err := store.SaveReport(ctx, first); err != nil {
		t.Fatal(err)
	}
	created := first.CreatedAt

	time.Sleep(10 * time.Millisecond)
	second := &models.Report{ID: "mail-1", AttachmentName: "rfp.pdf", TenderSummary: "v2", Heading: "Table"}
	if err := store.SaveReport(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetReport(ctx, "mail-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.TenderSummary != "v2" {
		t.Errorf("TenderSummary = %q, want v2", got.TenderSummary)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt changed on upsert: %v -> %v", created, got.CreatedAt)
	}
	if !got.UpdatedAt.After(created) {
		t.Errorf("UpdatedAt %v should be after %v", got.UpdatedAt, created)
	}
	if n, _ := store.CountReports(ctx); n != 1 {
		t.Errorf("CountReports = %d, want 1", n)
	}
}

func TestSQLiteStorage_ListReports(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.SaveReport(ctx, &models.Report{ID: id, AttachmentName: id + ".pdf", Heading: "Table"}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	list, err := store.ListReports(ctx, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "c" || list[1].ID != "b" {
		t.Errorf("page 1 = %v", ids(list))
	}
	list, err = store.ListReports(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "a" {
		t.Errorf("page 2 = %v", ids(list))
	}
}

func TestSQLiteStorage_SaveRequiresID(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveReport(context.Background(), &models.Report{}); err == nil {
		t.Error("expected error for empty ID")
	}
}

func ids(reports []*models.Report) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}
