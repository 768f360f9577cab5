package history_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kylesnowschwartz/roya-history/history"
)

func TestDecodeRecords_FieldAliases(t *testing.T) {
	body := `[
		{"id": 7, "etapa": "cosecha", "img_url": "https://cdn/a.jpg", "created_at": "2025-09-12T10:00:00Z", "comentario": "hojas amarillas"},
		{"id": "b4f1", "stage": "floracion", "img": "https://cdn/b.jpg", "date": "2025-09-11T08:00:00"},
		{"url": "https://cdn/c.jpg", "captured_at": null, "comment": "sin fecha"},
		{"image_url": "https://cdn/d.jpg"}
	]`

	got, skips, err := history.DecodeRecords([]byte(body))
	if err != nil {
		t.Fatalf("DecodeRecords error: %v", err)
	}
	if len(skips) != 0 {
		t.Fatalf("skips = %+v, want none", skips)
	}

	want := []history.RawPhotoRecord{
		{ID: "7", StageLabel: "cosecha", ImageURL: "https://cdn/a.jpg", CapturedAt: "2025-09-12T10:00:00Z", Comment: "hojas amarillas"},
		{ID: "b4f1", StageLabel: "floracion", ImageURL: "https://cdn/b.jpg", CapturedAt: "2025-09-11T08:00:00"},
		{ImageURL: "https://cdn/c.jpg", Comment: "sin fecha"},
		{ImageURL: "https://cdn/d.jpg"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRecords_PlainURLList(t *testing.T) {
	got, skips, err := history.DecodeRecords([]byte(`["https://cdn/a.jpg", "https://cdn/b.jpg"]`))
	if err != nil {
		t.Fatalf("DecodeRecords error: %v", err)
	}
	if len(skips) != 0 {
		t.Fatalf("skips = %+v, want none", skips)
	}
	want := []history.RawPhotoRecord{{ImageURL: "https://cdn/a.jpg"}, {ImageURL: "https://cdn/b.jpg"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRecords_SkipsMalformedItems(t *testing.T) {
	body := `[
		{"id": 1, "img_url": "https://cdn/ok.jpg"},
		42,
		{"id": 1.5, "img_url": "https://cdn/float-id.jpg"},
		{"id": 3, "etapa": 9, "img_url": "https://cdn/bad-stage.jpg"},
		null,
		{"id": 4, "img_url": "https://cdn/ok2.jpg"}
	]`

	got, skips, err := history.DecodeRecords([]byte(body))
	if err != nil {
		t.Fatalf("DecodeRecords error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(got))
	}
	if got[0].ImageURL != "https://cdn/ok.jpg" || got[1].ImageURL != "https://cdn/ok2.jpg" {
		t.Errorf("kept records = %+v", got)
	}

	var idx []int
	for _, s := range skips {
		idx = append(idx, s.Index)
		if s.Reason == "" {
			t.Errorf("skip %d has empty reason", s.Index)
		}
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4}, idx); diff != "" {
		t.Errorf("skip indexes mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRecords_EmptyURLIsKept(t *testing.T) {
	// Empty URLs are dropped (and counted) by Group, not by the decoder.
	got, _, err := history.DecodeRecords([]byte(`[{"id": 1, "img_url": ""}]`))
	if err != nil {
		t.Fatalf("DecodeRecords error: %v", err)
	}
	if len(got) != 1 || got[0].ImageURL != "" {
		t.Errorf("records = %+v, want one record with empty URL", got)
	}
}

func TestDecodeRecords_BodyErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"not json", `<html>oops</html>`, "decoding photo list"},
		{"object", `{"images": []}`, "decoding photo list"},
		{"proxy error", `{"error": "Service role key no configurada"}`, "Service role key no configurada"},
		{"proxy error details", `{"error": "Error al consultar Supabase", "details": "timeout"}`, "timeout"},
		{"empty", ``, "decoding photo list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := history.DecodeRecords([]byte(tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}
