package models

import (
	"testing"
)

func TestDetectionRelevanceRatio(t *testing.T) {
	tests := []struct {
		name      string
		docs      []DocumentRelevancy
		wantRatio float64
		wantOK    bool
	}{
		{
			name:      "no documents",
			docs:      nil,
			wantRatio: 0,
			wantOK:    false,
		},
		{
			name: "all relevant",
			docs: []DocumentRelevancy{
				{Content: "a", IsRelevant: true},
				{Content: "b", IsRelevant: true},
			},
			wantRatio: 1.0,
			wantOK:    true,
		},
		{
			name: "half relevant",
			docs: []DocumentRelevancy{
				{Content: "a", IsRelevant: true},
				{Content: "b", IsRelevant: false},
				{Content: "c", IsRelevant: true},
				{Content: "d", IsRelevant: false},
			},
			wantRatio: 0.5,
			wantOK:    true,
		},
		{
			name: "none relevant",
			docs: []DocumentRelevancy{
				{Content: "a", IsRelevant: false},
			},
			wantRatio: 0,
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Detection{Documents: tt.docs}
			ratio, ok := d.RelevanceRatio()
			if ok != tt.wantOK {
				t.Errorf("RelevanceRatio() ok = %v, want %v", ok, tt.wantOK)
			}
			if ratio != tt.wantRatio {
				t.Errorf("RelevanceRatio() = %v, want %v", ratio, tt.wantRatio)
			}
		})
	}
}

func TestDetectionStatusTerminal(t *testing.T) {
	if DetectionStatusPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	if DetectionStatusRunning.Terminal() {
		t.Error("running should not be terminal")
	}
	if !DetectionStatusCompleted.Terminal() {
		t.Error("completed should be terminal")
	}
}

func TestDedupeDocumentsByURL(t *testing.T) {
	docs := []Document{
		{ID: "doc_1", URL: "https://example.com/a"},
		{ID: "doc_2", URL: "https://example.com/b"},
		{ID: "doc_3", URL: "https://example.com/a"},
		{ID: "doc_4", URL: NoURL},
		{ID: "doc_5", URL: NoURL},
	}

	out := DedupeDocumentsByURL(docs)

	if len(out) != 4 {
		t.Fatalf("expected 4 documents after dedupe, got %d", len(out))
	}
	if out[0].ID != "doc_1" || out[1].ID != "doc_2" {
		t.Error("dedupe should preserve order")
	}
	// Sentinel URLs are never merged
	if out[2].ID != "doc_4" || out[3].ID != "doc_5" {
		t.Errorf("sentinel URL documents should all survive, got %v", out)
	}
}

func TestLogRecordNeedsPoll(t *testing.T) {
	tests := []struct {
		name   string
		record LogRecord
		want   bool
	}{
		{"submitted", LogRecord{LogID: "log-1", Status: RecordStatusSubmitted}, true},
		{"timed out earlier", LogRecord{LogID: "log-1", Status: RecordStatusTimeout}, true},
		{"completed", LogRecord{LogID: "log-1", Status: RecordStatusCompleted}, false},
		{"never submitted", LogRecord{Status: RecordStatusFailed}, false},
		{"pending without log id", LogRecord{Status: RecordStatusPending}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.NeedsPoll(); got != tt.want {
				t.Errorf("NeedsPoll() = %v, want %v", got, tt.want)
			}
		})
	}
}
