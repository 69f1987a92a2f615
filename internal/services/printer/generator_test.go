package printer

import (
	"bytes"
	"testing"
)

func sample(id string) ParcelLabel {
	return ParcelLabel{
		TrackingID:   id,
		ReceiverName: "Sita",
		Source:       "Hyderabad",
		Destination:  "Mancherial",
		Date:         "02/01/2026",
	}
}

func TestGenerateLabelsPDF(t *testing.T) {
	out, err := GenerateLabelsPDF(
		[]ParcelLabel{sample("HYD01-00001"), sample("HYD01-00002")},
		DefaultLayout("https://track.example", 6),
	)
	if err != nil {
		t.Fatalf("GenerateLabelsPDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output is not a PDF")
	}
}

func TestGenerateLabelsPDFRejects(t *testing.T) {
	tests := []struct {
		name   string
		labels []ParcelLabel
		cfg    LabelConfig
	}{
		{"no labels", nil, DefaultLayout("x", 1)},
		{"zero copies", []ParcelLabel{sample("A")}, DefaultLayout("x", 0)},
		{"too many copies", []ParcelLabel{sample("A")}, DefaultLayout("x", MaxCopies+1)},
		{"bad layout", []ParcelLabel{sample("A")}, LabelConfig{Copies: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GenerateLabelsPDF(tt.labels, tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTrackingURL(t *testing.T) {
	if got := TrackingURL("https://track.example", "HYD01-00001"); got != "https://track.example/HYD01-00001" {
		t.Errorf("got %q", got)
	}
}
