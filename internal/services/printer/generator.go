// Package printer renders parcel QR label sheets as PDF.
package printer

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"
)

// MaxCopies bounds the labels printed per parcel in one sheet
const MaxCopies = 100

// ParcelLabel is what gets printed on each sticker of one parcel
type ParcelLabel struct {
	TrackingID    string
	ReceiverName  string
	ReceiverPhone string
	Source        string
	Destination   string
	Date          string
}

// LabelConfig holds the sheet layout. BaseURL is the public tracking page the QR code points at.
type LabelConfig struct {
	BaseURL    string  `json:"baseUrl"`
	Copies     int     `json:"copies"`
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultLayout is a 2x5 grid of stickers on A4
func DefaultLayout(baseURL string, copies int) LabelConfig {
	return LabelConfig{
		BaseURL:    baseURL,
		Copies:     copies,
		Cols:       2,
		Rows:       5,
		MarginTop:  10,
		MarginLeft: 10,
		GapX:       4,
		GapY:       4,
	}
}

// TrackingURL is the content of a parcel's QR code
func TrackingURL(baseURL, trackingID string) string {
	return fmt.Sprintf("%s/%s", baseURL, trackingID)
}

// encodeAll renders one QR image per parcel concurrently
func encodeAll(baseURL string, labels []ParcelLabel) ([][]byte, error) {
	images := make([][]byte, len(labels))
	var g errgroup.Group
	g.SetLimit(4)
	for i, l := range labels {
		g.Go(func() error {
			png, err := qrcode.Encode(TrackingURL(baseURL, l.TrackingID), qrcode.Medium, 256)
			if err != nil {
				return fmt.Errorf("qr for %s: %w", l.TrackingID, err)
			}
			images[i] = png
			return nil
		})
	}
	return images, g.Wait()
}

// GenerateLabelsPDF creates a PDF with cfg.Copies stickers for every parcel in labels
func GenerateLabelsPDF(labels []ParcelLabel, cfg LabelConfig) ([]byte, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels to print")
	}
	if cfg.Copies < 1 || cfg.Copies > MaxCopies {
		return nil, fmt.Errorf("copies must be between 1 and %d", MaxCopies)
	}
	if cfg.Cols < 1 || cfg.Rows < 1 {
		return nil, fmt.Errorf("invalid layout %dx%d", cfg.Cols, cfg.Rows)
	}

	images, err := encodeAll(cfg.BaseURL, labels)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY
	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)
	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}

	for i := range labels {
		imgName := fmt.Sprintf("qr_%d", i)
		pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(images[i]))
	}

	slot := 0
	for i, l := range labels {
		imgName := fmt.Sprintf("qr_%d", i)
		for c := 0; c < cfg.Copies; c++ {
			if slot%labelsPerPage == 0 {
				pdf.AddPage()
			}
			indexOnPage := slot % labelsPerPage
			x := cfg.MarginLeft + float64(indexOnPage%cfg.Cols)*(labelW+cfg.GapX)
			y := cfg.MarginTop + float64(indexOnPage/cfg.Cols)*(labelH+cfg.GapY)
			slot++

			pdf.Rect(x, y, labelW, labelH, "D")

			// QR on the left, text block on the right
			qrSize := labelH * 0.8
			if qrSize > labelW/2 {
				qrSize = labelW / 2
			}
			pdf.ImageOptions(imgName, x+2, y+(labelH-qrSize)/2, qrSize, qrSize, false, imgOptions, 0, "")

			textX := x + qrSize + 4
			textW := labelW - qrSize - 6
			pdf.SetXY(textX, y+4)
			pdf.SetFontSize(11)
			pdf.CellFormat(textW, 6, l.TrackingID, "", 2, "L", false, 0, "")
			pdf.SetFontSize(8)
			for _, line := range []string{
				l.ReceiverName,
				l.ReceiverPhone,
				l.Source + " -> " + l.Destination,
				l.Date,
			} {
				pdf.SetX(textX)
				pdf.CellFormat(textW, 5, line, "", 2, "L", false, 0, "")
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
