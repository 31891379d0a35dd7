package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/validator"
)

// SaveAcceptancePDF renders acc into a PDF document: a summary
// section, the run's manifest, every validator finding, and a footer
// QR code of the primary output file's SHA-256 digest so a reviewer
// can scan the report straight through to the file it covers.
func SaveAcceptancePDF(acc Acceptance, out string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Generation Acceptance Report", false)
	pdf.SetAuthor("ch10gen", false)
	pdf.SetCreator("ch10gen", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "Generation Acceptance Report")
	addSummarySection(pdf, acc)
	addManifestSection(pdf, acc)
	addFindingsSection(pdf, acc.Report.Findings)
	addManifestQRFooter(pdf, acc)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

// addManifestQRFooter stamps a small QR code of the digest (upper-case
// hex) in the bottom-left corner of the current page, labelled
// "sha256:<digest>", skipped entirely when the run has no manifest to
// digest.
func addManifestQRFooter(pdf *gofpdf.Fpdf, acc Acceptance) {
	digest := ManifestSHA256(acc.Run)
	if digest == "" {
		return
	}
	png, err := ManifestHashToQR(digest, 256)
	if err != nil {
		return
	}
	const name = "manifest-qr"
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	size := 20.0
	y := pageH - bottom - size
	pdf.ImageOptions(name, 15, y, size, size, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(15+size+2, y+size/2-2)
	pdf.Cell(0, 4, "sha256:"+digest)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, acc Acceptance) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Run ID", value: acc.Run.ID},
		{label: "Packets Written", value: strconv.Itoa(acc.Run.PacketCount)},
		{label: "Messages Written", value: strconv.Itoa(acc.Run.MessageCount)},
		{label: "Total Findings", value: strconv.Itoa(acc.Report.Summary.Total)},
		{label: "Errors", value: strconv.Itoa(acc.Report.Summary.Errors)},
		{label: "Warnings", value: strconv.Itoa(acc.Report.Summary.Warnings)},
		{label: "Overall", value: passLabel(acc.Report.Summary.Pass)},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addManifestSection(pdf *gofpdf.Fpdf, acc Acceptance) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Manifest")
	pdf.Ln(9)

	if len(acc.Run.Manifest) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No output files recorded.", "", "L", false)
		pdf.Ln(4)
		return
	}

	headers := []string{"Path", "Size", "SHA-256"}
	widths := []float64{70, 24, 86}
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range acc.Run.Manifest {
		renderTableRow(pdf, widths, []string{item.Path, strconv.FormatInt(item.Size, 10), item.SHA256}, 5.0)
	}
	pdf.Ln(4)
}

func addFindingsSection(pdf *gofpdf.Fpdf, findings []validator.Diagnostic) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Findings")
	pdf.Ln(9)

	if len(findings) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No findings recorded.", "", "L", false)
		return
	}

	for i, d := range findings {
		pdf.SetFont("Helvetica", "B", 10)
		header := fmt.Sprintf("%d. %s (%s)", i+1, d.Code, severityLabel(d.Severity))
		pdf.MultiCell(0, 5, header, "", "L", false)

		if msg := strings.TrimSpace(d.Message); msg != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, msg, "", "L", false)
		}

		meta := findingMetadata(d)
		if meta != "" {
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 4, meta, "", "L", false)
		}

		pdf.Ln(2)
	}
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		cellText := strings.Join(lines, "\n")
		pdf.MultiCell(widths[i], lineHeight, cellText, "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func passLabel(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}

func severityLabel(sev validator.Severity) string {
	if s := strings.TrimSpace(string(sev)); s != "" {
		return s
	}
	return "UNKNOWN"
}

func findingMetadata(d validator.Diagnostic) string {
	parts := make([]string, 0, 2)
	if d.ChannelID != 0 {
		parts = append(parts, fmt.Sprintf("Channel 0x%03X", d.ChannelID))
	}
	parts = append(parts, fmt.Sprintf("Offset %d", d.Offset))
	return strings.Join(parts, " · ")
}
