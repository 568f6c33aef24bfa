package agreements

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
)

// RenderPDF lays the agreement out on a single A4 page.
func RenderPDF(a Agreement, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 48)
	pdf.SetTextColor(235, 235, 235)
	pdf.Text(50, 140, strings.ToUpper(string(a.Status)))

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BMS Rental Agreement")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Agreement: "+a.ID.Hex())
	pdf.Ln(5)
	pdf.Cell(0, 6, "Requested: "+a.CreatedAt.UTC().Format("2006-01-02"))
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)

	rows := [][2]string{
		{"Tenant", tenant(a)},
		{"Apartment", orDash(a.ApartID)},
		{"Floor", strconv.Itoa(a.Floor)},
		{"Flat", orDash(a.FlatNo)},
		{"Monthly rent", withCommas(a.Rent)},
		{"Status", string(a.Status)},
	}
	if a.DecidedAt != nil {
		rows = append(rows, [2]string{"Decided", a.DecidedAt.UTC().Format("2006-01-02")})
	}
	for _, r := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 10, r[0], "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 10, r[1], "1", 1, "L", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated by BMS "+generatedAt.UTC().Format(time.RFC3339), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render agreement pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func tenant(a Agreement) string {
	if a.UserName == "" {
		return a.UserEmail
	}
	return a.UserName + " <" + a.UserEmail + ">"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func withCommas(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	str := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i := range str {
		b.WriteByte(str[i])
		rem := len(str) - i - 1
		if rem > 0 && rem%3 == 0 {
			b.WriteByte(',')
		}
	}
	return sign + b.String()
}
