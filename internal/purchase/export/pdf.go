package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/odyssey-erp/purchase-insights/internal/purchase"
)

// ReportPayload is a rendered dataset destined for PDF conversion.
type ReportPayload struct {
	Title        string
	Slot         purchase.Slot
	CompanyCodes string
	Records      []purchase.Record
	// Chart is the inline SVG of the dataset; empty datasets carry none.
	Chart       template.HTML
	GeneratedAt time.Time
}

// PDFExporter wraps Gotenberg interactions for report exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderReport sends the report page to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) RenderReport(ctx context.Context, payload ReportPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	page, err := BuildHTML(payload)
	if err != nil {
		return nil, err
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(page); err != nil {
		return nil, err
	}
	if err := writer.WriteField("landscape", "true"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}
	return io.ReadAll(resp.Body)
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}p.meta{color:#555;}table{width:100%;border-collapse:collapse;margin-top:16px;}th,td{border:1px solid #ddd;padding:6px;}th{background:#f5f5f5;text-align:left;}td.num{text-align:right;}</style>
</head><body>
<h1>{{.Title}}</h1>
<p class="meta">{{if .CompanyCodes}}Company Code: {{.CompanyCodes}} · {{end}}Generated {{.GeneratedAt}}</p>
{{if .Chart}}<figure>{{.Chart}}</figure>{{end}}
{{if .Rows}}<table><thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead><tbody>
{{range .Rows}}<tr>{{range .}}<td{{if .Measure}} class="num"{{end}}>{{.Text}}</td>{{end}}</tr>
{{end}}</tbody></table>{{else}}<p>There are no data available!</p>{{end}}
</body></html>`))

type htmlCell struct {
	Text    string
	Measure bool
}

// BuildHTML renders the page converted by Gotenberg.
func BuildHTML(payload ReportPayload) ([]byte, error) {
	cols, err := Columns(payload.Slot)
	if err != nil {
		return nil, err
	}
	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.Header
	}
	rows := make([][]htmlCell, 0, len(payload.Records))
	for _, r := range payload.Records {
		row := make([]htmlCell, len(cols))
		for i, col := range cols {
			if col.Measure {
				row[i] = htmlCell{Text: FormatCrore(purchase.Decimal(col.Value(r))), Measure: true}
				continue
			}
			row[i] = htmlCell{Text: col.Value(r)}
		}
		rows = append(rows, row)
	}
	generated := payload.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	var buf bytes.Buffer
	err = reportTemplate.Execute(&buf, map[string]any{
		"Title":        payload.Title,
		"CompanyCodes": payload.CompanyCodes,
		"GeneratedAt":  generated.UTC().Format("02 Jan 2006 15:04 MST"),
		"Chart":        payload.Chart,
		"Headers":      headers,
		"Rows":         rows,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
