package preview

import (
	"bytes"
	"html/template"
)

// billHTMLTmpl renders the printable bill. Fields are escaped by html/template;
// the print media query hides everything marked .no-print.
var billHTMLTmpl = template.Must(template.New("bill").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.InvoiceNumber}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; color: #222; }
    .bill { max-width: 560px; margin: 0 auto; }
    .center { text-align: center; }
    .muted { color: #666; font-size: 13px; margin: 2px 0; }
    .grid { display: flex; justify-content: space-between; font-size: 13px; }
    .right { text-align: right; }
    table { width: 100%; border-collapse: collapse; margin-top: 12px; font-size: 13px; }
    th, td { border-bottom: 1px solid #ddd; padding: 6px; }
    .total { display: flex; justify-content: space-between; font-weight: bold; font-size: 17px; margin: 16px 0; }
    .footer { border-top: 1px solid #ddd; padding-top: 8px; }
    @media print {
      .no-print { display: none !important; }
      body { margin: 0; }
    }
  </style>
</head>
<body>
  <div class="no-print"><button onclick="window.print()">Print</button></div>
  <div class="bill" id="bill-preview">
    <div class="center">
      <h1>{{.ShopName}}</h1>
      {{range .AddressLines}}<p class="muted">{{.}}</p>{{end}}
      {{if .ShopPhone}}<p class="muted">Ph: {{.ShopPhone}}</p>{{end}}
    </div>
    <hr />
    <div class="grid">
      <div><strong>Invoice No:</strong><p class="muted">{{.InvoiceNumber}}</p></div>
      <div class="right"><strong>Date &amp; Time:</strong><p class="muted">{{.Date}}</p><p class="muted">{{.Time}}</p></div>
    </div>
    <p><strong>Customer Name: </strong>{{.CustomerName}}</p>
    <p><strong>Mobile Number: </strong>{{.CustomerPhone}}</p>
    <p><strong>Payment Mode: </strong>{{.PaymentMode}}</p>
    <table>
      <thead><tr><th style="text-align:left;">Sr.</th><th style="text-align:left;">Item</th><th style="text-align:right;">Price ({{.Currency}})</th></tr></thead>
      <tbody>
      {{- range .Rows}}
        <tr><td>{{.Serial}}</td><td>{{.Item}}</td><td style="text-align:right;">{{$.Currency}}{{.Price}}</td></tr>
      {{- else}}
        <tr><td colspan="3" class="center muted">{{.EmptyMessage}}</td></tr>
      {{- end}}
      </tbody>
    </table>
    <div class="total"><span>Total Amount:</span><span>{{.Currency}}{{.Total}}</span></div>
    <div class="center muted footer">{{range .FooterLines}}<p>{{.}}</p>{{end}}</div>
  </div>
</body>
</html>
`))

func HTML(p Preview) ([]byte, error) {
	var buf bytes.Buffer
	if err := billHTMLTmpl.Execute(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
