package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/fjod/printshop/internal/domain"
)

var confirmationHTML = htmltemplate.Must(htmltemplate.New("confirmation.html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Order Confirmation</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Thank you for your order!</h1>
    <p>Hi {{.FirstName}}, your order has been received and is being processed.</p>
    <h3>Order #{{.OrderID}}</h3>
    {{range .Items}}
    <div style="border-bottom: 1px solid #eee; padding: 10px 0;">
      <strong>{{.Name}}</strong><br>
      {{if .Size}}Size: {{.Size}}{{end}}{{if .Frame}} &bull; Frame: {{.Frame}}{{end}}<br>
      Quantity: {{.Quantity}} &bull; Price: {{.UnitPrice}} &bull; {{.LineTotal}}
    </div>
    {{end}}
    <table style="width: 100%; margin-top: 20px;">
      <tr><td>Subtotal</td><td align="right">{{.Subtotal}}</td></tr>
      <tr><td>Shipping</td><td align="right">{{.Shipping}}</td></tr>
      <tr><td>Tax</td><td align="right">{{.Tax}}</td></tr>
      <tr><td><strong>Total</strong></td><td align="right"><strong>{{.Total}}</strong></td></tr>
    </table>
    <h4>Shipping Address</h4>
    <p>
      {{.Address.Name}}<br>
      {{.Address.Line1}}<br>
      {{if .Address.Line2}}{{.Address.Line2}}<br>{{end}}
      {{.Address.City}}, {{.Address.Region}} {{.Address.PostalCode}}<br>
      {{.Address.CountryCode}}
    </p>
    {{if .Pending}}<p>Your prints will be sent to production shortly.</p>{{else}}<p>Your prints are on their way to production and usually ship within 3-5 business days.</p>{{end}}
  </div>
</body>
</html>
`))

var confirmationText = texttemplate.Must(texttemplate.New("confirmation.txt").Parse(`Hi {{.FirstName}},

Thank you for your order #{{.OrderID}}.
{{range .Items}}
- {{.Name}}{{if .Size}} ({{.Size}}{{if .Frame}}, {{.Frame}}{{end}}){{end}} x{{.Quantity}}: {{.LineTotal}}{{end}}

Subtotal: {{.Subtotal}}
Shipping: {{.Shipping}}
Tax:      {{.Tax}}
Total:    {{.Total}}

Ship to:
{{.Address.Name}}
{{.Address.Line1}}{{if .Address.Line2}}
{{.Address.Line2}}{{end}}
{{.Address.City}}, {{.Address.Region}} {{.Address.PostalCode}}
{{.Address.CountryCode}}
`))

func renderConfirmation(order *domain.Order) (html string, text string, err error) {
	view := newConfirmationView(order)

	var hb, tb bytes.Buffer
	if err := confirmationHTML.Execute(&hb, view); err != nil {
		return "", "", fmt.Errorf("render confirmation html: %w", err)
	}
	if err := confirmationText.Execute(&tb, view); err != nil {
		return "", "", fmt.Errorf("render confirmation text: %w", err)
	}
	return hb.String(), tb.String(), nil
}
