package notify

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"

	"storefront/internal/usecase"
)

var orderConfirmationTmpl = template.Must(template.New("order").Funcs(template.FuncMap{
	"money":     formatMoney,
	"lineTotal": func(it usecase.OrderNoticeItem) int64 { return it.Price * it.Quantity },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="font-size: 22px;">Thank you for your order, {{.CustomerName}}</h1>
	<p>Order number: <strong style="font-family: monospace;">{{.OrderID}}</strong></p>
	<p>Your order will be ready for pickup at the store. Payment is in cash at pickup.</p>
	<table style="width: 100%; border-collapse: collapse;">
		<thead>
			<tr>
				<th style="text-align: left;">Item</th>
				<th>Size</th>
				<th>Qty</th>
				<th style="text-align: right;">Price</th>
				<th style="text-align: right;">Subtotal</th>
			</tr>
		</thead>
		<tbody>
		{{- range .Items}}
			<tr>
				<td>{{.Name}}</td>
				<td style="text-align: center;">{{.Size}}</td>
				<td style="text-align: center;">{{.Quantity}}</td>
				<td style="text-align: right;">{{money .Price}}</td>
				<td style="text-align: right;">{{money (lineTotal .)}}</td>
			</tr>
		{{- end}}
		</tbody>
	</table>
	<p style="text-align: right; font-size: 18px;">Total: <strong>{{money .TotalPrice}}</strong></p>
</body>
</html>`))

func renderOrderConfirmation(n usecase.OrderNotice) ([]byte, error) {
	var buf bytes.Buffer
	if err := orderConfirmationTmpl.Execute(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// 3桁区切り
func formatMoney(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 && !(neg && b.Len() == 1) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
