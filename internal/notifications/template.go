package notifications

import "html/template"

var statusEmail = template.Must(template.New("order_status").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Order Update</title></head>
<body style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:20px">
  <div style="background:linear-gradient(135deg,#667eea,#764ba2);color:white;padding:20px;border-radius:12px;margin-bottom:20px">
    <h1 style="margin:0">{{.StoreName}}</h1>
    <p style="margin:8px 0 0 0;opacity:0.9">Order status update</p>
  </div>
  <p>Hi {{.CustomerName}},</p>
  <p>Your order <strong>#{{.ShortID}}</strong> status has been updated to: <strong>{{.StatusLabel}}</strong>.</p>
  <h3>Order details</h3>
  <table style="width:100%;border-collapse:collapse">
    <thead>
      <tr style="background:#f5f5f5">
        <th style="padding:8px;border:1px solid #eee;text-align:left">Product</th>
        <th style="padding:8px;border:1px solid #eee">Qty</th>
        <th style="padding:8px;border:1px solid #eee">Price</th>
        <th style="padding:8px;border:1px solid #eee;text-align:left">Custom input</th>
      </tr>
    </thead>
    <tbody>
    {{- range .Items}}
      <tr>
        <td style="padding:8px;border:1px solid #eee">{{.Name}}</td>
        <td style="padding:8px;border:1px solid #eee">{{.Quantity}}</td>
        <td style="padding:8px;border:1px solid #eee">₹{{.Price}}</td>
        <td style="padding:8px;border:1px solid #eee">{{.CustomInput}}</td>
      </tr>
    {{- end}}
    </tbody>
  </table>
  <p style="margin-top:16px"><strong>Total: ₹{{.Total}}</strong></p>
  <p style="margin-top:16px"><strong>Shipping address:</strong><br/>
  {{- range $i, $line := .AddressLines}}{{if $i}}<br/>{{end}}{{$line}}{{end}}</p>
  <p style="margin-top:24px;color:#666;font-size:14px">Thank you for shopping with us.</p>
</body>
</html>
`))

type emailItem struct {
	Name        string
	Quantity    int
	Price       string
	CustomInput string
}

type emailData struct {
	StoreName    string
	CustomerName string
	ShortID      string
	StatusLabel  string
	Items        []emailItem
	Total        string
	AddressLines []string
}
