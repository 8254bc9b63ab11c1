package notify

import (
	"bytes"
	"text/template"
)

var customerTmpl = template.Must(template.New("customer").Parse(`Hi {{.CustomerName}},

Thank you for your order {{.OrderNumber}}.
{{range .Items}}
  {{.Quantity}} x {{.Name}} @ {{printf "%.2f" .Price}}{{end}}

Order total: {{printf "%.2f" .Total}}

We will let you know when it ships.
`))

var staffTmpl = template.Must(template.New("staff").Parse(`New order {{.OrderNumber}} ({{.OrderID}})

Customer: {{.CustomerName}} <{{.CustomerEmail}}>
Total: {{printf "%.2f" .Total}}
{{range .Items}}
  {{.Quantity}} x {{.Name}}{{end}}
`))

func render(t *template.Template, c OrderConfirmation) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}
