package feedback

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/commentguard/commentguard/internal/models"
)

var htmlTemplate = template.Must(template.New("feedback").Funcs(template.FuncMap{
	"join": func(terms []string) string { return strings.Join(terms, ", ") },
}).Parse(
	`<div class="commentguard-feedback" data-kind="{{.Kind}}">` +
		`<p class="commentguard-message">{{.Message}}</p>` +
		`{{if .Reasoning}}<p class="commentguard-reasoning">{{.Reasoning}}</p>{{end}}` +
		`{{if .Terms}}<p class="commentguard-terms">Detected terms: {{join .Terms}}</p>{{end}}` +
		`{{if .Items}}<ul class="commentguard-items">{{range .Items}}<li>` +
		`{{if .Label}}<strong>{{.Label}}</strong>: {{end}}<q>{{.Quote}}</q>` +
		`{{if .Explanation}}<br>{{.Explanation}}{{end}}` +
		`{{if .Suggestion}}<br><em>try: {{.Suggestion}}</em>{{end}}` +
		`</li>{{end}}</ul>{{end}}` +
		`</div>`,
))

// HTML renders feedback as an HTML fragment with every provider string escaped
func HTML(fb models.Feedback) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, fb); err != nil {
		return "", err
	}
	return buf.String(), nil
}
