package server

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
)

var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "head"}}<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}} - CostView</title></head><body>
<nav><a href="/">Home</a> | <a href="/profile">Profile</a> | <a href="/protected">Token</a> | <a href="/users">Users</a> | <a href="/dashboard">AWS Usage</a> | <a href="/logout">Sign out</a></nav>
<h1>{{.Title}}</h1>{{end}}

{{define "foot"}}</body></html>{{end}}

{{define "error"}}<p class="error">{{.}}</p>{{end}}
{{define "loadingBody"}}<p>Checking your session&hellip;</p>{{end}}

{{define "index"}}{{template "head" .}}
{{if .SessionErr}}{{template "error" .SessionErr}}{{end}}
{{if .Authenticated}}<p>Signed in as {{.Email}}.</p>
{{else}}<p><a href="/login">Sign in</a></p>{{end}}
{{template "foot" .}}{{end}}

{{define "loading"}}{{template "head" .}}
<meta http-equiv="refresh" content="1">
{{template "loadingBody" .}}
{{template "foot" .}}{{end}}

{{define "protected"}}{{template "head" .}}
{{if .Loading}}{{template "loadingBody" .}}
{{else if .Err}}{{template "error" .Err}}
{{else}}<ul>{{range $k, $v := .Claims}}<li><b>{{$k}}</b>: {{$v}}</li>{{end}}</ul>{{end}}
{{template "foot" .}}{{end}}

{{define "profile"}}{{template "head" .}}
{{if .Loading}}{{template "loadingBody" .}}
{{else if .Err}}{{template "error" .Err}}
{{else}}<p>{{.User.FullName}} &lt;{{.User.Email}}&gt;</p>
<p>Roles: {{range .User.Roles}}{{.Name}} {{end}}</p>{{end}}
{{template "foot" .}}{{end}}

{{define "users"}}{{template "head" .}}
{{if .EditorErr}}{{template "error" .EditorErr}}{{end}}
{{if .Loading}}{{template "loadingBody" .}}
{{else if .Err}}{{template "error" .Err}}
{{else}}<table><tr><th>Email</th><th>Name</th><th>Active</th><th>Role</th></tr>
{{range .Users}}<tr><td>{{.Email}}</td><td>{{.FullName}}</td><td>{{.IsActive}}</td>
<td><form method="post" action="/users/{{.ID}}/role">
<select name="role">
<option value="ROLE_BASIC_USER"{{if not .IsAdmin}} selected{{end}}>ROLE_BASIC_USER</option>
<option value="ROLE_ADMIN"{{if .IsAdmin}} selected{{end}}>ROLE_ADMIN</option>
</select><button type="submit">Save</button></form></td></tr>{{end}}
</table>{{end}}
{{template "foot" .}}{{end}}

{{define "dashboard"}}{{template "head" .}}
{{if .Loading}}{{template "loadingBody" .}}
{{else if .Err}}{{template "error" .Err}}
{{else}}<p>Total cost: ${{printf "%.2f" .Summary.TotalCost}}</p>
<h2>By service</h2><ul>{{range $svc, $cost := .Summary.CostByService}}<li>{{$svc}}: ${{printf "%.2f" $cost}}</li>{{end}}</ul>
<h2>Accounts</h2><ul>{{range .Summary.Accounts}}<li>{{.Name}} ({{.ID}}): ${{printf "%.2f" .Cost}}</li>{{end}}</ul>
<h2>Trend</h2><ul>{{range .Summary.CostTrend}}<li>{{.Start.Format "2006-01"}}: ${{printf "%.2f" .Cost}}</li>{{end}}</ul>{{end}}
{{template "foot" .}}{{end}}
`))

func renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render failed")
	}
}
