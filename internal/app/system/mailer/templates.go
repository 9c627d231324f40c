// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// InviteEmailData holds data for the workspace invite email.
type InviteEmailData struct {
	SiteName   string
	Name       string
	Role       string
	InviteLink string
}

// BuildInviteEmail renders the invite email subject and HTML body.
func BuildInviteEmail(data InviteEmailData) (subject, htmlBody string) {
	subject = fmt.Sprintf("You have been invited to join %s as a %s", data.SiteName, data.Role)

	tmpl := template.Must(template.New("invite").Parse(inviteHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return subject, buf.String()
}

const inviteHTMLTemplate = `<p>Hi {{.Name}},</p>
<p>You have been invited to join <strong>{{.SiteName}}</strong> as a <strong>{{.Role}}</strong>.</p>
<p>Click the link below to accept your invite:</p>
<p><a href="{{.InviteLink}}">{{.InviteLink}}</a></p>
<p>If you did not expect this invite, you can safely ignore this email.</p>
`

// BroadcastEmailData holds data for the platform-wide owner broadcast.
type BroadcastEmailData struct {
	Subject  string
	Title    string
	Message  string
	CtaURL   string
	CtaLabel string
}

// BuildBroadcastEmail renders the broadcast subject and HTML body.
// Message line breaks become <br/> so plain text keeps its shape.
func BuildBroadcastEmail(data BroadcastEmailData) (subject, htmlBody string) {
	tmpl := template.Must(template.New("broadcast").Parse(broadcastHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, struct {
		Title    string
		Message  template.HTML
		CtaURL   string
		CtaLabel string
	}{
		Title:    data.Title,
		Message:  nlToBr(data.Message),
		CtaURL:   data.CtaURL,
		CtaLabel: data.CtaLabel,
	})
	return data.Subject, buf.String()
}

func nlToBr(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br/>"))
}

const broadcastHTMLTemplate = `<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
<p><a href="{{.CtaURL}}">{{.CtaLabel}}</a></p>
<p>You are receiving this email because you belong to a HiveFlow community.
If you weren't expecting it, you can safely ignore it.</p>
`
