package sharing

import (
	"fmt"
	"strings"

	"docsign/internal/domain/documents"
	"docsign/internal/ports/mailer"

	"golang.org/x/net/html"
)

func senderName(by Sharer) string {
	if n := strings.TrimSpace(by.Name); n != "" {
		return n
	}
	if e := strings.TrimSpace(by.Email); e != "" {
		return e
	}
	return "a DocSign user"
}

func shareEmail(d documents.Document, by Sharer, g documents.Grant, link, message string) mailer.Message {
	from := senderName(by)
	message = strings.TrimSpace(message)

	action := "view"
	if g.Permission == documents.PermissionEdit {
		action = "review and sign"
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s has invited you to %s the document \"%s\".\n\n", from, action, d.FileName)
	if message != "" {
		fmt.Fprintf(&text, "Message: %s\n\n", message)
	}
	fmt.Fprintf(&text, "Open the document: %s\n", link)

	var body strings.Builder
	fmt.Fprintf(&body, "<p><strong>%s</strong> has invited you to %s the document <em>%s</em>.</p>",
		html.EscapeString(from), action, html.EscapeString(d.FileName))
	if message != "" {
		fmt.Fprintf(&body, "<blockquote>%s</blockquote>", html.EscapeString(message))
	}
	fmt.Fprintf(&body, `<p><a href="%s">Open document</a></p>`, html.EscapeString(link))

	return mailer.Message{
		To:      g.Email,
		Subject: "Document Signature Request from " + from,
		Text:    text.String(),
		HTML:    body.String(),
	}
}
