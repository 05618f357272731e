// Package notify dispatches paper notifications over email.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/ktmits/paperwatch/app/paper"
)

// Notifier dispatches a notification for a single paper.
type Notifier interface {
	Send(ctx context.Context, p paper.Paper) error
}

// EmailNotifier sends one email per paper over SMTP.
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func NewEmailNotifier(host string, port int, username, password, from, to string) *EmailNotifier {
	return &EmailNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		to:     to,
	}
}

// Send delivers the notification email. A nil error means the message was
// accepted by the SMTP server.
func (n *EmailNotifier) Send(ctx context.Context, p paper.Paper) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", n.to)
	msg.SetHeader("Subject", Subject(p))
	msg.SetBody("text/plain", Body(p))

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Debug("Email sent", "title", p.Title, "to", n.to)
	return nil
}

// Subject builds the email subject line, like "[arxiv/hep-th] Some title".
func Subject(p paper.Paper) string {
	symbol := p.SourceSymbol
	if symbol == "" {
		symbol = p.Source
	}
	return fmt.Sprintf("[%s] %s", symbol, p.Title)
}

// Body renders the plain-text notification body.
func Body(p paper.Paper) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", p.Title)
	fmt.Fprintf(&b, "Citation: %s\n", CitationLabel(p))
	fmt.Fprintf(&b, "Source: %s\n", p.Source)
	fmt.Fprintf(&b, "URL: %s\n", p.URL)
	if p.PDFURL != "" {
		fmt.Fprintf(&b, "PDF: %s\n", p.PDFURL)
	}
	if !p.Published.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", p.Published.Format("2006-01-02 15:04"))
	}

	if len(p.Authors) > 0 {
		b.WriteString("\nAuthors:\n")
		for _, author := range p.Authors {
			if author.Metrics != nil {
				fmt.Fprintf(&b, "  %s (h-index %d, %d citations, %d papers)\n",
					author.FullName, author.Metrics.HIndex,
					author.Metrics.CitationCount, author.Metrics.PaperCount)
			} else {
				fmt.Fprintf(&b, "  %s\n", author.FullName)
			}
		}
	}

	if len(p.MatchedKeywords) > 0 {
		fmt.Fprintf(&b, "\nKeywords: %s\n", strings.Join(p.MatchedKeywords, ", "))
	}

	if p.Abstract != "" {
		fmt.Fprintf(&b, "\nAbstract:\n%s\n", p.Abstract)
	}

	return b.String()
}

// CitationLabel builds a short reference label for a paper. Papers with more
// than three authors get "Last+YY_Title"; otherwise the last names are joined
// with hyphens. Spaces are stripped from the title.
func CitationLabel(p paper.Paper) string {
	title := strings.ReplaceAll(p.Title, " ", "")

	if len(p.Authors) == 0 {
		return title
	}

	if len(p.Authors) > 3 {
		yy := ""
		if !p.Published.IsZero() {
			yy = p.Published.Format("06")
		}
		return fmt.Sprintf("%s+%s_%s", p.Authors[0].LastName, yy, title)
	}

	lastNames := make([]string, len(p.Authors))
	for i, author := range p.Authors {
		lastNames[i] = author.LastName
	}
	return strings.Join(lastNames, "-") + "_" + title
}
