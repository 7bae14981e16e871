package outreach

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"

	"jobhunterx-engine/internal/domain"
)

// SMTPSender delivers outreach email over plain SMTP with auth. The password
// is resolved per send so keychain rotation takes effect without a restart.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	From     string
	Password func() (string, error)
}

func (s *SMTPSender) Send(ctx context.Context, r domain.Recruiter, content string) (string, error) {
	if r.Email == "" {
		return "", fmt.Errorf("recruiter %s has no email address", r.ID)
	}
	pw, err := s.Password()
	if err != nil {
		return "", fmt.Errorf("smtp password: %w", err)
	}

	from := s.From
	if from == "" {
		from = s.Username
	}

	id := uuid.NewString()
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", r.Email)
	fmt.Fprintf(&b, "Subject: Opportunity at %s\r\n", r.Company)
	fmt.Fprintf(&b, "Message-ID: <%s@jobhunterx>\r\n", id)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(content)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.Username, pw, s.Host)
	if err := smtp.SendMail(addr, auth, from, []string{r.Email}, []byte(b.String())); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return id, nil
}
