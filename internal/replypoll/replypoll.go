// Package replypoll sweeps an IMAP mailbox for recruiter replies and stamps
// replied_at on the newest sent outreach message from that recruiter. The
// follow-up sweep relies on that stamp to stop chasing people who answered.
package replypoll

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"jobhunterx-engine/internal/events"
	"jobhunterx-engine/internal/store"
)

type Poller struct {
	DB       *sql.DB
	Host     string
	Port     int
	Username string
	Mailbox  string
	// Password resolves the IMAP password at sweep time so a rotated
	// keychain entry takes effect without a restart.
	Password func() (string, error)
	Hub      *events.Hub // optional

	// Lookback bounds the server-side search. Zero means 7 days.
	Lookback time.Duration
	// MaxMessages caps one sweep. Zero means 50.
	MaxMessages int
}

// Sweep connects, scans unseen mail and records replies. Unknown senders are
// skipped silently.
func (p *Poller) Sweep(ctx context.Context) error {
	pw, err := p.Password()
	if err != nil {
		return fmt.Errorf("imap password: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", p.Host, p.Port)
	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: p.Host},
	})
	if err != nil {
		return fmt.Errorf("imap dial: %w", err)
	}
	defer c.Close()

	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(p.Username, pw).Wait(); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}

	mailbox := p.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return fmt.Errorf("imap select %s: %w", mailbox, err)
	}

	lookback := p.Lookback
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	searchData, err := c.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().Add(-lookback),
	}, nil).Wait()
	if err != nil {
		return fmt.Errorf("imap search: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil
	}
	max := p.MaxMessages
	if max <= 0 {
		max = 50
	}
	if len(uids) > max {
		uids = uids[len(uids)-max:]
	}

	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
	})
	defer func() { _ = fetchCmd.Close() }()

	for {
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return fmt.Errorf("imap fetch: %w", err)
		}
		if buf.Envelope == nil || len(buf.Envelope.From) == 0 {
			continue
		}
		from := strings.ToLower(strings.TrimSpace(buf.Envelope.From[0].Addr()))
		at := buf.InternalDate
		if at.IsZero() {
			at = buf.Envelope.Date
		}
		if at.IsZero() {
			at = time.Now().UTC()
		}
		if err := p.recordReply(ctx, from, at.UTC()); err != nil {
			log.Printf("[replypoll] %s: %v", from, err)
		}
	}
	return nil
}

func (p *Poller) recordReply(ctx context.Context, fromAddr string, at time.Time) error {
	rec, err := store.GetRecruiterByEmail(ctx, p.DB, fromAddr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	msg, err := store.LatestSentToRecruiter(ctx, p.DB, rec.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := store.MarkMessageReplied(ctx, p.DB, msg.ID, at); err != nil {
		return err
	}
	log.Printf("[replypoll] reply from %s recorded on message %s", fromAddr, msg.ID)
	if p.Hub != nil {
		p.Hub.Publish(events.MakeEvent("", events.TypeOutreachReplied, 1, map[string]string{
			"message_id":   msg.ID,
			"recruiter_id": rec.ID,
		}))
	}
	return nil
}
