package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"inboxia/internal/models"
)

// RawMessage is one fetched message body with its IMAP UID
type RawMessage struct {
	UID uint32
	Raw []byte
}

// MailSource lists folders and fetches message bodies above a UID
// watermark. One source serves one connected account.
type MailSource interface {
	Folders(ctx context.Context) ([]string, error)
	FetchSince(ctx context.Context, folder string, lastUID uint32) ([]RawMessage, error)
	Close() error
}

// SourceDialer opens a MailSource for an account. Injected so the sync
// logic can be tested without a live server.
type SourceDialer func(account *models.MailAccount) (MailSource, error)

// imapSource is the production MailSource over go-imap
type imapSource struct {
	client *imapclient.Client
}

// DialIMAP connects and authenticates against the account's IMAP server.
// Hosts without an explicit port default to 993 with TLS; other ports use
// STARTTLS.
func DialIMAP(account *models.MailAccount) (MailSource, error) {
	addr := account.IMAPHost
	var client *imapclient.Client
	var err error

	if !strings.Contains(addr, ":") {
		addr += ":993"
	}
	if strings.HasSuffix(addr, ":993") {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP %s: %w", addr, err)
	}

	if err := client.Login(account.IMAPUser, account.IMAPPassword).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("IMAP authentication failed for %s: %w", account.IMAPUser, err)
	}

	return &imapSource{client: client}, nil
}

func (s *imapSource) Folders(_ context.Context) ([]string, error) {
	mailboxes, err := s.client.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}

	names := make([]string, 0, len(mailboxes))
	for _, mbox := range mailboxes {
		names = append(names, mbox.Mailbox)
	}
	return names, nil
}

// FetchSince returns full bodies for every message with UID > lastUID in
// the folder, in UID order.
func (s *imapSource) FetchSince(_ context.Context, folder string, lastUID uint32) ([]RawMessage, error) {
	if _, err := s.client.Select(folder, nil).Wait(); err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", folder, err)
	}

	criteria := &imap.SearchCriteria{
		UID: []imap.UIDSet{{imap.UIDRange{Start: imap.UID(lastUID + 1), Stop: 0}}},
	}
	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", folder, err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	var out []RawMessage
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			continue
		}
		raw := buf.FindBodySection(bodySection)
		if raw == nil {
			continue
		}
		out = append(out, RawMessage{UID: uint32(buf.UID), Raw: raw})
	}

	if err := fetchCmd.Close(); err != nil {
		return out, fmt.Errorf("failed to fetch from %s: %w", folder, err)
	}
	return out, nil
}

func (s *imapSource) Close() error {
	return s.client.Logout().Wait()
}
