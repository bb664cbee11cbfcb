// Package inbox lists recent messages and fetches their first attachment, from Gmail or from a
// local mailbox.
package inbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/tenderlens/internal/config"
	"github.com/hyperjump/tenderlens/internal/models"
	"go.uber.org/zap"
)

// DefaultMaxResults is the number of messages listed when the caller passes max <= 0.
const DefaultMaxResults = 50

// ErrNotFound is returned when a message ID does not exist.
var ErrNotFound = errors.New("message not found")

// Inbox is the source of emails and attachments.
type Inbox interface {
	// ListRecent returns up to max recent messages, newest first.
	ListRecent(ctx context.Context, max int) ([]*models.Email, error)
	// Message returns one message by ID.
	Message(ctx context.Context, id string) (*models.Email, error)
	// FirstAttachment returns the first part of the message that has a filename, or nil, nil
	// when the message has none.
	FirstAttachment(ctx context.Context, id string) (*models.Attachment, error)
}

type options struct {
	logger *zap.Logger
}

// Option configures an Inbox built by New.
type Option func(*options)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns the Inbox selected by cfg.Provider.
func New(ctx context.Context, cfg config.InboxConfig, opts ...Option) (Inbox, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	switch cfg.Provider {
	case config.InboxGmail, "":
		clientJSON, tokenJSON, err := cfg.GmailCredentials()
		if err != nil {
			return nil, err
		}
		return NewGmail(ctx, GmailCredentials{ClientJSON: clientJSON, TokenJSON: tokenJSON},
			WithQuery(cfg.Query), WithMaxResults(cfg.MaxResults), WithGmailLogger(o.logger))
	case config.InboxMailbox:
		if cfg.MailboxPath == "" {
			return nil, fmt.Errorf("inbox: mailbox_path is required for the mailbox provider")
		}
		return NewMailbox(cfg.MailboxPath, o.logger), nil
	default:
		return nil, fmt.Errorf("inbox: unknown provider %q", cfg.Provider)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func withDefaults(e *models.Email) *models.Email {
	e.Subject = orDefault(e.Subject, models.NoSubject)
	e.Sender = orDefault(e.Sender, models.UnknownSender)
	return e
}
