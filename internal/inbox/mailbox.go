package inbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/hyperjump/tenderlens/internal/models"
	"github.com/hyperjump/tenderlens/internal/reportid"
	"github.com/hyperjump/tenderlens/pkg/utils"
	"github.com/jhillyerd/enmime"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// SnippetLength is the number of body characters kept as a local message's snippet.
const SnippetLength = 200

// Mailbox reads messages from a local .mbox file or a directory of .eml files. The source is
// re-read on every call so new files show up without a restart.
type Mailbox struct {
	path   string
	logger *zap.Logger
	strip  *bluemonday.Policy
}

// NewMailbox returns a Mailbox over path.
func NewMailbox(path string, logger *zap.Logger) *Mailbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailbox{path: path, logger: logger, strip: bluemonday.StrictPolicy()}
}

type localMessage struct {
	email      *models.Email
	attachment *models.Attachment
}

// ListRecent returns up to max messages sorted newest first.
func (m *Mailbox) ListRecent(ctx context.Context, max int) ([]*models.Email, error) {
	msgs, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = DefaultMaxResults
	}
	if len(msgs) > max {
		msgs = msgs[:max]
	}
	emails := make([]*models.Email, len(msgs))
	for i, msg := range msgs {
		emails[i] = msg.email
	}
	return emails, nil
}

// Message returns the message with the given ID.
func (m *Mailbox) Message(ctx context.Context, id string) (*models.Email, error) {
	msg, err := m.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return msg.email, nil
}

// FirstAttachment returns the message's first named part, or nil when there is none.
func (m *Mailbox) FirstAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	msg, err := m.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return msg.attachment, nil
}

func (m *Mailbox) find(ctx context.Context, id string) (*localMessage, error) {
	msgs, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, msg := range msgs {
		if msg.email.ID == id {
			return msg, nil
		}
	}
	return nil, fmt.Errorf("mailbox: %s: %w", id, ErrNotFound)
}

func (m *Mailbox) load(ctx context.Context) ([]*localMessage, error) {
	info, err := os.Stat(m.path)
	if err != nil {
		return nil, fmt.Errorf("mailbox: %w", err)
	}
	var msgs []*localMessage
	if info.IsDir() {
		msgs, err = m.loadDir(ctx)
	} else {
		msgs, err = m.loadMbox(ctx)
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].email.Date.After(msgs[j].email.Date)
	})
	return msgs, nil
}

func (m *Mailbox) loadDir(ctx context.Context) ([]*localMessage, error) {
	entries, err := os.ReadDir(m.path)
	if err != nil {
		return nil, fmt.Errorf("mailbox: read dir: %w", err)
	}
	var msgs []*localMessage
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".eml") {
			continue
		}
		path := filepath.Join(m.path, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("mailbox: read %s: %w", entry.Name(), err)
		}
		msg, err := m.parse(data, entry.Name())
		if err != nil {
			m.logger.Warn("skipping unreadable message", zap.String("path", path), zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (m *Mailbox) loadMbox(ctx context.Context) ([]*localMessage, error) {
	f, err := os.Open(m.path)
	if err != nil {
		return nil, fmt.Errorf("mailbox: %w", err)
	}
	defer f.Close()

	reader := mbox.NewReader(f)
	var msgs []*localMessage
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mailbox: read mbox: %w", err)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("mailbox: read message %d: %w", i, err)
		}
		msg, err := m.parse(data, fmt.Sprintf("%s#%d", m.path, i))
		if err != nil {
			m.logger.Warn("skipping unreadable message", zap.Int("index", i), zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// parse builds a message from raw MIME. fallbackKey identifies messages without a Message-ID.
func (m *Mailbox) parse(data []byte, fallbackKey string) (*localMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse MIME: %w", err)
	}
	key := strings.TrimSpace(env.GetHeader("Message-ID"))
	if key == "" {
		key = fallbackKey
	}
	email := &models.Email{
		ID:      reportid.ForMessage(key),
		Subject: env.GetHeader("Subject"),
		Sender:  env.GetHeader("From"),
		Snippet: utils.Snippet(m.bodyText(env), SnippetLength),
	}
	if date, err := env.Date(); err == nil {
		email.Date = date.UTC()
	}
	msg := &localMessage{email: withDefaults(email)}
	if part := firstNamedPart(env); part != nil {
		msg.email.HasAttachment = true
		if len(part.Content) > 0 {
			msg.attachment = &models.Attachment{Filename: part.FileName, Data: part.Content}
		}
	}
	return msg, nil
}

func (m *Mailbox) bodyText(env *enmime.Envelope) string {
	if strings.TrimSpace(env.Text) != "" || env.HTML == "" {
		return env.Text
	}
	return html.UnescapeString(m.strip.Sanitize(env.HTML))
}

func firstNamedPart(env *enmime.Envelope) *enmime.Part {
	for _, group := range [][]*enmime.Part{env.Attachments, env.Inlines, env.OtherParts} {
		for _, p := range group {
			if p.FileName != "" {
				return p
			}
		}
	}
	return nil
}
