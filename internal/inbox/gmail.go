package inbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/tenderlens/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	gmailUser = "me"
	// DefaultGmailQuery lists inbox messages, excluding ones the user sent.
	DefaultGmailQuery = "in:inbox -in:sent"
)

// GmailCredentials is the opaque credential material for the Gmail API: the OAuth client
// secrets JSON downloaded from Google Cloud and an already authorized token.
type GmailCredentials struct {
	ClientJSON []byte
	TokenJSON  []byte
}

// Gmail reads messages through the Gmail API.
type Gmail struct {
	svc        *gmail.Service
	query      string
	maxResults int
	logger     *zap.Logger
}

// GmailOption configures a Gmail inbox.
type GmailOption func(*Gmail)

// WithQuery sets the search query used by ListRecent.
func WithQuery(q string) GmailOption {
	return func(g *Gmail) {
		if q != "" {
			g.query = q
		}
	}
}

// WithMaxResults sets the default listing size.
func WithMaxResults(n int) GmailOption {
	return func(g *Gmail) {
		if n > 0 {
			g.maxResults = n
		}
	}
}

// WithGmailLogger sets a logger for debug output.
func WithGmailLogger(l *zap.Logger) GmailOption {
	return func(g *Gmail) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGmail builds a read-only Gmail client from creds. The token refreshes in memory; nothing
// is written back to disk.
func NewGmail(ctx context.Context, creds GmailCredentials, opts ...GmailOption) (*Gmail, error) {
	conf, err := google.ConfigFromJSON(creds.ClientJSON, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("gmail: parse client credentials: %w", err)
	}
	tok, err := parseToken(creds.TokenJSON)
	if err != nil {
		return nil, err
	}
	return NewGmailWithClient(ctx, conf.Client(ctx, tok), opts...)
}

// NewGmailWithClient builds a Gmail inbox over an already authorized HTTP client.
func NewGmailWithClient(ctx context.Context, client *http.Client, opts ...GmailOption) (*Gmail, error) {
	return newGmail(ctx, []option.ClientOption{option.WithHTTPClient(client)}, opts...)
}

func newGmail(ctx context.Context, clientOpts []option.ClientOption, opts ...GmailOption) (*Gmail, error) {
	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gmail: create service: %w", err)
	}
	g := &Gmail{
		svc:        svc,
		query:      DefaultGmailQuery,
		maxResults: DefaultMaxResults,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// storedToken accepts both the golang.org/x/oauth2 token layout and the authorized-user layout
// written by Google's Python and Node client libraries.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	Token        string    `json:"token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

func parseToken(data []byte) (*oauth2.Token, error) {
	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("gmail: parse token: %w", err)
	}
	tok := &oauth2.Token{
		AccessToken:  orDefault(st.AccessToken, st.Token),
		TokenType:    orDefault(st.TokenType, "Bearer"),
		RefreshToken: st.RefreshToken,
		Expiry:       st.Expiry,
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("gmail: token has neither access nor refresh token")
	}
	return tok, nil
}

// ListRecent lists messages matching the configured query and fetches each one's metadata.
func (g *Gmail) ListRecent(ctx context.Context, max int) ([]*models.Email, error) {
	if max <= 0 {
		max = g.maxResults
	}
	resp, err := g.svc.Users.Messages.List(gmailUser).Q(g.query).MaxResults(int64(max)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail: list messages: %w", err)
	}
	emails := make([]*models.Email, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		email, err := g.Message(ctx, m.Id)
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	g.logger.Debug("listed gmail messages", zap.String("query", g.query), zap.Int("count", len(emails)))
	return emails, nil
}

// Message fetches one message's headers, snippet and attachment flag.
func (g *Gmail) Message(ctx context.Context, id string) (*models.Email, error) {
	msg, err := g.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return gmailEmail(msg), nil
}

// FirstAttachment downloads the first top-level part that has both a filename and an
// attachment ID. An empty download counts as no attachment.
func (g *Gmail) FirstAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	msg, err := g.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.Payload == nil {
		return nil, nil
	}
	for _, part := range msg.Payload.Parts {
		if part.Filename == "" || part.Body == nil || part.Body.AttachmentId == "" {
			continue
		}
		att, err := g.svc.Users.Messages.Attachments.Get(gmailUser, id, part.Body.AttachmentId).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("gmail: get attachment %s: %w", part.Filename, err)
		}
		data, err := decodeBase64URL(att.Data)
		if err != nil {
			return nil, fmt.Errorf("gmail: decode attachment %s: %w", part.Filename, err)
		}
		if len(data) == 0 {
			return nil, nil
		}
		g.logger.Debug("fetched gmail attachment",
			zap.String("message_id", id),
			zap.String("filename", part.Filename),
			zap.Int("bytes", len(data)),
		)
		return &models.Attachment{Filename: part.Filename, Data: data}, nil
	}
	return nil, nil
}

func (g *Gmail) get(ctx context.Context, id string) (*gmail.Message, error) {
	msg, err := g.svc.Users.Messages.Get(gmailUser, id).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("gmail: %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("gmail: get message %s: %w", id, err)
	}
	return msg, nil
}

func gmailEmail(msg *gmail.Message) *models.Email {
	e := &models.Email{
		ID: msg.Id,
		// Gmail snippets are HTML-escaped.
		Snippet: html.UnescapeString(msg.Snippet),
	}
	if msg.InternalDate > 0 {
		e.Date = time.UnixMilli(msg.InternalDate).UTC()
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				e.Subject = h.Value
			case "From":
				e.Sender = h.Value
			}
		}
		for _, part := range msg.Payload.Parts {
			if part.Filename != "" {
				e.HasAttachment = true
				break
			}
		}
	}
	return withDefaults(e)
}

// decodeBase64URL decodes URL-safe base64 with or without padding.
func decodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
