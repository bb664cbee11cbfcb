package inbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

func fakeGmail(t *testing.T) (*Gmail, *string) {
	t.Helper()
	var lastQuery string
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		lastQuery = r.URL.Query().Get("q") + "|" + r.URL.Query().Get("maxResults")
		writeJSON(w, map[string]any{"messages": []map[string]string{{"id": "m1"}, {"id": "m2"}}})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/gmail/v1/users/me/messages/")
		switch rest {
		case "m1":
			writeJSON(w, map[string]any{
				"id":           "m1",
				"snippet":      "Bid &amp; EMD details",
				"internalDate": "1715076000000",
				"payload": map[string]any{
					"headers": []map[string]string{{"name": "Subject", "value": "RFP"}, {"name": "From", "value": "cell@gov.example"}},
					"parts": []map[string]any{
						{"partId": "0", "mimeType": "text/plain", "filename": "", "body": map[string]any{"size": 4}},
						{"partId": "1", "mimeType": "image/png", "filename": "logo.png", "body": map[string]any{"size": 0}},
						{"partId": "2", "mimeType": "application/pdf", "filename": "rfp.pdf", "body": map[string]any{"attachmentId": "att1", "size": 9}},
					},
				},
			})
		case "m2":
			writeJSON(w, map[string]any{"id": "m2", "payload": map[string]any{"headers": []map[string]string{}}})
		case "m3":
			writeJSON(w, map[string]any{
				"id": "m3",
				"payload": map[string]any{
					"headers": []map[string]string{{"name": "Subject", "value": "Corrigendum"}},
					"parts": []map[string]any{
						{"partId": "1", "mimeType": "application/pdf", "filename": "blank.pdf", "body": map[string]any{"attachmentId": "att3", "size": 0}},
					},
				},
			})
		case "m3/attachments/att3":
			writeJSON(w, map[string]any{"size": 0, "data": ""})
		case "m1/attachments/att1":
			writeJSON(w, map[string]any{"size": 9, "data": base64.URLEncoding.EncodeToString([]byte("%PDF-1.4\n"))})
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g, err := newGmail(context.Background(),
		[]option.ClientOption{option.WithEndpoint(srv.URL + "/"), option.WithHTTPClient(srv.Client())},
		WithMaxResults(7))
	if err != nil {
		t.Fatalf("newGmail: %v", err)
	}
	return g, &lastQuery
}

func TestGmail_ListRecent(t *testing.T) {
	g, lastQuery := fakeGmail(t)
	emails, err := g.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if *lastQuery != DefaultGmailQuery+"|7" {
		t.Errorf("query = %q", *lastQuery)
	}
	if len(emails) != 2 {
		t.Fatalf("got %d emails", len(emails))
	}
	first := emails[0]
	if first.Subject != "RFP" || first.Sender != "cell@gov.example" || first.Snippet != "Bid & EMD details" {
		t.Errorf("first = %+v", first)
	}
	if !first.HasAttachment {
		t.Error("first should have attachment")
	}
	if first.Date.IsZero() || first.Date.Year() != 2024 {
		t.Errorf("date = %v", first.Date)
	}
	second := emails[1]
	if second.Subject != "No Subject" || second.Sender != "Unknown Sender" || second.HasAttachment {
		t.Errorf("second = %+v", second)
	}
	if second.Body() != "No snippet available." {
		t.Errorf("Body() = %q", second.Body())
	}
}

func TestGmail_FirstAttachment(t *testing.T) {
	g, _ := fakeGmail(t)
	att, err := g.FirstAttachment(context.Background(), "m1")
	if err != nil {
		t.Fatalf("FirstAttachment: %v", err)
	}
	// logo.png has a filename but no attachment ID, so rfp.pdf is the first downloadable part.
	if att == nil || att.Filename != "rfp.pdf" || string(att.Data) != "%PDF-1.4\n" {
		t.Errorf("attachment = %+v", att)
	}

	none, err := g.FirstAttachment(context.Background(), "m2")
	if err != nil || none != nil {
		t.Errorf("m2 attachment = %+v, %v", none, err)
	}
}

func TestGmail_FirstAttachmentEmptyData(t *testing.T) {
	g, _ := fakeGmail(t)
	att, err := g.FirstAttachment(context.Background(), "m3")
	if err != nil {
		t.Fatalf("FirstAttachment: %v", err)
	}
	if att != nil {
		t.Errorf("empty download should count as no attachment, got %+v", att)
	}
}

func TestGmail_notFound(t *testing.T) {
	g, _ := fakeGmail(t)
	_, err := g.Message(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestParseToken(t *testing.T) {
	tok, err := parseToken([]byte(`{"access_token":"ya29","token_type":"Bearer","refresh_token":"1//r","expiry":"2024-05-07T10:00:00Z"}`))
	if err != nil || tok.AccessToken != "ya29" || tok.RefreshToken != "1//r" {
		t.Errorf("oauth2 layout: %+v, %v", tok, err)
	}

	tok, err = parseToken([]byte(`{"token":"ya29.py","refresh_token":"1//r","client_id":"x","expiry":"2024-05-07T10:00:00.123456Z"}`))
	if err != nil || tok.AccessToken != "ya29.py" || tok.TokenType != "Bearer" {
		t.Errorf("authorized-user layout: %+v, %v", tok, err)
	}

	if _, err := parseToken([]byte(`{}`)); err == nil {
		t.Error("expected error for empty token")
	}
	if _, err := parseToken([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestDecodeBase64URL(t *testing.T) {
	for _, enc := range []string{
		base64.URLEncoding.EncodeToString([]byte("tender?")),
		base64.RawURLEncoding.EncodeToString([]byte("tender?")),
	} {
		got, err := decodeBase64URL(enc)
		if err != nil || string(got) != "tender?" {
			t.Errorf("decode(%q) = %q, %v", enc, got, err)
		}
	}
}
