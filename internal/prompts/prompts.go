// Package prompts holds the fixed instructions sent to the language model.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

const (
	tenderAnalysisTemplate = "templates/tender_analysis.tmpl"
	businessEmailTemplate  = "templates/business_email.tmpl"
)

// TenderDocument returns the tender-analysis prompt for extracted attachment text.
func TenderDocument(text string) (string, error) {
	return loadPrompt(tenderAnalysisTemplate, map[string]string{
		"SOURCE": "document",
		"LABEL":  "Tender Document",
		"TEXT":   text,
	})
}

// TenderEmail returns the tender-analysis prompt applied to an email body.
func TenderEmail(body string) (string, error) {
	return loadPrompt(tenderAnalysisTemplate, map[string]string{
		"SOURCE": "email",
		"LABEL":  "Tender Email",
		"TEXT":   body,
	})
}

// BusinessEmail returns the short generic email summary prompt.
func BusinessEmail(body string) (string, error) {
	return loadPrompt(businessEmailTemplate, map[string]string{"TEXT": body})
}

// Email picks the prompt for an email body. An email without attachment is analyzed as the
// tender itself; otherwise the attachment carries the tender and the body gets a short summary.
func Email(body string, hasAttachment bool) (string, error) {
	if hasAttachment {
		return BusinessEmail(body)
	}
	return TenderEmail(body)
}

func loadPrompt(templatePath string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(templatesFS, templatePath)
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", templatePath, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", templatePath, err)
	}
	return buf.String(), nil
}
