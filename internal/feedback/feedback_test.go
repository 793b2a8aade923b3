package feedback_test

import (
	"testing"

	"triage/internal/feedback"
)

func TestParseSourceNormalizes(t *testing.T) {
	tests := []struct {
		input string
		want  feedback.Source
		ok    bool
	}{
		{"discord", feedback.SourceDiscord, true},
		{"  GitHub  ", feedback.SourceGitHub, true},
		{"TWITTER", feedback.SourceTwitter, true},
		{"support", feedback.SourceSupport, true},
		{"email", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := feedback.ParseSource(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParseSource(%q) ok: got %v want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParseSource(%q): got %q want %q", tc.input, got, tc.want)
		}
	}
}

func TestClassificationValidateIsAllOrNothing(t *testing.T) {
	valid := feedback.Classification{Sentiment: "Negative", Urgency: " HIGH ", Category: " billing "}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if valid.Sentiment != feedback.SentimentNegative || valid.Urgency != feedback.UrgencyHigh || valid.Category != "billing" {
		t.Fatalf("Validate should normalize in place: %+v", valid)
	}

	bad := []feedback.Classification{
		{Sentiment: "angry", Urgency: "high", Category: "x"},
		{Sentiment: "negative", Urgency: "urgent", Category: "x"},
		{Sentiment: "negative", Urgency: "high", Category: "  "},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected validation failure for %+v", i, c)
		}
	}
}

func TestEntryIsPriority(t *testing.T) {
	tests := []struct {
		sentiment feedback.Sentiment
		urgency   feedback.Urgency
		want      bool
	}{
		{feedback.SentimentNegative, feedback.UrgencyCritical, true},
		{feedback.SentimentNegative, feedback.UrgencyHigh, true},
		{feedback.SentimentNegative, feedback.UrgencyMedium, false},
		{feedback.SentimentPositive, feedback.UrgencyCritical, false},
		{feedback.SentimentNeutral, feedback.UrgencyHigh, false},
		{"NEGATIVE", "High", true},
		{"", "", false},
	}
	for _, tc := range tests {
		entry := feedback.Entry{Sentiment: tc.sentiment, Urgency: tc.urgency}
		if got := entry.IsPriority(); got != tc.want {
			t.Fatalf("IsPriority(%q, %q): got %v want %v", tc.sentiment, tc.urgency, got, tc.want)
		}
	}
}

func TestClassifiedRequiresAllFields(t *testing.T) {
	entry := feedback.Entry{Sentiment: feedback.SentimentNeutral, Urgency: feedback.UrgencyLow}
	if entry.Classified() {
		t.Fatal("entry without category must not report classified")
	}
	entry.Category = "ux"
	if !entry.Classified() {
		t.Fatal("fully populated entry must report classified")
	}
}
