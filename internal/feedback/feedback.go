// Package feedback defines the domain model shared by the ingestion gateway,
// workflow engine, classifier, and query surfaces.
package feedback

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the channel a feedback signal arrived from.
type Source string

const (
	SourceDiscord Source = "discord"
	SourceGitHub  Source = "github"
	SourceTwitter Source = "twitter"
	SourceSupport Source = "support"
)

// Sentiment is the classified tone of a feedback signal.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Urgency is the classified time-sensitivity of a feedback signal.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var sourceSet = map[Source]struct{}{
	SourceDiscord: {},
	SourceGitHub:  {},
	SourceTwitter: {},
	SourceSupport: {},
}

var sentimentSet = map[Sentiment]struct{}{
	SentimentPositive: {},
	SentimentNeutral:  {},
	SentimentNegative: {},
}

var urgencySet = map[Urgency]struct{}{
	UrgencyLow:      {},
	UrgencyMedium:   {},
	UrgencyHigh:     {},
	UrgencyCritical: {},
}

// Sources returns the known source channels in declaration order.
func Sources() []Source {
	return []Source{SourceDiscord, SourceGitHub, SourceTwitter, SourceSupport}
}

// ParseSource converts a string into a known Source.
func ParseSource(value string) (Source, bool) {
	normalized := Source(strings.ToLower(strings.TrimSpace(value)))
	_, ok := sourceSet[normalized]
	return normalized, ok
}

// ParseSentiment converts a string into a known Sentiment.
func ParseSentiment(value string) (Sentiment, bool) {
	normalized := Sentiment(strings.ToLower(strings.TrimSpace(value)))
	_, ok := sentimentSet[normalized]
	return normalized, ok
}

// ParseUrgency converts a string into a known Urgency.
func ParseUrgency(value string) (Urgency, bool) {
	normalized := Urgency(strings.ToLower(strings.TrimSpace(value)))
	_, ok := urgencySet[normalized]
	return normalized, ok
}

// IsUrgent reports whether an urgency value belongs to the priority band.
func IsUrgent(u Urgency) bool {
	return u == UrgencyHigh || u == UrgencyCritical
}

// Classification is the validated output of the external classifier model.
type Classification struct {
	Sentiment Sentiment `json:"sentiment"`
	Urgency   Urgency   `json:"urgency"`
	Category  string    `json:"category"`
}

// Validate normalizes the classification in place and rejects any field
// outside its enum domain. Validation is all-or-nothing: a partially valid
// result is an error.
func (c *Classification) Validate() error {
	sentiment, ok := ParseSentiment(string(c.Sentiment))
	if !ok {
		return fmt.Errorf("sentiment %q outside enum domain", c.Sentiment)
	}
	urgency, ok := ParseUrgency(string(c.Urgency))
	if !ok {
		return fmt.Errorf("urgency %q outside enum domain", c.Urgency)
	}
	category := strings.TrimSpace(c.Category)
	if category == "" {
		return fmt.Errorf("category must not be empty")
	}
	c.Sentiment = sentiment
	c.Urgency = urgency
	c.Category = category
	return nil
}

// Entry is a persisted feedback record. Sentiment, Urgency, and Category are
// empty until the classify and persist steps complete, and immutable after.
type Entry struct {
	ID        string
	Source    Source
	RawText   string
	Sentiment Sentiment
	Urgency   Urgency
	Category  string
	CreatedAt time.Time
}

// Classified reports whether the entry carries a complete classification.
func (e Entry) Classified() bool {
	return e.Sentiment != "" && e.Urgency != "" && e.Category != ""
}

// IsPriority reports whether an entry belongs in the urgent-negative view.
// Comparison is case-insensitive against the enum domains.
func (e Entry) IsPriority() bool {
	sentiment, ok := ParseSentiment(string(e.Sentiment))
	if !ok || sentiment != SentimentNegative {
		return false
	}
	urgency, ok := ParseUrgency(string(e.Urgency))
	return ok && IsUrgent(urgency)
}
