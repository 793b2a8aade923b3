package classifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"triage/internal/classifier"
	"triage/internal/config"
	"triage/internal/feedback"
	"triage/internal/services"
)

func testLLMConfig(baseURL string) config.LLM {
	return config.LLM{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "test-model",
		TimeoutSeconds: 5,
	}
}

func completionResponse(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func TestClassifyParsesStructuredResponse(t *testing.T) {
	var capturedAuth string
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&capturedBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse(`{"sentiment":"negative","urgency":"critical","category":"outage"}`)))
	}))
	defer server.Close()

	client := classifier.NewLLMClient(testLLMConfig(server.URL))
	got, err := client.Classify(context.Background(), "everything is down")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got.Sentiment != feedback.SentimentNegative || got.Urgency != feedback.UrgencyCritical || got.Category != "outage" {
		t.Fatalf("unexpected classification: %+v", got)
	}

	if capturedAuth != "Bearer test-key" {
		t.Fatalf("missing bearer auth, got %q", capturedAuth)
	}
	if capturedBody["model"] != "test-model" {
		t.Fatalf("model not sent, got %v", capturedBody["model"])
	}
	if format, ok := capturedBody["response_format"].(map[string]any); !ok || format["type"] != "json_object" {
		t.Fatalf("json response format not requested: %v", capturedBody["response_format"])
	}
}

func TestClassifyToleratesCodeFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "```json\n{\"sentiment\":\"neutral\",\"urgency\":\"low\",\"category\":\"docs\"}\n```"
		_, _ = w.Write([]byte(completionResponse(content)))
	}))
	defer server.Close()

	client := classifier.NewLLMClient(testLLMConfig(server.URL))
	got, err := client.Classify(context.Background(), "typo in the readme")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if got.Category != "docs" {
		t.Fatalf("fenced payload not decoded: %+v", got)
	}
}

func TestClassifyRejectsOutOfEnumValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionResponse(`{"sentiment":"furious","urgency":"low","category":"ux"}`)))
	}))
	defer server.Close()

	client := classifier.NewLLMClient(testLLMConfig(server.URL))
	_, err := client.Classify(context.Background(), "this is terrible")
	if err == nil {
		t.Fatal("expected error for out-of-enum sentiment")
	}
	if !errors.Is(err, services.ErrClassification) {
		t.Fatalf("expected classification error, got %v", err)
	}
}

func TestClassifyRejectsPartialPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionResponse(`{"sentiment":"negative","urgency":"high"}`)))
	}))
	defer server.Close()

	client := classifier.NewLLMClient(testLLMConfig(server.URL))
	_, err := client.Classify(context.Background(), "missing category")
	if !errors.Is(err, services.ErrClassification) {
		t.Fatalf("partial payloads must fail classification, got %v", err)
	}
}

func TestClassifyWrapsUpstreamErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := classifier.NewLLMClient(testLLMConfig(server.URL))
	_, err := client.Classify(context.Background(), "any text")
	if !errors.Is(err, services.ErrClassification) {
		t.Fatalf("expected retryable classification error, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatal("upstream failures must stay retryable")
	}
}

func TestClassifyValidatesRequest(t *testing.T) {
	client := classifier.NewLLMClient(testLLMConfig("http://127.0.0.1:0"))
	if _, err := client.Classify(context.Background(), "   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("blank text must be a validation error, got %v", err)
	}

	unkeyed := classifier.NewLLMClient(config.LLM{BaseURL: "http://127.0.0.1:0", Model: "m"})
	if _, err := unkeyed.Classify(context.Background(), "text"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("missing api key must be a configuration error, got %v", err)
	}
}

func TestDecodeModelJSONHandlesSurroundingProse(t *testing.T) {
	var target feedback.Classification
	content := "Here is the JSON you asked for: {\"sentiment\":\"positive\",\"urgency\":\"low\",\"category\":\"praise\"} hope that helps!"
	if err := classifier.DecodeModelJSON(content, &target); err != nil {
		t.Fatalf("DecodeModelJSON failed: %v", err)
	}
	if target.Category != "praise" {
		t.Fatalf("embedded object not extracted: %+v", target)
	}
}
