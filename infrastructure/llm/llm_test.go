package llm

import (
	"context"
	"testing"
)

func TestParseScoresExtractsJSONObject(t *testing.T) {
	text := `Here are the relevance scores you asked for:
{"0": 8.5, "1": 3, "2": 9}
Let me know if you need anything else.`

	scores := parseScores(text)
	if len(scores) != 3 {
		t.Fatalf("scores = %v, want 3 entries", scores)
	}
	if scores[0] != 8.5 || scores[1] != 3 || scores[2] != 9 {
		t.Errorf("unexpected values: %v", scores)
	}
}

func TestParseScoresDropsInvalidEntries(t *testing.T) {
	scores := parseScores(`{"0": 5, "x": 7, "-1": 4, "2": 11, "3": -2}`)
	if len(scores) != 1 {
		t.Fatalf("scores = %v, want only index 0", scores)
	}
	if scores[0] != 5 {
		t.Errorf("scores[0] = %v", scores[0])
	}
}

func TestParseScoresNoObject(t *testing.T) {
	if scores := parseScores("I cannot rank these articles."); scores != nil {
		t.Errorf("scores = %v, want nil", scores)
	}
	if scores := parseScores("{not json}"); scores != nil {
		t.Errorf("scores = %v, want nil for malformed object", scores)
	}
}

func TestParseBulletsPlainLines(t *testing.T) {
	text := "Markets rallied on the jobs report.\nThe central bank held rates steady.\n"
	bullets := parseBullets(text, 5)
	if len(bullets) != 2 {
		t.Fatalf("bullets = %v", bullets)
	}
	if bullets[0] != "Markets rallied on the jobs report." {
		t.Errorf("bullet = %q", bullets[0])
	}
}

func TestParseBulletsStripsFormatting(t *testing.T) {
	text := "• First point\n- Second point\n1. Third point\n2) Fourth point"
	bullets := parseBullets(text, 10)
	want := []string{"First point", "Second point", "Third point", "Fourth point"}
	if len(bullets) != len(want) {
		t.Fatalf("bullets = %v", bullets)
	}
	for i, b := range bullets {
		if b != want[i] {
			t.Errorf("bullet %d = %q, want %q", i, b, want[i])
		}
	}
}

func TestParseBulletsCaps(t *testing.T) {
	text := "a\nb\nc\nd\ne\nf"
	if bullets := parseBullets(text, 3); len(bullets) != 3 {
		t.Errorf("bullets = %v, want 3", bullets)
	}
}

func TestNewWithoutProviderReturnsDisabled(t *testing.T) {
	client, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.Available() {
		t.Error("unconfigured client must report unavailable")
	}
	if _, err := client.ScoreRelevance(context.Background(), "topic", nil); err == nil {
		t.Error("disabled client must error on use")
	}
}

func TestNewWithoutAPIKeyReturnsDisabled(t *testing.T) {
	client, err := New(Config{Provider: "anthropic"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.Available() {
		t.Error("provider without credentials must be disabled")
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(Config{Provider: "carrier-pigeon"}); err == nil {
		t.Error("unknown provider must be rejected")
	}
}
