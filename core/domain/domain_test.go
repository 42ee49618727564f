package domain

import "testing"

func TestHashContentIgnoresWhitespaceDifferences(t *testing.T) {
	a := HashContent("the  quick\nbrown\t fox")
	b := HashContent("the quick brown fox")
	if a != b {
		t.Error("whitespace-normalized content must hash identically")
	}

	c := HashContent("the quick brown cat")
	if a == c {
		t.Error("different content must hash differently")
	}
}

func TestFillDerived(t *testing.T) {
	article := Article{Text: "one two three"}
	article.FillDerived()
	if article.WordCount != 3 {
		t.Errorf("WordCount = %d, want 3", article.WordCount)
	}
	if article.ContentHash == "" {
		t.Error("ContentHash not set")
	}
}

func TestCatalogIDStability(t *testing.T) {
	content := []byte("artifact bytes")

	a := CatalogID(content, "Daily News")
	b := CatalogID(content, "Daily News")
	if a != b {
		t.Error("identical inputs must produce identical IDs")
	}
	if len(a) != 32 {
		t.Errorf("ID length = %d, want 32 hex chars", len(a))
	}

	if CatalogID(content, "Other Title") == a {
		t.Error("title must contribute to the ID")
	}
	if CatalogID([]byte("other bytes"), "Daily News") == a {
		t.Error("content must contribute to the ID")
	}
}

func TestSourceValidate(t *testing.T) {
	valid := Source{ID: "feed", URL: "https://news.example/rss", TrustWeight: 0.5}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid source rejected: %v", err)
	}

	missing := Source{ID: "feed", TrustWeight: 0.5}
	if err := missing.Validate(); err == nil {
		t.Error("source without URL must fail validation")
	}

	badTrust := Source{ID: "feed", URL: "https://news.example/rss", TrustWeight: 1.5}
	if err := badTrust.Validate(); err == nil {
		t.Error("trust weight above 1 must fail validation")
	}
}
