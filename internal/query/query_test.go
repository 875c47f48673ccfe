package query

import "testing"

func TestParse_PlainTerms(t *testing.T) {
	q := Parse("Quick Brown Fox")
	want := []string{"quick", "brown", "fox"}
	if len(q.TermsOrdered) != len(want) {
		t.Fatalf("terms = %v, want %v", q.TermsOrdered, want)
	}
	for i, term := range want {
		if q.TermsOrdered[i] != term {
			t.Errorf("term[%d] = %q, want %q", i, q.TermsOrdered[i], term)
		}
	}
	if len(q.Phrases) != 0 {
		t.Errorf("phrases = %v, want none", q.Phrases)
	}
}

func TestParse_QuotedPhrase(t *testing.T) {
	q := Parse(`search for "full text search" please`)
	if len(q.Phrases) != 1 || q.Phrases[0] != "full text search" {
		t.Fatalf("phrases = %v, want [\"full text search\"]", q.Phrases)
	}
	for _, term := range []string{"search", "for", "full", "text", "please"} {
		if _, ok := q.Terms[term]; !ok {
			t.Errorf("term %q missing from Terms", term)
		}
	}
}

func TestParse_UnterminatedQuoteBecomesPhraseFragment(t *testing.T) {
	q := Parse(`alpha "beta gamma`)
	if len(q.Phrases) != 1 || q.Phrases[0] != "beta gamma" {
		t.Fatalf("phrases = %v, want [\"beta gamma\"]", q.Phrases)
	}
	if _, ok := q.Terms["alpha"]; !ok {
		t.Errorf("term %q missing from Terms", "alpha")
	}
}

func TestParse_MandatoryTermsBecomeStemmedPhrases(t *testing.T) {
	q := Parse("realm guide")
	found := false
	for _, phrase := range q.StemmedPhrases {
		if len(phrase) == 1 && phrase[0] == "realm" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a single-token stemmed phrase for mandatory term %q, got %v", "realm", q.StemmedPhrases)
	}
}

func TestParse_EmptyQuery(t *testing.T) {
	q := Parse("")
	if len(q.Terms) != 0 || len(q.Phrases) != 0 {
		t.Errorf("expected no terms or phrases for empty query, got terms=%v phrases=%v", q.Terms, q.Phrases)
	}
}

func TestParse_FilterLeftNil(t *testing.T) {
	q := Parse("anything")
	if q.Filter != nil {
		t.Errorf("Filter should be left nil by Parse; caller assigns it")
	}
}
