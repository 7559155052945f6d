package scraper

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"immosearch/models"
)

func mustDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}
	return doc
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(b)
}

func texts(sels []*goquery.Selection) []string {
	out := make([]string, 0, len(sels))
	for _, s := range sels {
		out = append(out, CollapseSpace(s.Text()))
	}
	return out
}

func TestLocateSecondPatternWins(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div class="offer">Maison à Arue 30 000 000 XPF</div>
		<div class="offer">Villa à Mahina 55 000 000 XPF</div>
		<aside><span>Publicité 99 000 XPF</span></aside>
	</body></html>`)
	patterns := []models.Pattern{{Selector: ".card"}, {Selector: ".offer"}}

	got := Locate(doc, patterns)

	if got.Strategy != ".offer" {
		t.Fatalf("Strategy = %q; want %q", got.Strategy, ".offer")
	}
	want := []string{"Maison à Arue 30 000 000 XPF", "Villa à Mahina 55 000 000 XPF"}
	if diff := cmp.Diff(want, texts(got.Candidates)); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestLocateFirstPatternStopsCascade(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<article>Premier 100 000 XPF</article>
		<div class="annonce">Second 200 000 XPF</div>
	</body></html>`)
	patterns := []models.Pattern{{Selector: "article"}, {Selector: ".annonce"}}

	got := Locate(doc, patterns)

	if got.Strategy != "article" || len(got.Candidates) != 1 {
		t.Errorf("got %d candidates via %q; want 1 via article", len(got.Candidates), got.Strategy)
	}
}

func TestLocateRequireCurrency(t *testing.T) {
	doc := mustDoc(t, loadFixture(t, "table.html"))
	patterns := []models.Pattern{{Selector: ".annonce"}, {Selector: "tr", RequireCurrency: true}}

	got := Locate(doc, patterns)

	if got.Strategy != "tr" {
		t.Fatalf("Strategy = %q; want tr", got.Strategy)
	}
	if len(got.Candidates) != 3 {
		t.Errorf("candidates: got %d, want 3 priced rows", len(got.Candidates))
	}
}

func TestLocateRequireCurrencyWithoutHitsFallsThrough(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<table><tr><td>Aucune annonce</td></tr></table>
		<div class="annonce">Bungalow 12 000 000 XPF</div>
	</body></html>`)
	patterns := []models.Pattern{{Selector: "tr", RequireCurrency: true}, {Selector: ".annonce"}}

	got := Locate(doc, patterns)

	if got.Strategy != ".annonce" {
		t.Errorf("Strategy = %q; want .annonce", got.Strategy)
	}
}

func TestLocateTextScanKeepsInnermost(t *testing.T) {
	doc := mustDoc(t, loadFixture(t, "textscan.html"))
	patterns := []models.Pattern{{Selector: ".annonce"}, {Selector: "article"}}

	got := Locate(doc, patterns)

	if got.Strategy != StrategyTextScan {
		t.Fatalf("Strategy = %q; want %q", got.Strategy, StrategyTextScan)
	}
	want := []string{"45 000 000 XPF", "32 500 000 F CFP", "Tous les prix sont indiqués en XPF"}
	if diff := cmp.Diff(want, texts(got.Candidates)); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestLocateTextScanCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, "<p>Annonce %d : %d XPF</p>", i, 100000+i)
	}
	b.WriteString("</body></html>")

	got := Locate(mustDoc(t, b.String()), nil)

	if len(got.Candidates) != MaxTextScanCandidates {
		t.Errorf("candidates: got %d, want %d", len(got.Candidates), MaxTextScanCandidates)
	}
}

func TestLocateNothingFound(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>Aucun résultat</p></body></html>`)

	got := Locate(doc, []models.Pattern{{Selector: ".annonce"}})

	if got.Strategy != "" || len(got.Candidates) != 0 {
		t.Errorf("got %d candidates via %q; want none", len(got.Candidates), got.Strategy)
	}
}

func TestHasCurrency(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"1 500 000 XPF", true},
		{"75 000 F CFP", true},
		{"75 000 FCFP", true},
		{"1 500 €", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := HasCurrency(tt.text); got != tt.want {
			t.Errorf("HasCurrency(%q) = %v; want %v", tt.text, got, tt.want)
		}
	}
}
