package textutil

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"latin", "Faculty of Computer Science", []string{"faculty", "computer", "science"}},
		{"cyrillic", "Факультет информационных технологий", []string{"факультет", "информационных", "технологий"}},
		{"punctuation", "Физико-математический, ф-т", []string{"физико", "математический"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := NewFingerprint("Институт экономики и управления")
	if got := CosineSimilarity(a, a); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical similarity = %v, want 1", got)
	}
	if got := CosineSimilarity(a, NewFingerprint("Юридический факультет")); got != 0 {
		t.Errorf("disjoint similarity = %v, want 0", got)
	}
	if got := CosineSimilarity(nil, a); got != 0 {
		t.Errorf("nil similarity = %v, want 0", got)
	}
}

func TestBestMatch(t *testing.T) {
	candidates := map[string]string{
		"FIT": "Факультет информационных технологий",
		"FEU": "Факультет экономики и управления",
		"LAW": "Юридический факультет",
	}

	key, score, ok := BestMatch("Информационных технологий факультет", candidates, 0.6)
	if !ok || key != "FIT" {
		t.Fatalf("BestMatch = %q (%v, ok=%v), want FIT", key, score, ok)
	}

	if _, _, ok := BestMatch("Медицинский институт", candidates, 0.6); ok {
		t.Fatal("expected no match below threshold")
	}
	if _, _, ok := BestMatch("", candidates, 0.1); ok {
		t.Fatal("expected no match for empty name")
	}
}
