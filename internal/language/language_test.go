package language

import (
	"testing"

	"golang.org/x/text/language"
)

func TestProviderIDsArePinned(t *testing.T) {
	if English.ID != 1 {
		t.Fatalf("English id = %d, want 1", English.ID)
	}
	if Amharic.ID != 3 {
		t.Fatalf("Amharic id = %d, want 3", Amharic.ID)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{"am", IDAmharic},
		{"Amharic", IDAmharic},
		{" EN ", IDEnglish},
		{"3", IDAmharic},
		{"1", IDEnglish},
		{"76", ID(76)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.in, err)
		}
		if got.ID != tt.want {
			t.Errorf("Parse(%q).ID = %d, want %d", tt.in, got.ID, tt.want)
		}
	}

	for _, bad := range []string{"", "klingon", "0", "-2"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) expected error", bad)
		}
	}
}

func TestFromID_Unknown(t *testing.T) {
	l := FromID(76)
	if l.Known() {
		t.Fatalf("id 76 must not be known")
	}
	if l.Tag != language.Und {
		t.Fatalf("unknown id must have undefined tag, got %v", l.Tag)
	}
	if !FromID(IDAmharic).Known() {
		t.Fatalf("Amharic must be known")
	}
}

func TestGetSupportedLanguages(t *testing.T) {
	got := GetSupportedLanguages()
	if len(got) != 2 || got[0].Code != "am" || got[1].Code != "en" {
		t.Fatalf("unexpected languages: %v", got)
	}
}
