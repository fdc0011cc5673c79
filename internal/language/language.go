package language

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// ID is the numeric language code the translation job provider expects.
type ID int

// Provider ids. These values are fixed by the remote API.
const (
	IDEnglish ID = 1
	IDAmharic ID = 3
)

// Language represents a language the relay knows by name.
type Language struct {
	ID   ID
	Code string
	Name string
	Tag  language.Tag
}

var (
	English = Language{ID: IDEnglish, Code: "en", Name: "English", Tag: language.English}
	Amharic = Language{ID: IDAmharic, Code: "am", Name: "Amharic", Tag: language.Amharic}
)

// Languages maps lowercase codes to known languages.
var Languages = map[string]Language{
	"en":      English,
	"english": English,
	"am":      Amharic,
	"amharic": Amharic,
}

var byID = map[ID]Language{
	IDEnglish: English,
	IDAmharic: Amharic,
}

// GetLanguage returns the language for a code or name.
func GetLanguage(code string) (Language, bool) {
	lang, ok := Languages[strings.ToLower(strings.TrimSpace(code))]
	return lang, ok
}

// FromID returns the language for a provider id. Ids outside the table are
// passed through unnamed so the provider can accept or reject them.
func FromID(id ID) Language {
	if lang, ok := byID[id]; ok {
		return lang
	}
	return Language{ID: id, Name: fmt.Sprintf("language #%d", id), Tag: language.Und}
}

// Parse accepts a code, a name, or a numeric provider id.
func Parse(s string) (Language, error) {
	if lang, ok := GetLanguage(s); ok {
		return lang, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
		return FromID(ID(n)), nil
	}
	return Language{}, fmt.Errorf("unknown language %q", s)
}

// Known reports whether the language came from the table.
func (l Language) Known() bool {
	_, ok := byID[l.ID]
	return ok
}

func (l Language) String() string {
	if l.Code == "" {
		return l.Name
	}
	return fmt.Sprintf("%s (%s, id %d)", l.Name, l.Code, l.ID)
}

// GetSupportedLanguages returns the known languages sorted by Name.
func GetSupportedLanguages() []Language {
	entries := make([]Language, 0, len(byID))
	for _, v := range byID {
		entries = append(entries, v)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}
