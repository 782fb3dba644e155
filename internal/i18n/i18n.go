// Package i18n holds the two-language UI string surface and the
// placeholder/fallback pairs used by the note lifecycle.
package i18n

import "golang.org/x/text/language"

// Lang selects one of the two supported UI languages.
type Lang string

const (
	Arabic  Lang = "ar"
	English Lang = "en"
)

// DefaultLang is used when no preference is stored and no tag matches.
const DefaultLang = Arabic

// Pair is a derived (title, category) pair for a note.
type Pair struct {
	Title    string
	Category string
}

// Strings is the full set of user-visible labels for one language.
// Labels are selected wholesale; one rendering never mixes languages.
type Strings struct {
	Title           string
	Subtitle        string
	Placeholder     string
	Button          string
	Search          string
	Stats           string
	TotalNotes      string
	SaveSuccess     string
	DeleteInfo      string
	DeleteError     string
	NoResults       string
	ConnectionError string
	Online          string
	Offline         string
	SavedFallback   string
	ToggleLabel     string
}

var translations = map[Lang]Strings{
	Arabic: {
		Title:           "المدون السحابي الذكي",
		Subtitle:        "مزامنة عالمية فورية",
		Placeholder:     "أضف فكرة جديدة للسحابة...",
		Button:          "تخزين ذكي",
		Search:          "بحث سحابي سريع...",
		Stats:           "تحليلات البيانات",
		TotalNotes:      "ملاحظاتك السحابية",
		SaveSuccess:     "تمت المزامنة بنجاح",
		DeleteInfo:      "تم حذف البيانات سحابياً",
		DeleteError:     "فشل الحذف",
		NoResults:       "لا توجد ملاحظات سحابية",
		ConnectionError: "خطأ في الاتصال بالسحابة - تحقق من الإعدادات",
		Online:          "متصل بالسحابة",
		Offline:         "جاري الاتصال...",
		SavedFallback:   "تم الحفظ بدون تحليل ذكي",
		ToggleLabel:     "ENGLISH",
	},
	English: {
		Title:           "Cloud Smart Notes",
		Subtitle:        "Global Real-time Sync",
		Placeholder:     "Add a new idea to the cloud...",
		Button:          "Cloud Save",
		Search:          "Fast cloud search...",
		Stats:           "Data Analytics",
		TotalNotes:      "Cloud Notes",
		SaveSuccess:     "Synced successfully",
		DeleteInfo:      "Deleted from cloud",
		DeleteError:     "Error deleting",
		NoResults:       "No cloud notes found",
		ConnectionError: "Connection Error - Check Store Config",
		Online:          "Cloud Connected",
		Offline:         "Connecting...",
		SavedFallback:   "Saved without AI analysis",
		ToggleLabel:     "العربية",
	},
}

var placeholders = map[Lang]Pair{
	Arabic:  {Title: "تحليل ذكي...", Category: "جاري الرفع"},
	English: {Title: "AI Analysis...", Category: "Uploading"},
}

var fallbacks = map[Lang]Pair{
	Arabic:  {Title: "ملاحظة جديدة", Category: "عام"},
	English: {Title: "New Note", Category: "General"},
}

var matcher = language.NewMatcher([]language.Tag{
	language.Arabic,
	language.English,
})

// Strings returns the label table for l, defaulting to DefaultLang for
// unknown values.
func (l Lang) Strings() Strings {
	if s, ok := translations[l]; ok {
		return s
	}
	return translations[DefaultLang]
}

// PlaceholderPair returns the transient title/category shown while a note
// is still being enriched. A note carrying this category is "processing".
func PlaceholderPair(l Lang) Pair {
	if p, ok := placeholders[l]; ok {
		return p
	}
	return placeholders[DefaultLang]
}

// FallbackPair returns the fixed pair substituted when enrichment fails.
func FallbackPair(l Lang) Pair {
	if p, ok := fallbacks[l]; ok {
		return p
	}
	return fallbacks[DefaultLang]
}

// Valid reports whether l is one of the two permitted values.
func (l Lang) Valid() bool {
	return l == Arabic || l == English
}

// Toggle returns the other language.
func (l Lang) Toggle() Lang {
	if l == Arabic {
		return English
	}
	return Arabic
}

// Dir returns the writing direction for HTML rendering.
func (l Lang) Dir() string {
	if l == Arabic {
		return "rtl"
	}
	return "ltr"
}

// Parse normalizes an arbitrary language tag ("en-US", "ar-EG", "AR") to a
// permitted Lang, falling back to def when nothing matches.
func Parse(tag string, def Lang) Lang {
	if l := Lang(tag); l.Valid() {
		return l
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return def
	}
	_, index, conf := matcher.Match(parsed)
	if conf == language.No {
		return def
	}
	switch index {
	case 0:
		return Arabic
	default:
		return English
	}
}
