package selection

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// statusKeys maps each type to its catalog key.
var statusKeys = [len(typeNames)]string{
	Links:        "status.links",
	JsLinks:      "status.jslinks",
	Checkboxes:   "status.checkboxes",
	Buttons:      "status.buttons",
	RadioButtons: "status.radiobuttons",
	Clickable:    "status.clickable",
}

type pluralForms struct{ one, other string }

var statusMessages = map[language.Tag][len(typeNames)]pluralForms{
	language.English: {
		Links:        {"%d link", "%d links"},
		JsLinks:      {"%d script link", "%d script links"},
		Checkboxes:   {"%d checkbox", "%d checkboxes"},
		Buttons:      {"%d button", "%d buttons"},
		RadioButtons: {"%d radio button", "%d radio buttons"},
		Clickable:    {"%d clickable element", "%d clickable elements"},
	},
	language.French: {
		Links:        {"%d lien", "%d liens"},
		JsLinks:      {"%d lien JavaScript", "%d liens JavaScript"},
		Checkboxes:   {"%d case à cocher", "%d cases à cocher"},
		Buttons:      {"%d bouton", "%d boutons"},
		RadioButtons: {"%d bouton radio", "%d boutons radio"},
		Clickable:    {"%d élément cliquable", "%d éléments cliquables"},
	},
}

var (
	statusCatalog  = buildStatusCatalog()
	statusLocales  = []language.Tag{language.English, language.French}
	statusLanguage = language.NewMatcher(statusLocales)
)

func buildStatusCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, forms := range statusMessages {
		for typ, f := range forms {
			msg := plural.Selectf(1, "%d", plural.One, f.one, plural.Other, f.other)
			if err := b.Set(tag, statusKeys[typ], msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// StatusFormatter renders the selection count for the status bar and the
// floating label.
type StatusFormatter struct {
	printer *message.Printer
}

// NewStatusFormatter creates a formatter for a BCP 47 locale. Unknown or
// unsupported locales fall back to English.
func NewStatusFormatter(locale string) *StatusFormatter {
	tag := language.English
	if requested, err := language.Parse(locale); err == nil {
		_, i, conf := statusLanguage.Match(requested)
		if conf != language.No {
			tag = statusLocales[i]
		}
	}
	return &StatusFormatter{printer: message.NewPrinter(tag, message.Catalog(statusCatalog))}
}

// Format renders n elements of type t, e.g. "3 checkboxes".
func (f *StatusFormatter) Format(t ElementType, n int) string {
	if t < 0 || int(t) >= len(statusKeys) {
		t = Links
	}
	return f.printer.Sprintf(statusKeys[t], n)
}

// Snapshot renders the count of a snapshot.
func (f *StatusFormatter) Snapshot(s Snapshot) string {
	return f.Format(s.Type, s.Len())
}
