// Package vocab holds the static per-language, per-category word tables the
// lessons are built from.
package vocab

import "strings"

type Language string

const (
	Kichwa Language = "kichwa"
	Shuar  Language = "shuar"
)

// Languages controls both the supported languages and their display order.
var Languages = []Language{Kichwa, Shuar}

func (l Language) Valid() bool {
	for _, lang := range Languages {
		if lang == l {
			return true
		}
	}
	return false
}

func (l Language) Label() string {
	switch l {
	case Kichwa:
		return "Kichwa"
	case Shuar:
		return "Shuar"
	default:
		return string(l)
	}
}

// Other returns the language the home screen toggle switches to.
func (l Language) Other() Language {
	if l == Kichwa {
		return Shuar
	}
	return Kichwa
}

type CategoryID string

const (
	Greetings CategoryID = "greetings"
	Numbers   CategoryID = "numbers"
	Colors    CategoryID = "colors"
	Animals   CategoryID = "animals"
	Food      CategoryID = "food"
)

type Category struct {
	ID          CategoryID
	Title       string
	NativeTitle string
	Icon        string
}

// Categories is shown on the home screen in this order.
var Categories = []Category{
	{ID: Greetings, Title: "Saludos", NativeTitle: "Napaykuna / Chicham", Icon: "👋"},
	{ID: Numbers, Title: "Números", NativeTitle: "Yupaykuna / Iwiakma", Icon: "🔢"},
	{ID: Colors, Title: "Colores", NativeTitle: "Tullpukuna / Aniamu", Icon: "🎨"},
	{ID: Animals, Title: "Animales", NativeTitle: "Wiwakuna", Icon: "🐾"},
	{ID: Food, Title: "Alimentos", NativeTitle: "Mikuna", Icon: "🌽"},
}

func LookupCategory(id CategoryID) (Category, bool) {
	for _, category := range Categories {
		if category.ID == id {
			return category, true
		}
	}
	return Category{}, false
}

func (c CategoryID) Valid() bool {
	_, ok := LookupCategory(c)
	return ok
}

// CompletionKey is the "language-category" key stored in user progress.
func CompletionKey(lang Language, category CategoryID) string {
	return string(lang) + "-" + string(category)
}

// Item is one vocabulary entry: the native word and its Spanish translation.
type Item struct {
	Native      string `json:"native"`
	Translation string `json:"translation"`
}

func (i Item) String() string {
	return strings.TrimSpace(i.Native) + " = " + strings.TrimSpace(i.Translation)
}
