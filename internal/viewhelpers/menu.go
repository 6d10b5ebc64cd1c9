// Package viewhelpers turns menu payloads into the markup and text shown to the user.
package viewhelpers

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/belphemur/canteen-menu/internal/menuapi"
)

const (
	// DishesHeading titles the extracted dish list
	DishesHeading = "Extracted Dishes / Wyodrębnione Dania"
	// PolishHeading titles the Polish column
	PolishHeading = "🇵🇱 Polski"
	// EnglishHeading titles the English column
	EnglishHeading = "🇬🇧 English"
)

// MultilineHTML escapes server text and then turns line breaks into <br>.
// The order matters: markup in the payload is always shown as text.
func MultilineHTML(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

var menuTemplate = template.Must(template.New("menu").Funcs(template.FuncMap{
	"multiline": MultilineHTML,
}).Parse(`<div class="menu-card">
{{- if .Dishes}}
<h3>{{.DishesHeading}}</h3>
<div class="dish-list">
{{- range .Dishes}}
<div class="dish-item"><div class="dish-pl">{{.PL}}</div><div class="dish-en">{{.EN}}</div></div>
{{- end}}
</div>
{{- end}}
<div class="menu-columns">
<div class="lang-col"><h3>{{.PolishHeading}}</h3><div class="content">{{multiline .ContentPL}}</div></div>
<div class="lang-col"><h3>{{.EnglishHeading}}</h3><div class="content">{{multiline .ContentEN}}</div></div>
</div>
</div>`))

// RenderMenu renders the menu card: the optional dish list followed by the two language columns
func RenderMenu(menu menuapi.Menu) (template.HTML, error) {
	data := struct {
		DishesHeading  string
		PolishHeading  string
		EnglishHeading string
		ContentPL      string
		ContentEN      string
		Dishes         []menuapi.Dish
	}{
		DishesHeading:  DishesHeading,
		PolishHeading:  PolishHeading,
		EnglishHeading: EnglishHeading,
		ContentPL:      menu.ContentPL,
		ContentEN:      menu.ContentEN,
		Dishes:         menu.Images,
	}

	var buf bytes.Buffer
	if err := menuTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render menu for %s: %w", menu.Date, err)
	}
	return template.HTML(buf.String()), nil
}

// RenderLoading renders the placeholder shown while a request is in flight
func RenderLoading(text string) template.HTML {
	return template.HTML(`<div class="loading">` + template.HTMLEscapeString(text) + `</div>`)
}

// PlainText renders the menu for a terminal
func PlainText(menu menuapi.Menu) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Menu for: %s\n", menu.Date)

	if len(menu.Images) > 0 {
		fmt.Fprintf(&b, "\n%s\n", DishesHeading)
		for _, dish := range menu.Images {
			fmt.Fprintf(&b, "  - %s / %s\n", dish.PL, dish.EN)
		}
	}

	fmt.Fprintf(&b, "\n%s\n%s\n", PolishHeading, strings.TrimRight(menu.ContentPL, "\n"))
	fmt.Fprintf(&b, "\n%s\n%s\n", EnglishHeading, strings.TrimRight(menu.ContentEN, "\n"))
	return b.String()
}
