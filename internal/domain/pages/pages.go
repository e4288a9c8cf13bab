// Package pages maps a navigation selection onto the tables it shows.
package pages

import (
	"strings"

	"github.com/okian/damdice/internal/domain/model"
	"github.com/okian/damdice/internal/domain/pipeline"
	"github.com/okian/damdice/internal/domain/table"
)

// Page is one of the three result pages.
type Page string

const (
	Main   Page = "main"
	Yster  Page = "yster"
	Bobaas Page = "bobaas"
)

// All lists the pages in navigation order.
func All() []Page {
	return []Page{Main, Yster, Bobaas}
}

// ParsePage maps a URL slug onto a Page. The empty slug is Main.
func ParsePage(slug string) (Page, bool) {
	switch p := Page(strings.ToLower(strings.Trim(slug, "/ "))); p {
	case "", Main:
		return Main, true
	case Yster, Bobaas:
		return p, true
	default:
		return "", false
	}
}

// Title is the page heading.
func (p Page) Title() string {
	switch p {
	case Main:
		return "Dam Dice Results"
	case Yster:
		return "Yster Competition"
	case Bobaas:
		return "Bobaas Competition"
	default:
		return ""
	}
}

// Label is the navigation label.
func (p Page) Label() string {
	switch p {
	case Main:
		return "Main"
	case Yster:
		return "Yster"
	case Bobaas:
		return "Bobaas"
	default:
		return ""
	}
}

// Path is the site path serving the page.
func (p Page) Path() string {
	if p == Main {
		return "/"
	}
	return "/" + string(p)
}

// Section is one captioned table.
type Section struct {
	Caption string      `json:"caption"`
	Table   table.Table `json:"table"`
}

// View is everything a page renders.
type View struct {
	Page     Page      `json:"page"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

var captionSuffix = map[Page]string{
	Main:   "dice",
	Yster:  "Yster",
	Bobaas: "Bobaas",
}

// Layout picks the tables for page: the 10 km table, then the 5 km table.
// Unknown pages yield ok=false and an empty view.
func Layout(page Page, res pipeline.Results) (View, bool) {
	var tables map[model.Category]table.Table
	switch page {
	case Main:
		tables = res.Main
	case Yster:
		tables = res.Yster
	case Bobaas:
		tables = res.Bobaas
	default:
		return View{}, false
	}

	v := View{Page: page, Title: page.Title()}
	for _, c := range model.Categories() {
		t, ok := tables[c]
		if !ok {
			t = table.Table{Category: c}
		}
		v.Sections = append(v.Sections, Section{Caption: caption(page, c), Table: t})
	}
	return v, true
}

func caption(page Page, c model.Category) string {
	return string(c) + " " + captionSuffix[page]
}
