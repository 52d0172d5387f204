package models

// Page is a CMS page as returned by the pages endpoint.
type Page struct {
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	Excerpt         string `json:"excerpt"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"`
	Parent          string `json:"parent"`
	Template        string `json:"template"`
	Date            string `json:"date"`
	MenuStatus      bool   `json:"menu_status"`
	MenuOrder       int    `json:"menu_order"`
	Private         bool   `json:"private"`
	URL             string `json:"url"`
}

// PageDetail is the single page shape. It carries the menu text but no excerpt.
type PageDetail struct {
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"`
	Parent          string `json:"parent"`
	Template        string `json:"template"`
	Date            string `json:"date"`
	MenuStatus      bool   `json:"menu_status"`
	MenuOrder       int    `json:"menu_order"`
	MenuText        string `json:"menu_text"`
	Private         bool   `json:"private"`
	URL             string `json:"url"`
}

type MenuItem struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	MenuText  string `json:"menu_text"`
	Parent    string `json:"parent"`
	MenuOrder int    `json:"menu_order"`
	URL       string `json:"url"`
}

// NavItem is a navigation node. Children is never nil so leaves render an
// empty list.
type NavItem struct {
	MenuItem
	Children []NavItem `json:"children"`
}

type SearchResult struct {
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	Excerpt         string `json:"excerpt"`
	MetaDescription string `json:"meta_description"`
	URL             string `json:"url"`
}

type Component struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Title   string `json:"title"`
}
