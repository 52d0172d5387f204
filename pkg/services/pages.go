package services

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"headless-cms/pkg/models"

	"github.com/morikuni/failure"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
)

const flagYes = "Y"

// PageRecord is one page file of the CMS data directory.
type PageRecord struct {
	XMLName    xml.Name `xml:"item"`
	PubDate    string   `xml:"pubDate"`
	Title      string   `xml:"title"`
	URL        string   `xml:"url"`
	Meta       string   `xml:"meta"`
	MetaD      string   `xml:"metad"`
	Menu       string   `xml:"menu"`
	MenuOrder  string   `xml:"menuOrder"`
	MenuStatus string   `xml:"menuStatus"`
	Template   string   `xml:"template"`
	Parent     string   `xml:"parent"`
	Content    string   `xml:"content"`
	Private    string   `xml:"private"`
	Author     string   `xml:"author"`
}

func (p *PageRecord) Slug() string            { return strings.TrimSpace(p.URL) }
func (p *PageRecord) IsPrivate() bool         { return strings.TrimSpace(p.Private) == flagYes }
func (p *PageRecord) InMenu() bool            { return strings.TrimSpace(p.MenuStatus) == flagYes }
func (p *PageRecord) HTML() string            { return decodeField(p.Content) }
func (p *PageRecord) Link(site string) string { return site + p.Slug() + "/" }

// Order parses menuOrder the lenient way the CMS does: leading digits count,
// anything else is zero.
func (p *PageRecord) Order() int {
	s := strings.TrimSpace(p.MenuOrder)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && s[end] == '-') {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func (p *PageRecord) ToPage(site string) models.Page {
	content := p.HTML()
	return models.Page{
		Slug:            p.Slug(),
		Title:           decodeField(p.Title),
		Content:         content,
		Excerpt:         Excerpt(content, ExcerptLength),
		MetaDescription: decodeField(p.Meta),
		MetaKeywords:    decodeField(p.MetaD),
		Parent:          strings.TrimSpace(p.Parent),
		Template:        strings.TrimSpace(p.Template),
		Date:            strings.TrimSpace(p.PubDate),
		MenuStatus:      p.InMenu(),
		MenuOrder:       p.Order(),
		Private:         p.IsPrivate(),
		URL:             p.Link(site),
	}
}

func (p *PageRecord) ToDetail(site string) models.PageDetail {
	return models.PageDetail{
		Slug:            p.Slug(),
		Title:           decodeField(p.Title),
		Content:         p.HTML(),
		MetaDescription: decodeField(p.Meta),
		MetaKeywords:    decodeField(p.MetaD),
		Parent:          strings.TrimSpace(p.Parent),
		Template:        strings.TrimSpace(p.Template),
		Date:            strings.TrimSpace(p.PubDate),
		MenuStatus:      p.InMenu(),
		MenuOrder:       p.Order(),
		MenuText:        decodeField(p.Menu),
		Private:         p.IsPrivate(),
		URL:             p.Link(site),
	}
}

func (p *PageRecord) ToMenuItem(site string) models.MenuItem {
	return models.MenuItem{
		Slug:      p.Slug(),
		Title:     decodeField(p.Title),
		MenuText:  decodeField(p.Menu),
		Parent:    strings.TrimSpace(p.Parent),
		MenuOrder: p.Order(),
		URL:       p.Link(site),
	}
}

// PageStore reads page files from a directory.
type PageStore struct {
	Dir string
}

func NewPageStore(dir string) *PageStore {
	return &PageStore{Dir: dir}
}

// All loads every page in file name order. Files that cannot be read or
// parsed are logged and skipped.
func (s *PageStore) All() ([]PageRecord, error) {
	files, err := listXML(s.Dir)
	if err != nil {
		return nil, err
	}
	pages := make([]PageRecord, 0, len(files))
	for _, f := range files {
		var rec PageRecord
		if err := readXML(f, &rec); err != nil {
			log.Warn().Err(err).Str("path", f).Msg("skipping unreadable page")
			continue
		}
		pages = append(pages, rec)
	}
	return pages, nil
}

// Get loads a page by slug.
func (s *PageStore) Get(slug string) (*PageRecord, error) {
	path := SafeJoin(s.Dir, "", slug+xmlExt)
	if path == "" {
		return nil, failure.New(ErrInvalidArgument, failure.Message("Invalid slug parameter"))
	}
	var rec PageRecord
	if err := readXML(path, &rec); err != nil {
		if failure.Is(err, ErrNotFound) {
			return nil, failure.Translate(err, ErrNotFound, failure.Message("Page not found"))
		}
		return nil, err
	}
	return &rec, nil
}

func readXML(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return failure.Translate(err, ErrNotFound, failure.Context{"path": path})
		}
		return failure.MarkUnexpected(err, failure.Context{"path": path})
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(v); err != nil {
		return failure.MarkUnexpected(err, failure.Context{"path": filepath.Base(path)})
	}
	return nil
}

// PageQuery holds the listing options of the pages endpoint.
type PageQuery struct {
	IncludePrivate bool
	Limit          int
	Offset         int
	Sort           string
	Desc           bool
}

type PageList struct {
	Total int
	Pages []models.Page
}

type pageCompare func(a, b *models.Page) int

var pageSorters = map[string]pageCompare{
	"slug":             func(a, b *models.Page) int { return strings.Compare(a.Slug, b.Slug) },
	"title":            func(a, b *models.Page) int { return strings.Compare(a.Title, b.Title) },
	"content":          func(a, b *models.Page) int { return strings.Compare(a.Content, b.Content) },
	"excerpt":          func(a, b *models.Page) int { return strings.Compare(a.Excerpt, b.Excerpt) },
	"meta_description": func(a, b *models.Page) int { return strings.Compare(a.MetaDescription, b.MetaDescription) },
	"meta_keywords":    func(a, b *models.Page) int { return strings.Compare(a.MetaKeywords, b.MetaKeywords) },
	"parent":           func(a, b *models.Page) int { return strings.Compare(a.Parent, b.Parent) },
	"template":         func(a, b *models.Page) int { return strings.Compare(a.Template, b.Template) },
	"url":              func(a, b *models.Page) int { return strings.Compare(a.URL, b.URL) },
	"date":             func(a, b *models.Page) int { return compareDates(a.Date, b.Date) },
	"menu_order":       func(a, b *models.Page) int { return a.MenuOrder - b.MenuOrder },
	"menu_status":      func(a, b *models.Page) int { return compareBool(a.MenuStatus, b.MenuStatus) },
	"private":          func(a, b *models.Page) int { return compareBool(a.Private, b.Private) },
}

// List applies visibility, sort and offset/limit to the page files. Limit 0
// returns every page and ignores the offset.
func (s *PageStore) List(q PageQuery, site string) (*PageList, error) {
	var cmp pageCompare
	if q.Sort != "" {
		var ok bool
		if cmp, ok = pageSorters[q.Sort]; !ok {
			return nil, failure.New(ErrInvalidArgument,
				failure.Messagef("Invalid sort field: %s", q.Sort))
		}
	}

	records, err := s.All()
	if err != nil {
		return nil, err
	}
	pages := make([]models.Page, 0, len(records))
	for i := range records {
		if !q.IncludePrivate && records[i].IsPrivate() {
			continue
		}
		pages = append(pages, records[i].ToPage(site))
	}

	if cmp != nil {
		sort.SliceStable(pages, func(i, j int) bool {
			c := cmp(&pages[i], &pages[j])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	total := len(pages)
	if q.Limit > 0 {
		pages = slicePage(pages, q.Offset, q.Limit)
	}
	return &PageList{Total: total, Pages: pages}, nil
}

func slicePage(pages []models.Page, offset, limit int) []models.Page {
	if offset >= len(pages) {
		return []models.Page{}
	}
	end := offset + limit
	if end > len(pages) {
		end = len(pages)
	}
	return pages[offset:end]
}

// menuItems returns the pages flagged for the menu in file order.
func (s *PageStore) menuItems(site string) ([]models.MenuItem, error) {
	records, err := s.All()
	if err != nil {
		return nil, err
	}
	menu := []models.MenuItem{}
	for i := range records {
		if records[i].InMenu() {
			menu = append(menu, records[i].ToMenuItem(site))
		}
	}
	return menu, nil
}

// Menu returns the pages flagged for the menu ordered by menu order.
func (s *PageStore) Menu(site string) ([]models.MenuItem, error) {
	menu, err := s.menuItems(site)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(menu, func(i, j int) bool { return menu[i].MenuOrder < menu[j].MenuOrder })
	return menu, nil
}

// Navigation nests menu pages one level deep under their root parent, in
// file order. Menu pages whose parent is not a root menu page are left out.
// Every node carries a children list, empty for leaves.
func (s *PageStore) Navigation(site string) ([]models.NavItem, error) {
	menu, err := s.menuItems(site)
	if err != nil {
		return nil, err
	}
	children := make(map[string][]models.NavItem)
	nav := []models.NavItem{}
	for _, item := range menu {
		node := models.NavItem{MenuItem: item, Children: []models.NavItem{}}
		if item.Parent == "" {
			nav = append(nav, node)
			continue
		}
		children[item.Parent] = append(children[item.Parent], node)
	}
	for i := range nav {
		if c, ok := children[nav[i].Slug]; ok {
			nav[i].Children = c
		}
	}
	return nav, nil
}

// Search matches query against title, text content and meta description of
// public pages, ignoring case.
func (s *PageStore) Search(query, site string) ([]models.SearchResult, error) {
	records, err := s.All()
	if err != nil {
		return nil, err
	}
	needle := Fold(query)
	results := []models.SearchResult{}
	for i := range records {
		rec := &records[i]
		if rec.IsPrivate() {
			continue
		}
		content := rec.HTML()
		title := decodeField(rec.Title)
		meta := decodeField(rec.Meta)
		if !ContainsFold(needle, title, StripTags(content), meta) {
			continue
		}
		results = append(results, models.SearchResult{
			Slug:            rec.Slug(),
			Title:           title,
			Excerpt:         Excerpt(content, ExcerptLength),
			MetaDescription: meta,
			URL:             rec.Link(site),
		})
	}
	return results, nil
}

// pubDateLayout is the format the CMS writes pubDate in.
const pubDateLayout = time.RFC1123Z

func compareDates(a, b string) int {
	ta, errA := time.Parse(pubDateLayout, a)
	tb, errB := time.Parse(pubDateLayout, b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return ta.Compare(tb)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
