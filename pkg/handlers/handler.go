package handlers

import (
	"net/http"

	"headless-cms/pkg/services"

	"github.com/gin-gonic/gin"
)

// APIVersion is reported by the info endpoint.
const APIVersion = "1.2"

// Handler serves the read-only content API.
type Handler struct {
	Pages      *services.PageStore
	Components *services.ComponentStore
	Website    *services.Website
	Blog       *services.BlogStore
	Settings   *services.SettingsStore

	routes map[string]gin.HandlerFunc
}

func NewHandler(pages *services.PageStore, components *services.ComponentStore,
	website *services.Website, blog *services.BlogStore, settings *services.SettingsStore) *Handler {
	h := &Handler{
		Pages:      pages,
		Components: components,
		Website:    website,
		Blog:       blog,
		Settings:   settings,
	}
	h.routes = map[string]gin.HandlerFunc{
		"info":       h.Info,
		"pages":      h.ListPages,
		"page":       h.GetPage,
		"menu":       h.Menu,
		"navigation": h.Navigation,
		"search":     h.SearchPages,
		"components": h.ListComponents,
		"settings":   h.SiteSettings,

		"blog/posts":      h.BlogPosts,
		"blog/post":       h.BlogPost,
		"blog/categories": h.BlogCategories,
		"blog/category":   h.BlogCategory,
		"blog/recent":     h.BlogRecent,
		"blog/search":     h.BlogSearch,
		"blog/comments":   h.BlogComments,
	}
	return h
}

// Dispatch routes ?api=<endpoint> to its handler. Unknown endpoints list
// what is available.
func (h *Handler) Dispatch(c *gin.Context) {
	endpoint := c.Query("api")
	if fn, ok := h.routes[endpoint]; ok {
		fn(c)
		return
	}

	available := gin.H{}
	for _, e := range h.endpoints() {
		available[e.Name] = e.URL + " - " + e.Summary
	}
	c.Abort()
	c.Render(http.StatusNotFound, prettyJSON{gin.H{
		"error":               "Invalid endpoint",
		"available_endpoints": available,
	}})
}

// siteURL is the base for the url fields. It always ends with a slash
// unless it is empty.
func (h *Handler) siteURL() (string, error) {
	settings, err := h.Website.Settings()
	if err != nil {
		return "", err
	}
	return settings.SiteURL, nil
}

// Endpoint describes one API endpoint for the info listing.
type Endpoint struct {
	Name        string
	URL         string
	Description string
	Summary     string
	Params      map[string]string
	Blog        bool
}

var endpointDocs = []Endpoint{
	{Name: "info", URL: "?api=info", Description: "API information", Summary: "API information"},
	{Name: "pages", URL: "?api=pages", Description: "Get all pages", Summary: "Get all pages", Params: map[string]string{
		"include_private": "boolean (optional)",
		"limit":           "integer (optional)",
		"offset":          "integer (optional)",
		"sort":            "string (optional)",
		"order":           "asc|desc (optional)",
	}},
	{Name: "page", URL: "?api=page&slug=SLUG", Description: "Get single page", Summary: "Get single page",
		Params: map[string]string{"slug": "string (required)"}},
	{Name: "menu", URL: "?api=menu", Description: "Get menu structure", Summary: "Get menu"},
	{Name: "navigation", URL: "?api=navigation", Description: "Get hierarchical navigation", Summary: "Get navigation"},
	{Name: "search", URL: "?api=search&q=QUERY", Description: "Search pages", Summary: "Search pages",
		Params: map[string]string{"q": "string (required)"}},
	{Name: "components", URL: "?api=components", Description: "Get components", Summary: "Get components",
		Params: map[string]string{"name": "string (optional)"}},
	{Name: "settings", URL: "?api=settings", Description: "Get site settings", Summary: "Get settings"},

	{Name: "blog/posts", URL: "?api=blog/posts", Description: "Get all blog posts", Summary: "Get all blog posts", Blog: true,
		Params: map[string]string{"limit": "integer (optional)", "offset": "integer (optional)"}},
	{Name: "blog/post", URL: "?api=blog/post&slug=SLUG", Description: "Get single blog post", Summary: "Get single post", Blog: true,
		Params: map[string]string{"slug": "string (required)"}},
	{Name: "blog/categories", URL: "?api=blog/categories", Description: "Get all blog categories", Summary: "Get categories", Blog: true},
	{Name: "blog/category", URL: "?api=blog/category&slug=SLUG", Description: "Get posts by category", Summary: "Get posts by category", Blog: true,
		Params: map[string]string{
			"slug":   "string (required)",
			"limit":  "integer (optional)",
			"offset": "integer (optional)",
		}},
	{Name: "blog/recent", URL: "?api=blog/recent&limit=5", Description: "Get recent blog posts", Summary: "Get recent posts", Blog: true,
		Params: map[string]string{"limit": "integer (optional, default: 5)"}},
	{Name: "blog/search", URL: "?api=blog/search&q=QUERY", Description: "Search blog posts", Summary: "Search posts", Blog: true,
		Params: map[string]string{"q": "string (required)"}},
	{Name: "blog/comments", URL: "?api=blog/comments&post_id=ID", Description: "Get comments for post", Summary: "Get comments", Blog: true,
		Params: map[string]string{"post_id": "integer (optional)"}},
}

// endpoints returns the documented endpoints, leaving out the blog ones when
// no blog database is installed.
func (h *Handler) endpoints() []Endpoint {
	hasBlog := h.Blog.Exists()
	out := make([]Endpoint, 0, len(endpointDocs))
	for _, e := range endpointDocs {
		if e.Blog && !hasBlog {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Info reports the API version, site identity and endpoint catalogue.
func (h *Handler) Info(c *gin.Context) {
	site, err := h.Website.Settings()
	if err != nil {
		abortWithError(c, err)
		return
	}
	settings, err := h.Settings.Get()
	if err != nil {
		abortWithError(c, err)
		return
	}

	endpoints := gin.H{}
	for _, e := range h.endpoints() {
		if e.Name == "info" {
			continue
		}
		doc := gin.H{
			"url":         e.URL,
			"method":      "GET",
			"description": e.Description,
		}
		if e.Params != nil {
			doc["params"] = e.Params
		}
		endpoints[e.Name] = doc
	}

	respond(c, gin.H{
		"api_version":        APIVersion,
		"site_name":          site.SiteName,
		"site_url":           site.SiteURL,
		"auth_required":      settings.RequireAuth,
		"simpleblog_enabled": h.Blog.Exists(),
		"endpoints":          endpoints,
	})
}
