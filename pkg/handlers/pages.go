package handlers

import (
	"headless-cms/pkg/services"

	"github.com/gin-gonic/gin"
)

type pagesQuery struct {
	IncludePrivate string `form:"include_private"`
	Limit          *int   `form:"limit" binding:"omitempty,min=0"`
	Offset         int    `form:"offset" binding:"min=0"`
	Sort           string `form:"sort"`
	Order          string `form:"order"`
}

func (h *Handler) ListPages(c *gin.Context) {
	var q pagesQuery
	if err := bindQuery(c, &q); err != nil {
		abortWithError(c, err)
		return
	}
	site, err := h.siteURL()
	if err != nil {
		abortWithError(c, err)
		return
	}

	opts := services.PageQuery{
		IncludePrivate: q.IncludePrivate == "true",
		Offset:         q.Offset,
		Sort:           q.Sort,
		Desc:           q.Order == "desc",
	}
	if q.Limit != nil {
		opts.Limit = *q.Limit
	}
	list, err := h.Pages.List(opts, site)
	if err != nil {
		abortWithError(c, err)
		return
	}

	// null only when the parameter is absent; 0 lists everything
	var limit interface{}
	if q.Limit != nil {
		limit = *q.Limit
	}
	respond(c, gin.H{
		"total":  list.Total,
		"count":  len(list.Pages),
		"offset": q.Offset,
		"limit":  limit,
		"pages":  list.Pages,
	})
}

const (
	slugRequired  = "Slug parameter is required"
	queryRequired = "Query parameter (q) is required"
)

func (h *Handler) GetPage(c *gin.Context) {
	slug, err := requireQuery(c, "slug", slugRequired)
	if err != nil {
		abortWithError(c, err)
		return
	}
	rec, err := h.Pages.Get(slug)
	if err != nil {
		abortWithError(c, err)
		return
	}
	site, err := h.siteURL()
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"page": rec.ToDetail(site)})
}

func (h *Handler) Menu(c *gin.Context) {
	site, err := h.siteURL()
	if err != nil {
		abortWithError(c, err)
		return
	}
	menu, err := h.Pages.Menu(site)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"count": len(menu), "menu": menu})
}

func (h *Handler) Navigation(c *gin.Context) {
	site, err := h.siteURL()
	if err != nil {
		abortWithError(c, err)
		return
	}
	nav, err := h.Pages.Navigation(site)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"navigation": nav})
}

func (h *Handler) SearchPages(c *gin.Context) {
	q, err := requireQuery(c, "q", queryRequired)
	if err != nil {
		abortWithError(c, err)
		return
	}
	site, err := h.siteURL()
	if err != nil {
		abortWithError(c, err)
		return
	}
	results, err := h.Pages.Search(q, site)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"query": q, "count": len(results), "results": results})
}

func (h *Handler) ListComponents(c *gin.Context) {
	if name, ok := c.GetQuery("name"); ok {
		component, err := h.Components.Get(name)
		if err != nil {
			abortWithError(c, err)
			return
		}
		respond(c, gin.H{"component": component})
		return
	}

	components, err := h.Components.All()
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"count": len(components), "components": components})
}

func (h *Handler) SiteSettings(c *gin.Context) {
	settings, err := h.Website.Settings()
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"settings": settings})
}
