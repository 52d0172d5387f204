package handlers

import (
	"headless-cms/pkg/services"

	"github.com/gin-gonic/gin"
)

type pageWindow struct {
	Limit  *int `form:"limit" binding:"omitempty,min=0"`
	Offset int  `form:"offset" binding:"min=0"`
}

func (w pageWindow) limitOr(def int) int {
	if w.Limit == nil {
		return def
	}
	return *w.Limit
}

func (h *Handler) BlogPosts(c *gin.Context) {
	var q pageWindow
	if err := bindQuery(c, &q); err != nil {
		abortWithError(c, err)
		return
	}
	site, err := h.siteURL()
	if err != nil {
		abortWithError(c, err)
		return
	}
	limit := q.limitOr(services.DefaultPostLimit)
	list, err := h.Blog.Posts(c.Request.Context(), site, limit, q.Offset)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{
		"total":  list.Total,
		"count":  len(list.Posts),
		"offset": q.Offset,
		"limit":  limit,
		"posts":  list.Posts,
	})
}

func (h *Handler) BlogPost(c *gin.Context) {
	slug, err := requireQuery(c, "slug", slugRequired)
	if err != nil {
		abortWithError(c, err)
		return
	}
	site, err := h.siteURL()
	if err != nil {
		abortWithError(c, err)
		return
	}
	post, err := h.Blog.Post(c.Request.Context(), site, slug)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"post": post})
}

func (h *Handler) BlogCategories(c *gin.Context) {
	site, err := h.siteURL()
	if err != nil {
		abortWithError(c, err)
		return
	}
	categories, err := h.Blog.Categories(c.Request.Context(), site)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"count": len(categories), "categories": categories})
}

func (h *Handler) BlogCategory(c *gin.Context) {
	slug, err := requireQuery(c, "slug", "Category slug is required")
	if err != nil {
		abortWithError(c, err)
		return
	}
	var q pageWindow
	if err := bindQuery(c, &q); err != nil {
		abortWithError(c, err)
		return
	}
	site, err := h.siteURL()
	if err != nil {
		abortWithError(c, err)
		return
	}
	limit := q.limitOr(services.DefaultPostLimit)
	res, err := h.Blog.CategoryPosts(c.Request.Context(), site, slug, limit, q.Offset)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{
		"category": res.Category,
		"total":    res.Total,
		"count":    len(res.Posts),
		"offset":   q.Offset,
		"limit":    limit,
		"posts":    res.Posts,
	})
}

type recentQuery struct {
	Limit *int `form:"limit" binding:"omitempty,min=0"`
}

func (h *Handler) BlogRecent(c *gin.Context) {
	var q recentQuery
	if err := bindQuery(c, &q); err != nil {
		abortWithError(c, err)
		return
	}
	site, err := h.siteURL()
	if err != nil {
		abortWithError(c, err)
		return
	}
	limit := services.DefaultRecentLimit
	if q.Limit != nil {
		limit = *q.Limit
	}
	posts, err := h.Blog.RecentPosts(c.Request.Context(), site, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"count": len(posts), "posts": posts})
}

func (h *Handler) BlogSearch(c *gin.Context) {
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
	posts, err := h.Blog.SearchPosts(c.Request.Context(), site, q)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"query": q, "count": len(posts), "results": posts})
}

type commentsQuery struct {
	PostID *int64 `form:"post_id"`
}

func (h *Handler) BlogComments(c *gin.Context) {
	var q commentsQuery
	if err := bindQuery(c, &q); err != nil {
		abortWithError(c, err)
		return
	}
	comments, err := h.Blog.Comments(c.Request.Context(), q.PostID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, gin.H{"count": len(comments), "comments": comments})
}
