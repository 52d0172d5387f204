package services

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"headless-cms/pkg/models"

	"github.com/jmoiron/sqlx"
	"github.com/morikuni/failure"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	sqliteDriver = "sqlite"

	DefaultPostLimit   = 10
	DefaultRecentLimit = 5
)

// BlogSchema records which optional columns the installed blog version has.
type BlogSchema struct {
	HasStatus      bool `json:"has_status"`
	HasScheduled   bool `json:"has_scheduled"`
	HasDescription bool `json:"has_description"`
	HasCoverPhoto  bool `json:"has_cover_photo"`
	HasApproved    bool `json:"has_approved"`
}

// BlogStore reads the blog add-on's SQLite database. The database is
// optional: every method fails with ErrBlogUnavailable while the file is
// missing.
type BlogStore struct {
	Path string

	mu sync.Mutex
	db *sqlx.DB
}

func NewBlogStore(path string) *BlogStore {
	return &BlogStore{Path: path}
}

// Exists reports whether the blog database file is present.
func (s *BlogStore) Exists() bool {
	info, err := os.Stat(s.Path)
	return err == nil && !info.IsDir()
}

func (s *BlogStore) conn() (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Exists() {
		if s.db != nil {
			s.db.Close()
			s.db = nil
		}
		return nil, failure.New(ErrBlogUnavailable,
			failure.Message("SimpleBlog not installed or database not accessible"))
	}
	if s.db != nil {
		return s.db, nil
	}

	db, err := sqlx.Open(sqliteDriver, readOnlyDSN(s.Path))
	if err != nil {
		return nil, failure.Translate(err, ErrBlogUnavailable,
			failure.Message("SimpleBlog not installed or database not accessible"))
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, failure.Translate(err, ErrBlogUnavailable,
			failure.Message("SimpleBlog not installed or database not accessible"))
	}
	log.Debug().Str("path", s.Path).Msg("blog database opened")
	s.db = db
	return db, nil
}

// readOnlyDSN builds a read-only SQLite URI for path. The path is made
// absolute, since a relative one would be read as the URI authority, and ?
// or # in it are escaped.
func readOnlyDSN(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		Path:     p,
		RawQuery: "mode=ro&_pragma=busy_timeout(5000)",
	}
	return u.String()
}

// Close releases the database handle. The store reopens it on next use.
func (s *BlogStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func dbError(err error) error {
	return failure.Translate(err, ErrDatabase, failure.Message("Database query failed"))
}

func columnsOf(ctx context.Context, db *sqlx.DB, table string) (map[string]bool, error) {
	var names []string
	if err := db.SelectContext(ctx, &names, "SELECT name FROM pragma_table_info(?)", table); err != nil {
		return nil, dbError(err)
	}
	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[n] = true
	}
	return cols, nil
}

// Schema inspects the posts and comments tables.
func (s *BlogStore) Schema(ctx context.Context) (BlogSchema, error) {
	db, err := s.conn()
	if err != nil {
		return BlogSchema{}, err
	}
	return inspectSchema(ctx, db)
}

func inspectSchema(ctx context.Context, db *sqlx.DB) (BlogSchema, error) {
	posts, err := columnsOf(ctx, db, "posts")
	if err != nil {
		return BlogSchema{}, err
	}
	comments, err := columnsOf(ctx, db, "comments")
	if err != nil {
		return BlogSchema{}, err
	}
	return BlogSchema{
		HasStatus:      posts["status"],
		HasScheduled:   posts["scheduled_date"],
		HasDescription: posts["description"],
		HasCoverPhoto:  posts["cover_photo"],
		HasApproved:    comments["approved"],
	}, nil
}

type postRow struct {
	ID            int64          `db:"id"`
	Slug          sql.NullString `db:"slug"`
	Title         sql.NullString `db:"title"`
	Content       sql.NullString `db:"content"`
	CategoryID    sql.NullInt64  `db:"category_id"`
	CategoryName  sql.NullString `db:"category_name"`
	CategorySlug  sql.NullString `db:"category_slug"`
	Date          sql.NullString `db:"date"`
	Description   sql.NullString `db:"description"`
	CoverPhoto    sql.NullString `db:"cover_photo"`
	Status        sql.NullString `db:"status"`
	ScheduledDate sql.NullString `db:"scheduled_date"`
}

// postColumns builds the select list for the columns present in sc.
func (sc BlogSchema) postColumns(joinCategory bool) string {
	cols := []string{"p.id", "p.slug", "p.title", "p.content", "p.category_id", "p.date"}
	if sc.HasDescription {
		cols = append(cols, "p.description")
	}
	if sc.HasCoverPhoto {
		cols = append(cols, "p.cover_photo")
	}
	if sc.HasStatus {
		cols = append(cols, "p.status")
	}
	if sc.HasScheduled {
		cols = append(cols, "p.scheduled_date")
	}
	if joinCategory {
		cols = append(cols, "c.name AS category_name", "c.slug AS category_slug")
	}
	return strings.Join(cols, ", ")
}

func (sc BlogSchema) postQuery(where, tail string) string {
	q := "SELECT " + sc.postColumns(true) + " FROM posts p LEFT JOIN categories c ON p.category_id = c.id"
	if where != "" {
		q += " WHERE " + where
	}
	return q + " ORDER BY p.date DESC" + tail
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return &ni.Int64
}

func optional(has bool, ns sql.NullString) *models.OptString {
	if !has {
		return nil
	}
	return &models.OptString{Value: ns.String, Valid: ns.Valid}
}

func blogPostURL(site, slug string) string     { return site + "blog/" + slug }
func blogCategoryURL(site, slug string) string { return site + "blog/category/" + slug }

func (r *postRow) base(site string) models.Post {
	return models.Post{
		ID:    r.ID,
		Slug:  r.Slug.String,
		Title: r.Title.String,
		Date:  nullString(r.Date),
		URL:   blogPostURL(site, r.Slug.String),
	}
}

// excerpt prefers a non-empty description over the stripped content.
func (r *postRow) excerpt(sc BlogSchema, n int) *string {
	var e string
	if sc.HasDescription && r.Description.String != "" {
		e = r.Description.String
	} else {
		e = Excerpt(r.Content.String, n)
	}
	return &e
}

func (r *postRow) categoryRef() *models.CategoryRef {
	return &models.CategoryRef{
		ID:   nullInt(r.CategoryID),
		Name: nullString(r.CategoryName),
		Slug: nullString(r.CategorySlug),
	}
}

func (r *postRow) categoryLabel() *models.CategoryLabel {
	return &models.CategoryLabel{
		Name: nullString(r.CategoryName),
		Slug: nullString(r.CategorySlug),
	}
}

// full is the shape of the post listing and single post endpoints.
func (r *postRow) full(sc BlogSchema, site string, withExcerpt bool) models.Post {
	p := r.base(site)
	p.Content = &models.OptString{Value: r.Content.String, Valid: r.Content.Valid}
	p.Category = r.categoryRef()
	if withExcerpt {
		p.Excerpt = r.excerpt(sc, ExcerptLength)
	}
	p.Description = optional(sc.HasDescription, r.Description)
	p.CoverPhoto = optional(sc.HasCoverPhoto, r.CoverPhoto)
	p.Status = optional(sc.HasStatus, r.Status)
	p.ScheduledDate = optional(sc.HasScheduled, r.ScheduledDate)
	return p
}

// summary is the shape of the recent and search listings.
func (r *postRow) summary(sc BlogSchema, site string, excerptLen int) models.Post {
	p := r.base(site)
	p.Category = r.categoryLabel()
	p.Excerpt = r.excerpt(sc, excerptLen)
	p.CoverPhoto = optional(sc.HasCoverPhoto, r.CoverPhoto)
	return p
}

// prepare opens the database and inspects its schema.
func (s *BlogStore) prepare(ctx context.Context) (*sqlx.DB, BlogSchema, error) {
	db, err := s.conn()
	if err != nil {
		return nil, BlogSchema{}, err
	}
	sc, err := inspectSchema(ctx, db)
	if err != nil {
		return nil, BlogSchema{}, err
	}
	return db, sc, nil
}

type PostList struct {
	Total int64
	Posts []models.Post
}

// Posts lists posts newest first with their category.
func (s *BlogStore) Posts(ctx context.Context, site string, limit, offset int) (*PostList, error) {
	db, sc, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	if err := db.GetContext(ctx, &total, "SELECT COUNT(*) FROM posts"); err != nil {
		return nil, dbError(err)
	}
	var rows []postRow
	if err := db.SelectContext(ctx, &rows, sc.postQuery("", " LIMIT ? OFFSET ?"), limit, offset); err != nil {
		return nil, dbError(err)
	}
	posts := make([]models.Post, 0, len(rows))
	for i := range rows {
		posts = append(posts, rows[i].full(sc, site, true))
	}
	return &PostList{Total: total, Posts: posts}, nil
}

// Post returns a single post by slug.
func (s *BlogStore) Post(ctx context.Context, site, slug string) (*models.Post, error) {
	db, sc, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}
	var row postRow
	if err := db.GetContext(ctx, &row, sc.postQuery("p.slug = ?", ""), slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, failure.Translate(err, ErrNotFound, failure.Message("Post not found"))
		}
		return nil, dbError(err)
	}
	p := row.full(sc, site, false)
	return &p, nil
}

// Categories lists categories by name with their post counts.
func (s *BlogStore) Categories(ctx context.Context, site string) ([]models.Category, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	const q = `SELECT c.id, c.name, c.slug, COUNT(p.id) AS post_count
FROM categories c
LEFT JOIN posts p ON c.id = p.category_id
GROUP BY c.id
ORDER BY c.name`
	var rows []struct {
		ID        int64          `db:"id"`
		Name      sql.NullString `db:"name"`
		Slug      sql.NullString `db:"slug"`
		PostCount int64          `db:"post_count"`
	}
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, dbError(err)
	}
	categories := make([]models.Category, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, models.Category{
			ID:        r.ID,
			Name:      r.Name.String,
			Slug:      r.Slug.String,
			PostCount: r.PostCount,
			URL:       blogCategoryURL(site, r.Slug.String),
		})
	}
	return categories, nil
}

type CategoryPosts struct {
	Category models.CategoryInfo
	PostList
}

// CategoryPosts lists the posts of the category with the given slug.
func (s *BlogStore) CategoryPosts(ctx context.Context, site, slug string, limit, offset int) (*CategoryPosts, error) {
	db, sc, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}
	var cat struct {
		ID   int64          `db:"id"`
		Name sql.NullString `db:"name"`
		Slug sql.NullString `db:"slug"`
	}
	if err := db.GetContext(ctx, &cat, "SELECT id, name, slug FROM categories WHERE slug = ?", slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, failure.Translate(err, ErrNotFound, failure.Message("Category not found"))
		}
		return nil, dbError(err)
	}

	var total int64
	if err := db.GetContext(ctx, &total, "SELECT COUNT(*) FROM posts WHERE category_id = ?", cat.ID); err != nil {
		return nil, dbError(err)
	}
	q := "SELECT " + sc.postColumns(false) + " FROM posts p WHERE p.category_id = ? ORDER BY p.date DESC LIMIT ? OFFSET ?"
	var rows []postRow
	if err := db.SelectContext(ctx, &rows, q, cat.ID, limit, offset); err != nil {
		return nil, dbError(err)
	}
	posts := make([]models.Post, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		p := r.base(site)
		p.Excerpt = r.excerpt(sc, ExcerptLength)
		p.CoverPhoto = optional(sc.HasCoverPhoto, r.CoverPhoto)
		posts = append(posts, p)
	}
	return &CategoryPosts{
		Category: models.CategoryInfo{ID: cat.ID, Name: cat.Name.String, Slug: cat.Slug.String},
		PostList: PostList{Total: total, Posts: posts},
	}, nil
}

// RecentPosts returns the newest posts with short excerpts.
func (s *BlogStore) RecentPosts(ctx context.Context, site string, limit int) ([]models.Post, error) {
	db, sc, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}
	var rows []postRow
	if err := db.SelectContext(ctx, &rows, sc.postQuery("", " LIMIT ?"), limit); err != nil {
		return nil, dbError(err)
	}
	posts := make([]models.Post, 0, len(rows))
	for i := range rows {
		posts = append(posts, rows[i].summary(sc, site, RecentExcerptLength))
	}
	return posts, nil
}

// likeEscaper makes LIKE match the query literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchPosts matches query as a substring of title, content and, when the
// column exists, description.
func (s *BlogStore) SearchPosts(ctx context.Context, site, query string) ([]models.Post, error) {
	db, sc, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}
	pattern := "%" + likeEscaper.Replace(query) + "%"
	fields := []string{"p.title", "p.content"}
	if sc.HasDescription {
		fields = append(fields, "p.description")
	}
	conds := make([]string, len(fields))
	args := make([]interface{}, len(fields))
	for i, f := range fields {
		conds[i] = f + ` LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	var rows []postRow
	if err := db.SelectContext(ctx, &rows, sc.postQuery(strings.Join(conds, " OR "), ""), args...); err != nil {
		return nil, dbError(err)
	}
	posts := make([]models.Post, 0, len(rows))
	for i := range rows {
		posts = append(posts, rows[i].summary(sc, site, ExcerptLength))
	}
	return posts, nil
}

type commentRow struct {
	ID       int64          `db:"id"`
	PostID   sql.NullInt64  `db:"post_id"`
	Author   sql.NullString `db:"author"`
	Email    sql.NullString `db:"email"`
	Content  sql.NullString `db:"content"`
	Date     sql.NullString `db:"date"`
	Approved sql.NullBool   `db:"approved"`
}

// Comments lists comments newest first, optionally for one post. Only
// approved comments are returned when the schema tracks approval.
func (s *BlogStore) Comments(ctx context.Context, postID *int64) ([]models.Comment, error) {
	db, sc, err := s.prepare(ctx)
	if err != nil {
		return nil, err
	}
	cols := "id, post_id, author, email, content, date"
	if sc.HasApproved {
		cols += ", approved"
	}
	var conds []string
	var args []interface{}
	if postID != nil {
		conds = append(conds, "post_id = ?")
		args = append(args, *postID)
	}
	if sc.HasApproved {
		conds = append(conds, "approved = 1")
	}
	q := "SELECT " + cols + " FROM comments"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY date DESC"

	var rows []commentRow
	if err := db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, dbError(err)
	}
	comments := make([]models.Comment, 0, len(rows))
	for _, r := range rows {
		c := models.Comment{
			ID:      r.ID,
			PostID:  r.PostID.Int64,
			Author:  nullString(r.Author),
			Email:   nullString(r.Email),
			Content: nullString(r.Content),
			Date:    nullString(r.Date),
		}
		if sc.HasApproved {
			approved := r.Approved.Valid && r.Approved.Bool
			c.Approved = &approved
		}
		comments = append(comments, c)
	}
	return comments, nil
}
