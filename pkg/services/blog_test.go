package services

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"headless-cms/pkg/models"

	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/morikuni/failure"
)

const fullSchema = `
CREATE TABLE categories (id INTEGER PRIMARY KEY, name TEXT, slug TEXT);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY, title TEXT, slug TEXT, content TEXT, category_id INTEGER,
	date TEXT, status TEXT, scheduled_date TEXT, description TEXT, cover_photo TEXT
);
CREATE TABLE comments (
	id INTEGER PRIMARY KEY, post_id INTEGER, author TEXT, email TEXT, content TEXT,
	date TEXT, approved INTEGER
);
INSERT INTO categories (id, name, slug) VALUES (1, 'News', 'news'), (2, 'Go', 'golang'), (3, 'Empty', 'empty');
INSERT INTO posts (id, title, slug, content, category_id, date, status, scheduled_date, description, cover_photo) VALUES
	(1, 'Hello', 'hello', '<p>Hello <b>world</b></p>', 1, '2024-01-01 10:00:00', 'published', NULL, '', 'hello.jpg'),
	(2, 'Gopher Tips', 'gopher', '<p>Use 100% of the runtime</p>', 2, '2024-02-01 10:00:00', 'published', NULL, 'Tips for gophers', NULL),
	(3, 'Orphan', 'orphan', 'No category here', NULL, '2024-03-01 10:00:00', 'draft', '2024-04-01', NULL, NULL);
INSERT INTO comments (id, post_id, author, email, content, date, approved) VALUES
	(1, 1, 'ann', 'ann@example.com', 'Nice', '2024-01-02', 1),
	(2, 1, 'bob', 'bob@example.com', 'Spam', '2024-01-03', 0),
	(3, 2, 'cat', 'cat@example.com', 'Great', '2024-02-02', 1);
`

const legacySchema = `
CREATE TABLE categories (id INTEGER PRIMARY KEY, name TEXT, slug TEXT);
CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT, slug TEXT, content TEXT, category_id INTEGER, date TEXT);
CREATE TABLE comments (id INTEGER PRIMARY KEY, post_id INTEGER, author TEXT, email TEXT, content TEXT, date TEXT);
INSERT INTO categories (id, name, slug) VALUES (1, 'News', 'news');
INSERT INTO posts (id, title, slug, content, category_id, date) VALUES
	(1, 'Hello', 'hello', '<p>Hello</p>', 1, '2024-01-01'),
	(2, 'Later', 'later', '<p>Later</p>', 1, '2024-02-01');
INSERT INTO comments (id, post_id, author, email, content, date) VALUES
	(1, 1, 'ann', 'ann@example.com', 'Nice', '2024-01-02'),
	(2, 2, 'bob', 'bob@example.com', 'Meh', '2024-02-03');
`

func setupBlog(t *testing.T, schema string) *BlogStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blog.db")
	db, err := sqlx.Open(sqliteDriver, path)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("creating schema: %v", err)
	}
	db.Close()

	store := NewBlogStore(path)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBlogStore_Schema(t *testing.T) {
	ctx := context.Background()

	full, err := setupBlog(t, fullSchema).Schema(ctx)
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	if full != (BlogSchema{true, true, true, true, true}) {
		t.Errorf("full schema = %+v", full)
	}

	legacy, err := setupBlog(t, legacySchema).Schema(ctx)
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	if legacy != (BlogSchema{}) {
		t.Errorf("legacy schema = %+v", legacy)
	}
}

func TestBlogStore_Posts(t *testing.T) {
	store := setupBlog(t, fullSchema)

	tests := []struct {
		name          string
		limit, offset int
		want          []string
	}{
		{"first page", 10, 0, []string{"orphan", "gopher", "hello"}},
		{"window", 1, 1, []string{"gopher"}},
		{"past the end", 10, 5, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := store.Posts(context.Background(), testSite, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("Posts() error = %v", err)
			}
			if list.Total != 3 {
				t.Errorf("Total = %d, want 3", list.Total)
			}
			got := make([]string, len(list.Posts))
			for i, p := range list.Posts {
				got[i] = p.Slug
			}
			if !equal(got, tt.want) {
				t.Errorf("slugs = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlogStore_PostFields(t *testing.T) {
	store := setupBlog(t, fullSchema)
	list, err := store.Posts(context.Background(), testSite, 10, 0)
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	orphan, gopher, hello := list.Posts[0], list.Posts[1], list.Posts[2]

	if gopher.URL != "https://example.com/blog/gopher" {
		t.Errorf("URL = %q", gopher.URL)
	}
	if gopher.Excerpt == nil || *gopher.Excerpt != "Tips for gophers" {
		t.Errorf("gopher excerpt = %v, want description", gopher.Excerpt)
	}
	// empty description falls back to the content
	if hello.Excerpt == nil || *hello.Excerpt != "Hello world..." {
		t.Errorf("hello excerpt = %v", hello.Excerpt)
	}
	if hello.CoverPhoto == nil || !hello.CoverPhoto.Valid || hello.CoverPhoto.Value != "hello.jpg" {
		t.Errorf("hello cover = %+v", hello.CoverPhoto)
	}
	if gopher.CoverPhoto == nil || gopher.CoverPhoto.Valid {
		t.Errorf("gopher cover = %+v, want present but null", gopher.CoverPhoto)
	}

	ref, ok := gopher.Category.(*models.CategoryRef)
	if !ok || ref.ID == nil || *ref.ID != 2 || *ref.Slug != "golang" {
		t.Errorf("gopher category = %#v", gopher.Category)
	}
	ref, ok = orphan.Category.(*models.CategoryRef)
	if !ok || ref.ID != nil || ref.Name != nil || ref.Slug != nil {
		t.Errorf("orphan category = %#v, want all null", orphan.Category)
	}
	if orphan.Status == nil || orphan.Status.Value != "draft" {
		t.Errorf("orphan status = %+v", orphan.Status)
	}
	if orphan.ScheduledDate == nil || orphan.ScheduledDate.Value != "2024-04-01" {
		t.Errorf("orphan scheduled = %+v", orphan.ScheduledDate)
	}
}

func TestBlogStore_Post(t *testing.T) {
	store := setupBlog(t, fullSchema)
	ctx := context.Background()

	p, err := store.Post(ctx, testSite, "hello")
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if p.Title != "Hello" || p.Content == nil || p.Content.Value != "<p>Hello <b>world</b></p>" {
		t.Errorf("unexpected post: %+v", p)
	}
	if p.Excerpt != nil {
		t.Errorf("single post carries an excerpt: %q", *p.Excerpt)
	}

	if _, err := store.Post(ctx, testSite, "nope"); !failure.Is(err, ErrNotFound) {
		t.Errorf("Post(nope) error = %v, want NotFound", err)
	}
}

func TestBlogStore_NullContent(t *testing.T) {
	store := setupBlog(t, legacySchema+
		"INSERT INTO posts (id, title, slug, content, category_id, date) VALUES (3, 'Blank', 'blank', NULL, NULL, '2024-03-01');")
	ctx := context.Background()

	p, err := store.Post(ctx, testSite, "blank")
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	out, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"content":null`, `"category":{"id":null,"name":null,"slug":null}`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("post JSON %s lacks %s", out, want)
		}
	}

	list, err := store.Posts(ctx, testSite, 1, 0)
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	if c := list.Posts[0].Content; c == nil || c.Valid {
		t.Errorf("listed content = %+v, want present but null", c)
	}
}

func TestBlogStore_Categories(t *testing.T) {
	store := setupBlog(t, fullSchema)
	cats, err := store.Categories(context.Background(), testSite)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	want := []struct {
		slug  string
		count int64
	}{{"empty", 0}, {"golang", 1}, {"news", 1}}
	if len(cats) != len(want) {
		t.Fatalf("got %d categories, want %d", len(cats), len(want))
	}
	for i, w := range want {
		if cats[i].Slug != w.slug || cats[i].PostCount != w.count {
			t.Errorf("category %d = %+v, want %s/%d", i, cats[i], w.slug, w.count)
		}
	}
	if cats[1].URL != "https://example.com/blog/category/golang" {
		t.Errorf("URL = %q", cats[1].URL)
	}
}

func TestBlogStore_CategoryPosts(t *testing.T) {
	store := setupBlog(t, fullSchema)
	ctx := context.Background()

	res, err := store.CategoryPosts(ctx, testSite, "golang", 10, 0)
	if err != nil {
		t.Fatalf("CategoryPosts() error = %v", err)
	}
	if res.Category.Name != "Go" || res.Total != 1 || len(res.Posts) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	p := res.Posts[0]
	if p.Category != nil || p.Content != nil {
		t.Errorf("category listing carries category or content: %+v", p)
	}

	empty, err := store.CategoryPosts(ctx, testSite, "empty", 10, 0)
	if err != nil {
		t.Fatalf("CategoryPosts(empty) error = %v", err)
	}
	if empty.Total != 0 || len(empty.Posts) != 0 {
		t.Errorf("empty category = %+v", empty)
	}

	if _, err := store.CategoryPosts(ctx, testSite, "nope", 10, 0); !failure.Is(err, ErrNotFound) {
		t.Errorf("CategoryPosts(nope) error = %v, want NotFound", err)
	}
}

func TestBlogStore_RecentPosts(t *testing.T) {
	store := setupBlog(t, fullSchema)
	posts, err := store.RecentPosts(context.Background(), testSite, 2)
	if err != nil {
		t.Fatalf("RecentPosts() error = %v", err)
	}
	if len(posts) != 2 || posts[0].Slug != "orphan" || posts[1].Slug != "gopher" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
	label, ok := posts[1].Category.(*models.CategoryLabel)
	if !ok || label.Name == nil || *label.Name != "Go" {
		t.Errorf("category label = %#v", posts[1].Category)
	}
	if posts[1].Content != nil || posts[1].Status != nil {
		t.Errorf("summary carries full fields: %+v", posts[1])
	}
}

func TestBlogStore_SearchPosts(t *testing.T) {
	store := setupBlog(t, fullSchema)

	tests := []struct {
		query string
		want  []string
	}{
		{"hello", []string{"hello"}},
		{"GOPHERS", []string{"gopher"}},
		{"100%", []string{"gopher"}},
		{"%", []string{"gopher"}},
		{"_", []string{}},
		{"nothing", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			posts, err := store.SearchPosts(context.Background(), testSite, tt.query)
			if err != nil {
				t.Fatalf("SearchPosts() error = %v", err)
			}
			got := make([]string, len(posts))
			for i, p := range posts {
				got[i] = p.Slug
			}
			if !equal(got, tt.want) {
				t.Errorf("SearchPosts(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestBlogStore_Comments(t *testing.T) {
	store := setupBlog(t, fullSchema)
	ctx := context.Background()

	all, err := store.Comments(ctx, nil)
	if err != nil {
		t.Fatalf("Comments() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != 3 || all[1].ID != 1 {
		t.Fatalf("approved comments = %+v", all)
	}
	if all[0].Approved == nil || !*all[0].Approved {
		t.Errorf("Approved = %v, want true", all[0].Approved)
	}

	id := int64(1)
	forPost, err := store.Comments(ctx, &id)
	if err != nil {
		t.Fatalf("Comments(1) error = %v", err)
	}
	if len(forPost) != 1 || *forPost[0].Author != "ann" {
		t.Errorf("comments for post 1 = %+v", forPost)
	}
}

func TestBlogStore_LegacySchema(t *testing.T) {
	store := setupBlog(t, legacySchema)
	ctx := context.Background()

	list, err := store.Posts(ctx, testSite, 10, 0)
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	if list.Total != 2 || list.Posts[0].Slug != "later" {
		t.Fatalf("unexpected posts: %+v", list)
	}
	p := list.Posts[0]
	if p.Description != nil || p.CoverPhoto != nil || p.Status != nil || p.ScheduledDate != nil {
		t.Errorf("legacy post carries optional columns: %+v", p)
	}
	if p.Excerpt == nil || *p.Excerpt != "Later..." {
		t.Errorf("Excerpt = %v", p.Excerpt)
	}

	// without an approval column every comment is public
	comments, err := store.Comments(ctx, nil)
	if err != nil {
		t.Fatalf("Comments() error = %v", err)
	}
	if len(comments) != 2 || comments[0].Approved != nil {
		t.Errorf("legacy comments = %+v", comments)
	}

	found, err := store.SearchPosts(ctx, testSite, "hello")
	if err != nil || len(found) != 1 {
		t.Errorf("SearchPosts() = %v, %v", found, err)
	}
}

func TestBlogStore_Unavailable(t *testing.T) {
	store := NewBlogStore(filepath.Join(t.TempDir(), "blog.db"))
	ctx := context.Background()

	if store.Exists() {
		t.Fatal("Exists() = true for a missing file")
	}
	if _, err := store.Posts(ctx, testSite, 10, 0); !failure.Is(err, ErrBlogUnavailable) {
		t.Errorf("Posts() error = %v, want BlogUnavailable", err)
	}
	if _, err := store.Comments(ctx, nil); !failure.Is(err, ErrBlogUnavailable) {
		t.Errorf("Comments() error = %v, want BlogUnavailable", err)
	}
}

func TestBlogStore_RemovedAfterOpen(t *testing.T) {
	store := setupBlog(t, legacySchema)
	ctx := context.Background()
	if _, err := store.Posts(ctx, testSite, 10, 0); err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	if err := os.Remove(store.Path); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Posts(ctx, testSite, 10, 0); !failure.Is(err, ErrBlogUnavailable) {
		t.Errorf("Posts() after removal error = %v, want BlogUnavailable", err)
	}
}

func TestReadOnlyDSN(t *testing.T) {
	const query = "?mode=ro&_pragma=busy_timeout(5000)"
	tests := map[string]string{
		"/srv/data/other/blog.db": "file:///srv/data/other/blog.db" + query,
		"/srv/site?v=2#a/blog.db": "file:///srv/site%3Fv=2%23a/blog.db" + query,
	}
	for path, want := range tests {
		if got := readOnlyDSN(path); got != want {
			t.Errorf("readOnlyDSN(%q) = %q, want %q", path, got, want)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := (&url.URL{Scheme: "file", Path: filepath.Join(wd, "data", "blog.db")}).String() + query
	if got := readOnlyDSN("data/blog.db"); got != want {
		t.Errorf("relative path = %q, want %q", got, want)
	}
}

func TestBlogStore_OddDataDir(t *testing.T) {
	built := setupBlog(t, legacySchema)
	built.Close()

	odd := filepath.Join(t.TempDir(), "site?v=2#a")
	if err := os.Rename(filepath.Dir(built.Path), odd); err != nil {
		t.Fatal(err)
	}
	store := NewBlogStore(filepath.Join(odd, "blog.db"))
	defer store.Close()

	list, err := store.Posts(context.Background(), testSite, 10, 0)
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	if list.Total != 2 {
		t.Errorf("Total = %d, want 2", list.Total)
	}
}
