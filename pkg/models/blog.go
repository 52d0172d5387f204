package models

// CategoryRef is the category embedded in full post listings. Posts without
// a category render all three fields as null.
type CategoryRef struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

// CategoryLabel is the category embedded in recent and search listings.
type CategoryLabel struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

// Post is a blog post. Nil pointer fields are left out: Content and Category
// belong to the full shape only, the optional columns to schemas that have
// them.
type Post struct {
	ID            int64       `json:"id"`
	Slug          string      `json:"slug"`
	Title         string      `json:"title"`
	Content       *OptString  `json:"content,omitempty"`
	Category      interface{} `json:"category,omitempty"`
	Date          *string     `json:"date"`
	URL           string      `json:"url"`
	Excerpt       *string     `json:"excerpt,omitempty"`
	Description   *OptString  `json:"description,omitempty"`
	CoverPhoto    *OptString  `json:"cover_photo,omitempty"`
	Status        *OptString  `json:"status,omitempty"`
	ScheduledDate *OptString  `json:"scheduled_date,omitempty"`
}

// OptString is a nullable column value that is only emitted when its column
// exists. A nil *OptString drops the key, a zero OptString renders null.
type OptString struct {
	Value string
	Valid bool
}

func (o OptString) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return marshalString(o.Value)
}

type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	PostCount int64  `json:"post_count"`
	URL       string `json:"url"`
}

type CategoryInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Comment struct {
	ID       int64   `json:"id"`
	PostID   int64   `json:"post_id"`
	Author   *string `json:"author"`
	Email    *string `json:"email"`
	Content  *string `json:"content"`
	Date     *string `json:"date"`
	Approved *bool   `json:"approved,omitempty"`
}
