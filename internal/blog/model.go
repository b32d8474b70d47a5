// Package blog is the demo domain served by ormrest: authors and their posts.
package blog

import (
	"database/sql"
)

// Author writes posts. JSON field names match column names.
type Author struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`

	Posts []Post `json:"posts,omitempty"`
}

// Post belongs to an Author through author_id.
type Post struct {
	ID        int64  `json:"id"`
	AuthorID  int64  `json:"author_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
	Archived  bool   `json:"archived"`

	Author *Author `json:"author,omitempty"`
}

var (
	authorColumns = []string{"id", "name", "active"}
	postColumns   = []string{"id", "author_id", "title", "body", "published", "archived"}
)

func scanAuthor(rows *sql.Rows) (Author, error) {
	cols, err := rows.Columns()
	if err != nil {
		return Author{}, err //nolint:wrapcheck // pass through
	}
	var v Author
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			dest[i] = &v.ID
		case "name":
			dest[i] = &v.Name
		case "active":
			dest[i] = &v.Active
		default:
			dest[i] = new(any)
		}
	}
	err = rows.Scan(dest...)
	return v, err //nolint:wrapcheck // pass through
}

func authorColumnValuePairs(v *Author, includesPK bool) ([]string, []any) {
	if includesPK {
		return authorColumns, []any{v.ID, v.Name, v.Active}
	}
	return authorColumns[1:], []any{v.Name, v.Active}
}

func setAuthorPK(v *Author, id int64) { v.ID = id }

func scanPost(rows *sql.Rows) (Post, error) {
	cols, err := rows.Columns()
	if err != nil {
		return Post{}, err //nolint:wrapcheck // pass through
	}
	var v Post
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			dest[i] = &v.ID
		case "author_id":
			dest[i] = &v.AuthorID
		case "title":
			dest[i] = &v.Title
		case "body":
			dest[i] = &v.Body
		case "published":
			dest[i] = &v.Published
		case "archived":
			dest[i] = &v.Archived
		default:
			dest[i] = new(any)
		}
	}
	err = rows.Scan(dest...)
	return v, err //nolint:wrapcheck // pass through
}

func postColumnValuePairs(v *Post, includesPK bool) ([]string, []any) {
	if includesPK {
		return postColumns, []any{v.ID, v.AuthorID, v.Title, v.Body, v.Published, v.Archived}
	}
	return postColumns[1:], []any{v.AuthorID, v.Title, v.Body, v.Published, v.Archived}
}

func setPostPK(v *Post, id int64) { v.ID = id }
