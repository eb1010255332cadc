package models

import "time"

// Article is a business-news article that passed the finance relevance filter.
// Fetchers construct it once; nothing mutates it afterwards.
type Article struct {
	Title       string    `json:"title"        yaml:"title"`
	Content     string    `json:"content"      yaml:"content"`
	Source      string    `json:"source"       yaml:"source"`
	URL         string    `json:"url"          yaml:"url"`
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
}

// NewArticle validates the required fields and returns an Article.
// Title and URL must be present; content may be empty.
func NewArticle(title, content, source, url string, publishedAt time.Time) (Article, error) {
	if title == "" {
		return Article{}, &MissingFieldError{Field: "title"}
	}
	if url == "" {
		return Article{}, &MissingFieldError{Field: "url"}
	}
	if publishedAt.IsZero() {
		return Article{}, &MissingFieldError{Field: "published"}
	}
	if source == "" {
		source = "Unknown"
	}
	return Article{
		Title:       title,
		Content:     content,
		Source:      source,
		URL:         url,
		PublishedAt: publishedAt,
	}, nil
}
