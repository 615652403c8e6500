package model

// FeedItem is one parsed feed entry before enrichment.
type FeedItem struct {
	Title       string
	Link        string
	Description string
}

// Article is the response shape. Tags is never nil once enriched.
type Article struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func NewArticle(id int, item FeedItem, tags []string) Article {
	if tags == nil {
		tags = []string{}
	}
	return Article{
		ID:          id,
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Tags:        tags,
	}
}
