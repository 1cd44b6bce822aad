package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Article is the canonical, provider independent news item.
type Article struct {
	ID              string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title           string                      `gorm:"not null;index" json:"title"`
	Description     string                      `gorm:"type:text;not null" json:"description"`
	Content         string                      `gorm:"type:text" json:"content,omitempty"`
	URL             string                      `gorm:"uniqueIndex;not null" json:"url"`
	ImageURL        string                      `json:"imageUrl,omitempty"`
	Author          string                      `json:"author,omitempty"`
	Source          string                      `gorm:"not null;index" json:"source"`
	PublishedAt     time.Time                   `gorm:"not null;index" json:"publishedAt"`
	FetchedAt       time.Time                   `gorm:"not null;index" json:"fetchedAt"`
	Topic           Topic                       `gorm:"type:varchar(32);not null;index" json:"topic"`
	PositivityScore int                         `gorm:"not null;index" json:"positivityScore"`
	Keywords        datatypes.JSONSlice[string] `json:"keywords"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime" json:"-"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime" json:"-"`
}

// TableName specifies the table name for the Article model.
func (Article) TableName() string {
	return "articles"
}

// BeforeCreate assigns an id to rows built outside an adapter.
func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// NewArticle builds an unscored Article with a fresh id and fetch timestamp.
func NewArticle(title, description, url string, publishedAt time.Time, topic Topic) Article {
	return Article{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		URL:         url,
		PublishedAt: publishedAt,
		FetchedAt:   time.Now(),
		Topic:       topic.OrAll(),
		Keywords:    datatypes.JSONSlice[string]{},
	}
}

// AddKeywords appends keywords that are not already present, preserving order.
func (a *Article) AddKeywords(keywords ...string) {
	seen := make(map[string]struct{}, len(a.Keywords)+len(keywords))
	for _, k := range a.Keywords {
		seen[k] = struct{}{}
	}
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		a.Keywords = append(a.Keywords, k)
	}
}
