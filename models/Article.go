package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"
)

// TagList stores an article's tags as a JSON-encoded text column so the same
// schema works on Postgres and the sqlite test driver.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		t = TagList{}
	}
	encoded, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = TagList{}
		return nil
	}
	switch v := value.(type) {
	case string:
		return json.Unmarshal([]byte(v), t)
	case []byte:
		return json.Unmarshal(v, t)
	default:
		return fmt.Errorf("cannot scan %T into TagList", value)
	}
}

// Slugify lowers and hyphenates a title into its URL identifier.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

type Article struct {
	ID          uint      `gorm:"primary_key;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Author      User      `gorm:"foreignKey:UserID" json:"author"`
	Slug        string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"size:1024;not null" json:"description"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	TagList     TagList   `gorm:"type:text;not null" json:"tag_list"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ArticleFilters are the query parameters accepted by list and feed.
type ArticleFilters struct {
	Tag       string
	Author    string
	Favorited string
	Limit     int
	Offset    int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Clamp normalizes limit and offset: defaults applied, negatives zeroed,
// both capped at 100. Out-of-range values never error.
func (f *ArticleFilters) Clamp() {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Offset > maxPageSize {
		f.Offset = maxPageSize
	}
}

// Prepare derives the slug and normalizes tags. The slug is computed here,
// at creation, and never again: later title updates leave it untouched.
func (a *Article) Prepare() {
	a.Title = html.EscapeString(strings.TrimSpace(a.Title))
	a.Description = html.EscapeString(strings.TrimSpace(a.Description))
	a.Body = strings.TrimSpace(a.Body)
	a.Slug = Slugify(a.Title)
	if a.TagList == nil {
		a.TagList = TagList{}
	}
	sort.Strings(a.TagList)
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
}

func (a *Article) Validate() map[string][]string {
	var errorMessages = make(map[string][]string)

	if a.Title == "" {
		errorMessages["title"] = []string{"title is required"}
	} else if a.Slug == "" {
		errorMessages["title"] = []string{"title must contain at least one letter or digit"}
	}
	if a.Description == "" {
		errorMessages["description"] = []string{"description is required"}
	}
	if a.Body == "" {
		errorMessages["body"] = []string{"body is required"}
	}
	if a.UserID == 0 {
		errorMessages["author"] = []string{"author is required"}
	}
	return errorMessages
}

func (a *Article) SaveArticle(db *gorm.DB) (*Article, error) {
	if err := db.Create(&a).Error; err != nil {
		return nil, err
	}
	if err := db.Model(a).Association("Author").Find(&a.Author); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Article) FindArticleBySlug(db *gorm.DB, slug string) (*Article, error) {
	var article Article
	err := db.Preload("Author").Where("slug = ?", slug).Take(&article).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// UpdateArticle applies only the provided columns, scoped to the owning
// user. An article owned by someone else behaves exactly like a missing one.
func (a *Article) UpdateArticle(db *gorm.DB, slug string, ownerID uint, updates map[string]interface{}) (*Article, error) {
	updates["updated_at"] = time.Now()

	result := db.Model(&Article{}).
		Where("slug = ? AND user_id = ?", slug, ownerID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return a.FindArticleBySlug(db, slug)
}

// DeleteArticle removes an owner's article along with its favorites and
// comments. The returned count is zero when the slug does not exist or
// belongs to another user; the caller decides what that means.
func (a *Article) DeleteArticle(db *gorm.DB, slug string, ownerID uint) (int64, error) {
	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var article Article
		err := tx.Where("slug = ? AND user_id = ?", slug, ownerID).Take(&article).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", article.ID).Delete(&ArticleFavorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", article.ID).Delete(&ArticleComment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Article{}, article.ID)
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

// ListArticles returns one page, newest first, with authors resolved.
// Unknown author/favorited usernames yield an empty page rather than
// silently dropping the filter.
func (a *Article) ListArticles(db *gorm.DB, filters ArticleFilters) ([]Article, error) {
	filters.Clamp()
	query := db.Model(&Article{}).Preload("Author")

	if filters.Tag != "" {
		// Tags are stored JSON-encoded, so a contained tag appears quoted.
		encoded, err := json.Marshal(filters.Tag)
		if err != nil {
			return nil, err
		}
		query = query.Where("tag_list LIKE ?", "%"+string(encoded)+"%")
	}
	if filters.Author != "" {
		author, err := (&User{}).FindUserByUsername(db, filters.Author)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []Article{}, nil
			}
			return nil, err
		}
		query = query.Where("articles.user_id = ?", author.ID)
	}
	if filters.Favorited != "" {
		favoriter, err := (&User{}).FindUserByUsername(db, filters.Favorited)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []Article{}, nil
			}
			return nil, err
		}
		query = query.
			Joins("JOIN article_favorites ON article_favorites.article_id = articles.id").
			Where("article_favorites.user_id = ?", favoriter.ID)
	}

	articles := []Article{}
	err := query.
		Order("articles.created_at desc").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// FeedArticles restricts the listing to authors the viewer follows.
func (a *Article) FeedArticles(db *gorm.DB, viewerID uint, filters ArticleFilters) ([]Article, error) {
	filters.Clamp()

	followedIDs, err := (&Follow{}).FollowedUserIDs(db, viewerID)
	if err != nil {
		return nil, err
	}
	if len(followedIDs) == 0 {
		return []Article{}, nil
	}

	articles := []Article{}
	err = db.Model(&Article{}).Preload("Author").
		Where("user_id IN ?", followedIDs).
		Order("created_at desc").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// DistinctTags flattens every article's tag list into a sorted, de-duplicated
// slice. Decoding happens here because the tags live in a JSON text column.
func (a *Article) DistinctTags(db *gorm.DB) ([]string, error) {
	var rows []TagList
	if err := db.Model(&Article{}).Pluck("tag_list", &rows).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	tags := []string{}
	for _, row := range rows {
		for _, tag := range row {
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}
