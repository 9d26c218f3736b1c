package models

import (
	"html"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ArticleComment ids are plain autoincrement integers; listing order comes
// from created_at, not the id.
type ArticleComment struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Author    User      `gorm:"foreignKey:UserID" json:"author"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (c *ArticleComment) Prepare() {
	c.ID = 0
	c.Body = html.EscapeString(strings.TrimSpace(c.Body))
	c.Author = User{}
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
}

func (c *ArticleComment) Validate() map[string][]string {
	var errorMessages = make(map[string][]string)

	if c.Body == "" {
		errorMessages["body"] = []string{"body is required"}
	}
	return errorMessages
}

func (c *ArticleComment) SaveComment(db *gorm.DB) (*ArticleComment, error) {
	if err := db.Create(&c).Error; err != nil {
		return nil, err
	}
	if err := db.Model(c).Association("Author").Find(&c.Author); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ArticleComment) GetComments(db *gorm.DB, articleID uint) (*[]ArticleComment, error) {
	comments := []ArticleComment{}
	err := db.Preload("Author").Where("article_id = ?", articleID).
		Order("created_at desc").Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return &comments, nil
}

// DeleteComment is scoped to the comment's author. A zero count means the
// comment is absent or owned by someone else; either way the caller sees
// "not found", never the reason.
func (c *ArticleComment) DeleteComment(db *gorm.DB, articleID, commentID, requesterID uint) (int64, error) {
	result := db.Where("id = ? AND article_id = ? AND user_id = ?", commentID, articleID, requesterID).
		Delete(&ArticleComment{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
