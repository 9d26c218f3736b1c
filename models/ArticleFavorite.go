package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArticleFavorite struct {
	ArticleID uint      `gorm:"primaryKey;autoIncrement:false" json:"article_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Favorite marks the article for the user. Re-favoriting is a no-op.
func (f *ArticleFavorite) Favorite(db *gorm.DB, articleID, userID uint) error {
	favorite := ArticleFavorite{ArticleID: articleID, UserID: userID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&favorite).Error
}

// Unfavorite removes the mark; removing an absent one is a no-op.
func (f *ArticleFavorite) Unfavorite(db *gorm.DB, articleID, userID uint) error {
	return db.Where("article_id = ? AND user_id = ?", articleID, userID).
		Delete(&ArticleFavorite{}).Error
}

func (f *ArticleFavorite) FavoritesCount(db *gorm.DB, articleID uint) (int64, error) {
	var count int64
	err := db.Model(&ArticleFavorite{}).
		Where("article_id = ?", articleID).
		Count(&count).Error
	return count, err
}

func (f *ArticleFavorite) IsFavorited(db *gorm.DB, articleID, userID uint) (bool, error) {
	var count int64
	err := db.Model(&ArticleFavorite{}).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
