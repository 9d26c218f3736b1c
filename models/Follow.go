package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSelfFollow is returned when a user tries to follow themselves. The
// Postgres schema carries a matching CHECK constraint.
var ErrSelfFollow = errors.New("cannot follow yourself")

type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowedID uint      `gorm:"primaryKey;autoIncrement:false;index:idx_follows_followed_created,priority:1" json:"followed_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_follows_followed_created,priority:2" json:"created_at"`
}

// FollowUser inserts the relationship, ignoring duplicates.
func (f *Follow) FollowUser(db *gorm.DB, followerID, followedID uint) error {
	if followerID == followedID {
		return ErrSelfFollow
	}
	follow := Follow{FollowerID: followerID, FollowedID: followedID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error
}

// UnfollowUser deletes the relationship; deleting an absent row is a no-op.
func (f *Follow) UnfollowUser(db *gorm.DB, followerID, followedID uint) error {
	return db.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&Follow{}).Error
}

func (f *Follow) IsFollowing(db *gorm.DB, followerID, followedID uint) (bool, error) {
	var count int64
	err := db.Model(&Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FollowedUserIDs lists the ids the given user follows, for feed composition.
func (f *Follow) FollowedUserIDs(db *gorm.DB, followerID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
