package models

import (
	"errors"
	"html"
	"strings"
	"time"

	"conduit/security"

	"github.com/badoux/checkmail"
	"gorm.io/gorm"
)

type User struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	Username  string    `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"password,omitempty"`
	Bio       string    `gorm:"size:1024;not null;default:''" json:"bio"`
	Image     string    `gorm:"size:512" json:"image"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// HashPassword replaces the plaintext password with its bcrypt hash. It is
// called explicitly on the write paths; there is no save hook doing it
// behind the caller's back.
func (u *User) HashPassword() error {
	hashedPassword, err := security.Hash(u.Password)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) Prepare() {
	u.Username = html.EscapeString(strings.ToLower(strings.TrimSpace(u.Username)))
	u.Email = html.EscapeString(strings.ToLower(strings.TrimSpace(u.Email)))
	u.Bio = strings.TrimSpace(u.Bio)
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
}

func (u *User) Validate(action string) map[string][]string {
	var errorMessages = make(map[string][]string)

	switch strings.ToLower(action) {
	case "login":
		if u.Password == "" {
			errorMessages["password"] = []string{"password is required"}
		}
		if u.Email == "" {
			errorMessages["email"] = []string{"email is required"}
		} else if err := checkmail.ValidateFormat(u.Email); err != nil {
			errorMessages["email"] = []string{"invalid email"}
		}
	case "update":
		if u.Email != "" {
			if err := checkmail.ValidateFormat(u.Email); err != nil {
				errorMessages["email"] = []string{"invalid email"}
			}
		}
		if u.Password != "" && len(u.Password) < 6 {
			errorMessages["password"] = []string{"password should be at least 6 characters"}
		}
	default:
		if u.Username == "" {
			errorMessages["username"] = []string{"username is required"}
		}
		if u.Password == "" {
			errorMessages["password"] = []string{"password is required"}
		} else if len(u.Password) < 6 {
			errorMessages["password"] = []string{"password should be at least 6 characters"}
		}
		if u.Email == "" {
			errorMessages["email"] = []string{"email is required"}
		} else if err := checkmail.ValidateFormat(u.Email); err != nil {
			errorMessages["email"] = []string{"invalid email"}
		}
	}
	return errorMessages
}

// IsUnique reports whether no user exists with this email or username.
// The unique indexes remain the authority; this only exists to give racing
// registrations a clean error message before the insert is attempted.
func (u *User) IsUnique(db *gorm.DB) (bool, error) {
	var count int64
	err := db.Model(&User{}).
		Where("email = ? OR username = ?", u.Email, u.Username).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (u *User) SaveUser(db *gorm.DB) (*User, error) {
	if err := u.HashPassword(); err != nil {
		return nil, err
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) FindUserByID(db *gorm.DB, uid uint) (*User, error) {
	var user User
	err := db.Where("id = ?", uid).Take(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *User) FindUserByUsername(db *gorm.DB, username string) (*User, error) {
	var user User
	err := db.Where("username = ?", strings.ToLower(username)).Take(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *User) FindUserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	err := db.Where("lower(email) = ?", strings.ToLower(email)).Take(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateAUser applies only the provided columns to the user row and reloads
// it. Callers are expected to have hashed any password value already.
func (u *User) UpdateAUser(db *gorm.DB, uid uint, updates map[string]interface{}) (*User, error) {
	if len(updates) == 0 {
		return u.FindUserByID(db, uid)
	}
	updates["updated_at"] = time.Now()

	result := db.Model(&User{}).Where("id = ?", uid).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return u.FindUserByID(db, uid)
}

// TakenBy reports which of email/username is already held by a different
// user, for the update path's per-field conflict messages.
func (u *User) TakenBy(db *gorm.DB, field, value string, excludeID uint) (bool, error) {
	if field != "email" && field != "username" {
		return false, errors.New("unknown uniqueness field")
	}
	var count int64
	err := db.Model(&User{}).
		Where(field+" = ? AND id <> ?", strings.ToLower(value), excludeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
