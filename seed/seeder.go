package seed

import (
	"conduit/models"

	"gorm.io/gorm"
)

var users = []models.User{
	{
		Username: "steven",
		Email:    "steven@example.com",
		Password: "password",
		Bio:      "I write about Go.",
	},
	{
		Username: "martin",
		Email:    "luther@example.com",
		Password: "password",
		Bio:      "Occasional author.",
	},
}

var articles = []models.Article{
	{
		Title:       "Welcome to Conduit",
		Description: "A quick tour of the API",
		Body:        "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
		TagList:     models.TagList{"introduction", "welcome"},
	},
	{
		Title:       "Writing Articles",
		Description: "How articles, tags and favorites fit together",
		Body:        "Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat.",
		TagList:     models.TagList{"articles", "howto"},
	},
}

// Load inserts demo users and articles for local development. Existing
// rows with the same usernames make the whole load a no-op.
func Load(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := range users {
		users[i].Prepare()
		if _, err := users[i].SaveUser(db); err != nil {
			return err
		}

		articles[i].UserID = users[i].ID
		articles[i].Prepare()
		if _, err := articles[i].SaveArticle(db); err != nil {
			return err
		}
	}
	return nil
}
