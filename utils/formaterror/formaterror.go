// Package formaterror translates storage-layer failures into the
// {"errors": {field: [messages]}} body the API returns everywhere.
package formaterror

import "strings"

// New builds a single-field error body.
func New(field string, messages ...string) map[string][]string {
	return map[string][]string{field: messages}
}

// FormatError maps a raw database error message onto the response taxonomy.
// Uniqueness violations surface as field-level conflicts; anything else
// collapses to a generic message so driver errors never leak to clients.
func FormatError(err string) map[string][]string {
	lowered := strings.ToLower(err)

	if strings.Contains(lowered, "username") {
		return New("username", "user with this username already exists")
	}
	if strings.Contains(lowered, "email") {
		return New("email", "user with this email already exists")
	}
	if strings.Contains(lowered, "slug") {
		return New("title", "an article with this title already exists")
	}
	if strings.Contains(lowered, "hashedpassword") || strings.Contains(lowered, "password") {
		return New("password", "incorrect password")
	}
	return New("body", "incorrect details")
}

// IsUniqueViolation reports whether a database error looks like a uniqueness
// constraint failure (Postgres and SQLite phrasings).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
