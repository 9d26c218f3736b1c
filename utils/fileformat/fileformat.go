package fileformat

import (
	"path/filepath"
	"strings"

	"github.com/twinj/uuid"
)

// UniqueFormat turns an uploaded filename into a collision-free object name,
// keeping the original extension.
func UniqueFormat(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return uuid.NewV4().String() + ext
}
