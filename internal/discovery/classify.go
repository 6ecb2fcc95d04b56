package discovery

import (
	"path/filepath"
	"strings"
)

// Category is the bucket a discovered file lands in.
type Category string

const (
	CategoryCSS   Category = "css"
	CategoryHTML  Category = "html"
	CategoryOther Category = "other"
)

// Categories lists every category in the fixed order used when flattening a Result.
var Categories = []Category{CategoryCSS, CategoryHTML, CategoryOther}

// Classify derives the category of a path from its lowercased extension.
func Classify(path string) Category {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".css":
		return CategoryCSS
	case ".html", ".htm":
		return CategoryHTML
	default:
		return CategoryOther
	}
}
