package utils

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var nonAlnum = regexp.MustCompile("[^a-z0-9]+")

func Slugify(s string) string {
	s = strings.ToLower(s)
	// German umlauts are common in names and organizations
	s = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss").Replace(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ProfileSlug builds a unique, URL-safe profile slug from a display name.
func ProfileSlug(name string) string {
	suffix := primitive.NewObjectID().Hex()[18:]
	base := Slugify(name)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
