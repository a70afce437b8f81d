package render

import (
	"net/url"
	"strconv"
	"strings"
)

// PlaceholderSize is the pixel size requested from the placeholder service.
const PlaceholderSize = 40

// AvatarURL resolves a profile image: an absolute picture, then a picture
// relative to origin, then an absolute avatar, then a generated placeholder
// keyed by name.
func AvatarURL(origin, picture, avatar, name string) string {
	if isAbsolute(picture) {
		return picture
	}
	if picture != "" {
		return joinOrigin(origin, picture)
	}
	if isAbsolute(avatar) {
		return avatar
	}
	return Placeholder(name)
}

// Placeholder returns the generated initials avatar for name.
func Placeholder(name string) string {
	if name == "" {
		name = "User"
	}
	return "https://ui-avatars.com/api/?name=" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20") +
		"&background=random&color=fff&size=" + strconv.Itoa(PlaceholderSize)
}

// ImageURL resolves a message or review image reference against origin.
func ImageURL(origin, ref string) string {
	if ref == "" || isAbsolute(ref) {
		return ref
	}
	return joinOrigin(origin, ref)
}

func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func joinOrigin(origin, ref string) string {
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(ref, "/")
}
