package chat

import "strings"

// imageKeywords trigger the image path when any appears in the prompt
var imageKeywords = []string{
	"generate image",
	"create image",
	"draw",
	"paint",
	"sketch",
	"image of",
	"picture of",
	"photo of",
	"illustration of",
	"visualize",
	"show me",
	"design",
}

// IsImageRequest reports whether content asks for a picture.
// It is a case-insensitive substring match, so "withdraw" also counts.
func IsImageRequest(content string) bool {
	lower := strings.ToLower(content)
	for _, keyword := range imageKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
