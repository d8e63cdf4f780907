package validation

// TitleLimit is the number of characters kept when deriving a title from a prompt
const TitleLimit = 50

// TruncateTitle keeps the first 50 characters of s and appends "..." when anything was cut
func TruncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= TitleLimit {
		return s
	}
	return string(runes[:TitleLimit]) + "..."
}
