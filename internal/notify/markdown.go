package notify

import "strings"

// reservedMarkdown is the fixed set of characters Telegram's MarkdownV2 mode
// treats as markup. Every user-supplied field is escaped before
// interpolation so a provider string can never break message formatting.
const reservedMarkdown = "*_[]()~`>#+-=|{}.!"

var (
	escaper   *strings.Replacer
	unescaper *strings.Replacer
)

func init() {
	esc := make([]string, 0, 2*len(reservedMarkdown))
	unesc := make([]string, 0, 2*len(reservedMarkdown))
	for _, r := range reservedMarkdown {
		esc = append(esc, string(r), `\`+string(r))
		unesc = append(unesc, `\`+string(r), string(r))
	}
	escaper = strings.NewReplacer(esc...)
	unescaper = strings.NewReplacer(unesc...)
}

// EscapeMarkdown escapes every reserved MarkdownV2 character in s.
func EscapeMarkdown(s string) string {
	return escaper.Replace(s)
}

// UnescapeMarkdown reverses EscapeMarkdown.
func UnescapeMarkdown(s string) string {
	return unescaper.Replace(s)
}
