package notify

import "strings"

// markdownV2Specials are the characters the Telegram MarkdownV2 style
// requires escaping with a preceding backslash.
// See: https://core.telegram.org/bots/api#markdownv2-style
const markdownV2Specials = "_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 escapes user-influenced text so that the alert's own
// formatting markup cannot be corrupted or break the platform's parser.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 128 && strings.ContainsRune(markdownV2Specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
