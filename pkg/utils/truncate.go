package utils

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// CountChars counts unicode code points, the unit message length limits are expressed in.
func CountChars(s string) int {
	return utf8.RuneCountInString(s)
}

// TruncateRunes keeps the first maxLength runes of content and marks the cut with an ellipsis.
func TruncateRunes(content string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	runes := []rune(content)
	if len(runes) <= maxLength {
		return content
	}
	return strings.TrimRightFunc(string(runes[:maxLength]), isSpace) + ellipsis
}

// SessionTitle 取用户首条消息的前 n 个字符作为会话标题
func SessionTitle(firstMessage string, n int) string {
	title := strings.Join(strings.Fields(firstMessage), " ")
	return TruncateRunes(title, n)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
