package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Budget for cleaned reference content handed to the copy prompt. The main
// place-analysis path forwards raw markdown and does not go through here.
const cleanedMarkdownMaxLen = 8000

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	htmlEntityRe = regexp.MustCompile(`&[a-zA-Z#0-9]+;`)
	mdImageRe    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
	multiLineRe  = regexp.MustCompile(`\n{3,}`)
)

// Navigation/boilerplate lines the scrape provider leaves in Naver pages.
var boilerplatePatterns = []string{
	"네이버 지도",
	"지도에서 보기",
	"로그인",
	"메뉴 바로가기",
	"본문 바로가기",
	"이전 페이지",
	"다음 페이지",
	"더보기",
	"펼쳐보기",
	"NAVER Corp.",
}

// CleanMarkdown strips scrape noise from reference-page markdown: HTML tags
// and entities, image/link wrappers, known navigation boilerplate, then
// collapses whitespace and truncates to the prompt budget.
func CleanMarkdown(md string) string {
	s := mdImageRe.ReplaceAllString(md, "")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = htmlEntityRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isBoilerplate(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	s = strings.Join(kept, "\n")

	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = multiLineRe.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	return TruncateUTF8(s, cleanedMarkdownMaxLen)
}

// TruncateUTF8 caps s at max bytes without splitting a rune; Korean page
// content is three bytes per character, so a plain byte slice could leave
// invalid UTF-8 at the cut.
func TruncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func isBoilerplate(line string) bool {
	if line == "" {
		return false
	}
	for _, p := range boilerplatePatterns {
		if line == p {
			return true
		}
	}
	return false
}

// TruncateError caps persisted provider error text at the 255-char column
// budget; raw text stays in the logs only.
func TruncateError(msg string) string {
	const max = 255
	r := []rune(msg)
	if len(r) <= max {
		return msg
	}
	return string(r[:max])
}
