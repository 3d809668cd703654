package utils

import "regexp"

// Specific patterns are tried before the generic trailing-segment fallback so
// that URLs like .../restaurant/12345/home resolve to the place id and not
// some unrelated trailing number.
var placeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`m\.place\.naver\.com/(?:restaurant|place|cafe|accommodation|hairshop|hospital|beauty)/(\d+)`),
	regexp.MustCompile(`pcmap\.place\.naver\.com/(?:restaurant|place|cafe|accommodation|hairshop|hospital|beauty)/(\d+)`),
	regexp.MustCompile(`map\.naver\.com/p/entry/place/(\d+)`),
	regexp.MustCompile(`map\.naver\.com/v5/entry/place/(\d+)`),
	regexp.MustCompile(`naver\.me/([A-Za-z0-9]+)$`),
	// Fallback: a bare numeric final path segment.
	regexp.MustCompile(`/(\d+)/?(?:\?.*)?$`),
}

// ExtractProviderPlaceID pulls the provider's storefront id out of a
// submitted URL. Returns "" when no pattern matches.
func ExtractProviderPlaceID(url string) string {
	for _, re := range placeIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}
