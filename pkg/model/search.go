package model

import "strings"

// FilterByKeywords returns the items containing any keyword, ignoring case.
// With parsePhrases, keywords containing spaces are split into words.
func FilterByKeywords(items, keywords []string, parsePhrases bool) []string {
	kws := normalizeKeywords(keywords, parsePhrases)
	var out []string
	for _, it := range items {
		if anyKeyword(strings.ToUpper(it), kws) {
			out = append(out, it)
		}
	}
	return out
}

// FilterObjects returns the objects whose display name contains any
// keyword, ignoring case.
func FilterObjects[T Object](objs []T, keywords []string, parsePhrases bool) []T {
	kws := normalizeKeywords(keywords, parsePhrases)
	var out []T
	for _, o := range objs {
		if anyKeyword(strings.ToUpper(o.DisplayName()), kws) {
			out = append(out, o)
		}
	}
	return out
}

// AnyKeywordIn reports whether name contains any keyword, ignoring case.
func AnyKeywordIn(name string, keywords []string) bool {
	return anyKeyword(strings.ToUpper(name), normalizeKeywords(keywords, false))
}

func normalizeKeywords(keywords []string, parsePhrases bool) []string {
	var out []string
	for _, kw := range keywords {
		if parsePhrases {
			out = append(out, strings.Fields(strings.ToUpper(kw))...)
		} else {
			out = append(out, strings.ToUpper(kw))
		}
	}
	return out
}

func anyKeyword(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
