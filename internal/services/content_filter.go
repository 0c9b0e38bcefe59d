package services

import (
	"fmt"
	"regexp"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
)

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"scam", "scammer", "phishing", "malware",
}

// ContentFilter screens report text before it is stored. Patterns are
// compiled once and only read afterwards.
type ContentFilter struct {
	bannedWordRegexps   []*regexp.Regexp
	urlPattern          *regexp.Regexp
	repeatedCharPattern *regexp.Regexp
}

func NewContentFilter() *ContentFilter {
	f := &ContentFilter{
		bannedWordRegexps: make([]*regexp.Regexp, 0, len(BannedWords)),
		urlPattern:        regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`),
		repeatedCharPattern: regexp.MustCompile(`(?i)(a{5,}|b{5,}|c{5,}|d{5,}|e{5,}|f{5,}|g{5,}|h{5,}|i{5,}|j{5,}|k{5,}|l{5,}|m{5,}|n{5,}|o{5,}|p{5,}|q{5,}|r{5,}|s{5,}|t{5,}|u{5,}|v{5,}|w{5,}|x{5,}|y{5,}|z{5,}|!{5,}|\?{5,})`),
	}
	for _, word := range BannedWords {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		if err == nil {
			f.bannedWordRegexps = append(f.bannedWordRegexps, re)
		}
	}
	return f
}

// FilterContent returns false and a reason code when text is rejected.
func (f *ContentFilter) FilterContent(text string) (bool, string) {
	if text == "" {
		return true, ""
	}
	for _, re := range f.bannedWordRegexps {
		if re.MatchString(text) {
			return false, "inappropriate_language"
		}
	}
	if f.urlPattern.MatchString(text) {
		return false, "url_not_allowed"
	}
	if f.repeatedCharPattern.MatchString(text) {
		return false, "spam_detected"
	}
	return true, ""
}

// Check wraps the first rejection among fields in matching.ErrValidation.
func (f *ContentFilter) Check(fields ...string) error {
	for _, text := range fields {
		if ok, reason := f.FilterContent(text); !ok {
			return fmt.Errorf("%w: %s", matching.ErrValidation, RejectionMessage(reason))
		}
	}
	return nil
}

func RejectionMessage(reason string) string {
	messages := map[string]string{
		"inappropriate_language": "report contains inappropriate language",
		"url_not_allowed":        "URLs and web links are not allowed",
		"spam_detected":          "report text appears to be spam",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "report does not meet our content guidelines"
}
