// Package enhance applies the cosmetic text rules that turn a raw channel
// post into a forward-ready deal message. Every rule is a pure string
// transformation and the rule order is fixed, so identical input always
// produces identical output.
package enhance

import (
	"regexp"
	"strings"
	"unicode"
)

// Lines appended by the closing rules.
const (
	CallToActionLine = "🛒 **Shop Now & Save!**"
	UrgencyLine      = "⚡ **Limited Time Offer!**"
	TrustBadgeLine   = "✅ **Amazon Verified Product**"
)

// attentionEmojis are the leading emojis that suppress the opening 🔥.
var attentionEmojis = []string{"🎉", "🔥", "⚡", "📱", "💻", "🎧", "📷", "📺"}

// keywordEmojis highlight deal vocabulary and currency/percentage amounts.
// Each row inserts its emoji in front of every match that is not already
// marked, so re-enhanced text never stacks emojis.
var keywordEmojis = []struct {
	re    *regexp.Regexp
	emoji string
}{
	{regexp.MustCompile(`(?i)\b(deal|offer|sale)\b`), "🔥"},
	{regexp.MustCompile(`(?i)\b(discount|save)\b`), "💸"},
	{regexp.MustCompile(`(?i)\b(price|cost)\b`), "💰"},
	{regexp.MustCompile(`(?i)\b(limited|hurry|quick)\b`), "⚡"},
	{regexp.MustCompile(`(?i)\b(free|bonus|extra)\b`), "🎁"},
	{regexp.MustCompile(`(?i)\b(quality|premium|exclusive)\b`), "✨"},
	{regexp.MustCompile(`(?i)\b(amazing|great|best|top)\b`), "⭐"},
	{regexp.MustCompile(`(?i)\b(review|rating)\b`), "⭐"},
	{regexp.MustCompile(`(?i)\b(guarantee|warranty)\b`), "🛡️"},
	{regexp.MustCompile(`(?i)\b(new|latest|updated)\b`), "🆕"},
	{regexp.MustCompile(`₹\s?\d[\d,]*|\b\d{1,3}%`), "💸"},
}

var (
	ctaPhrases     = []string{"buy now", "shop now", "get it", "grab it", "order now", "check out"}
	dealWords      = []string{"deal", "offer", "sale", "discount", "price"}
	urgencyWords   = []string{"limited", "hurry"}
	numberedListRe = regexp.MustCompile(`(\d+\.)`)
	boldSegmentRe  = regexp.MustCompile(`\*\*[^*]+\*\*`)
)

// rules in application order. Order matters only for the leading emoji rule,
// which must run before keyword emojis change the first character.
var rules = []func(string) string{
	leadingAttention,
	injectKeywordEmojis,
	breakNumberedLists,
	breakBoldSegments,
	appendCallToAction,
	appendUrgency,
	appendTrustBadge,
}

// Enhance runs the full rule set over text.
func Enhance(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	for _, rule := range rules {
		text = rule(text)
	}
	return strings.TrimSpace(text)
}

func leadingAttention(text string) string {
	for _, e := range attentionEmojis {
		if strings.HasPrefix(text, e) {
			return text
		}
	}
	return "🔥 " + text
}

func injectKeywordEmojis(text string) string {
	for _, ke := range keywordEmojis {
		text = injectEmoji(text, ke.re, ke.emoji)
	}
	return text
}

// injectEmoji prefixes every match of re with emoji unless the match is
// already preceded by it.
func injectEmoji(text string, re *regexp.Regexp, emoji string) string {
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	marker := emoji + " "
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		if !strings.HasSuffix(text[:m[0]], marker) {
			b.WriteString(marker)
		}
		b.WriteString(text[m[0]:m[1]])
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// breakNumberedLists puts each "1." style item on its own line.
func breakNumberedLists(text string) string {
	if !numberedListRe.MatchString(text) {
		return text
	}
	return numberedListRe.ReplaceAllString(text, "\n$1")
}

// breakBoldSegments puts each **bold** segment on its own line. Segments
// already at a line start, or led only by an emoji marker, stay where they
// are, so enhanced text is stable under a second pass.
func breakBoldSegments(text string) string {
	matches := boldSegmentRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		if midLine(text, m[0]) {
			b.WriteString("\n")
		}
		b.WriteString(text[m[0]:m[1]])
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// midLine reports whether pos sits after sentence text on its line rather
// than at the line start or behind a short emoji marker.
func midLine(text string, pos int) bool {
	lineStart := strings.LastIndexByte(text[:pos], '\n') + 1
	prefix := strings.TrimSpace(text[lineStart:pos])
	if prefix == "" {
		return false
	}
	for _, r := range prefix {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func appendCallToAction(text string) string {
	if containsAny(text, ctaPhrases) {
		return text
	}
	return text + "\n\n" + CallToActionLine
}

func appendUrgency(text string) string {
	if !containsAny(text, dealWords) || containsAny(text, urgencyWords) {
		return text
	}
	return text + "\n" + UrgencyLine
}

func appendTrustBadge(text string) string {
	if !strings.Contains(strings.ToLower(text), "amazon") || strings.Contains(text, TrustBadgeLine) {
		return text
	}
	return text + "\n" + TrustBadgeLine
}

func containsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
