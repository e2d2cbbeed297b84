package rewrite

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"dealgram/internal/domain"
)

type patternKind int

const (
	// kindDirect links carry the product ID in their own path.
	kindDirect patternKind = iota
	// kindShort links must be resolved through their redirector first.
	kindShort
)

// linkPattern is one row of the recognized-URL table. Host matching is
// case-insensitive; everything after the host is matched verbatim because
// product IDs are case-sensitive on the marketplace.
type linkPattern struct {
	kind patternKind
	re   *regexp.Regexp
}

// hostPattern builds the matcher for one host. Direct marketplace links must
// carry a scheme; short redirector links are often pasted bare ("amzn.to/x").
func hostPattern(host string, schemeRequired bool) *regexp.Regexp {
	scheme := `(?:(?i:https?)://)?`
	if schemeRequired {
		scheme = `(?i:https?)://`
	}
	return regexp.MustCompile(scheme + `\b(?i:www\.)?(?i:` + host + `)/[^\s]+`)
}

// The recognized link table. Extend by adding rows, never by branching
// elsewhere.
var linkPatterns = []linkPattern{
	{kind: kindDirect, re: hostPattern(`amazon\.in`, true)},
	{kind: kindDirect, re: hostPattern(`amazon\.com`, true)},
	{kind: kindShort, re: hostPattern(`amzn\.to`, false)},
	{kind: kindShort, re: hostPattern(`amzn\.in`, false)},
	{kind: kindShort, re: hostPattern(`amzaff\.in`, false)},
}

// canonicalHostRe screens redirect targets: a short link that resolves to a
// host outside the direct table is treated as unresolvable.
var canonicalHostRe = regexp.MustCompile(`^(?i:https?)://(?i:www\.)?(?i:amazon\.(?:in|com))/`)

// productIDRes extract the 10-character product ID from a canonical URL
// path. Checked in order; the first match wins.
var productIDRes = []*regexp.Regexp{
	regexp.MustCompile(`/dp/([A-Z0-9]{10})`),
	regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`/d/([A-Z0-9]{10})`),
}

// Rewriter finds recognized product links in message text and produces their
// affiliate-tagged replacements.
type Rewriter struct {
	resolver      Resolver
	tag           string
	canonicalHost string
	log           logrus.FieldLogger
}

// New creates a Rewriter. The affiliate tag and canonical host are fixed for
// the lifetime of the process; resolver handles the short-link redirect hop.
func New(resolver Resolver, tag, canonicalHost string, logger logrus.FieldLogger) *Rewriter {
	return &Rewriter{
		resolver:      resolver,
		tag:           tag,
		canonicalHost: canonicalHost,
		log:           logger.WithField("component", "rewriter"),
	}
}

// Detect reports whether text contains at least one recognized product link.
func (r *Rewriter) Detect(text string) bool {
	for _, p := range linkPatterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

// Rewrite scans text and returns the mapping of matched substrings to
// affiliate URLs. Short links that cannot be resolved are listed as
// unresolved and left out of the mapping. Malformed direct links (no product
// ID in the path) are silently excluded.
func (r *Rewriter) Rewrite(ctx context.Context, text string) domain.RewriteResult {
	var res domain.RewriteResult
	seen := make(map[string]struct{})

	for _, p := range linkPatterns {
		for _, match := range p.re.FindAllString(text, -1) {
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}

			ref, err := r.resolveRef(ctx, match, p.kind)
			if err != nil {
				if p.kind == kindShort {
					r.log.WithError(err).WithField("url", match).Warn("Could not resolve short link")
					res.Unresolved = append(res.Unresolved, match)
				} else {
					r.log.WithField("url", match).Debug("No product ID in direct link, leaving as-is")
				}
				continue
			}

			res.Replacements = append(res.Replacements, domain.Replacement{
				Original:  match,
				Affiliate: r.AffiliateURL(ref.ID),
			})
		}
	}
	return res
}

// resolveRef turns one matched substring into a ProductRef. Short links go
// through the resolver for their single redirect hop first.
func (r *Rewriter) resolveRef(ctx context.Context, match string, kind patternKind) (domain.ProductRef, error) {
	full := match
	if !strings.HasPrefix(strings.ToLower(full), "http") {
		full = "https://" + full
	}

	if kind == kindShort {
		final, err := r.resolver.Resolve(ctx, full)
		if err != nil {
			return domain.ProductRef{}, fmt.Errorf("redirect resolution failed: %w", err)
		}
		if !canonicalHostRe.MatchString(final) {
			return domain.ProductRef{}, fmt.Errorf("redirect target %q is not a recognized marketplace host", final)
		}
		full = final
	}

	id, ok := extractProductID(full)
	if !ok {
		return domain.ProductRef{}, fmt.Errorf("no product ID in %q", full)
	}
	return domain.ProductRef{ID: id, Host: r.canonicalHost}, nil
}

// AffiliateURL renders the canonical affiliate link for a product ID.
// Deterministic: identical ID and tag always yield an identical string,
// which is what makes re-running Rewrite over rewritten text a no-op.
func (r *Rewriter) AffiliateURL(productID string) string {
	return fmt.Sprintf("https://%s/dp/%s?tag=%s", r.canonicalHost, productID, r.tag)
}

func extractProductID(u string) (string, bool) {
	for _, re := range productIDRes {
		if m := re.FindStringSubmatch(u); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// span is one claimed occurrence of an original substring in the input
// text, with the replacement that will take its place.
type span struct {
	start, end int
	repl       string
}

// Apply substitutes every replacement into text. Occurrences are located
// against the input text only and the output is rebuilt in one
// left-to-right pass, so a substitution can never be corrupted by a later
// one whose original happens to be a prefix of an already-inserted
// affiliate URL. Longer originals claim their spans first, so a bare short
// link never swallows the head of its scheme-prefixed twin.
func Apply(text string, replacements []domain.Replacement) string {
	if len(replacements) == 0 {
		return text
	}

	ordered := make([]domain.Replacement, len(replacements))
	copy(ordered, replacements)
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i].Original) != len(ordered[j].Original) {
			return len(ordered[i].Original) > len(ordered[j].Original)
		}
		return ordered[i].Original < ordered[j].Original
	})

	var spans []span
	for _, rep := range ordered {
		for from := 0; ; {
			i := strings.Index(text[from:], rep.Original)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(rep.Original)
			if !overlapsAny(spans, start, end) {
				spans = append(spans, span{start: start, end: end, repl: rep.Affiliate})
			}
			from = end
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.start])
		b.WriteString(s.repl)
		last = s.end
	}
	b.WriteString(text[last:])
	return b.String()
}

func overlapsAny(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}
