package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver resolves short links from a fixed table. URLs outside the
// table fail, standing in for dead redirectors and network errors.
type stubResolver struct {
	targets map[string]string
	calls   int
}

func (s *stubResolver) Resolve(ctx context.Context, shortURL string) (string, error) {
	s.calls++
	target, ok := s.targets[shortURL]
	if !ok {
		return "", errors.New("redirect fetch failed")
	}
	return target, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func newTestRewriter(resolver Resolver) *Rewriter {
	return New(resolver, "sharan013-21", "amazon.in", testLogger())
}

func TestRewriter_Detect(t *testing.T) {
	r := newTestRewriter(&stubResolver{})

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"no links", "just a plain announcement", false},
		{"unrecognized host", "see https://example.com/dp/B08XYZ1234", false},
		{"direct dp link", "deal at https://amazon.in/dp/B08XYZ1234 today", true},
		{"direct www link", "https://www.amazon.com/gp/product/B000000001", true},
		{"uppercase host", "HTTPS://AMAZON.IN/dp/B08XYZ1234", true},
		{"bare short link", "check this amzn.to/xyz123", true},
		{"short link with scheme", "https://amzaff.in/abc", true},
		{"direct host needs scheme", "amazon.in/dp/B08XYZ1234", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Detect(tt.text))
		})
	}
}

func TestRewriter_RewriteDirectLink(t *testing.T) {
	r := newTestRewriter(&stubResolver{})

	res := r.Rewrite(context.Background(), "Great deal! https://amazon.in/dp/B08XYZ1234 only today")
	require.Len(t, res.Replacements, 1)
	assert.Empty(t, res.Unresolved)
	assert.Equal(t, "https://amazon.in/dp/B08XYZ1234", res.Replacements[0].Original)
	assert.Equal(t, "https://amazon.in/dp/B08XYZ1234?tag=sharan013-21", res.Replacements[0].Affiliate)
}

func TestRewriter_ExtractsAlternatePathShapes(t *testing.T) {
	r := newTestRewriter(&stubResolver{})

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.amazon.in/gp/product/B0AAAA1111?ref=nav", "https://amazon.in/dp/B0AAAA1111?tag=sharan013-21"},
		{"https://amazon.com/product/B0BBBB2222", "https://amazon.in/dp/B0BBBB2222?tag=sharan013-21"},
		{"https://amazon.in/d/B0CCCC3333", "https://amazon.in/dp/B0CCCC3333?tag=sharan013-21"},
	}
	for _, tt := range tests {
		res := r.Rewrite(context.Background(), "link: "+tt.url)
		require.Len(t, res.Replacements, 1, "url %s", tt.url)
		assert.Equal(t, tt.want, res.Replacements[0].Affiliate)
	}
}

func TestRewriter_AffiliateURLDeterministic(t *testing.T) {
	r := newTestRewriter(&stubResolver{})
	assert.Equal(t, r.AffiliateURL("B08XYZ1234"), r.AffiliateURL("B08XYZ1234"))
	assert.Equal(t, "https://amazon.in/dp/B08XYZ1234?tag=sharan013-21", r.AffiliateURL("B08XYZ1234"))
}

func TestRewriter_IdempotentOnRewrittenText(t *testing.T) {
	r := newTestRewriter(&stubResolver{})
	text := "🔥 Deal: https://amazon.in/dp/B08XYZ1234?tag=sharan013-21 grab it"

	res := r.Rewrite(context.Background(), text)
	require.Len(t, res.Replacements, 1)
	assert.Equal(t, text, Apply(text, res.Replacements), "re-running rewrite must be a no-op")
}

func TestRewriter_MalformedDirectLinkExcluded(t *testing.T) {
	r := newTestRewriter(&stubResolver{})

	// Recognized host but no product ID anywhere in the path.
	res := r.Rewrite(context.Background(), "browse https://amazon.in/bestsellers today")
	assert.Empty(t, res.Replacements)
	assert.Empty(t, res.Unresolved, "malformed direct links are excluded, not reported")
}

func TestRewriter_ProductIDCaseSensitive(t *testing.T) {
	r := newTestRewriter(&stubResolver{})

	res := r.Rewrite(context.Background(), "https://amazon.in/dp/b08xyz1234")
	assert.Empty(t, res.Replacements, "lowercase IDs are not valid product IDs")
}

func TestRewriter_UnresolvableShortLinkLeftAlone(t *testing.T) {
	resolver := &stubResolver{}
	r := newTestRewriter(resolver)

	res := r.Rewrite(context.Background(), "check this amzn.to/xyz123")
	assert.Empty(t, res.Replacements)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "amzn.to/xyz123", res.Unresolved[0])
	assert.Equal(t, 1, resolver.calls, "bare short links are normalized and resolved once")
}

func TestRewriter_ShortLinkResolved(t *testing.T) {
	resolver := &stubResolver{targets: map[string]string{
		"https://amzn.to/good1": "https://www.amazon.in/dp/B0GOODID11?psc=1",
	}}
	r := newTestRewriter(resolver)

	res := r.Rewrite(context.Background(), "flash sale https://amzn.to/good1")
	require.Len(t, res.Replacements, 1)
	assert.Equal(t, "https://amzn.to/good1", res.Replacements[0].Original)
	assert.Equal(t, "https://amazon.in/dp/B0GOODID11?tag=sharan013-21", res.Replacements[0].Affiliate)
}

func TestRewriter_ShortLinkToForeignHostUnresolvable(t *testing.T) {
	resolver := &stubResolver{targets: map[string]string{
		"https://amzn.in/sus01": "https://tracking.example.com/dp/B08XYZ1234",
	}}
	r := newTestRewriter(resolver)

	res := r.Rewrite(context.Background(), "hot: amzn.in/sus01")
	assert.Empty(t, res.Replacements)
	assert.Equal(t, []string{"amzn.in/sus01"}, res.Unresolved)
}

func TestRewriter_MixedLinksRewrittenIndependently(t *testing.T) {
	resolver := &stubResolver{targets: map[string]string{
		"https://amzn.to/ok111": "https://www.amazon.in/dp/B0SHORTID1",
	}}
	r := newTestRewriter(resolver)

	text := "a https://amazon.in/dp/B0DIRECT01 b https://amzn.to/ok111 c amzn.in/dead1 d https://amazon.com/gp/product/B0DIRECT02"
	res := r.Rewrite(context.Background(), text)

	assert.Len(t, res.Replacements, 3)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "amzn.in/dead1", res.Unresolved[0])

	out := Apply(text, res.Replacements)
	assert.Contains(t, out, "https://amazon.in/dp/B0DIRECT01?tag=sharan013-21")
	assert.Contains(t, out, "https://amazon.in/dp/B0SHORTID1?tag=sharan013-21")
	assert.Contains(t, out, "https://amazon.in/dp/B0DIRECT02?tag=sharan013-21")
	assert.Contains(t, out, "amzn.in/dead1", "unresolvable link stays in place")
}

func TestApply_ReplacesEveryOccurrence(t *testing.T) {
	r := newTestRewriter(&stubResolver{})
	text := "x https://amazon.in/dp/B08XYZ1234 y https://amazon.in/dp/B08XYZ1234 z"

	res := r.Rewrite(context.Background(), text)
	require.Len(t, res.Replacements, 1, "duplicate matches collapse to one mapping entry")

	out := Apply(text, res.Replacements)
	assert.Equal(t, "x https://amazon.in/dp/B08XYZ1234?tag=sharan013-21 y https://amazon.in/dp/B08XYZ1234?tag=sharan013-21 z", out)
}

func TestApply_LongestOriginalFirst(t *testing.T) {
	resolver := &stubResolver{targets: map[string]string{
		"https://amzn.to/abc12": "https://www.amazon.in/dp/B0SHORTID1",
	}}
	r := newTestRewriter(resolver)

	// The bare form is a suffix of the scheme-prefixed form. Applying the
	// shorter replacement first would corrupt the longer original.
	text := "go https://amzn.to/abc12 or amzn.to/abc12"
	res := r.Rewrite(context.Background(), text)
	require.Len(t, res.Replacements, 2)

	out := Apply(text, res.Replacements)
	assert.NotContains(t, out, "amzn.to")
	assert.Equal(t, 2, strings.Count(out, "https://amazon.in/dp/B0SHORTID1?tag=sharan013-21"))
}

func TestApply_QueryVariantAndBareLinkOfSameProduct(t *testing.T) {
	r := newTestRewriter(&stubResolver{})

	// The bare link is a prefix of the affiliate URL substituted for the
	// query-suffixed variant. Neither substitution may touch the other.
	text := "Deal https://amazon.in/dp/B08XYZ1234?ref=share also https://amazon.in/dp/B08XYZ1234"
	res := r.Rewrite(context.Background(), text)
	require.Len(t, res.Replacements, 2)

	out := Apply(text, res.Replacements)
	assert.Equal(t, "Deal https://amazon.in/dp/B08XYZ1234?tag=sharan013-21 also https://amazon.in/dp/B08XYZ1234?tag=sharan013-21", out)
	assert.Equal(t, 2, strings.Count(out, "?tag="))
	assert.NotContains(t, out, "?tag=sharan013-21?tag=")
}
