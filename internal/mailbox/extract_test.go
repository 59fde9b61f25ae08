package mailbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const linkMarker = "verify my email"

func TestExtractVerificationLink_ReturnsMatchingHref(t *testing.T) {
	body := `<html><body>
		<p>Welcome!</p>
		<a href="https://example.test/unsubscribe">Unsubscribe</a>
		<a href="https://example.test/activate?code=xyz">Verify My Email</a>
	</body></html>`

	link, ok := ExtractVerificationLink(body, linkMarker)
	assert.True(t, ok)
	assert.Equal(t, "https://example.test/activate?code=xyz", link)
}

func TestExtractVerificationLink_TrimsAndCaseFolds(t *testing.T) {
	body := `<a href="https://example.test/v">
		  VERIFY my EMAIL now
	</a>`

	link, ok := ExtractVerificationLink(body, linkMarker)
	assert.True(t, ok)
	assert.Equal(t, "https://example.test/v", link)
}

func TestExtractVerificationLink_NestedMarkup(t *testing.T) {
	body := `<a href="https://example.test/v"><span>Verify</span> <b>my email</b></a>`

	link, ok := ExtractVerificationLink(body, linkMarker)
	assert.True(t, ok)
	assert.Equal(t, "https://example.test/v", link)
}

func TestExtractVerificationLink_NoMatchingAnchor(t *testing.T) {
	body := `<html><body><a href="https://example.test/other">Click here</a></body></html>`

	link, ok := ExtractVerificationLink(body, linkMarker)
	assert.False(t, ok)
	assert.Empty(t, link)
}

func TestExtractVerificationLink_AnchorWithoutHref(t *testing.T) {
	body := `<a>verify my email</a>`

	_, ok := ExtractVerificationLink(body, linkMarker)
	assert.False(t, ok)
}

func TestExtractVerificationLink_MalformedHTML(t *testing.T) {
	// The parser is lenient, so garbage input must yield absent, not a panic
	// or an error surfaced to the caller.
	for _, body := range []string{"", "<<<>><tag", "<a href='x' verify my email", "plain text only"} {
		link, ok := ExtractVerificationLink(body, linkMarker)
		assert.False(t, ok, "input %q", body)
		assert.Empty(t, link)
	}
}
