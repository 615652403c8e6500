package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssWithItems(n int) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>feed</title>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "<item><title>title %d</title><link>https://example.com/%d</link><description>desc %d</description></item>", i, i, i)
	}
	sb.WriteString(`</channel></rss>`)
	return sb.String()
}

func TestParse_CapsAtLimitInOrder(t *testing.T) {
	items, err := Parse([]byte(rssWithItems(20)), 15)
	require.NoError(t, err)
	require.Len(t, items, 15)
	for i, it := range items {
		assert.Equal(t, fmt.Sprintf("title %d", i), it.Title)
		assert.Equal(t, fmt.Sprintf("https://example.com/%d", i), it.Link)
		assert.Equal(t, fmt.Sprintf("desc %d", i), it.Description)
	}
}

func TestParse_FewerThanLimit(t *testing.T) {
	items, err := Parse([]byte(rssWithItems(3)), 15)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestParse_Fallbacks(t *testing.T) {
	doc := `<rss><channel>
		<item><title>only title</title><link>https://a</link></item>
		<item><description>no title or link</description></item>
		<item></item>
	</channel></rss>`

	items, err := Parse([]byte(doc), 15)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "only title", items[0].Title)
	assert.Equal(t, "only title", items[0].Description, "missing description falls back to title")

	assert.Equal(t, FallbackTitle, items[1].Title)
	assert.Equal(t, FallbackLink, items[1].Link)
	assert.Equal(t, "no title or link", items[1].Description)

	assert.Equal(t, FallbackTitle, items[2].Title)
	assert.Equal(t, FallbackLink, items[2].Link)
	assert.Equal(t, FallbackTitle, items[2].Description)
}

func TestParse_EmptyElementIsPresent(t *testing.T) {
	items, err := Parse([]byte(`<rss><channel><item><title></title><link/></item></channel></rss>`), 15)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "", items[0].Title)
	assert.Equal(t, "", items[0].Link)
	assert.Equal(t, "", items[0].Description)
}

func TestParse_ItemsAtAnyDepth(t *testing.T) {
	doc := `<root><item><title>top</title></item><group><nested><item><title>deep</title></item></nested></group></root>`
	items, err := Parse([]byte(doc), 15)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "top", items[0].Title)
	assert.Equal(t, "deep", items[1].Title)
}

func TestParse_OnlyDirectUnprefixedChildren(t *testing.T) {
	doc := `<rss xmlns:media="http://search.yahoo.com/mrss/"><channel><item>
		<media:title>prefixed</media:title>
		<source><title>grandchild</title></source>
		<link>https://a</link>
		<title>first</title>
		<title>second</title>
	</item></channel></rss>`

	items, err := Parse([]byte(doc), 15)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "first", items[0].Title)
}

func TestParse_CDATAAndLeadingTextOnly(t *testing.T) {
	doc := `<rss><channel><item>
		<title><![CDATA[Tom & Jerry]]></title>
		<description>lead<b>bold</b>tail</description>
	</item></channel></rss>`

	items, err := Parse([]byte(doc), 15)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tom & Jerry", items[0].Title)
	assert.Equal(t, "lead", items[0].Description)
}

func TestParse_ByteOrderMark(t *testing.T) {
	doc := "\xef\xbb\xbf<?xml version=\"1.0\" encoding=\"UTF-8\"?><rss><channel><item><title>a</title></item></channel></rss>"

	items, err := Parse([]byte(doc), 15)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Title)
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty body":         "",
		"plain text":         "this is not xml",
		"unclosed":           "<rss><channel><item><title>x</title>",
		"mismatched":         "<rss><channel></rss>",
		"junk after root":    "<rss></rss><rss></rss>",
		"error past the cap": rssWithItems(20) + "<broken",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), 15)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedFeed))
		})
	}
}

func TestParse_AtomFallback(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>atom</title>
  <entry>
    <title>entry one</title>
    <link href="https://example.com/one"/>
    <summary>summary one</summary>
  </entry>
  <entry>
    <link href="https://example.com/two"/>
  </entry>
</feed>`

	items, err := Parse([]byte(doc), 15)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "entry one", items[0].Title)
	assert.Equal(t, "https://example.com/one", items[0].Link)
	assert.Equal(t, "summary one", items[0].Description)
	assert.Equal(t, FallbackTitle, items[1].Title)
	assert.Equal(t, FallbackTitle, items[1].Description)
}

func TestParse_UnknownWellFormedDocument(t *testing.T) {
	items, err := Parse([]byte(`<html><body>hi</body></html>`), 15)
	require.NoError(t, err)
	assert.Empty(t, items)
}
