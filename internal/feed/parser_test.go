package feed

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssDoc(items ...string) string {
	return `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>` +
		strings.Join(items, "\n") + `</channel></rss>`
}

func atomDoc(entries ...string) string {
	return `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>Feed</title>` +
		strings.Join(entries, "\n") + `</feed>`
}

func TestParseRSSYieldsEveryItemInOrder(t *testing.T) {
	for _, n := range []int{0, 1, 7, 50} {
		items := make([]string, n)
		for i := range items {
			items[i] = fmt.Sprintf(`<item><title>Item %d</title><link>https://example.com/%d</link></item>`, i, i)
		}

		got := slices.Collect(Parse(rssDoc(items...)))
		require.Len(t, got, n)
		for i, e := range got {
			assert.Equal(t, fmt.Sprintf("Item %d", i), e.Title)
			assert.Equal(t, fmt.Sprintf("https://example.com/%d", i), e.Link)
		}
	}
}

func TestParseAtom(t *testing.T) {
	doc := atomDoc(
		`<entry>
			<title type="html">First</title>
			<link rel="self" href="https://example.com/self/1"/>
			<link rel="alternate" type="text/html" href="https://example.com/1"/>
			<id>urn:uuid:1</id>
			<published>2025-01-02T10:00:00Z</published>
			<updated>2025-01-03T10:00:00Z</updated>
			<summary>Short</summary>
			<content type="html">Long</content>
		</entry>`,
		`<entry>
			<title>Second</title>
			<link href='https://example.com/2' />
			<updated>2025-01-04T10:00:00+02:00</updated>
			<content>Body only</content>
		</entry>`,
		`<entry><title>Text link</title><link>https://example.com/3</link></entry>`,
	)

	got := slices.Collect(Parse(doc))
	require.Len(t, got, 3)

	assert.Equal(t, "https://example.com/1", got[0].Link)
	assert.Equal(t, "urn:uuid:1", got[0].GUID)
	require.NotNil(t, got[0].PublishedAt)
	assert.Equal(t, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), *got[0].PublishedAt)
	assert.Equal(t, "Short", got[0].Description)

	assert.Equal(t, "https://example.com/2", got[1].Link)
	require.NotNil(t, got[1].PublishedAt)
	assert.Equal(t, time.Date(2025, 1, 4, 8, 0, 0, 0, time.UTC), *got[1].PublishedAt)
	assert.Equal(t, "Body only", got[1].Description)
	assert.Empty(t, got[1].GUID)

	assert.Equal(t, "https://example.com/3", got[2].Link)
}

func TestParseDropsEntriesWithoutTitleOrLink(t *testing.T) {
	doc := rssDoc(
		`<item><title>X</title></item>`,
		`<item><link>https://example.com/no-title</link></item>`,
		`<item><title>  </title><link>https://example.com/blank</link></item>`,
		`<item><title>Kept</title><link>https://example.com/kept</link></item>`,
	)

	got := slices.Collect(Parse(doc))
	require.Len(t, got, 1)
	assert.Equal(t, "Kept", got[0].Title)
}

func TestParseDecodesEntities(t *testing.T) {
	doc := rssDoc(`<item><title>A &amp; B &lt;test&gt;</title>` +
		`<link>https://example.com/?a=1&amp;b=2</link>` +
		`<guid isPermaLink="false">id-&quot;1&quot;</guid></item>`)

	got := slices.Collect(Parse(doc))
	require.Len(t, got, 1)
	assert.Equal(t, "A & B <test>", got[0].Title)
	assert.Equal(t, "https://example.com/?a=1&b=2", got[0].Link)
	assert.Equal(t, `id-"1"`, got[0].GUID)
}

func TestParseStripsDescription(t *testing.T) {
	doc := rssDoc(`<item><title>T</title><link>https://example.com/</link>` +
		`<description>&lt;p&gt;Hello&lt;/p&gt;&lt;b&gt;World&lt;/b&gt;</description></item>`)

	got := slices.Collect(Parse(doc))
	require.Len(t, got, 1)
	assert.Equal(t, "Hello World", got[0].Description)
}

func TestParseUnwrapsCDATA(t *testing.T) {
	doc := rssDoc(`<item>
		<title><![CDATA[GPT-5 & friends]]></title>
		<link><![CDATA[https://example.com/cdata]]></link>
		<content:encoded><![CDATA[<p>Rich <em>body</em></p>]]></content:encoded>
	</item>`)

	got := slices.Collect(Parse(doc))
	require.Len(t, got, 1)
	assert.Equal(t, "GPT-5 & friends", got[0].Title)
	assert.Equal(t, "https://example.com/cdata", got[0].Link)
	assert.Equal(t, "Rich body", got[0].Description)
}

func TestParseRSSFallbackTags(t *testing.T) {
	doc := rssDoc(`<item>
		<title>T</title>
		<link>https://example.com/f</link>
		<id>fallback-id</id>
		<published>2025-02-01T00:00:00Z</published>
		<description></description>
		<summary>From summary</summary>
	</item>`)

	got := slices.Collect(Parse(doc))
	require.Len(t, got, 1)
	assert.Equal(t, "fallback-id", got[0].GUID)
	require.NotNil(t, got[0].PublishedAt)
	assert.Equal(t, 2025, got[0].PublishedAt.Year())
	assert.Equal(t, "From summary", got[0].Description)
}

func TestParseRSSPubDate(t *testing.T) {
	doc := rssDoc(
		`<item><title>A</title><link>https://example.com/a</link><pubDate>Mon, 06 Jan 2025 09:30:00 +0200</pubDate></item>`,
		`<item><title>B</title><link>https://example.com/b</link><pubDate>sometime last week</pubDate></item>`,
	)

	got := slices.Collect(Parse(doc))
	require.Len(t, got, 2)
	require.NotNil(t, got[0].PublishedAt)
	assert.Equal(t, time.Date(2025, 1, 6, 7, 30, 0, 0, time.UTC), *got[0].PublishedAt)
	assert.Nil(t, got[1].PublishedAt, "unparseable dates are treated as absent")
}

func TestParseMixedDocumentItemsThenEntries(t *testing.T) {
	doc := `<root>
		<entry><title>Atom</title><link href="https://example.com/atom"/></entry>
		<item><title>RSS</title><link>https://example.com/rss</link></item>
	</root>`

	got := slices.Collect(Parse(doc))
	require.Len(t, got, 2)
	assert.Equal(t, "RSS", got[0].Title)
	assert.Equal(t, "Atom", got[1].Title)
}

func TestParseToleratesGarbage(t *testing.T) {
	for _, raw := range []string{
		"",
		"not xml at all",
		"<rss><channel><item><title>unterminated",
		"<html><body><p>404</p></body></html>",
	} {
		assert.Empty(t, slices.Collect(Parse(raw)), raw)
	}

	// A broken block does not hide the well-formed ones after it.
	doc := rssDoc(
		`<item><title>Broken<link>https://example.com/broken</item>`,
		`<item><title>Fine</title><link>https://example.com/fine</link></item>`,
	)
	got := slices.Collect(Parse(doc))
	require.Len(t, got, 1)
	assert.Equal(t, "Fine", got[0].Title)
}

func TestParseStopsWhenConsumerStops(t *testing.T) {
	items := make([]string, 30)
	for i := range items {
		items[i] = fmt.Sprintf(`<item><title>%d</title><link>https://example.com/%d</link></item>`, i, i)
	}

	n := 0
	for range Parse(rssDoc(items...)) {
		n++
		if n == 20 {
			break
		}
	}
	assert.Equal(t, 20, n)
}
