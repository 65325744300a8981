package feed

import (
	"iter"
	"regexp"
	"strings"
	"time"
)

// Entry is one item extracted from an RSS or Atom document.
// Empty strings mean the field was absent.
type Entry struct {
	Title       string
	Link        string
	GUID        string
	PublishedAt *time.Time
	Description string
}

var (
	itemRe  = regexp.MustCompile(`(?is)<item(?:\s[^>]*)?>(.*?)</item>`)
	entryRe = regexp.MustCompile(`(?is)<entry(?:\s[^>]*)?>(.*?)</entry>`)
	cdataRe = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)

	linkTagRe = regexp.MustCompile(`(?is)<link\b[^>]*>`)
	hrefRe    = regexp.MustCompile(`(?i)\bhref\s*=\s*["']([^"']+)["']`)
	relRe     = regexp.MustCompile(`(?i)\brel\s*=\s*["']([^"']+)["']`)

	tagPatterns = compileTags(
		"title", "link", "guid", "id",
		"pubDate", "published", "updated",
		"description", "content:encoded", "summary", "content",
	)
)

// compileTags builds, per tag name, a pattern matching <name ...>body</name>
// that skips self-closing <name .../> elements.
func compileTags(names ...string) map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(names))
	for _, name := range names {
		q := regexp.QuoteMeta(name)
		out[name] = regexp.MustCompile(`(?is)<` + q + `(?:\s+[^>]*[^/>])?\s*>(.*?)</` + q + `\s*>`)
	}
	return out
}

// extract returns the trimmed body of the first listed tag that is present
// and non-empty, with CDATA sections unwrapped.
func extract(block string, names ...string) string {
	for _, name := range names {
		m := tagPatterns[name].FindStringSubmatch(block)
		if m == nil {
			continue
		}
		if v := strings.TrimSpace(cdataRe.ReplaceAllString(m[1], "$1")); v != "" {
			return v
		}
	}
	return ""
}

// atomLink prefers the href of an alternate (or rel-less) link element and
// falls back to the first href, then to a text node.
func atomLink(block string) string {
	var first string
	for _, tag := range linkTagRe.FindAllString(block, -1) {
		href := hrefRe.FindStringSubmatch(tag)
		if href == nil {
			continue
		}
		rel := relRe.FindStringSubmatch(tag)
		if rel == nil || strings.EqualFold(rel[1], "alternate") {
			return strings.TrimSpace(href[1])
		}
		if first == "" {
			first = strings.TrimSpace(href[1])
		}
	}
	if first != "" {
		return first
	}
	return extract(block, "link")
}

func rssEntry(block string) Entry {
	return Entry{
		Title:       extract(block, "title"),
		Link:        extract(block, "link"),
		GUID:        extract(block, "guid", "id"),
		PublishedAt: parseDate(extract(block, "pubDate", "published")),
		Description: extract(block, "description", "content:encoded", "summary"),
	}
}

func atomEntry(block string) Entry {
	return Entry{
		Title:       extract(block, "title"),
		Link:        atomLink(block),
		GUID:        extract(block, "id"),
		PublishedAt: parseDate(extract(block, "published", "updated")),
		Description: extract(block, "summary", "content"),
	}
}

// finish decodes entities and cleans the description. Entries without a
// title or link are rejected.
func finish(e Entry) (Entry, bool) {
	e.Title = strings.TrimSpace(DecodeEntities(e.Title))
	e.Link = strings.TrimSpace(DecodeEntities(e.Link))
	e.GUID = strings.TrimSpace(DecodeEntities(e.GUID))
	e.Description = CleanDescription(e.Description)
	if e.Title == "" || e.Link == "" {
		return Entry{}, false
	}
	return e, true
}

// Parse lazily yields the entries of an RSS 2.0 or Atom document.
// Both formats are scanned: RSS items first, then Atom entries. Malformed
// blocks are skipped and an empty sequence is a valid result.
func Parse(raw string) iter.Seq[Entry] {
	scans := []struct {
		re    *regexp.Regexp
		build func(string) Entry
	}{
		{itemRe, rssEntry},
		{entryRe, atomEntry},
	}

	return func(yield func(Entry) bool) {
		for _, scan := range scans {
			rest := raw
			for {
				loc := scan.re.FindStringSubmatchIndex(rest)
				if loc == nil {
					break
				}
				block := rest[loc[2]:loc[3]]
				rest = rest[loc[1]:]

				entry, ok := finish(scan.build(block))
				if !ok {
					continue
				}
				if !yield(entry) {
					return
				}
			}
		}
	}
}
