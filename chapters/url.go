package chapters

import "net/url"

// parseChapterURL parses an href/url string, used by every interchange
// format that carries an optional chapter link.
func parseChapterURL(s string) (*url.URL, error) {
	if s == "" {
		return nil, nil
	}
	return url.Parse(s)
}
