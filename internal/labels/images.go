package labels

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageTexts pulls alt, title and filename strings from every <img> on
// the page, as candidates for seal detection. Filenames have hyphens
// and underscores replaced with spaces so "selo-sulfate-free.png"
// matches like text. Strings 200 chars or longer are dropped and
// duplicates (case-insensitive) collapse to the first occurrence.
func ImageTexts(pageHTML string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	var texts []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || len([]rune(s)) >= 200 {
			return
		}
		key := strings.ToLower(s)
		if seen[key] {
			return
		}
		seen[key] = true
		texts = append(texts, s)
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		alt, _ := img.Attr("alt")
		add(alt)
		title, _ := img.Attr("title")
		add(title)

		src, ok := img.Attr("src")
		if !ok || src == "" {
			src, _ = img.Attr("data-src")
		}
		if src == "" {
			return
		}
		filename := src
		if i := strings.LastIndex(src, "/"); i >= 0 {
			filename = src[i+1:]
			if j := strings.LastIndex(filename, "."); j >= 0 {
				filename = filename[:j]
			}
		}
		filename = strings.ReplaceAll(filename, "-", " ")
		filename = strings.ReplaceAll(filename, "_", " ")
		add(filename)
	})

	return texts
}
