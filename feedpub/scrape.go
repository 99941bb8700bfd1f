package feedpub

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fields scraped out of a feed entry's summary HTML. Any may be empty.
type Summary struct {
	Title       string
	Author      string
	OriginalURL string
	CommentsURL string
	ImageURL    string
}

// Scrapes a reddit-style entry summary: a title attribute on an image link, a "/user/<name>" link, and "[link]" and "[comments]" anchors.
func ScrapeSummary(summaryHTML string) (*Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(summaryHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing entry summary: %w", err)
	}
	s := &Summary{}

	if title, ok := doc.Find("a[title], img[title]").First().Attr("title"); ok {
		s.Title = strings.TrimSpace(title)
	}
	if src, ok := doc.Find("img[src]").First().Attr("src"); ok {
		s.ImageURL = src
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := strings.TrimSpace(a.Text())
		switch {
		case text == "[link]":
			s.OriginalURL = href
		case text == "[comments]":
			s.CommentsURL = href
		case s.Author == "":
			s.Author = authorFromHref(href)
		}
	})
	return s, nil
}

func authorFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	name, ok := strings.CutPrefix(u.Path, "/user/")
	if !ok {
		return ""
	}
	name, _, _ = strings.Cut(name, "/")
	return name
}

// Markdown post body for an entry.
func (s *Summary) Markdown() string {
	var b strings.Builder
	if s.Title != "" {
		fmt.Fprintf(&b, "%s\n\n", s.Title)
	}
	if s.Author != "" {
		fmt.Fprintf(&b, "- Submitted by [u/%s](https://old.reddit.com/user/%s)\n", s.Author, s.Author)
	}
	if s.OriginalURL != "" {
		fmt.Fprintf(&b, "- [Original Post](%s)\n", s.OriginalURL)
	}
	if s.CommentsURL != "" {
		fmt.Fprintf(&b, "- [Comments](%s)\n", s.CommentsURL)
	}
	if s.ImageURL != "" {
		fmt.Fprintf(&b, "![Image](%s)\n", s.ImageURL)
	}
	return b.String()
}
