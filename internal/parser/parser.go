package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html/charset"

	"news-tagger/internal/model"
)

const (
	FallbackTitle = "No Title"
	FallbackLink  = "#"
)

var ErrMalformedFeed = errors.New("malformed feed")

var utf8BOM = []byte("\xef\xbb\xbf")

// itemFrame tracks one open <item>. A nil field means the child element was absent.
type itemFrame struct {
	depth int
	slot  int
	title *string
	link  *string
	desc  *string
}

// textCapture collects the leading text of a title/link/description child,
// stopping at its first nested element.
type textCapture struct {
	depth  int
	target *string
}

// Parse reads body as a generic XML document and returns up to limit items
// in document order. Every element named item counts, at any depth. The whole
// document is read so that malformed XML after the cap is still reported.
// Documents without plain item elements (Atom, namespaced RSS 1.0) are handed to gofeed.
func Parse(body []byte, limit int) ([]model.FeedItem, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	p := xpp.NewXMLPullParser(bytes.NewReader(body), true, charset.NewReaderLabel)

	var (
		items    []model.FeedItem
		frames   []*itemFrame
		capture  *textCapture
		depth    int
		sawRoot  bool
		rootDone bool
		seenItem bool
	)

	for {
		event, err := p.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
		}

		switch event {
		case xpp.EndDocument:
			if !sawRoot {
				return nil, fmt.Errorf("%w: no element found", ErrMalformedFeed)
			}
			if depth != 0 {
				return nil, fmt.Errorf("%w: unclosed element", ErrMalformedFeed)
			}
			if !seenItem {
				return parseFallback(body, limit), nil
			}
			return items, nil

		case xpp.StartTag:
			if rootDone && depth == 0 {
				return nil, fmt.Errorf("%w: junk after document element", ErrMalformedFeed)
			}
			sawRoot = true
			depth++
			// the field's text ends at its first child element
			capture = nil

			if p.Space != "" {
				continue
			}
			if p.Name == "item" {
				seenItem = true
				slot := -1
				if len(items) < limit {
					slot = len(items)
					items = append(items, model.FeedItem{})
				}
				frames = append(frames, &itemFrame{depth: depth, slot: slot})
				continue
			}
			if len(frames) == 0 {
				continue
			}
			top := frames[len(frames)-1]
			if depth != top.depth+1 {
				continue
			}
			var field **string
			switch p.Name {
			case "title":
				field = &top.title
			case "link":
				field = &top.link
			case "description":
				field = &top.desc
			}
			if field != nil && *field == nil {
				s := ""
				*field = &s
				capture = &textCapture{depth: depth, target: &s}
			}

		case xpp.Text:
			if depth == 0 {
				if strings.TrimSpace(p.Text) != "" {
					return nil, fmt.Errorf("%w: text outside document element", ErrMalformedFeed)
				}
				continue
			}
			if capture != nil && depth == capture.depth {
				*capture.target += p.Text
			}

		case xpp.EndTag:
			if capture != nil && depth == capture.depth {
				capture = nil
			}
			if n := len(frames); n > 0 && frames[n-1].depth == depth {
				top := frames[n-1]
				frames = frames[:n-1]
				if top.slot >= 0 {
					items[top.slot] = top.build()
				}
			}
			depth--
			if depth == 0 {
				rootDone = true
			}
		}
	}
}

func (f *itemFrame) build() model.FeedItem {
	item := model.FeedItem{Title: FallbackTitle, Link: FallbackLink}
	if f.title != nil {
		item.Title = *f.title
	}
	if f.link != nil {
		item.Link = *f.link
	}
	item.Description = item.Title
	if f.desc != nil {
		item.Description = *f.desc
	}
	return item
}

// parseFallback covers Atom and RSS 1.0 documents. A well-formed document
// gofeed cannot interpret yields no items rather than an error.
func parseFallback(body []byte, limit int) []model.FeedItem {
	if gofeed.DetectFeedType(bytes.NewReader(body)) == gofeed.FeedTypeUnknown {
		return nil
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	items := make([]model.FeedItem, 0, min(limit, len(feed.Items)))
	for _, it := range feed.Items {
		if len(items) >= limit {
			break
		}
		items = append(items, fromGofeed(it))
	}
	return items
}

func fromGofeed(it *gofeed.Item) model.FeedItem {
	item := model.FeedItem{Title: FallbackTitle, Link: FallbackLink}
	if it.Title != "" {
		item.Title = it.Title
	}
	if it.Link != "" {
		item.Link = it.Link
	} else if len(it.Links) > 0 {
		item.Link = it.Links[0]
	}
	switch {
	case it.Description != "":
		item.Description = it.Description
	case it.Content != "":
		item.Description = it.Content
	default:
		item.Description = item.Title
	}
	return item
}
