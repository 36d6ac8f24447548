package web

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// walk calls fn for node and each of its descendants, depth first.
func walk(node *html.Node, fn func(n *html.Node)) {
	fn(node)
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// attr returns the value of the named attribute of n.
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// GalleryImages parses an html page and returns the src of every img
// element, in document order.
func GalleryImages(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var urls []string
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Img {
			return
		}
		if src, ok := attr(n, "src"); ok {
			urls = append(urls, src)
		}
	})

	return urls, nil
}
