package web

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// element returns a detached element node of the given type.
func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

// textElement returns an element node holding a single text child.
func textElement(a atom.Atom, text string) *html.Node {
	n := element(a)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

// BuildGallery constructs an html document displaying images with the given
// urls. Each image links to itself.
func BuildGallery(title string, urls []string) *html.Node {
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	head.AppendChild(textElement(atom.Title, title))

	body := element(atom.Body)
	body.AppendChild(textElement(atom.H1, title))
	body.AppendChild(textElement(atom.P, fmt.Sprintf("%d images", len(urls))))

	for _, u := range urls {
		img := element(atom.Img,
			html.Attribute{Key: "src", Val: u},
			html.Attribute{Key: "alt", Val: u},
			html.Attribute{Key: "loading", Val: "lazy"},
			html.Attribute{Key: "style", Val: "max-height:200px"},
		)
		a := element(atom.A, html.Attribute{Key: "href", Val: u})
		a.AppendChild(img)
		body.AppendChild(a)
	}

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	return doc
}

// WriteGallery renders the gallery page for urls to w.
func WriteGallery(w io.Writer, title string, urls []string) error {
	return html.Render(w, BuildGallery(title, urls))
}
