// Package message models the components of a chat message that can carry
// an image, and finds the image locator a conversion should start from.
package message

import (
	"os"
	"strings"
)

// Component is one element of a message chain. The concrete types are
// Image, Plain and Reply.
type Component interface {
	isComponent()
}

// Image is an image attachment. Platforms fill different fields, so every
// one of them is a candidate locator.
type Image struct {
	URL       string
	ImageURL  string
	File      string
	ImageFile string
}

// Plain is a run of text.
type Plain struct {
	Text string
}

// Reply quotes an earlier message.
type Reply struct {
	Chain Chain
}

func (Image) isComponent() {}
func (Plain) isComponent() {}
func (Reply) isComponent() {}

// Chain is an ordered message.
type Chain []Component

// locatorFields are tried in order; the first non-empty value wins.
var locatorFields = []func(Image) string{
	func(img Image) string { return img.URL },
	func(img Image) string { return img.ImageURL },
	func(img Image) string { return img.File },
	func(img Image) string { return img.ImageFile },
}

// Locator returns the first non-empty locator field of the image.
func (img Image) Locator() (string, bool) {
	for _, field := range locatorFields {
		if v := field(img); v != "" {
			return v, true
		}
	}
	return "", false
}

// FindImageLocator returns the locator of the first image in chain. When
// the chain itself has none, quoted messages are searched in order.
func FindImageLocator(chain Chain) (string, bool) {
	for _, c := range chain {
		if img, ok := c.(Image); ok {
			if loc, ok := img.Locator(); ok {
				return loc, true
			}
		}
	}
	for _, c := range chain {
		if r, ok := c.(Reply); ok {
			if loc, ok := FindImageLocator(r.Chain); ok {
				return loc, true
			}
		}
	}
	return "", false
}

// Text joins the plain text of the chain.
func (c Chain) Text() string {
	var parts []string
	for _, comp := range c {
		if p, ok := comp.(Plain); ok {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, " ")
}

// replyPrefix marks a command-line word as quoted content.
const replyPrefix = "reply:"

// ParseChain builds a chain from command-line words. URLs become Image
// components with URL set, existing files become Image components with
// File set, and everything else is Plain text. Words prefixed with
// "reply:" are collected into one Reply component.
func ParseChain(args []string) Chain {
	var chain, quoted Chain
	for _, arg := range args {
		if rest, ok := strings.CutPrefix(arg, replyPrefix); ok {
			quoted = append(quoted, parseWord(rest))
			continue
		}
		chain = append(chain, parseWord(arg))
	}
	if len(quoted) > 0 {
		chain = append(chain, Reply{Chain: quoted})
	}
	return chain
}

func parseWord(word string) Component {
	switch {
	case strings.HasPrefix(word, "http://"), strings.HasPrefix(word, "https://"):
		return Image{URL: word}
	case strings.HasPrefix(word, "file://"):
		return Image{File: word}
	}
	if fi, err := os.Stat(word); err == nil && fi.Mode().IsRegular() {
		return Image{File: word}
	}
	return Plain{Text: word}
}
