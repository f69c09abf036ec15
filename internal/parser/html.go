package parser

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

// Void elements never get an end tag in HTML.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Param: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

// feedHTML drives st from the HTML tokenizer. Script and style bodies are
// not indexed.
func feedHTML(r io.Reader, st *State) error {
	tokenizer := html.NewTokenizer(r)
	inScript := false
	inStyle := false

	for {
		tokenType := tokenizer.Next()

		switch tokenType {
		case html.ErrorToken:
			if errors.Is(tokenizer.Err(), io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: %v", apperrors.ErrMalformedInput, tokenizer.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.DataAtom {
			case atom.Script:
				inScript = tokenType == html.StartTagToken
			case atom.Style:
				inStyle = tokenType == html.StartTagToken
			}
			attrs := make([]Attr, 0, len(token.Attr))
			for _, a := range token.Attr {
				attrs = append(attrs, Attr{Name: a.Key, Value: a.Val})
			}
			if err := st.OpenTag(token.Data, attrs); err != nil {
				return err
			}
			if tokenType == html.SelfClosingTagToken || voidElements[token.DataAtom] {
				if err := st.CloseTag(token.Data); err != nil {
					return err
				}
			}

		case html.EndTagToken:
			token := tokenizer.Token()
			switch token.DataAtom {
			case atom.Script:
				inScript = false
			case atom.Style:
				inStyle = false
			}
			if voidElements[token.DataAtom] {
				continue
			}
			if err := st.CloseTag(token.Data); err != nil {
				return err
			}

		case html.TextToken:
			if inScript || inStyle {
				continue
			}
			if err := st.Characters(tokenizer.Text()); err != nil {
				return err
			}

		case html.CommentToken:
			st.Comment(string(tokenizer.Text()))
		}
	}
}
