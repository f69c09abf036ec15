package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

// feedXML drives st from an XML token stream. Element names keep their
// local part only. A well-formedness error stops the feed with
// ErrMalformedInput; whatever was read so far stays in st.
func feedXML(r io.Reader, strict bool, st *State) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = strict
	if !strict {
		dec.AutoClose = xml.HTMLAutoClose
		dec.Entity = xml.HTMLEntity
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrMalformedInput, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			attrs := make([]Attr, 0, len(t.Attr))
			for _, a := range t.Attr {
				attrs = append(attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if err := st.OpenTag(t.Name.Local, attrs); err != nil {
				return err
			}
		case xml.EndElement:
			if err := st.CloseTag(t.Name.Local); err != nil {
				return err
			}
		case xml.CharData:
			if err := st.Characters(t); err != nil {
				return err
			}
		case xml.Comment:
			st.Comment(string(t))
		}
	}
}
