package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Ingestion-Core/pkg/errors"
)

const (
	minHeaders    = 2
	maxHeaders    = 32
	maxHeaderLine = 4096
)

// ReadHeaders reads one header block from a document stream: "Name: value"
// lines ended by a blank line. It returns io.EOF when the stream ends before
// any header. warn receives deprecated or unknown headers.
func ReadHeaders(r *bufio.Reader, warn func(msg string, args ...any)) (*DocInfo, error) {
	if warn == nil {
		warn = func(string, ...any) {}
	}
	d := NewDocInfo("")
	d.Size = -1
	n := 0
	for {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) && n == 0 && line == "" {
				return nil, io.EOF
			}
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: stream ended inside header block", apperrors.ErrInvalidHeader)
			}
			return nil, err
		}
		if line == "" {
			if n == 0 {
				// tolerate blank lines between documents
				continue
			}
			break
		}
		n++
		if n > maxHeaders {
			return nil, fmt.Errorf("%w: more than %d header lines", apperrors.ErrInvalidHeader, maxHeaders)
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("%w: malformed header line %q", apperrors.ErrInvalidHeader, line)
		}
		value = strings.TrimSpace(value)
		if err := applyHeader(d, strings.TrimSpace(name), value, warn); err != nil {
			return nil, err
		}
	}
	if n < minHeaders {
		return nil, fmt.Errorf("%w: need at least %d header lines, got %d", apperrors.ErrInvalidHeader, minHeaders, n)
	}
	return d, nil
}

func applyHeader(d *DocInfo, name, value string, warn func(string, ...any)) error {
	if value == "" {
		warn("empty header value", "header", name)
	}
	switch strings.ToLower(name) {
	case "content-length":
		size, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad Content-Length %q", apperrors.ErrInvalidHeader, value)
		}
		d.Size = size
	case "last-mtime":
		warn("Last-Mtime is deprecated in favor of Last-Modified")
		fallthrough
	case "last-modified":
		secs, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			warn("unparseable modification time", "header", name, "value", value)
			return nil
		}
		d.Mtime = time.Unix(secs, 0).UTC()
	case "path-name":
		warn("Path-Name is deprecated in favor of Content-Location")
		fallthrough
	case "content-location":
		d.URI = value
	case "document-type":
		warn("Document-Type is deprecated in favor of Parser-Type")
		fallthrough
	case "parser-type":
		d.Parser = strings.ToUpper(value)
	case "content-type":
		d.MIME = value
	case "encoding", "charset":
		d.Encoding = value
	case "update-mode":
		d.Update = value
	default:
		warn("unknown header line", "header", name)
	}
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		chunk, isPrefix, err := r.ReadLine()
		sb.Write(chunk)
		if sb.Len() > maxHeaderLine {
			return "", fmt.Errorf("%w: header line longer than %d bytes", apperrors.ErrInvalidHeader, maxHeaderLine)
		}
		if err != nil {
			return sb.String(), err
		}
		if !isPrefix {
			return sb.String(), nil
		}
	}
}
