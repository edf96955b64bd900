// internal/git/encoding.go
package git

import (
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// ConvertLines decodes reference content from the document's encoding to
// UTF-8 so both diff inputs agree. Callers run this only after
// re-validating the document is still open: conversion must never apply
// to a stale snapshot. Unknown or UTF-8 encodings pass through.
func ConvertLines(lines []string, encoding string) ([]string, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return lines, nil
	}

	enc, err := ianaindex.IANA.Encoding(encoding)
	if err != nil || enc == nil {
		return lines, err
	}

	decoder := enc.NewDecoder()
	out := make([]string, len(lines))
	for i, l := range lines {
		decoded, derr := decoder.String(l)
		if derr != nil {
			return lines, derr
		}
		out[i] = decoded
	}
	return out, nil
}
