package repository

import (
	"encoding/json"
	"errors"
	"strings"

	ragmodels "github.com/omdiwan06/CricketRAG/internal/rag/models"
)

var ErrUnsupportedMetadata = errors.New("unsupported metadata format")

// ParseDocumentMetadata converts a stored metadata serialization back into
// a DocumentMetadata. Rows written by older deployments may hold a
// Python-style literal instead of JSON, so JSON decoding falls back to a
// permissive literal parser.
func ParseDocumentMetadata(raw string) (*ragmodels.DocumentMetadata, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	var metadata ragmodels.DocumentMetadata
	if err := json.Unmarshal([]byte(trimmed), &metadata); err == nil {
		return &metadata, nil
	}

	converted, err := literalToJSON(trimmed)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(converted), &metadata); err != nil {
		return nil, ErrUnsupportedMetadata
	}
	return &metadata, nil
}

// literalToJSON rewrites a Python dict literal into JSON: single-quoted
// strings become double-quoted, and the bare words None/True/False become
// their JSON forms. Anything it cannot account for is rejected.
func literalToJSON(literal string) (string, error) {
	var builder strings.Builder
	inString := false
	var quote byte

	for i := 0; i < len(literal); i++ {
		c := literal[i]

		if inString {
			switch {
			case c == '\\' && i+1 < len(literal):
				i++
				// An escaped single quote has no JSON escape form
				if literal[i] == '\'' {
					builder.WriteByte('\'')
				} else {
					builder.WriteByte(c)
					builder.WriteByte(literal[i])
				}
			case c == quote:
				inString = false
				builder.WriteByte('"')
			case c == '"':
				builder.WriteString(`\"`)
			default:
				builder.WriteByte(c)
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			inString = true
			quote = c
			builder.WriteByte('"')
		case hasWordAt(literal, i, "None"):
			builder.WriteString("null")
			i += len("None") - 1
		case hasWordAt(literal, i, "True"):
			builder.WriteString("true")
			i += len("True") - 1
		case hasWordAt(literal, i, "False"):
			builder.WriteString("false")
			i += len("False") - 1
		default:
			builder.WriteByte(c)
		}
	}

	if inString {
		return "", ErrUnsupportedMetadata
	}
	return builder.String(), nil
}

func hasWordAt(s string, index int, word string) bool {
	if !strings.HasPrefix(s[index:], word) {
		return false
	}
	end := index + len(word)
	if end < len(s) && isWordChar(s[end]) {
		return false
	}
	if index > 0 && isWordChar(s[index-1]) {
		return false
	}
	return true
}

func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
