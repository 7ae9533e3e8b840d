package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/omdiwan06/CricketRAG/internal/rag/models"
	"github.com/omdiwan06/CricketRAG/pkg/util"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var (
	ErrNotADirectory = errors.New("path is not a directory")
	ErrNoDocuments   = errors.New("no supported documents found in directory")
)

// DirectoryLoader reads a directory of corpus files and produces
// chunk-ready documents with per-file metadata.
type DirectoryLoader struct {
	htmlConverter *md.Converter
	logger        zerolog.Logger
}

// NewDirectoryLoader creates a loader for .txt, .md and .html files.
func NewDirectoryLoader() *DirectoryLoader {
	return &DirectoryLoader{
		htmlConverter: md.NewConverter("", true, nil),
		logger:        util.NewLogger(zerolog.InfoLevel),
	}
}

// LoadDirectory walks the directory recursively and parses every supported
// file. Unsupported extensions are logged and skipped.
func (l *DirectoryLoader) LoadDirectory(path string) ([]*models.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, ErrNotADirectory
	}

	var documents []*models.Document
	err = filepath.WalkDir(path, func(filePath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}

		document, err := l.loadFile(filePath)
		if err != nil {
			return err
		}
		if document != nil {
			documents = append(documents, document)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}

	l.logger.Info().Int("documents", len(documents)).Str("directory", path).Msg("Loaded documents")
	return documents, nil
}

func (l *DirectoryLoader) loadFile(filePath string) (*models.Document, error) {
	extension := strings.ToLower(filepath.Ext(filePath))

	var parse func(raw []byte) (string, error)
	switch extension {
	case ".txt":
		parse = func(raw []byte) (string, error) { return string(raw), nil }
	case ".md", ".markdown":
		parse = markdownToText
	case ".html", ".htm":
		parse = l.htmlToText
	default:
		l.logger.Debug().Str("file", filePath).Msg("Skipping unsupported file type")
		return nil, nil
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	text, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filePath, err)
	}
	if strings.TrimSpace(text) == "" {
		l.logger.Warn().Str("file", filePath).Msg("File has no text content, skipping")
		return nil, nil
	}

	return &models.Document{
		Text: text,
		Metadata: map[string]any{
			"file_name": filepath.Base(filePath),
			"file_path": filePath,
		},
	}, nil
}

// markdownToText reduces markdown to plain text by concatenating the raw
// text of each top-level block.
func markdownToText(raw []byte) (string, error) {
	reader := gmtext.NewReader(raw)
	document := goldmark.New().Parser().Parse(reader)

	var builder strings.Builder
	for node := document.FirstChild(); node != nil; node = node.NextSibling() {
		lines := node.Lines()
		if lines.Len() == 0 {
			// Container blocks (lists, quotes) keep their segments on children
			collectSegments(node, raw, &builder)
			continue
		}
		start := lines.At(0).Start
		stop := lines.At(lines.Len() - 1).Stop
		builder.Write(raw[start:stop])
		builder.WriteString("\n\n")
	}

	return builder.String(), nil
}

func collectSegments(node ast.Node, raw []byte, builder *strings.Builder) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		lines := child.Lines()
		if lines.Len() == 0 {
			collectSegments(child, raw, builder)
			continue
		}
		start := lines.At(0).Start
		stop := lines.At(lines.Len() - 1).Stop
		builder.Write(raw[start:stop])
		builder.WriteString("\n")
	}
	builder.WriteString("\n")
}

func (l *DirectoryLoader) htmlToText(raw []byte) (string, error) {
	return l.htmlConverter.ConvertString(string(raw))
}
