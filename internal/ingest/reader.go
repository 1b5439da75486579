package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/komentar/internal/models"
)

type Format string

const (
	FormatText     Format = "txt"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

var ErrUnsupportedFormat = errors.New("[Ingest] unsupported file format")

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// FormatFromPath picks the reader from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", "":
		return FormatText, nil
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadFile loads the comments in path and tags each with keyword.
func ReadFile(path string, keyword string) ([]models.Comment, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[Ingest] failed to open %s: %w", path, err)
	}
	defer f.Close()

	comments, err := Read(f, format, keyword)
	if err != nil {
		return nil, err
	}

	slog.Info("[Ingest] Read comments from file",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("comments", len(comments)))
	return comments, nil
}

// Read parses comments in the given format. Sources without authors get the
// usernames user_1..n.
func Read(r io.Reader, format Format, keyword string) ([]models.Comment, error) {
	switch format {
	case FormatText:
		texts, err := readLines(r)
		if err != nil {
			return nil, err
		}
		return models.ManualComments(keyword, texts), nil
	case FormatCSV:
		return readCSV(r, keyword)
	case FormatJSON:
		return readJSON(r, keyword)
	case FormatMarkdown:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("[Ingest] failed to read markdown: %w", err)
		}
		return models.ManualComments(keyword, MarkdownLines(data)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("[Ingest] failed to read lines: %w", err)
	}
	return lines, nil
}

func readCSV(r io.Reader, keyword string) ([]models.Comment, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[Ingest] failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}

	textCol, ok := columns["text"]
	if !ok {
		textCol, ok = columns["comment_text"]
	}
	if !ok {
		return nil, errors.New("[Ingest] csv needs a text or comment_text column")
	}
	userCol, hasUser := columns["username"]
	videoCol, hasVideo := columns["video_url"]

	var comments []models.Comment
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("[Ingest] failed to read csv row %d: %w", row, err)
		}

		text := strings.TrimSpace(field(record, textCol))
		if text == "" {
			continue
		}

		comment := models.Comment{Keyword: keyword, CommentText: text}
		if hasUser {
			comment.Username = strings.TrimSpace(field(record, userCol))
		}
		if comment.Username == "" {
			comment.Username = fmt.Sprintf("user_%d", len(comments)+1)
		}
		if hasVideo {
			comment.VideoURL = strings.TrimSpace(field(record, videoCol))
		}
		comments = append(comments, comment)
	}

	return comments, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

// readJSON accepts either an array of strings or Apify dataset items.
func readJSON(r io.Reader, keyword string) ([]models.Comment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("[Ingest] failed to read json: %w", err)
	}

	var texts []string
	if err := json.Unmarshal(data, &texts); err == nil {
		kept := texts[:0]
		for _, t := range texts {
			if t = strings.TrimSpace(t); t != "" {
				kept = append(kept, t)
			}
		}
		return models.ManualComments(keyword, kept), nil
	}

	var items []models.ApifyCommentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("[Ingest] json must be an array of strings or dataset items: %w", err)
	}

	comments := make([]models.Comment, 0, len(items))
	for _, item := range items {
		comment, ok := item.ToComment("")
		if !ok {
			continue
		}
		comment.Keyword = keyword
		comments = append(comments, comment)
	}
	return comments, nil
}

// MarkdownLines renders markdown and returns the non-blank lines of its text.
func MarkdownLines(data []byte) []string {
	output := blackfriday.Run(data, blackfriday.WithNoExtensions())
	text := html.UnescapeString(tagPattern.ReplaceAllString(string(output), ""))

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Texts trims raw strings and drops the blank ones.
func Texts(raw []string) []string {
	texts := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}
