package input

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Case is one evaluation case as it appears on disk.
type Case struct {
	ID         string         `json:"id" yaml:"id"`
	Query      string         `json:"query" yaml:"query"`
	Response   string         `json:"response" yaml:"response"`
	GoldAnswer string         `json:"gold_answer" yaml:"gold_answer"`
	Context    []ContextEntry `json:"context" yaml:"context"`

	RecallAtK        *float64 `json:"recall_at_k" yaml:"recall_at_k"`
	QuerySpecificity *float64 `json:"query_specificity" yaml:"query_specificity"`
}

// ContextEntry is one retrieved passage: either inline text or a reference
// to a file. Files ending in .html or .htm are reduced to visible text.
type ContextEntry struct {
	ID       string `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	TextFile string `json:"text_file" yaml:"text_file"`
	Rank     *int   `json:"rank" yaml:"rank"`
}

// LoadCase reads a single case from a JSON or YAML file.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case: %w", err)
	}

	var c Case
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse case %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse case %s: %w", path, err)
		}
	}

	if c.ID == "" {
		c.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &c, nil
}

// LoadCases reads a JSONL stream of cases (one JSON object per line).
// Blank lines and #-comments are skipped.
func LoadCases(path string) ([]Case, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cases: %w", err)
	}
	defer func() { _ = file.Close() }()

	var cases []Case
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var c Case
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, fmt.Errorf("parse case at %s:%d: %w", path, lineNo, err)
		}
		if c.ID == "" {
			c.ID = fmt.Sprintf("case-%d", lineNo)
		}
		cases = append(cases, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan cases: %w", err)
	}

	return cases, nil
}

// ToInput converts a case into a pipeline input, resolving file-backed
// context entries relative to baseDir. Ranks default to input order and
// IDs to doc-<n>.
func (c *Case) ToInput(baseDir string) (pipeline.Input, error) {
	docs := make([]model.ContextDocument, 0, len(c.Context))

	for i, entry := range c.Context {
		text := entry.Text
		if entry.TextFile != "" {
			var err error
			text, err = readContextFile(baseDir, entry.TextFile)
			if err != nil {
				return pipeline.Input{}, err
			}
		}

		id := entry.ID
		if id == "" {
			id = fmt.Sprintf("doc-%d", i+1)
		}
		rank := i
		if entry.Rank != nil {
			rank = *entry.Rank
		}

		docs = append(docs, model.ContextDocument{
			ID:   id,
			Text: text,
			Rank: rank,
		})
	}

	in := pipeline.Input{
		ID:         c.ID,
		Query:      c.Query,
		Context:    docs,
		Response:   c.Response,
		GoldAnswer: c.GoldAnswer,
	}

	if c.RecallAtK != nil || c.QuerySpecificity != nil {
		in.Retrieval = &model.RetrievalMetrics{
			RecallAtK:        c.RecallAtK,
			QuerySpecificity: c.QuerySpecificity,
		}
	}

	return in, nil
}

func readContextFile(baseDir, name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, name)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		file, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("read context file: %w", err)
		}
		defer func() { _ = file.Close() }()
		return VisibleText(file)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read context file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
