package todo

import (
	"bufio"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter holds the todo fields a markdown note may declare in its YAML
// front matter. All fields are best-effort: missing or malformed front
// matter produces zero values.
type Frontmatter struct {
	Title    string `yaml:"title"`
	Priority string `yaml:"priority"`
	Due      string `yaml:"due"`
}

// ParseFrontmatter extracts YAML front matter from document content and
// returns the remaining body. Front matter must be delimited by "---" on its
// own line at the start of the file; otherwise the whole content is the
// body.
func ParseFrontmatter(content string) (Frontmatter, string) {
	scanner := bufio.NewScanner(strings.NewReader(content))

	// First line must be "---"
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "---" {
		return Frontmatter{}, content
	}

	var (
		lines  []string
		closed bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}
		lines = append(lines, line)
	}
	if !closed {
		return Frontmatter{}, content
	}

	var body strings.Builder
	for scanner.Scan() {
		body.WriteString(scanner.Text())
		body.WriteByte('\n')
	}

	var fm Frontmatter
	if len(lines) > 0 {
		_ = yaml.Unmarshal([]byte(strings.Join(lines, "\n")), &fm)
	}

	return fm, strings.TrimSpace(body.String())
}

// DraftFromDocument builds a draft from a markdown note. Front matter
// supplies the title, priority and due date; the body becomes the
// description. Without a title the first markdown heading is used.
// Priorities that do not parse fall back to the default.
func DraftFromDocument(content string) Draft {
	fm, body := ParseFrontmatter(content)

	d := NewDraft()
	d.Title = strings.TrimSpace(fm.Title)
	d.DueDate = strings.TrimSpace(fm.Due)
	if p, err := ParsePriority(strings.ToLower(strings.TrimSpace(fm.Priority))); err == nil {
		d.Priority = p
	}

	if d.Title == "" {
		if heading, rest, ok := leadingHeading(body); ok {
			d.Title = heading
			body = rest
		}
	}
	d.Description = strings.TrimSpace(body)
	return d
}

// leadingHeading splits a first line of the form "# Heading" off body.
func leadingHeading(body string) (string, string, bool) {
	first, rest, _ := strings.Cut(body, "\n")
	heading, ok := strings.CutPrefix(strings.TrimSpace(first), "# ")
	if !ok {
		return "", body, false
	}
	return strings.TrimSpace(heading), strings.TrimSpace(rest), true
}
