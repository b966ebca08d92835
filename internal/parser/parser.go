// Package parser extracts structure from Markdown notes: YAML
// frontmatter, the first-heading title, wikilinks, and tags.
package parser

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Document holds the parsed pieces of a Markdown note.
type Document struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Links       []string
	Tags        []string
}

// Parse splits raw Markdown into frontmatter and body and extracts
// title, wikilink targets, and tags. Malformed frontmatter is not an
// error: the whole input is treated as body.
func Parse(data []byte) *Document {
	fm, body := splitFrontmatter(data)
	return &Document{
		Frontmatter: fm,
		Body:        body,
		Title:       title(fm, body),
		Links:       links(body),
		Tags:        tags(fm, body),
	}
}

// TitleFor returns the note's display title: frontmatter title, first
// H1, or the file name without extension.
func TitleFor(path string, data []byte) string {
	doc := Parse(data)
	if doc.Title != "" {
		return doc.Title
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\r\n")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}
	rest := trimmed[len(delim):]
	end := bytes.Index(rest, []byte("\n"+delim))
	if end < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return nil, string(data)
	}
	body := rest[end+1+len(delim):]
	return fm, strings.TrimLeft(string(body), "\r\n")
}

func title(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "# ") {
			return strings.TrimSpace(t[2:])
		}
	}
	return ""
}

func links(body string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target := m[1]
		// [[Target|Alias]] links to Target.
		if i := strings.IndexByte(target, '|'); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

func tags(fm map[string]any, body string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			add(s)
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}
