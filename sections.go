package main

import (
	"regexp"
	"strings"
)

// planSection is one titled block of AI-generated text.
type planSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Heading shapes the models actually produce: markdown headings, fully-bold
// lines, short standalone "Label:" lines, and numbered "1. Label:" lines.
// The numbered form requires the trailing colon so list items ("1. Eggs and
// toast") stay body text. Anything else is body text.
var (
	mdHeadingRE       = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*$`)
	boldHeadingRE     = regexp.MustCompile(`^\*\*\s*(.+?)\s*:?\s*\*\*\s*:?\s*$`)
	labelHeadingRE    = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 /&'()-]{0,58}):\s*$`)
	numberedHeadingRE = regexp.MustCompile(`^\d{1,2}[.)]\s+([A-Za-z][A-Za-z0-9 /&'()-]{0,58}):\s*$`)
)

// headingTitle reports whether line is a section heading and returns the
// cleaned title.
func headingTitle(line string) (string, bool) {
	if m := mdHeadingRE.FindStringSubmatch(line); m != nil {
		return strings.TrimSuffix(strings.TrimSpace(m[1]), ":"), true
	}
	if m := boldHeadingRE.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := labelHeadingRE.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := numberedHeadingRE.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// splitSections breaks AI reply text into titled sections at heading lines.
// Text before the first heading becomes an untitled introduction section, and
// input with no headings at all comes back as a single untitled section, so
// callers always have something to render.
func splitSections(text string) []planSection {
	var sections []planSection
	var current *planSection

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(current.Body)
		if current.Title != "" || current.Body != "" {
			sections = append(sections, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if title, ok := headingTitle(trimmed); ok {
			flush()
			current = &planSection{Title: title}
			continue
		}
		if current == nil {
			if trimmed == "" {
				continue
			}
			current = &planSection{}
		}
		current.Body += line + "\n"
	}
	flush()

	if sections == nil {
		sections = []planSection{}
	}
	return sections
}
