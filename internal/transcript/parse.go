package transcript

import (
	"encoding/json"
	"encoding/xml"
	"html"
	"regexp"
	"strings"
)

var (
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	cueStartRe  = regexp.MustCompile(`^\d{2}:\d{2}`)
	seqIndexRe  = regexp.MustCompile(`^\d+$`)
	headerWords = []string{"WEBVTT", "NOTE", "STYLE", "REGION", "Kind:", "Language:"}
	blockWords  = []string{"NOTE", "STYLE", "REGION"} // body runs to the next blank line
)

// ParseCaptions turns a caption file into plain text. Surviving lines are joined
// with single spaces in file order; no sentence reconstruction is attempted, so
// rolling auto-captions may repeat phrases.
func ParseCaptions(content, ext string) string {
	switch ext {
	case "srv1":
		// srv1 payloads escape their entities twice.
		return strings.Join(filterLines(timedTextLines(content), unescapeTwice), " ")
	case "srv2", "srv3":
		return strings.Join(filterLines(timedTextLines(content), html.UnescapeString), " ")
	case "json3":
		// segments are plain text; there is no markup to strip
		return strings.Join(filterLines(json3Lines(content), nil), " ")
	default:
		return strings.Join(filterLines(vttLines(content), stripMarkup), " ")
	}
}

// stripMarkup removes inline tags and then decodes entities, so escaped angle
// brackets in spoken text survive.
func stripMarkup(line string) string {
	return html.UnescapeString(tagRe.ReplaceAllString(line, ""))
}

func unescapeTwice(line string) string {
	return html.UnescapeString(html.UnescapeString(line))
}

// vttLines splits a WebVTT file into lines, leaving out the bodies of NOTE,
// STYLE and REGION blocks. The block header itself is kept for filterLines.
func vttLines(content string) []string {
	var lines []string
	inBlock := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		switch {
		case trimmed == "":
			inBlock = false
		case inBlock:
			continue
		case hasPrefix(trimmed, blockWords):
			inBlock = true
		}
		lines = append(lines, line)
	}
	return lines
}

// filterLines drops blank lines, sequence indices, cue timings and container
// headers, then applies clean to what is left.
func filterLines(lines []string, clean func(string) string) []string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || isStructural(line) {
			continue
		}
		if clean != nil {
			line = strings.TrimSpace(clean(line))
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isStructural(line string) bool {
	if strings.Contains(line, "-->") || cueStartRe.MatchString(line) || seqIndexRe.MatchString(line) {
		return true
	}
	return hasPrefix(line, headerWords)
}

func hasPrefix(line string, words []string) bool {
	for _, w := range words {
		if strings.HasPrefix(line, w) {
			return true
		}
	}
	return false
}

// timedText covers YouTube's srv1 (<text>) and srv2/srv3 (<p>, optionally with <s> runs).
type timedText struct {
	Texts []timedTextNode `xml:"text"`
	Body  struct {
		Paragraphs []timedTextNode `xml:"p"`
	} `xml:"body"`
}

type timedTextNode struct {
	Inner string `xml:",innerxml"`
}

func timedTextLines(content string) []string {
	var tt timedText
	if err := xml.Unmarshal([]byte(content), &tt); err != nil {
		return nil
	}
	nodes := tt.Texts
	if len(nodes) == 0 {
		nodes = tt.Body.Paragraphs
	}
	var lines []string
	for _, n := range nodes {
		// innerxml keeps entity escapes, so <s> runs can be dropped without
		// touching escaped brackets in the text. Entities are decoded by the caller.
		lines = append(lines, strings.Split(tagRe.ReplaceAllString(n.Inner, ""), "\n")...)
	}
	return lines
}

type json3Doc struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func json3Lines(content string) []string {
	var doc json3Doc
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil
	}
	var lines []string
	for _, ev := range doc.Events {
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		lines = append(lines, strings.Split(sb.String(), "\n")...)
	}
	return lines
}
