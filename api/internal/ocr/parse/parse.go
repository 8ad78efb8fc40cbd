// Package parse turns the numbered-block answer of the OCR model into text blocks with boxes.
//
// Expected answer shape:
//
//	1: <text> (from: {x:12, y:34}, to: {x:56, y:78})
//	2: <text> (from: {x:90, y:12}, to: {x:34, y:56})
//	Number of text blocks: 2
//
// The model does not always follow it, so every step is lenient: lines without an
// ordinal are dropped, blocks are sorted by ordinal, and a block without an annotation
// gets a zero box.
package parse

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// NoTextSentinel is what the model answers when the image has no readable text.
const NoTextSentinel = "No text found"

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Block is one recognized text block. From is the top-left corner, To the bottom-right.
type Block struct {
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
	From    Point  `json:"from"`
	To      Point  `json:"to"`
	// HasBox is false when the line carried no coordinate annotation.
	HasBox bool `json:"has_box"`
}

type Box struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

type Result struct {
	Blocks []Block
	// Declared is the block count the model claims, -1 when unknown.
	Declared int
}

// CountMismatch reports whether the model declared a count that differs from what was parsed.
func (r Result) CountMismatch() bool {
	return r.Declared >= 0 && r.Declared != len(r.Blocks)
}

var (
	reSummary   = regexp.MustCompile(`(?i)^number of text block`)
	reOrdinal   = regexp.MustCompile(`^\s*(\d+)\s*[:.)]\s*(.*)$`)
	reBox       = regexp.MustCompile(`\(\s*from\s*:\s*\{\s*x\s*:\s*(-?\d+)\s*,\s*y\s*:\s*(-?\d+)\s*\}\s*,\s*to\s*:\s*\{\s*x\s*:\s*(-?\d+)\s*,\s*y\s*:\s*(-?\d+)\s*\}\s*\)`)
	reCoordTail = regexp.MustCompile(`(?i)\s*\([^)]*(from|to)[^)]*\)\s*$`)
	reParenTail = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	reTag       = regexp.MustCompile(`</?[^>]+(>|$)`)
	reDeclared  = regexp.MustCompile(`(?i)number of text blocks?\s*[:\-]\s*(\d+)`)
)

const quoteChars = "\"'“”‘’ \t"

// Parse extracts blocks from a raw model answer. It never fails; unusable input
// yields an empty result.
func Parse(raw string) Result {
	res := Result{Declared: DeclaredCount(raw)}
	if isEmptyAnswer(raw) {
		return res
	}

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		b, ok := parseLine(strings.TrimSpace(line))
		if ok {
			res.Blocks = append(res.Blocks, b)
		}
	}
	// stable so duplicate ordinals keep line order
	slices.SortStableFunc(res.Blocks, func(a, b Block) int { return a.Ordinal - b.Ordinal })
	return res
}

// Texts returns the block texts in ordinal order.
func (r Result) Texts() []string {
	out := make([]string, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		out = append(out, b.Text)
	}
	return out
}

func parseLine(line string) (Block, bool) {
	if line == "" || reSummary.MatchString(line) {
		return Block{}, false
	}
	m := reOrdinal.FindStringSubmatch(line)
	if m == nil {
		return Block{}, false
	}
	ord, err := strconv.Atoi(m[1])
	if err != nil {
		return Block{}, false
	}
	rest := m[2]

	b := Block{Ordinal: ord}
	if bm := reBox.FindStringSubmatch(rest); bm != nil {
		b.From = Point{X: atoi(bm[1]), Y: atoi(bm[2])}
		b.To = Point{X: atoi(bm[3]), Y: atoi(bm[4])}
		b.HasBox = true
	}

	text := strings.TrimSpace(rest)
	text = strings.TrimSpace(reCoordTail.ReplaceAllString(text, ""))
	text = strings.TrimSpace(reParenTail.ReplaceAllString(text, ""))
	text = strings.Trim(text, quoteChars)
	text = strings.TrimSpace(reTag.ReplaceAllString(text, ""))
	if text == "" {
		return Block{}, false
	}
	b.Text = text
	return b, true
}

// Coordinates returns every coordinate annotation in textual order, whether or not the
// line it sits on parsed as a block.
func Coordinates(raw string) []Box {
	var out []Box
	for _, m := range reBox.FindAllStringSubmatch(raw, -1) {
		out = append(out, Box{
			From: Point{X: atoi(m[1]), Y: atoi(m[2])},
			To:   Point{X: atoi(m[3]), Y: atoi(m[4])},
		})
	}
	return out
}

// DeclaredCount reads the last "Number of text block(s): N". Without one it falls
// back to a single trailing digit of the answer. Returns -1 when unknown, including a
// declared count too large to represent.
func DeclaredCount(raw string) int {
	if isEmptyAnswer(raw) {
		return -1
	}
	if all := reDeclared.FindAllStringSubmatch(raw, -1); len(all) > 0 {
		n, err := strconv.Atoi(all[len(all)-1][1])
		if err != nil {
			return -1 // out of range
		}
		return n
	}
	t := strings.TrimSpace(raw)
	if last := t[len(t)-1]; last >= '0' && last <= '9' {
		return int(last - '0')
	}
	return -1
}

func isEmptyAnswer(raw string) bool {
	t := strings.TrimSpace(raw)
	return t == "" || t == NoTextSentinel
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
