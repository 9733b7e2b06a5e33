package extractors

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Pre-compiled regular expressions for the cleaning pass.
var (
	mimeHeaderLine  = regexp.MustCompile(`(?im)^(content-(type|transfer-encoding|location|id|disposition)|mime-version|x-[\w-]+|from|to|subject|date|boundary):.*$`)
	qpSoftBreak     = regexp.MustCompile(`=\r?\n`)
	qpHexRun        = regexp.MustCompile(`(?:=[0-9A-Fa-f]{2})+`)
	residualTags    = regexp.MustCompile(`<[^>]{1,200}>`)
	multiSpaces     = regexp.MustCompile(`[ \t]+`)
	multiNewlines   = regexp.MustCompile(`\n{3,}`)
	punctuationLine = regexp.MustCompile(`^[\s\p{P}\p{S}]+$`)
)

// Clean normalises extracted text: MIME header lines are dropped,
// quoted-printable escapes decoded, entities and residual tags removed,
// whitespace collapsed, non-printables stripped and pure-punctuation
// lines discarded.
func Clean(text string) string {
	text = mimeHeaderLine.ReplaceAllString(text, "")

	text = qpSoftBreak.ReplaceAllString(text, "")
	text = qpHexRun.ReplaceAllStringFunc(text, decodeQPRun)

	text = residualTags.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)

	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, text)

	text = multiSpaces.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || punctuationLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	text = strings.Join(kept, "\n")

	return strings.TrimSpace(multiNewlines.ReplaceAllString(text, "\n\n"))
}

// decodeQPRun decodes a run of consecutive =XX escapes as raw bytes, so
// multi-byte UTF-8 sequences such as =C3=A9 come out as one rune. Runs
// that do not form printable UTF-8 are left untouched.
func decodeQPRun(m string) string {
	buf := make([]byte, 0, len(m)/3)
	for i := 0; i < len(m); i += 3 {
		v, err := strconv.ParseUint(m[i+1:i+3], 16, 8)
		if err != nil {
			return m
		}
		buf = append(buf, byte(v))
	}
	if !utf8.Valid(buf) {
		return m
	}
	for _, r := range string(buf) {
		if r < 0x20 && r != '\n' && r != '\t' {
			return m
		}
	}
	return string(buf)
}

// Truncate caps text at maxWords whitespace-delimited tokens.
// A non-positive maxWords leaves the text untouched.
func Truncate(text string, maxWords int) (string, int) {
	words := strings.Fields(text)
	if maxWords <= 0 || len(words) <= maxWords {
		return text, len(words)
	}
	return strings.Join(words[:maxWords], " "), maxWords
}
