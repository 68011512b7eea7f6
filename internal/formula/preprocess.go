package formula

import (
	"fmt"
	"strings"
)

// preprocess translates the mini-language's surface conditional syntax
// ("if … then … else …" and "cond when … then … [when … then …]* [default
// …]") into expr-lang ternary chains. Plain expressions (no leading
// keyword) pass through unchanged. Branch bodies are preprocessed
// recursively, and an expression wrapped whole in one pair of
// parentheses is translated inside them, so a branch may itself be an
// if/cond when it is parenthesized.
func preprocess(src string) (string, error) {
	s := strings.TrimSpace(src)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		depth := 0
		for i := 0; i < len(s)-1 && (i == 0 || depth > 0); i++ {
			depth += map[byte]int{'(': 1, ')': -1}[s[i]]
		}
		if depth > 0 {
			inner, err := preprocess(s[1 : len(s)-1])
			if err != nil {
				return "", err
			}
			return "(" + inner + ")", nil
		}
	}
	switch {
	case hasLeadingWord(s, "if"):
		return preprocessIf(s)
	case hasLeadingWord(s, "cond"):
		return preprocessCond(s)
	default:
		return s, nil
	}
}

func preprocessIf(s string) (string, error) {
	rest := strings.TrimSpace(s[len("if"):])
	matches := findTopLevelKeywords(rest, "then", "else")
	if len(matches) != 2 || matches[0].word != "then" || matches[1].word != "else" {
		return "", fmt.Errorf("formula: malformed if/then/else expression")
	}
	condText := strings.TrimSpace(rest[:matches[0].start])
	thenText := strings.TrimSpace(rest[matches[0].end:matches[1].start])
	elseText := strings.TrimSpace(rest[matches[1].end:])

	cond, err := preprocess(condText)
	if err != nil {
		return "", err
	}
	thenExpr, err := preprocess(thenText)
	if err != nil {
		return "", err
	}
	elseExpr, err := preprocess(elseText)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s) ? (%s) : (%s)", cond, thenExpr, elseExpr), nil
}

func preprocessCond(s string) (string, error) {
	rest := strings.TrimSpace(s[len("cond"):])
	matches := findTopLevelKeywords(rest, "when", "then", "default")

	type clause struct{ cond, then string }
	var clauses []clause
	defaultExpr := "nil"

	i := 0
	for i < len(matches) {
		m := matches[i]
		switch m.word {
		case "when":
			if i+1 >= len(matches) || matches[i+1].word != "then" {
				return "", fmt.Errorf("formula: cond: \"when\" must be followed by \"then\"")
			}
			thenMatch := matches[i+1]
			condText := strings.TrimSpace(rest[m.end:thenMatch.start])

			var thenEnd int
			if i+2 < len(matches) {
				thenEnd = matches[i+2].start
			} else {
				thenEnd = len(rest)
			}
			thenText := strings.TrimSpace(rest[thenMatch.end:thenEnd])

			clauses = append(clauses, clause{cond: condText, then: thenText})
			i += 2
		case "default":
			var end int
			if i+1 < len(matches) {
				end = matches[i+1].start
			} else {
				end = len(rest)
			}
			defaultExpr = strings.TrimSpace(rest[m.end:end])
			i++
		default:
			return "", fmt.Errorf("formula: cond: unexpected keyword %q", m.word)
		}
	}
	if len(clauses) == 0 {
		return "", fmt.Errorf("formula: cond: requires at least one when/then clause")
	}

	result, err := preprocess(defaultExpr)
	if err != nil {
		return "", err
	}
	for i := len(clauses) - 1; i >= 0; i-- {
		c := clauses[i]
		cond, err := preprocess(c.cond)
		if err != nil {
			return "", err
		}
		then, err := preprocess(c.then)
		if err != nil {
			return "", err
		}
		result = fmt.Sprintf("(%s) ? (%s) : (%s)", cond, then, result)
	}
	return result, nil
}

type keywordMatch struct {
	word       string
	start, end int
}

// findTopLevelKeywords scans s for whole-word occurrences of any of the
// given keywords, ignoring matches inside (), [], {}, or quoted strings,
// and returns them in source order.
func findTopLevelKeywords(s string, keywords ...string) []keywordMatch {
	var matches []keywordMatch
	depth := 0
	var quote rune
	i := 0
	for i < len(s) {
		c := rune(s[i])
		if quote != 0 {
			if c == quote && (i == 0 || s[i-1] != '\\') {
				quote = 0
			}
			i++
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			i++
			continue
		case '(', '[', '{':
			depth++
			i++
			continue
		case ')', ']', '}':
			depth--
			i++
			continue
		}
		if depth == 0 && isWordStart(s, i) {
			if kw, ok := matchKeyword(s, i, keywords); ok {
				matches = append(matches, keywordMatch{word: kw, start: i, end: i + len(kw)})
				i += len(kw)
				continue
			}
		}
		i++
	}
	return matches
}

func isWordStart(s string, i int) bool {
	if i == 0 {
		return true
	}
	return !isIdentByte(s[i-1])
}

func matchKeyword(s string, i int, keywords []string) (string, bool) {
	for _, kw := range keywords {
		end := i + len(kw)
		if end > len(s) {
			continue
		}
		if s[i:end] != kw {
			continue
		}
		if end < len(s) && isIdentByte(s[end]) {
			continue
		}
		return kw, true
	}
	return "", false
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// hasLeadingWord reports whether s begins with word as a whole word.
func hasLeadingWord(s, word string) bool {
	if !strings.HasPrefix(s, word) {
		return false
	}
	return len(s) == len(word) || !isIdentByte(s[len(word)])
}
