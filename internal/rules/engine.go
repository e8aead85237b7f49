// Package rules rewrites transcripts before they become drafts. Speech-to-text
// regularly mangles remedy names and potencies ("bella donna thirty c"); a
// rules file maps those back to what the user meant.
//
// Each non-blank line that does not start with '#' is one rule:
//
//	bella donna => Belladonna
//	s/\b(\d+)\s*c\b/${1}C/g
//
// Literal rules match case-insensitively everywhere. Sed-style rules accept any
// non-alphanumeric delimiter and the flags i, g, m and s; without g only the
// first match is replaced. Rules are applied in order, repeatedly, until the
// text stops changing or the iteration limit is reached. A literal rule whose
// replacement contains its own source ("arnica => Arnica montana") is applied
// on the first pass only.
package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const defaultIterationLimit = 30

type rule struct {
	re          *regexp.Regexp
	replacement string
	firstOnly   bool
	// once marks a rule whose output matches its own pattern. It runs on the
	// first pass only, otherwise every pass would rewrite it again.
	once bool
}

func (r rule) apply(input string) string {
	if !r.firstOnly {
		return r.re.ReplaceAllString(input, r.replacement)
	}
	loc := r.re.FindStringSubmatchIndex(input)
	if loc == nil {
		return input
	}
	expanded := r.re.ExpandString(nil, r.replacement, input, loc)
	return input[:loc[0]] + string(expanded) + input[loc[1]:]
}

// Engine applies a fixed rule list.
type Engine struct {
	rules []rule
	limit int
}

// NewEngine loads rules from path. A blank path or a missing file yields an
// engine that returns its input unchanged.
func NewEngine(path string, iterationLimit int) (*Engine, error) {
	if strings.TrimSpace(path) == "" {
		return Parse("", iterationLimit)
	}
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Parse("", iterationLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}
	engine, err := Parse(string(contents), iterationLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}
	return engine, nil
}

// Parse compiles rules from their textual form.
func Parse(contents string, iterationLimit int) (*Engine, error) {
	if iterationLimit <= 0 {
		iterationLimit = defaultIterationLimit
	}
	engine := &Engine{limit: iterationLimit}

	for index, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var (
			parsed rule
			err    error
		)
		switch {
		case isSedRule(line):
			parsed, err = parseSed(line)
		case strings.Contains(line, "=>"):
			parsed, err = parseLiteral(line)
		default:
			err = errors.New("unsupported rule format")
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
		engine.rules = append(engine.rules, parsed)
	}
	return engine, nil
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

func (e *Engine) Apply(text string) (string, error) {
	result := text
	for i := 0; i < e.limit && len(e.rules) > 0; i++ {
		before := result
		for _, r := range e.rules {
			if r.once && i > 0 {
				continue
			}
			result = r.apply(result)
		}
		if result == before {
			break
		}
	}
	return result, nil
}

func parseLiteral(line string) (rule, error) {
	from, to, _ := strings.Cut(line, "=>")
	from = strings.TrimSpace(from)
	if from == "" {
		return rule{}, errors.New("literal rule source cannot be empty")
	}
	to = strings.TrimSpace(to)
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(from))
	// Literal replacements must not expand $1-style references.
	return rule{
		re:          re,
		replacement: strings.ReplaceAll(to, "$", "$$"),
		once:        re.MatchString(to),
	}, nil
}

func isSedRule(line string) bool {
	return len(line) > 1 && line[0] == 's' && !isWordOrSpace(line[1])
}

func parseSed(line string) (rule, error) {
	delim := line[1]
	fields, rest, err := splitDelimited(line[2:], delim, 2)
	if err != nil {
		return rule{}, err
	}

	flags := "i"
	firstOnly := true
	for _, flag := range strings.ReplaceAll(rest, " ", "") {
		switch flag {
		case 'g':
			firstOnly = false
		case 'i':
		case 'm', 's':
			flags += string(flag)
		default:
			return rule{}, fmt.Errorf("unsupported regex flag %q", flag)
		}
	}

	re, err := regexp.Compile("(?" + flags + ")" + fields[0])
	if err != nil {
		return rule{}, fmt.Errorf("invalid regex: %w", err)
	}
	return rule{re: re, replacement: fields[1], firstOnly: firstOnly}, nil
}

// splitDelimited reads n delim-terminated fields, honouring backslash escapes,
// and returns whatever follows the last delimiter.
func splitDelimited(input string, delim byte, n int) ([]string, string, error) {
	fields := make([]string, 0, n)
	var current strings.Builder
	escaped := false

	for i := 0; i < len(input); i++ {
		char := input[i]
		switch {
		case escaped:
			escaped = false
			current.WriteByte(char)
		case char == '\\':
			escaped = true
			current.WriteByte(char)
		case char == delim:
			fields = append(fields, current.String())
			current.Reset()
			if len(fields) == n {
				return fields, input[i+1:], nil
			}
		default:
			current.WriteByte(char)
		}
	}
	return nil, "", errors.New("unterminated expression")
}

func isWordOrSpace(char byte) bool {
	return (char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9') ||
		char == ' ' || char == '\t'
}
