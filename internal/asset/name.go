// Package asset implements onyo's name template compiler, faux-serial
// generation, and name<->content binding rules (spec §3, §4.3).
package asset

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/onyo-cli/onyo/internal/ierr"
)

// strictCharClass excludes the reserved characters ('_' and '.') from every
// template field except the tail.
const strictCharClass = `[^_.]+`

// tailCharClass is unconstrained, accommodating arbitrary manufacturer serials.
const tailCharClass = `.+`

// Template is a compiled asset name template: literal runs interleaved with
// named placeholders. Exactly one placeholder — the one following the final
// '.' in the template string — is the "tail" field.
type Template struct {
	raw    string
	fields []string       // placeholder names in order
	tail   string         // name of the tail field
	re     *regexp.Regexp // named capture groups per field
}

// Compile parses a template string such as "{type}_{make}_{model}.{serial}"
// into a Template. Fails if the template has no placeholders, if it starts
// with '.', or if two placeholders are adjacent with no literal separator
// (ambiguous parse).
func Compile(tmpl string) (*Template, error) {
	if strings.HasPrefix(tmpl, ".") {
		return nil, fmt.Errorf("name template %q may not start with '.'", tmpl)
	}
	placeholderRe := regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)
	matches := placeholderRe.FindAllStringSubmatchIndex(tmpl, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("name template %q has no {field} placeholders", tmpl)
	}

	lastDot := strings.LastIndex(tmpl, ".")
	tailIdx := -1
	for i, m := range matches {
		start := m[0]
		if lastDot >= 0 && start > lastDot {
			tailIdx = i
		}
	}
	if tailIdx == -1 {
		return nil, fmt.Errorf("name template %q has no tail field after the final '.'", tmpl)
	}

	var pattern strings.Builder
	pattern.WriteString("^")
	fields := make([]string, 0, len(matches))
	cursor := 0
	for i, m := range matches {
		start, end := m[0], m[1]
		nameStart, nameEnd := m[2], m[3]
		literal := tmpl[cursor:start]
		if i > 0 && literal == "" {
			return nil, fmt.Errorf("name template %q has adjacent placeholders with no separator", tmpl)
		}
		if literal != "" {
			pattern.WriteString(regexp.QuoteMeta(literal))
		}
		name := tmpl[nameStart:nameEnd]
		fields = append(fields, name)
		class := strictCharClass
		if i == tailIdx {
			class = tailCharClass
		}
		fmt.Fprintf(&pattern, "(?P<%s>%s)", name, class)
		cursor = end
	}
	if cursor < len(tmpl) {
		pattern.WriteString(regexp.QuoteMeta(tmpl[cursor:]))
	}
	pattern.WriteString("$")

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("compile name template %q: %w", tmpl, err)
	}

	return &Template{raw: tmpl, fields: fields, tail: fields[tailIdx], re: re}, nil
}

// String returns the original template string.
func (t *Template) String() string { return t.raw }

// Fields returns the ordered list of bound field names.
func (t *Template) Fields() []string { return append([]string(nil), t.fields...) }

// TailField returns the name of the relaxed-charset tail field.
func (t *Template) TailField() string { return t.tail }

// Parse matches name against the template, greedily and left-to-right, and
// returns the bound field values. Fails with InvalidAssetNameError whose
// Clause is the non-tail field that came out empty or holding '_' or '.',
// or the whole template string when name does not match its shape at all.
func (t *Template) Parse(name string) (map[string]string, error) {
	m := t.re.FindStringSubmatch(name)
	if m == nil {
		return nil, &ierr.InvalidAssetNameError{Name: name, Clause: t.raw}
	}
	result := make(map[string]string, len(t.fields))
	for i, groupName := range t.re.SubexpNames() {
		if i == 0 || groupName == "" {
			continue
		}
		result[groupName] = m[i]
	}
	for _, f := range t.fields {
		if f != t.tail && (result[f] == "" || strings.ContainsAny(result[f], "_.")) {
			return nil, &ierr.InvalidAssetNameError{Name: name, Clause: f}
		}
	}
	return result, nil
}

// Render composes a name from field values, in template order.
func (t *Template) Render(values map[string]string) (string, error) {
	var b strings.Builder
	placeholderRe := regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)
	remainder := t.raw
	for {
		loc := placeholderRe.FindStringSubmatchIndex(remainder)
		if loc == nil {
			b.WriteString(remainder)
			break
		}
		b.WriteString(remainder[:loc[0]])
		field := remainder[loc[2]:loc[3]]
		val, ok := values[field]
		if !ok || val == "" {
			return "", fmt.Errorf("missing value for field %q", field)
		}
		if field != t.tail && strings.ContainsAny(val, "_.") {
			return "", &ierr.InvalidAssetNameError{Name: val, Clause: field}
		}
		b.WriteString(val)
		remainder = remainder[loc[1]:]
	}
	return b.String(), nil
}
