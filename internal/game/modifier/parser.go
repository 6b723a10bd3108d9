// Package modifier scans free-text item and ability descriptions for numeric
// bonuses keyed to named attributes ("+2 Mobilidade", "1,5 pts de esquiva").
package modifier

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// numberPrefix matches a signed integer or decimal, an optional unit word and
// any run of filler prepositions. The alias follows immediately.
const numberPrefix = `([+-]?\d+(?:[.,]\d+)?)\s*(?:(?:pontos|ponto|pts|pt)\.?\s*)?(?:(?:de|da|do|das|dos|em|na|no|nas|nos|ao|a|para)\s+)*`

type pattern struct {
	path string
	re   *regexp.Regexp
}

// Table is a compiled alias table. A Table is immutable and safe for
// concurrent use.
type Table struct {
	patterns []pattern
}

var defaultTable = mustTable(DefaultAliases)

// DefaultTable returns the compiled-in alias table.
func DefaultTable() *Table {
	return defaultTable
}

// NewTable compiles aliases into a Table.
//
// Precondition: every alias has a non-empty Path and at least one non-empty name.
// Postcondition: Returns a Table or an error naming the first invalid alias.
func NewTable(aliases []Alias) (*Table, error) {
	t := &Table{}
	for _, a := range aliases {
		if a.Path == "" {
			return nil, fmt.Errorf("modifier: alias with empty path")
		}
		if len(a.Names) == 0 {
			return nil, fmt.Errorf("modifier: alias %q has no names", a.Path)
		}
		for _, name := range a.Names {
			folded := strings.Join(strings.Fields(Fold(name)), " ")
			if folded == "" {
				return nil, fmt.Errorf("modifier: alias %q has an empty name", a.Path)
			}
			words := strings.Split(folded, " ")
			for i, w := range words {
				words[i] = regexp.QuoteMeta(w)
			}
			re, err := regexp.Compile(numberPrefix + strings.Join(words, `\s+`))
			if err != nil {
				return nil, fmt.Errorf("modifier: compiling alias %q for %q: %w", name, a.Path, err)
			}
			t.patterns = append(t.patterns, pattern{path: a.Path, re: re})
		}
	}
	return t, nil
}

func mustTable(aliases []Alias) *Table {
	t, err := NewTable(aliases)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadTable reads a YAML list of aliases from path.
//
// Postcondition: Returns a compiled Table, or an error if the file cannot be
// read, contains unknown fields, or holds an invalid alias.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading alias table %q: %w", path, err)
	}
	var aliases []Alias
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&aliases); err != nil {
		return nil, fmt.Errorf("parsing alias table %q: %w", path, err)
	}
	return NewTable(aliases)
}

// Fold lower-cases s and strips combining marks, so "Mobilidade", "MOBILIDADE"
// and "mobilidáde" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

type match struct {
	start, end int
	entry      Entry
}

// Parse scans text with the default table.
func Parse(text, source string) []Entry {
	return defaultTable.Parse(text, source)
}

// Parse returns every modifier embedded in text, in order of appearance.
// Matches never overlap; where two aliases compete for the same span the
// earliest and then longest match wins. Malformed numbers produce no entry.
func (t *Table) Parse(text, source string) []Entry {
	folded := Fold(text)
	if strings.TrimSpace(folded) == "" {
		return nil
	}

	var candidates []match
	for _, p := range t.patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(folded, -1) {
			start, end := loc[0], loc[1]
			if !leftBoundary(folded, start) || !rightBoundary(folded, end) {
				continue
			}
			num := strings.ReplaceAll(folded[loc[2]:loc[3]], ",", ".")
			v, err := strconv.ParseFloat(num, 64)
			if err != nil {
				continue
			}
			candidates = append(candidates, match{
				start: start,
				end:   end,
				entry: Entry{Path: p.path, Value: v, Source: source},
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].start != candidates[j].start {
			return candidates[i].start < candidates[j].start
		}
		if li, lj := candidates[i].end-candidates[i].start, candidates[j].end-candidates[j].start; li != lj {
			return li > lj
		}
		return candidates[i].entry.Path < candidates[j].entry.Path
	})

	var out []Entry
	taken := -1
	for _, c := range candidates {
		if c.start < taken {
			continue
		}
		out = append(out, c.entry)
		taken = c.end
	}
	return out
}

// leftBoundary rejects numbers glued to a preceding digit, decimal separator,
// or (for unsigned numbers) a letter: "x2 forca" and "1.2.3 forca" carry no bonus.
func leftBoundary(s string, start int) bool {
	if start == 0 {
		return true
	}
	prev := s[start-1]
	if isDigit(prev) || prev == '.' || prev == ',' {
		return false
	}
	if s[start] == '+' || s[start] == '-' {
		return true
	}
	return !isLetter(prev)
}

func rightBoundary(s string, end int) bool {
	if end >= len(s) {
		return true
	}
	next := s[end]
	return !isDigit(next) && !isLetter(next)
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || b >= 0x80 }
