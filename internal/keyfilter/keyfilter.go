// Package keyfilter implements the key filter micro-protocol (§4.8): a
// handful of typewriter-style conveniences — auto-closing brackets and
// quotes, stepping over a typed closing character instead of doubling
// it, and collapsing "--" and " - " into em-dash/en-dash — applied to
// raw keystrokes before they reach a Text Model view. The rule table
// itself lives in rules.yaml and is loaded as data (§9's guidance to
// keep the table easy to extend without touching Go code), mirroring
// internal/config's pattern of unmarshaling YAML into a plain struct.
package keyfilter

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Pair is one auto-closing bracket/quote pair.
type Pair struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// DashCollapse configures the em-dash/en-dash collapsing rules.
type DashCollapse struct {
	Trigger string `yaml:"trigger"`
	EmDash  string `yaml:"em_dash"`
	EnDash  string `yaml:"en_dash"`
}

// Rules is the data-driven rule table loaded from rules.yaml.
type Rules struct {
	Pairs                    []Pair       `yaml:"pairs"`
	DashCollapse             DashCollapse `yaml:"dash_collapse"`
	TrailingPunctBeforeSpace []string     `yaml:"trailing_punct_before_space"`
	CommaBeforeCloseInput    []string     `yaml:"comma_before_close_input"`
	CommaBeforeCloseCurrent  []string     `yaml:"comma_before_close_current"`
}

// ParseRules parses a rules table from YAML bytes in the shape of
// rules.yaml.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DefaultRules returns the rule table embedded into the binary.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// Op is one synthetic edit operation a Filter emits in place of a raw
// keystroke.
type Op int

const (
	// OpInsert inserts Text at the current cursor position.
	OpInsert Op = iota
	// OpBackspace removes one rune before the current cursor position.
	OpBackspace
	// OpCursorLeft moves the cursor back one rune without editing text
	// (used to land the cursor between an auto-inserted pair).
	OpCursorLeft
	// OpCursorRight steps the cursor forward one rune without editing
	// text (the "skip over" behavior for a typed closing character).
	OpCursorRight
)

// Action is one synthetic operation in the sequence a Filter produces
// for a single raw keystroke. The sequence is always applied within one
// compound edit (§4.4.5) so it undoes as a single step.
type Action struct {
	Op   Op
	Text string
}

// Filter turns raw keystrokes into the synthetic edit sequences
// described by a Rules table (§4.8).
type Filter struct {
	pairOpenToClose map[string]string
	closeSet        map[string]bool
	quote           string

	dashTrigger string
	emDash      string
	enDash      string

	trailingBeforeSpace map[string]bool
	commaInput          map[string]bool
	commaCurrent        map[string]bool
}

// New builds a Filter from rules. Passing nil uses DefaultRules.
func New(rules *Rules) *Filter {
	if rules == nil {
		rules, _ = DefaultRules()
	}

	f := &Filter{
		pairOpenToClose:     make(map[string]string, len(rules.Pairs)),
		closeSet:            make(map[string]bool, len(rules.Pairs)),
		dashTrigger:         rules.DashCollapse.Trigger,
		emDash:              rules.DashCollapse.EmDash,
		enDash:              rules.DashCollapse.EnDash,
		trailingBeforeSpace: toSet(rules.TrailingPunctBeforeSpace),
		commaInput:          toSet(rules.CommaBeforeCloseInput),
		commaCurrent:        toSet(rules.CommaBeforeCloseCurrent),
	}

	for _, p := range rules.Pairs {
		if p.Open == p.Close {
			f.quote = p.Open
			continue
		}
		f.pairOpenToClose[p.Open] = p.Close
		f.closeSet[p.Close] = true
	}

	return f
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it] = true
	}
	return s
}

// Apply decides the synthetic edit sequence for one raw keystroke
// (input, a single grapheme such as "{" or " "), given the rune already
// at the cursor (current, the rune immediately after the insertion
// point, or 0 at end of document), the rune immediately before the
// cursor (previous), and the one before that (beforeLast). Rules are
// evaluated in the order given by §4.8's table; the first match wins.
// A nil/empty return means "insert input unchanged".
func (f *Filter) Apply(input string, current, previous, beforeLast rune) []Action {
	// Opening half of a bracket pair: always inserts both halves and
	// parks the cursor between them.
	if close, ok := f.pairOpenToClose[input]; ok {
		return []Action{
			{Op: OpInsert, Text: input},
			{Op: OpInsert, Text: close},
			{Op: OpCursorLeft},
		}
	}

	// Closing half of a bracket pair: steps over an already-present
	// matching close character instead of duplicating it.
	if f.closeSet[input] {
		if string(current) == input {
			return []Action{{Op: OpCursorRight}}
		}
		return nil
	}

	// Quote: first press opens a pair, a press when the cursor already
	// sits on a quote steps over it instead.
	if f.quote != "" && input == f.quote {
		if string(current) == f.quote {
			return []Action{{Op: OpCursorRight}}
		}
		return []Action{
			{Op: OpInsert, Text: input},
			{Op: OpInsert, Text: f.quote},
			{Op: OpCursorLeft},
		}
	}

	// "--" collapses to an em-dash.
	if f.dashTrigger != "" && input == f.dashTrigger {
		if previous == rune(f.dashTrigger[0]) {
			return []Action{
				{Op: OpBackspace},
				{Op: OpInsert, Text: f.emDash},
			}
		}
		return nil
	}

	// " - " collapses to an en-dash: the space after a single dash that
	// itself followed a space.
	if input == " " {
		if f.dashTrigger != "" && previous == rune(f.dashTrigger[0]) && beforeLast == ' ' {
			return []Action{
				{Op: OpBackspace},
				{Op: OpInsert, Text: f.enDash},
				{Op: OpInsert, Text: " "},
			}
		}
		// A space typed right after another space, with a trailing
		// closer/punctuation mark sitting at the cursor, collapses the
		// stray space instead of leaving "word }".
		if previous == ' ' && f.trailingBeforeSpace[string(current)] {
			return []Action{
				{Op: OpBackspace},
				{Op: OpCursorRight},
				{Op: OpInsert, Text: " "},
			}
		}
		return nil
	}

	// Comma/period/bang/question typed right after a comma, with a
	// closing character already at the cursor, replaces the comma with
	// the typed mark and steps the cursor past the closer:
	// `world,|"` + "." -> `world."|`.
	if f.commaInput[input] && previous == ',' && f.commaCurrent[string(current)] {
		return []Action{
			{Op: OpBackspace},
			{Op: OpInsert, Text: input},
			{Op: OpCursorRight},
		}
	}

	// Any other keystroke typed right after two consecutive spaces
	// collapses the stray extra space.
	if previous == ' ' && beforeLast == ' ' {
		return []Action{
			{Op: OpBackspace},
			{Op: OpInsert, Text: input},
		}
	}

	return nil
}
