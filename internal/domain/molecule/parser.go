// Package molecule provides the molecular domain model: syntactic validation
// of structure notation, canonical-key derivation for duplicate detection,
// and the imported molecule record.
package molecule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// ParseResult is the outcome of syntactic analysis of a structure notation.
// When Valid is false, Reason holds a human-readable explanation and the
// remaining fields are zero.
type ParseResult struct {
	Valid        bool
	Reason       string
	CanonicalKey string
	AtomCount    int
}

// Parser analyses structure notation strings.  Parse reports syntactic
// invalidity through the result value; the error return is reserved for
// parser-internal failures such as a crashed external toolkit.
type Parser interface {
	Parse(notation string) (ParseResult, error)
}

// validNotationChars is the allowed character set for SMILES-style notation.
// This is a necessary-but-not-sufficient check; structural rules are enforced
// separately.
var validNotationChars = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#$:/\\%.*]+$`)

// twoLetterElements lists the element symbols that occupy two characters when
// written outside brackets (the halogens Cl and Br).
var twoLetterElements = map[string]bool{"Cl": true, "Br": true}

// bracketAtom matches the content of a bracket atom expression:
// optional isotope, element symbol or aromatic atom, then chirality,
// hydrogen count, charge.
var bracketAtom = regexp.MustCompile(`^\d*(?:[A-Z][a-z]?|[bcnops]|se|as)(?:@{1,2}(?:TH|AL|SP|TB|OH)?\d*)?(?:H\d*)?(?:\+{1,3}|-{1,3}|[+-]\d+)?$`)

// NotationParser performs lightweight syntactic validation of SMILES-style
// notation: character set, bracket and parenthesis balance, ring-bond
// pairing, and bracket-atom well-formedness.  It does not verify chemical
// plausibility (valence, aromaticity); that level of analysis needs a full
// cheminformatics toolkit.
type NotationParser struct{}

// NewNotationParser constructs a NotationParser.
func NewNotationParser() *NotationParser {
	return &NotationParser{}
}

// Parse validates notation and, when valid, derives the canonical key used
// for duplicate detection along with a heavy-atom count.
func (p *NotationParser) Parse(notation string) (ParseResult, error) {
	trimmed := strings.TrimSpace(notation)
	if trimmed == "" {
		return invalid("structure notation cannot be empty"), nil
	}

	if !validNotationChars.MatchString(trimmed) {
		return invalid("structure notation contains invalid characters"), nil
	}

	if reason, ok := checkBalance(trimmed); !ok {
		return invalid(reason), nil
	}

	if reason, ok := checkRingBonds(trimmed); !ok {
		return invalid(reason), nil
	}

	if reason, ok := checkBracketAtoms(trimmed); !ok {
		return invalid(reason), nil
	}

	atoms := countAtoms(trimmed)
	if atoms == 0 {
		return invalid("structure notation contains no atoms"), nil
	}

	return ParseResult{
		Valid:        true,
		CanonicalKey: CanonicalKey(trimmed),
		AtomCount:    atoms,
	}, nil
}

func invalid(reason string) ParseResult {
	return ParseResult{Valid: false, Reason: reason}
}

// checkBalance verifies that parentheses and square brackets are balanced and
// properly nested, and that branches and bracket atoms are non-empty.
func checkBalance(s string) (string, bool) {
	var stack []byte
	prev := byte(0)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', '[':
			stack = append(stack, c)
		case ')':
			if len(stack) == 0 || stack[len(stack)-1] != '(' {
				return "unmatched closing parenthesis", false
			}
			if prev == '(' {
				return "empty branch", false
			}
			stack = stack[:len(stack)-1]
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return "unmatched closing bracket", false
			}
			if prev == '[' {
				return "empty bracket atom", false
			}
			stack = stack[:len(stack)-1]
		}
		prev = s[i]
	}
	if len(stack) != 0 {
		return "unclosed parenthesis or bracket", false
	}
	return "", true
}

// checkRingBonds verifies that every ring-bond digit (1-9, or %nn for
// two-digit labels) opens and closes exactly once per pair.
func checkRingBonds(s string) (string, bool) {
	open := map[string]bool{}
	inBracket := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '[':
			inBracket = true
			continue
		case c == ']':
			inBracket = false
			continue
		case inBracket:
			// Digits inside brackets are isotopes, H counts, or charges.
			continue
		case c == '%':
			if i+2 >= len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
				return "malformed two-digit ring-bond label", false
			}
			label := s[i+1 : i+3]
			open[label] = !open[label]
			i += 2
		case isDigit(c):
			label := string(c)
			open[label] = !open[label]
		}
	}
	for label, isOpen := range open {
		if isOpen {
			return fmt.Sprintf("unclosed ring bond %s", label), false
		}
	}
	return "", true
}

// checkBracketAtoms verifies every [...] expression parses as an atom.
func checkBracketAtoms(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '[' {
			continue
		}
		end := strings.IndexByte(s[i:], ']')
		if end < 0 {
			return "unclosed bracket atom", false
		}
		content := s[i+1 : i+end]
		if !bracketAtom.MatchString(content) {
			return fmt.Sprintf("malformed bracket atom [%s]", content), false
		}
		i += end
	}
	return "", true
}

// countAtoms counts heavy atoms: bracket atom expressions plus bare element
// symbols and aromatic atoms outside brackets.
func countAtoms(s string) int {
	count := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '[' {
			if end := strings.IndexByte(s[i:], ']'); end > 0 {
				count++
				i += end
			}
			continue
		}
		if c >= 'A' && c <= 'Z' {
			if i+1 < len(s) && twoLetterElements[s[i:i+2]] {
				i++
			}
			count++
			continue
		}
		// Aromatic organic-subset atoms.
		switch c {
		case 'b', 'c', 'n', 'o', 'p', 's':
			count++
		}
	}
	return count
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// CanonicalKey derives the duplicate-detection key for a structure notation:
// a formatted, uppercase SHA-256 digest of the whitespace-trimmed notation,
// shaped like an InChIKey (14-10-1 hex characters).  Identical notations
// always map to the same key; distinct notations of the same molecule are
// treated as distinct, which matches the syntactic-only validation level.
func CanonicalKey(notation string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(notation)))
	h := strings.ToUpper(hex.EncodeToString(sum[:]))
	return h[:14] + "-" + h[14:24] + "-" + h[24:25]
}
