package command

import (
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Reject reasons, one per validation rule, applied in order. The ordering is
// load-bearing: operator smuggling must be reported as a security violation
// even when the command would also fail the grammar.
const (
	ReasonNotAllowedProgram = "not an allowed program"
	ReasonShellOperators    = "contains shell operators"
	ReasonInvalidFormat     = "invalid command format"
)

// shellOperators are the characters that can chain, redirect, substitute,
// expand, or continue a command line past a single invocation.
const shellOperators = ";&|`$(){}[]<>\\\n\r"

var (
	subcommandRe = regexp.MustCompile(`^[a-z]+(?:-[a-z]+)*$`)
	shortFlagRe  = regexp.MustCompile(`^-[A-Za-z0-9]$`)
	longFlagRe   = regexp.MustCompile(`^--[a-z0-9]+(?:-[a-z0-9]+)*(?:=[^'"\s]*)?$`)
)

// Validated is a command that passed every validator rule. Raw is the
// original string and is what executes if the command is approved; the
// parsed fields exist for classification and rewriting only.
type Validated struct {
	Raw        string
	Program    string
	Subcommand string
	Args       []string // tokens after the subcommand, verbatim, quotes preserved
}

// Validate applies the gateway's validation rules to a raw command string:
//
//  1. the trimmed command must start with the whitelisted program token
//     followed by whitespace,
//  2. the command must not contain shell operators anywhere,
//  3. the remainder must match the strict grammar: one lowercase-hyphenated
//     subcommand, then flags, quoted strings, or bare tokens.
//
// Rules 1 and 2 reject with *SecurityViolationError, rule 3 with
// *ValidationError. The stage is pure; logging is the caller's job once a
// decision is known.
func Validate(raw, program string) (*Validated, error) {
	trimmed := strings.TrimSpace(raw)
	rest, found := strings.CutPrefix(trimmed, program)
	if !found || rest == "" || !isSpace(rest[0]) {
		return nil, &SecurityViolationError{Command: raw, Reason: ReasonNotAllowedProgram}
	}

	if strings.ContainsAny(raw, shellOperators) {
		return nil, &SecurityViolationError{Command: raw, Reason: ReasonShellOperators}
	}

	tokens, ok := splitTokens(rest)
	if !ok || len(tokens) == 0 {
		return nil, &ValidationError{Command: raw, Reason: ReasonInvalidFormat}
	}
	if !subcommandRe.MatchString(tokens[0]) {
		return nil, &ValidationError{Command: raw, Reason: ReasonInvalidFormat}
	}
	for _, tok := range tokens[1:] {
		if !validArg(tok) {
			return nil, &ValidationError{Command: raw, Reason: ReasonInvalidFormat}
		}
	}

	if err := checkSingleCall(trimmed); err != nil {
		return nil, err
	}

	return &Validated{
		Raw:        raw,
		Program:    program,
		Subcommand: tokens[0],
		Args:       tokens[1:],
	}, nil
}

// Argv returns the exec argv for the command, stripping the surrounding
// quotes from quoted arguments.
func (v *Validated) Argv() []string {
	argv := make([]string, 0, len(v.Args)+2)
	argv = append(argv, v.Program, v.Subcommand)
	for _, a := range v.Args {
		argv = append(argv, unquote(a))
	}
	return argv
}

// splitTokens splits the post-program remainder into whitespace-separated
// tokens, treating single- and double-quoted strings as single tokens. A
// quote that opens a token must close it at a token boundary.
func splitTokens(s string) ([]string, bool) {
	var tokens []string
	i := 0
	for i < len(s) {
		c := s[i]
		if isSpace(c) {
			i++
			continue
		}
		if c == '"' || c == '\'' {
			rel := strings.IndexByte(s[i+1:], c)
			if rel < 0 {
				return nil, false // unterminated quote
			}
			end := i + 1 + rel + 1
			if end < len(s) && !isSpace(s[end]) {
				return nil, false // text glued onto a closing quote
			}
			tokens = append(tokens, s[i:end])
			i = end
			continue
		}
		j := i
		for j < len(s) && !isSpace(s[j]) {
			j++
		}
		tokens = append(tokens, s[i:j])
		i = j
	}
	return tokens, true
}

func validArg(tok string) bool {
	if strings.HasPrefix(tok, "-") {
		return shortFlagRe.MatchString(tok) || longFlagRe.MatchString(tok)
	}
	if tok[0] == '"' || tok[0] == '\'' {
		// splitTokens already guaranteed a matching closing quote; reject
		// the same quote character reappearing inside.
		inner := tok[1 : len(tok)-1]
		return !strings.ContainsRune(inner, rune(tok[0]))
	}
	// Bare token: any non-whitespace run without quote characters.
	return !strings.ContainsAny(tok, `"'`)
}

// checkSingleCall re-parses the command with a real shell grammar and
// confirms it is a single plain call expression: one statement, no
// redirects, no assignments, no expansions. The character rules above
// should make a failure here unreachable; the parse is kept so the
// validator never rests on a character blacklist alone.
func checkSingleCall(cmd string) error {
	violation := &SecurityViolationError{Command: cmd, Reason: ReasonShellOperators}

	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(cmd), "")
	if err != nil {
		return violation
	}
	if len(file.Stmts) != 1 {
		return violation
	}

	stmt := file.Stmts[0]
	if len(stmt.Redirs) > 0 || stmt.Background || stmt.Coprocess || stmt.Negated {
		return violation
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok || len(call.Assigns) > 0 {
		return violation
	}
	for _, word := range call.Args {
		if !plainWord(word) {
			return violation
		}
	}
	return nil
}

// plainWord accepts only literal, single-quoted, and literal-only
// double-quoted word parts. Anything else (parameter expansion, command
// substitution, globs parsed as extended patterns) is operator territory.
func plainWord(word *syntax.Word) bool {
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit, *syntax.SglQuoted:
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				if _, ok := inner.(*syntax.Lit); !ok {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

func unquote(tok string) string {
	if len(tok) >= 2 && (tok[0] == '"' || tok[0] == '\'') && tok[len(tok)-1] == tok[0] {
		return tok[1 : len(tok)-1]
	}
	return tok
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
