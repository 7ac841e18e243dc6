// Package sqlvalidate implements the static, lexical SELECT-only guard
// described as the SQL Validator: a single-statement check with no full
// parser, grounded on the bichat SQL tool's tokenize-and-blacklist
// approach but narrowed to this engine's rules (semicolon rejection,
// forbidden-keyword prefix check, widget-mode LIMIT/OFFSET rejection).
package sqlvalidate

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects which additional rules apply.
type Mode int

const (
	// ModeWidget is used for widget-authored queries: LIMIT/OFFSET are
	// rejected because the widget/query layer injects pagination itself.
	ModeWidget Mode = iota
	// ModeTool is used for the execute_sql_query tool: LIMIT/OFFSET are
	// allowed so the model can paginate explicitly.
	ModeTool
)

var forbiddenPrefixes = []string{
	"drop", "delete", "update", "insert", "alter", "create", "truncate", "replace", "pragma",
}

var (
	limitToken  = regexp.MustCompile(`(?i)(^|\s)limit(\s|\()`)
	offsetToken = regexp.MustCompile(`(?i)(^|\s)offset(\s|\()`)
)

// Result is the validator's verdict.
type Result struct {
	IsValid bool
	Error   string
}

// Validate runs every rule and returns a Result; it never returns an
// error value itself, matching the "lexical, not exceptional" contract
// callers that don't want to branch on a thrown error expect.
func Validate(query string, mode Mode) Result {
	if query == "" {
		return Result{IsValid: false, Error: "query must be a non-empty string"}
	}

	if strings.Contains(query, ";") {
		return Result{IsValid: false, Error: "query must not contain multiple statements (';' is not allowed)"}
	}

	trimmed := strings.ToLower(strings.TrimSpace(query))
	if trimmed == "" {
		return Result{IsValid: false, Error: "query must be a non-empty string"}
	}

	for _, kw := range forbiddenPrefixes {
		if strings.HasPrefix(trimmed, kw) {
			return Result{IsValid: false, Error: fmt.Sprintf("%s operations are not allowed; only SELECT queries may be run", strings.ToUpper(kw))}
		}
	}

	if mode == ModeWidget {
		padded := " " + trimmed + " "
		if limitToken.MatchString(padded) {
			return Result{IsValid: false, Error: "LIMIT is not allowed in widget queries; pagination is applied automatically"}
		}
		if offsetToken.MatchString(padded) {
			return Result{IsValid: false, Error: "OFFSET is not allowed in widget queries; pagination is applied automatically"}
		}
	}

	return Result{IsValid: true}
}

// ValidateOrThrow is a convenience for call sites that prefer an error
// return over branching on Result.IsValid.
func ValidateOrThrow(query string, mode Mode) error {
	res := Validate(query, mode)
	if !res.IsValid {
		return fmt.Errorf("%s", res.Error)
	}
	return nil
}

// HasLimitOrOffset reports whether query already contains a LIMIT or
// OFFSET token, matching the Query Executor's "already paginated" check
// (whole-word, not a substring match inside an identifier).
func HasLimitOrOffset(query string) bool {
	padded := " " + strings.ToLower(query) + " "
	return limitToken.MatchString(padded) || offsetToken.MatchString(padded)
}
