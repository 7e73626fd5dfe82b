package sonar

import "strings"

// ExtractParameters returns the parameter list of a captured function.
//
// A signature whose first line holds a ")" is treated as single-line and
// regrouped token by token, a new parameter starting at every token that
// contains ":". Otherwise every signature line containing ":" is one
// parameter, which assumes no parameter type spans lines without its own ":".
func ExtractParameters(functionText string) []string {
	firstLine, _, _ := strings.Cut(functionText, "\n")
	signature, _, _ := strings.Cut(functionText, "{")
	signature, _, _ = strings.Cut(signature, "->")

	if !strings.Contains(firstLine, ")") {
		var params []string
		for _, line := range strings.Split(signature, "\n") {
			if strings.Contains(line, ":") {
				params = append(params, strings.TrimSpace(line))
			}
		}
		return params
	}

	_, list, found := strings.Cut(signature, "(")
	if !found {
		return nil
	}
	list = untilMatchingParen(list)

	var (
		params  []string
		current []string
	)
	for _, tok := range strings.Fields(list) {
		if strings.Contains(tok, ":") {
			if len(current) > 0 {
				params = append(params, strings.Join(current, " "))
			}
			current = []string{tok}
			continue
		}
		current = append(current, tok)
	}
	if len(current) > 0 {
		params = append(params, strings.Join(current, " "))
	}
	return params
}

// untilMatchingParen returns s up to the ")" that closes an already opened "(".
func untilMatchingParen(s string) string {
	depth := 1
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i]
			}
		}
	}
	return s
}
