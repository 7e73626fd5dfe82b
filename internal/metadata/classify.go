package metadata

import (
	"strings"

	"github.com/phobologic/bat-cli/internal/model"
	"github.com/phobologic/bat-cli/internal/sonar"
)

// attributes returns the attribute and doc comment lines directly above
// line start, nearest first.
func attributes(lines []string, start int) []string {
	var out []string
	for i := start - 1; i >= 0; i-- {
		t := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(t, "#[") && !strings.HasPrefix(t, "//") && !strings.HasPrefix(t, ")]") {
			break
		}
		out = append(out, t)
	}
	return out
}

func classifyStruct(r sonar.Result, attrs []string) model.StructType {
	joined := strings.Join(attrs, "\n")
	switch {
	case strings.Contains(joined, "#[derive(Accounts"):
		return model.ContextAccountsStruct
	case strings.Contains(joined, "#[account"):
		return model.AccountStruct
	case strings.Contains(joined, "AnchorSerialize"),
		strings.Contains(joined, "AnchorDeserialize"),
		strings.HasSuffix(r.Name, "Args"),
		strings.HasSuffix(r.Name, "Input"),
		strings.HasSuffix(r.Name, "Params"):
		return model.InputStruct
	}
	return model.OtherStruct
}

func classifyFunction(r sonar.Result, entrypoint bool) model.FunctionType {
	name := r.Name
	switch {
	case entrypoint:
		return model.EntrypointFunction
	case name == "handler" || strings.HasPrefix(name, "handle"):
		return model.HandlerFunction
	case strings.HasPrefix(name, "validate"),
		strings.HasPrefix(name, "verify"),
		strings.HasPrefix(name, "check"),
		strings.Contains(name, "_validation"):
		return model.ValidatorFunction
	case !r.IsPublic:
		return model.HelperFunction
	}
	return model.OtherFunction
}

// ContextAccounts returns the accounts struct named by a Context<...>
// parameter, e.g. "CancelImpulse" for
// "ctx: Context<'_, '_, '_, 'info, CancelImpulse<'info>>,".
func ContextAccounts(params []string) string {
	for _, p := range params {
		i := strings.Index(p, "Context<")
		if i < 0 {
			continue
		}
		inner := p[i+len("Context<"):]
		if j := strings.LastIndex(inner, ">"); j >= 0 {
			inner = inner[:j]
		}
		last := lastTypeArgument(inner)
		if k := strings.Index(last, "<"); k >= 0 {
			last = last[:k]
		}
		return strings.TrimSpace(last)
	}
	return ""
}

func lastTypeArgument(list string) string {
	depth, start := 0, 0
	for i, r := range list {
		switch r {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				start = i + 1
			}
		}
	}
	return strings.TrimSpace(list[start:])
}
