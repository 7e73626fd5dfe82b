package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentenceCase(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"hello_how Are-you":      "Hello how are you",
		"missing-signer-check":   "Missing signer check",
		"overflow_in_withdraw":   "Overflow in withdraw",
		"  ":                     "",
		"already Sentence cased": "Already sentence cased",
	}
	for in, want := range tests {
		assert.Equal(t, want, SentenceCase(in), in)
	}
}

func TestRenderFinding(t *testing.T) {
	t.Parallel()

	out, err := RenderFinding(NewFinding("missing-signer-check"), false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "## Missing signer check\n"))
	assert.Contains(t, out, "**Severity:** High")
	assert.Contains(t, out, "../../figures/missing-signer-check-1.png")
	assert.Contains(t, out, "### Description {-}")
}

func TestRenderInformational(t *testing.T) {
	t.Parallel()

	out, err := RenderFinding(NewFinding("unused_account"), true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "## Unused account\n"))
	assert.Contains(t, out, "**Severity:** Informational")
	assert.NotContains(t, out, "| Impact |")
}

func TestRenderCodeOverhaul(t *testing.T) {
	t.Parallel()

	out, err := RenderCodeOverhaul(CodeOverhaul{
		Entrypoint:         "create_game",
		Path:               "lib.rs",
		StartLine:          7,
		EndLine:            10,
		ContextAccounts:    "CreateGame",
		Handler:            "handle_create_game",
		Signers:            []string{"payer"},
		Parameters:         []string{"ctx: Context<CreateGame>,", "seed: u8"},
		AccountConstraints: []string{"#[account(mut)]\npub payer: Signer<'info>,"},
		Validations:        []string{"require!(seed > 0, GameError::InvalidSeed);"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# create_game\n"))
	assert.Contains(t, out, "- path: lib.rs:7-10\n")
	assert.Contains(t, out, "- context_accounts: CreateGame\n")
	assert.Contains(t, out, "- handler: handle_create_game\n")
	assert.Contains(t, out, "- auditor: N/A\n")
	assert.Contains(t, out, "## Signers\n\n- payer\n")
	assert.Contains(t, out, "- `seed: u8`\n")
	assert.Contains(t, out, "```rust\n#[account(mut)]\npub payer: Signer<'info>,\n```\n")
	assert.Contains(t, out, "```rust\nrequire!(seed > 0, GameError::InvalidSeed);\n```\n")
	assert.Equal(t, 2, strings.Count(out, Pending))
}

func TestRenderCodeOverhaulEmpty(t *testing.T) {
	t.Parallel()

	out, err := RenderCodeOverhaul(CodeOverhaul{Entrypoint: "noop", Path: "lib.rs", StartLine: 1, EndLine: 2})
	require.NoError(t, err)
	assert.Contains(t, out, "- handler: N/A\n")
	assert.Contains(t, out, "- No signers found\n")
	assert.Contains(t, out, "- No parameters\n")
	assert.Contains(t, out, "- No account constraints found\n")
	assert.Contains(t, out, "- No validations found\n")
}

func TestRenderResult(t *testing.T) {
	t.Parallel()

	out, err := RenderResult([]ResultFinding{
		{Code: "KS-01", Title: "Missing signer", Severity: "High", Status: "Open", Impact: "High", Likelihood: "Medium", Difficulty: "Low", Content: "## KS-01: Missing signer\n\nbody"},
		{Code: "KS-02", Title: "Unused account", Severity: "Informational", Status: "Open", Content: "## KS-02: Unused account"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# Findings result\n\n## Table of findings\n"))
	assert.Contains(t, out, "| KS-01 | High | Missing signer | Open | High | Medium | Low |\n")
	assert.Contains(t, out, "| KS-02 | Informational | Unused account | Open | - | - | - |\n\n## List of findings\n")
	assert.Contains(t, out, "\n## KS-01: Missing signer\n\nbody\n\n---\n\n## KS-02: Unused account\n\n---\n")
}

func TestRenderResultEmpty(t *testing.T) {
	t.Parallel()

	out, err := RenderResult(nil)
	require.NoError(t, err)
	assert.Contains(t, out, "## List of findings\n\nNo accepted findings\n")
}
