package metadata

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/phobologic/bat-cli/internal/model"
	"github.com/phobologic/bat-cli/internal/parse"
	"github.com/phobologic/bat-cli/internal/sonar"
)

const libSource = `use anchor_lang::prelude::*;

#[program]
pub mod game {
    use super::*;

    pub fn create_game(ctx: Context<CreateGame>, seed: u8) -> Result<()> {
        validate_seed(seed)?;
        handle_create_game(ctx, seed)
    }

    pub fn close_game(ctx: Context<CloseGame>) -> Result<()> {
        Ok(())
    }
}

fn validate_seed(seed: u8) -> Result<()> {
    require!(seed > 0, GameError::InvalidSeed);
    Ok(())
}
`

const instructionSource = `use anchor_lang::prelude::*;

#[derive(Accounts)]
pub struct CreateGame<'info> {
    #[account(mut)]
    pub payer: Signer<'info>,
}

#[account]
pub struct Game {
    pub seed: u8,
}

#[derive(AnchorSerialize, AnchorDeserialize)]
pub struct GameArgs {
    pub seed: u8,
}

struct Scratch {
    value: u64,
}

pub fn handle_create_game(ctx: Context<CreateGame>, seed: u8) -> Result<()> {
    ctx.accounts.payer.key();
    Ok(())
}

pub trait Scored {
    fn score(&self) -> u64 {
        0
    }
}

impl Scored for Game {
    fn score(&self) -> u64 {
        self.seed as u64
    }
}
`

func programSources() []Source {
	return []Source{
		{Path: "lib.rs", Content: libSource},
		{Path: "instructions/create_game.rs", Content: instructionSource},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestBuild_Functions(t *testing.T) {
	t.Parallel()

	md, err := NewBuilder(WithIDs(sequentialIDs())).Build(context.Background(), programSources())
	require.NoError(t, err)

	type fn struct {
		name  string
		path  string
		typ   model.FunctionType
		start int
		end   int
		deps  []string
	}
	var got []fn
	for _, f := range md.Functions {
		got = append(got, fn{f.Name, f.Path, f.Type, f.StartLine, f.EndLine, f.Dependencies})
	}

	assert.Equal(t, []fn{
		{"close_game", "lib.rs", model.EntrypointFunction, 12, 14, nil},
		{"create_game", "lib.rs", model.EntrypointFunction, 7, 10, []string{"handle_create_game", "validate_seed"}},
		{"validate_seed", "lib.rs", model.ValidatorFunction, 17, 20, nil},
		{"handle_create_game", "instructions/create_game.rs", model.HandlerFunction, 23, 26, nil},
		{"score", "instructions/create_game.rs", model.HelperFunction, 29, 31, nil},
		{"score", "instructions/create_game.rs", model.HelperFunction, 35, 37, nil},
	}, got)
}

func TestBuild_Structs(t *testing.T) {
	t.Parallel()

	md, err := NewBuilder().Build(context.Background(), programSources())
	require.NoError(t, err)

	types := make(map[string]model.StructType)
	public := make(map[string]bool)
	for _, s := range md.Structs {
		types[s.Name] = s.Type
		public[s.Name] = s.Public
		assert.NotEmpty(t, s.ID)
	}

	assert.Equal(t, map[string]model.StructType{
		"CreateGame": model.ContextAccountsStruct,
		"Game":       model.AccountStruct,
		"GameArgs":   model.InputStruct,
		"Scratch":    model.OtherStruct,
	}, types)
	assert.False(t, public["Scratch"])
	assert.True(t, public["Game"])
}

func TestBuild_StructsCRLF(t *testing.T) {
	t.Parallel()

	src := []Source{{Path: "instructions/create_game.rs", Content: strings.ReplaceAll(instructionSource, "\n", "\r\n")}}
	md, err := NewBuilder().Build(context.Background(), src)
	require.NoError(t, err)

	types := make(map[string]model.StructType)
	for _, s := range md.Structs {
		types[s.Name] = s.Type
	}
	assert.Equal(t, model.ContextAccountsStruct, types["CreateGame"])
	assert.Equal(t, model.AccountStruct, types["Game"])
	assert.Equal(t, model.InputStruct, types["GameArgs"])
	assert.Equal(t, model.OtherStruct, types["Scratch"])
}

func TestAttributesCRLF(t *testing.T) {
	t.Parallel()

	lines := sonar.SplitLines("#[derive(Accounts)]\r\n/// doc\r\npub struct CreateGame {\r\n}\r\n")
	assert.Equal(t, []string{"/// doc", "#[derive(Accounts)]"}, attributes(lines, 2))
}

func TestBuild_Entrypoints(t *testing.T) {
	t.Parallel()

	md, err := NewBuilder().Build(context.Background(), programSources())
	require.NoError(t, err)
	require.Len(t, md.Entrypoints, 2)

	closeGame, createGame := md.Entrypoints[0], md.Entrypoints[1]

	assert.Equal(t, "close_game", closeGame.Name)
	assert.Equal(t, "CloseGame", closeGame.ContextAccounts)
	assert.Empty(t, closeGame.Handler)
	assert.Equal(t, []string{"ctx: Context<CloseGame>"}, closeGame.Parameters)

	assert.Equal(t, "create_game", createGame.Name)
	assert.Equal(t, "lib.rs", createGame.Path)
	assert.Equal(t, 7, createGame.StartLine)
	assert.Equal(t, 10, createGame.EndLine)
	assert.Equal(t, "CreateGame", createGame.ContextAccounts)
	assert.Equal(t, "handle_create_game", createGame.Handler)
	assert.Equal(t, []string{"ctx: Context<CreateGame>,", "seed: u8"}, createGame.Parameters)
}

func TestBuild_Traits(t *testing.T) {
	t.Parallel()

	md, err := NewBuilder().Build(context.Background(), programSources())
	require.NoError(t, err)
	require.Len(t, md.Traits, 2)

	def, impl := md.Traits[0], md.Traits[1]
	assert.Equal(t, "Scored", def.Name)
	assert.Equal(t, model.TraitDefinition, def.Type)
	assert.Equal(t, 28, def.StartLine)
	assert.Equal(t, 32, def.EndLine)

	assert.Equal(t, "Scored", impl.Name)
	assert.Equal(t, model.TraitImplementation, impl.Type)
	assert.Equal(t, "Game", impl.Target)
	assert.Equal(t, 34, impl.StartLine)
}

func TestBuild_UniqueIDs(t *testing.T) {
	t.Parallel()

	md, err := NewBuilder().Build(context.Background(), programSources())
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, t2 := range model.MetadataTypes {
		for _, loc := range md.Locations(t2) {
			_, dup := seen[loc.ID]
			assert.False(t, dup, "duplicate id %s", loc.ID)
			seen[loc.ID] = struct{}{}
		}
	}
	assert.Len(t, seen, 6+4+2+2)
}

func TestBuild_UnbalancedFails(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder().Build(context.Background(), []Source{
		{Path: "broken.rs", Content: "fn broken() {\n    let x = 1;\n"},
	})
	require.ErrorIs(t, err, sonar.ErrUnbalancedDeclaration)
	assert.Contains(t, err.Error(), "broken.rs")
}

func TestBuild_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder().Build(ctx, programSources())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_SyntaxConfirmation(t *testing.T) {
	t.Parallel()

	// The trait method declaration has no body; lexically it pairs with the
	// closing brace of the implementation below it.
	source := `pub trait Scored {
    fn score(&self) -> u64;
}

impl Scored for Game {
    fn score(&self) -> u64 {
        1
    }
}
`
	src := []Source{{Path: "score.rs", Content: source}}

	plain, err := NewBuilder().Build(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, plain.Functions, 2)

	confirmed, err := NewBuilder(WithScannerFactory(func(_ Source, tags []model.Tag) *sonar.Scanner {
		return sonar.New(sonar.WithDecision(parse.Confirmer(tags)))
	})).Build(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, confirmed.Functions, 1)
	assert.Equal(t, 6, confirmed.Functions[0].StartLine)
}

func TestBuild_Logs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	_, err := NewBuilder(WithLogger(zap.New(core))).Build(context.Background(), programSources())
	require.NoError(t, err)

	assert.Equal(t, 2, logs.FilterMessage("scanned source").Len())
	built := logs.FilterMessage("metadata built").All()
	require.Len(t, built, 1)
	assert.Equal(t, int64(2), built[0].ContextMap()["entrypoints"])
}

func TestContextAccounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		params []string
		want   string
	}{
		{[]string{"ctx: Context<CreateGame>,", "seed: u8"}, "CreateGame"},
		{[]string{"ctx: Context<'_, '_, '_, 'info, CancelImpulse<'info>>,", "key_index: Option<u16>"}, "CancelImpulse"},
		{[]string{"ctx: Context<'_, '_, '_, 'info, Pair<'info, T>>"}, "Pair"},
		{[]string{"amount: u64"}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContextAccounts(tt.params), "%v", tt.params)
	}
}
