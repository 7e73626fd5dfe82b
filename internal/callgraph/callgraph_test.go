package callgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var program = []Function{
	{
		Name: "create_game",
		Content: `pub fn create_game(ctx: Context<CreateGame>, seed: u8) -> Result<()> {
    validate_seed(seed)?;
    handle_create_game(ctx, seed) // create_game(ctx) is not recursion
}`,
	},
	{
		Name: "handle_create_game",
		Content: `pub fn handle_create_game(ctx: Context<CreateGame>, seed: u8) -> Result<()> {
    let game = &mut ctx.accounts.game;
    game.seed = compute::<u8>(seed);
    msg!("created");
    Ok(())
}`,
	},
	{
		Name: "validate_seed",
		Content: `fn validate_seed(seed: u8) -> Result<()> {
    require!(seed > 0, GameError::InvalidSeed);
    validate_seed(seed - 1)
}`,
	},
	{
		Name:    "compute",
		Content: "fn compute<T>(v: T) -> T {\n    v\n}",
	},
}

func TestCalls(t *testing.T) {
	t.Parallel()

	got := Calls(program[0].Content)
	assert.Equal(t, []string{"validate_seed", "handle_create_game"}, got)

	got = Calls(program[1].Content)
	assert.Equal(t, []string{"compute", "Ok"}, got)
}

func TestDependencies(t *testing.T) {
	t.Parallel()

	g, err := Build(program)
	require.NoError(t, err)

	assert.Equal(t, []string{"handle_create_game", "validate_seed"}, g.Dependencies("create_game"))
	assert.Equal(t, []string{"compute"}, g.Dependencies("handle_create_game"))
	// Self calls are ignored.
	assert.Empty(t, g.Dependencies("validate_seed"))
	assert.Empty(t, g.Dependencies("missing"))
}

func TestCallersAndReachable(t *testing.T) {
	t.Parallel()

	g, err := Build(program)
	require.NoError(t, err)

	assert.Equal(t, []string{"handle_create_game"}, g.Callers("compute"))
	assert.Equal(t, []string{"compute", "handle_create_game", "validate_seed"}, g.Reachable("create_game"))
	assert.Nil(t, g.Reachable("missing"))
}

func TestBuildDuplicateNames(t *testing.T) {
	t.Parallel()

	g, err := Build([]Function{
		{Name: "init", Content: "fn init() {\n    setup();\n}"},
		{Name: "init", Content: "fn init() {\n    setup();\n}"},
		{Name: "setup", Content: "fn setup() {\n}"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"setup"}, g.Dependencies("init"))
}
