package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	doc := Document{
		Title: "Functions",
		Sections: []Section{
			{
				Title: "create_game",
				Fields: []Field{
					{Key: "metadata_id", Value: "abc"},
					{Key: "dependencies", Value: ""},
				},
			},
			{
				Title: "notes",
				Body:  []string{"free text", "", "more"},
			},
		},
	}

	want := "# Functions\n" +
		"\n## create_game\n\n- metadata_id: abc\n- dependencies:\n" +
		"\n## notes\n\nfree text\n\nmore\n"
	assert.Equal(t, want, Encode(doc))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	doc := Document{
		Title: "Entrypoints",
		Sections: []Section{
			{
				Title: "cancel_game",
				Fields: []Field{
					{Key: "path", Value: "programs/game/src/lib.rs"},
					{Key: "parameters", Value: "ctx: Context<CancelGame>,; seed:  u8"},
				},
				Body: []string{"- reviewed by alice", "  indented"},
			},
			{Title: "empty"},
		},
	}

	got, err := Parse(Encode(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestParseHandWritten(t *testing.T) {
	t.Parallel()

	text := "\r\n# Structs\r\n\r\n## Game\r\n- path: lib.rs\r\n- is_public: true\r\n\r\ntrailing note\r\n\r\n"
	doc, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "Structs", doc.Title)
	require.Len(t, doc.Sections, 1)
	s := doc.Sections[0]
	assert.Equal(t, "Game", s.Title)
	assert.Equal(t, []Field{{"path", "lib.rs"}, {"is_public", "true"}}, s.Fields)
	assert.Equal(t, []string{"trailing note"}, s.Body)
}

func TestParseMissingTitle(t *testing.T) {
	t.Parallel()

	_, err := Parse("## orphan\n- key: value\n")
	assert.ErrorIs(t, err, ErrMissingTitle)

	_, err = Parse("stray text\n# Title\n")
	assert.ErrorIs(t, err, ErrMissingTitle)
}

func TestSectionFields(t *testing.T) {
	t.Parallel()

	s := Section{Title: "x"}
	s.Set("a", "1")
	s.Set("b", "2")
	s.Set("a", "3")

	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
	assert.Len(t, s.Fields, 2)

	_, err := s.Require("missing")
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), `"missing"`)
	assert.Contains(t, err.Error(), `"x"`)
}

func TestSectionAll(t *testing.T) {
	t.Parallel()

	doc, err := Parse("# Entrypoints\n\n## create_fleet\n\n- parameters: ctx: Context<CreateFleet>,\n- handler: h\n- parameters: seeds: [u8; 32]\n")
	require.NoError(t, err)
	s := doc.Sections[0]
	assert.Equal(t, []string{"ctx: Context<CreateFleet>,", "seeds: [u8; 32]"}, s.All("parameters"))
	assert.Nil(t, s.All("missing"))
}

func TestDocumentSection(t *testing.T) {
	t.Parallel()

	doc := Document{Title: "T", Sections: []Section{{Title: "a"}, {Title: "b"}}}
	s, ok := doc.Section("b")
	require.True(t, ok)
	s.Set("k", "v")
	assert.Equal(t, "v", doc.Sections[1].Fields[0].Value)

	_, ok = doc.Section("c")
	assert.False(t, ok)
}

func TestEncodeFoldsNewlines(t *testing.T) {
	t.Parallel()

	doc := Document{Title: "T", Sections: []Section{{
		Title:  "s",
		Fields: []Field{{Key: "k", Value: "line one\nline two"}},
	}}}
	got, err := Parse(Encode(doc))
	require.NoError(t, err)
	v, _ := got.Sections[0].Get("k")
	assert.Equal(t, "line one line two", v)
}
