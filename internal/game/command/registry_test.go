package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r)
	assert.Len(t, r.Commands(), len(BuiltinCommands()))
}

func TestResolve_CanonicalName(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("roll")
	assert.True(t, ok)
	assert.Equal(t, "roll", cmd.Name)
	assert.Equal(t, HandlerRoll, cmd.Handler)
}

func TestResolve_Alias(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("ls")
	assert.True(t, ok)
	assert.Equal(t, "list", cmd.Name)
}

func TestResolve_NotFound(t *testing.T) {
	r := DefaultRegistry()

	_, ok := r.Resolve("teleport")
	assert.False(t, ok)
}

func TestResolve_AllSheetCommands(t *testing.T) {
	r := DefaultRegistry()
	for name, handler := range map[string]string{
		"create":    HandlerCreate,
		"new":       HandlerCreate,
		"show":      HandlerShow,
		"sheet":     HandlerShow,
		"set":       HandlerSet,
		"companion": HandlerCompanion,
		"parse":     HandlerParse,
		"history":   HandlerHistory,
		"exit":      HandlerQuit,
	} {
		cmd, ok := r.Resolve(name)
		require.True(t, ok, "command %q should resolve", name)
		assert.Equal(t, handler, cmd.Handler, "command %q", name)
	}
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	cmds := []Command{
		{Name: "test", Handler: "a"},
		{Name: "test", Handler: "b"},
	}
	_, err := NewRegistry(cmds)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate command name")
}

func TestNewRegistry_DuplicateAlias(t *testing.T) {
	cmds := []Command{
		{Name: "test1", Aliases: []string{"t"}, Handler: "a"},
		{Name: "test2", Aliases: []string{"t"}, Handler: "b"},
	}
	_, err := NewRegistry(cmds)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate alias")
}

func TestCommandsByCategory(t *testing.T) {
	r := DefaultRegistry()
	cats := r.CommandsByCategory()

	assert.Contains(t, cats, CategorySheet)
	assert.Contains(t, cats, CategoryDice)
	assert.Contains(t, cats, CategorySystem)
	require.Len(t, cats[CategoryDice], 2)
	assert.Equal(t, "history", cats[CategoryDice][0].Name)
	assert.Equal(t, "roll", cats[CategoryDice][1].Name)
}

func TestPropertyAllAliasesResolveToCanonical(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := DefaultRegistry()
		cmds := r.Commands()
		idx := rapid.IntRange(0, len(cmds)-1).Draw(t, "cmd_idx")
		cmd := cmds[idx]

		resolved, ok := r.Resolve(cmd.Name)
		if !ok {
			t.Fatalf("canonical name %q did not resolve", cmd.Name)
		}
		if resolved.Name != cmd.Name {
			t.Fatalf("canonical name %q resolved to %q", cmd.Name, resolved.Name)
		}

		for _, alias := range cmd.Aliases {
			aliasResolved, ok := r.Resolve(alias)
			if !ok {
				t.Fatalf("alias %q did not resolve", alias)
			}
			if aliasResolved.Name != cmd.Name {
				t.Fatalf("alias %q resolved to %q, expected %q", alias, aliasResolved.Name, cmd.Name)
			}
		}
	})
}

func TestSuggest(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"rol", "roll", true},
		{"rolll", "roll", true},
		{"craete", "create", true},
		{"histroy", "history", true},
		{"compnion", "companion", true},
		{"xyzzy", "", false},
		{"ro", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := r.Suggest(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPropertySuggestExactNameIsItself(t *testing.T) {
	r := DefaultRegistry()
	cmds := r.Commands()
	rapid.Check(t, func(rt *rapid.T) {
		cmd := cmds[rapid.IntRange(0, len(cmds)-1).Draw(rt, "idx")]
		if len([]rune(cmd.Name)) < 3 {
			rt.Skip("too short to suggest")
		}
		got, ok := r.Suggest(cmd.Name)
		if !ok || got != cmd.Name {
			rt.Fatalf("Suggest(%q) = %q, %v", cmd.Name, got, ok)
		}
	})
}
