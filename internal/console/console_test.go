package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/exa/internal/game/command"
	"github.com/cory-johannsen/exa/internal/game/derive"
	"github.com/cory-johannsen/exa/internal/game/dice"
	"github.com/cory-johannsen/exa/internal/game/entity"
	"github.com/cory-johannsen/exa/internal/game/modifier"
	"github.com/cory-johannsen/exa/internal/game/roll"
	"github.com/cory-johannsen/exa/internal/sheet"
	"github.com/cory-johannsen/exa/internal/storage/memory"
)

// faces returns the given faces in order, then repeats the last one.
type faces struct{ seq []int }

func (f *faces) Intn(int) int {
	v := f.seq[0]
	if len(f.seq) > 1 {
		f.seq = f.seq[1:]
	}
	return v - 1
}

type stubHistory struct{ outs []roll.Outcome }

func (s stubHistory) Recent(_ context.Context, _ string, limit int) ([]roll.Outcome, error) {
	return s.outs[:min(limit, len(s.outs))], nil
}

func newConsole(t *testing.T, src dice.Source, history History) (*Console, *sheet.Service) {
	t.Helper()
	logger := zap.NewNop()
	svc := sheet.NewService(memory.NewStore(), derive.NewEngine(nil, nil), logger)
	roller := roll.NewRoller(svc, dice.NewLoggedRoller(src, logger), nil, logger)
	return New(svc, roller, history, modifier.DefaultTable(), logger), svc
}

func exec(t *testing.T, c *Console, line string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	_, err := c.Exec(context.Background(), line, &out)
	return out.String(), err
}

func TestAllCommandHandlersAreWired(t *testing.T) {
	for _, cmd := range command.BuiltinCommands() {
		_, ok := handlerMap[cmd.Handler]
		assert.True(t, ok, "command %q handler %q is not wired", cmd.Name, cmd.Handler)
	}
}

func TestExec_CreateAndShow(t *testing.T) {
	c, svc := newConsole(t, &faces{seq: []int{6}}, nil)

	out, err := exec(t, c, `create pilot "Kai Tanaka"`)
	require.NoError(t, err)
	assert.Contains(t, out, `created pilot "Kai Tanaka"`)

	pilots, err := svc.List(context.Background(), entity.KindPilot)
	require.NoError(t, err)
	require.Len(t, pilots, 1)

	out, err = exec(t, c, "show "+pilots[0].ID)
	require.NoError(t, err)
	var shown entity.Entity
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "Kai Tanaka", shown.Name)
	assert.Len(t, shown.Inventory.Equipment, 5)
}

func TestExec_SetNormalizesValues(t *testing.T) {
	c, svc := newConsole(t, &faces{seq: []int{6}}, nil)
	p, err := svc.Create(context.Background(), entity.KindPilot, "Kai", "")
	require.NoError(t, err)

	_, err = exec(t, c, `set `+p.ID+` mental.resilience=3,5 notes="Armadura +2 Mobilidade"`)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, got.Exa.Max)
	assert.Equal(t, 2.0, got.TextualModifiers.Totals["combat.mobility"])
}

func TestExec_SetRejectsDerivedField(t *testing.T) {
	c, svc := newConsole(t, &faces{seq: []int{6}}, nil)
	p, err := svc.Create(context.Background(), entity.KindPilot, "Kai", "")
	require.NoError(t, err)

	_, err = exec(t, c, "set "+p.ID+" combat.dodge=4")
	assert.ErrorIs(t, err, sheet.ErrNotWritable)
}

func TestExec_RollConsumesResource(t *testing.T) {
	c, svc := newConsole(t, &faces{seq: []int{6, 1, 1, 4}}, nil)
	ctx := context.Background()
	p, err := svc.Create(ctx, entity.KindPilot, "Kai", "")
	require.NoError(t, err)
	_, err = svc.Update(ctx, p.ID, map[string]any{"mental.resilience": 3})
	require.NoError(t, err)

	out, err := exec(t, c, "roll "+p.ID+" base=1 spend=3 label=Tiro")
	require.NoError(t, err)
	assert.Contains(t, out, "Tiro")
	assert.Contains(t, out, "successes: 1")
	assert.Contains(t, out, "consumed: 2")

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Exa.Spent)
}

func TestExec_RollRefusesBonusOnly(t *testing.T) {
	c, svc := newConsole(t, &faces{seq: []int{6}}, nil)
	p, err := svc.Create(context.Background(), entity.KindPilot, "Kai", "")
	require.NoError(t, err)

	out, err := exec(t, c, "roll "+p.ID+" bonus=5")
	require.ErrorIs(t, err, roll.ErrNoNormalDice)
	assert.Empty(t, out)
}

func TestExec_RollRefusesOversizedPool(t *testing.T) {
	c, svc := newConsole(t, &faces{seq: []int{6}}, nil)
	p, err := svc.Create(context.Background(), entity.KindPilot, "Kai", "")
	require.NoError(t, err)

	out, err := exec(t, c, "roll "+p.ID+" base=70368744177664")
	require.ErrorIs(t, err, roll.ErrPoolTooLarge)
	assert.Empty(t, out)
}

func TestExec_RollRefusesUnlinkedEntity(t *testing.T) {
	c, svc := newConsole(t, &faces{seq: []int{1}}, nil)
	ctx := context.Background()
	a, err := svc.Create(ctx, entity.KindPilot, "Kai", "")
	require.NoError(t, err)
	b, err := svc.Create(ctx, entity.KindPilot, "Ayla", "")
	require.NoError(t, err)

	_, err = exec(t, c, "roll "+a.ID+" base=1 linked="+b.ID+" lspend=1")
	require.ErrorIs(t, err, roll.ErrNotLinked)
}

func TestExec_RollBadOption(t *testing.T) {
	c, _ := newConsole(t, &faces{seq: []int{6}}, nil)
	_, err := exec(t, c, "roll p1 base=two")
	assert.ErrorIs(t, err, ErrUsage)
	_, err = exec(t, c, "roll p1 luck=2")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestExec_Parse(t *testing.T) {
	c, _ := newConsole(t, &faces{seq: []int{6}}, nil)
	out, err := exec(t, c, `parse "+1 iniciativa, -2 esquiva"`)
	require.NoError(t, err)
	assert.Contains(t, out, "combat.initiative +1")
	assert.Contains(t, out, "combat.dodge -2")
}

func TestExec_HistoryWithoutStore(t *testing.T) {
	c, _ := newConsole(t, &faces{seq: []int{6}}, nil)
	_, err := exec(t, c, "history p1")
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestExec_HistoryRendersOutcomes(t *testing.T) {
	h := stubHistory{outs: []roll.Outcome{
		{Label: "Esquiva", Successes: 2},
		{Label: "Tiro", Successes: 0},
	}}
	c, _ := newConsole(t, &faces{seq: []int{6}}, h)
	out, err := exec(t, c, "history p1 1")
	require.NoError(t, err)
	assert.Contains(t, out, "Esquiva")
	assert.NotContains(t, out, "Tiro")
}

func TestExec_UnknownCommand(t *testing.T) {
	c, _ := newConsole(t, &faces{seq: []int{6}}, nil)
	_, err := exec(t, c, "teleport p1")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, err.Error(), "try help")
}

func TestExec_UnknownCommandSuggests(t *testing.T) {
	c, _ := newConsole(t, &faces{seq: []int{6}}, nil)
	_, err := exec(t, c, "rolll p1")
	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, err.Error(), `did you mean "roll"`)
}

func TestExec_Help(t *testing.T) {
	c, _ := newConsole(t, &faces{seq: []int{6}}, nil)
	out, err := exec(t, c, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "roll")
	assert.Contains(t, out, "companion")

	out, err = exec(t, c, "help r")
	require.NoError(t, err)
	assert.Contains(t, out, "spend=N")
}

func TestExecArgs(t *testing.T) {
	c, svc := newConsole(t, &faces{seq: []int{6}}, nil)
	var out bytes.Buffer
	quit, err := c.ExecArgs(context.Background(), []string{"CREATE", "unit", "Ronin Mk II"}, &out)
	require.NoError(t, err)
	assert.False(t, quit)

	units, err := svc.List(context.Background(), entity.KindUnit)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Ronin Mk II", units[0].Name)
}

func TestRun_ContinuesAfterErrorsAndStopsAtQuit(t *testing.T) {
	c, svc := newConsole(t, &faces{seq: []int{6}}, nil)
	script := strings.Join([]string{
		"# setup",
		"create creature Lobo",
		"bogus",
		"create companion Corvo",
		"quit",
		"create creature Urso",
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, c.Run(context.Background(), strings.NewReader(script), &out))
	assert.Contains(t, out.String(), "error: unknown command")

	ctx := context.Background()
	creatures, err := svc.List(ctx, entity.KindCreature)
	require.NoError(t, err)
	assert.Len(t, creatures, 1, "lines after quit are not run")
	companions, err := svc.List(ctx, entity.KindCompanion)
	require.NoError(t, err)
	assert.Len(t, companions, 1)
}

func TestRun_CancelledContext(t *testing.T) {
	c, _ := newConsole(t, &faces{seq: []int{6}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Run(ctx, strings.NewReader("help\n"), &bytes.Buffer{})
	assert.True(t, errors.Is(err, context.Canceled))
}
