package modifier

// Alias maps a canonical attribute path to the words players write for it.
type Alias struct {
	Path  string   `yaml:"path"`
	Names []string `yaml:"names"`
}

// DefaultAliases is the compiled-in alias table. Names may carry accents;
// they are folded when a Table is built.
var DefaultAliases = []Alias{
	{Path: "physical.strength", Names: []string{"força", "strength"}},
	{Path: "physical.dexterity", Names: []string{"destreza", "dexterity"}},
	{Path: "physical.vigor", Names: []string{"vigor"}},
	{Path: "mental.intellect", Names: []string{"intelecto", "inteligência", "intellect"}},
	{Path: "mental.insight", Names: []string{"intuição", "percepção", "insight"}},
	{Path: "mental.resilience", Names: []string{"resiliência", "resilience"}},
	{Path: "social.presence", Names: []string{"presença", "presence"}},
	{Path: "social.manipulation", Names: []string{"manipulação", "manipulation"}},
	{Path: "social.composure", Names: []string{"compostura", "autocontrole", "composure"}},
	{Path: "system.neuromotor", Names: []string{"neuromotor", "neuromotora"}},
	{Path: "system.sensory", Names: []string{"sensorial", "sensory"}},
	{Path: "system.structural", Names: []string{"estrutural", "structural"}},
	{Path: "combat.initiative", Names: []string{"iniciativa", "initiative"}},
	{Path: "combat.mobility", Names: []string{"mobilidade", "deslocamento", "mobility"}},
	{Path: "combat.dodge", Names: []string{"esquiva", "dodge"}},
	{Path: "damageThreshold.light.threshold", Names: []string{"limiar leve", "dano leve", "light threshold"}},
	{Path: "damageThreshold.moderate.threshold", Names: []string{"limiar moderado", "dano moderado", "moderate threshold"}},
	{Path: "damageThreshold.severe.threshold", Names: []string{"limiar grave", "dano grave", "severe threshold"}},
	{Path: "armor.total", Names: []string{"armadura", "blindagem", "armor"}},
	{Path: "exa.max", Names: []string{"exa", "exapoints"}},
	{Path: "exa.synchrony", Names: []string{"sincronia", "synchrony"}},
}
