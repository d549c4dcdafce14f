// Package roster holds the fixed set of children and the static task lists
// used to seed and refresh their tasks.
package roster

import (
	"sort"
	"strings"

	"github.com/dukerupert/chorestars/internal/model"
)

// DefaultChildren is used when no roster is configured.
var DefaultChildren = []string{"djama", "ramz", "riza"}

var weeklyTemplates = map[string][]model.TaskTemplate{
	"djama": {
		{Text: "Read a new book", Reward: 10},
		{Text: "Sweep the yard", Reward: 5},
		{Text: "Clean your room", Reward: 5},
		{Text: "A week of good grades", Reward: 20},
	},
	"ramz": {
		{Text: "Draw a picture", Reward: 10},
		{Text: "Learn a poem", Reward: 10},
		{Text: "Go to practice", Reward: 10},
		{Text: "A week of good grades", Reward: 20},
	},
	"riza": {
		{Text: "Learn a poem", Reward: 10},
		{Text: "Go to practice", Reward: 10},
		{Text: "A week of good grades", Reward: 20},
		{Text: "Clean your room", Reward: 5},
	},
}

var starterTemplates = map[string][]model.TaskTemplate{
	"djama": {
		{Text: "Tidy your room", Reward: 3},
		{Text: "Do your homework", Reward: 5},
		{Text: "Wash the dishes", Reward: 2},
		{Text: "Read for 30 minutes", Reward: 4},
		{Text: "Walk the dog", Reward: 3},
	},
	"ramz": {
		{Text: "Pack your bag for tomorrow", Reward: 2},
		{Text: "Take out the trash", Reward: 2},
		{Text: "Play a learning game", Reward: 4},
		{Text: "Help in the kitchen", Reward: 3},
		{Text: "Read aloud for 15 minutes", Reward: 3},
	},
	"riza": {
		{Text: "Water the plants", Reward: 2},
		{Text: "Cook a simple dinner", Reward: 5},
		{Text: "Do morning exercises", Reward: 3},
		{Text: "Write in your diary", Reward: 4},
		{Text: "Tidy your wardrobe", Reward: 3},
	},
}

// Roster is the fixed set of children plus their task templates.
type Roster struct {
	children []string
	weekly   map[string][]model.TaskTemplate
	starter  map[string][]model.TaskTemplate
}

// New builds a roster from child names. Names are normalized and
// de-duplicated; children without a built-in template get empty lists.
func New(names []string) Roster {
	r := Roster{
		weekly:  make(map[string][]model.TaskTemplate),
		starter: make(map[string][]model.TaskTemplate),
	}
	seen := make(map[string]bool)
	for _, n := range names {
		name := Normalize(n)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		r.children = append(r.children, name)
		r.weekly[name] = weeklyTemplates[name]
		r.starter[name] = starterTemplates[name]
	}
	sort.Strings(r.children)
	return r
}

func Default() Roster {
	return New(DefaultChildren)
}

// Normalize lowercases and trims a child name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Children returns the roster in name order.
func (r Roster) Children() []string {
	return append([]string(nil), r.children...)
}

func (r Roster) Has(name string) bool {
	_, ok := r.weekly[Normalize(name)]
	return ok
}

// WeeklyTemplates returns the recurring task list for every roster child.
func (r Roster) WeeklyTemplates() map[string][]model.TaskTemplate {
	return copyTemplates(r.weekly)
}

// StarterTemplates returns the one-off tasks given to a child on first start.
func (r Roster) StarterTemplates() map[string][]model.TaskTemplate {
	return copyTemplates(r.starter)
}

func copyTemplates(in map[string][]model.TaskTemplate) map[string][]model.TaskTemplate {
	out := make(map[string][]model.TaskTemplate, len(in))
	for name, list := range in {
		out[name] = append([]model.TaskTemplate(nil), list...)
	}
	return out
}
