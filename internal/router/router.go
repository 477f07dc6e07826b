package router

import (
	"sort"

	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

// Candidate is one provider the gateway may call for a request.
type Candidate struct {
	Provider llm.ProviderID
	EnvVar   string
	Present  bool
	// Rule is the pattern that selected this candidate, empty for chain
	// entries.
	Rule string
}

// Rule pairs a model-name predicate with the provider it selects.
type Rule struct {
	Provider llm.ProviderID
	Pattern  llm.Pattern
}

type chainEntry struct {
	provider llm.ProviderID
	priority int
}

// Router resolves a task and model hint into an ordered candidate list. It
// holds no mutable state once built and is safe for concurrent use.
type Router struct {
	rules  []Rule
	chains map[api.Task][]llm.ProviderID
	tasks  map[llm.ProviderID]map[api.Task]bool
}

// New builds the rule table and default chains from the descriptor table.
func New() *Router {
	return NewFromDescriptors(llm.Descriptors())
}

func NewFromDescriptors(descs []llm.Descriptor) *Router {
	r := &Router{
		chains: make(map[api.Task][]llm.ProviderID),
		tasks:  make(map[llm.ProviderID]map[api.Task]bool),
	}

	entries := make(map[api.Task][]chainEntry)
	for _, d := range descs {
		for _, p := range d.Patterns {
			r.rules = append(r.rules, Rule{Provider: d.ID, Pattern: p})
		}
		r.tasks[d.ID] = make(map[api.Task]bool, len(d.Tasks))
		for _, t := range d.Tasks {
			r.tasks[d.ID][t] = true
		}
		for task, prio := range d.Chains {
			entries[task] = append(entries[task], chainEntry{provider: d.ID, priority: prio})
		}
	}

	for task, list := range entries {
		sort.SliceStable(list, func(i, j int) bool { return list[i].priority < list[j].priority })
		ids := make([]llm.ProviderID, len(list))
		for i, e := range list {
			ids[i] = e.provider
		}
		r.chains[task] = ids
	}
	return r
}

// Chain returns the default chain for task in priority order.
func (r *Router) Chain(task api.Task) []llm.ProviderID {
	out := make([]llm.ProviderID, len(r.chains[task]))
	copy(out, r.chains[task])
	return out
}

// Route never returns an empty list. A hint matching a rule whose provider
// supports the task yields that provider alone. Otherwise the task's
// default chain is returned with configured providers moved to the front,
// keeping chain order within each group.
func (r *Router) Route(task api.Task, hint string, creds llm.Credentials) []Candidate {
	if hint != "" {
		for _, rule := range r.rules {
			if !r.tasks[rule.Provider][task] || !rule.Pattern.Match(hint) {
				continue
			}
			return []Candidate{r.candidate(rule.Provider, creds, rule.Pattern.String())}
		}
	}

	chain := r.chains[task]
	if len(chain) == 0 {
		return []Candidate{{Provider: llm.Demo}}
	}

	present := make([]Candidate, 0, len(chain))
	absent := make([]Candidate, 0, len(chain))
	for _, id := range chain {
		c := r.candidate(id, creds, "")
		if c.Present {
			present = append(present, c)
		} else {
			absent = append(absent, c)
		}
	}
	return append(present, absent...)
}

func (r *Router) candidate(id llm.ProviderID, creds llm.Credentials, rule string) Candidate {
	return Candidate{
		Provider: id,
		EnvVar:   llm.EnvVar(id),
		Present:  creds.Present(id),
		Rule:     rule,
	}
}
