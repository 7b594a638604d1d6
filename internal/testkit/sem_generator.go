package testkit

import (
	"fmt"
	"math/rand"
	"sort"

	"gocausal/domain/dataset"
)

// Link is one structural coefficient: To receives Weight * From.
type Link struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// SEMConfig configures a linear-Gaussian structural equation model.
//
// Every variable is the weighted sum of its parents plus N(0, NoiseStdDev) noise.
// Links must form a DAG. Hidden variables are simulated but dropped from the output,
// which keeps the remaining columns in Variables order.
type SEMConfig struct {
	Variables    []string `json:"variables"`
	Links        []Link   `json:"links"`
	Hidden       []string `json:"hidden,omitempty"`
	NoiseStdDev  float64  `json:"noise_std_dev"`
	Observations int      `json:"observations"`
	Seed         int64    `json:"seed"`
}

// Preset names understood by Preset.
const (
	PresetChain    = "chain"
	PresetFork     = "fork"
	PresetCollider = "collider"
	PresetAverage  = "average"
	PresetLatent   = "latent"
)

// PresetNames lists the built-in models.
func PresetNames() []string {
	return []string{PresetChain, PresetFork, PresetCollider, PresetAverage, PresetLatent}
}

// Preset returns a built-in model with 1000 observations and seed 42.
//
//	chain     X -> Z -> Y
//	fork      X <- Z -> Y
//	collider  X -> Z <- Y
//	average   Z = (X + Y)/2 + noise
//	latent    C -> A <- L -> B <- D with L hidden
func Preset(name string) (SEMConfig, error) {
	cfg := SEMConfig{NoiseStdDev: 1, Observations: 1000, Seed: 42}
	switch name {
	case PresetChain:
		cfg.Variables = []string{"X", "Y", "Z"}
		cfg.Links = []Link{{"X", "Z", 0.8}, {"Z", "Y", 0.8}}
	case PresetFork:
		cfg.Variables = []string{"X", "Y", "Z"}
		cfg.Links = []Link{{"Z", "X", 0.8}, {"Z", "Y", 0.8}}
	case PresetCollider:
		cfg.Variables = []string{"X", "Y", "Z"}
		cfg.Links = []Link{{"X", "Z", 0.8}, {"Y", "Z", 0.8}}
	case PresetAverage:
		cfg.Variables = []string{"X", "Y", "Z"}
		cfg.Links = []Link{{"X", "Z", 0.5}, {"Y", "Z", 0.5}}
		cfg.NoiseStdDev = 0.3
	case PresetLatent:
		cfg.Variables = []string{"C", "A", "B", "D", "L"}
		cfg.Links = []Link{{"C", "A", 0.8}, {"L", "A", 0.8}, {"L", "B", 0.8}, {"D", "B", 0.8}}
		cfg.Hidden = []string{"L"}
		cfg.Observations = 2000
	default:
		return SEMConfig{}, fmt.Errorf("unknown preset %q (known: %v)", name, PresetNames())
	}
	return cfg, nil
}

// SEMGenerator simulates data from a SEMConfig.
type SEMGenerator struct {
	config SEMConfig
	rng    *rand.Rand
}

// NewSEMGenerator creates a generator seeded from the config.
func NewSEMGenerator(config SEMConfig) *SEMGenerator {
	if config.NoiseStdDev <= 0 {
		config.NoiseStdDev = 1
	}
	return &SEMGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate draws Observations rows. The same config always yields the same matrix.
func (g *SEMGenerator) Generate() (*dataset.Matrix, error) {
	cfg := g.config
	if cfg.Observations < 2 {
		return nil, fmt.Errorf("need at least 2 observations, got %d", cfg.Observations)
	}

	index := make(map[string]int, len(cfg.Variables))
	for i, v := range cfg.Variables {
		if _, dup := index[v]; dup {
			return nil, fmt.Errorf("variable %q listed twice", v)
		}
		index[v] = i
	}
	parents := make([][]Link, len(cfg.Variables))
	for _, l := range cfg.Links {
		from, ok := index[l.From]
		if !ok {
			return nil, fmt.Errorf("link %s -> %s: unknown variable %q", l.From, l.To, l.From)
		}
		to, ok := index[l.To]
		if !ok {
			return nil, fmt.Errorf("link %s -> %s: unknown variable %q", l.From, l.To, l.To)
		}
		if from == to {
			return nil, fmt.Errorf("link %s -> %s is a self loop", l.From, l.To)
		}
		parents[to] = append(parents[to], l)
	}
	order, err := topologicalOrder(cfg.Variables, parents, index)
	if err != nil {
		return nil, err
	}

	hidden := make(map[string]bool, len(cfg.Hidden))
	for _, h := range cfg.Hidden {
		if _, ok := index[h]; !ok {
			return nil, fmt.Errorf("hidden variable %q is not a variable", h)
		}
		hidden[h] = true
	}
	var names []string
	var columns []int
	for i, v := range cfg.Variables {
		if !hidden[v] {
			names = append(names, v)
			columns = append(columns, i)
		}
	}

	values := make([]float64, len(cfg.Variables))
	rows := make([][]float64, cfg.Observations)
	for r := range rows {
		for _, v := range order {
			x := g.rng.NormFloat64() * cfg.NoiseStdDev
			for _, l := range parents[v] {
				x += l.Weight * values[index[l.From]]
			}
			values[v] = x
		}
		row := make([]float64, len(columns))
		for j, c := range columns {
			row[j] = values[c]
		}
		rows[r] = row
	}
	return dataset.NewMatrix(names, rows)
}

func topologicalOrder(vars []string, parents [][]Link, index map[string]int) ([]int, error) {
	indegree := make([]int, len(vars))
	children := make([][]int, len(vars))
	for to, links := range parents {
		for _, l := range links {
			from := index[l.From]
			children[from] = append(children[from], to)
			indegree[to]++
		}
	}

	var ready, order []int
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}
	for len(ready) > 0 {
		sort.Ints(ready)
		v := ready[0]
		ready = ready[1:]
		order = append(order, v)
		for _, c := range children[v] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}
	if len(order) != len(vars) {
		return nil, fmt.Errorf("links contain a cycle")
	}
	return order, nil
}
