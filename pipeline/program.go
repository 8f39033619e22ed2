package pipeline

import (
	"context"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Stage kinds accepted in program definitions.
const (
	KindMap    = "map"
	KindFilter = "filter"
	KindReduce = "reduce"
)

// Program is a YAML-defined pipeline: a populate source followed by an
// ordered list of stages, each resolved by name against a Registry.
type Program struct {
	// Name is the program identifier.
	Name string `yaml:"name"`
	// Populate is the registry key of the populate function.
	Populate string `yaml:"populate"`
	// Stages lists the stage specifications in execution order.
	Stages []StageDef `yaml:"stages"`
}

// StageDef defines one stage within a program.
type StageDef struct {
	// Step is the registry lookup key for this stage.
	Step string `yaml:"step"`
	// Kind is "map" (default), "filter" or "reduce".
	Kind string `yaml:"kind,omitempty"`
	// Workers fans a map stage out across a worker pool when > 1.
	Workers int `yaml:"workers,omitempty"`
	// Flatten splices slice outputs of a map stage element-wise.
	Flatten bool `yaml:"flatten,omitempty"`
}

// LoadProgram reads a program definition from a YAML file.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var prog Program
	if err := yaml.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("pipeline: parsing %s: %w", path, err)
	}
	return &prog, nil
}

// Validate resolves every name the program references against the registry,
// so a misspelled step fails before any work starts.
func (prog *Program) Validate(reg *Registry) error {
	if prog.Populate == "" {
		return fmt.Errorf("pipeline: program %q has no populate source", prog.Name)
	}
	if _, ok := reg.Populate(prog.Populate); !ok {
		return fmt.Errorf("pipeline: populate %q not found in registry", prog.Populate)
	}
	for _, def := range prog.Stages {
		switch def.Kind {
		case "", KindMap, KindFilter:
			if _, ok := reg.Step(def.Step); !ok {
				return fmt.Errorf("pipeline: step %q not found in registry", def.Step)
			}
		case KindReduce:
			if _, ok := reg.Reduce(def.Step); !ok {
				return fmt.Errorf("pipeline: reduce %q not found in registry", def.Step)
			}
		default:
			return fmt.Errorf("pipeline: stage %q has unknown kind %q", def.Step, def.Kind)
		}
	}
	return nil
}

// Run validates the program and executes it against the given pipeline.
func (prog *Program) Run(ctx context.Context, p *Pipeline, reg *Registry) error {
	if err := prog.Validate(reg); err != nil {
		return err
	}

	populate, _ := reg.Populate(prog.Populate)
	if err := p.Populate(ctx, populate); err != nil {
		return err
	}

	for _, def := range prog.Stages {
		switch def.Kind {
		case "", KindMap:
			step, _ := reg.Step(def.Step)
			var opts []MapOption
			if def.Workers > 1 {
				opts = append(opts, Parallel(def.Workers))
			}
			if def.Flatten {
				opts = append(opts, Flatten())
			}
			if err := p.Map(ctx, step, opts...); err != nil {
				return err
			}
		case KindFilter:
			step, _ := reg.Step(def.Step)
			if err := p.Filter(ctx, step); err != nil {
				return err
			}
		case KindReduce:
			reduce, _ := reg.Reduce(def.Step)
			if err := p.Reduce(ctx, reduce); err != nil {
				return err
			}
		}
	}
	return nil
}
