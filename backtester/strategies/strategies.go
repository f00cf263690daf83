package strategies

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/thrasher-corp/gfobtester/backtester/conditions"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/base"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/deviationreversion"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/duallimit"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/ematouch"
	"github.com/thrasher-corp/gfobtester/backtester/strategies/trendprojection"
	"github.com/thrasher-corp/gfobtester/common"
	"github.com/thrasher-corp/gfobtester/log"
	"gopkg.in/yaml.v3"
)

// NewRegistry returns a registry holding the built-in strategies. A nil
// leaf registry uses the built-in leaves
func NewRegistry(leaves *conditions.LeafRegistry) *Registry {
	if leaves == nil {
		leaves = conditions.NewLeafRegistry()
	}
	r := &Registry{
		leaves:   leaves,
		builders: make(map[string]base.Builder),
	}
	for _, b := range []base.Builder{
		new(deviationreversion.Strategy),
		new(ematouch.Strategy),
		new(duallimit.Strategy),
		new(trendprojection.Strategy),
	} {
		r.builders[strings.ToLower(b.Name())] = b
	}
	return r
}

// Leaves returns the leaf registry definitions are built with
func (r *Registry) Leaves() *conditions.LeafRegistry {
	return r.leaves
}

// Add registers a custom strategy builder
func (r *Registry) Add(b base.Builder) error {
	if b == nil {
		return fmt.Errorf("%w: builder", common.ErrNilPointer)
	}
	name := strings.ToLower(b.Name())
	if _, ok := r.builders[name]; ok {
		return fmt.Errorf("%w: %s", errStrategyAlreadyAdded, name)
	}
	r.builders[name] = b
	return nil
}

// Load builds the named strategy after applying its defaults and then the
// custom settings
func (r *Registry) Load(name string, customSettings map[string]any) (*base.Definition, error) {
	proto, ok := r.builders[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("'%v' %w", name, base.ErrStrategyNotFound)
	}
	b := proto.New()
	b.SetDefaults()
	if err := b.SetCustomSettings(customSettings); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	d, err := b.Build(r.leaves)
	if err != nil {
		return nil, err
	}
	log.Debugf(log.StrategyMgr, "loaded strategy %s with %d exit rules", d.Name, len(d.Exits))
	return d, nil
}

// Names returns the registered strategy names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for k := range r.builders {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Describe returns the description of a registered strategy
func (r *Registry) Describe(name string) (string, error) {
	b, ok := r.builders[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("'%v' %w", name, base.ErrStrategyNotFound)
	}
	return b.Description(), nil
}

// LoadDefinitionFile reads a declarative YAML strategy definition
func LoadDefinitionFile(path string, leaves *conditions.LeafRegistry) (*base.Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := LoadDefinition(b, leaves)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Infof(log.StrategyMgr, "loaded strategy %s from %s", d.Name, path)
	return d, nil
}

// LoadDefinition decodes and builds a declarative YAML strategy definition
func LoadDefinition(b []byte, leaves *conditions.LeafRegistry) (*base.Definition, error) {
	if leaves == nil {
		leaves = conditions.NewLeafRegistry()
	}
	var f fileDefinition
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Entry == nil {
		return nil, fmt.Errorf("%w: %w", base.ErrInvalidDefinition, errMissingEntry)
	}
	entry, err := conditions.BuildNode(f.Entry, leaves)
	if err != nil {
		return nil, fmt.Errorf("%w entry: %w", base.ErrInvalidDefinition, err)
	}
	d := base.Definition{
		Name:        f.Name,
		Description: f.Description,
		Entry:       entry,
		Sizing: base.Sizing{
			PositionFraction: f.Sizing.PositionFraction,
			MaxHoldingBars:   f.Sizing.MaxHoldingBars,
		},
	}
	for i := range f.Filters {
		c, err := conditions.BuildNode(f.Filters[i].Condition, leaves)
		if err != nil {
			return nil, fmt.Errorf("%w filter %q: %w", base.ErrInvalidDefinition, f.Filters[i].Name, err)
		}
		d.Filters = append(d.Filters, base.Filter{Name: f.Filters[i].Name, Condition: c})
	}
	for i := range f.Exits {
		c, err := conditions.BuildNode(f.Exits[i].Condition, leaves)
		if err != nil {
			return nil, fmt.Errorf("%w exit %q: %w", base.ErrInvalidDefinition, f.Exits[i].Name, err)
		}
		d.Exits = append(d.Exits, base.ExitRule{
			Name:      f.Exits[i].Name,
			Priority:  f.Exits[i].Priority,
			Once:      f.Exits[i].Once,
			Condition: c,
		})
	}
	for i := range f.Sizing.Levels {
		d.Sizing.Levels = append(d.Sizing.Levels, base.Level{
			Offset: f.Sizing.Levels[i].Offset,
			Weight: f.Sizing.Levels[i].Weight,
		})
	}
	return base.NewDefinition(d)
}
