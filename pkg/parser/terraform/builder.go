package terraform

import (
	"github.com/terracomply/terracomply/pkg/logger"
	"github.com/terracomply/terracomply/pkg/types"
)

// DefaultRepeatableBlocks are the nested block kinds that accumulate
// into lists rather than overwriting: network-rule style blocks that
// legally appear multiple times per resource.
var DefaultRepeatableBlocks = []string{"ingress", "egress", "rule"}

// Builder turns tokenizer events into a normalized resource list. Only
// top-level resource blocks are materialized; other top-level block
// kinds (provider, variable, terraform, ...) are skipped with their
// nesting balanced so later resources still parse.
type Builder struct {
	repeatable map[string]bool
	log        *logger.Logger
}

// NewBuilder creates a builder. A nil repeatable set selects
// DefaultRepeatableBlocks.
func NewBuilder(repeatable []string, log *logger.Logger) *Builder {
	if repeatable == nil {
		repeatable = DefaultRepeatableBlocks
	}
	if log == nil {
		log = logger.Default()
	}
	set := make(map[string]bool, len(repeatable))
	for _, kind := range repeatable {
		set[kind] = true
	}
	return &Builder{repeatable: set, log: log}
}

// Build parses src into resources, in declaration order. Duplicate
// (type, name) pairs are retained as distinct entries.
func (b *Builder) Build(file, src string) ([]types.Resource, error) {
	tz := NewTokenizer(file, src)
	var resources []types.Resource
	for {
		ev, err := tz.Next()
		if err != nil {
			return nil, err
		}
		if ev == nil {
			return resources, nil
		}
		switch ev.Kind {
		case EventBlockStart:
			if ev.BlockType == "resource" {
				res, err := b.buildResource(tz, ev, file)
				if err != nil {
					return nil, err
				}
				resources = append(resources, *res)
			} else if err := skipBlock(tz); err != nil {
				return nil, err
			}
		case EventAttribute:
			// Top-level assignment outside any block; nothing to keep.
		}
	}
}

func (b *Builder) buildResource(tz *Tokenizer, start *Event, file string) (*types.Resource, error) {
	if len(start.Labels) != 2 || start.Labels[0] == "" || start.Labels[1] == "" {
		return nil, errParse(file, start.Line, "resource block requires a type and a name label")
	}

	res := &types.Resource{
		Type:       start.Labels[0],
		Name:       start.Labels[1],
		Attributes: make(map[string]types.Value),
		Blocks:     make(map[string][]map[string]types.Value),
		Location:   types.Location{File: file, Line: start.Line},
	}

	for {
		ev, err := tz.Next()
		if err != nil {
			return nil, err
		}
		if ev == nil {
			return nil, errParse(file, start.Line, "resource %s is never closed", res.Address())
		}
		switch ev.Kind {
		case EventBlockEnd:
			return res, nil
		case EventAttribute:
			// Later duplicate keys overwrite earlier ones.
			res.Attributes[ev.Key] = ev.Value
		case EventBlockStart:
			body, err := b.buildNestedBody(tz, file, ev)
			if err != nil {
				return nil, err
			}
			if b.repeatable[ev.BlockType] {
				res.Blocks[ev.BlockType] = append(res.Blocks[ev.BlockType], body)
				continue
			}
			if _, seen := res.Attributes[ev.BlockType]; seen {
				b.log.Warn("%s:%d: resource %s: nested block %q repeats but is not a repeatable kind; keeping the last occurrence",
					file, ev.Line, res.Address(), ev.BlockType)
			}
			res.Attributes[ev.BlockType] = types.MapOf(body)
		}
	}
}

// buildNestedBody collects a nested block body into a map. Deeper
// blocks become Map values under their block-type name, last write
// winning on repeats.
func (b *Builder) buildNestedBody(tz *Tokenizer, file string, start *Event) (map[string]types.Value, error) {
	body := make(map[string]types.Value)
	for {
		ev, err := tz.Next()
		if err != nil {
			return nil, err
		}
		if ev == nil {
			return nil, errParse(file, start.Line, "block %q is never closed", start.BlockType)
		}
		switch ev.Kind {
		case EventBlockEnd:
			return body, nil
		case EventAttribute:
			body[ev.Key] = ev.Value
		case EventBlockStart:
			inner, err := b.buildNestedBody(tz, file, ev)
			if err != nil {
				return nil, err
			}
			body[ev.BlockType] = types.MapOf(inner)
		}
	}
}

// skipBlock consumes events until the block opened by the previous
// block-start event is balanced.
func skipBlock(tz *Tokenizer) error {
	depth := 1
	for depth > 0 {
		ev, err := tz.Next()
		if err != nil {
			return err
		}
		if ev == nil {
			// Tokenizer reports unbalanced braces itself.
			return nil
		}
		switch ev.Kind {
		case EventBlockStart:
			depth++
		case EventBlockEnd:
			depth--
		}
	}
	return nil
}
