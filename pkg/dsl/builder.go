package dsl

import (
	"fmt"

	"github.com/aretw0/roteiro/pkg/domain"
)

// Builder manages the script construction for one product.
type Builder struct {
	product domain.Product
	steps   map[string]*StepBuilder
	order   []string
}

// New creates a script builder for the given product ID.
func New(productID string) *Builder {
	return &Builder{
		product: domain.Product{
			ID:     productID,
			Name:   productID,
			Active: true,
		},
		steps: make(map[string]*StepBuilder),
	}
}

// Name sets the product's display name.
func (b *Builder) Name(name string) *Builder {
	b.product.Name = name
	return b
}

// Category sets the product's category tag.
func (b *Builder) Category(category string) *Builder {
	b.product.Category = category
	return b
}

// First overrides the entry step. By default the first added step is
// the entry.
func (b *Builder) First(stepID string) *Builder {
	b.product.FirstStepID = stepID
	return b
}

// Step creates a new step in the script. If the step already exists, it
// returns the existing builder.
func (b *Builder) Step(id string) *StepBuilder {
	if sb, ok := b.steps[id]; ok {
		return sb
	}
	sb := &StepBuilder{
		step: domain.Step{
			ID:         id,
			ProductID:  b.product.ID,
			OrderIndex: len(b.order),
		},
		builder: b,
	}
	b.steps[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Build compiles the script into a product and its steps. Buttons must
// point at steps defined on this builder or be terminal; a typo in a
// target fails the build instead of creating a dead end at run time.
func (b *Builder) Build() (*domain.Product, []*domain.Step, error) {
	if len(b.order) == 0 {
		return nil, nil, fmt.Errorf("script %q has no steps", b.product.ID)
	}

	steps := make([]*domain.Step, 0, len(b.order))
	for _, id := range b.order {
		sb := b.steps[id]
		if sb.step.Title == "" {
			return nil, nil, fmt.Errorf("step %q has no title", id)
		}
		for _, btn := range sb.step.Buttons {
			if btn.NextStepID == "" {
				continue // terminal
			}
			if _, ok := b.steps[btn.NextStepID]; !ok {
				return nil, nil, fmt.Errorf("step %q button %q points at undefined step %q", id, btn.Label, btn.NextStepID)
			}
		}
		step := sb.step
		steps = append(steps, &step)
	}

	product := b.product
	if product.FirstStepID == "" {
		product.FirstStepID = b.order[0]
	}
	if _, ok := b.steps[product.FirstStepID]; !ok {
		return nil, nil, fmt.Errorf("first step %q is not defined", product.FirstStepID)
	}

	return &product, steps, nil
}
