// Package validator checks a product's script graph for authoring
// mistakes: dangling button targets and steps no button path can reach.
// The engine itself tolerates both at runtime; validation is an admin
// tool, not a gate.
package validator

import (
	"fmt"
	"sort"

	"github.com/aretw0/roteiro/pkg/domain"
)

// Source is the repository surface the validator reads from.
type Source interface {
	GetStep(id string) (*domain.Step, error)
	GetSteps(productID string) []*domain.Step
	GetProduct(id string) (*domain.Product, error)
}

// Issue is one finding, tied to the step it was found on.
type Issue struct {
	StepID   string `json:"step_id"`
	ButtonID string `json:"button_id,omitempty"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	if i.ButtonID != "" {
		return fmt.Sprintf("%s/%s: %s", i.StepID, i.ButtonID, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.StepID, i.Message)
}

// Result aggregates the findings for one product.
type Result struct {
	ProductID string  `json:"product_id"`
	Steps     int     `json:"steps"`
	Issues    []Issue `json:"issues,omitempty"`
}

// OK reports whether the graph validated cleanly.
func (r *Result) OK() bool {
	return len(r.Issues) == 0
}

// ValidateProduct crawls the product's graph from its first step. It
// reports dangling button targets, an unresolvable or missing first step,
// and steps assigned to the product that no button path reaches.
func ValidateProduct(source Source, productID string) (*Result, error) {
	product, err := source.GetProduct(productID)
	if err != nil {
		return nil, fmt.Errorf("validate product %q: %w", productID, err)
	}

	steps := source.GetSteps(productID)
	result := &Result{ProductID: productID, Steps: len(steps)}

	if product.FirstStepID == "" {
		result.Issues = append(result.Issues, Issue{
			Message: "product has no first step configured",
		})
		return result, nil
	}

	visited := make(map[string]bool)
	queue := []string{product.FirstStepID}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		step, err := source.GetStep(currentID)
		if err != nil {
			result.Issues = append(result.Issues, Issue{
				StepID:  currentID,
				Message: "step does not exist",
			})
			continue
		}

		for _, button := range step.Buttons {
			if button.Terminal() {
				continue
			}
			if !visited[button.NextStepID] {
				queue = append(queue, button.NextStepID)
			}
		}
	}

	// Steps carried by the product but not reachable from its entry point.
	var orphans []string
	for _, step := range steps {
		if !visited[step.ID] {
			orphans = append(orphans, step.ID)
		}
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		result.Issues = append(result.Issues, Issue{
			StepID:  id,
			Message: "step is unreachable from the first step",
		})
	}

	return result, nil
}
