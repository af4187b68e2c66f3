package bundle

import (
	"fmt"

	"github.com/aretw0/roteiro/internal/metrics"
	"github.com/aretw0/roteiro/pkg/domain"
)

// Importer is the repository surface the adapter writes through.
type Importer interface {
	ReplaceProductSteps(product *domain.Product, steps []*domain.Step) error
}

// Import loads a bundle into the repository. Re-importing the same bundle
// is idempotent: each product's step set is fully replaced, never appended
// to. Steps with empty id or title are skipped and reported; the rest of
// the bundle still imports.
func Import(repo Importer, data []byte) (*Report, error) {
	b, err := Parse(data)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	report := &Report{}
	for _, productName := range sortedKeys(b.Marcas) {
		stepDefs := b.Marcas[productName]
		if len(stepDefs) == 0 {
			report.Errors = append(report.Errors, ItemError{
				Product: productName,
				Reason:  "product has no steps",
			})
			continue
		}

		steps := make([]*domain.Step, 0, len(stepDefs))
		for i, key := range sortedKeys(stepDefs) {
			def := stepDefs[key]
			if def.ID == "" || def.Title == "" {
				report.Errors = append(report.Errors, ItemError{
					Product: productName,
					StepKey: key,
					Reason:  "missing id or title",
				})
				continue
			}

			step := &domain.Step{
				ID:         def.ID,
				Title:      def.Title,
				Content:    def.Body,
				OrderIndex: i,
				Buttons:    make([]domain.Button, 0, len(def.Buttons)),
			}
			for bi, btn := range def.Buttons {
				step.Buttons = append(step.Buttons, domain.Button{
					ID:         buttonID(def.ID, bi),
					Label:      btn.Label,
					NextStepID: normalizeNext(btn.Next),
					OrderIndex: bi,
					Primary:    btn.Primary,
				})
			}

			if f, err := decodeFormatting(def.Format); err != nil {
				report.Errors = append(report.Errors, ItemError{
					Product: productName,
					StepKey: key,
					Reason:  fmt.Sprintf("bad format record: %v", err),
				})
			} else {
				step.Formatting = f
			}
			if segs, err := decodeSegments(def.ID, def.Segments); err != nil {
				report.Errors = append(report.Errors, ItemError{
					Product: productName,
					StepKey: key,
					Reason:  fmt.Sprintf("bad segments: %v", err),
				})
			} else {
				step.Segments = segs
			}

			steps = append(steps, step)
		}

		if len(steps) == 0 {
			report.Errors = append(report.Errors, ItemError{
				Product: productName,
				Reason:  "no valid steps",
			})
			continue
		}

		product := &domain.Product{
			ID:          productName,
			Name:        productName,
			Active:      true,
			FirstStepID: firstStepID(steps),
		}
		if err := repo.ReplaceProductSteps(product, steps); err != nil {
			metrics.ImportsTotal.WithLabelValues("error").Inc()
			return report, fmt.Errorf("import product %q: %w", productName, err)
		}

		report.ProductCount++
		report.StepCount += len(steps)
	}

	metrics.ImportsTotal.WithLabelValues("ok").Inc()
	return report, nil
}
