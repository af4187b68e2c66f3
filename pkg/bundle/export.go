package bundle

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/aretw0/roteiro/pkg/domain"
)

// Exporter is the repository surface the adapter reads from.
type Exporter interface {
	GetProducts() []*domain.Product
	GetProduct(id string) (*domain.Product, error)
	GetSteps(productID string) []*domain.Step
}

// Export builds a bundle for one product, or for every product when
// productID is empty, and returns it as indented JSON.
func Export(repo Exporter, productID string) ([]byte, error) {
	b := Bundle{Marcas: make(map[string]ProductBundle)}

	var products []*domain.Product
	if productID == "" {
		products = repo.GetProducts()
	} else {
		p, err := repo.GetProduct(productID)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		products = []*domain.Product{p}
	}

	for _, p := range products {
		pb := make(ProductBundle)
		for _, step := range repo.GetSteps(p.ID) {
			def := StepDef{
				ID:    step.ID,
				Title: step.Title,
				Body:  step.Content,
			}
			for _, btn := range step.Buttons {
				next := btn.NextStepID
				if next == "" {
					next = TerminalNext
				}
				def.Buttons = append(def.Buttons, ButtonDef{
					Label:   btn.Label,
					Next:    next,
					Primary: btn.Primary,
				})
			}
			pb[step.ID] = def
		}
		b.Marcas[p.Name] = pb
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal: %w", err)
	}
	return data, nil
}

// WriteCSVReport writes the script report for one product: metadata header
// rows followed by a tabular step section. Fields are RFC 4180 quoted by
// encoding/csv, so commas and newlines in free text survive intact.
func WriteCSVReport(w io.Writer, product *domain.Product, steps []*domain.Step, generatedAt time.Time) error {
	cw := csv.NewWriter(w)

	meta := [][]string{
		{"Relatório de roteiro"},
		{"Produto", product.Name},
		{"Categoria", product.Category},
		{"Gerado em", generatedAt.Format(time.RFC3339)},
		{"Total de passos", fmt.Sprintf("%d", len(steps))},
		{},
		{"ID", "Título", "Conteúdo", "Botões", "Tabulações", "Alerta"},
	}
	for _, row := range meta {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv report: %w", err)
		}
	}

	for _, step := range steps {
		row := []string{
			step.ID,
			step.Title,
			step.Content,
			formatButtons(step.Buttons),
			formatTabulations(step.Tabulations),
			formatAlert(step.Alert),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv report: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatButtons(buttons []domain.Button) string {
	parts := make([]string, 0, len(buttons))
	for _, b := range buttons {
		next := b.NextStepID
		if next == "" {
			next = TerminalNext
		}
		parts = append(parts, fmt.Sprintf("%s -> %s", b.Label, next))
	}
	return strings.Join(parts, "; ")
}

func formatTabulations(tabs []domain.Tabulation) string {
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		parts = append(parts, t.Name)
	}
	return strings.Join(parts, "; ")
}

func formatAlert(alert *domain.Alert) string {
	if !alert.Active() {
		return ""
	}
	return fmt.Sprintf("%s: %s", alert.EffectiveTitle(), alert.Message)
}
