package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/roteiro/pkg/ports"
)

// CPFPattern matches Brazilian CPF numbers with or without separators.
// It is the default pattern call-center deployments mask before any
// script content reaches disk.
const CPFPattern = `\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`

const piiMask = "***"

type piiMiddleware struct {
	next     ports.Storage
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks every pattern match
// inside stored values. Masking is one-way: loads return the masked
// bytes, the original never touches the backend.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.Storage) ports.Storage {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, key string, value []byte) error {
	masked := value
	for _, p := range m.patterns {
		masked = p.ReplaceAll(masked, []byte(piiMask))
	}
	return m.next.Save(ctx, key, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, key string) ([]byte, error) {
	return m.next.Load(ctx, key)
}

func (m *piiMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *piiMiddleware) Keys(ctx context.Context, prefix string) ([]string, error) {
	return m.next.Keys(ctx, prefix)
}
