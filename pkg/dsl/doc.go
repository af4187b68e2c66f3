/*
Package dsl provides a Go DSL for programmatically constructing product
scripts.

It lets developers define scripts using a type-safe, fluent builder
pattern instead of external JSON bundles. This is particularly useful
for seeding test data, generating scripts dynamically, and leveraging
IDE autocompletion.

Example usage:

	package main

	import (
		"github.com/aretw0/roteiro/pkg/dsl"
	)

	func main() {
		script := dsl.New("acme-fibra").Name("ACME Fibra")

		script.Step("saudacao").
			Title("Saudação").
			Content("Olá [Primeiro nome do cliente]!").
			Button("Cliente confirmou", "oferta").
			End("Cliente recusou")

		script.Step("oferta").
			Title("Oferta").
			Content("Apresente o plano.").
			End("Encerrar")

		product, steps, err := script.Build()
		// ... feed into repository.ReplaceProductSteps(product, steps)
	}
*/
package dsl
