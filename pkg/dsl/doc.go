/*
Package dsl provides a fluent Go builder for SmartMeal decision trees.

It is an alternative to YAML or JSON tree files when a tree is generated in code
or assembled inside a test.

	b := dsl.New("start")

	b.Decision("start", "What would you like?").
		Icon("🍽️").
		Children("breakfast", "dinner")

	b.Terminal("breakfast", "Pancakes").
		Ingredients("flour", "egg", "milk")

	b.Terminal("dinner", "Risotto").
		Description("Creamy rice").
		Ingredients("rice", "parmesan")

	t, err := b.Build() // *tree.Tree, usable as a ports.TreeProvider
*/
package dsl
