/*
Package smartmeal is a recipe assistant: it matches the ingredients a user has
against a recipe catalog and guides undecided users through a decision-tree
interview to a recommended dish.

# Concepts

  - Match Engine (pkg/match): classifies every recipe as complete, near-complete
    or incomplete for a selection, ranked by coverage.
  - Navigator (pkg/navigator): an explicit state machine over a tree provider with
    health polling and automatic recovery.
  - Session Controller (pkg/session): one user's pantry, navigator and last results,
    persisted through a pluggable store.

# Usage

	eng, err := smartmeal.New()
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close(context.Background())

	set, err := eng.Search(ctx, []string{"tomato", "mozzarella"}, 0)

	ctrl, err := eng.Sessions().Open(ctx, "")
	view, err := ctrl.Start(ctx)
	view, err = ctrl.Navigate(ctx, view.Node.Options[0].ID)

New serves the embedded catalog and tree by default. Use WithCatalog,
WithTree/WithTreeProvider and WithStore to plug in files, a remote tree
service or Redis/Badger persistence.
*/
package smartmeal
