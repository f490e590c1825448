/*
Package domain contains the core domain models for the SmartMeal engines.

It defines the catalog entities, the match results, the decision tree nodes and the
explicit session snapshot. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Recipe and Ingredient: the read-only catalog supplied by a CatalogProvider.
  - Pantry: a session-scoped selection of ingredients with optional ratings.
  - MatchSet: the classified, ranked result of one search.
  - TreeNode: a tagged decision or terminal step of the guided interview.
  - SessionSnapshot: the serializable state of one user session.
  - Error: a failure carrying one ErrorKind of the closed taxonomy.
*/
package domain
