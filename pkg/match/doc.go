/*
Package match implements the Recipe Matching and Classification Engine.

ComputeMatches is a pure function: it scores every recipe of a catalog against a
selection, classifies it as complete, near-complete or incomplete, and ranks each
bucket. Searcher wraps it with a CatalogProvider and the error taxonomy, and adds the
dish cross-check used when the guided interview reaches a recommendation.

Index answers structural questions about a catalog (statistics, which recipes use an
ingredient), and RankByPreference orders dishes by the user's ingredient ratings.
*/
package match
