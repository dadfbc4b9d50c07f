// Package extract turns fetched HTML into bounded plain text for the recipe extractor.
//
// Non-content subtrees (script, style, nav, header, footer) are dropped, every
// remaining text node becomes one or more trimmed lines, blank lines are
// removed, and the result is cut at a hard line limit (2000 by default) so the
// downstream LLM prompt stays within budget.
package extract
