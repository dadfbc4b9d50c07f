// Package index turns recipe records into searchable vector chunks.
//
// Each record is flattened into one normalized composite text (title,
// category, ingredients, and steps), split into overlapping chunks, embedded
// in a single batch, and written to the chunk store in one transaction. Every
// chunk carries flat metadata (record id, category, ingredients) so a search
// hit can be used without loading its record.
//
// Indexing never modifies the canonical record. A failure leaves the record
// stored but unsearchable until it is indexed again.
package index
