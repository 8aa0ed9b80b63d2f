/*
Package mapping implements the mapping between tagged OSM entities and output
layers, rows and columns.

A Registry holds the declared layers (LayerSchema) with their geometry type
and typed attributes. A RuleTable holds the rules per entity kind. Each Rule
matches entities by one or more tag conditions, targets exactly one layer and
binds layer attributes to sources (a tag, the entity ID, a derived function).

Matching returns zero or more Match results in rule declaration order. Each
Match converts the entity to a row with all attribute values of the target
layer in column order.

Registry and RuleTable are built during configuration and are immutable after
Freeze.
*/
package mapping
