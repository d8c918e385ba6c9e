// Package types defines the Cupboard and Table interfaces, the category,
// field and field data entities, and the standard errors shared by the
// profile field storage and form layers.
package types
