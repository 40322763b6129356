package config

const (
	// MaxGroupingNameLength is the maximum length for grouping names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxGroupingNameLength = 255

	// MaxDefinitionNameLength is the maximum length for definition names.
	MaxDefinitionNameLength = 255

	// MaxDescriptionLength caps free-text definition descriptions.
	MaxDescriptionLength = 2000

	// MaxAccountCodeLength is the maximum length for an account code
	// ("1010", "4000-200").
	MaxAccountCodeLength = 50

	// MaxAccountNameLength is the maximum length for account names.
	MaxAccountNameLength = 255

	// MaxIndexBatchSize bounds one reorder request. A single drag touches at
	// most two sibling lists, so anything near this is a client bug.
	MaxIndexBatchSize = 1000
)
