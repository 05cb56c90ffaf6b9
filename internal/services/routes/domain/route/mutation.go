package route

// MutationKind names the change a Mutation describes.
type MutationKind string

const (
	// MutationInsert adds Mutation.Route.
	MutationInsert MutationKind = "insert"
	// MutationReplace overwrites the route with Mutation.Route.ID.
	MutationReplace MutationKind = "replace"
	// MutationDelete removes every route listed in Mutation.IDs.
	MutationDelete MutationKind = "delete"
	// MutationClear removes every route.
	MutationClear MutationKind = "clear"
)

// Mutation describes one committed collection change for persistence.
type Mutation struct {
	Kind  MutationKind
	Route Route
	IDs   []int64
}
