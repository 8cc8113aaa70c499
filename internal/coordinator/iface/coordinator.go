package coordinator

// LeaderElector coordinates singleton work across nodes. The connector's
// pull-sync loop runs on exactly one node at a time; everyone else stands by.
type LeaderElector interface {
	// Campaign attempts to take leadership of a role, reporting whether this
	// node now holds it. Losing candidates simply try again later.
	Campaign(role, nodeID string) (bool, error)

	// Resign releases a held leadership so another node can take over
	Resign(role, nodeID string) error

	Close() error
}
