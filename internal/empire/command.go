package empire

// Command is an order submitted by a UI or AI producer and applied later by
// the simulation loop. Apply runs with the empire write lock held.
type Command interface {
	Kind() string
	Apply(tx *Tx) error
}
