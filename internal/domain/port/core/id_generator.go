package core

// IDGenerator issues unique, roughly time-ordered identifiers for new records
type IDGenerator interface {
	NextID() uint64
}
