package state

// Store keeps one value per user. Implementations must be safe for concurrent use
// across users; callers serialise mutations of a single user's value.
type Store[T any] interface {
	// Get returns the value stored for userID and whether it exists.
	Get(userID int64) (T, bool)
	// Set installs value for userID, replacing any previous one.
	Set(userID int64, value T)
	// Delete removes the value for userID. Deleting a missing entry is a no-op.
	Delete(userID int64)
	// Len reports how many users currently have a value.
	Len() int
}
