package domain

// User is the chat user that sends a command or a dialogue answer.
type User struct {
	ID       int64
	Username string
}

// AdminSet is the static allow-list of administrator user ids.
type AdminSet map[int64]struct{}

// NewAdminSet builds an AdminSet from a list of ids.
func NewAdminSet(ids []int64) AdminSet {
	s := make(AdminSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is an administrator.
func (s AdminSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the administrator ids in no particular order.
func (s AdminSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}
