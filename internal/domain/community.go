package domain

import "strings"

// CommunityRef is the fully qualified actor address of a community, for
// example "https://lemmy.ml/c/golang". It is globally unique across
// instances. A CommunityID by contrast is only meaningful within the one
// instance that assigned it; converting a ref to an id for a given site is
// the job of resolution, and ids are never stored back into a set.
type CommunityRef string

type CommunityID int64

// SubscriptionSet holds the communities one account subscribes to, keyed by
// actor address. Members are deduplicated on insertion and enumerate in
// first-insertion order.
type SubscriptionSet struct {
	members map[CommunityRef]struct{}
	order   []CommunityRef
}

func NewSubscriptionSet(refs ...CommunityRef) *SubscriptionSet {
	set := &SubscriptionSet{members: make(map[CommunityRef]struct{}, len(refs))}
	for _, ref := range refs {
		set.Add(ref)
	}

	return set
}

// Add inserts ref and reports whether it was not already present. Blank
// refs are ignored.
func (s *SubscriptionSet) Add(ref CommunityRef) bool {
	trimmed := CommunityRef(strings.TrimSpace(string(ref)))
	if trimmed == "" {
		return false
	}
	if _, ok := s.members[trimmed]; ok {
		return false
	}

	if s.members == nil {
		s.members = make(map[CommunityRef]struct{})
	}
	s.members[trimmed] = struct{}{}
	s.order = append(s.order, trimmed)

	return true
}

func (s *SubscriptionSet) Contains(ref CommunityRef) bool {
	if s == nil {
		return false
	}

	_, ok := s.members[ref]
	return ok
}

func (s *SubscriptionSet) Len() int {
	if s == nil {
		return 0
	}

	return len(s.members)
}

// Refs returns the members in first-insertion order. The slice is a copy.
func (s *SubscriptionSet) Refs() []CommunityRef {
	if s == nil {
		return nil
	}

	refs := make([]CommunityRef, len(s.order))
	copy(refs, s.order)
	return refs
}

// Difference returns the members of s absent from other, enumerated in s's
// order.
func (s *SubscriptionSet) Difference(other *SubscriptionSet) *SubscriptionSet {
	result := NewSubscriptionSet()
	if s == nil {
		return result
	}

	for _, ref := range s.order {
		if !other.Contains(ref) {
			result.Add(ref)
		}
	}

	return result
}
