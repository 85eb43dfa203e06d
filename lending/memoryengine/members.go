package memoryengine

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// MemberRepository is an in-memory lending.MemberRepository.
type MemberRepository struct {
	mu      sync.RWMutex
	members map[lending.MemberIDString]lending.Member
}

// NewMemberRepository creates an empty MemberRepository.
func NewMemberRepository() *MemberRepository {
	return &MemberRepository{members: make(map[lending.MemberIDString]lending.Member)}
}

// Save inserts or updates the member and increments its Version.
func (r *MemberRepository) Save(_ context.Context, member *lending.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := checkVersion(r.members[member.ID].Version, member.Version); err != nil {
		return err
	}

	member.Version++
	r.members[member.ID] = *member

	return nil
}

// FindByID returns a copy of the member with the given ID.
func (r *MemberRepository) FindByID(_ context.Context, memberID lending.MemberIDString) (lending.Member, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member, ok := r.members[memberID]

	return member, ok, nil
}

// FindAll returns all members ordered by ID.
func (r *MemberRepository) FindAll(_ context.Context) ([]lending.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]lending.Member, 0, len(r.members))
	for _, member := range r.members {
		result = append(result, member)
	}

	slices.SortFunc(result, func(a, b lending.Member) int { return strings.Compare(a.ID, b.ID) })

	return result, nil
}

// ExistsByID reports whether a member with the given ID is stored.
func (r *MemberRepository) ExistsByID(_ context.Context, memberID lending.MemberIDString) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[memberID]

	return ok, nil
}
