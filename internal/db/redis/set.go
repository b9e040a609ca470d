package redis

import (
	"context"
	"sort"

	"github.com/redis/rueidis"

	"github.com/campusconnect/forum/internal/db"
)

// SAdd adds members to a set and returns how many were newly added.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	cmd := s.b().Sadd().Key(key).Member(members...).Build()
	added, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpSAdd, Err: err}
	}
	return added, nil
}

// SRem removes members from a set.
func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	cmd := s.b().Srem().Key(key).Member(members...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSRem, Err: err}
	}
	return nil
}

// SCard returns the set cardinality.
func (s *Store) SCard(ctx context.Context, key string) (int, error) {
	cmd := s.b().Scard().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpSCard, Err: err}
	}
	return int(n), nil
}

// SMIsMember reports membership of each given member in the set.
func (s *Store) SMIsMember(ctx context.Context, key string, members ...string) ([]bool, error) {
	cmd := s.b().Smismember().Key(key).Member(members...).Build()
	flags, err := s.do(ctx, cmd).AsIntSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpSMIsMember, Err: err}
	}
	out := make([]bool, len(flags))
	for i, f := range flags {
		out[i] = f == 1
	}
	return out, nil
}

// SMembers returns all members of a set.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	cmd := s.b().Smembers().Key(key).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return members, nil
}

// ApplySetUpdate applies adds and removals across set keys inside a
// MULTI/EXEC block, so concurrent writers never observe a partial update.
func (s *Store) ApplySetUpdate(ctx context.Context, update db.SetUpdate) error {
	cmds := []rueidis.Completed{s.b().Multi().Build()}
	for _, key := range sortedKeys(update.Add) {
		cmds = append(cmds, s.b().Sadd().Key(key).Member(update.Add[key]...).Build())
	}
	for _, key := range sortedKeys(update.Remove) {
		cmds = append(cmds, s.b().Srem().Key(key).Member(update.Remove[key]...).Build())
	}
	if len(cmds) == 1 {
		return nil
	}
	cmds = append(cmds, s.b().Exec().Build())

	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpMulti, Err: err}
		}
	}
	return nil
}

// sortedKeys keeps command order deterministic across calls.
func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k, members := range m {
		if len(members) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
