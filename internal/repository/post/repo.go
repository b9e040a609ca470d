// Package post persists forum posts and their vote sets.
//
// Key scheme (under the configured prefix):
//
//	post:<id>          hash with post fields
//	post:<id>:up       set of user ids who upvoted
//	post:<id>:down     set of user ids who downvoted
//	posts              set of all post ids
//	dept:<department>  set of post ids per department
//	embedded           set of post ids that carry an embedding
package post

import (
	"context"
	"fmt"

	"github.com/campusconnect/forum/internal/db"
	"github.com/campusconnect/forum/internal/domain"
)

// store is the consumer interface for posts (ISP).
type store interface {
	db.HashStore
	db.SetStore
}

// Repo implements the post storage contracts of the usecase layer.
type Repo struct {
	store  store
	prefix string
}

// New creates a post repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) postKey(id string) string   { return r.prefix + "post:" + id }
func (r *Repo) upKey(id string) string     { return r.prefix + "post:" + id + ":up" }
func (r *Repo) downKey(id string) string   { return r.prefix + "post:" + id + ":down" }
func (r *Repo) allKey() string             { return r.prefix + "posts" }
func (r *Repo) deptKey(dept string) string { return r.prefix + "dept:" + dept }
func (r *Repo) embeddedKey() string        { return r.prefix + "embedded" }

// Create stores a new post and registers it in the id indexes.
func (r *Repo) Create(ctx context.Context, p *domain.Post) error {
	if err := r.store.HSet(ctx, r.postKey(p.ID), buildHashFields(p)); err != nil {
		return fmt.Errorf("hset post %s: %w", p.ID, err)
	}
	if _, err := r.store.SAdd(ctx, r.allKey(), p.ID); err != nil {
		return fmt.Errorf("index post %s: %w", p.ID, err)
	}
	if _, err := r.store.SAdd(ctx, r.deptKey(p.Department), p.ID); err != nil {
		return fmt.Errorf("index post %s by department: %w", p.ID, err)
	}
	if p.HasEmbedding() {
		if _, err := r.store.SAdd(ctx, r.embeddedKey(), p.ID); err != nil {
			return fmt.Errorf("index embedded post %s: %w", p.ID, err)
		}
	}
	return nil
}

// Update overwrites post fields and refreshes the indexes. prevDept is the
// department before the update, so a moved post leaves its old index.
func (r *Repo) Update(ctx context.Context, p *domain.Post, prevDept string) error {
	if err := r.store.HSet(ctx, r.postKey(p.ID), buildHashFields(p)); err != nil {
		return fmt.Errorf("hset post %s: %w", p.ID, err)
	}
	if prevDept != "" && prevDept != p.Department {
		if err := r.store.SRem(ctx, r.deptKey(prevDept), p.ID); err != nil {
			return fmt.Errorf("drop old department index for %s: %w", p.ID, err)
		}
		if _, err := r.store.SAdd(ctx, r.deptKey(p.Department), p.ID); err != nil {
			return fmt.Errorf("index post %s by department: %w", p.ID, err)
		}
	}
	if p.HasEmbedding() {
		if _, err := r.store.SAdd(ctx, r.embeddedKey(), p.ID); err != nil {
			return fmt.Errorf("index embedded post %s: %w", p.ID, err)
		}
	} else {
		if err := r.store.SRem(ctx, r.embeddedKey(), p.ID); err != nil {
			return fmt.Errorf("drop embedded index for %s: %w", p.ID, err)
		}
	}
	return nil
}

// Get returns a post by id with derived vote counts, without the embedding
// hot path stripped (callers strip before presentation).
func (r *Repo) Get(ctx context.Context, id string) (domain.Post, error) {
	m, err := r.store.HGetAll(ctx, r.postKey(id))
	if err != nil {
		return domain.Post{}, fmt.Errorf("hgetall post %s: %w", id, err)
	}
	if len(m) == 0 {
		return domain.Post{}, domain.ErrPostNotFound
	}

	p := parseHashFields(id, m)
	if err := r.attachCounts(ctx, &p); err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

// Delete removes a post, its vote sets, and its index entries.
// The cascade keeps the invariant that no votes outlive their post.
func (r *Repo) Delete(ctx context.Context, id, department string) error {
	if err := r.store.Del(ctx, r.postKey(id), r.upKey(id), r.downKey(id)); err != nil {
		return fmt.Errorf("del post %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, r.allKey(), id); err != nil {
		return fmt.Errorf("drop post index for %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, r.deptKey(department), id); err != nil {
		return fmt.Errorf("drop department index for %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, r.embeddedKey(), id); err != nil {
		return fmt.Errorf("drop embedded index for %s: %w", id, err)
	}
	return nil
}

// List returns all posts, optionally scoped to a department. Ordering and
// pagination happen in the usecase layer on the hydrated slice.
func (r *Repo) List(ctx context.Context, department string) ([]domain.Post, error) {
	ids, err := r.idsForScope(ctx, department)
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, ids, false)
}

// ListEmbedded returns posts carrying an embedding, optionally scoped to a
// department. Posts without an embedding never appear here.
func (r *Repo) ListEmbedded(ctx context.Context, department string) ([]domain.Post, error) {
	ids, err := r.store.SMembers(ctx, r.embeddedKey())
	if err != nil {
		return nil, fmt.Errorf("smembers embedded: %w", err)
	}

	posts, err := r.hydrate(ctx, ids, true)
	if err != nil {
		return nil, err
	}

	if department == "" || department == domain.DepartmentGeneral {
		return posts, nil
	}
	scoped := posts[:0]
	for _, p := range posts {
		if p.Department == department {
			scoped = append(scoped, p)
		}
	}
	return scoped, nil
}

// CountEmbedded returns the size of the embedded corpus across all scopes.
func (r *Repo) CountEmbedded(ctx context.Context) (int, error) {
	n, err := r.store.SCard(ctx, r.embeddedKey())
	if err != nil {
		return 0, fmt.Errorf("scard embedded: %w", err)
	}
	return n, nil
}

func (r *Repo) idsForScope(ctx context.Context, department string) ([]string, error) {
	key := r.allKey()
	if department != "" && department != domain.DepartmentGeneral {
		key = r.deptKey(department)
	}
	ids, err := r.store.SMembers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	return ids, nil
}

// hydrate loads post hashes and vote counts for the given ids. Stale index
// entries (hash already deleted) are skipped.
func (r *Repo) hydrate(ctx context.Context, ids []string, withVector bool) ([]domain.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.postKey(id)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall posts: %w", err)
	}

	posts := make([]domain.Post, 0, len(ids))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		p := parseHashFields(ids[i], m)
		if !withVector {
			p.Embedding = nil
		}
		if err := r.attachCounts(ctx, &p); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (r *Repo) attachCounts(ctx context.Context, p *domain.Post) error {
	up, err := r.store.SCard(ctx, r.upKey(p.ID))
	if err != nil {
		return fmt.Errorf("scard upvotes %s: %w", p.ID, err)
	}
	down, err := r.store.SCard(ctx, r.downKey(p.ID))
	if err != nil {
		return fmt.Errorf("scard downvotes %s: %w", p.ID, err)
	}
	p.SetVoteCounts(up, down)
	return nil
}
