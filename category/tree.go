package category

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vcardoso/lojabackend/models"
	"github.com/vcardoso/lojabackend/utils"
)

// Manager owns the tree invariants: parent/children symmetry, acyclicity,
// cascade deletion. All multi-document writes run inside Store.InTx.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Node is a category with its children populated, used by the tree endpoint.
type Node struct {
	models.Category
	Children []Node `json:"children"`
}

// Crumb is one step of a root-to-node breadcrumb.
type Crumb struct {
	Name string        `json:"name"`
	Slug string        `json:"slug"`
	ID   bson.ObjectID `json:"id"`
}

type CreateInput struct {
	Name        string
	Description string
	Parent      *bson.ObjectID
	Image       string
	Icon        string
	Order       int
	IsActive    bool
	Featured    bool
	CreatedBy   bson.ObjectID
}

// treeDepth bounds how many child levels the tree endpoint expands.
const treeDepth = 2

// Tree returns every root category with two levels of children populated,
// each level sorted by (order, name).
func (m *Manager) Tree(ctx context.Context) ([]Node, error) {
	roots, err := m.store.Roots(ctx)
	if err != nil {
		return nil, err
	}
	sortSiblings(roots)

	nodes := make([]Node, 0, len(roots))
	for _, root := range roots {
		node := Node{Category: root}
		if node.Children, err = m.childNodes(ctx, root.Id, treeDepth); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (m *Manager) childNodes(ctx context.Context, parent bson.ObjectID, depth int) ([]Node, error) {
	if depth == 0 {
		return nil, nil
	}
	kids, err := m.store.ChildrenOf(ctx, parent)
	if err != nil {
		return nil, err
	}
	sortSiblings(kids)

	nodes := make([]Node, 0, len(kids))
	for _, kid := range kids {
		node := Node{Category: kid}
		if node.Children, err = m.childNodes(ctx, kid.Id, depth-1); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Get returns a single category by id.
func (m *Manager) Get(ctx context.Context, id bson.ObjectID) (*models.Category, error) {
	return m.store.Get(ctx, id)
}

// BySlug returns a single category by its slug.
func (m *Manager) BySlug(ctx context.Context, slug string) (*models.Category, error) {
	return m.store.BySlug(ctx, slug)
}

// Breadcrumb walks parent references up to the root and returns the
// root-first path. The walk is bounded by the total category count; crossing
// that bound means the stored tree has a cycle and fails with ErrIntegrity.
func (m *Manager) Breadcrumb(ctx context.Context, id bson.ObjectID) ([]Crumb, error) {
	current, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	bound, err := m.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	crumbs := []Crumb{}
	for steps := int64(0); ; steps++ {
		if steps > bound {
			return nil, fmt.Errorf("breadcrumb walk from %s exceeded %d categories: %w", id.Hex(), bound, ErrIntegrity)
		}
		crumbs = append(crumbs, Crumb{Name: current.Name, Slug: current.Slug, ID: current.Id})
		if current.Parent == nil {
			break
		}
		parent, err := m.store.Get(ctx, *current.Parent)
		if err != nil {
			// a dangling parent reference is corruption, not a user-level miss
			return nil, fmt.Errorf("parent %s of %s missing: %w", current.Parent.Hex(), current.Id.Hex(), ErrIntegrity)
		}
		current = parent
	}

	// walked leaf-to-root, reverse to root-first
	for i, j := 0, len(crumbs)-1; i < j; i, j = i+1, j-1 {
		crumbs[i], crumbs[j] = crumbs[j], crumbs[i]
	}
	return crumbs, nil
}

// Create validates the referenced parent, inserts the category and registers
// it in the parent's children set, atomically.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.Category, error) {
	if in.Parent != nil {
		if _, err := m.store.Get(ctx, *in.Parent); err != nil {
			return nil, fmt.Errorf("parent: %w", err)
		}
	}

	now := time.Now().UTC()
	cat := &models.Category{
		Name:        in.Name,
		Slug:        utils.GenerateSlug(in.Name),
		Description: in.Description,
		Parent:      in.Parent,
		Children:    []bson.ObjectID{},
		Image:       in.Image,
		Icon:        in.Icon,
		Order:       in.Order,
		IsActive:    in.IsActive,
		Featured:    in.Featured,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := m.store.InTx(ctx, func(ctx context.Context) error {
		id, err := m.store.Insert(ctx, cat)
		if err != nil {
			return err
		}
		cat.Id = id
		if in.Parent != nil {
			return m.store.AddChild(ctx, *in.Parent, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// Update applies a scalar patch. A name change regenerates the slug. Parent
// changes are not accepted here; use Reparent.
func (m *Manager) Update(ctx context.Context, id bson.ObjectID, patch Patch) (*models.Category, error) {
	if _, err := m.store.Get(ctx, id); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		slug := utils.GenerateSlug(*patch.Name)
		patch.Slug = &slug
	}
	if err := m.store.Apply(ctx, id, patch); err != nil {
		return nil, err
	}
	return m.store.Get(ctx, id)
}

// checkMove validates a requested parent change and reports whether the
// parent pointer actually needs to move.
func (m *Manager) checkMove(ctx context.Context, cat *models.Category, newParent *bson.ObjectID) (bool, error) {
	if newParent != nil {
		if *newParent == cat.Id {
			return false, ErrSelfParent
		}
		if _, err := m.store.Get(ctx, *newParent); err != nil {
			return false, fmt.Errorf("parent: %w", err)
		}
		// the inverse of the breadcrumb walk: climb from the candidate parent
		// and refuse the move if we pass through the category being moved
		ancestor, err := m.isAncestor(ctx, cat.Id, *newParent)
		if err != nil {
			return false, err
		}
		if ancestor {
			return false, ErrCycle
		}
	}
	return !equalParent(cat.Parent, newParent), nil
}

// moveParent swaps the children-set membership and the parent pointer. The
// caller supplies the transaction.
func (m *Manager) moveParent(ctx context.Context, cat *models.Category, newParent *bson.ObjectID) error {
	if cat.Parent != nil {
		if err := m.store.RemoveChild(ctx, *cat.Parent, cat.Id); err != nil {
			return err
		}
	}
	if newParent != nil {
		if err := m.store.AddChild(ctx, *newParent, cat.Id); err != nil {
			return err
		}
	}
	return m.store.SetParent(ctx, cat.Id, newParent)
}

// Reparent moves a category under newParent (nil detaches it to the root).
// It refuses self-parenting and any move that would make the category its own
// ancestor, then swaps the children-set membership and the parent pointer in
// one transaction.
func (m *Manager) Reparent(ctx context.Context, id bson.ObjectID, newParent *bson.ObjectID) error {
	cat, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	move, err := m.checkMove(ctx, cat, newParent)
	if err != nil || !move {
		return err
	}
	return m.store.InTx(ctx, func(ctx context.Context) error {
		return m.moveParent(ctx, cat, newParent)
	})
}

// UpdateAndReparent applies the scalar patch and the parent move in one
// transaction, so a failed patch never leaves a completed move behind.
func (m *Manager) UpdateAndReparent(ctx context.Context, id bson.ObjectID, patch Patch, newParent *bson.ObjectID) (*models.Category, error) {
	cat, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	move, err := m.checkMove(ctx, cat, newParent)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		slug := utils.GenerateSlug(*patch.Name)
		patch.Slug = &slug
	}

	err = m.store.InTx(ctx, func(ctx context.Context) error {
		if move {
			if err := m.moveParent(ctx, cat, newParent); err != nil {
				return err
			}
		}
		return m.store.Apply(ctx, id, patch)
	})
	if err != nil {
		return nil, err
	}
	return m.store.Get(ctx, id)
}

// Delete cascades: the category, every descendant, and the parent's children
// entry go away; products referencing any removed category keep existing with
// a cleared category field.
type DeleteResult struct {
	DeletedCategories int64 `json:"deletedCategories"`
	ClearedProducts   int64 `json:"clearedProducts"`
}

func (m *Manager) Delete(ctx context.Context, id bson.ObjectID) (*DeleteResult, error) {
	cat, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ids, err := m.ChildrenIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &DeleteResult{}
	err = m.store.InTx(ctx, func(ctx context.Context) error {
		if cat.Parent != nil {
			if err := m.store.RemoveChild(ctx, *cat.Parent, id); err != nil {
				return err
			}
		}
		cleared, err := m.store.ClearProductRefs(ctx, ids)
		if err != nil {
			return err
		}
		deleted, err := m.store.Remove(ctx, ids)
		if err != nil {
			return err
		}
		res.ClearedProducts = cleared
		res.DeletedCategories = deleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ChildrenIDs returns the closure of id and all its descendants, breadth
// first. The seen set keeps the walk terminating even over corrupted data.
func (m *Manager) ChildrenIDs(ctx context.Context, id bson.ObjectID) ([]bson.ObjectID, error) {
	if _, err := m.store.Get(ctx, id); err != nil {
		return nil, err
	}

	seen := map[bson.ObjectID]bool{id: true}
	out := []bson.ObjectID{}
	queue := []bson.ObjectID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)

		kids, err := m.store.ChildrenOf(ctx, cur)
		if err != nil {
			return nil, err
		}
		for _, kid := range kids {
			if !seen[kid.Id] {
				seen[kid.Id] = true
				queue = append(queue, kid.Id)
			}
		}
	}
	return out, nil
}

// isAncestor reports whether candidate appears on the parent chain above
// start. Bounded like Breadcrumb.
func (m *Manager) isAncestor(ctx context.Context, candidate, start bson.ObjectID) (bool, error) {
	bound, err := m.store.Count(ctx)
	if err != nil {
		return false, err
	}

	current, err := m.store.Get(ctx, start)
	if err != nil {
		return false, err
	}
	for steps := int64(0); current.Parent != nil; steps++ {
		if steps > bound {
			return false, fmt.Errorf("ancestor walk from %s exceeded %d categories: %w", start.Hex(), bound, ErrIntegrity)
		}
		if *current.Parent == candidate {
			return true, nil
		}
		if current, err = m.store.Get(ctx, *current.Parent); err != nil {
			return false, fmt.Errorf("parent chain of %s broken: %w", start.Hex(), ErrIntegrity)
		}
	}
	return false, nil
}

func sortSiblings(cats []models.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		return cats[i].Name < cats[j].Name
	})
}

func equalParent(a, b *bson.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
