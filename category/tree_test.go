package category

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vcardoso/lojabackend/models"
)

// memStore is an in-memory Store double. InTx just runs the callback; the
// manager's ordering of writes is what is under test here, not Mongo.
type memStore struct {
	cats     map[bson.ObjectID]*models.Category
	products map[bson.ObjectID]*bson.ObjectID // product id -> category ref
}

func newMemStore() *memStore {
	return &memStore{
		cats:     map[bson.ObjectID]*models.Category{},
		products: map[bson.ObjectID]*bson.ObjectID{},
	}
}

// add inserts a category keeping the children set symmetric, the way the
// manager would have built it.
func (s *memStore) add(name string, order int, parent *bson.ObjectID) bson.ObjectID {
	id := bson.NewObjectID()
	s.cats[id] = &models.Category{
		Id:       id,
		Name:     name,
		Slug:     name,
		Order:    order,
		Parent:   parent,
		Children: []bson.ObjectID{},
		IsActive: true,
	}
	if parent != nil {
		p := s.cats[*parent]
		p.Children = append(p.Children, id)
	}
	return id
}

func (s *memStore) addProduct(cat bson.ObjectID) bson.ObjectID {
	id := bson.NewObjectID()
	ref := cat
	s.products[id] = &ref
	return id
}

func (s *memStore) Get(_ context.Context, id bson.ObjectID) (*models.Category, error) {
	cat, ok := s.cats[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *cat
	return &copied, nil
}

func (s *memStore) BySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, cat := range s.cats {
		if cat.Slug == slug {
			copied := *cat
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) Roots(_ context.Context) ([]models.Category, error) {
	out := []models.Category{}
	for _, cat := range s.cats {
		if cat.Parent == nil {
			out = append(out, *cat)
		}
	}
	return out, nil
}

func (s *memStore) ChildrenOf(_ context.Context, parent bson.ObjectID) ([]models.Category, error) {
	out := []models.Category{}
	for _, cat := range s.cats {
		if cat.Parent != nil && *cat.Parent == parent {
			out = append(out, *cat)
		}
	}
	return out, nil
}

func (s *memStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.cats)), nil
}

func (s *memStore) Insert(_ context.Context, cat *models.Category) (bson.ObjectID, error) {
	id := bson.NewObjectID()
	copied := *cat
	copied.Id = id
	s.cats[id] = &copied
	return id, nil
}

func (s *memStore) Apply(_ context.Context, id bson.ObjectID, patch Patch) error {
	cat, ok := s.cats[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Name != nil {
		cat.Name = *patch.Name
	}
	if patch.Slug != nil {
		cat.Slug = *patch.Slug
	}
	if patch.Description != nil {
		cat.Description = *patch.Description
	}
	if patch.Order != nil {
		cat.Order = *patch.Order
	}
	if patch.IsActive != nil {
		cat.IsActive = *patch.IsActive
	}
	if patch.Featured != nil {
		cat.Featured = *patch.Featured
	}
	return nil
}

func (s *memStore) SetParent(_ context.Context, id bson.ObjectID, parent *bson.ObjectID) error {
	cat, ok := s.cats[id]
	if !ok {
		return ErrNotFound
	}
	cat.Parent = parent
	return nil
}

func (s *memStore) AddChild(_ context.Context, parent, child bson.ObjectID) error {
	cat, ok := s.cats[parent]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range cat.Children {
		if existing == child {
			return nil
		}
	}
	cat.Children = append(cat.Children, child)
	return nil
}

func (s *memStore) RemoveChild(_ context.Context, parent, child bson.ObjectID) error {
	cat, ok := s.cats[parent]
	if !ok {
		return nil
	}
	kept := cat.Children[:0]
	for _, existing := range cat.Children {
		if existing != child {
			kept = append(kept, existing)
		}
	}
	cat.Children = kept
	return nil
}

func (s *memStore) Remove(_ context.Context, ids []bson.ObjectID) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := s.cats[id]; ok {
			delete(s.cats, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) ClearProductRefs(_ context.Context, ids []bson.ObjectID) (int64, error) {
	member := map[bson.ObjectID]bool{}
	for _, id := range ids {
		member[id] = true
	}
	var n int64
	for pid, ref := range s.products {
		if ref != nil && member[*ref] {
			s.products[pid] = nil
			n++
		}
	}
	return n, nil
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// electronics > (phones > smartphones > foldables), laptops; clothing as a
// second root. Returns the store and the ids by name.
func fixtureTree(t *testing.T) (*memStore, map[string]bson.ObjectID) {
	t.Helper()
	s := newMemStore()
	ids := map[string]bson.ObjectID{}
	ids["electronics"] = s.add("electronics", 1, nil)
	ids["clothing"] = s.add("clothing", 2, nil)
	electronics := ids["electronics"]
	ids["phones"] = s.add("phones", 2, &electronics)
	ids["laptops"] = s.add("laptops", 1, &electronics)
	phones := ids["phones"]
	ids["smartphones"] = s.add("smartphones", 1, &phones)
	smartphones := ids["smartphones"]
	ids["foldables"] = s.add("foldables", 1, &smartphones)
	return s, ids
}

func TestTree_RootsAndTwoLevels(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	nodes, err := m.Tree(context.Background())
	require.NoError(t, err)

	require.Len(t, nodes, 2)
	assert.Equal(t, ids["electronics"], nodes[0].Id, "roots sorted by order")
	assert.Equal(t, ids["clothing"], nodes[1].Id)

	kids := nodes[0].Children
	require.Len(t, kids, 2)
	assert.Equal(t, "laptops", kids[0].Name, "children sorted by (order, name)")
	assert.Equal(t, "phones", kids[1].Name)

	// second level is populated, third is not expanded
	grand := kids[1].Children
	require.Len(t, grand, 1)
	assert.Equal(t, "smartphones", grand[0].Name)
	assert.Empty(t, grand[0].Children, "tree is bounded at two child levels")
}

func TestTree_EveryNonRootAppearsUnderOneParent(t *testing.T) {
	s, _ := fixtureTree(t)
	m := NewManager(s)

	parents := map[bson.ObjectID]int{}
	for _, cat := range s.cats {
		if cat.Parent != nil {
			for _, child := range s.cats[*cat.Parent].Children {
				if child == cat.Id {
					parents[cat.Id]++
				}
			}
		}
	}
	for id, n := range parents {
		assert.Equalf(t, 1, n, "category %s must appear in exactly one children set", id.Hex())
	}

	nodes, err := m.Tree(context.Background())
	require.NoError(t, err)
	seenRoots := map[bson.ObjectID]int{}
	for _, n := range nodes {
		seenRoots[n.Id]++
	}
	for id, n := range seenRoots {
		assert.Equalf(t, 1, n, "root %s listed once", id.Hex())
	}
}

func TestBreadcrumb(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	crumbs, err := m.Breadcrumb(context.Background(), ids["foldables"])
	require.NoError(t, err)

	require.Len(t, crumbs, 4, "length equals depth+1")
	assert.Equal(t, ids["electronics"], crumbs[0].ID, "first element is a root")
	assert.Equal(t, ids["foldables"], crumbs[len(crumbs)-1].ID, "last element is the start")
	assert.Equal(t, []string{"electronics", "phones", "smartphones", "foldables"},
		[]string{crumbs[0].Name, crumbs[1].Name, crumbs[2].Name, crumbs[3].Name})
}

func TestBreadcrumb_Root(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	crumbs, err := m.Breadcrumb(context.Background(), ids["clothing"])
	require.NoError(t, err)
	require.Len(t, crumbs, 1)
	assert.Equal(t, ids["clothing"], crumbs[0].ID)
}

func TestBreadcrumb_NotFound(t *testing.T) {
	s, _ := fixtureTree(t)
	m := NewManager(s)

	_, err := m.Breadcrumb(context.Background(), bson.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBreadcrumb_CorruptedCycleFailsClosed(t *testing.T) {
	s := newMemStore()
	a := s.add("a", 0, nil)
	b := s.add("b", 0, &a)
	// corrupt the tree behind the manager's back
	s.cats[a].Parent = &b

	m := NewManager(s)
	_, err := m.Breadcrumb(context.Background(), a)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestCreate_UnderParent(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	phones := ids["phones"]
	cat, err := m.Create(context.Background(), CreateInput{
		Name:     "Feature Phones",
		Parent:   &phones,
		IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "feature-phones", cat.Slug)
	assert.Contains(t, s.cats[phones].Children, cat.Id, "parent children set gains the new id")
}

func TestCreate_MissingParent(t *testing.T) {
	s, _ := fixtureTree(t)
	m := NewManager(s)

	missing := bson.NewObjectID()
	_, err := m.Create(context.Background(), CreateInput{Name: "orphan", Parent: &missing})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReparent_SelfIsRejected(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	phones := ids["phones"]
	err := m.Reparent(context.Background(), phones, &phones)
	assert.ErrorIs(t, err, ErrSelfParent)
}

func TestReparent_DescendantIsRejected(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	tests := []struct {
		name   string
		target string
	}{
		{"direct child", "smartphones"},
		{"deep descendant", "foldables"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := ids[tt.target]
			err := m.Reparent(context.Background(), ids["phones"], &target)
			assert.ErrorIs(t, err, ErrCycle)
		})
	}
}

func TestReparent_MovesChildrenSets(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	clothing := ids["clothing"]
	err := m.Reparent(context.Background(), ids["phones"], &clothing)
	require.NoError(t, err)

	assert.NotContains(t, s.cats[ids["electronics"]].Children, ids["phones"], "removed from old parent")
	assert.Contains(t, s.cats[clothing].Children, ids["phones"], "added to new parent")

	crumbs, err := m.Breadcrumb(context.Background(), ids["foldables"])
	require.NoError(t, err)
	names := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"clothing", "phones", "smartphones", "foldables"}, names,
		"breadcrumb passes through the new parent")
}

func TestReparent_DetachToRoot(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	err := m.Reparent(context.Background(), ids["phones"], nil)
	require.NoError(t, err)
	assert.Nil(t, s.cats[ids["phones"]].Parent)
	assert.NotContains(t, s.cats[ids["electronics"]].Children, ids["phones"])
}

func TestChildrenIDs_Closure(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	got, err := m.ChildrenIDs(context.Background(), ids["electronics"])
	require.NoError(t, err)

	want := []bson.ObjectID{
		ids["electronics"], ids["phones"], ids["laptops"], ids["smartphones"], ids["foldables"],
	}
	assert.ElementsMatch(t, want, got)

	seen := map[bson.ObjectID]bool{}
	for _, id := range got {
		assert.Falsef(t, seen[id], "duplicate id %s", id.Hex())
		seen[id] = true
	}
}

func TestDelete_Cascade(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	direct := s.addProduct(ids["phones"])
	nested := s.addProduct(ids["foldables"])
	untouched := s.addProduct(ids["clothing"])

	res, err := m.Delete(context.Background(), ids["phones"])
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.DeletedCategories, "phones, smartphones, foldables")
	assert.Equal(t, int64(2), res.ClearedProducts)

	for _, name := range []string{"phones", "smartphones", "foldables"} {
		_, ok := s.cats[ids[name]]
		assert.Falsef(t, ok, "%s must be deleted", name)
	}
	assert.NotContains(t, s.cats[ids["electronics"]].Children, ids["phones"], "parent children set updated")

	assert.Nil(t, s.products[direct], "direct product reference cleared")
	assert.Nil(t, s.products[nested], "descendant product reference cleared")
	assert.NotNil(t, s.products[untouched], "unrelated product untouched")
}

func TestDelete_NotFound(t *testing.T) {
	s, _ := fixtureTree(t)
	m := NewManager(s)

	_, err := m.Delete(context.Background(), bson.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndReparent_PatchAndMoveApplyTogether(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	clothing := ids["clothing"]
	name := "Mobile Phones"
	cat, err := m.UpdateAndReparent(context.Background(), ids["phones"], Patch{Name: &name}, &clothing)
	require.NoError(t, err)

	assert.Equal(t, "Mobile Phones", cat.Name)
	assert.Equal(t, "mobile-phones", cat.Slug)
	assert.Contains(t, s.cats[clothing].Children, ids["phones"])
	assert.NotContains(t, s.cats[ids["electronics"]].Children, ids["phones"])
}

func TestUpdateAndReparent_InvalidMoveLeavesPatchUnapplied(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	name := "renamed"
	target := ids["foldables"]
	_, err := m.UpdateAndReparent(context.Background(), ids["phones"], Patch{Name: &name}, &target)
	assert.ErrorIs(t, err, ErrCycle)

	assert.Equal(t, "phones", s.cats[ids["phones"]].Name, "scalar patch must not land when the move is refused")
	assert.Contains(t, s.cats[ids["electronics"]].Children, ids["phones"], "children sets untouched")
}

func TestUpdateAndReparent_SameParentStillPatches(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	electronics := ids["electronics"]
	order := 9
	cat, err := m.UpdateAndReparent(context.Background(), ids["phones"], Patch{Order: &order}, &electronics)
	require.NoError(t, err)
	assert.Equal(t, 9, cat.Order)
	assert.Equal(t, &electronics, cat.Parent)
}

func TestUpdate_NameRegeneratesSlug(t *testing.T) {
	s, ids := fixtureTree(t)
	m := NewManager(s)

	name := "Téléphones Mobiles"
	cat, err := m.Update(context.Background(), ids["phones"], Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "telephones-mobiles", cat.Slug)
}
