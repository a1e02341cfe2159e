package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitab-io/unitab/catalog"
)

// seed creates a system with one master source (two attributes) and one
// reference source (one attribute), returning the created entities.
func seed(t *testing.T) (*catalog.MemStore, catalog.DataSystem, []catalog.DataSource, []catalog.Attribute) {
	t.Helper()

	s := catalog.NewMemStore()
	ctx := t.Context()

	sys := catalog.DataSystem{Name: "hospital", Active: true}
	require.NoError(t, s.CreateSystem(ctx, &sys))

	master := catalog.DataSource{SystemID: sys.ID, Name: "encounters", FileName: "encounters.csv", Active: true, Master: true}
	require.NoError(t, s.CreateSource(ctx, &master))
	ref := catalog.DataSource{SystemID: sys.ID, Name: "patients", FileName: "patients.csv", Active: true}
	require.NoError(t, s.CreateSource(ctx, &ref))

	pid := catalog.Attribute{SourceID: master.ID, Name: "pid"}
	require.NoError(t, s.CreateAttribute(ctx, &pid))
	eid := catalog.Attribute{SourceID: master.ID, Name: "eid"}
	require.NoError(t, s.CreateAttribute(ctx, &eid))
	refPID := catalog.Attribute{SourceID: ref.ID, Name: "pid"}
	require.NoError(t, s.CreateAttribute(ctx, &refPID))

	return s, sys, []catalog.DataSource{master, ref}, []catalog.Attribute{pid, eid, refPID}
}

func TestMemStoreAssignsIDs(t *testing.T) {
	t.Parallel()

	s := catalog.NewMemStore()

	a := catalog.DataSystem{Name: "a", Active: true}
	require.NoError(t, s.CreateSystem(t.Context(), &a))
	b := catalog.DataSystem{Name: "b", Active: true}
	require.NoError(t, s.CreateSystem(t.Context(), &b))

	assert.Positive(t, a.ID)
	assert.Greater(t, b.ID, a.ID, "IDs ascend in creation order")

	got, err := s.Systems(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []catalog.DataSystem{a, b}, got, "listing preserves catalog order")
}

func TestMemStoreUniqueNames(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		create func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, sources []catalog.DataSource, attrs []catalog.Attribute) error
	}{
		"system": {
			create: func(t *testing.T, s *catalog.MemStore, _ catalog.DataSystem, _ []catalog.DataSource, _ []catalog.Attribute) error {
				return s.CreateSystem(t.Context(), &catalog.DataSystem{Name: "hospital"})
			},
		},
		"source across systems": {
			create: func(t *testing.T, s *catalog.MemStore, _ catalog.DataSystem, _ []catalog.DataSource, _ []catalog.Attribute) error {
				other := catalog.DataSystem{Name: "clinic", Active: true}
				require.NoError(t, s.CreateSystem(t.Context(), &other))

				return s.CreateSource(t.Context(), &catalog.DataSource{SystemID: other.ID, Name: "patients"})
			},
		},
		"cross reference": {
			create: func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, _ []catalog.DataSource, _ []catalog.Attribute) error {
				x := catalog.CrossRef{SystemID: sys.ID, Name: "link", Active: true}
				require.NoError(t, s.CreateCrossRef(t.Context(), &x))

				return s.CreateCrossRef(t.Context(), &catalog.CrossRef{SystemID: sys.ID, Name: "link"})
			},
		},
		"filter condition": {
			create: func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, sources []catalog.DataSource, attrs []catalog.Attribute) error {
				f := catalog.FilterCondition{
					Name: "adults", SystemID: sys.ID, SourceID: sources[0].ID,
					AttributeID: attrs[0].ID, Operator: catalog.OpEqual, Value: "x",
				}
				require.NoError(t, s.CreateFilter(t.Context(), &f))

				dup := f
				dup.ID = 0

				return s.CreateFilter(t.Context(), &dup)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, sys, sources, attrs := seed(t)
			err := tc.create(t, s, sys, sources, attrs)
			assert.ErrorIs(t, err, catalog.ErrDuplicate)
		})
	}
}

func TestMemStoreForeignKeys(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		create func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, sources []catalog.DataSource, attrs []catalog.Attribute) error
	}{
		"source needs system": {
			create: func(t *testing.T, s *catalog.MemStore, _ catalog.DataSystem, _ []catalog.DataSource, _ []catalog.Attribute) error {
				return s.CreateSource(t.Context(), &catalog.DataSource{SystemID: 999, Name: "orphan"})
			},
		},
		"attribute needs source": {
			create: func(t *testing.T, s *catalog.MemStore, _ catalog.DataSystem, _ []catalog.DataSource, _ []catalog.Attribute) error {
				return s.CreateAttribute(t.Context(), &catalog.Attribute{SourceID: 999, Name: "orphan"})
			},
		},
		"mapping needs cross reference": {
			create: func(t *testing.T, s *catalog.MemStore, _ catalog.DataSystem, sources []catalog.DataSource, attrs []catalog.Attribute) error {
				return s.CreateCrossRefMapping(t.Context(), &catalog.CrossRefMapping{
					CrossRefID:         999,
					SourceDataSourceID: sources[0].ID, SourceAttributeID: attrs[0].ID,
					TargetDataSourceID: sources[1].ID, TargetAttributeID: attrs[2].ID,
				})
			},
		},
		"data mapping needs canonical": {
			create: func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, sources []catalog.DataSource, attrs []catalog.Attribute) error {
				return s.CreateDataMapping(t.Context(), &catalog.DataMapping{
					SystemID: sys.ID, CanonicalID: 999,
					Primary: catalog.Binding{SourceID: sources[0].ID, AttributeID: attrs[0].ID},
				})
			},
		},
		"binding attribute must belong to its source": {
			create: func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, sources []catalog.DataSource, attrs []catalog.Attribute) error {
				c := catalog.Canonical{Name: "PatientID"}
				require.NoError(t, s.CreateCanonical(t.Context(), &c))

				// attrs[2] belongs to sources[1], not sources[0].
				return s.CreateDataMapping(t.Context(), &catalog.DataMapping{
					SystemID: sys.ID, CanonicalID: c.ID,
					Primary: catalog.Binding{SourceID: sources[0].ID, AttributeID: attrs[2].ID},
				})
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, sys, sources, attrs := seed(t)
			err := tc.create(t, s, sys, sources, attrs)
			assert.ErrorIs(t, err, catalog.ErrNotFound)
		})
	}
}

func TestMemStoreSelfJoinRejected(t *testing.T) {
	t.Parallel()

	s, sys, sources, attrs := seed(t)

	x := catalog.CrossRef{SystemID: sys.ID, Name: "self", Active: true}
	require.NoError(t, s.CreateCrossRef(t.Context(), &x))

	err := s.CreateCrossRefMapping(t.Context(), &catalog.CrossRefMapping{
		CrossRefID:         x.ID,
		SourceDataSourceID: sources[0].ID, SourceAttributeID: attrs[0].ID,
		TargetDataSourceID: sources[0].ID, TargetAttributeID: attrs[1].ID,
	})
	assert.ErrorIs(t, err, catalog.ErrInvalid)
}

func TestMemStoreOneDataMappingPerCanonical(t *testing.T) {
	t.Parallel()

	s, sys, sources, attrs := seed(t)

	c := catalog.Canonical{Name: "PatientID"}
	require.NoError(t, s.CreateCanonical(t.Context(), &c))

	dm := catalog.DataMapping{
		SystemID: sys.ID, CanonicalID: c.ID,
		Primary: catalog.Binding{SourceID: sources[0].ID, AttributeID: attrs[0].ID},
	}
	require.NoError(t, s.CreateDataMapping(t.Context(), &dm))

	dup := dm
	dup.ID = 0
	assert.ErrorIs(t, s.CreateDataMapping(t.Context(), &dup), catalog.ErrDuplicate)
}

func TestMemStoreDeleteGuards(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		del func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, sources []catalog.DataSource, attrs []catalog.Attribute) error
	}{
		"system with sources": {
			del: func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, _ []catalog.DataSource, _ []catalog.Attribute) error {
				return s.DeleteSystem(t.Context(), sys.ID)
			},
		},
		"source with attributes": {
			del: func(t *testing.T, s *catalog.MemStore, _ catalog.DataSystem, sources []catalog.DataSource, _ []catalog.Attribute) error {
				return s.DeleteSource(t.Context(), sources[0].ID)
			},
		},
		"attribute used as join key": {
			del: func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, sources []catalog.DataSource, attrs []catalog.Attribute) error {
				x := catalog.CrossRef{SystemID: sys.ID, Name: "link", Active: true}
				require.NoError(t, s.CreateCrossRef(t.Context(), &x))
				require.NoError(t, s.CreateCrossRefMapping(t.Context(), &catalog.CrossRefMapping{
					CrossRefID:         x.ID,
					SourceDataSourceID: sources[0].ID, SourceAttributeID: attrs[0].ID,
					TargetDataSourceID: sources[1].ID, TargetAttributeID: attrs[2].ID,
				}))

				return s.DeleteAttribute(t.Context(), attrs[0].ID)
			},
		},
		"attribute bound by data mapping": {
			del: func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, sources []catalog.DataSource, attrs []catalog.Attribute) error {
				c := catalog.Canonical{Name: "PatientID"}
				require.NoError(t, s.CreateCanonical(t.Context(), &c))
				require.NoError(t, s.CreateDataMapping(t.Context(), &catalog.DataMapping{
					SystemID: sys.ID, CanonicalID: c.ID,
					Primary: catalog.Binding{SourceID: sources[0].ID, AttributeID: attrs[0].ID},
				}))

				return s.DeleteAttribute(t.Context(), attrs[0].ID)
			},
		},
		"cross reference with mappings": {
			del: func(t *testing.T, s *catalog.MemStore, sys catalog.DataSystem, sources []catalog.DataSource, attrs []catalog.Attribute) error {
				x := catalog.CrossRef{SystemID: sys.ID, Name: "link", Active: true}
				require.NoError(t, s.CreateCrossRef(t.Context(), &x))
				require.NoError(t, s.CreateCrossRefMapping(t.Context(), &catalog.CrossRefMapping{
					CrossRefID:         x.ID,
					SourceDataSourceID: sources[0].ID, SourceAttributeID: attrs[0].ID,
					TargetDataSourceID: sources[1].ID, TargetAttributeID: attrs[2].ID,
				}))

				return s.DeleteCrossRef(t.Context(), x.ID)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s, sys, sources, attrs := seed(t)
			err := tc.del(t, s, sys, sources, attrs)
			assert.ErrorIs(t, err, catalog.ErrInUse)
		})
	}
}

func TestMemStoreDeleteThenRecreate(t *testing.T) {
	t.Parallel()

	s, _, sources, attrs := seed(t)
	ctx := t.Context()

	require.NoError(t, s.DeleteAttribute(ctx, attrs[1].ID))
	assert.ErrorIs(t, s.DeleteAttribute(ctx, attrs[1].ID), catalog.ErrNotFound)

	got, err := s.AttributesBySource(ctx, sources[0].ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "pid", got[0].Name)

	// The freed name is usable again.
	eid := catalog.Attribute{SourceID: sources[0].ID, Name: "eid"}
	require.NoError(t, s.CreateAttribute(ctx, &eid))
	assert.Greater(t, eid.ID, attrs[2].ID, "IDs are never reused")
}

func TestMemStoreSnapshot(t *testing.T) {
	t.Parallel()

	s, sys, sources, attrs := seed(t)
	ctx := t.Context()

	x := catalog.CrossRef{SystemID: sys.ID, Name: "encounter-patient", Active: true}
	require.NoError(t, s.CreateCrossRef(ctx, &x))
	require.NoError(t, s.CreateCrossRefMapping(ctx, &catalog.CrossRefMapping{
		CrossRefID:         x.ID,
		SourceDataSourceID: sources[0].ID, SourceAttributeID: attrs[0].ID,
		TargetDataSourceID: sources[1].ID, TargetAttributeID: attrs[2].ID,
	}))

	first := catalog.Canonical{Name: "EncounterID"}
	require.NoError(t, s.CreateCanonical(ctx, &first))
	second := catalog.Canonical{Name: "PatientID"}
	require.NoError(t, s.CreateCanonical(ctx, &second))
	require.NoError(t, s.CreateDataMapping(ctx, &catalog.DataMapping{
		SystemID: sys.ID, CanonicalID: first.ID,
		Primary: catalog.Binding{SourceID: sources[0].ID, AttributeID: attrs[1].ID},
	}))

	snap, err := s.Snapshot(ctx, sys.ID)
	require.NoError(t, err)

	assert.Equal(t, sys, snap.System)
	assert.Equal(t, sources, snap.Sources)
	assert.Equal(t, []string{"EncounterID", "PatientID"}, snap.ColumnNames())

	masters := snap.MasterSources()
	require.Len(t, masters, 1)
	assert.Equal(t, "encounters", masters[0].Name)

	refs := snap.ReferenceSources()
	require.Len(t, refs, 1)
	assert.Equal(t, "patients", refs[0].Name)

	require.Len(t, snap.CrossRefs, 1)
	require.Len(t, snap.CrossRefs[0].Mappings, 1)
	assert.Equal(t, attrs[0].ID, snap.CrossRefs[0].Mappings[0].SourceAttributeID)

	require.Contains(t, snap.DataMappings, first.ID)
	assert.NotContains(t, snap.DataMappings, second.ID)

	got, ok := snap.Attribute(sources[0].ID, attrs[1].ID)
	require.True(t, ok)
	assert.Equal(t, "eid", got.Name)
	_, ok = snap.Attribute(sources[0].ID, attrs[2].ID)
	assert.False(t, ok, "attribute of another source is not visible")

	// Later writes must not leak into the snapshot.
	require.NoError(t, s.CreateCanonical(ctx, &catalog.Canonical{Name: "Late"}))
	assert.Equal(t, []string{"EncounterID", "PatientID"}, snap.ColumnNames())
}

func TestMemStoreSnapshotUnknownSystem(t *testing.T) {
	t.Parallel()

	s := catalog.NewMemStore()

	_, err := s.Snapshot(t.Context(), 42)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestMemStoreInactiveSourcesExcludedFromRoles(t *testing.T) {
	t.Parallel()

	s := catalog.NewMemStore()
	ctx := t.Context()

	sys := catalog.DataSystem{Name: "hospital", Active: true}
	require.NoError(t, s.CreateSystem(ctx, &sys))

	dormant := catalog.DataSource{SystemID: sys.ID, Name: "legacy", Active: false, Master: true}
	require.NoError(t, s.CreateSource(ctx, &dormant))

	snap, err := s.Snapshot(ctx, sys.ID)
	require.NoError(t, err)

	assert.Len(t, snap.Sources, 1, "inactive sources stay visible in the snapshot")
	assert.Empty(t, snap.MasterSources())
	assert.Empty(t, snap.ReferenceSources())
}

func TestParseDataType(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"", "string", "number", "date"} {
		got, err := catalog.ParseDataType(valid)
		require.NoError(t, err)
		assert.Equal(t, catalog.DataType(valid), got)
	}

	_, err := catalog.ParseDataType("datetime")
	assert.ErrorIs(t, err, catalog.ErrInvalid)
}

func TestParseOperator(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"=", ">", "<"} {
		got, err := catalog.ParseOperator(valid)
		require.NoError(t, err)
		assert.Equal(t, catalog.Operator(valid), got)
	}

	_, err := catalog.ParseOperator("!=")
	assert.ErrorIs(t, err, catalog.ErrInvalid)
}
