package scopes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog([]Service{
		{Name: "calendar", Scopes: []string{"scope:calendar"}},
		{Name: "mail", Scopes: []string{"scope:mail"}},
		{Name: "documents", Scopes: []string{"scope:documents"}, Requires: []string{"storage"}},
		{Name: "storage", Scopes: []string{"scope:storage"}},
	})
	require.NoError(t, err)
	return c
}

func TestResolve(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		name      string
		selection Selection
		want      []string
	}{
		{
			name:      "empty selection",
			selection: Selection{},
			want:      nil,
		},
		{
			name:      "single service without dependencies",
			selection: Selection{"calendar": true},
			want:      []string{"scope:calendar"},
		},
		{
			name:      "disabled entries are ignored",
			selection: Selection{"calendar": true, "mail": false},
			want:      []string{"scope:calendar"},
		},
		{
			name:      "dependency is pulled in implicitly",
			selection: Selection{"calendar": true, "documents": true},
			want:      []string{"scope:calendar", "scope:documents", "scope:storage"},
		},
		{
			name:      "explicit dependency yields the same set",
			selection: Selection{"calendar": true, "documents": true, "storage": true},
			want:      []string{"scope:calendar", "scope:documents", "scope:storage"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Resolve(tt.selection)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got.Sorted())
		})
	}
}

func TestResolveUnknownService(t *testing.T) {
	c := testCatalog(t)

	_, err := c.Resolve(Selection{"spreadsheets": true})
	require.Error(t, err)

	var unknown *UnknownServiceError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "spreadsheets", unknown.Service)

	// Unknown names are rejected even when disabled: they indicate a typo
	// in the configuration.
	_, err = c.Resolve(Selection{"spreadsheets": false})
	require.Error(t, err)
}

func TestResolveIdempotent(t *testing.T) {
	c := testCatalog(t)
	sel := Selection{"documents": true}

	closed, err := c.ResolveSelection(sel)
	require.NoError(t, err)
	assert.True(t, closed["storage"], "closure must enable the dependency")

	reclosed, err := c.ResolveSelection(closed)
	require.NoError(t, err)
	assert.True(t, closed.Equal(reclosed))

	first, err := c.Resolve(sel)
	require.NoError(t, err)
	second, err := c.Resolve(closed)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestResolveMonotone(t *testing.T) {
	c := testCatalog(t)

	small, err := c.Resolve(Selection{"documents": true})
	require.NoError(t, err)
	large, err := c.Resolve(Selection{"documents": true, "mail": true})
	require.NoError(t, err)

	assert.True(t, small.Subset(large))
	assert.False(t, large.Subset(small))
}

func TestCatalogRejectsCycle(t *testing.T) {
	_, err := NewCatalog([]Service{
		{Name: "a", Scopes: []string{"scope:a"}, Requires: []string{"b"}},
		{Name: "b", Scopes: []string{"scope:b"}, Requires: []string{"a"}},
	})
	require.Error(t, err)

	var cycle *CycleError
	assert.True(t, errors.As(err, &cycle))
}

func TestCatalogRejectsSelfCycle(t *testing.T) {
	_, err := NewCatalog([]Service{
		{Name: "a", Scopes: []string{"scope:a"}, Requires: []string{"a"}},
	})
	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, "a", cycle.Service)
}

func TestCatalogRejectsUnknownDependency(t *testing.T) {
	_, err := NewCatalog([]Service{
		{Name: "a", Scopes: []string{"scope:a"}, Requires: []string{"nope"}},
	})
	require.Error(t, err)
}

func TestScopeSetEquality(t *testing.T) {
	a := NewScopeSet("x", "y")
	b := NewScopeSet("y", "x")
	c := NewScopeSet("x")

	assert.True(t, a.Equal(b), "order must not matter")
	assert.False(t, a.Equal(c))
	assert.True(t, c.Subset(a))
	assert.Equal(t, []string{"x", "y"}, a.Sorted())
}

func TestSelectionEqual(t *testing.T) {
	a := Selection{"calendar": true, "mail": false}
	b := Selection{"calendar": true}
	assert.True(t, a.Equal(b), "disabled entry equals absent entry")

	b["mail"] = true
	assert.False(t, a.Equal(b))
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	set, err := c.Resolve(Selection{"docs": true})
	require.NoError(t, err)
	assert.True(t, set.Contains("https://www.googleapis.com/auth/documents"))
	assert.True(t, set.Contains("https://www.googleapis.com/auth/drive.file"),
		"docs must pull in the drive scope")

	for _, name := range []string{"calendar", "gmail", "docs", "sheets", "slides", "drive"} {
		assert.True(t, c.Has(name), name)
	}
}
