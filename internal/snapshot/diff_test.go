package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	refListing = "100644 aaa111 0\tx.txt\n" +
		"100644 bbb222 0\ta/b/c.txt\n" +
		"100644 ccc333 0\ty/z.txt\n"
	toolListing = "100644 aaa111 0\tx.txt\n" +
		"100644 ddd444 0\ta/b/c.txt\n" +
		"100644 ccc333 0\ty/z.txt\n" +
		"100644 eee555 0\ta/b/d.txt\n"
)

func TestRenderListingDiffGolden(t *testing.T) {
	diff := RenderListingDiff(refListing, toolListing)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "listing_diff", []byte(diff))
}

func TestRenderListingDiffIdenticalInputs(t *testing.T) {
	diff := RenderListingDiff(refListing, refListing)

	assert.Equal(t, " 100644 aaa111 0\tx.txt\n"+
		" 100644 bbb222 0\ta/b/c.txt\n"+
		" 100644 ccc333 0\ty/z.txt\n", diff)
	assert.True(t, ListingsMatch(diff))
}

func TestRenderListingDiffEmptyInputs(t *testing.T) {
	assert.Empty(t, RenderListingDiff("", ""))
	assert.True(t, ListingsMatch(""))
}

func TestListingsMatchDetectsChanges(t *testing.T) {
	diff := RenderListingDiff(refListing, toolListing)
	assert.False(t, ListingsMatch(diff))
}

func TestDiffListingFiles(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "ref.txt")
	right := filepath.Join(dir, "tool.txt")
	require.NoError(t, os.WriteFile(left, []byte(refListing), 0o644))
	require.NoError(t, os.WriteFile(right, []byte(toolListing), 0o644))

	diff, err := diffListingFiles(left, right)
	require.NoError(t, err)
	assert.Contains(t, diff, "-100644 bbb222 0\ta/b/c.txt")
	assert.Contains(t, diff, "+100644 ddd444 0\ta/b/c.txt")

	_, err = diffListingFiles(filepath.Join(dir, "missing.txt"), right)
	assert.Error(t, err)
}
