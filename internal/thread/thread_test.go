package thread

import (
	"testing"
	"time"

	"codex/api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func comment(id string, parentID string, createdAt time.Time) store.Comment {
	c := store.Comment{ID: id, PageID: "page-1", Body: "body " + id, CreatedAt: createdAt}
	if parentID != "" {
		c.ParentID = &parentID
	}
	return c
}

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Comment.ID)
	}
	return out
}

func TestBuildAssignsDepths(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	comments := []store.Comment{
		comment("root", "", base),
		comment("child", "root", base.Add(time.Minute)),
		comment("grandchild", "child", base.Add(2*time.Minute)),
	}

	forest, warnings := Build(comments, []string{"root"})
	require.Empty(t, warnings)
	require.Len(t, forest, 1)

	root := forest[0]
	assert.Equal(t, 0, root.Depth)
	require.Len(t, root.Children, 1)
	assert.Equal(t, 1, root.Children[0].Depth)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, 2, root.Children[0].Children[0].Depth)
}

func TestBuildOrdersSiblingsByCreationThenID(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	comments := []store.Comment{
		comment("root", "", base),
		comment("late", "root", base.Add(2*time.Minute)),
		comment("early", "root", base.Add(time.Minute)),
		comment("tie-b", "root", base.Add(3*time.Minute)),
		comment("tie-a", "root", base.Add(3*time.Minute)),
	}

	forest, warnings := Build(comments, []string{"root"})
	require.Empty(t, warnings)
	require.Len(t, forest, 1)
	assert.Equal(t, []string{"early", "late", "tie-a", "tie-b"}, ids(forest[0].Children))
}

func TestBuildWindowDoesNotLeakOtherThreads(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	comments := []store.Comment{
		comment("root-a", "", base),
		comment("reply-a", "root-a", base.Add(time.Minute)),
		comment("root-b", "", base.Add(2*time.Minute)),
		comment("reply-b", "root-b", base.Add(3*time.Minute)),
	}

	forest, warnings := Build(comments, []string{"root-a"})
	require.Empty(t, warnings)
	require.Equal(t, []string{"root-a"}, ids(forest))
	assert.Equal(t, []string{"reply-a"}, ids(forest[0].Children))
}

func TestBuildForcesRequestedIDsToRoots(t *testing.T) {
	// Both ids are in the window even though one claims the other as
	// parent. Each must come back as an independent root and the stored
	// link must not duplicate one under the other.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	comments := []store.Comment{
		comment("a", "b", base),
		comment("b", "", base.Add(time.Minute)),
	}

	forest, warnings := Build(comments, []string{"a", "b"})
	require.Empty(t, warnings)
	require.Equal(t, []string{"a", "b"}, ids(forest))
	assert.Empty(t, forest[0].Children)
	assert.Empty(t, forest[1].Children)
	assert.Equal(t, 0, forest[0].Depth)
	assert.Equal(t, 0, forest[1].Depth)
}

func TestBuildSelfReferencingRootTerminates(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	comments := []store.Comment{
		comment("loop", "loop", base),
	}

	forest, warnings := Build(comments, []string{"loop"})
	require.Len(t, forest, 1)
	assert.Empty(t, warnings)
	assert.Empty(t, forest[0].Children)
	assert.Equal(t, 0, forest[0].Depth)
}

func TestBuildMutualReferenceUnderRequestedRoot(t *testing.T) {
	// "a" is requested, "b" points at "a" so it joins the window; its link
	// back up to the requested root is a legitimate parent edge.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	comments := []store.Comment{
		comment("a", "b", base),
		comment("b", "a", base.Add(time.Minute)),
	}

	forest, warnings := Build(comments, []string{"a"})
	require.Empty(t, warnings)
	require.Equal(t, []string{"a"}, ids(forest))
	require.Equal(t, []string{"b"}, ids(forest[0].Children))
	assert.Equal(t, 1, forest[0].Children[0].Depth)
	assert.Empty(t, forest[0].Children[0].Children)
}

func TestBuildIgnoresUnknownRequestedIDs(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	comments := []store.Comment{
		comment("root", "", base),
	}

	forest, warnings := Build(comments, []string{"missing", "root", "root"})
	require.Empty(t, warnings)
	assert.Equal(t, []string{"root"}, ids(forest))
}

func TestBuildEmptyInputs(t *testing.T) {
	forest, warnings := Build(nil, nil)
	assert.Empty(t, forest)
	assert.Empty(t, warnings)
}
