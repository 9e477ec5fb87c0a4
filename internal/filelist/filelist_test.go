package filelist

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/speculative-artefact/compactImg/internal/imagefile"
)

func record(id, ref string) *imagefile.ImageRecord {
	return imagefile.NewRecord(id, id+".jpg", 100, "image/jpeg", ref)
}

func TestMergeKeepsInsertionOrder(t *testing.T) {
	list := New()

	added := list.Merge([]*imagefile.ImageRecord{
		record("a", "mem://a"),
		record("b", "mem://b"),
		record("c", "mem://c"),
	})
	require.Equal(t, 3, added)

	records := list.Records()
	require.Len(t, records, 3)
	require.Equal(t, "a", records[0].ID)
	require.Equal(t, "b", records[1].ID)
	require.Equal(t, "c", records[2].ID)
}

func TestMergeDeduplicatesByStorageReference(t *testing.T) {
	list := New()
	list.Merge([]*imagefile.ImageRecord{record("a", "mem://shared")})

	// a different id pointing at an existing reference is dropped
	added := list.Merge([]*imagefile.ImageRecord{record("b", "mem://shared")})
	require.Equal(t, 0, added)
	require.Equal(t, 1, list.Len())

	_, ok := list.Get("b")
	require.False(t, ok)
}

func TestBeginProcessingAndAnyProcessing(t *testing.T) {
	list := New()
	list.Merge([]*imagefile.ImageRecord{record("a", "mem://a"), record("b", "mem://b")})

	require.False(t, list.AnyProcessing())
	require.True(t, list.BeginProcessing("a"))
	require.True(t, list.AnyProcessing())

	require.False(t, list.BeginProcessing("missing"))

	// completing "a" clears the advisory flag since "b" never started
	done, _ := list.Get("a")
	done.Status = imagefile.StatusCompleted
	list.Apply(&done)
	require.False(t, list.AnyProcessing())
}

func TestApplyOverwritesMatchingRecord(t *testing.T) {
	list := New()
	list.Merge([]*imagefile.ImageRecord{record("a", "mem://a")})

	updated := *record("a", "mem://a")
	updated.Status = imagefile.StatusCompleted
	updated.CompressedSize = 42
	updated.DownloadURL = "mem://a.jpeg"
	list.Apply(&updated)

	got, ok := list.Get("a")
	require.True(t, ok)
	require.Equal(t, imagefile.StatusCompleted, got.Status)
	require.Equal(t, int64(42), got.CompressedSize)
	require.Equal(t, "mem://a.jpeg", got.DownloadURL)

	// unknown ids are ignored
	stray := *record("zzz", "mem://zzz")
	list.Apply(&stray)
	require.Equal(t, 1, list.Len())
}

func TestConcurrentDoubleSubmit(t *testing.T) {
	list := New()
	list.Merge([]*imagefile.ImageRecord{record("a", "mem://a")})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			list.BeginProcessing("a")
			updated := *record("a", "mem://a")
			updated.Status = imagefile.StatusCompleted
			updated.DownloadURL = fmt.Sprintf("mem://a-%d.jpeg", n)
			list.Apply(&updated)
		}(i)
	}
	wg.Wait()

	// last writer wins, the list itself stays consistent
	got, ok := list.Get("a")
	require.True(t, ok)
	require.Equal(t, imagefile.StatusCompleted, got.Status)
	require.NotEmpty(t, got.DownloadURL)
	require.Equal(t, 1, list.Len())
	require.False(t, list.AnyProcessing())
}
