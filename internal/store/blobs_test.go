package store

import (
	"bytes"
	"context"
	"testing"
	"time"

	"catalog/internal/models"
)

func finalizeTestFile(t *testing.T, st *Store, id, name string, chunks ...[]byte) models.BlobFile {
	t.Helper()
	ctx := context.Background()

	var length int64
	for n, chunk := range chunks {
		if err := st.PutChunk(ctx, id, n, chunk); err != nil {
			t.Fatalf("put chunk %d: %v", n, err)
		}
		length += int64(len(chunk))
	}
	file := models.BlobFile{
		ID:           id,
		Filename:     name,
		ContentType:  "text/plain",
		OriginalName: "notes.txt",
		Length:       length,
		ChunkSize:    4,
		ChunkCount:   len(chunks),
		Metadata:     map[string]any{"originalName": "notes.txt"},
		UploadedAt:   time.Now().UTC(),
	}
	if err := st.FinalizeFile(ctx, file); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return file
}

func TestChunkRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	finalizeTestFile(t, st, "f1", "1700000000000_notes.txt", []byte("abcd"), []byte("ef"))

	file, err := st.GetFileByName(ctx, "1700000000000_notes.txt")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if file == nil {
		t.Fatal("expected file row")
	}
	if file.Length != 6 || file.ChunkCount != 2 || file.ContentType != "text/plain" {
		t.Fatalf("unexpected file: %+v", file)
	}
	if file.Metadata["originalName"] != "notes.txt" {
		t.Fatalf("expected metadata preserved, got %+v", file.Metadata)
	}

	first, err := st.GetChunk(ctx, "f1", 0)
	if err != nil {
		t.Fatalf("get chunk: %v", err)
	}
	if !bytes.Equal(first, []byte("abcd")) {
		t.Fatalf("unexpected chunk 0: %q", first)
	}
	missing, err := st.GetChunk(ctx, "f1", 2)
	if err != nil {
		t.Fatalf("get missing chunk: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing chunk, got %q", missing)
	}
}

func TestGetFileByNameLatestWins(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	finalizeTestFile(t, st, "old", "dup.txt", []byte("old"))
	finalizeTestFile(t, st, "new", "dup.txt", []byte("new"))

	file, err := st.GetFileByName(ctx, "dup.txt")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if file == nil || file.ID != "new" {
		t.Fatalf("expected latest upload, got %+v", file)
	}

	absent, err := st.GetFileByName(ctx, "absent.txt")
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil for absent name, got %+v", absent)
	}
}

func TestDeleteFileRemovesChunks(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	finalizeTestFile(t, st, "f1", "a.txt", []byte("abcd"), []byte("ef"))

	deleted, err := st.DeleteFile(ctx, "f1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected file row deleted")
	}
	chunk, err := st.GetChunk(ctx, "f1", 0)
	if err != nil {
		t.Fatalf("get chunk: %v", err)
	}
	if chunk != nil {
		t.Fatal("expected chunks removed with file")
	}

	deleted, err = st.DeleteFile(ctx, "f1")
	if err != nil {
		t.Fatalf("delete absent: %v", err)
	}
	if deleted {
		t.Fatal("expected false for absent file")
	}
}

func TestListFilesOldestFirst(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	finalizeTestFile(t, st, "a", "a.txt", []byte("a"))
	finalizeTestFile(t, st, "b", "b.txt", []byte("b"))

	files, err := st.ListFiles(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 || files[0].ID != "a" || files[1].ID != "b" {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestSweepOrphanChunks(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	finalizeTestFile(t, st, "kept", "kept.txt", []byte("abcd"))
	for n, chunk := range [][]byte{[]byte("abcd"), []byte("xy")} {
		if err := st.PutChunk(ctx, "orphan", n, chunk); err != nil {
			t.Fatalf("put orphan chunk: %v", err)
		}
	}

	// Chunks written just now are inside the grace window.
	sweep, err := st.SweepOrphanChunks(ctx, time.Now().Add(-time.Hour), false)
	if err != nil {
		t.Fatalf("sweep within grace: %v", err)
	}
	if sweep.Chunks != 0 {
		t.Fatalf("expected recent orphans kept, got %+v", sweep)
	}

	future := time.Now().Add(time.Minute)
	dry, err := st.SweepOrphanChunks(ctx, future, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.Files != 1 || dry.Chunks != 2 || dry.Bytes != 6 {
		t.Fatalf("unexpected dry run result: %+v", dry)
	}
	if chunk, _ := st.GetChunk(ctx, "orphan", 0); chunk == nil {
		t.Fatal("dry run must not delete")
	}

	swept, err := st.SweepOrphanChunks(ctx, future, false)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != dry {
		t.Fatalf("expected %+v, got %+v", dry, swept)
	}
	if chunk, _ := st.GetChunk(ctx, "orphan", 0); chunk != nil {
		t.Fatal("expected orphan chunks deleted")
	}
	if chunk, _ := st.GetChunk(ctx, "kept", 0); chunk == nil {
		t.Fatal("expected finalized chunks kept")
	}
}
