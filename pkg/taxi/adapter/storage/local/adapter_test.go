package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageAdapter "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/adapter/storage"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
)

func TestLocalAdapter_UploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	conn, err := NewLocalAdapter(t.TempDir(), "test")
	require.NoError(t, err)

	require.NoError(t, conn.Upload(ctx, "", "nested/dir/file.csv", strings.NewReader("a,b\n1,2\n"), "text/csv"))

	rc, err := conn.Download(ctx, "", "nested/dir/file.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a,b\n1,2\n", string(data))

	require.NoError(t, conn.DeleteObject(ctx, "", "nested/dir/file.csv"))
	require.NoError(t, conn.DeleteObject(ctx, "", "nested/dir/file.csv"))
	_, err = conn.Download(ctx, "", "nested/dir/file.csv")
	assert.Error(t, err)
}

func TestLocalAdapter_RejectsEscapingPaths(t *testing.T) {
	conn, err := NewLocalAdapter(t.TempDir(), "test")
	require.NoError(t, err)
	err = conn.Upload(context.Background(), "", "../outside.txt", strings.NewReader("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside of BaseDir")
}

func TestLocalAdapter_UploadLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	conn, err := NewLocalAdapter(dir, "test")
	require.NoError(t, err)
	require.NoError(t, conn.Upload(context.Background(), "", "model.gob", strings.NewReader("v1"), ""))
	require.NoError(t, conn.Upload(context.Background(), "", "model.gob", strings.NewReader("v2"), ""))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.gob", entries[0].Name())
}

func TestResolver_ExpandsLocalDirectories(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2022-02.parquet", "2022-01.parquet", "notes.txt", "sub/2022-03.csv"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}
	single := filepath.Join(dir, "notes.txt")

	cfg := config.NewConfig()
	r := storageAdapter.NewResolver(NewLocalProvider(cfg))
	defer r.CloseAll()

	locs, err := r.Expand(context.Background(), []string{dir, single}, ".parquet", ".csv")
	require.NoError(t, err)

	var got []string
	for _, l := range locs {
		got = append(got, l.String())
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "2022-01.parquet"),
		filepath.Join(dir, "2022-02.parquet"),
		filepath.Join(dir, "sub/2022-03.csv"),
		single,
	}, got)

	missing := filepath.Join(dir, "absent.parquet")
	locs, err = r.Expand(context.Background(), []string{missing}, ".parquet")
	require.NoError(t, err)
	assert.Equal(t, missing, locs[0].Key)
}

func TestResolver_UnknownScheme(t *testing.T) {
	r := storageAdapter.NewResolver(NewLocalProvider(config.NewConfig()))
	loc, err := storageAdapter.ParseLocation("s3://bucket/key.parquet")
	require.NoError(t, err)
	_, err = r.Open(context.Background(), loc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no storage provider registered for scheme 's3'")
}

func TestResolver_RenameReplacesDestination(t *testing.T) {
	dir := t.TempDir()
	r := storageAdapter.NewResolver(NewLocalProvider(config.NewConfig()))
	ctx := context.Background()

	final, err := storageAdapter.ParseLocation(filepath.Join(dir, "metrics.json"))
	require.NoError(t, err)
	tmp := final
	tmp.Key += ".tmp-run"

	require.NoError(t, r.Put(ctx, final, strings.NewReader("old"), "application/json"))
	require.NoError(t, r.Put(ctx, tmp, strings.NewReader("new"), "application/json"))
	require.NoError(t, r.Rename(ctx, tmp, final))

	data, err := os.ReadFile(final.Key)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	_, err = os.Stat(tmp.Key)
	assert.True(t, os.IsNotExist(err))

	remote, err := storageAdapter.ParseLocation("s3://bucket/metrics.json")
	require.NoError(t, err)
	assert.Error(t, r.Rename(ctx, tmp, remote))
}
