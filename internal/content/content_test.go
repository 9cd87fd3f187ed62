package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := Default("https://drive.example/folder")
	require.NoError(t, err)

	traffic, err := c.Section("traffic")
	require.NoError(t, err)
	require.Len(t, traffic, 5)
	require.Equal(t, "名古屋機場 → 名古屋車站（μ-SKY）", traffic[0].Title)
	require.Empty(t, traffic[0].Links)
	require.Equal(t, "https://www.tobu.co.jp/tcn/ticket/kawagoe/premium.html", traffic[2].Links[0].URL)
	require.Equal(t, "https://drive.example/folder", traffic[4].Links[0].URL)

	flights, err := c.Section("flights")
	require.NoError(t, err)
	require.Len(t, flights, 3)
	require.Equal(t, "https://drive.example/folder", flights[2].Links[0].URL)

	stays, err := c.Section("stays")
	require.NoError(t, err)
	require.Len(t, stays, 2)

	require.True(t, c.Has("stays"))
	require.False(t, c.Has("days"))
	_, err = c.Section("days")
	require.ErrorIs(t, err, ErrUnknownSection)
}

func TestLoadOverrideFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
Stays:
  - title: Hotel
    meta: near station
    links:
      - title: Folder
        url: "{{driveURL}}/hotel"
`), 0o600))

	c, err := Load(path, "https://d.example")
	require.NoError(t, err)
	stays, err := c.Section("stays")
	require.NoError(t, err)
	require.Len(t, stays, 1)
	require.Equal(t, "Hotel", stays[0].Title)
	require.Equal(t, "near station", stays[0].Meta)
	require.Equal(t, "https://d.example/hotel", stays[0].Links[0].URL)
	require.False(t, c.Has("traffic"))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err)

	_, err = Parse([]byte("traffic: [oops"), "")
	require.Error(t, err)

	var nilCatalog *Catalog
	_, err = nilCatalog.Section("traffic")
	require.ErrorIs(t, err, ErrUnknownSection)
}
