package versionstore

import (
	"os"
	"path/filepath"
	"testing"

	"tradestat-ingestor/lib/delta"
	"tradestat-ingestor/lib/htmltable"

	"github.com/stretchr/testify/require"
)

func testSnapshot(value float64) htmltable.Snapshot {
	records := []htmltable.Record{
		{Identity: "USA", SerialNo: 1, Values: map[string]*float64{"v": &value}},
	}
	return htmltable.Snapshot{
		Records:  records,
		Checksum: htmltable.ChecksumRecords(records),
		Quality: htmltable.Quality{
			TotalRecords:    1,
			RecordsWithData: 1,
			CompletenessPct: 100,
			Status:          htmltable.StatusValid,
		},
	}
}

func TestSaveAndPrevious(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key{Feature: "commodity_wise_all_countries", Direction: "export", Entity: "85171290"}

	{
		_, ok, err := store.Previous(key, "2023-24")
		if err != nil {
			t.Fatal(err)
		}
		require.False(t, ok)
	}

	first := testSnapshot(100)
	err = store.SaveVersion(key, "2023-24", first, delta.Detect(first, nil))
	if err != nil {
		t.Fatal(err)
	}

	{
		previous, ok, err := store.Previous(key, "2023-24")
		if err != nil {
			t.Fatal(err)
		}
		require.True(t, ok)
		require.Equal(t, first.Checksum, previous.Checksum)
		require.Len(t, previous.Records, 1)
	}

	// a different period of the same key is still unrecorded
	{
		_, ok, err := store.Previous(key, "2022-23")
		if err != nil {
			t.Fatal(err)
		}
		require.False(t, ok)
	}
}

func TestSaveReplacesPeriodOnly(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key{Feature: "region_wise", Direction: "import", Entity: "5"}

	older := testSnapshot(50)
	err = store.SaveVersion(key, "2022-23", older, delta.Detect(older, nil))
	if err != nil {
		t.Fatal(err)
	}

	first := testSnapshot(100)
	err = store.SaveVersion(key, "2023-24", first, delta.Detect(first, nil))
	if err != nil {
		t.Fatal(err)
	}

	second := testSnapshot(110)
	err = store.SaveVersion(key, "2023-24", second, delta.Detect(second, &first))
	if err != nil {
		t.Fatal(err)
	}

	summaries, err := store.Changelog(key)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, summaries, 2)
	require.Equal(t, "2022-23", summaries[0].Period)
	require.Equal(t, "2023-24", summaries[1].Period)
	require.Equal(t, second.Checksum, summaries[1].Checksum)
	require.Equal(t, delta.DataUpdate, summaries[1].Changes.ChangeType)
	require.Equal(t, older.Checksum, summaries[0].Checksum)
}

func TestHistoryFilename(t *testing.T) {
	dataDir := t.TempDir()
	store, err := NewStore(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	key := Key{Feature: "commodity_wise", Direction: "export", Entity: "0902"}

	snapshot := testSnapshot(1)
	err = store.SaveVersion(key, "2023-24", snapshot, delta.Detect(snapshot, nil))
	if err != nil {
		t.Fatal(err)
	}

	_, err = os.Stat(filepath.Join(dataDir, ".versions", "commodity_wise_export_0902_history.json"))
	require.NoError(t, err)
}

func TestCompare(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key{Feature: "commodity_wise", Direction: "export", Entity: "0902"}

	for period, value := range map[string]float64{
		"2021-22": 80,
		"2022-23": 90,
		"2023-24": 100,
	} {
		snapshot := testSnapshot(value)
		err = store.SaveVersion(key, period, snapshot, delta.Detect(snapshot, nil))
		if err != nil {
			t.Fatal(err)
		}
	}

	{
		comparison, err := store.Compare(key, "2023-24")
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, "2022-23", comparison.PreviousPeriod)
		require.NotNil(t, comparison.Previous)
	}
	{
		comparison, err := store.Compare(key, "2021-22")
		if err != nil {
			t.Fatal(err)
		}
		require.Empty(t, comparison.PreviousPeriod)
		require.Nil(t, comparison.Previous)
	}
	{
		_, err := store.Compare(key, "2019-20")
		require.Error(t, err)
	}
}

func TestCorruptHistory(t *testing.T) {
	dataDir := t.TempDir()
	store, err := NewStore(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	key := Key{Feature: "commodity_wise", Direction: "export", Entity: "0902"}

	err = os.WriteFile(
		filepath.Join(dataDir, ".versions", "commodity_wise_export_0902_history.json"),
		[]byte("{not json"),
		0o644,
	)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = store.Previous(key, "2023-24")
	require.Error(t, err)
}
