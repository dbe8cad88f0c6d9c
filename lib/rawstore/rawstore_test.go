package rawstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRawStore(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		_, err := store.Get(ctx, "commodity_wise_all_countries", "export", "85171290", "2023-24")
		require.ErrorIs(t, err, sql.ErrNoRows)
	}

	err = store.Save(ctx, Page{
		Feature:   "commodity_wise_all_countries",
		Direction: "export",
		Entity:    "85171290",
		Period:    "2023-24",
		Html:      "<html>first fetch</html>",
	})
	if err != nil {
		t.Fatal(err)
	}

	{
		page, err := store.Get(ctx, "commodity_wise_all_countries", "export", "85171290", "2023-24")
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, "<html>first fetch</html>", page.Html)
		require.False(t, page.FetchedAt.IsZero())
	}

	// re-fetching the same slice replaces the archived page
	err = store.Save(ctx, Page{
		Feature:   "commodity_wise_all_countries",
		Direction: "export",
		Entity:    "85171290",
		Period:    "2023-24",
		Html:      "<html>second fetch</html>",
	})
	if err != nil {
		t.Fatal(err)
	}

	{
		page, err := store.Get(ctx, "commodity_wise_all_countries", "export", "85171290", "2023-24")
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, "<html>second fetch</html>", page.Html)
	}

	err = store.Save(ctx, Page{
		Feature:   "commodity_wise_all_countries",
		Direction: "export",
		Entity:    "85171290",
		Period:    "2022-23",
		Html:      "<html>older period</html>",
	})
	if err != nil {
		t.Fatal(err)
	}

	periods, err := store.Periods(ctx, "commodity_wise_all_countries", "export", "85171290")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, []string{"2022-23", "2023-24"}, periods)
}
