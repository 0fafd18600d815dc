package postgres_test

import (
	"context"
	"testing"
	"time"

	"checkin/pkg/domain"
	"checkin/pkg/storage/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func storeTestLocation(t *testing.T, pgSQL *postgres.PgSQL, name string) domain.Location {
	t.Helper()

	stored, err := pgSQL.StoreLocations(context.Background(), domain.Location{
		Name:       name,
		AccessType: domain.AccessTypeCodeRequired,
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)

	return stored[0]
}

func TestPgSQL_StoreGrants(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	location := storeTestLocation(t, pgSQL, "Lab 1")
	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	stored, err := pgSQL.StoreGrants(ctx, domain.AccessGrant{
		LocationID:    location.ID,
		AllowedEmails: []string{"a@example.com", "b@example.com"},
		Windows:       []domain.TimeRange{{From: from, To: from.Add(8 * time.Hour)}},
		Note:          "lab session",
		Reason:        "exam week",
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)

	grant := stored[0]
	require.NotEqual(t, domain.GrantID{}, grant.ID)
	require.Equal(t, location.ID, grant.LocationID)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, grant.AllowedEmails)
	require.Len(t, grant.Windows, 1)
	require.True(t, grant.Windows[0].From.Equal(from))
	require.True(t, grant.Windows[0].To.Equal(from.Add(8*time.Hour)))
	require.Equal(t, "lab session", grant.Note)
	require.EqualValues(t, 1, grant.Version)
	require.False(t, grant.CreatedAt.IsZero())
	require.True(t, grant.UpdatedAt.IsZero())
}

func TestPgSQL_GrantsByLocation(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	locationA := storeTestLocation(t, pgSQL, "Lab A")
	locationB := storeTestLocation(t, pgSQL, "Lab B")
	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	window := []domain.TimeRange{{From: from, To: from.Add(time.Hour)}}

	_, err := pgSQL.StoreGrants(ctx,
		domain.AccessGrant{LocationID: locationA.ID, AllowedEmails: []string{"a@example.com"}, Windows: window},
		domain.AccessGrant{LocationID: locationA.ID, AllowedEmails: []string{"b@example.com"}, Windows: window},
		domain.AccessGrant{LocationID: locationB.ID, AllowedEmails: []string{"c@example.com"}, Windows: window},
	)
	require.NoError(t, err)

	grants, err := pgSQL.GrantsByLocation(ctx, locationA.ID)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	for _, grant := range grants {
		require.Equal(t, locationA.ID, grant.LocationID)
	}

	grants, err = pgSQL.GrantsByLocation(ctx, locationB.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Equal(t, []string{"c@example.com"}, grants[0].AllowedEmails)
}

func TestPgSQL_UpdateGrant_Versioning(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	location := storeTestLocation(t, pgSQL, "Lab 1")
	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	stored, err := pgSQL.StoreGrants(ctx, domain.AccessGrant{
		LocationID:    location.ID,
		AllowedEmails: []string{"a@example.com"},
		Windows:       []domain.TimeRange{{From: from, To: from.Add(time.Hour)}},
	})
	require.NoError(t, err)
	grant := stored[0]

	// matching version updates the row and bumps the version
	grant.AllowedEmails = []string{"a@example.com", "b@example.com"}
	grant.Note = "extended"
	updated, err := pgSQL.UpdateGrant(ctx, grant.ID, 1, grant)
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.EqualValues(t, 2, updated.Version)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, updated.AllowedEmails)
	require.Equal(t, "extended", updated.Note)
	require.False(t, updated.UpdatedAt.IsZero())

	// stale version leaves the row untouched
	stale, err := pgSQL.UpdateGrant(ctx, grant.ID, 1, grant)
	require.NoError(t, err)
	require.Nil(t, stale)

	current, err := pgSQL.GrantByID(ctx, grant.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	require.EqualValues(t, 2, current.Version)

	// unknown grant id
	missing, err := pgSQL.UpdateGrant(ctx, domain.GrantID(uuid.New()), 1, grant)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestPgSQL_DeleteGrant(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	location := storeTestLocation(t, pgSQL, "Lab 1")
	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	stored, err := pgSQL.StoreGrants(ctx, domain.AccessGrant{
		LocationID:    location.ID,
		AllowedEmails: []string{"a@example.com"},
		Windows:       []domain.TimeRange{{From: from, To: from.Add(time.Hour)}},
	})
	require.NoError(t, err)
	id := stored[0].ID

	deleted, err := pgSQL.DeleteGrant(ctx, id)
	require.NoError(t, err)
	require.True(t, deleted)

	got, err := pgSQL.GrantByID(ctx, id)
	require.NoError(t, err)
	require.Nil(t, got)

	// deleting again reports no row
	deleted, err = pgSQL.DeleteGrant(ctx, id)
	require.NoError(t, err)
	require.False(t, deleted)
}
