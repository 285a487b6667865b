package postgresql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vatsinhr/settlement-backend-go/internal/domain/settlement"
	"github.com/vatsinhr/settlement-backend-go/internal/repository/postgresql"
)

func TestTxManager_RollsBackAcrossRepositories(t *testing.T) {
	ledgerTestInit(t)
	ctx := context.Background()
	truncateTables(t, ctx)

	ledger := postgresql.NewLedgerRepository(testDB)
	audit := postgresql.NewAuditRepository(testDB)
	txm := postgresql.NewTxManager(testDB)

	boom := errors.New("abort after writes")
	err := txm.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := ledger.CreateCycle(ctx, settlement.Cycle{ID: "2024-07", Month: 7, Year: 2024}); err != nil {
			return err
		}
		if _, err := audit.Append(ctx, settlement.AuditEntry{
			CycleID: "2024-07",
			Action:  settlement.ActionCycleOpened,
			ActorID: "admin-1",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Nothing from the aborted run is visible
	_, err = ledger.GetCycle(ctx, "2024-07")
	assert.ErrorIs(t, err, settlement.ErrCycleNotFound)
	entries, err := audit.ListForCycle(ctx, "2024-07")
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The period is not burned; it opens cleanly on the next attempt
	err = txm.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := ledger.CreateCycle(ctx, settlement.Cycle{ID: "2024-07", Month: 7, Year: 2024}); err != nil {
			return err
		}
		_, err := audit.Append(ctx, settlement.AuditEntry{
			CycleID: "2024-07",
			Action:  settlement.ActionCycleOpened,
			ActorID: "admin-1",
		})
		return err
	})
	require.NoError(t, err)

	entries, err = audit.ListForCycle(ctx, "2024-07")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
