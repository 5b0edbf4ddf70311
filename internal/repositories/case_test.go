package repositories_test

import (
	"context"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/repositories"
	"github.com/myrjola/lettergen/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

func TestCaseRepository_FindOrCreate(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := repositories.NewCaseRepository(db, testhelpers.NewLogger(io.Discard))
	ctx := context.Background()

	first, err := repo.FindOrCreate(ctx, "21/2025", "11223344556677")
	require.NoError(t, err)
	second, err := repo.FindOrCreate(ctx, "21/2025", "11223344556677")
	require.NoError(t, err)
	require.Equal(t, first, second)

	var count int
	require.NoError(t, db.ReadOnly.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM cases WHERE crime_number = '21/2025' AND report_ref = '11223344556677'"))
	require.Equal(t, 1, count)

	// Either half of the pair differing makes a new case.
	other, err := repo.FindOrCreate(ctx, "21/2025", "11223344556678")
	require.NoError(t, err)
	require.NotEqual(t, first, other)

	c, err := repo.Get(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "21/2025", c.CrimeNumber)
	require.Equal(t, "11223344556677", c.ReportRef)
	require.NotEmpty(t, c.Created)

	_, err = repo.Get(ctx, 999)
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCaseRepository_Recent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := repositories.NewCaseRepository(db, testhelpers.NewLogger(io.Discard))
	ctx := context.Background()

	var ids []int64
	for _, crime := range []string{"1/2025", "2/2025", "3/2025"} {
		id, err := repo.FindOrCreate(ctx, crime, "11223344556677")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, []int64{ids[2], ids[1]}, []int64{recent[0].ID, recent[1].ID})

	_, err = repo.Recent(ctx, 0)
	require.Error(t, err)
}

func TestNoticeRepository(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	logger := testhelpers.NewLogger(io.Discard)
	cases := repositories.NewCaseRepository(db, logger)
	officers := repositories.NewOfficerRepository(db, logger)
	notices := repositories.NewNoticeRepository(db, logger)
	ctx := context.Background()

	caseID, err := cases.FindOrCreate(ctx, "21/2025", "11223344556677")
	require.NoError(t, err)
	officerID, err := officers.Create(ctx, "si.rao", "s3cret!", models.OfficerProfile{Name: "K. Rao"})
	require.NoError(t, err)

	for _, recipient := range []string{"State Bank of India", "HDFC Bank"} {
		_, err = notices.Record(ctx, models.Notice{
			CaseID:     caseID,
			OfficerID:  &officerID,
			BatchID:    "2f1c6a52-2b36-4b7e-9d0f-3f0c1c2d4e5f",
			LetterType: models.LetterTypeBank,
			Recipient:  recipient,
			OutputPath: "/tmp/" + recipient + ".docx",
		})
		require.NoError(t, err)
	}

	listed, err := notices.ListForCase(ctx, caseID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, "State Bank of India", listed[0].Recipient)
	require.Equal(t, models.LetterTypeBank, listed[1].LetterType)
	require.Equal(t, officerID, *listed[0].OfficerID)

	// Deleting the officer keeps the notice history.
	require.NoError(t, officers.Delete(ctx, officerID))
	listed, err = notices.ListForCase(ctx, caseID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Nil(t, listed[0].OfficerID)

	_, err = notices.Record(ctx, models.Notice{CaseID: 999, BatchID: "b", LetterType: models.LetterTypeTSP,
		Recipient: "Jio", OutputPath: "/tmp/x.docx"})
	require.Error(t, err, "notices must reference an existing case")
}
