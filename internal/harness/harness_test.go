package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-notes/fathom/internal/document"
)

func TestRun_TripPlanning(t *testing.T) {
	RunWithGolden(t, &Scenario{
		Name: "trip-planning",
		Steps: []Step{
			func(ctx context.Context, doc *document.Store) error {
				return doc.UpdateContent(ctx, "blt_0001", "Plan trip")
			},
			func(ctx context.Context, doc *document.Store) error {
				_, err := doc.CreateAndInsertBullet(ctx, "blt_0001", true)
				return err
			},
			func(ctx context.Context, doc *document.Store) error {
				return doc.UpdateContent(ctx, "blt_0002", "Book flights")
			},
			func(ctx context.Context, doc *document.Store) error {
				return doc.SetChecked(ctx, "blt_0002", true)
			},
			func(ctx context.Context, doc *document.Store) error {
				_, err := doc.CreateAndInsertBullet(ctx, "", false)
				return err
			},
			func(ctx context.Context, doc *document.Store) error {
				return doc.UpdateContent(ctx, "blt_0003", "Pack bags")
			},
		},
	})
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	scenario := &Scenario{
		Name: "repeat",
		Steps: []Step{
			func(ctx context.Context, doc *document.Store) error {
				return doc.UpdateContent(ctx, "blt_0001", "same every time")
			},
		},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_StepErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(&Scenario{
		Name: "failing",
		Steps: []Step{
			func(ctx context.Context, doc *document.Store) error {
				return boom
			},
		},
	})
	assert.ErrorIs(t, err, boom)
}
