package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/dmitrijs2005/trafficguard/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/trafficguard/internal/common"
	"github.com/dmitrijs2005/trafficguard/internal/dbx"
	"github.com/dmitrijs2005/trafficguard/internal/logging"
)

// OnboardingPages is the length of the introduction sequence.
const OnboardingPages = 3

// EntryGate picks the screen to open after onboarding.
type EntryGate interface {
	Entry(ctx context.Context) (models.Destination, error)
}

// OnboardingController pages through the introduction and records its
// completion in the local preference table.
type OnboardingController struct {
	db     *sql.DB
	gate   EntryGate
	nav    Navigator
	logger logging.Logger

	mu   sync.Mutex
	page int
}

func NewOnboardingController(db *sql.DB, gate EntryGate, nav Navigator, logger logging.Logger) *OnboardingController {
	return &OnboardingController{db: db, gate: gate, nav: nav, logger: logger.With("component", "onboarding")}
}

// Page returns the zero-based current page.
func (c *OnboardingController) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *OnboardingController) Last() bool {
	return c.Page() == OnboardingPages-1
}

// Next advances one page; on the last page it does nothing.
func (c *OnboardingController) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page < OnboardingPages-1 {
		c.page++
	}
	return c.page
}

func (c *OnboardingController) SkipToLast() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = OnboardingPages - 1
	return c.page
}

// Finish marks onboarding as completed and navigates to wherever the gate
// sends the user. It is only available on the last page. The flag is
// written at most once; it reports whether this call wrote it.
func (c *OnboardingController) Finish(ctx context.Context) (bool, error) {
	if !c.Last() {
		return false, ErrInvalidState
	}

	wrote, err := MarkOnboardingCompleted(ctx, c.db)
	if err != nil {
		return false, err
	}
	c.logger.Info(ctx, "onboarding finished", "flag_written", wrote)

	d, err := c.gate.Entry(ctx)
	if err != nil {
		return wrote, err
	}
	c.nav.Navigate(d)
	return wrote, nil
}

// MarkOnboardingCompleted sets the onboarding flag in a single transaction
// unless it is already set. It reports whether the flag was written.
func MarkOnboardingCompleted(ctx context.Context, db *sql.DB) (bool, error) {
	var wrote bool
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		prefs := metadata.NewPrefs(metadata.NewSQLiteRepository(tx), common.PrefsScope)
		done, err := prefs.Bool(ctx, common.KeyOnboardingCompleted)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		wrote = true
		return prefs.SetBool(ctx, common.KeyOnboardingCompleted, true)
	})
	if err != nil {
		return false, fmt.Errorf("mark onboarding completed: %w", err)
	}
	return wrote, nil
}
