// Package gate decides which top-level screen the client opens at launch.
package gate

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/trafficguard/internal/client/client"
	"github.com/dmitrijs2005/trafficguard/internal/client/models"
	"github.com/dmitrijs2005/trafficguard/internal/common"
	"github.com/dmitrijs2005/trafficguard/internal/logging"
)

// Decide is the entry rule: onboarding first, then the authenticated area
// for a verified session, login otherwise.
func Decide(onboardingCompleted bool, session *models.AuthSession) models.Screen {
	switch {
	case !onboardingCompleted:
		return models.ScreenOnboarding
	case session.Verified():
		return models.ScreenAuthenticated
	default:
		return models.ScreenLogin
	}
}

// FlagReader reads a boolean preference.
type FlagReader interface {
	Bool(ctx context.Context, key string) (bool, error)
}

type Gate struct {
	prefs    FlagReader
	sessions client.SessionProvider
	logger   logging.Logger
}

func New(prefs FlagReader, sessions client.SessionProvider, logger logging.Logger) *Gate {
	return &Gate{prefs: prefs, sessions: sessions, logger: logger.With("component", "gate")}
}

// Entry reads the onboarding flag once and the cached session, and returns
// where to navigate.
func (g *Gate) Entry(ctx context.Context) (models.Destination, error) {
	completed, err := g.prefs.Bool(ctx, common.KeyOnboardingCompleted)
	if err != nil {
		return models.Destination{}, fmt.Errorf("read onboarding flag: %w", err)
	}

	session := g.sessions.Current()
	screen := Decide(completed, session)
	g.logger.Debug(ctx, "entry decided", "screen", screen.String(), "onboarding_completed", completed)

	if screen == models.ScreenAuthenticated {
		return models.AuthenticatedAs(*session), nil
	}
	return models.Destination{Screen: screen}, nil
}
