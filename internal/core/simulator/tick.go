package simulator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"viewsim/internal/shared/logger"
	"viewsim/internal/shared/metrics"
	"viewsim/internal/shared/types"
)

// runTicks is the session's scheduled task. Cancellation is checked before
// every tick; a tick that has started runs to completion.
func (s *Simulator) runTicks(ctx context.Context, sessionID int, done chan struct{}) {
	defer close(done)
	l := logger.WithComponent("Simulator")
	for {
		timer := time.NewTimer(s.tickInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}
		if err := s.tick(context.WithoutCancel(ctx), sessionID); err != nil {
			l.Error().Err(err).Int("session_id", sessionID).Msg("Simulation tick failed.")
		}
	}
}

// tick advances every running tab of the session, then adds one view per
// running tab to the session and publishes the result.
func (s *Simulator) tick(ctx context.Context, sessionID int) error {
	tabs, err := s.tabs.GetBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load tabs: %w", err)
	}

	var running []*types.Tab
	for _, t := range tabs {
		if t.Status == types.TabRunning {
			running = append(running, t)
		}
	}

	steps := make([]int, len(running))
	for i := range running {
		steps[i] = s.viewStep()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range running {
		g.Go(func() error {
			d := t.ViewDuration + steps[i]
			_, err := s.tabs.Update(gctx, t.ID, types.TabPatch{ViewDuration: &d})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("update tabs: %w", err)
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	views := session.ViewCount + len(running)
	session, err = s.sessions.Update(ctx, sessionID, types.SessionPatch{ViewCount: &views})
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	current, err := s.tabs.GetBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("reload tabs: %w", err)
	}

	metrics.Ticks.Inc()
	metrics.ViewsGenerated.Add(float64(len(running)))
	s.update(func(st *State) {
		if st.Session == nil || st.Session.ID != sessionID {
			return
		}
		st.Session = session
		st.Tabs = current
	})
	return nil
}
