package worker

import (
	"context"
	"errors"
	"testing"

	appconfig "dummybot/config"
	"dummybot/models"
)

func newTestTracker(api *fakeAPI, store *fakeState, maxPolls int) *Tracker {
	return NewTracker(appconfig.OrderConfig{MaxPolls: maxPolls, PollIntervalMs: 1}, api, store)
}

func TestTrackPollsUntilFilled(t *testing.T) {
	api := &fakeAPI{pollStatuses: []string{"pending_new", "new", "filled"}}
	store := &fakeState{}
	tracker := newTestTracker(api, store, 10)

	state := tracker.Track(context.Background(), models.Order{ID: "ord-1", Status: "new"})

	if state != models.StateFilled {
		t.Fatalf("expected filled, got %s", state)
	}
	if api.pollCount() != 3 {
		t.Errorf("expected 3 polls, got %d", api.pollCount())
	}
	got := store.refreshOrder()
	if len(got) != 2 || got[0] != "positions" || got[1] != "cash" {
		t.Errorf("expected positions then cash, got %v", got)
	}
}

func TestTrackCancelledRefreshesCashOnly(t *testing.T) {
	api := &fakeAPI{pollStatuses: []string{"canceled"}}
	store := &fakeState{}
	tracker := newTestTracker(api, store, 10)

	state := tracker.Track(context.Background(), models.Order{ID: "ord-1", Status: "new"})

	if state != models.StateCancelled {
		t.Fatalf("expected cancelled, got %s", state)
	}
	got := store.refreshOrder()
	if len(got) != 1 || got[0] != "cash" {
		t.Errorf("expected a single cash refresh, got %v", got)
	}
}

func TestTrackTerminalInitialStatusSkipsPolling(t *testing.T) {
	api := &fakeAPI{}
	store := &fakeState{}
	tracker := newTestTracker(api, store, 10)

	state := tracker.Track(context.Background(), models.Order{ID: "ord-1", Status: "rejected"})

	if state != models.StateCancelled {
		t.Fatalf("expected cancelled, got %s", state)
	}
	if api.pollCount() != 0 {
		t.Errorf("expected no polls, got %d", api.pollCount())
	}
}

func TestTrackGivesUpAfterMaxPolls(t *testing.T) {
	api := &fakeAPI{pollStatuses: []string{"new"}}
	store := &fakeState{}
	tracker := newTestTracker(api, store, 3)

	state := tracker.Track(context.Background(), models.Order{ID: "ord-1", Status: "new"})

	if state.Terminal() {
		t.Fatalf("expected a non-terminal state after giving up, got %s", state)
	}
	if api.pollCount() != 3 {
		t.Errorf("expected exactly 3 polls, got %d", api.pollCount())
	}
	got := store.refreshOrder()
	if len(got) != 1 || got[0] != "cash" {
		t.Errorf("expected a single cash refresh, got %v", got)
	}
}

func TestTrackPollErrorsCountAgainstBound(t *testing.T) {
	api := &fakeAPI{pollErr: errors.New("venue unavailable")}
	store := &fakeState{}
	tracker := newTestTracker(api, store, 2)

	state := tracker.Track(context.Background(), models.Order{ID: "ord-1", Status: "new"})

	if state.Terminal() {
		t.Fatalf("expected a non-terminal state, got %s", state)
	}
	if api.pollCount() != 2 {
		t.Errorf("expected exactly 2 polls, got %d", api.pollCount())
	}
}

func TestTrackUnknownStatusKeepsPolling(t *testing.T) {
	api := &fakeAPI{pollStatuses: []string{"done_for_day", "filled"}}
	store := &fakeState{}
	tracker := newTestTracker(api, store, 10)

	state := tracker.Track(context.Background(), models.Order{ID: "ord-1", Status: "new"})

	if state != models.StateFilled {
		t.Fatalf("expected filled, got %s", state)
	}
	if api.pollCount() != 2 {
		t.Errorf("expected 2 polls, got %d", api.pollCount())
	}
}
