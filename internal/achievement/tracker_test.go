package achievement

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stocksim/trade-engine/internal/model"
)

func record(t *Tracker, netWorth int64) {
	t.RecordTrade(model.Transaction{}, decimal.NewFromInt(netWorth))
}

func ids(t *Tracker) []string {
	var out []string
	for _, a := range t.Unlocked() {
		out = append(out, a.ID)
	}
	return out
}

func TestTracker_FirstTrade(t *testing.T) {
	tr := NewTracker()
	record(tr, 10000)

	got := ids(tr)
	if len(got) != 1 || got[0] != "first_trade" {
		t.Errorf("expected [first_trade], got %v", got)
	}
}

func TestTracker_DealMakerAtTen(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 9; i++ {
		record(tr, 10000)
	}
	for _, id := range ids(tr) {
		if id == "deal_maker" {
			t.Fatal("deal_maker unlocked before the tenth trade")
		}
	}

	record(tr, 10000)
	found := false
	for _, id := range ids(tr) {
		if id == "deal_maker" {
			found = true
		}
	}
	if !found {
		t.Error("expected deal_maker at ten trades")
	}
}

func TestTracker_NetWorthThresholds(t *testing.T) {
	tr := NewTracker()
	record(tr, 99_999)
	for _, id := range ids(tr) {
		if id == "rich_investor" {
			t.Fatal("rich_investor unlocked below threshold")
		}
	}

	record(tr, 1_000_000)
	got := ids(tr)
	rich, millionaire := false, false
	for _, id := range got {
		switch id {
		case "rich_investor":
			rich = true
		case "millionaire":
			millionaire = true
		}
	}
	if !rich || !millionaire {
		t.Errorf("expected both wealth milestones, got %v", got)
	}
}

func TestTracker_UnlockOnceInOrder(t *testing.T) {
	tr := NewTracker()
	record(tr, 200_000)
	record(tr, 200_000)

	got := ids(tr)
	if len(got) != 2 {
		t.Fatalf("expected 2 achievements, got %v", got)
	}
	if got[0] != "first_trade" || got[1] != "rich_investor" {
		t.Errorf("expected unlock order preserved, got %v", got)
	}
	if tr.Unlocked()[0].UnlockedAt.IsZero() {
		t.Error("expected unlock timestamp")
	}
}
