package model_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stocksim/trade-engine/internal/model"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// --- Offer line codec tests ---

func TestOfferLine_CashRoundTrip(t *testing.T) {
	line := model.CashLine(d(123.45))

	data, err := json.Marshal(line)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded model.OfferLine
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Kind != model.LineCash {
		t.Errorf("expected kind=cash, got %s", decoded.Kind)
	}
	if !decoded.Amount.Equal(d(123.45)) {
		t.Errorf("expected amount=123.45, got %s", decoded.Amount)
	}
}

func TestOfferLine_StockRoundTrip(t *testing.T) {
	line := model.StockLine("ACME", 7, d(142.50))

	data, err := json.Marshal(line)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded model.OfferLine
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Kind != model.LineStock {
		t.Errorf("expected kind=stock, got %s", decoded.Kind)
	}
	if decoded.Symbol != "ACME" || decoded.Quantity != 7 {
		t.Errorf("unexpected stock line: %+v", decoded)
	}
	if !decoded.UnitPrice.Equal(d(142.50)) {
		t.Errorf("expected price=142.50, got %s", decoded.UnitPrice)
	}
}

func TestOfferLine_UnknownKindRejected(t *testing.T) {
	var line model.OfferLine
	err := json.Unmarshal([]byte(`{"type":"bond","amount":"10"}`), &line)
	if err == nil {
		t.Fatal("expected error for unknown line kind")
	}
}

func TestOfferLine_Value(t *testing.T) {
	if v := model.CashLine(d(50)).Value(); !v.Equal(d(50)) {
		t.Errorf("cash value: expected 50, got %s", v)
	}
	if v := model.StockLine("ACME", 3, d(20)).Value(); !v.Equal(d(60)) {
		t.Errorf("stock value: expected 60, got %s", v)
	}
}

// --- Portfolio tests ---

func TestPortfolio_CloneIsIndependent(t *testing.T) {
	p := model.NewPortfolio(d(1000))
	p.Holdings["ACME"] = 5

	clone := p.Clone()
	clone.Cash = d(0)
	clone.Holdings["ACME"] = 99
	clone.Holdings["BOLT"] = 1

	if !p.Cash.Equal(d(1000)) {
		t.Errorf("clone mutation leaked into original cash: %s", p.Cash)
	}
	if p.Holdings["ACME"] != 5 {
		t.Errorf("clone mutation leaked into holdings: %d", p.Holdings["ACME"])
	}
	if _, ok := p.Holdings["BOLT"]; ok {
		t.Error("clone added holding leaked into original")
	}
}

func TestPortfolio_NetWorth(t *testing.T) {
	p := model.NewPortfolio(d(100))
	p.Holdings["ACME"] = 2
	p.Holdings["GHOST"] = 10 // no quote: contributes nothing

	prices := map[string]model.Quote{
		"ACME": {CurrentPrice: d(50)},
	}

	if nw := p.NetWorth(prices); !nw.Equal(d(200)) {
		t.Errorf("expected net worth 200, got %s", nw)
	}
}

func TestSavedGame_RoundTrip(t *testing.T) {
	game := model.SavedGame{
		Slot: "slot1",
		Day:  4,
		Portfolio: model.Portfolio{
			Cash:     d(812.33),
			Holdings: map[string]int64{"ACME": 3},
		},
		Pool: model.OfferPool{
			Day: 4,
			Offers: []model.TradeOffer{{
				ID:      "offer-1",
				Give:    []model.OfferLine{model.CashLine(d(100))},
				Receive: []model.OfferLine{model.StockLine("BOLT", 2, d(55))},
			}},
		},
	}

	data, err := json.Marshal(game)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded model.SavedGame
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Day != 4 || decoded.Slot != "slot1" {
		t.Errorf("unexpected metadata: %+v", decoded)
	}
	if len(decoded.Pool.Offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(decoded.Pool.Offers))
	}
	offer := decoded.Pool.Offers[0]
	if offer.Give[0].Kind != model.LineCash || !offer.Give[0].Amount.Equal(d(100)) {
		t.Errorf("give side did not round-trip: %+v", offer.Give[0])
	}
	if offer.Receive[0].Kind != model.LineStock || offer.Receive[0].Quantity != 2 {
		t.Errorf("receive side did not round-trip: %+v", offer.Receive[0])
	}
}
