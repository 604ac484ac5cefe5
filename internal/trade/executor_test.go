package trade

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stocksim/trade-engine/internal/model"
	"github.com/stocksim/trade-engine/internal/offer"
)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestExecute_CashForStock(t *testing.T) {
	p := model.NewPortfolio(dec(500))
	o := model.TradeOffer{
		ID:      "offer-1",
		Give:    []model.OfferLine{model.CashLine(dec(100))},
		Receive: []model.OfferLine{model.StockLine("AAA", 2, dec(50))},
	}

	next := Execute(o, p)

	if !next.Cash.Equal(dec(400)) {
		t.Errorf("expected cash 400, got %s", next.Cash)
	}
	if next.Holdings["AAA"] != 2 {
		t.Errorf("expected 2 AAA, got %d", next.Holdings["AAA"])
	}
	if len(next.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(next.Transactions))
	}
}

func TestExecute_RemovesExhaustedHolding(t *testing.T) {
	p := model.NewPortfolio(dec(0))
	p.Holdings["XYZ"] = 3

	next := Execute(model.TradeOffer{
		Give:    []model.OfferLine{model.StockLine("XYZ", 3, dec(50))},
		Receive: []model.OfferLine{model.CashLine(dec(150))},
	}, p)

	if _, ok := next.Holdings["XYZ"]; ok {
		t.Error("fully traded holding should be removed, not left at zero")
	}
	if !next.Cash.Equal(dec(150)) {
		t.Errorf("expected cash 150, got %s", next.Cash)
	}
}

func TestExecute_OriginalUntouched(t *testing.T) {
	p := model.NewPortfolio(dec(500))
	p.Holdings["XYZ"] = 10

	Execute(model.TradeOffer{
		Give: []model.OfferLine{
			model.CashLine(dec(100)),
			model.StockLine("XYZ", 4, dec(50)),
		},
		Receive: []model.OfferLine{model.StockLine("AAA", 1, dec(80))},
	}, p)

	if !p.Cash.Equal(dec(500)) || p.Holdings["XYZ"] != 10 || len(p.Transactions) != 0 {
		t.Errorf("prior snapshot was mutated: %+v", p)
	}
}

func TestExecute_TransactionRecord(t *testing.T) {
	p := model.NewPortfolio(dec(500))
	o := model.TradeOffer{
		Give:    []model.OfferLine{model.CashLine(dec(100))},
		Receive: []model.OfferLine{model.StockLine("AAA", 2, dec(50))},
	}

	next := Execute(o, p)
	tx := next.Transactions[0]

	if tx.ID == "" {
		t.Error("expected non-empty transaction id")
	}
	if tx.Kind != model.TransactionKindTrade {
		t.Errorf("expected kind=trade, got %s", tx.Kind)
	}
	if tx.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
	if len(tx.Give) != 1 || len(tx.Receive) != 1 {
		t.Errorf("transaction should record both sides: %+v", tx)
	}
}

func TestExecute_ValueConservation(t *testing.T) {
	prices := map[string]model.Quote{
		"AAA": {CurrentPrice: dec(50)},
		"XYZ": {CurrentPrice: dec(20)},
	}
	p := model.NewPortfolio(dec(1000))
	p.Holdings["XYZ"] = 10

	o := model.TradeOffer{
		Give: []model.OfferLine{
			model.CashLine(dec(60)),
			model.StockLine("XYZ", 5, dec(20)),
		},
		Receive: []model.OfferLine{model.StockLine("AAA", 3, dec(50))},
	}
	next := Execute(o, p)

	// Net worth shifts by exactly receive minus give when lines are
	// priced at current quotes.
	delta := next.NetWorth(prices).Sub(p.NetWorth(prices))
	want := offer.Value(o.Receive).Sub(offer.Value(o.Give))
	if !delta.Equal(want) {
		t.Errorf("net worth delta %s, want %s", delta, want)
	}
}

func TestFillPool_FillsAllSlots(t *testing.T) {
	gen := offer.NewGenerator(testRNG(21))
	p := model.NewPortfolio(dec(10000))
	prices := map[string]model.Quote{
		"AAA": {CurrentPrice: dec(20)},
		"BBB": {CurrentPrice: dec(35)},
	}

	pool := fillPool(gen, 5, &p, prices, 3)

	if pool.Day != 5 {
		t.Errorf("expected day 5, got %d", pool.Day)
	}
	// A cash-only portfolio always supports cash-for-stock offers.
	if len(pool.Offers) != 3 {
		t.Errorf("expected 3 offers, got %d", len(pool.Offers))
	}
	for _, o := range pool.Offers {
		if o.ID == "" || len(o.Give) == 0 || len(o.Receive) == 0 {
			t.Errorf("malformed offer in pool: %+v", o)
		}
	}
}
