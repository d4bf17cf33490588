package performance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
	"github.com/foliotrack/foliotrack/internal/models"
)

type fakeLedger struct {
	txs      []*models.Transaction
	assets   []*models.Asset
	accounts []*models.Account
	subs     []*models.SubPortfolio
}

func (f *fakeLedger) ListTransactions(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error) {
	return f.txs, nil
}

func (f *fakeLedger) GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	for _, tx := range f.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, fmt.Errorf("transaction %s not found", id)
}

func (f *fakeLedger) SaveTransaction(ctx context.Context, tx *models.Transaction) error { return nil }
func (f *fakeLedger) DeleteTransaction(ctx context.Context, userID, id string) error   { return nil }
func (f *fakeLedger) ListLots(ctx context.Context, userID string) ([]*models.TaxLot, error) {
	return nil, nil
}
func (f *fakeLedger) SaveLot(ctx context.Context, lot *models.TaxLot) error  { return nil }
func (f *fakeLedger) DeleteLot(ctx context.Context, userID, id string) error { return nil }
func (f *fakeLedger) ListAssets(ctx context.Context, userID string) ([]*models.Asset, error) {
	return f.assets, nil
}
func (f *fakeLedger) SaveAsset(ctx context.Context, asset *models.Asset) error { return nil }
func (f *fakeLedger) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	return f.accounts, nil
}
func (f *fakeLedger) SaveAccount(ctx context.Context, account *models.Account) error { return nil }
func (f *fakeLedger) ListSubPortfolios(ctx context.Context, userID string) ([]*models.SubPortfolio, error) {
	return f.subs, nil
}
func (f *fakeLedger) SaveSubPortfolio(ctx context.Context, sp *models.SubPortfolio) error { return nil }

type fakeStorage struct {
	ledger *fakeLedger
}

func (f *fakeStorage) LedgerStore() interfaces.LedgerStore { return f.ledger }
func (f *fakeStorage) PriceStore() interfaces.PriceStore   { return nil }
func (f *fakeStorage) UserStore() interfaces.UserStore     { return nil }
func (f *fakeStorage) Close() error                        { return nil }

type fakePrices struct {
	series map[string]*models.PriceSeries
}

func (f *fakePrices) GetSeries(ctx context.Context, ticker string) (*models.PriceSeries, error) {
	s, ok := f.series[ticker]
	if !ok {
		return nil, fmt.Errorf("no price data for %s", ticker)
	}
	return s, nil
}

func (f *fakePrices) GetSeriesBatch(ctx context.Context, tickers []string) (map[string]*models.PriceSeries, error) {
	out := make(map[string]*models.PriceSeries)
	for _, t := range tickers {
		if s, ok := f.series[t]; ok {
			out[t] = s
		}
	}
	return out, nil
}

func (f *fakePrices) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	return 0, fmt.Errorf("no live quote for %s", ticker)
}

func twoAccountLedger() *fakeLedger {
	vtiBuy := buyTx(date(2024, 1, 2), "a-vti", 20, 100)
	vtiBuy.AccountID = "acc-1"
	bndBuy := buyTx(date(2024, 1, 2), "a-bnd", 50, 70)
	bndBuy.AccountID = "acc-2"

	return &fakeLedger{
		txs: []*models.Transaction{
			{Type: models.TxDeposit, Date: date(2024, 1, 1), Amount: 5000, AccountID: "acc-1"},
			{Type: models.TxDeposit, Date: date(2024, 1, 1), Amount: 5000, AccountID: "acc-2"},
			vtiBuy,
			bndBuy,
		},
		assets: []*models.Asset{
			{ID: "a-vti", Ticker: "VTI", AssetType: "equity"},
			{ID: "a-bnd", Ticker: "BND", AssetType: "bond"},
		},
		accounts: []*models.Account{
			{ID: "acc-1", Name: "Brokerage"},
			{ID: "acc-2", Name: "IRA"},
		},
	}
}

func twoAccountPrices() *fakePrices {
	return &fakePrices{series: map[string]*models.PriceSeries{
		"VTI": priceSeries("VTI",
			models.PricePoint{Date: date(2024, 1, 2), Close: 100},
			models.PricePoint{Date: date(2024, 6, 1), Close: 115},
		),
		"BND": priceSeries("BND",
			models.PricePoint{Date: date(2024, 1, 2), Close: 70},
			models.PricePoint{Date: date(2024, 6, 1), Close: 72},
		),
	}}
}

func TestSeries_AggregateKeepsPerGroupSeries(t *testing.T) {
	svc := NewService(&fakeStorage{ledger: twoAccountLedger()}, twoAccountPrices(), common.NewSilentLogger())

	report, err := svc.Series(context.Background(), "u1", models.SeriesOptions{
		Lens:        models.LensAccount,
		Aggregate:   true,
		StartDate:   date(2024, 1, 1),
		EndDate:     date(2024, 6, 1),
		Granularity: models.GranularityMonthly,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Every account keeps its own series; the aggregate is added alongside.
	for _, key := range []string{"Brokerage", "IRA", models.AggregateKey} {
		if _, ok := report.Series[key]; !ok {
			t.Errorf("series missing key %q", key)
		}
		if _, ok := report.Totals[key]; !ok {
			t.Errorf("totals missing key %q", key)
		}
	}
	if len(report.Series) != 3 {
		t.Fatalf("got %d series, want 3", len(report.Series))
	}

	// The aggregate is the union re-valued, so its value is the group sum.
	sum := report.Totals["Brokerage"].PortfolioValue + report.Totals["IRA"].PortfolioValue
	if got := report.Totals[models.AggregateKey].PortfolioValue; !approxEqual(got, sum, 1e-9) {
		t.Errorf("aggregate value = %.2f, want group sum %.2f", got, sum)
	}
}

func TestSeries_NonAggregateHasNoPortfolioKey(t *testing.T) {
	svc := NewService(&fakeStorage{ledger: twoAccountLedger()}, twoAccountPrices(), common.NewSilentLogger())

	report, err := svc.Series(context.Background(), "u1", models.SeriesOptions{
		Lens:        models.LensAccount,
		StartDate:   date(2024, 1, 1),
		EndDate:     date(2024, 6, 1),
		Granularity: models.GranularityMonthly,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := report.Series[models.AggregateKey]; ok {
		t.Error("non-aggregate request must not contain the aggregate series")
	}
	if len(report.Series) != 2 {
		t.Fatalf("got %d series, want 2", len(report.Series))
	}
	// Per-asset breakdowns only appear in non-aggregate mode.
	if _, ok := report.Assets["Brokerage"]; !ok {
		t.Error("missing per-asset breakdown for Brokerage")
	}
}
