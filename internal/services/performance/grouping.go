package performance

import (
	"fmt"
	"sort"

	"github.com/foliotrack/foliotrack/internal/models"
)

// unclassifiedKey collects assets missing the attribute a lens groups by.
const unclassifiedKey = "Unclassified"

// totalKey labels the single group of the total lens.
const totalKey = "Total"

// Group is one partition of the ledger under a lens: the transactions whose
// asset (or account) resolves to the same key. IncludesCash marks groups
// whose valuation carries a cash balance in addition to holdings.
type Group struct {
	Key          string
	Transactions []*models.Transaction
	IncludesCash bool
}

// catalog indexes the reference entities a partition run needs.
type catalog struct {
	assets   map[string]*models.Asset
	accounts map[string]*models.Account
	subs     map[string]*models.SubPortfolio
}

func newCatalog(assets []*models.Asset, accounts []*models.Account, subs []*models.SubPortfolio) *catalog {
	c := &catalog{
		assets:   make(map[string]*models.Asset, len(assets)),
		accounts: make(map[string]*models.Account, len(accounts)),
		subs:     make(map[string]*models.SubPortfolio, len(subs)),
	}
	for _, a := range assets {
		c.assets[a.ID] = a
	}
	for _, a := range accounts {
		c.accounts[a.ID] = a
	}
	for _, s := range subs {
		c.subs[s.ID] = s
	}
	return c
}

// lensIncludesCash reports whether groups under this lens carry cash.
// Account and total groups own their cash transactions; asset-attribute
// groups hold positions only.
func lensIncludesCash(lens models.Lens) bool {
	return lens == models.LensTotal || lens == models.LensAccount
}

// groupKey resolves the partition key for one transaction under a lens. The
// second return value is false when the transaction does not belong to any
// group under this lens (e.g. a cash deposit viewed through an asset lens).
func (c *catalog) groupKey(tx *models.Transaction, lens models.Lens) (string, bool) {
	if lens == models.LensTotal {
		return totalKey, true
	}

	if lens == models.LensAccount {
		if tx.AccountID == "" {
			return unclassifiedKey, true
		}
		if acct, ok := c.accounts[tx.AccountID]; ok {
			return acct.Name, true
		}
		return tx.AccountID, true
	}

	// Remaining lenses group by an asset attribute; cash-only transactions
	// have no asset and fall outside the partition.
	if tx.AssetID == "" {
		return "", false
	}
	asset, ok := c.assets[tx.AssetID]
	if !ok {
		return unclassifiedKey, true
	}

	var attr string
	switch lens {
	case models.LensSubPortfolio:
		if asset.SubPortfolioID == "" {
			return unclassifiedKey, true
		}
		if sub, ok := c.subs[asset.SubPortfolioID]; ok {
			return sub.Name, true
		}
		return asset.SubPortfolioID, true
	case models.LensAssetType:
		attr = asset.AssetType
	case models.LensAssetSubtype:
		attr = asset.AssetSubtype
	case models.LensGeography:
		attr = asset.Geography
	case models.LensSizeTag:
		attr = asset.SizeTag
	case models.LensFactorTag:
		attr = asset.FactorTag
	}
	if attr == "" {
		return unclassifiedKey, true
	}
	return attr, true
}

// Partition splits transactions into lens groups in deterministic key order.
// When selected is non-empty only the named keys survive; a selected key
// with no matching transactions simply yields no group.
func Partition(txs []*models.Transaction, cat *catalog, lens models.Lens, selected []string) ([]*Group, error) {
	if !models.ValidLens(lens) {
		return nil, fmt.Errorf("invalid lens %q", lens)
	}

	keep := make(map[string]bool, len(selected))
	for _, key := range selected {
		keep[key] = true
	}

	groups := make(map[string]*Group)
	includesCash := lensIncludesCash(lens)
	for _, tx := range txs {
		key, ok := cat.groupKey(tx, lens)
		if !ok {
			continue
		}
		if len(keep) > 0 && !keep[key] {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &Group{Key: key, IncludesCash: includesCash}
			groups[key] = g
		}
		g.Transactions = append(g.Transactions, tx)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ordered := make([]*Group, 0, len(keys))
	for _, key := range keys {
		ordered = append(ordered, groups[key])
	}
	return ordered, nil
}

// partitionByTicker splits one group's asset-linked transactions per ticker
// for the per-asset breakdown. Cash transactions are left out; individual
// asset series have no cash component.
func partitionByTicker(g *Group, cat *catalog) []*Group {
	byTicker := make(map[string]*Group)
	for _, tx := range g.Transactions {
		if tx.AssetID == "" {
			continue
		}
		ticker := tx.AssetID
		if asset, ok := cat.assets[tx.AssetID]; ok && asset.Ticker != "" {
			ticker = asset.Ticker
		}
		sub, ok := byTicker[ticker]
		if !ok {
			sub = &Group{Key: ticker}
			byTicker[ticker] = sub
		}
		sub.Transactions = append(sub.Transactions, tx)
	}

	keys := make([]string, 0, len(byTicker))
	for key := range byTicker {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ordered := make([]*Group, 0, len(keys))
	for _, key := range keys {
		ordered = append(ordered, byTicker[key])
	}
	return ordered
}

// mergeGroups unions the transactions of several disjoint groups into one
// synthetic aggregate group. Cash handling follows the source lens.
func mergeGroups(groups []*Group, key string) *Group {
	merged := &Group{Key: key}
	for _, g := range groups {
		merged.Transactions = append(merged.Transactions, g.Transactions...)
		if g.IncludesCash {
			merged.IncludesCash = true
		}
	}
	return merged
}
