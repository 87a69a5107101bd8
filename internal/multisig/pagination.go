package multisig

import (
	"context"
	"slices"

	"msigwallet/internal/domain"
)

// MaxPageLimit bounds the page size accepted from callers. A zero limit
// still selects the whole range.
const MaxPageLimit uint64 = 1000

// Page selects a window of proposals counted back from the newest one.
// An empty Status returns every proposal in the window.
type Page struct {
	Limit  uint64
	Skip   uint64
	Status domain.ProposalStatus
}

// PageRange returns the id range [from, to) for a page. When the window
// reaches the oldest transaction, to is total%limit, or limit when total is
// an exact multiple of limit; the latter can repeat ids already shown on a
// newer page when skip is not a multiple of limit. A zero limit selects
// everything. The result never extends past total.
func PageRange(total, limit, skip uint64) (from, to uint64) {
	if limit == 0 || limit > total {
		limit = total
	}
	if limit == 0 {
		return 0, 0
	}
	if skip < total && limit < total-skip {
		from = total - skip - limit
		return from, from + limit
	}
	if total%limit == 0 {
		return 0, limit
	}
	return 0, total % limit
}

// ListProposals reads one page of proposals, newest first. The status
// filter is applied after the range read.
func (c *Client) ListProposals(ctx context.Context, page Page) (domain.ProposalPage, error) {
	provider, err := c.reader(ctx)
	if err != nil {
		return domain.ProposalPage{}, err
	}
	total, err := provider.TransactionCount(ctx, c.wallet)
	if err != nil {
		return domain.ProposalPage{}, err
	}
	result := domain.ProposalPage{Items: []domain.Proposal{}, TotalCount: total}
	if page.Skip >= total {
		return result, nil
	}

	from, to := PageRange(total, page.Limit, page.Skip)
	required, err := provider.Required(ctx, c.wallet)
	if err != nil {
		return domain.ProposalPage{}, err
	}
	txs, err := provider.TransactionsInRange(ctx, c.wallet, from, to)
	if err != nil {
		return domain.ProposalPage{}, err
	}

	if page.Status != "" {
		wantExecuted := page.Status == domain.StatusExecuted
		txs = slices.DeleteFunc(txs, func(tx domain.Transaction) bool {
			return tx.Executed != wantExecuted
		})
	}
	slices.Reverse(txs)

	for _, tx := range txs {
		result.Items = append(result.Items, newProposal(tx, required))
	}
	return result, nil
}
