package multisig

import (
	"context"
	"fmt"
	"math"
	"testing"

	"msigwallet/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestPageRange(t *testing.T) {
	cases := []struct {
		total, limit, skip uint64
		from, to           uint64
	}{
		{25, 10, 0, 15, 25},
		{25, 10, 10, 5, 15},
		{25, 10, 20, 0, 5},
		{20, 10, 10, 0, 10},
		{20, 10, 15, 0, 10},
		{5, 10, 0, 0, 5},
		{30, 10, 0, 20, 30},
		{7, 0, 3, 0, 7},
		{0, 10, 0, 0, 0},
		{25, math.MaxUint64, 1, 0, 25},
		{25, math.MaxUint64 - 5, 10, 0, 25},
		{25, 10, math.MaxUint64, 0, 5},
		{math.MaxUint64, 10, 0, math.MaxUint64 - 10, math.MaxUint64},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d/%d/%d", tc.total, tc.limit, tc.skip), func(t *testing.T) {
			from, to := PageRange(tc.total, tc.limit, tc.skip)
			require.Equal(t, tc.from, from)
			require.Equal(t, tc.to, to)
			require.LessOrEqual(t, from, to)
			require.LessOrEqual(t, to, tc.total)
		})
	}
}

func proposalIDs(page domain.ProposalPage) []int64 {
	ids := make([]int64, 0, len(page.Items))
	for _, item := range page.Items {
		ids = append(ids, item.ID.Int64())
	}
	return ids
}

func TestListProposals_NewestFirst(t *testing.T) {
	chain := newMockChain(25, 2)
	client := newTestClient(t, chain, nil).Attach(walletAddr)

	page, err := client.ListProposals(context.Background(), Page{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, uint64(25), page.TotalCount)
	require.Equal(t, []int64{24, 23, 22, 21, 20, 19, 18, 17, 16, 15}, proposalIDs(page))
	require.Equal(t, [][2]uint64{{15, 25}}, chain.rangeCalls)

	for _, item := range page.Items {
		require.Equal(t, uint64(2), item.MinApprovals)
		require.Equal(t, DeriveStatus(item.Transaction), item.Status)
	}

	page, err = client.ListProposals(context.Background(), Page{Limit: 10, Skip: 20})
	require.NoError(t, err)
	require.Equal(t, []int64{4, 3, 2, 1, 0}, proposalIDs(page))
}

func TestListProposals_StatusFilterAfterRange(t *testing.T) {
	chain := newMockChain(25, 2)
	client := newTestClient(t, chain, nil).Attach(walletAddr)

	page, err := client.ListProposals(context.Background(), Page{Limit: 10, Status: domain.StatusExecuted})
	require.NoError(t, err)
	require.Equal(t, []int64{24, 21, 18, 15}, proposalIDs(page))
	require.Equal(t, uint64(25), page.TotalCount)

	page, err = client.ListProposals(context.Background(), Page{Limit: 10, Status: domain.StatusActive})
	require.NoError(t, err)
	require.Equal(t, []int64{23, 22, 20, 19, 17, 16}, proposalIDs(page))
	for _, item := range page.Items {
		require.Equal(t, domain.StatusActive, item.Status)
	}
}

func TestListProposals_SkipPastEnd(t *testing.T) {
	chain := newMockChain(5, 1)
	client := newTestClient(t, chain, nil).Attach(walletAddr)

	page, err := client.ListProposals(context.Background(), Page{Limit: 10, Skip: 5})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.NotNil(t, page.Items)
	require.Equal(t, uint64(5), page.TotalCount)
	require.Empty(t, chain.rangeCalls)
}

func TestListProposals_HugeLimitStaysInRange(t *testing.T) {
	chain := newMockChain(25, 2)
	client := newTestClient(t, chain, nil).Attach(walletAddr)

	page, err := client.ListProposals(context.Background(), Page{Limit: math.MaxUint64, Skip: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 25)
	require.Equal(t, [][2]uint64{{0, 25}}, chain.rangeCalls)
}

func TestListProposals_ExecutedMeetsThreshold(t *testing.T) {
	chain := newMockChain(12, 2)
	client := newTestClient(t, chain, nil).Attach(walletAddr)

	page, err := client.ListProposals(context.Background(), Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 12)
	for _, item := range page.Items {
		if item.Executed {
			require.True(t, MinimumReached(item.Transaction, item.MinApprovals), "proposal %s", item.ID)
		}
	}
}
