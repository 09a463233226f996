package merkle

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout-settlement/internal/domain"
)

func claim(wallet string, amount int64) *domain.ProvableClaim {
	return &domain.ProvableClaim{
		WalletAddress: common.HexToAddress(wallet),
		Amount:        big.NewInt(amount),
	}
}

func claimSet(n int) []*domain.ProvableClaim {
	claims := make([]*domain.ProvableClaim, n)
	for i := range claims {
		claims[i] = claim(fmt.Sprintf("0x%040x", i+1), int64(100+i))
	}
	return claims
}

func TestBuildTree_SingleClaim(t *testing.T) {
	c := claim("0x1111111111111111111111111111111111111111", 42)

	tree, err := BuildTree([]*domain.ProvableClaim{c})
	require.NoError(t, err)

	proof, ok := tree.ProofFor(c.WalletAddress)
	require.True(t, ok)
	assert.Empty(t, proof)
	assert.True(t, Verify(tree.Root(), c, proof))
}

func TestBuildTree_EveryProofVerifies(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 13, 100} {
		claims := claimSet(n)
		tree, err := BuildTree(claims)
		require.NoError(t, err, "n=%d", n)

		for _, c := range claims {
			proof, ok := tree.ProofFor(c.WalletAddress)
			require.True(t, ok, "n=%d wallet=%s", n, c.WalletAddress)
			assert.True(t, Verify(tree.Root(), c, proof), "n=%d wallet=%s", n, c.WalletAddress)
		}
	}
}

func TestBuildTree_RootIndependentOfInputOrder(t *testing.T) {
	claims := claimSet(7)
	tree, err := BuildTree(claims)
	require.NoError(t, err)

	reversed := make([]*domain.ProvableClaim, len(claims))
	for i, c := range claims {
		reversed[len(claims)-1-i] = c
	}
	tree2, err := BuildTree(reversed)
	require.NoError(t, err)

	assert.Equal(t, tree.Root(), tree2.Root())
}

func TestBuildTree_RootIsByteIdenticalAcrossRuns(t *testing.T) {
	first, err := BuildTree(claimSet(25))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := BuildTree(claimSet(25))
		require.NoError(t, err)
		assert.Equal(t, first.Root(), again.Root())
	}
}

func TestVerify_TamperedAmountFails(t *testing.T) {
	claims := claimSet(9)
	tree, err := BuildTree(claims)
	require.NoError(t, err)

	victim := claims[4]
	proof, ok := tree.ProofFor(victim.WalletAddress)
	require.True(t, ok)

	tampered := &domain.ProvableClaim{
		WalletAddress: victim.WalletAddress,
		Amount:        new(big.Int).Add(victim.Amount, big.NewInt(1)),
	}
	assert.False(t, Verify(tree.Root(), tampered, proof))
	assert.True(t, Verify(tree.Root(), victim, proof))
}

func TestVerify_WrongWalletFails(t *testing.T) {
	claims := claimSet(4)
	tree, err := BuildTree(claims)
	require.NoError(t, err)

	proof, ok := tree.ProofFor(claims[0].WalletAddress)
	require.True(t, ok)

	stolen := &domain.ProvableClaim{
		WalletAddress: common.HexToAddress("0xdeaddeaddeaddeaddeaddeaddeaddeaddeaddead"),
		Amount:        claims[0].Amount,
	}
	assert.False(t, Verify(tree.Root(), stolen, proof))
}

func TestProofFor_UnknownWallet(t *testing.T) {
	tree, err := BuildTree(claimSet(3))
	require.NoError(t, err)

	_, ok := tree.ProofFor(common.HexToAddress("0xdeaddeaddeaddeaddeaddeaddeaddeaddeaddead"))
	assert.False(t, ok)
}

func TestBuildTree_RejectsEmptySet(t *testing.T) {
	_, err := BuildTree(nil)
	assert.ErrorIs(t, err, ErrNoClaims)
}

func TestBuildTree_RejectsDuplicateWallet(t *testing.T) {
	claims := []*domain.ProvableClaim{
		claim("0x1111111111111111111111111111111111111111", 10),
		claim("0x1111111111111111111111111111111111111111", 20),
	}
	_, err := BuildTree(claims)
	assert.ErrorIs(t, err, ErrDuplicateWallet)
}

func TestBuildTree_RejectsNonPositiveAmount(t *testing.T) {
	_, err := BuildTree([]*domain.ProvableClaim{claim("0x1111111111111111111111111111111111111111", 0)})
	assert.ErrorIs(t, err, ErrNonPositiveAmount)

	_, err = BuildTree([]*domain.ProvableClaim{claim("0x1111111111111111111111111111111111111111", -5)})
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
}
