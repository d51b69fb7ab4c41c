package clmm

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// defaultPositionNFT is the built-in PositionNFT collaborator (spec §6): one
// instance can back multiple pools' position collections. It replaces the
// teacher's NFTPositionSimulator, which rebuilt position state by replaying
// NonfungiblePositionManager contract logs off an ethclient.Client — there is
// no external contract here to observe, since this package *is* the engine,
// so Mint/Burn/HolderOf are called directly by Pool rather than inferred
// from chain logs. What survives is the teacher's actual bookkeeping
// structure (tokenPositionManager) and its GORM persistence shape.
type defaultPositionNFT struct {
	collections map[Principal]string
	tokens      *tokenPositionManager
}

// NewDefaultPositionNFT returns an in-process PositionNFT collaborator.
func NewDefaultPositionNFT() PositionNFT {
	return &defaultPositionNFT{
		collections: map[Principal]string{},
		tokens:      newTokenPositionManager(),
	}
}

func (n *defaultPositionNFT) CreateCollection(poolAddress Principal, name string) error {
	if _, exists := n.collections[poolAddress]; exists {
		return fmt.Errorf("clmm: collection already exists for pool %s", poolAddress.Hex())
	}
	n.collections[poolAddress] = name
	logrus.Debugf("nft: created collection %q for pool %s", name, poolAddress.Hex())
	return nil
}

func (n *defaultPositionNFT) Mint(poolAddress Principal, positionIndex PositionIndex, owner Principal) error {
	name := n.PositionName(poolAddress, positionIndex)
	return n.tokens.mint(poolAddress, positionIndex, owner, name)
}

func (n *defaultPositionNFT) Burn(poolAddress Principal, positionIndex PositionIndex) error {
	return n.tokens.burn(poolAddress, positionIndex)
}

func (n *defaultPositionNFT) PositionName(poolIndex, positionIndex PositionIndex) string {
	return fmt.Sprintf("#%d", positionIndex)
}

func (n *defaultPositionNFT) HolderOf(poolAddress Principal, positionIndex PositionIndex) (Principal, error) {
	owner, ok := n.tokens.holderOf(positionIndex)
	if !ok {
		return Principal{}, ErrPositionNotExist
	}
	return owner, nil
}

// Transfer reassigns a position NFT's holder (not part of the PositionNFT
// interface, since the engine never initiates transfers itself, but exposed
// for a wallet/marketplace layer driving the same collaborator instance).
func (n *defaultPositionNFT) Transfer(positionIndex PositionIndex, from, to Principal) error {
	return n.tokens.transfer(positionIndex, from, to)
}

func (n *defaultPositionNFT) PositionsByOwner(owner Principal) []PositionIndex {
	return n.tokens.positionsByOwner(owner)
}

// Flush persists the NFT mirror, following the teacher's Flush(db
// *gorm.DB) pattern. internal/storage's snapshot tables do not include it.
func (n *defaultPositionNFT) Flush(db *gorm.DB) error {
	return db.Save(n.tokens).Error
}
