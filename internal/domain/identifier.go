package domain

import (
	"regexp"
	"strings"
)

type IdentifierKind string

const (
	KindGuest  IdentifierKind = "guest"
	KindWallet IdentifierKind = "wallet"
)

var walletAddressRe = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// CartIdentifier selects the storage backend that owns a cart.
// A guest cart and a wallet cart never share a storage object.
type CartIdentifier struct {
	Kind IdentifierKind `json:"type"`
	ID   string         `json:"id"`
}

func GuestIdentifier(sessionID string) (CartIdentifier, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CartIdentifier{}, Invalid("sessionId", "guest session id is empty")
	}
	return CartIdentifier{Kind: KindGuest, ID: sessionID}, nil
}

func WalletIdentifier(address string) (CartIdentifier, error) {
	addr := NormalizeWalletAddress(address)
	if addr == "" {
		return CartIdentifier{}, Invalid("walletId", "wallet address is empty")
	}
	if !walletAddressRe.MatchString(addr) {
		return CartIdentifier{}, Invalid("walletId", "wallet address is not a 0x-prefixed 20-byte hex address")
	}
	return CartIdentifier{Kind: KindWallet, ID: addr}, nil
}

func NormalizeWalletAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func (id CartIdentifier) IsWallet() bool {
	return id.Kind == KindWallet
}

func (id CartIdentifier) String() string {
	return string(id.Kind) + "/" + id.ID
}
