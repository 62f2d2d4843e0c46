// Package network describes the chain that minted identities are registered on.
package network

import (
	"strings"

	"parsid/internal/identity/models"
)

const (
	DefaultName        = "Pars Network"
	DefaultChainID     = 494949
	DefaultRPCURL      = "https://rpc.pars.network"
	DefaultExplorerURL = "https://explore.pars.network"
	DefaultSymbol      = "PARS"

	HandleSuffix = ".pars"
	DIDMethod    = "pars"
)

// Network is the static descriptor of a deployment target.
type Network struct {
	Name        string
	ChainID     int64
	RPCURL      string
	ExplorerURL string
	Symbol      string
}

// Default returns the Pars mainnet descriptor.
func Default() Network {
	return Network{
		Name:        DefaultName,
		ChainID:     DefaultChainID,
		RPCURL:      DefaultRPCURL,
		ExplorerURL: DefaultExplorerURL,
		Symbol:      DefaultSymbol,
	}
}

// ExplorerLink returns the explorer page of an identity.
func (n Network) ExplorerLink(identityHex string) string {
	return strings.TrimRight(n.ExplorerURL, "/") + "/identity/" + identityHex
}

// DID returns the decentralized identifier of an identity.
func (n Network) DID(identityHex string) string {
	return "did:" + DIDMethod + ":" + identityHex
}

// QualifyHandle renders a bare handle as "@<handle>.pars".
func QualifyHandle(handle string) string {
	return "@" + handle + HandleSuffix
}

// NormalizeHandle lowercases user input and strips any "@" prefix or
// network suffix before validation.
func NormalizeHandle(raw string) string {
	return models.NormalizeHandleInput(raw, HandleSuffix)
}
