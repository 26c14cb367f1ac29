// Package httphandler exposes the sale contract's read-only projections over
// HTTP. Handlers never mutate chain state.
package httphandler

import (
	"github.com/ovl-network/ido-engine/core/chain"
	"github.com/ovl-network/ido-engine/modules/sale"
)

type HttpHandler struct {
	saleContract *sale.Contract
	chain        *chain.Chain
}

func New(saleContract *sale.Contract, chain *chain.Chain) *HttpHandler {
	return &HttpHandler{
		saleContract: saleContract,
		chain:        chain,
	}
}
