// Package resolver picks a round winner from a snapshot of comments.
package resolver

import (
	"regexp"

	"TokenArena/internal/model"
)

var walletPattern = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)

// ExtractWallet returns the first EVM-style address found in text.
func ExtractWallet(text string) (string, bool) {
	addr := walletPattern.FindString(text)
	return addr, addr != ""
}

// Resolve returns the first entry, in the given order, whose content carries
// a wallet address. Entries are expected pre-sorted by score; Resolve never
// re-sorts. The returned entry has Wallet set.
func Resolve(entries []model.Entry) (model.Entry, bool) {
	for _, e := range entries {
		if addr, ok := ExtractWallet(e.Content); ok {
			e.Wallet = addr
			return e, true
		}
	}
	return model.Entry{}, false
}

// Annotate returns a copy of entries with Wallet filled where an address is
// present, and the number of such entries.
func Annotate(entries []model.Entry) ([]model.Entry, int) {
	out := make([]model.Entry, len(entries))
	valid := 0
	for i, e := range entries {
		if addr, ok := ExtractWallet(e.Content); ok {
			e.Wallet = addr
			valid++
		}
		out[i] = e
	}
	return out, valid
}

// FirstWithWallet returns the first entry of an Annotate result that carries
// a wallet. It does not evaluate the pattern again.
func FirstWithWallet(annotated []model.Entry) (model.Entry, bool) {
	for _, e := range annotated {
		if e.Wallet != "" {
			return e, true
		}
	}
	return model.Entry{}, false
}
