// sign-order creates an Ed25519 keypair (or loads one from a seed),
// builds an order from flags, signs it, and prints the canonical wire
// encoding ready for POST /api/v1/orders.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/aurora-markets/aurora/pkg/crypto"
	"github.com/aurora-markets/aurora/pkg/ledger"
	"github.com/aurora-markets/aurora/pkg/order"
)

func main() {
	seedHex := flag.String("seed", "", "hex-encoded 32-byte seed (empty = generate)")
	marketHex := flag.String("market", "", "market address, hex")
	baseHex := flag.String("base-mint", "", "base mint address, hex")
	quoteHex := flag.String("quote-mint", "", "quote mint address, hex")
	sideStr := flag.String("side", "bid", "bid or ask")
	makerAmount := flag.Uint64("maker-amount", 0, "amount the signer gives")
	takerAmount := flag.Uint64("taker-amount", 0, "amount the signer wants")
	nonce := flag.Uint64("nonce", 1, "order nonce")
	expiration := flag.Uint64("expiration", 0, "unix expiry (0 = never)")
	flag.Parse()

	var kp *crypto.Keypair
	var err error
	if *seedHex == "" {
		kp, err = crypto.GenerateKeypair()
		if err != nil {
			fatal("generate keypair: %v", err)
		}
		fmt.Printf("Generated seed: %s (KEEP SECRET!)\n", kp.SeedHex())
	} else {
		kp, err = crypto.FromSeedHex(*seedHex)
		if err != nil {
			fatal("load keypair: %v", err)
		}
	}
	fmt.Printf("Signer: %s\n\n", kp.Public().Hex())

	params := order.Params{
		Nonce:       *nonce,
		Maker:       kp.Public(),
		Market:      mustPubkey("market", *marketHex),
		BaseMint:    mustPubkey("base-mint", *baseHex),
		QuoteMint:   mustPubkey("quote-mint", *quoteHex),
		MakerAmount: *makerAmount,
		TakerAmount: *takerAmount,
		Expiration:  *expiration,
	}

	var o order.Order
	switch *sideStr {
	case "bid":
		o = order.NewBid(params)
	case "ask":
		o = order.NewAsk(params)
	default:
		fatal("side must be bid or ask, got %q", *sideStr)
	}

	signed, err := order.SignAndAttach(o, kp.Private())
	if err != nil {
		fatal("sign: %v", err)
	}

	hash := signed.Hash()
	full := signed.EncodeFull()

	fmt.Printf("Order hash: %x\n", hash)
	fmt.Printf("Signature:  %s\n\n", signed.Signature.Hex())
	fmt.Printf("Canonical encoding (%d bytes):\n%x\n\n", len(full), full)

	body, err := json.MarshalIndent(map[string]string{"order": fmt.Sprintf("%x", full)}, "", "  ")
	if err != nil {
		fatal("marshal: %v", err)
	}
	fmt.Println("Submit body:")
	fmt.Println(string(body))

	if !order.Verify(signed) {
		fatal("signature did not verify after signing")
	}
	fmt.Println("\nSignature verified OK")
}

func mustPubkey(name, hexStr string) ledger.Pubkey {
	p, err := ledger.PubkeyFromHex(hexStr)
	if err != nil {
		fatal("invalid -%s: %v", name, err)
	}
	return p
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
