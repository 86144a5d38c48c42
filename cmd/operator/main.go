// operator runs the off-chain matching operator: pebble-backed order
// store, match planning, and the HTTP/WS API.
package main

import (
	"flag"
	"fmt"
	"os"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/aurora-markets/aurora/params"
	"github.com/aurora-markets/aurora/pkg/api"
	"github.com/aurora-markets/aurora/pkg/ledger"
	"github.com/aurora-markets/aurora/pkg/operator"
	"github.com/aurora-markets/aurora/pkg/util"
)

func main() {
	envPath := flag.String("env", "", "path to .env file (empty = ./.env)")
	flag.Parse()

	cfg := params.LoadFromEnv(*envPath)

	var log *zap.Logger
	var err error
	if cfg.Operator.LogFile != "" {
		log, err = util.NewLoggerWithFile(cfg.Operator.LogFile, cfg.Operator.LogLevel)
	} else {
		log, err = util.NewLogger(cfg.Operator.LogLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	programID, err := ledger.PubkeyFromHex(cfg.Ledger.ProgramID)
	if err != nil {
		log.Fatal("LEDGER_PROGRAM_ID invalid", zap.Error(err))
	}
	operatorKey, err := ledger.PubkeyFromHex(cfg.Ledger.OperatorKey)
	if err != nil {
		log.Fatal("LEDGER_OPERATOR_KEY invalid", zap.Error(err))
	}

	store, err := operator.NewStore(cfg.Operator.DBPath)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	svc := operator.NewService(store, log, util.RealClock{}, programID, operatorKey, deriveFor(programID))
	server := api.NewServer(svc, log)

	log.Info("operator starting",
		zap.String("listen", cfg.Operator.ListenAddr),
		zap.String("db", cfg.Operator.DBPath),
		zap.String("program", programID.Hex()))
	if err := server.Start(cfg.Operator.ListenAddr, cfg.Operator.AllowedOrigins); err != nil {
		log.Fatal("api server", zap.Error(err))
	}
}

// deriveFor is a keccak-based stand-in for the ledger integration's real
// address derivation. Addresses it produces are internally consistent but
// will not match on-ledger addresses until the integration supplies its
// own Derive.
func deriveFor(programID ledger.Pubkey) ledger.Derive {
	return func(seeds ...[]byte) (ledger.Pubkey, uint8) {
		parts := make([][]byte, 0, len(seeds)+1)
		parts = append(parts, seeds...)
		parts = append(parts, programID[:])
		var out ledger.Pubkey
		copy(out[:], ethcrypto.Keccak256(parts...))
		return out, 255
	}
}
