// Command ledger manages a local staking ledger: key generation, genesis,
// applying and predicting batches of actions, and state snapshots.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/tolelom/stakeledger/config"
	"github.com/tolelom/stakeledger/core"
	"github.com/tolelom/stakeledger/events"
	"github.com/tolelom/stakeledger/indexer"
	ledgerlog "github.com/tolelom/stakeledger/internal/logging"
	"github.com/tolelom/stakeledger/node"
	"github.com/tolelom/stakeledger/storage"
	"github.com/tolelom/stakeledger/tables"
	"github.com/tolelom/stakeledger/vm"
	"github.com/tolelom/stakeledger/wallet"

	// Import VM modules to trigger their init() self-registration.
	_ "github.com/tolelom/stakeledger/vm/modules/avatar"
	_ "github.com/tolelom/stakeledger/vm/modules/craft"
	_ "github.com/tolelom/stakeledger/vm/modules/economy"
	_ "github.com/tolelom/stakeledger/vm/modules/stake"
)

var log = logging.Logger("ledger")

func main() {
	cfgPath := flag.String("config", "ledger.toml", "path to config file")
	keyPath := flag.String("key", "ledger.key", "path to keystore file")
	genKey := flag.Bool("genkey", false, "generate a new key and exit")
	initChain := flag.Bool("init", false, "write the genesis block if the chain is empty")
	applyPath := flag.String("apply", "", "apply a JSON batch of transactions as one block")
	predictPath := flag.String("predict", "", "print the addresses each transaction of a JSON batch would write")
	exportPath := flag.String("export", "", "export committed state to a zstd snapshot")
	importPath := flag.String("import", "", "load a zstd snapshot into an empty ledger before -init")
	flag.Parse()

	// Read keystore password from environment (not CLI flags; they leak via ps).
	password := os.Getenv("LEDGER_PASSWORD")

	if *genKey {
		w, err := wallet.Generate()
		if err != nil {
			fatal(err)
		}
		if err := wallet.SaveKey(*keyPath, password, w.PrivKey()); err != nil {
			fatal(err)
		}
		fmt.Printf("address: %s\nsaved to: %s\n", w.Address(), *keyPath)
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}
	if err := ledgerlog.Setup(cfg.LogLevel); err != nil {
		fatal(err)
	}

	if *predictPath != "" {
		if err := predict(cfg, *keyPath, password, *predictPath); err != nil {
			fatal(err)
		}
		return
	}

	app, err := open(cfg)
	if err != nil {
		fatal(err)
	}
	defer app.Close()

	switch {
	case *initChain:
		miner, err := loadWallet(*keyPath, password)
		if err != nil {
			fatal(err)
		}
		app.producer = node.NewProducer(app.bc, app.sdb, app.exec, app.emitter, miner.Address())
		block, err := app.producer.InitGenesis(cfg)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("genesis %s state_root %s\n", block.Hash, block.Header.StateRoot)
	case *applyPath != "":
		w, err := loadWallet(*keyPath, password)
		if err != nil {
			fatal(err)
		}
		now := time.Now().Unix()
		txs, err := loadBatch(*applyPath, w, now)
		if err != nil {
			fatal(err)
		}
		app.producer = node.NewProducer(app.bc, app.sdb, app.exec, app.emitter, w.Address())
		block, results, err := app.producer.Produce(now, txs)
		if err != nil {
			fatal(err)
		}
		printJSON(applyReport(block, results))
	case *exportPath != "":
		f, err := os.Create(*exportPath)
		if err != nil {
			fatal(err)
		}
		n, err := storage.ExportSnapshot(app.db, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			fatal(err)
		}
		fmt.Printf("exported %d entries to %s\n", n, *exportPath)
	case *importPath != "":
		n, err := app.importSnapshot(*importPath)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("imported %d entries from %s\n", n, *importPath)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

type app struct {
	raw      *storage.LevelDB
	db       storage.DB
	bc       *core.Blockchain
	sdb      *storage.StateDB
	exec     *vm.Executor
	emitter  *events.Emitter
	idx      *indexer.Indexer
	producer *node.Producer
}

func open(cfg *config.Config) (*app, error) {
	tbl, err := loadTables(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	raw, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "chain"))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	a := &app{raw: raw, db: raw, emitter: events.NewEmitter()}
	if cfg.CacheSize > 0 {
		cached, err := storage.NewCachedDB(raw, cfg.CacheSize)
		if err != nil {
			_ = raw.Close()
			return nil, err
		}
		a.db = cached
	}

	a.bc = core.NewBlockchain(storage.NewBlockStore(a.db))
	if err := a.bc.Init(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("blockchain init: %w", err)
	}
	a.sdb = storage.NewStateDB(a.db)
	if a.exec, err = newExecutor(cfg, tbl); err != nil {
		_ = raw.Close()
		return nil, err
	}

	if cfg.IndexDB != "" {
		if a.idx, err = indexer.Open(cfg.IndexDB, a.emitter); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("open index: %w", err)
		}
	}
	log.Debugw("ledger opened", "data_dir", cfg.DataDir, "tip", a.bc.Index())
	return a, nil
}

func (a *app) Close() {
	if a.idx != nil {
		_ = a.idx.Close()
	}
	_ = a.raw.Close()
}

// importSnapshot seeds the state of a ledger that has no blocks yet.
func (a *app) importSnapshot(path string) (int, error) {
	if tip := a.bc.Tip(); tip != nil {
		return 0, fmt.Errorf("ledger already has blocks up to %d", tip.Header.Index)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return storage.ImportSnapshot(a.db, f)
}

func newExecutor(cfg *config.Config, tbl *tables.Set) (*vm.Executor, error) {
	gold, err := cfg.Genesis.Currency()
	if err != nil {
		return nil, err
	}
	exec := vm.NewExecutor(nil, tbl)
	exec.SetRehearsalCurrency(gold)
	return exec, nil
}

func loadTables(cfg *config.Config) (*tables.Set, error) {
	if cfg.TablesFile == "" {
		return tables.Default()
	}
	return tables.LoadFile(cfg.TablesFile)
}

func loadWallet(path, password string) (*wallet.Wallet, error) {
	addr, err := wallet.KeystoreAddress(path)
	if errors.Is(err, wallet.ErrKeystoreVersion) {
		return nil, fmt.Errorf("key %s: %w (this build reads version %d)", path, err, wallet.KeystoreVersion)
	} else if err != nil {
		return nil, fmt.Errorf("load key: %w", err)
	}
	priv, err := wallet.LoadKey(path, password)
	if err != nil {
		return nil, fmt.Errorf("unlock key %s: %w", addr, err)
	}
	log.Debugw("key unlocked", "address", addr)
	return wallet.New(priv), nil
}

// predict rehearses a batch without opening the ledger.
func predict(cfg *config.Config, keyPath, password, batchPath string) error {
	tbl, err := loadTables(cfg)
	if err != nil {
		return err
	}
	w, err := loadWallet(keyPath, password)
	if err != nil {
		return err
	}
	txs, err := loadBatch(batchPath, w, time.Now().Unix())
	if err != nil {
		return err
	}
	exec, err := newExecutor(cfg, tbl)
	if err != nil {
		return err
	}
	preds := make([]vm.Prediction, len(txs))
	for i, tx := range txs {
		if preds[i], err = exec.Predict(tx); err != nil {
			return err
		}
	}
	printJSON(predictReport(preds))
	return nil
}

type txReport struct {
	TxID    string            `json:"tx_id"`
	Applied bool              `json:"applied"`
	Error   string            `json:"error,omitempty"`
	Actions []vm.ActionResult `json:"actions,omitempty"`
}

type blockReport struct {
	Index     int64      `json:"index"`
	Hash      string     `json:"hash"`
	StateRoot string     `json:"state_root"`
	Txs       []txReport `json:"txs"`
}

func applyReport(block *core.Block, results []*vm.TxResult) blockReport {
	r := blockReport{Index: block.Header.Index, Hash: block.Hash, StateRoot: block.Header.StateRoot}
	for _, res := range results {
		tr := txReport{TxID: res.TxID, Applied: res.Err == nil, Actions: res.Actions}
		if res.Err != nil {
			tr.Error = res.Err.Error()
		}
		r.Txs = append(r.Txs, tr)
	}
	return r
}

type predictionReport struct {
	Predictions []vm.Prediction `json:"predictions"`
	Conflicts   [][2]string     `json:"conflicts,omitempty"`
}

func predictReport(preds []vm.Prediction) predictionReport {
	r := predictionReport{Predictions: preds}
	for i := range preds {
		for j := i + 1; j < len(preds); j++ {
			if preds[i].Conflicts(preds[j]) {
				r.Conflicts = append(r.Conflicts, [2]string{preds[i].TxID, preds[j].TxID})
			}
		}
	}
	return r
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	log.Errorw("ledger failed", "err", err)
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
