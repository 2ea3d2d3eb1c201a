package main

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	// Load env vars (JWT_SECRET, MEDLEDGER_DEK) from .env in dev setups.
	_ "github.com/joho/godotenv/autoload"

	"medledger/api/server"
	"medledger/core"
	"medledger/core/genesis"
	"medledger/core/mempool"
	"medledger/core/storage"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "medledgerd",
	Short: "medledger node daemon",
	Long:  "Runs a medledger node: validates and stores healthcare ledger transactions and blocks, gossips pending transactions to peers, and serves the HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "f", "", "config file (yaml)")
	rootCmd.PersistentFlags().String("listen", ":8080", "API listen address")
	rootCmd.PersistentFlags().String("datadir", "./data", "data directory for keys and chain store")
	rootCmd.PersistentFlags().String("genesis", "genesis.json", "genesis config path")
	rootCmd.PersistentFlags().Int("mempool-size", 10000, "max pending transactions")
	rootCmd.PersistentFlags().String("loglevel", "info", "log level (debug, info, warn, error)")
	for _, flag := range []string{"listen", "datadir", "genesis", "mempool-size", "loglevel"} {
		_ = viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("could not read config %s: %w", cfgFile, err)
		}
	}
	viper.SetEnvPrefix("MEDLEDGER")
	viper.AutomaticEnv()
	return nil
}

func initLogging(level string) {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

func run() error {
	if err := initConfig(); err != nil {
		return err
	}
	initLogging(viper.GetString("loglevel"))

	datadir := viper.GetString("datadir")
	if err := os.MkdirAll(datadir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	pub, _, err := core.GenerateAndSaveKeypair(datadir)
	if err != nil {
		return err
	}
	log.WithField("pubkey", fmt.Sprintf("%x", pub)).Info("node identity loaded")

	store, err := storage.NewStorage(datadir + "/chain")
	if err != nil {
		return err
	}
	defer store.Close()

	cfg, err := genesis.LoadConfig(viper.GetString("genesis"))
	if err != nil {
		return err
	}
	hasGenesis, err := store.HasGenesisBlock()
	if err != nil {
		return err
	}
	if !hasGenesis {
		gb, err := genesis.Build(cfg)
		if err != nil {
			return err
		}
		if err := store.SaveBlock(gb); err != nil {
			return err
		}
	}
	peers := mempool.NewPeerSet()
	for _, n := range cfg.Nodes() {
		peers.AddPeer(mempool.Peer{NodeID: n.NodeID, Endpoint: n.Endpoint})
	}

	pool := mempool.NewMempool(viper.GetInt("mempool-size"))
	gossip := mempool.NewGossipEngine(nil, pool)
	gossip.UpdatePeersFromSet(peers)

	// Prune pending consents that lapse before inclusion.
	go func() {
		for range time.Tick(time.Minute) {
			if n := pool.ExpireConsents(time.Now().UTC()); n > 0 {
				log.WithField("count", n).Info("expired pending consents")
			}
		}
	}()

	return server.NewServer(store, pool, gossip).ListenAndServe(viper.GetString("listen"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
