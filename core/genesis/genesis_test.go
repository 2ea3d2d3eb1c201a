package genesis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"medledger/core/ledger"
)

func testConfig() *Config {
	return &Config{
		ChainID:     "medledger-test",
		GenesisTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		InitialNodes: []NodeConfig{{
			NodeID:    "n-1",
			OrgName:   "General Hospital",
			PubKeyHex: strings.Repeat("ab", 32),
			Endpoint:  "ws://node1.example:9090",
		}},
		InitialParams: InitialParams{ProtocolVersion: "1.0"},
	}
}

func TestBuildGenesisBlock(t *testing.T) {
	b, err := Build(testConfig())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if b.Height != ledger.GenesisHeight {
		t.Errorf("genesis height should be %d, got %d", ledger.GenesisHeight, b.Height)
	}
	if b.PrevHash != nil {
		t.Error("genesis prevHash should be null")
	}
	if len(b.BlockHash) != ledger.HashHexLen {
		t.Errorf("blockHash should be %d hex chars, got %d", ledger.HashHexLen, len(b.BlockHash))
	}
	if err := b.Validate(); err != nil {
		t.Errorf("genesis block should satisfy the schema, got %v", err)
	}
}

func TestBuildRejectsInvalidNode(t *testing.T) {
	cfg := testConfig()
	cfg.InitialNodes[0].Endpoint = "not a url"
	if _, err := Build(cfg); err == nil {
		t.Error("config with a malformed node endpoint should not build")
	}

	cfg = testConfig()
	cfg.InitialNodes[0].PubKeyHex = "abcd"
	if _, err := Build(cfg); err == nil {
		t.Error("config with a short node pubkey should not build")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	content := `{
		"chainId": "medledger-test",
		"genesisTime": "2025-01-01T00:00:00Z",
		"initialNodes": [{
			"nodeId": "n-1", "orgName": "General Hospital",
			"pubKeyHex": "` + strings.Repeat("ab", 32) + `",
			"endpoint": "ws://node1.example:9090"
		}],
		"initialParams": {"protocolVersion": "1.0"}
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChainID != "medledger-test" {
		t.Errorf("unexpected chainId %q", cfg.ChainID)
	}
	nodes := cfg.Nodes()
	if len(nodes) != 1 || nodes[0].Active == nil || !*nodes[0].Active {
		t.Errorf("founding nodes should be active, got %+v", nodes)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing config file should fail")
	}
}
