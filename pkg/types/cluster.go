package types

import (
	"net/url"
	"slices"
	"strings"
)

// Cluster identifies the network an endpoint serves.
type Cluster string

const (
	ClusterMainnet  Cluster = "mainnet-beta"
	ClusterDevnet   Cluster = "devnet"
	ClusterTestnet  Cluster = "testnet"
	ClusterLocalnet Cluster = "localnet"
	ClusterCustom   Cluster = "custom"
)

var (
	mainnetHosts  = []string{"api.mainnet-beta.solana.com", "ssc-dao.genesysgo.net"}
	devnetHosts   = []string{"api.devnet.solana.com", "psytrbhymqlkfrhudd.dev.genesysgo.net"}
	testnetHosts  = []string{"api.testnet.solana.com"}
	localnetHosts = []string{"localhost", "127.0.0.1"}
)

// ResolveCluster infers the cluster from an RPC endpoint. Well-known hosts
// are matched first, then substrings of the whole URL.
func ResolveCluster(endpoint string) Cluster {
	if u, err := url.Parse(endpoint); err == nil {
		host := u.Hostname()
		switch {
		case slices.Contains(mainnetHosts, host):
			return ClusterMainnet
		case slices.Contains(devnetHosts, host):
			return ClusterDevnet
		case slices.Contains(testnetHosts, host):
			return ClusterTestnet
		case slices.Contains(localnetHosts, host):
			return ClusterLocalnet
		}
	}

	switch {
	case strings.Contains(endpoint, "mainnet"):
		return ClusterMainnet
	case strings.Contains(endpoint, "devnet"):
		return ClusterDevnet
	case strings.Contains(endpoint, "testnet"):
		return ClusterTestnet
	case strings.Contains(endpoint, "local"):
		return ClusterLocalnet
	default:
		return ClusterCustom
	}
}

// ExplorerURL returns a block explorer link for a signature.
func ExplorerURL(sig Signature, cluster Cluster) string {
	base := "https://explorer.solana.com/tx/" + sig.String()
	switch cluster {
	case ClusterMainnet:
		return base
	case ClusterLocalnet:
		return base + "?cluster=custom&customUrl=http%3A%2F%2Flocalhost%3A8899"
	case ClusterCustom:
		return base + "?cluster=custom"
	default:
		return base + "?cluster=" + string(cluster)
	}
}
