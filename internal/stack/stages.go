// Package stack wires the four settlement-stack stages together: the Redis
// store, the XRP settlement engine, the one-shot admin account bootstrap,
// and the long-running ILP node.
package stack

import (
	"github.com/ledgerops/ilpctl/internal/config"
	"github.com/ledgerops/ilpctl/internal/launch"
)

// Component labels, used on every launch spec and lifecycle event.
const (
	ComponentStore      = "store"
	ComponentSettlement = "settlement-engine"
	ComponentBootstrap  = "bootstrap"
	ComponentNode       = "node"
)

// External executables. Their CLI surfaces are fixed contracts owned by the
// stack components themselves, not by this tool.
const (
	storeBin      = "redis-server"
	settlementBin = "ilp-settlement-xrp"
	nodeBin       = "ilp-node"
)

// The bootstrap account is always the XRP ledger account.
const (
	assetCode  = "XRP"
	assetScale = "9"
)

// storeSpec binds Redis to the shared Unix socket with append-only
// persistence synced every second. The store inherits the full environment;
// it receives no secrets either way.
func storeSpec(cfg *config.Config) launch.Spec {
	return launch.Spec{
		Component: ComponentStore,
		Path:      storeBin,
		Args: []string{
			"--unixsocket", cfg.StoreSocket,
			"--unixsocketperm", "777",
			"--appendonly", "yes",
			"--appendfsync", "everysec",
			"--dir", cfg.DataDir,
		},
		InheritStreams: true,
	}
}

// settlementSpec starts the XRP settlement engine. The ledger secret travels
// as an argument, never through the environment: the child env is narrowed
// to the DEBUG filter alone.
func settlementSpec(cfg *config.Config) launch.Spec {
	return launch.Spec{
		Component: ComponentSettlement,
		Path:      settlementBin,
		Args: []string{
			"--redis=" + cfg.StoreSocket,
			"--address=" + cfg.XRPAddress,
			"--secret=" + cfg.XRPSecret,
		},
		Env:            narrowEnv(config.EnvDebugFilter, cfg.DebugFilter),
		InheritStreams: true,
	}
}

// bootstrapSpec creates the admin account through the node CLI. Re-issued on
// every run; whether the store treats the duplicate as no-op or error is the
// store's business and only shows up in the exit event.
func bootstrapSpec(cfg *config.Config) launch.Spec {
	return launch.Spec{
		Component: ComponentBootstrap,
		Path:      nodeBin,
		Args: []string{
			"accounts", "add",
			"--redis_uri=unix:" + cfg.StoreSocket,
			"--ilp_address", cfg.ILPAddress,
			"--xrp_address", cfg.XRPAddress,
			"--http_incoming_token", cfg.AdminToken,
			"--asset_code", assetCode,
			"--asset_scale", assetScale,
			"--admin",
		},
		Env:            narrowEnv(config.EnvLogFilter, cfg.LogFilter),
		InheritStreams: true,
	}
}

// nodeSpec starts the traffic-serving node.
func nodeSpec(cfg *config.Config) launch.Spec {
	return launch.Spec{
		Component: ComponentNode,
		Path:      nodeBin,
		Args: []string{
			"--redis_uri=unix:" + cfg.StoreSocket,
		},
		Env:            narrowEnv(config.EnvLogFilter, cfg.LogFilter),
		InheritStreams: true,
	}
}

// narrowEnv builds a child environment holding at most one variable. The
// slice is non-nil even when empty so the parent environment is never
// inherited.
func narrowEnv(key, value string) []string {
	env := make([]string, 0, 1)
	if value != "" {
		env = append(env, key+"="+value)
	}
	return env
}
