package stack

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ledgerops/ilpctl/internal/config"
	"github.com/ledgerops/ilpctl/internal/launch"
)

func testConfig() *config.Config {
	return &config.Config{
		XRPAddress:  "rEXAMPLE",
		XRPSecret:   "sEXAMPLE",
		AdminToken:  "tok123",
		ILPAddress:  config.DefaultILPAddress,
		DataDir:     ".",
		LogFilter:   "interledger=debug",
		DebugFilter: "settlement*",
		StoreSocket: config.StoreSocket,
	}
}

// fakeSpawner records every spec it is asked to start and can be told to
// fail specific components.
type fakeSpawner struct {
	specs   []launch.Spec
	failFor map[string]error
	pid     int
}

func (f *fakeSpawner) Start(spec launch.Spec, events chan<- launch.Event) (*launch.Child, error) {
	f.specs = append(f.specs, spec)
	if err := f.failFor[spec.Component]; err != nil {
		return nil, err
	}
	f.pid++
	events <- launch.Spawned{Name: spec.Component, PID: f.pid}
	return &launch.Child{Component: spec.Component, PID: f.pid}, nil
}

func drain(o *Orchestrator) []launch.Event {
	out := make([]launch.Event, 0, 8)
	for {
		select {
		case ev := <-o.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

var stageOrder = []string{ComponentStore, ComponentSettlement, ComponentBootstrap, ComponentNode}

func TestRunIssuesStagesInOrder(t *testing.T) {
	spawner := &fakeSpawner{}
	o := New(testConfig(), spawner)
	o.Run(context.Background())

	if len(spawner.specs) != len(stageOrder) {
		t.Fatalf("unexpected spec count: %d", len(spawner.specs))
	}
	for i, want := range stageOrder {
		if spawner.specs[i].Component != want {
			t.Fatalf("stage %d: got %q want %q", i, spawner.specs[i].Component, want)
		}
	}

	events := drain(o)
	if len(events) != len(stageOrder) {
		t.Fatalf("unexpected event count: %d", len(events))
	}
	for i, want := range stageOrder {
		sp, ok := events[i].(launch.Spawned)
		if !ok {
			t.Fatalf("event %d: unexpected type %T", i, events[i])
		}
		if sp.Name != want {
			t.Fatalf("event %d: got %q want %q", i, sp.Name, want)
		}
	}
}

func TestSpawnFailureDoesNotBlockLaterStages(t *testing.T) {
	spawner := &fakeSpawner{
		failFor: map[string]error{ComponentStore: errors.New("redis-server: executable file not found")},
	}
	o := New(testConfig(), spawner)
	o.Run(context.Background())

	if len(spawner.specs) != len(stageOrder) {
		t.Fatalf("later stages were blocked, specs: %d", len(spawner.specs))
	}

	events := drain(o)
	fail, ok := events[0].(launch.SpawnFailed)
	if !ok {
		t.Fatalf("expected SpawnFailed first, got %T", events[0])
	}
	if fail.Name != ComponentStore {
		t.Fatalf("unexpected failed component: %q", fail.Name)
	}
	for _, ev := range events[1:] {
		if _, ok := ev.(launch.Spawned); !ok {
			t.Fatalf("unexpected event after failure: %#v", ev)
		}
	}
}

func TestSecretsNeverEnterChildEnvironments(t *testing.T) {
	cfg := testConfig()
	spawner := &fakeSpawner{}
	o := New(cfg, spawner)
	o.Run(context.Background())

	for _, spec := range spawner.specs {
		for _, kv := range spec.Env {
			if strings.Contains(kv, cfg.XRPSecret) || strings.Contains(kv, cfg.AdminToken) {
				t.Fatalf("%s: secret leaked into env: %q", spec.Component, kv)
			}
		}
	}

	byName := make(map[string]launch.Spec, len(spawner.specs))
	for _, spec := range spawner.specs {
		byName[spec.Component] = spec
	}

	if env := byName[ComponentStore].Env; env != nil {
		t.Fatalf("store env should inherit (nil), got %v", env)
	}
	wantEnv := map[string][]string{
		ComponentSettlement: {config.EnvDebugFilter + "=settlement*"},
		ComponentBootstrap:  {config.EnvLogFilter + "=interledger=debug"},
		ComponentNode:       {config.EnvLogFilter + "=interledger=debug"},
	}
	for name, want := range wantEnv {
		got := byName[name].Env
		if len(got) != len(want) || got[0] != want[0] {
			t.Fatalf("%s: unexpected env %v, want %v", name, got, want)
		}
	}
}

func TestNarrowEnvOmitsEmptyValues(t *testing.T) {
	cfg := testConfig()
	cfg.LogFilter = ""
	cfg.DebugFilter = ""
	spawner := &fakeSpawner{}
	o := New(cfg, spawner)
	o.Run(context.Background())

	for _, spec := range spawner.specs {
		if spec.Component == ComponentStore {
			continue
		}
		if spec.Env == nil {
			t.Fatalf("%s: env must stay non-nil to block inheritance", spec.Component)
		}
		if len(spec.Env) != 0 {
			t.Fatalf("%s: unexpected env %v", spec.Component, spec.Env)
		}
	}
}

func TestStageArguments(t *testing.T) {
	cfg := testConfig()
	spawner := &fakeSpawner{}
	o := New(cfg, spawner)
	o.Run(context.Background())

	byName := make(map[string]launch.Spec, len(spawner.specs))
	for _, spec := range spawner.specs {
		byName[spec.Component] = spec
	}

	store := byName[ComponentStore]
	if store.Path != "redis-server" {
		t.Fatalf("unexpected store executable: %q", store.Path)
	}
	storeArgs := strings.Join(store.Args, " ")
	for _, want := range []string{
		"--unixsocket " + cfg.StoreSocket,
		"--unixsocketperm 777",
		"--appendonly yes",
		"--appendfsync everysec",
		"--dir .",
	} {
		if !strings.Contains(storeArgs, want) {
			t.Fatalf("store args missing %q: %s", want, storeArgs)
		}
	}

	settlement := byName[ComponentSettlement]
	if settlement.Path != "ilp-settlement-xrp" {
		t.Fatalf("unexpected settlement executable: %q", settlement.Path)
	}
	wantSettlement := []string{
		"--redis=" + cfg.StoreSocket,
		"--address=rEXAMPLE",
		"--secret=sEXAMPLE",
	}
	for i, want := range wantSettlement {
		if settlement.Args[i] != want {
			t.Fatalf("settlement arg %d: got %q want %q", i, settlement.Args[i], want)
		}
	}

	bootstrap := byName[ComponentBootstrap]
	if bootstrap.Path != "ilp-node" {
		t.Fatalf("unexpected bootstrap executable: %q", bootstrap.Path)
	}
	bootstrapArgs := strings.Join(bootstrap.Args, " ")
	for _, want := range []string{
		"accounts add",
		"--redis_uri=unix:" + cfg.StoreSocket,
		"--ilp_address " + config.DefaultILPAddress,
		"--xrp_address rEXAMPLE",
		"--http_incoming_token tok123",
		"--asset_code XRP",
		"--asset_scale 9",
		"--admin",
	} {
		if !strings.Contains(bootstrapArgs, want) {
			t.Fatalf("bootstrap args missing %q: %s", want, bootstrapArgs)
		}
	}

	node := byName[ComponentNode]
	if node.Path != "ilp-node" {
		t.Fatalf("unexpected node executable: %q", node.Path)
	}
	if len(node.Args) != 1 || node.Args[0] != "--redis_uri=unix:"+cfg.StoreSocket {
		t.Fatalf("unexpected node args: %v", node.Args)
	}
}

func TestProbeFailureReportsAndContinues(t *testing.T) {
	spawner := &fakeSpawner{}
	o := New(testConfig(), spawner)
	o.SetProbe(ComponentSettlement, func(context.Context, *config.Config) error {
		return errors.New("store not reachable")
	})
	o.Run(context.Background())

	if len(spawner.specs) != 3 {
		t.Fatalf("unexpected spec count: %d", len(spawner.specs))
	}
	for _, spec := range spawner.specs {
		if spec.Component == ComponentSettlement {
			t.Fatalf("gated stage was launched anyway")
		}
	}

	var failed bool
	for _, ev := range drain(o) {
		if f, ok := ev.(launch.SpawnFailed); ok {
			if f.Name != ComponentSettlement {
				t.Fatalf("unexpected failed component: %q", f.Name)
			}
			failed = true
		}
	}
	if !failed {
		t.Fatalf("probe failure was not reported")
	}
}

func TestGateOnStoreWithReadyStore(t *testing.T) {
	cfg := testConfig()
	cfg.StoreSocket = filepath.Join(t.TempDir(), "redis.sock")
	ln, err := net.Listen("unix", cfg.StoreSocket)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	spawner := &fakeSpawner{}
	o := New(cfg, spawner)
	o.GateOnStore(time.Second)
	o.Run(context.Background())

	if len(spawner.specs) != len(stageOrder) {
		t.Fatalf("gating blocked stages: %d", len(spawner.specs))
	}
}

func TestSocketProbe(t *testing.T) {
	cfg := testConfig()
	cfg.StoreSocket = filepath.Join(t.TempDir(), "redis.sock")

	probe := SocketProbe(200 * time.Millisecond)
	if err := probe(context.Background(), cfg); err == nil {
		t.Fatalf("expected probe failure without listener")
	}

	ln, err := net.Listen("unix", cfg.StoreSocket)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	if err := probe(context.Background(), cfg); err != nil {
		t.Fatalf("probe with listener: %v", err)
	}
}
