package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"collabnode/cob"
	"collabnode/node"
)

func newNodeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "node", Short: "ambient node diagnostics and protocol demonstration"}
	cmd.AddCommand(newNodeDiagnosticsCmd())
	cmd.AddCommand(newNodeSimulateCmd())
	return cmd
}

// newNodeDiagnosticsCmd serves the /healthz and /metrics ops surface
// (node.DiagnosticsMux) until interrupted — the one piece of the reactor
// boundary this CLI can drive without a real socket transport, which is an
// external collaborator.
func newNodeDiagnosticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics",
		Short: "serve /healthz and /metrics until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := viper.GetString("diagnostics.listen_addr")
			if addr == "" {
				addr = "127.0.0.1:8780"
			}
			metrics := node.NewMetrics()
			srv := &http.Server{Addr: addr, Handler: node.DiagnosticsMux(metrics)}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			fmt.Fprintf(cmd.OutOrStdout(), "diagnostics listening on %s\n", addr)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sig:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			}
		},
	}
}

// newNodeSimulateCmd replays a fixed handshake+keepalive+disconnect script
// against a fresh Service and prints the resulting outbox, demonstrating
// the S1/S6 scenarios: the output is deterministic across runs given the
// same rngSeed, since the Service's only randomness source is the seeded
// rand.Rand passed to NewService.
func newNodeSimulateCmd() *cobra.Command {
	var rngSeed int64
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "replay a deterministic handshake script and print the resulting outbox",
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := node.NewAddressBook(32)
			if err != nil {
				return err
			}
			signer, err := loadOrCreateSigner(dataDir)
			if err != nil {
				return err
			}
			magic := uint32(viper.GetInt64("network.magic"))
			if magic == 0 {
				magic = 0x52414431
			}
			cfg := node.Config{
				Magic:            magic,
				MaxPeers:         viper.GetInt("network.max_peers"),
				KeepaliveSecs:    30,
				IdleTimeoutSecs:  90,
				TickIntervalSecs: 10,
			}
			if cfg.MaxPeers == 0 {
				cfg.MaxPeers = 64
			}
			svc := node.NewService(cfg, book, cob.NewMockClock(), signer, rngSeed, node.NewMetrics(), log)
			if store, err := loadStore(dataDir, cob.NewMockClock()); err == nil {
				snap := store.Snapshot()
				refs := make([]string, 0, len(snap.Refs))
				for ref := range snap.Refs {
					refs = append(refs, string(ref))
				}
				svc.SetInventory(refs)
			}

			peerAddr := "203.0.113.10:8776"
			script := []node.SimStep{
				{Kind: "connected", Addr: peerAddr, Link: node.Outbound, Now: cob.NewPhysical(0)},
				{Kind: "message", Addr: peerAddr, Msg: node.Initialize{}, Now: cob.NewPhysical(1)},
				{Kind: "message", Addr: peerAddr, Msg: node.InventoryAnnouncement{}, Now: cob.NewPhysical(2)},
				{Kind: "message", Addr: peerAddr, Msg: node.Ping{Nonce: 7}, Now: cob.NewPhysical(3)},
				{Kind: "tick", Now: cob.NewPhysical(4)},
				{Kind: "disconnected", Addr: peerAddr, Now: cob.NewPhysical(5)},
			}
			reactor := &node.SimReactor{Steps: script}
			out := cmd.OutOrStdout()
			for _, io := range reactor.Run(svc) {
				fmt.Fprintf(out, "%d %+v\n", io.Kind, io)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&rngSeed, "rng-seed", 1, "seed for the service's address-sampling RNG")
	return cmd
}
