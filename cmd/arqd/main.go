// Command arqd runs a server that line-reverses whatever bytes each
// peer sends it, over the ARQ reliability layer. It exists as a manual
// test harness for the transport/arq packages, in the same spirit as
// the teacher repo's single-binary protocol servers.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eenblam/arqnet/arq"
	arqconfig "github.com/eenblam/arqnet/internal/config"
	arqlog "github.com/eenblam/arqnet/internal/log"
	"github.com/eenblam/arqnet/transport"
)

func main() {
	cmd := &cobra.Command{
		Use:   "arqd",
		Short: "run an ARQ reliability-layer echo/reverse server",
		RunE:  run,
	}
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := arqconfig.Load(ctx)
	if err != nil {
		return err
	}
	logger := arqlog.New(cfg.LogLevel)

	addr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("resolving listen address %q: %w", cfg.ListenAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}
	defer conn.Close()

	logger.Infof("arqd: listening on %s", conn.LocalAddr())

	handler := func(push func([]byte), pull func() ([]byte, error), peer string) error {
		iq := make(chan []byte, cfg.MaxPendingPackets)
		oq := make(chan []byte, cfg.MaxPendingPackets)
		sessionCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go reverseLines(sessionCtx, iq, oq)
		return arq.Run(sessionCtx, push, pull, peer, iq, oq,
			arq.Config{RetransmitDelay: time.Duration(cfg.RetransmitDelay)},
			logger.WithField("peer", peer),
		)
	}

	srv := transport.NewServer(conn, handler, cfg.MaxPendingPackets,
		time.Duration(cfg.DisconnectTimeout), logger.WithField("component", "server"))
	return srv.Serve(ctx)
}

// reverseLines reverses each chunk it receives on iq and writes the
// result to oq, a minimal stand-in application so arqd has observable
// behavior to drive by hand.
func reverseLines(ctx context.Context, iq <-chan []byte, oq chan<- []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case chunk := <-iq:
			select {
			case oq <- reverse(chunk):
			case <-ctx.Done():
				return
			}
		}
	}
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return bytes.TrimSpace(out)
}
