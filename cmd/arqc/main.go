// Command arqc dials a single peer and relays stdin/stdout through the
// ARQ reliability layer: every line typed is sent reliably to the peer,
// and whatever the peer sends back is printed.
package main

import (
	"bufio"
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
	var remote string

	cmd := &cobra.Command{
		Use:   "arqc",
		Short: "talk to an arqd server over the ARQ reliability layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, remote)
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "127.0.0.1:4321", "address of the arqd server")

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, remote string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := arqconfig.Load(ctx)
	if err != nil {
		return err
	}
	logger := arqlog.New(cfg.LogLevel)

	peer, err := net.ResolveUDPAddr("udp", remote)
	if err != nil {
		return fmt.Errorf("resolving remote address %q: %w", remote, err)
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return fmt.Errorf("opening local socket: %w", err)
	}
	defer conn.Close()

	client := transport.NewClient(conn, peer, time.Duration(cfg.DisconnectTimeout), logger.WithField("component", "client"))

	iq := make(chan []byte, cfg.MaxPendingPackets)
	oq := make(chan []byte, cfg.MaxPendingPackets)

	go feedStdin(ctx, oq)
	go printStdout(iq)

	return client.Run(func(push func([]byte), pull func() ([]byte, error), peerStr string) error {
		return arq.Run(ctx, push, pull, peerStr, iq, oq,
			arq.Config{RetransmitDelay: time.Duration(cfg.RetransmitDelay)},
			logger.WithField("peer", peerStr),
		)
	})
}

func feedStdin(ctx context.Context, oq chan<- []byte) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case oq <- line:
		case <-ctx.Done():
			return
		}
	}
}

func printStdout(iq <-chan []byte) {
	for payload := range iq {
		fmt.Println(string(payload))
	}
}
