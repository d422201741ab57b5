// Command ws_chat is a terminal client for manual testing: it registers
// an identity, prints every frame grouped by topic, and sends each stdin
// line as a chat message.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/pjsousa/hello-stomp-live/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	me := flag.String("me", "🐶", "identity to register")
	target := flag.String("target", "EVERYONE", "default message target")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(frameType string, data any) error {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", frameType, err)
		}
		return wsjson.Write(ctx, conn, proto.Inbound{Type: frameType, Data: raw})
	}

	if err := send(proto.InboundTypeRegister, proto.RegisterData{
		Me:       *me,
		Protocol: proto.ProtocolVersion,
	}); err != nil {
		return err
	}

	go func() {
		for {
			var outbound proto.Outbound
			if err := wsjson.Read(ctx, conn, &outbound); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Printf("read: %v", err)
				}
				cancel()
				return
			}
			data, _ := json.Marshal(outbound.Data)
			fmt.Printf("%s %s\n", outbound.Topic, data)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := send(proto.InboundTypeSend, proto.SendData{
			Target:  *target,
			Content: line,
		}); err != nil {
			return err
		}
	}

	<-ctx.Done()
	return nil
}
