package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	ws "nhooyr.io/websocket"

	"barnabee/brain/internal/auth"
)

// Smoke client for the satellite WebSocket path: opens a session,
// sends one transcript and prints the pushed reply.
func main() {
	addr := flag.String("addr", "ws://localhost:1880/ws/satellite", "Satellite WS URL")
	secret := flag.String("secret", "", "Satellite token secret (SATELLITE_TOKEN_SECRET)")
	sessionID := flag.String("session", "test-e2e-"+time.Now().Format("150405"), "Session ID")
	text := flag.String("text", "barnabee what is 15 plus 27", "Transcript text to send")
	timeout := flag.Duration("timeout", 30*time.Second, "Timeout for the reply")
	flag.Parse()

	if *secret == "" {
		log.Fatal("missing -secret")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := auth.GenerateSatelliteToken(*secret, *sessionID, time.Now().Add(time.Minute).Unix())
	if err != nil {
		log.Fatalf("token: %v", err)
	}

	url := *addr + "?session_id=" + *sessionID
	c, _, err := ws.Dial(ctx, url, &ws.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		log.Fatalf("dial %s: %v", url, err)
	}
	defer c.Close(ws.StatusNormalClosure, "done")

	fmt.Printf("=== Satellite E2E Test ===\n")
	fmt.Printf("Session: %s\n", *sessionID)
	fmt.Printf("Text: %q\n\n", *text)

	msg := map[string]any{
		"type":  "transcript",
		"ts_ms": time.Now().UnixMilli(),
		"seq":   1,
		"text":  *text,
	}
	b, _ := json.Marshal(msg)
	fmt.Println("[1] Sending transcript...")
	if err := c.Write(ctx, ws.MessageText, b); err != nil {
		log.Fatalf("send transcript: %v", err)
	}

	fmt.Println("[*] Waiting for reply...")
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			log.Fatalf("recv: %v", err)
		}
		var reply struct {
			Type    string         `json:"type"`
			Text    string         `json:"text"`
			Payload map[string]any `json:"payload"`
		}
		if err := json.Unmarshal(data, &reply); err != nil {
			log.Printf("skip malformed frame: %v", err)
			continue
		}
		if reply.Type != "reply" {
			continue
		}
		ts := time.Now().Format("15:04:05.000")
		fmt.Printf("[%s] <- reply: %q\n", ts, reply.Text)
		if ind, ok := reply.Payload["indicator"]; ok {
			fmt.Printf("    indicator=%v processing_ms=%v\n", ind, reply.Payload["processing_ms"])
		}
		return
	}
}
