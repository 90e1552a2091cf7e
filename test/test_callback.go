package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	baseURL = "http://localhost:8080"
)

// Manual exercise for the worker callback path: signs a fake job result
// the way the worker would and posts it to /api/v1/jobs/callback. Run
// the server, connect a chat client with the printed chat id, then run
// this to watch the result arrive in the chat.
func main() {
	secret := os.Getenv("SIGNING_SECRET")
	if secret == "" {
		log.Fatal("SIGNING_SECRET must match the server")
	}
	chatID := os.Getenv("CHAT_ID")
	if chatID == "" {
		chatID = "42"
	}

	fmt.Printf("Posting fake result for chat %s...\n", chatID)

	payload, _ := json.Marshal(map[string]string{
		"chatId":    chatID,
		"resultUrl": "https://example.com/results/demo.png",
	})

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest("POST", baseURL+"/api/v1/jobs/callback", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", signature)
	req.Header.Set("X-Timestamp", timestamp)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("failed to send callback: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response Status: %d\n", resp.StatusCode)
	fmt.Printf("Response Body: %s\n", string(body))

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("callback failed with status %d", resp.StatusCode)
	}
	fmt.Println("Callback accepted.")
}
