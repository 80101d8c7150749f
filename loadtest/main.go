package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BaseURL   = "http://localhost:8080"
	WSURL     = "ws://localhost:8080/ws"
	RoomCount = 50 // ⚠️ Start small. Database might choke on hundreds immediately.
	RoomSize  = 4  // Members per room
	MsgCount  = 20 // Messages per member
)

type roomResponse struct {
	Code string `json:"code"`
}

func main() {
	log.Printf("🔥 STARTING STRESS TEST: %d Rooms x %d Members, %d Messages each...", RoomCount, RoomSize, MsgCount)
	var wg sync.WaitGroup

	for i := 0; i < RoomCount; i++ {
		wg.Add(1)
		go func(roomID int) {
			defer wg.Done()
			runRoom(roomID)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runRoom(roomID int) {
	creator := fmt.Sprintf("u_%d_0", roomID)
	code := createRoom(creator)
	if code == "" {
		return
	}

	var wsWg sync.WaitGroup
	wsWg.Add(RoomSize)
	for m := 0; m < RoomSize; m++ {
		user := fmt.Sprintf("u_%d_%d", roomID, m)
		go spamChat(&wsWg, code, user)
	}
	wsWg.Wait()
}

func createRoom(username string) string {
	body, _ := json.Marshal(map[string]any{
		"name":     "loadtest",
		"username": username,
		"public":   false,
	})
	resp, err := http.Post(BaseURL+"/api/rooms", "application/json", bytes.NewBuffer(body))
	if err != nil || resp.StatusCode != http.StatusCreated {
		log.Printf("❌ Create Room Failed: %v", err)
		return ""
	}
	defer resp.Body.Close()

	var data roomResponse
	json.NewDecoder(resp.Body).Decode(&data)
	return data.Code
}

func spamChat(wg *sync.WaitGroup, code, user string) {
	defer wg.Done()

	url := fmt.Sprintf("%s/%s?username=%s", WSURL, code, user)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", user, err)
		return
	}
	defer conn.Close()

	// Drain inbound frames so the server never sees us as a slow reader
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < MsgCount; i++ {
		msg := map[string]string{
			"username": user,
			"message":  fmt.Sprintf("LoadTest Msg %d from %s", i, user),
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("❌ Send Fail [%s]: %v", user, err)
			break
		}
		// Small sleep to prevent instant localhost bottleneck (simulate real network)
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", user, MsgCount)
}
