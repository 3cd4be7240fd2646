// Package main runs a demo WebSocket client that watches route updates.
package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Seed the simulation with a vehicle and an order, then force a decision.
	post(base+"/v1/vehicles", `{"id":1,"capacity":10}`)
	post(base+"/v1/orders", `{"id":"d1","point":{"lat":1,"lng":0},"size":3,"preparationMinutes":0,"serviceMinutes":60}`)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/ws/routes"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	log.Printf("connected to %s", u.String())

	post(base+"/v1/decide", `{}`)

	for i := 0; i < 5; i++ {
		var upd map[string]any
		if err := c.ReadJSON(&upd); err != nil {
			log.Fatal(err)
		}
		log.Printf("routes.update: %v", upd)
	}
}

func post(url, body string) {
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	log.Printf("POST %s -> %s", url, resp.Status)
}
