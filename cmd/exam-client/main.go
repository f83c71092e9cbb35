package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"mock-exam/internal/userclient"
)

func main() {
	server := flag.String("server", "http://127.0.0.1:8080", "exam service base URL")
	session := flag.String("session", ".exam-session.json", "file that keeps the exam in progress")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP timeout")
	flag.Parse()

	err := userclient.Run(context.Background(), os.Stdin, os.Stdout, userclient.Config{
		ServerURL:    *server,
		SnapshotPath: *session,
		HTTPTimeout:  *timeout,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
