package main

import (
	"fmt"
	"log"
	"time"

	"chat-relay/internal"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/joho/godotenv"
)

type row struct {
	SessionID string `cbor:"session_id"`
	Sender    string `cbor:"sender"`
	Sanitized string `cbor:"sanitized_content"`
	Flagged   bool   `cbor:"flagged"`
	At        int64  `cbor:"at"`
}

// Read-only dump of the message store, usable while the server holds the lock.
func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening if another process (the server) holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Badger opening failed: %v", err)
	}
	defer db.Close()

	// 3. Scan every message key and print a compact line per message
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("msg:")
		count := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r row
			err := it.Item().Value(func(value []byte) error {
				return cbor.Unmarshal(value, &r)
			})
			if err != nil {
				return err
			}
			flag := " "
			if r.Flagged {
				flag = "!"
			}
			fmt.Printf("%s [%s] %s <%s> %s\n",
				flag,
				time.Unix(0, r.At).UTC().Format(time.RFC3339),
				r.SessionID, r.Sender, r.Sanitized)
			count++
		}
		fmt.Printf("%d messages\n", count)
		return nil
	})
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
}
