// A walkthrough of the store: a few writes, an overwrite, a delete,
// then the per-segment stats after rotation.
package main

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/stavedb/stavedb"
)

func main() {
	dir, err := os.MkdirTemp("", "stavedb-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	db, err := stavedb.Open(dir,
		stavedb.WithMaxSegmentSize(256),
		stavedb.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < 12; i++ {
		key := fmt.Sprintf("user:%d", i)
		value := fmt.Sprintf("profile-%d", i)
		if err := db.Put([]byte(key), []byte(value)); err != nil {
			log.Fatal(err)
		}
	}

	if err := db.Remove([]byte("user:3")); err != nil {
		log.Fatal(err)
	}
	if err := db.Put([]byte("user:5"), []byte("profile-5-updated")); err != nil {
		log.Fatal(err)
	}

	value, err := db.Get([]byte("user:5"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("user:5 = %s\n", value)

	fmt.Print(db.Stats())
}
