// Package stavedb implements an embedded log-structured key-value
// store in the Bitcask style: every write appends a record to a
// segment file, and an in-memory index maps each key to its latest
// on-disk location. Reads cost one positioned disk read and writes one
// append, regardless of how much data the store holds.
//
// Example:
//
//	db, err := stavedb.Open("/var/lib/myapp/data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.Put([]byte("greeting"), []byte("hello"))
//	val, err := db.Get([]byte("greeting"))
//
// A storage directory belongs to one process at a time. Deleting a key
// appends a tombstone record; the space held by superseded records is
// not reclaimed in place, segments only ever grow and rotate.
package stavedb
