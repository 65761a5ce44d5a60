// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package inspect

import (
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const jobSalt = "bitprobe.job"

// ID numbers sessions and jobs within the process.
type ID uint64

// seeded from the clock so numbers differ across restarts
var lastID = uint64(time.Now().Unix())

// NewID returns the next ID.
func NewID() ID {
	return ID(atomic.AddUint64(&lastID, 1))
}

// String formats the id as upper-case hex; result ids are built from it.
func (id ID) String() string {
	return strings.ToUpper(strconv.FormatUint(uint64(id), 16))
}

// jobKey derives the opaque id handed out for a job, so clients cannot
// walk neighbouring jobs.
func jobKey(id ID, ct uint64) string {
	var seed [16]byte
	binary.BigEndian.PutUint64(seed[:8], ct)
	binary.BigEndian.PutUint64(seed[8:], uint64(id))

	key := pbkdf2.Key(seed[:], []byte(jobSalt), 4096, 16, sha1.New)
	return strings.TrimRight(base32.StdEncoding.EncodeToString(key), "=")
}
