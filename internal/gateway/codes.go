package gateway

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// codeAlphabet excludes 0/O/1/I so a code read aloud survives the trip.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
	codeAttempts = 10
)

var (
	codeRand   = rand.New(rand.NewSource(time.Now().UnixNano()))
	codeRandMu sync.Mutex
)

func newJoinCode() string {
	codeRandMu.Lock()
	defer codeRandMu.Unlock()
	var b strings.Builder
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[codeRand.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeJoinCode upper-cases a user-typed code and reports whether it is
// well-formed, so bad input fails before any store lookup.
func NormalizeJoinCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLength {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(code[i])) {
			return "", false
		}
	}
	return code, true
}
