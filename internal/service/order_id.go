package service

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	orderIDAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	orderIDSuffixLen = 9
	// largest multiple of 36 below 256; bytes at or above it are skipped to keep the draw uniform
	orderIDByteLimit = 252
)

// newOrderID returns FL-<unix millis>-<9 random base36 chars>.
func newOrderID(now time.Time) (string, error) {
	suffix := make([]byte, 0, orderIDSuffixLen)
	buf := make([]byte, 16)
	for len(suffix) < orderIDSuffixLen {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= orderIDByteLimit {
				continue
			}
			suffix = append(suffix, orderIDAlphabet[int(b)%len(orderIDAlphabet)])
			if len(suffix) == orderIDSuffixLen {
				break
			}
		}
	}
	return fmt.Sprintf("FL-%d-%s", now.UnixMilli(), suffix), nil
}
