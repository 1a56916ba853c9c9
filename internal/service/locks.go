package service

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// stripedLock serializes work per key with a fixed set of mutexes.
type stripedLock [lockStripes]sync.Mutex

func (l *stripedLock) of(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l[h.Sum32()%lockStripes]
}
