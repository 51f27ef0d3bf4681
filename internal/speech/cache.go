package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hammamikhairi/moonrace/internal/domain"
	"github.com/hammamikhairi/moonrace/internal/logger"
)

// AudioCache is a thread-safe two-tier cache (in-memory + filesystem) for
// synthesized audio, shared by the remote providers.
//
// Disk behaviour is controlled by diskWrite:
//
//	diskWrite=true  -> reads from mem, then disk; writes to both.
//	diskWrite=false -> reads from mem, then disk; writes to mem only.
type AudioCache struct {
	mu        sync.RWMutex
	entries   map[string][]byte
	log       *logger.Logger
	cacheDir  string // empty = no disk layer
	diskWrite bool
	hits      int64
	misses    int64
}

// NewAudioCache creates an audio cache. An empty cacheDir disables the
// disk layer entirely.
func NewAudioCache(cacheDir string, diskWrite bool, log *logger.Logger) *AudioCache {
	c := &AudioCache{
		entries:   make(map[string][]byte),
		log:       log,
		cacheDir:  cacheDir,
		diskWrite: diskWrite,
	}
	if cacheDir != "" && diskWrite {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			log.Error("cache: failed to create cache dir %s: %v", cacheDir, err)
		}
	}
	return c
}

// CacheKey identifies one utterance: the same text spoken by a different
// provider, voice or option set is a different entry.
func CacheKey(provider, voice string, opts domain.SpeakOptions, text string) string {
	raw := fmt.Sprintf("%s|%s|%.3f|%.3f|%.3f|%s|%s|%s",
		provider, voice, opts.Rate, opts.Pitch, opts.Volume, opts.Language, opts.Voice, text)
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// Get returns cached audio for key, checking memory then disk.
func (c *AudioCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	data, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		c.log.Debug("cache hit (mem): %s (%d bytes)", key[:12], len(data))
		return data, true
	}

	if c.cacheDir != "" {
		if diskData, diskOK := c.readDisk(key); diskOK {
			// Promote for faster subsequent hits.
			c.mu.Lock()
			c.entries[key] = diskData
			c.hits++
			c.mu.Unlock()
			c.log.Debug("cache hit (disk): %s (%d bytes)", key[:12], len(diskData))
			return diskData, true
		}
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return nil, false
}

// Put stores audio under key in memory, and on disk when enabled.
func (c *AudioCache) Put(key string, audio []byte) {
	c.mu.Lock()
	c.entries[key] = audio
	size := len(c.entries)
	c.mu.Unlock()

	c.log.Debug("cache store (mem): %s (%d bytes, %d entries)", key[:12], len(audio), size)

	if c.cacheDir != "" && c.diskWrite {
		c.writeDisk(key, audio)
	}
}

// Has reports whether key is cached in memory or on disk.
func (c *AudioCache) Has(key string) bool {
	c.mu.RLock()
	_, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return true
	}
	if c.cacheDir != "" {
		_, err := os.Stat(c.diskPath(key))
		return err == nil
	}
	return false
}

// Len returns the number of in-memory entries.
func (c *AudioCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *AudioCache) diskPath(key string) string {
	return filepath.Join(c.cacheDir, key+".audio")
}

func (c *AudioCache) readDisk(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.diskPath(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *AudioCache) writeDisk(key string, audio []byte) {
	path := c.diskPath(key)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		c.log.Error("cache: disk write failed for %s: %v", path, err)
		return
	}
	c.log.Debug("cache store (disk): %s (%d bytes)", key[:12], len(audio))
}
