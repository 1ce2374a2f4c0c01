package libgl

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
)

const (
	DefaultProgramCacheDir = ".shadercache"
	// The driver might have had an update and produce different code now
	ProgramCacheExpiry = 30 * 24 * time.Hour
	// Set to 1 to never read or write program binaries
	DisableProgramCacheEnv = "EMERALD_DISABLE_SHADER_CACHE"
)

// ProgramCache stores linked program binaries on disk, lz4 compressed.
// Keys depend on the source and on the driver that produced the binary.
type ProgramCache struct {
	Dir      string
	Disabled bool
	// Identifies the driver, usually vendor, renderer and version strings
	driver []string
}

func NewProgramCache(dir string, driver ...string) *ProgramCache {
	if dir == "" {
		dir = DefaultProgramCacheDir
	}
	return &ProgramCache{
		Dir:      dir,
		Disabled: os.Getenv(DisableProgramCacheEnv) == "1",
		driver:   driver,
	}
}

func (cache *ProgramCache) Key(source string) string {
	hasher := md5.New()
	hasher.Write([]byte(source))
	for _, s := range cache.driver {
		hasher.Write([]byte(s))
	}
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func (cache *ProgramCache) path(key string) string {
	return filepath.Join(cache.Dir, key+".bin")
}

// Put writes the binary for source. Failures are logged since the cache is optional.
func (cache *ProgramCache) Put(source string, format uint32, program []byte) {
	if cache.Disabled {
		return
	}
	if err := os.MkdirAll(cache.Dir, 0755); err != nil {
		log.Printf("Warning: could not create program cache directory: %v\n", err)
		return
	}
	file, err := os.OpenFile(cache.path(cache.Key(source)), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("Warning: could not write program cache: %v\n", err)
		return
	}
	defer file.Close()
	if err := writeCacheEntry(file, format, program); err != nil {
		log.Printf("Warning: could not write program cache: %v\n", err)
	}
}

// Get returns the binary stored for source. Entries older than ProgramCacheExpiry are removed.
func (cache *ProgramCache) Get(source string) (ok bool, program []byte, format uint32) {
	if cache.Disabled {
		return
	}
	var err error
	defer func() {
		if err != nil {
			log.Printf("Warning: could not read program cache: %v\n", err)
		}
	}()
	path := cache.path(cache.Key(source))
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
		return
	}
	if err != nil {
		return
	}
	if time.Since(info.ModTime()) > ProgramCacheExpiry {
		os.Remove(path)
		return
	}
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()
	format, program, err = readCacheEntry(file)
	if err != nil {
		return false, nil, 0
	}
	return true, program, format
}

// Remove drops the entry of source, used when the driver rejects a cached binary.
func (cache *ProgramCache) Remove(source string) {
	os.Remove(cache.path(cache.Key(source)))
}

func writeCacheEntry(w io.Writer, format uint32, program []byte) error {
	if err := binary.Write(w, binary.LittleEndian, format); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(program))); err != nil {
		return err
	}
	zw := lz4.NewWriter(w)
	if _, err := zw.Write(program); err != nil {
		return err
	}
	return zw.Close()
}

func readCacheEntry(r io.Reader) (format uint32, program []byte, err error) {
	var length uint32
	if err = binary.Read(r, binary.LittleEndian, &format); err != nil {
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &length); err != nil {
		return
	}
	program, err = io.ReadAll(lz4.NewReader(r))
	if err != nil {
		return
	}
	if len(program) != int(length) {
		return 0, nil, fmt.Errorf("program binary has %d bytes, expected %d", len(program), length)
	}
	return
}
