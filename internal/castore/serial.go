package castore

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/voslund/camint/internal/fsutil"
)

const (
	lockPeriod  = time.Millisecond * 100
	lockTimeout = time.Second * 10

	serialSeedBits = 63
)

// SerialProvider keeps the CA's serial token in ca.srl as hex. Next holds a
// file lock for the read-increment-write cycle so no two signings under the
// same CA can share a serial.
type SerialProvider struct {
	locker *flock.Flock
	path   string
}

func NewSerialProvider(path string) *SerialProvider {
	return &SerialProvider{
		locker: flock.New(fmt.Sprintf("%v.lock", path)),
		path:   path,
	}
}

// Seed writes a fresh random serial token. Randomizing the seed keeps serials
// from distinct CAs from lining up.
func (p *SerialProvider) Seed() error {
	seed, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), serialSeedBits))
	if err != nil {
		return fmt.Errorf("can`t generate serial seed: %w", err)
	}
	if err := fsutil.WriteFileAtomic(p.path, strings.NewReader(seed.Text(16)), 0644); err != nil {
		return fmt.Errorf("can`t write serial file %v: %w", p.path, err)
	}
	return nil
}

// Next increments the token in storage and returns the new serial.
func (p *SerialProvider) Next() (*big.Int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := p.locker.TryLockContext(ctx, lockPeriod)
	if err != nil {
		return nil, fmt.Errorf("can`t lock serial file %v: %w", p.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("can`t lock serial file %v", p.path)
	}
	defer func() {
		_ = p.locker.Unlock()
	}()

	res := big.NewInt(0)
	sBytes, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		// nothing to do. New serial
	} else if err != nil {
		return nil, fmt.Errorf("can`t read serial file %v: %w", p.path, err)
	}
	if len(sBytes) != 0 {
		if _, ok := res.SetString(strings.TrimSpace(string(sBytes)), 16); !ok {
			return nil, fmt.Errorf("can`t parse serial token %q in %v", string(sBytes), p.path)
		}
	}
	res.Add(big.NewInt(1), res)

	if err := fsutil.WriteFileAtomic(p.path, strings.NewReader(res.Text(16)), 0644); err != nil {
		return res, fmt.Errorf("can`t write serial file %v: %w", p.path, err)
	}
	return res, nil
}
