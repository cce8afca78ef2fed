package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.etcd.io/bbolt"

	"rosterlink/internal/platform/boltdb"
	"rosterlink/pkg/platform/sentinel"
)

type tier interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Range(ctx context.Context, fn func(key string, value []byte) bool) error
}

// TierSuite is the behavior every persistent tier shares.
type TierSuite struct {
	suite.Suite
	newTier func(t *testing.T) tier
	tier    tier
	ctx     context.Context
}

func TestInMemoryTier(t *testing.T) {
	suite.Run(t, &TierSuite{newTier: func(*testing.T) tier { return NewInMemoryTier() }})
}

func TestBoltTier(t *testing.T) {
	suite.Run(t, &TierSuite{newTier: func(t *testing.T) tier {
		db, err := boltdb.Open(filepath.Join(t.TempDir(), "agent.db"), time.Second)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		bt, err := NewBoltTier(db)
		if err != nil {
			t.Fatalf("tier: %v", err)
		}
		return bt
	}})
}

func (s *TierSuite) SetupTest() {
	s.ctx = context.Background()
	s.tier = s.newTier(s.T())
}

func (s *TierSuite) TestGetMissing() {
	_, err := s.tier.Get(s.ctx, "absent")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *TierSuite) TestPutGetDelete() {
	s.Require().NoError(s.tier.Put(s.ctx, "k1", []byte("v1"), time.Minute))
	v, err := s.tier.Get(s.ctx, "k1")
	s.Require().NoError(err)
	s.Equal([]byte("v1"), v)

	s.Require().NoError(s.tier.Put(s.ctx, "k1", []byte("v2"), time.Minute))
	v, err = s.tier.Get(s.ctx, "k1")
	s.Require().NoError(err)
	s.Equal([]byte("v2"), v)

	s.Require().NoError(s.tier.Delete(s.ctx, "k1"))
	s.Require().NoError(s.tier.Delete(s.ctx, "k1"))
	_, err = s.tier.Get(s.ctx, "k1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *TierSuite) TestRangeAndClear() {
	for _, k := range []string{"a", "b", "c"} {
		s.Require().NoError(s.tier.Put(s.ctx, k, []byte("v-"+k), time.Minute))
	}
	seen := map[string]string{}
	s.Require().NoError(s.tier.Range(s.ctx, func(key string, value []byte) bool {
		seen[key] = string(value)
		return true
	}))
	s.Equal(map[string]string{"a": "v-a", "b": "v-b", "c": "v-c"}, seen)

	count := 0
	s.Require().NoError(s.tier.Range(s.ctx, func(string, []byte) bool {
		count++
		return false
	}))
	s.Equal(1, count)

	s.Require().NoError(s.tier.Clear(s.ctx))
	_, err := s.tier.Get(s.ctx, "a")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Require().NoError(s.tier.Put(s.ctx, "d", []byte("v-d"), time.Minute))
}

func TestBoltTierSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.db")
	db, err := boltdb.Open(path, time.Second)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	bt, err := NewBoltTier(db)
	if err != nil {
		t.Fatalf("tier: %v", err)
	}
	if err := bt.Put(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = db.Close()

	db, err = boltdb.Open(path, time.Second)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func(db *bbolt.DB) { _ = db.Close() }(db)
	bt, err = NewBoltTier(db)
	if err != nil {
		t.Fatalf("tier: %v", err)
	}
	v, err := bt.Get(context.Background(), "k")
	if err != nil || string(v) != "v" {
		t.Fatalf("expected persisted value, got %q (%v)", v, err)
	}
}
