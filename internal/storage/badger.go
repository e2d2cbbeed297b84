package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// BadgerRepository implements Repository on an embedded BadgerDB, so the
// forwarded-message set survives restarts.
type BadgerRepository struct {
	db  *badger.DB
	ttl time.Duration
	log logrus.FieldLogger
}

// NewBadgerRepository opens the database at dbPath. A non-zero ttl expires
// forward records after that duration, keeping the store bounded; zero keeps
// them forever.
func NewBadgerRepository(dbPath string, ttl time.Duration, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.WithField("path", dbPath).Info("BadgerDB opened")

	return &BadgerRepository{
		db:  db,
		ttl: ttl,
		log: logger.WithField("component", "repository"),
	}, nil
}

// Close closes the BadgerDB database connection.
func (r *BadgerRepository) Close() error {
	r.log.Info("Closing BadgerDB...")
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	return nil
}

// recordKey builds the key for one forward record.
// Format: chan:{channelID}:msg:{messageID}
func recordKey(channelID int64, messageID int) []byte {
	return []byte(fmt.Sprintf("chan:%d:msg:%d", channelID, messageID))
}

// Contains checks whether the forward record exists.
func (r *BadgerRepository) Contains(ctx context.Context, channelID int64, messageID int) (bool, error) {
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(recordKey(channelID, messageID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check forward record: %w", err)
	}
	return found, nil
}

// Insert writes the forward record. Overwriting an existing record is
// harmless: the value is empty and only the key's presence matters.
func (r *BadgerRepository) Insert(ctx context.Context, channelID int64, messageID int) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(recordKey(channelID, messageID), nil)
		if r.ttl > 0 {
			e = e.WithTTL(r.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"channel_id": channelID,
			"message_id": messageID,
		}).Error("Failed to insert forward record")
		return fmt.Errorf("failed to insert forward record: %w", err)
	}
	return nil
}

// RunGC runs Badger's value-log garbage collection until ctx is cancelled.
// Intended to be started as a goroutine from main.
func (r *BadgerRepository) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := r.db.RunValueLogGC(0.7)
			switch {
			case err == nil:
				r.log.Debug("BadgerDB GC completed")
			case errors.Is(err, badger.ErrNoRewrite):
				// Nothing to reclaim this round.
			default:
				r.log.WithError(err).Error("BadgerDB GC failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
