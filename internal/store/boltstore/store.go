// Package boltstore persists accounts and transactions in a bolt database.
package boltstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"

	"github.com/spendwise-dev/spendwise/internal/model"
	"github.com/spendwise-dev/spendwise/internal/store"
)

var (
	accountsBucket = []byte("accounts")
	txnsBucket     = []byte("transactions")
)

// accountRecord is the gob-encoded value in the accounts bucket.
type accountRecord struct {
	Seq       uint64
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	CreatedAt time.Time
}

// txnRecord is the gob-encoded value in the transactions bucket. Category is
// kept as a plain string and validated on decode.
type txnRecord struct {
	Seq             uint64
	ID              uuid.UUID
	OwnerID         uuid.UUID
	AccountID       uuid.UUID
	Merchant        string
	Amount          int64
	Date            time.Time
	Category        string
	IsImported      bool
	ReferenceNumber string
	Note            string
	CreatedAt       time.Time
}

// Store implements store.Store on top of bolt.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path and ensures the buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{accountsBucket, txnsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeAccount(data []byte) (accountRecord, error) {
	var rec accountRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return accountRecord{}, fmt.Errorf("decoding account: %w", err)
	}
	return rec, nil
}

func decodeTxn(data []byte) (txnRecord, error) {
	var rec txnRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return txnRecord{}, fmt.Errorf("decoding transaction: %w", err)
	}
	return rec, nil
}

func (r accountRecord) model() model.Account {
	return model.Account{ID: r.ID, OwnerID: r.OwnerID, Name: r.Name, CreatedAt: r.CreatedAt}
}

func (r txnRecord) model() (model.Transaction, error) {
	cat, err := model.ParseCategory(r.Category)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	return model.Transaction{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		AccountID:       r.AccountID,
		Merchant:        r.Merchant,
		Amount:          r.Amount,
		Date:            r.Date,
		Category:        cat,
		IsImported:      r.IsImported,
		ReferenceNumber: r.ReferenceNumber,
		Note:            r.Note,
		CreatedAt:       r.CreatedAt,
	}, nil
}

func toTxnRecord(seq uint64, t model.Transaction) txnRecord {
	return txnRecord{
		Seq:             seq,
		ID:              t.ID,
		OwnerID:         t.OwnerID,
		AccountID:       t.AccountID,
		Merchant:        t.Merchant,
		Amount:          t.Amount,
		Date:            t.Date,
		Category:        t.Category.String(),
		IsImported:      t.IsImported,
		ReferenceNumber: t.ReferenceNumber,
		Note:            t.Note,
		CreatedAt:       t.CreatedAt,
	}
}

// CreateAccount implements store.Store.
func (s *Store) CreateAccount(_ context.Context, a model.Account) (model.Account, error) {
	if a.OwnerID == uuid.Nil {
		return model.Account{}, fmt.Errorf("account owner is required")
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(accountsBucket)
		if b.Get(a.ID[:]) != nil {
			return fmt.Errorf("account %s already exists", a.ID)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("account sequence: %w", err)
		}
		data, err := encode(accountRecord{Seq: seq, ID: a.ID, OwnerID: a.OwnerID, Name: a.Name, CreatedAt: a.CreatedAt})
		if err != nil {
			return err
		}
		return b.Put(a.ID[:], data)
	})
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// GetAccount implements store.Store.
func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (model.Account, error) {
	var rec accountRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(accountsBucket).Get(id[:])
		if data == nil {
			return fmt.Errorf("account %s: %w", id, store.ErrNotFound)
		}
		var err error
		rec, err = decodeAccount(data)
		return err
	})
	if err != nil {
		return model.Account{}, err
	}
	return rec.model(), nil
}

// ListAccounts implements store.Store.
func (s *Store) ListAccounts(_ context.Context, owner uuid.UUID) ([]model.Account, error) {
	var recs []accountRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(accountsBucket).ForEach(func(_, v []byte) error {
			rec, err := decodeAccount(v)
			if err != nil {
				return err
			}
			if rec.OwnerID == owner {
				recs = append(recs, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	result := make([]model.Account, 0, len(recs))
	for _, rec := range recs {
		result = append(result, rec.model())
	}
	return result, nil
}

// UpdateAccount implements store.Store.
func (s *Store) UpdateAccount(_ context.Context, a model.Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(accountsBucket)
		data := b.Get(a.ID[:])
		if data == nil {
			return fmt.Errorf("account %s: %w", a.ID, store.ErrNotFound)
		}
		rec, err := decodeAccount(data)
		if err != nil {
			return err
		}
		rec.OwnerID = a.OwnerID
		rec.Name = a.Name
		out, err := encode(rec)
		if err != nil {
			return err
		}
		return b.Put(a.ID[:], out)
	})
}

// DeleteAccount implements store.Store.
func (s *Store) DeleteAccount(_ context.Context, id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		ab := tx.Bucket(accountsBucket)
		if ab.Get(id[:]) == nil {
			return fmt.Errorf("account %s: %w", id, store.ErrNotFound)
		}
		if err := ab.Delete(id[:]); err != nil {
			return fmt.Errorf("deleting account %s: %w", id, err)
		}

		tb := tx.Bucket(txnsBucket)
		var doomed [][]byte
		if err := tb.ForEach(func(k, v []byte) error {
			rec, err := decodeTxn(v)
			if err != nil {
				return err
			}
			if rec.AccountID == id {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range doomed {
			if err := tb.Delete(k); err != nil {
				return fmt.Errorf("deleting transaction: %w", err)
			}
		}
		return nil
	})
}

// CreateTransaction implements store.Store.
func (s *Store) CreateTransaction(_ context.Context, t model.Transaction) (model.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	if t.Category == "" {
		t.Category = model.CategoryUncategorized
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(accountsBucket).Get(t.AccountID[:]) == nil {
			return fmt.Errorf("account %s: %w", t.AccountID, store.ErrNotFound)
		}
		b := tx.Bucket(txnsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("transaction sequence: %w", err)
		}
		data, err := encode(toTxnRecord(seq, t))
		if err != nil {
			return err
		}
		return b.Put(t.ID[:], data)
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// GetTransaction implements store.Store.
func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (model.Transaction, error) {
	var rec txnRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(txnsBucket).Get(id[:])
		if data == nil {
			return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
		}
		var err error
		rec, err = decodeTxn(data)
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return rec.model()
}

// UpdateTransaction implements store.Store.
func (s *Store) UpdateTransaction(_ context.Context, t model.Transaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(txnsBucket)
		data := b.Get(t.ID[:])
		if data == nil {
			return fmt.Errorf("transaction %s: %w", t.ID, store.ErrNotFound)
		}
		old, err := decodeTxn(data)
		if err != nil {
			return err
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = old.CreatedAt
		}
		out, err := encode(toTxnRecord(old.Seq, t))
		if err != nil {
			return err
		}
		return b.Put(t.ID[:], out)
	})
}

// DeleteTransaction implements store.Store.
func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(txnsBucket)
		if b.Get(id[:]) == nil {
			return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
		}
		return b.Delete(id[:])
	})
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions(_ context.Context, f store.Filter) ([]model.Transaction, error) {
	return s.list(f)
}

func (s *Store) list(f store.Filter) ([]model.Transaction, error) {
	type seqTxn struct {
		seq uint64
		txn model.Transaction
	}
	var found []seqTxn
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(txnsBucket).ForEach(func(_, v []byte) error {
			rec, err := decodeTxn(v)
			if err != nil {
				return err
			}
			t, err := rec.model()
			if err != nil {
				return err
			}
			if f.Match(t) {
				found = append(found, seqTxn{seq: rec.Seq, txn: t})
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	result := make([]model.Transaction, 0, len(found))
	for _, st := range found {
		result = append(result, st.txn)
	}
	return result, nil
}

// Totals implements store.Store.
func (s *Store) Totals(_ context.Context, f store.Filter) (store.Totals, error) {
	txns, err := s.list(f)
	if err != nil {
		return store.Totals{}, err
	}
	return store.Sum(txns), nil
}

// ReferenceNumbers implements store.Store.
func (s *Store) ReferenceNumbers(_ context.Context, owner, account uuid.UUID) (map[string]struct{}, error) {
	txns, err := s.list(store.Filter{OwnerID: owner, AccountID: account})
	if err != nil {
		return nil, err
	}
	refs := make(map[string]struct{}, len(txns))
	for _, t := range txns {
		if t.ReferenceNumber != "" {
			refs[t.ReferenceNumber] = struct{}{}
		}
	}
	return refs, nil
}

// UnimportedTransactions implements store.Store.
func (s *Store) UnimportedTransactions(_ context.Context, owner, account uuid.UUID) ([]model.Transaction, error) {
	return s.list(store.Filter{OwnerID: owner, AccountID: account, Imported: store.Bool(false)})
}

// LatestCategorized implements store.Store.
func (s *Store) LatestCategorized(_ context.Context, owner uuid.UUID, merchant string) (model.Transaction, bool, error) {
	if merchant == "" {
		return model.Transaction{}, false, nil
	}
	txns, err := s.list(store.Filter{OwnerID: owner, Merchant: merchant})
	if err != nil {
		return model.Transaction{}, false, err
	}
	t, ok := store.Latest(txns)
	return t, ok, nil
}
