package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	snapshotFile    = "accounts.json"
	depositsFile    = "deposits.jsonl"
	withdrawalsFile = "withdrawals.jsonl"
	transfersFile   = "transfers.jsonl"
	snapshotVersion = 1
)

// snapshot is the account table plus the number of ledger lines it commits.
// Ledger lines past those counts belong to a commit that never finished and
// are discarded on open.
type snapshot struct {
	Version    int          `json:"version"`
	NextNumber int64        `json:"next_account_number"`
	Ledgers    ledgerCounts `json:"ledgers"`
	Accounts   []Account    `json:"accounts"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type ledgerCounts struct {
	Deposits    int `json:"deposits"`
	Withdrawals int `json:"withdrawals"`
	Transfers   int `json:"transfers"`
}

type fileJournal struct {
	dir      string
	counts   ledgerCounts
	sizes    map[string]int64
	truncate func(name string, size int64) error
	// broken is set when a failed commit could not be undone on disk. The
	// ledger files may then hold lines the snapshot does not account for, so
	// every later commit is refused until the store is reopened.
	broken error
}

// OpenFile opens (or initializes) a file-backed store in dir. Ledgers are kept
// as append-only JSON lines files; the account table is rewritten atomically on
// each commit.
func OpenFile(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr("open", err)
	}
	j := &fileJournal{dir: dir, sizes: make(map[string]int64), truncate: os.Truncate}

	snap, err := j.readSnapshot()
	if err != nil {
		return nil, storageErr("open", err)
	}

	st := newState()
	st.nextNumber = snap.NextNumber
	for _, account := range snap.Accounts {
		st.accounts[account.Number] = account
	}
	if st.deposits, err = readLedger[Deposit](j, depositsFile, snap.Ledgers.Deposits); err != nil {
		return nil, storageErr("open", err)
	}
	if st.withdrawals, err = readLedger[Withdrawal](j, withdrawalsFile, snap.Ledgers.Withdrawals); err != nil {
		return nil, storageErr("open", err)
	}
	if st.transfers, err = readLedger[Transfer](j, transfersFile, snap.Ledgers.Transfers); err != nil {
		return nil, storageErr("open", err)
	}
	j.counts = snap.Ledgers

	return newStore(st, j), nil
}

func (j *fileJournal) path(name string) string {
	return filepath.Join(j.dir, name)
}

func (j *fileJournal) readSnapshot() (snapshot, error) {
	data, err := os.ReadFile(j.path(snapshotFile))
	if errors.Is(err, os.ErrNotExist) {
		return snapshot{Version: snapshotVersion}, nil
	}
	if err != nil {
		return snapshot{}, err
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot{}, fmt.Errorf("decode %s: %w", snapshotFile, err)
	}
	if snap.Version != snapshotVersion {
		return snapshot{}, fmt.Errorf("unsupported %s version %d", snapshotFile, snap.Version)
	}
	return snap, nil
}

func readLedger[T any](j *fileJournal, name string, committed int) ([]T, error) {
	f, err := os.OpenFile(j.path(name), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	out := make([]T, 0, committed)
	var offset int64
	for len(out) < committed {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: found %d of %d committed records", name, len(out), committed)
		}
		if err != nil {
			return nil, err
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, len(out)+1, err)
		}
		out = append(out, record)
		offset += int64(len(line))
	}

	if err := f.Truncate(offset); err != nil {
		return nil, err
	}
	j.sizes[name] = offset
	return out, nil
}

func (j *fileJournal) commit(tx *memTx) error {
	if j.broken != nil {
		return fmt.Errorf("journal unusable until reopen: %w", j.broken)
	}

	appended := make(map[string]int64)
	fail := func(err error) error {
		var rbErr error
		for name := range appended {
			if tErr := j.truncate(j.path(name), j.sizes[name]); tErr != nil {
				rbErr = errors.Join(rbErr, fmt.Errorf("truncate %s: %w", name, tErr))
			}
		}
		if rbErr != nil {
			j.broken = rbErr
			return errors.Join(err, rbErr)
		}
		return err
	}

	if err := appendLines(j, depositsFile, tx.deposits, appended); err != nil {
		return fail(err)
	}
	if err := appendLines(j, withdrawalsFile, tx.withdrawals, appended); err != nil {
		return fail(err)
	}
	if err := appendLines(j, transfersFile, tx.transfers, appended); err != nil {
		return fail(err)
	}

	accounts, _ := tx.Accounts(context.Background())
	next := snapshot{
		Version:    snapshotVersion,
		NextNumber: tx.nextNumber,
		Ledgers: ledgerCounts{
			Deposits:    j.counts.Deposits + len(tx.deposits),
			Withdrawals: j.counts.Withdrawals + len(tx.withdrawals),
			Transfers:   j.counts.Transfers + len(tx.transfers),
		},
		Accounts:  accounts,
		UpdatedAt: time.Now().UTC(),
	}
	if err := j.writeSnapshot(next); err != nil {
		return fail(err)
	}
	// The new snapshot is in place; only its directory entry may still be
	// volatile. Undoing the ledger lines now would contradict it.
	if err := syncDir(j.dir); err != nil {
		j.broken = err
		return fmt.Errorf("sync %s: %w", j.dir, err)
	}

	for name, size := range appended {
		j.sizes[name] = size
	}
	j.counts = next.Ledgers
	return nil
}

func appendLines[T any](j *fileJournal, name string, records []T, appended map[string]int64) error {
	if len(records) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
	}

	f, err := os.OpenFile(j.path(name), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	// Registered before writing so a short write is truncated away too.
	appended[name] = j.sizes[name] + int64(buf.Len())
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	return f.Close()
}

func (j *fileJournal) writeSnapshot(snap snapshot) error {
	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", snapshotFile, err)
	}

	tmp, err := os.CreateTemp(j.dir, "accounts-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, j.path(snapshotFile)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", snapshotFile, err)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		d.Close()
		return err
	}
	return d.Close()
}

func (j *fileJournal) close() error { return nil }
