// Package ledger keeps a per-user CSV copy of engagement counters under
// <dir>/<user>/ads.csv. It is a projection of the event log: the database
// stays authoritative and a ledger can be rebuilt by replaying events.
package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ad-ranking-system/internal/metrics"
	"ad-ranking-system/internal/models"

	"github.com/sirupsen/logrus"
)

const fileName = "ads.csv"

var header = []string{"ad_id", "impressions", "clicks", "dislikes", "last_updated"}

var ErrInvalidUser = errors.New("invalid ledger user")

// Row is one ad's counters in a user's ledger.
type Row struct {
	AdID        uint      `json:"ad_id"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Dislikes    int64     `json:"dislikes"`
	LastUpdated time.Time `json:"last_updated"`
}

type Ledger struct {
	dir    string
	logger *logrus.Logger
	mu     sync.Mutex
}

func New(dir string, logger *logrus.Logger) *Ledger {
	return &Ledger{dir: dir, logger: logger}
}

// Publish applies events to the ledgers of their users. Anonymous events
// and likes have no ledger column and are skipped. A user whose ledger
// cannot be written is logged and skipped once any other user's ledger
// has been written, so a retry of the batch never applies events twice. An
// error is returned only when nothing was written.
func (l *Ledger) Publish(_ context.Context, evs ...models.EngagementEvent) error {
	byUser := make(map[string][]models.EngagementEvent)
	for _, ev := range evs {
		if ev.UserID == "" || ev.Type == models.EventLike {
			continue
		}
		byUser[ev.UserID] = append(byUser[ev.UserID], ev)
	}

	applied := 0
	var errs []error
	for user, userEvents := range byUser {
		err := l.apply(user, userEvents)
		switch {
		case err == nil:
			applied++
		case errors.Is(err, ErrInvalidUser):
			l.logger.WithError(err).WithField("events", len(userEvents)).Warn("Dropping ledger events for invalid user")
		default:
			l.logger.WithError(err).WithField("user_id", user).Error("Failed to update ledger")
			errs = append(errs, err)
		}
	}
	if applied > 0 {
		return nil
	}
	return errors.Join(errs...)
}

func (l *Ledger) apply(user string, evs []models.EngagementEvent) error {
	path, err := l.path(user)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := readFile(path)
	if err != nil {
		return err
	}
	index := make(map[uint]int, len(rows))
	for i, r := range rows {
		index[r.AdID] = i
	}

	for _, ev := range evs {
		i, ok := index[ev.AdID]
		if !ok {
			rows = append(rows, Row{AdID: ev.AdID})
			i = len(rows) - 1
			index[ev.AdID] = i
		}
		switch ev.Type {
		case models.EventImpression:
			rows[i].Impressions++
		case models.EventClick:
			rows[i].Clicks++
		case models.EventDislike:
			rows[i].Dislikes++
		}
		at := ev.OccurredAt
		if at.IsZero() {
			at = time.Now().UTC()
		}
		if at.After(rows[i].LastUpdated) {
			rows[i].LastUpdated = at
		}
	}

	if err := writeFile(path, rows); err != nil {
		return err
	}
	metrics.LedgerRowsWritten.Add(float64(len(evs)))
	return nil
}

// Rows returns a user's ledger ordered by ad id. A user without a ledger has
// no rows.
func (l *Ledger) Rows(user string) ([]Row, error) {
	path, err := l.path(user)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := readFile(path)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AdID < rows[j].AdID })
	return rows, nil
}

// Users lists the users that have a ledger folder.
func (l *Ledger) Users() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger dir: %w", err)
	}
	var users []string
	for _, e := range entries {
		if e.IsDir() {
			users = append(users, e.Name())
		}
	}
	return users, nil
}

func (l *Ledger) path(user string) (string, error) {
	user = strings.TrimSpace(user)
	if !models.ValidUserID(user) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUser, user)
	}
	return filepath.Join(l.dir, user, fileName), nil
}

func readFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}

	var rows []Row
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == header[0] {
			continue
		}
		row, ok := parseRow(rec)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (Row, bool) {
	if len(rec) < 4 {
		return Row{}, false
	}
	id, err := strconv.ParseUint(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return Row{}, false
	}
	row := Row{
		AdID:        uint(id),
		Impressions: parseCount(rec[1]),
		Clicks:      parseCount(rec[2]),
		Dislikes:    parseCount(rec[3]),
	}
	if len(rec) > 4 {
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(rec[4])); err == nil {
			row.LastUpdated = t
		}
	}
	return row, true
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// writeFile replaces the ledger through a temp file so readers never see a
// half-written file.
func writeFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), fileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create ledger temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range rows {
		updated := ""
		if !r.LastUpdated.IsZero() {
			updated = r.LastUpdated.UTC().Format(time.RFC3339Nano)
		}
		rec := []string{
			strconv.FormatUint(uint64(r.AdID), 10),
			strconv.FormatInt(r.Impressions, 10),
			strconv.FormatInt(r.Clicks, 10),
			strconv.FormatInt(r.Dislikes, 10),
			updated,
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
