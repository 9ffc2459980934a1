// Package catalog reads and writes the delimited ad inventory used to seed
// and repair the ad store.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ad-ranking-system/internal/models"

	"github.com/sirupsen/logrus"
)

// Header is the column order of the inventory file.
var Header = []string{"ad_id", "title", "category", "keywords", "target_page", "image_url", "ctr", "clicks", "impressions", "details", "link"}

// Store is the part of the ad repository the importer writes to.
type Store interface {
	Count(ctx context.Context) (int64, error)
	Insert(ctx context.Context, ads []models.Ad) error
	BackfillLinks(ctx context.Context, byTitle map[string]string) (int, error)
}

// Read parses an inventory. Columns are matched by header name; missing
// columns and unparsable numbers default to empty or zero. A numeric ad_id
// becomes the ad's id, anything else leaves it to the store.
func Read(r io.Reader) ([]models.Ad, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}
	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	var ads []models.Ad
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog line %d: %w", line, err)
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		ad := models.Ad{
			Title:       field("title"),
			Category:    field("category"),
			Keywords:    field("keywords"),
			TargetPage:  field("target_page"),
			ImageURL:    field("image_url"),
			Details:     field("details"),
			Link:        field("link"),
			CTR:         parseCTR(field("ctr")),
			Clicks:      parseCount(field("clicks")),
			Impressions: parseCount(field("impressions")),
			IsActive:    true,
		}
		if id, err := strconv.ParseUint(field("ad_id"), 10, 64); err == nil && id > 0 {
			ad.ID = uint(id)
		}
		ads = append(ads, ad)
	}
	return ads, nil
}

// Links maps lower-cased trimmed titles to their link, for backfill.
func Links(ads []models.Ad) map[string]string {
	out := make(map[string]string)
	for _, ad := range ads {
		if key := ad.TitleKey(); key != "" && ad.Link != "" {
			out[key] = ad.Link
		}
	}
	return out
}

// Import seeds an empty store from the inventory at path, and backfills
// missing links on a populated one. A missing file is not an error.
func Import(ctx context.Context, store Store, path string, logger *logrus.Logger) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.WithField("path", path).Info("No catalog file, skipping import")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	ads, err := Read(f)
	if err != nil {
		return err
	}

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		if err := store.Insert(ctx, dedupeIDs(ads)); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"path": path, "ads": len(ads)}).Info("Imported catalog")
	}

	n, err := store.BackfillLinks(ctx, Links(ads))
	if err != nil {
		return err
	}
	if n > 0 {
		logger.WithField("ads", n).Info("Backfilled ad links")
	}
	return nil
}

// Append writes one ad to the inventory at path, creating it with a header
// when missing.
func Append(path string, ad models.Ad) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open catalog export: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	err = w.Write([]string{
		strconv.FormatUint(uint64(ad.ID), 10),
		ad.Title,
		ad.Category,
		ad.Keywords,
		ad.TargetPage,
		ad.ImageURL,
		strconv.FormatFloat(ad.CTR, 'f', -1, 64),
		strconv.FormatInt(ad.Clicks, 10),
		strconv.FormatInt(ad.Impressions, 10),
		ad.Details,
		ad.Link,
	})
	if err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// parseCTR reads a CTR as a fraction. Values above 1 are taken as percents.
func parseCTR(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v != v {
		return 0
	}
	if v > 1 {
		v /= 100
	}
	if v > 1 {
		v = 1
	}
	return v
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		n = int64(f)
	}
	if n < 0 {
		return 0
	}
	return n
}

// dedupeIDs clears repeated explicit ids so the store assigns fresh ones.
func dedupeIDs(ads []models.Ad) []models.Ad {
	seen := make(map[uint]bool, len(ads))
	for i := range ads {
		if ads[i].ID == 0 {
			continue
		}
		if seen[ads[i].ID] {
			ads[i].ID = 0
			continue
		}
		seen[ads[i].ID] = true
	}
	return ads
}
