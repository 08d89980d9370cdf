// Package merge folds per-source listings into one set of unified
// performances keyed by name fingerprint, then filters and orders them.
package merge

import (
	"errors"
	"fmt"
	"time"

	"stagehub/internal/canonical"
	"stagehub/internal/classify"
	"stagehub/pkg/models"
	"stagehub/pkg/utils"
)

// ErrMergeCorruption wraps any unexpected failure inside accumulation.
// A cycle that sees it must not publish.
var ErrMergeCorruption = errors.New("merge corruption")

type Options struct {
	// Taxonomy classifies part, region and sub-category; nil uses classify.Default.
	Taxonomy *classify.Taxonomy
	// RegionFallback replaces models.RegionUnclassified after classification.
	// Empty keeps unmatched venues unclassified.
	RegionFallback models.Region
	// Today anchors D-day values; zero means time.Now().
	Today time.Time
	// OnCollision, if set, sees every record that lands on an existing
	// entity, before it is merged in.
	OnCollision func(existing models.UnifiedPerformance, incoming models.RawRecord)
}

// Result is the accumulator after one pass. Iteration order is the order
// fingerprints were first seen, so equal inputs give equal outputs.
type Result struct {
	byKey      map[string]*models.UnifiedPerformance
	order      []string
	counts     map[string]int
	collisions int
	emptyNames int
}

func (r *Result) Len() int { return len(r.order) }

// Get returns a copy of the entity for a fingerprint.
func (r *Result) Get(fingerprint string) (models.UnifiedPerformance, bool) {
	p, ok := r.byKey[fingerprint]
	if !ok {
		return models.UnifiedPerformance{}, false
	}
	return p.Clone(), true
}

// List returns copies of every entity in first-seen order.
func (r *Result) List() []models.UnifiedPerformance {
	out := make([]models.UnifiedPerformance, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k].Clone())
	}
	return out
}

// Counts is the number of records each source contributed, duplicates included.
func (r *Result) Counts() map[string]int {
	out := make(map[string]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}

// Collisions is how many records landed on an existing fingerprint.
func (r *Result) Collisions() int { return r.collisions }

// EmptyNames is how many records had a name that normalized to nothing.
func (r *Result) EmptyNames() int { return r.emptyNames }

// Merge processes batches in the given order. The first record for a
// fingerprint seeds the entity and fixes its classification; later records
// only fill gaps and add their site.
func Merge(batches []models.SourceBatch, opts Options) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrMergeCorruption, r)
		}
	}()

	if opts.Taxonomy == nil {
		opts.Taxonomy = classify.Default
	}
	if opts.Today.IsZero() {
		opts.Today = time.Now()
	}

	res = &Result{
		byKey:  make(map[string]*models.UnifiedPerformance),
		counts: make(map[string]int, len(batches)),
	}
	for _, b := range batches {
		res.counts[b.Name] += len(b.Records)
		for _, rec := range b.Records {
			if rec.SourceName == "" {
				rec.SourceName = b.Name
			}
			if rec.SourceColor == "" {
				rec.SourceColor = b.Color
			}
			res.add(rec, opts)
		}
	}
	return res, nil
}

func (r *Result) add(rec models.RawRecord, opts Options) {
	key := canonical.Normalize(rec.Name)
	if key == "" {
		r.emptyNames++
	}
	fp := canonical.Fingerprint(key)

	if p, ok := r.byKey[fp]; ok {
		r.collisions++
		if opts.OnCollision != nil {
			opts.OnCollision(*p, rec)
		}
		mergeInto(p, rec, opts.Today)
		return
	}
	r.byKey[fp] = seed(fp, rec, opts)
	r.order = append(r.order, fp)
}

func seed(fp string, rec models.RawRecord, opts Options) *models.UnifiedPerformance {
	tx := opts.Taxonomy

	part := rec.PartHint
	if part == "" {
		part = tx.Part(rec.Name, rec.Genre)
	}
	region := tx.Region(rec.Venue, rec.Area)
	if region == models.RegionUnclassified && opts.RegionFallback != "" {
		region = opts.RegionFallback
	}

	p := &models.UnifiedPerformance{
		Fingerprint: fp,
		ID:          rec.SourceID,
		Name:        rec.Name,
		Venue:       rec.Venue,
		StartDate:   rec.StartDate,
		EndDate:     rec.EndDate,
		Period:      rec.Period,
		PosterURL:   rec.PosterURL,
		Genre:       rec.Genre,
		SubCategory: tx.Category(rec.Name),
		Part:        part,
		Region:      region,
		State:       rec.State,
		AvailableSites: []models.Site{{
			Name:  rec.SourceName,
			Link:  rec.SourceLink,
			Color: rec.SourceColor,
		}},
	}
	setTicketOpen(p, rec.TicketOpen, opts.Today)
	return p
}

// mergeInto applies the field policy for a repeated fingerprint: sites are
// append-only and unique by source name, every other field is first writer wins.
func mergeInto(p *models.UnifiedPerformance, rec models.RawRecord, today time.Time) {
	if !p.HasSite(rec.SourceName) {
		p.AvailableSites = append(p.AvailableSites, models.Site{
			Name:  rec.SourceName,
			Link:  rec.SourceLink,
			Color: rec.SourceColor,
		})
	}
	if p.TicketOpen == nil {
		setTicketOpen(p, rec.TicketOpen, today)
	}
	fill(&p.PosterURL, rec.PosterURL)
	fill(&p.Venue, rec.Venue)
	fill(&p.Genre, rec.Genre)
	fill(&p.StartDate, rec.StartDate)
	fill(&p.EndDate, rec.EndDate)
	fill(&p.Period, rec.Period)
	fill(&p.State, rec.State)
	fill(&p.ID, rec.SourceID)
}

func setTicketOpen(p *models.UnifiedPerformance, to *models.TicketOpen, today time.Time) {
	if to == nil {
		return
	}
	cp := *to
	p.TicketOpen = &cp
	d := utils.DDay(cp.Date, today)
	p.DDay = &d
}

func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
