package phishingrod

import (
	"sort"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/phishingrod/internal/dedupe"
)

// MaxInMemoryDedupeSize (default : 100 MB)
var MaxInMemoryDedupeSize = 100 * 1024 * 1024

type DedupeBackend interface {
	// Upsert add/update key to backend/database
	Upsert(elem string) error
	// Len returns the number of unique elements
	Len() int
	// Execute given callback on each element while iterating
	IterCallback(callback func(elem string)) error
	// Cleanup cleans any residuals after deduping
	Cleanup()
}

// Dedupe collects strings and returns them unique and sorted
type Dedupe struct {
	backend DedupeBackend
}

// NewDedupe returns a dedupe instance sized for byteLen bytes of input.
// Inputs larger than MaxInMemoryDedupeSize are deduplicated on disk.
func NewDedupe(byteLen int) (*Dedupe, error) {
	d := &Dedupe{}
	if byteLen <= MaxInMemoryDedupeSize {
		d.backend = dedupe.NewMapBackend()
		return d, nil
	}
	gologger.Info().Msgf("result set exceeds %d bytes, deduplicating on disk", MaxInMemoryDedupeSize)
	backend, err := dedupe.NewDiskBackend()
	if err != nil {
		return nil, err
	}
	d.backend = backend
	return d, nil
}

// Add inserts elem
func (d *Dedupe) Add(elem string) error {
	return d.backend.Upsert(elem)
}

// Len returns the number of unique elements
func (d *Dedupe) Len() int {
	return d.backend.Len()
}

// Sorted returns all unique elements in ascending order and releases the backend
func (d *Dedupe) Sorted() ([]string, error) {
	defer d.backend.Cleanup()
	results := make([]string, 0, d.backend.Len())
	if err := d.backend.IterCallback(func(elem string) {
		results = append(results, elem)
	}); err != nil {
		return nil, err
	}
	sort.Strings(results)
	return results, nil
}
