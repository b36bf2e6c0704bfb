package dedupe

import (
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/hmap/store/hybrid"
	errorutil "github.com/projectdiscovery/utils/errors"
)

// DiskBackend spills elements to a temporary hmap disk store
type DiskBackend struct {
	storage *hybrid.HybridMap
	count   int
}

func NewDiskBackend() (*DiskBackend, error) {
	db, err := hybrid.New(hybrid.DefaultDiskOptions)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("failed to create temp dir for result dedupe")
	}
	return &DiskBackend{storage: db}, nil
}

func (d *DiskBackend) Upsert(elem string) error {
	if _, ok := d.storage.Get(elem); ok {
		return nil
	}
	if err := d.storage.Set(elem, nil); err != nil {
		return errorutil.NewWithErr(err).Msgf("dedupe: disk: failed to write %v", elem)
	}
	d.count++
	return nil
}

func (d *DiskBackend) Len() int {
	return d.count
}

func (d *DiskBackend) IterCallback(callback func(elem string)) error {
	d.storage.Scan(func(k, _ []byte) error {
		callback(string(k))
		return nil
	})
	return nil
}

func (d *DiskBackend) Cleanup() {
	if err := d.storage.Close(); err != nil {
		gologger.Warning().Msgf("dedupe: disk: failed to close store: %v", err)
	}
}
