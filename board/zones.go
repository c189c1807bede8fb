// ABOUTME: Re-derives the Service Zone cell of every board item
// ABOUTME: Classifies from the City and Zip Code cells and writes changes
package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/ProxiMyti/proximyti-monday-integration/logging"
	"github.com/ProxiMyti/proximyti-monday-integration/schema"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
	"github.com/ProxiMyti/proximyti-monday-integration/zones"
)

// ZoneResult summarises one reclassification pass.
type ZoneResult struct {
	Updated   int
	Unchanged int
	// Skipped items have no city.
	Skipped int
	Failed  int
}

// Reclassify recomputes the zone of every item and writes the ones that differ.
func Reclassify(ctx context.Context, client *Client, m *schema.Mapping, classifier *zones.Classifier, pacer *sync.Pacer) (ZoneResult, error) {
	log := logging.FromContext(ctx)
	var result ZoneResult

	zoneCol, ok := m.Column(schema.FieldServiceZone)
	if !ok {
		return result, fmt.Errorf("%w: service zone", schema.ErrMissingColumn)
	}
	if pacer == nil {
		pacer = sync.NewPacer(0)
	}

	items, err := client.Items(ctx)
	if err != nil {
		return result, err
	}

	for _, item := range items {
		v := ToVendor(m, item)
		if strings.TrimSpace(v.City) == "" {
			log.Warn("no city, skipping", "item", item.ID, "vendor", item.Name)
			result.Skipped++
			continue
		}

		zone := classifier.Classify(v.City, v.ZipCode)
		if zone == v.ServiceZone {
			result.Unchanged++
			continue
		}

		if err := pacer.Wait(ctx); err != nil {
			return result, err
		}
		if err := client.SetColumnValue(ctx, item.ID, zoneCol.ID, zone); err != nil {
			log.Error("zone update failed", "item", item.ID, "vendor", item.Name, "error", err)
			result.Failed++
			continue
		}
		log.Info("zone updated", "vendor", item.Name, "city", v.City, "from", v.ServiceZone, "to", zone)
		result.Updated++
	}

	return result, nil
}
