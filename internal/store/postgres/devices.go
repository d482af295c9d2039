package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/galaxyhub/firmtrack/internal/tracker"
)

// ReplaceDevice wholesale replaces a device inside one transaction: the
// prior device row is deleted (models, regions and details cascade) and the
// freshly scraped state is reinserted. Running it twice with identical
// input leaves identical stored state.
func (s *Store) ReplaceDevice(ctx context.Context, device *tracker.Device) error {
	if device == nil {
		return fmt.Errorf("device is required")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace device: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM devices WHERE device_id = $1`, device.ID); err != nil {
		return fmt.Errorf("clear device %d: %w", device.ID, err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO devices (device_id, name, url, img_url, short_description)
VALUES ($1, $2, $3, $4, $5)`,
		device.ID, device.Name, device.URL, device.ImgURL, device.ShortDescription,
	); err != nil {
		return fmt.Errorf("insert device %d: %w", device.ID, err)
	}

	for _, model := range device.Models {
		if _, err := tx.Exec(ctx, `
INSERT INTO models (device_id, model) VALUES ($1, $2)`,
			device.ID, model,
		); err != nil {
			return fmt.Errorf("insert model %s: %w", model, err)
		}
		for _, region := range device.Regions[model] {
			if _, err := tx.Exec(ctx, `
INSERT INTO regions (model, region) VALUES ($1, $2)`,
				model, region,
			); err != nil {
				return fmt.Errorf("insert region %s/%s: %w", model, region, err)
			}
		}
	}

	position := 0
	for _, category := range device.Details {
		for _, attr := range category.Attrs {
			if _, err := tx.Exec(ctx, `
INSERT INTO details (device_id, category, name, value, position)
VALUES ($1, $2, $3, $4, $5)`,
				device.ID, category.Name, attr.Name, attr.Value, position,
			); err != nil {
				return fmt.Errorf("insert detail %s/%s: %w", category.Name, attr.Name, err)
			}
			position++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace device %d: %w", device.ID, err)
	}
	return nil
}

// SearchDevices finds devices whose name or model code contains the query,
// case-insensitively.
func (s *Store) SearchDevices(ctx context.Context, query string) ([]tracker.Device, error) {
	rows, err := s.pool.Query(ctx, `
SELECT device_id, name, url, img_url, short_description
FROM devices
WHERE name ILIKE '%' || $1 || '%'
   OR device_id IN (SELECT device_id FROM models WHERE model ILIKE '%' || $1 || '%')
ORDER BY name`, query)
	if err != nil {
		return nil, fmt.Errorf("search devices: %w", err)
	}
	defer rows.Close()

	var devices []tracker.Device
	for rows.Next() {
		dev := tracker.NewDevice()
		if err := rows.Scan(&dev.ID, &dev.Name, &dev.URL, &dev.ImgURL, &dev.ShortDescription); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, *dev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search devices rows: %w", err)
	}
	return devices, nil
}

// GetDevice loads one device row with its model codes; nil when absent.
func (s *Store) GetDevice(ctx context.Context, id int) (*tracker.Device, error) {
	dev := tracker.NewDevice()
	err := s.pool.QueryRow(ctx, `
SELECT device_id, name, url, img_url, short_description
FROM devices WHERE device_id = $1`, id).
		Scan(&dev.ID, &dev.Name, &dev.URL, &dev.ImgURL, &dev.ShortDescription)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get device %d: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `SELECT model FROM models WHERE device_id = $1 ORDER BY model`, id)
	if err != nil {
		return nil, fmt.Errorf("get device models: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var model string
		if err := rows.Scan(&model); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		dev.Models = append(dev.Models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get device models rows: %w", err)
	}
	return dev, nil
}

// GetSpecs returns the stored spec details of a device grouped by category,
// in insertion order.
func (s *Store) GetSpecs(ctx context.Context, id int) ([]tracker.SpecCategory, error) {
	rows, err := s.pool.Query(ctx, `
SELECT category, name, value FROM details WHERE device_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get specs %d: %w", id, err)
	}
	defer rows.Close()

	var specs []tracker.SpecCategory
	for rows.Next() {
		var category, name, value string
		if err := rows.Scan(&category, &name, &value); err != nil {
			return nil, fmt.Errorf("scan detail: %w", err)
		}
		if len(specs) == 0 || specs[len(specs)-1].Name != category {
			specs = append(specs, tracker.SpecCategory{Name: category})
		}
		last := &specs[len(specs)-1]
		last.Attrs = append(last.Attrs, tracker.SpecAttr{Name: name, Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get specs rows: %w", err)
	}
	return specs, nil
}

// AllModels lists every known model code.
func (s *Store) AllModels(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT model FROM models ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var models []string
	for rows.Next() {
		var model string
		if err := rows.Scan(&model); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list models rows: %w", err)
	}
	return models, nil
}

// RegionsByModel lists the region codes recorded for a model.
func (s *Store) RegionsByModel(ctx context.Context, model string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT region FROM regions WHERE model = $1 ORDER BY region`, model)
	if err != nil {
		return nil, fmt.Errorf("regions for %s: %w", model, err)
	}
	defer rows.Close()

	var regions []string
	for rows.Next() {
		var region string
		if err := rows.Scan(&region); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("regions rows: %w", err)
	}
	return regions, nil
}
