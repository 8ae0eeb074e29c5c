package repository

import (
	"context"
	"fmt"

	"github.com/shenikar/incident-response-core/internal/models"
)

// NearestFacilities returns up to limit facilities of facType ordered by
// distance from (lat, lon), for routing survivors to a shelter or
// hospital once an incident is marked Done.
func (s *Store) NearestFacilities(ctx context.Context, lat, lon float64, facType models.FacilityType, limit int) ([]models.Facility, error) {
	if limit < 1 {
		limit = 5
	}
	const query = `
		SELECT id, type, name, ST_Y(location::geometry), ST_X(location::geometry),
		       capacity, current_occupied, icu_beds,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000.0 AS distance_km
		FROM facilities
		WHERE type = $3
		ORDER BY location <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography
		LIMIT $4;
	`
	rows, err := s.db.Query(ctx, query, lon, lat, facType, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest facilities: %w", err)
	}
	defer rows.Close()

	facilities := make([]models.Facility, 0, limit)
	for rows.Next() {
		var f models.Facility
		if err := rows.Scan(&f.ID, &f.Type, &f.Name, &f.Latitude, &f.Longitude,
			&f.Capacity, &f.CurrentOccupied, &f.ICUBeds, &f.DistanceKM); err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// CreateFacility inserts a shelter or hospital record.
func (s *Store) CreateFacility(ctx context.Context, f *models.Facility) error {
	const query = `
		INSERT INTO facilities (type, name, location, capacity, current_occupied, icu_beds)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326), $5, $6, $7)
		RETURNING id;
	`
	return s.db.QueryRow(ctx, query, f.Type, f.Name, f.Longitude, f.Latitude, f.Capacity, f.CurrentOccupied, f.ICUBeds).
		Scan(&f.ID)
}
