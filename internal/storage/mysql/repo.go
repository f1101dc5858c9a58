package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"attraction_registry/internal/domain"
)

// errDupEntry is MySQL's ER_DUP_ENTRY.
const errDupEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func isDuplicate(err error) bool {
	var me *mysqldrv.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

func (r *Repo) Insert(ctx context.Context, a domain.Attraction) (err error) {
	cols := make([]string, 0, 4)
	for _, v := range [][]string{a.Types, a.PhotoURLs, a.OpeningHoursLines, a.CustomTags} {
		s, err := valJSON(v)
		if err != nil {
			return err
		}
		cols = append(cols, s)
	}
	var lat, lng any
	if a.Location != nil {
		lat, lng = a.Location.Lat, a.Location.Lng
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, insertAttractionSQL,
		a.ExternalPlaceID,
		a.Name,
		a.FormattedAddress,
		lat, lng,
		cols[0], // types
		cols[1], // photo_urls
		valF64(a.Rating),
		valInt(a.UserRatingsTotal),
		a.Website,
		a.MapsURL,
		a.PhoneNumber,
		cols[2], // opening_hours
		a.Category,
		cols[3], // custom_tags
		valStr(a.CityID),
		a.CreatedAt.UTC(),
	)
	if err != nil {
		if isDuplicate(err) {
			return domain.ErrConflict
		}
		return err
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, u := range a.RecommendedBy {
		if _, err = tx.ExecContext(ctx, insertRecommenderSQL, rowID, u); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) AppendRecommender(ctx context.Context, externalPlaceID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, appendRecommenderSQL, userID, externalPlaceID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	// nothing inserted: either already a member or no such attraction
	var one int
	if err := r.db.QueryRowContext(ctx, attractionExistsSQL, externalPlaceID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrNotFound
		}
		return false, err
	}
	return false, nil
}

func (r *Repo) Delete(ctx context.Context, externalPlaceID string) error {
	res, err := r.db.ExecContext(ctx, deleteAttractionSQL, externalPlaceID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) FindByExternalID(ctx context.Context, externalPlaceID string) (domain.Attraction, error) {
	rowID, a, err := scanAttraction(r.db.QueryRowContext(ctx, getAttractionSQL, externalPlaceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Attraction{}, domain.ErrNotFound
		}
		return domain.Attraction{}, err
	}

	rows, err := r.db.QueryContext(ctx, recommendersByAttractionSQL, rowID)
	if err != nil {
		return domain.Attraction{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return domain.Attraction{}, err
		}
		a.RecommendedBy = append(a.RecommendedBy, u)
	}
	return a, rows.Err()
}

func (r *Repo) ListAll(ctx context.Context) ([]domain.Attraction, error) {
	rows, err := r.db.QueryContext(ctx, listAttractionsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Attraction{}
	index := map[int64]int{}
	for rows.Next() {
		rowID, a, err := scanAttraction(rows)
		if err != nil {
			return nil, err
		}
		index[rowID] = len(out)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	recs, err := r.db.QueryContext(ctx, listRecommendersSQL)
	if err != nil {
		return nil, err
	}
	defer recs.Close()
	for recs.Next() {
		var rowID int64
		var u string
		if err := recs.Scan(&rowID, &u); err != nil {
			return nil, err
		}
		// rows inserted after the first query are simply not in index
		if i, ok := index[rowID]; ok {
			out[i].RecommendedBy = append(out[i].RecommendedBy, u)
		}
	}
	return out, recs.Err()
}

func (r *Repo) FindCityByNameCountry(ctx context.Context, name, country string) (domain.City, error) {
	var c domain.City
	err := r.db.QueryRowContext(ctx, findCitySQL, name, country).
		Scan(&c.ID, &c.Name, &c.Country, &c.Location.Lat, &c.Location.Lng, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.City{}, domain.ErrNotFound
		}
		return domain.City{}, err
	}
	return c, nil
}

func (r *Repo) InsertCity(ctx context.Context, c domain.City) (domain.City, error) {
	if _, err := r.db.ExecContext(ctx, insertCitySQL,
		c.ID, c.Name, c.Country, c.Location.Lat, c.Location.Lng, c.CreatedAt.UTC(),
	); err != nil {
		return domain.City{}, err
	}
	stored, err := r.FindCityByNameCountry(ctx, c.Name, c.Country)
	if err != nil {
		return domain.City{}, fmt.Errorf("read back city: %w", err)
	}
	return stored, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttraction(s scanner) (int64, domain.Attraction, error) {
	var (
		rowID        int64
		a            domain.Attraction
		lat, lng     sql.NullFloat64
		rating       sql.NullFloat64
		ratingsTotal sql.NullInt64
		typesJSON    []byte
		photosJSON   []byte
		hoursJSON    []byte
		tagsJSON     []byte
		createdAt    time.Time
		cityID       sql.NullString
		cityName     sql.NullString
		cityCountry  sql.NullString
		cityLat      sql.NullFloat64
		cityLng      sql.NullFloat64
		cityCreated  sql.NullTime
	)
	if err := s.Scan(
		&rowID,
		&a.ExternalPlaceID,
		&a.Name,
		&a.FormattedAddress,
		&lat, &lng,
		&typesJSON, &photosJSON,
		&rating,
		&ratingsTotal,
		&a.Website,
		&a.MapsURL,
		&a.PhoneNumber,
		&hoursJSON,
		&a.Category,
		&tagsJSON,
		&createdAt,
		&cityID, &cityName, &cityCountry, &cityLat, &cityLng, &cityCreated,
	); err != nil {
		return 0, domain.Attraction{}, err
	}

	// partial coordinates are treated as absent
	if lat.Valid && lng.Valid {
		a.Location = &domain.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}
	if rating.Valid {
		f := rating.Float64
		a.Rating = &f
	}
	if ratingsTotal.Valid {
		n := int(ratingsTotal.Int64)
		a.UserRatingsTotal = &n
	}
	a.Types = decodeList(typesJSON)
	a.PhotoURLs = decodeList(photosJSON)
	a.OpeningHoursLines = decodeList(hoursJSON)
	a.CustomTags = decodeList(tagsJSON)
	a.RecommendedBy = []string{}
	a.CreatedAt = createdAt.UTC()

	if cityID.Valid {
		id := cityID.String
		a.CityID = &id
		a.City = &domain.City{
			ID:       id,
			Name:     cityName.String,
			Country:  cityCountry.String,
			Location: domain.Coordinate{Lat: cityLat.Float64, Lng: cityLng.Float64},
		}
		if cityCreated.Valid {
			a.City.CreatedAt = cityCreated.Time.UTC()
		}
	}
	return rowID, a, nil
}

func decodeList(b []byte) []string {
	out := []string{}
	if len(b) > 0 {
		_ = json.Unmarshal(b, &out)
	}
	return out
}
